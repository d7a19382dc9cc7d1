package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DBConfig accepts either a full DSN or the discrete host/user/name
// variables.
type DBConfig struct {
	DSN    string `envconfig:"FIELDSERVICE_DB_DSN"`
	Driver string `envconfig:"FIELDSERVICE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FIELDSERVICE_DB_HOST"`
	Port     int    `envconfig:"FIELDSERVICE_DB_PORT" default:"5432"`
	User     string `envconfig:"FIELDSERVICE_DB_USER"`
	Password string `envconfig:"FIELDSERVICE_DB_PASSWORD"`
	Name     string `envconfig:"FIELDSERVICE_DB_NAME"`
	SSLMode  string `envconfig:"FIELDSERVICE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"FIELDSERVICE_SQLITE_PATH" default:"fieldservice.db"`

	MaxOpenConns    int           `envconfig:"FIELDSERVICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIELDSERVICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDSERVICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDSERVICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" || strings.EqualFold(db.Driver, DBDriverSQLite) {
		return nil
	}

	var missing []string
	for env, v := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if v == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: DBDriverPostgres,
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}
