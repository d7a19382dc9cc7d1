package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFile = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredMarkers = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks every .sql file in dir for a well-formed, unique version
// prefix and both goose section markers.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		version, err := checkMigration(dir, name)
		if err != nil {
			return err
		}
		if prev, dup := versions[version]; dup {
			return fmt.Errorf("version %s used by both %s and %s", version, prev, name)
		}
		versions[version] = name
	}
	if len(versions) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	return nil
}

func checkMigration(dir, name string) (string, error) {
	m := migrationFile.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
	}
	body, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	for _, marker := range requiredMarkers {
		if !strings.Contains(string(body), marker) {
			return "", fmt.Errorf("migration %s is missing %q", name, marker)
		}
	}
	return m[1], nil
}
