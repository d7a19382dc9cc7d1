package config

const EnvPrefix = "FIELDSERVICE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	OrderCodeStrategySequence = "sequence"
	OrderCodeStrategyCount    = "count"
)

const (
	EnvAppEnv      = "FIELDSERVICE_APP_ENV"
	EnvPort        = "FIELDSERVICE_APP_PORT"
	EnvLogLevel    = "FIELDSERVICE_LOG_LEVEL"
	EnvCORSOrigins = "FIELDSERVICE_CORS_ORIGINS"

	EnvDBDSN      = "FIELDSERVICE_DB_DSN"
	EnvDBHost     = "FIELDSERVICE_DB_HOST"
	EnvDBPort     = "FIELDSERVICE_DB_PORT"
	EnvDBUser     = "FIELDSERVICE_DB_USER"
	EnvDBPassword = "FIELDSERVICE_DB_PASSWORD"
	EnvDBName     = "FIELDSERVICE_DB_NAME"

	EnvRedisURL = "FIELDSERVICE_REDIS_URL"

	EnvJWTSecret              = "FIELDSERVICE_JWT_SECRET"
	EnvJWTIssuer              = "FIELDSERVICE_JWT_ISSUER"
	EnvJWTExpMins             = "FIELDSERVICE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FIELDSERVICE_REFRESH_TOKEN_TTL_MINUTES"

	EnvUseSQLite   = "FIELDSERVICE_USE_SQLITE"
	EnvAutoMigrate = "FIELDSERVICE_AUTO_MIGRATE"

	EnvOrderCodeStrategy = "FIELDSERVICE_ORDER_CODE_STRATEGY"
	EnvOrderListMaxLimit = "FIELDSERVICE_ORDER_LIST_MAX_LIMIT"

	EnvGCPProjectID             = "FIELDSERVICE_GCP_PROJECT_ID"
	EnvPubSubServiceOrdersTopic = "FIELDSERVICE_PUBSUB_SERVICE_ORDERS_TOPIC"

	EnvOutboxMaxAttempts   = "FIELDSERVICE_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetentionDays = "FIELDSERVICE_OUTBOX_RETENTION_DAYS"
	EnvCronInterval        = "FIELDSERVICE_CRON_INTERVAL"
)
