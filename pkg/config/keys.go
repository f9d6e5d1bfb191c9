package config

// EnvPrefix is empty because every field carries its fully qualified name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:storefront.db?_foreign_keys=on"

	MirrorDriverSQL       = "sql"
	MirrorDriverFirestore = "firestore"
	MirrorDriverMemory    = "memory"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvJWTSecret    = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer    = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins   = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvMirrorDriver = "STOREFRONT_MIRROR_DRIVER"
	EnvGCPProjectID = "STOREFRONT_GCP_PROJECT_ID"
	EnvAPIURL       = "STOREFRONT_API_URL"
	EnvStatePath    = "STOREFRONT_STATE_PATH"
)
