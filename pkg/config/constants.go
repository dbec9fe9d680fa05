package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// SAFETATT_-prefixed tags, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "SAFETATT_DB_DSN"
	EnvDBHost = "SAFETATT_DB_HOST"
	EnvDBUser = "SAFETATT_DB_USER"
	EnvDBName = "SAFETATT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
