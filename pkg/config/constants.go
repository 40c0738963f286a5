package config

// EnvPrefix is the envconfig prefix shared by every TokoPOS variable.
const EnvPrefix = "TOKOPOS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "TOKOPOS_DB_DSN"
	EnvDBHost = "TOKOPOS_DB_HOST"
	EnvDBUser = "TOKOPOS_DB_USER"
	EnvDBName = "TOKOPOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
