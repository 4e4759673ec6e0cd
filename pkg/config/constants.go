package config

// EnvPrefix is the envconfig prefix applied to every variable.
const EnvPrefix = "stockledger"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "STOCKLEDGER_APP_ENV"
	EnvPort   = "STOCKLEDGER_APP_PORT"

	EnvDBDSN  = "STOCKLEDGER_DB_DSN"
	EnvDBHost = "STOCKLEDGER_DB_HOST"
	EnvDBUser = "STOCKLEDGER_DB_USER"
	EnvDBName = "STOCKLEDGER_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
