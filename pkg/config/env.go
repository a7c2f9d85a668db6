package config

// EnvPrefix is the envconfig prefix shared by every section.
const EnvPrefix = "HAVENTRIP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Canonical environment variable names, referenced in error messages and
// tests so renames stay in one place.
const (
	EnvAppEnv   = "HAVENTRIP_APP_ENV"
	EnvPort     = "HAVENTRIP_APP_PORT"
	EnvDBDSN    = "HAVENTRIP_DB_DSN"
	EnvDBHost   = "HAVENTRIP_DB_HOST"
	EnvDBUser   = "HAVENTRIP_DB_USER"
	EnvDBName   = "HAVENTRIP_DB_NAME"
	EnvRedisURL = "HAVENTRIP_REDIS_URL"

	EnvGCPProjectID = "HAVENTRIP_GCP_PROJECT_ID"

	EnvPubSubBookingsTopic   = "HAVENTRIP_PUBSUB_BOOKINGS_TOPIC"
	EnvPubSubBookingsSub     = "HAVENTRIP_PUBSUB_BOOKINGS_SUBSCRIPTION"
	EnvPubSubNotificationSub = "HAVENTRIP_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
