package config

const (
	EnvPrefix = "HARVESTLINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "HARVESTLINK_APP_ENV"
	EnvPort   = "HARVESTLINK_APP_PORT"

	EnvDBDSN  = "HARVESTLINK_DB_DSN"
	EnvDBHost = "HARVESTLINK_DB_HOST"
	EnvDBUser = "HARVESTLINK_DB_USER"
	EnvDBName = "HARVESTLINK_DB_NAME"

	EnvRedisURL  = "HARVESTLINK_REDIS_URL"
	EnvJWTSecret = "HARVESTLINK_JWT_SECRET"
	EnvJWTIssuer = "HARVESTLINK_JWT_ISSUER"

	EnvCommerceDeliveryFee = "HARVESTLINK_COMMERCE_DELIVERY_FEE"
	EnvNotificationSinks   = "HARVESTLINK_NOTIFICATIONS_SINKS"
	EnvGCPProjectID        = "HARVESTLINK_GCP_PROJECT_ID"

	SinkStore    = "store"
	SinkRealtime = "realtime"
	SinkPubSub   = "pubsub"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
