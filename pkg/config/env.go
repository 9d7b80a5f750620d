package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID          = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubNotificationSub = "STOREFRONT_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvDefaultDeliveryFee = "STOREFRONT_DEFAULT_DELIVERY_FEE_CENTS"
	EnvCartMaxRetries     = "STOREFRONT_CART_MAX_RETRIES"
	EnvNotificationQueue  = "STOREFRONT_NOTIFICATION_QUEUE_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
