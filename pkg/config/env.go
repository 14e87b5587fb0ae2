package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvJWTSecret               = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer               = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins              = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite               = "STOREFRONT_USE_SQLITE"
	EnvAutoMigrate             = "STOREFRONT_AUTO_MIGRATE"
	EnvFreeShippingThreshold   = "STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvFlatShippingFee         = "STOREFRONT_PRICING_FLAT_SHIPPING_FEE"
	EnvTaxRatePercent          = "STOREFRONT_PRICING_TAX_RATE_PERCENT"
	EnvPromotionCodes          = "STOREFRONT_PRICING_PROMOTION_CODES"
	EnvCartTTL                 = "STOREFRONT_CART_TTL"
	EnvCartMaxQuantityPerLine  = "STOREFRONT_CART_MAX_QUANTITY_PER_LINE"
	EnvPaymentMockDeclineAll   = "STOREFRONT_PAYMENT_MOCK_DECLINE_ALL"
	EnvPaymentMockUnavailable  = "STOREFRONT_PAYMENT_MOCK_UNAVAILABLE"
)
