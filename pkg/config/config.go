package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Cart          CartConfig
	Payment       PaymentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.App.IsProd() && cfg.FeatureFlags.UseSQLite {
		return nil, fmt.Errorf("%s is not allowed when %s=%s", EnvUseSQLite, EnvAppEnv, AppEnvProd)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.Parse(); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshTokenTTL() <= cfg.JWT.AccessTokenTTL() {
		return nil, fmt.Errorf("%s must exceed %s", EnvRefreshTokenTTLMinutes, EnvJWTExpMins)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port           string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat      string   `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// ConsoleLogs reports whether logs should be written for humans instead of as JSON.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, "console")
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?cache=shared&_foreign_keys=on"
)

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

func (db *DBConfig) ensureDSN(flags FeatureFlagsConfig) error {
	if flags.UseSQLite {
		db.Driver = DriverSQLite
	}
	switch {
	case db.IsSQLite():
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	case strings.EqualFold(db.Driver, DriverPostgres):
		db.Driver = DriverPostgres
		if db.DSN == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DriverPostgres)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STOREFRONT_JWT_ISSUER" default:"permanent-printing-press"`
	ExpirationMinutes      int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"10080"`
	RefreshTokenTTLMinutes int    `envconfig:"STOREFRONT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the lifetime of minted access tokens.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the raw pricing policy. Amounts stay strings until Parse
// so they never pass through float64.
type PricingConfig struct {
	Currency              string            `envconfig:"STOREFRONT_PRICING_CURRENCY" default:"GHS"`
	FreeShippingThreshold string            `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"200"`
	FlatShippingFee       string            `envconfig:"STOREFRONT_PRICING_FLAT_SHIPPING_FEE" default:"15"`
	TaxRatePercent        string            `envconfig:"STOREFRONT_PRICING_TAX_RATE_PERCENT" default:"12.5"`
	PromotionCodes        map[string]string `envconfig:"STOREFRONT_PRICING_PROMOTION_CODES" default:"GHANA10:10,NEWCUSTOMER:15,BULK20:20,STUDENT5:5"`
}

// ParsedPricing is the decimal form of PricingConfig.
type ParsedPricing struct {
	Currency              string
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRatePercent        decimal.Decimal
	PromotionRates        map[string]decimal.Decimal
}

// Parse converts the configured amounts into decimals, rejecting negative values.
func (p PricingConfig) Parse() (ParsedPricing, error) {
	threshold, err := parseNonNegative(EnvFreeShippingThreshold, p.FreeShippingThreshold)
	if err != nil {
		return ParsedPricing{}, err
	}
	fee, err := parseNonNegative(EnvFlatShippingFee, p.FlatShippingFee)
	if err != nil {
		return ParsedPricing{}, err
	}
	tax, err := parseNonNegative(EnvTaxRatePercent, p.TaxRatePercent)
	if err != nil {
		return ParsedPricing{}, err
	}

	rates := make(map[string]decimal.Decimal, len(p.PromotionCodes))
	for code, raw := range p.PromotionCodes {
		rate, err := parseNonNegative(EnvPromotionCodes, raw)
		if err != nil {
			return ParsedPricing{}, err
		}
		rates[strings.TrimSpace(code)] = rate
	}

	return ParsedPricing{
		Currency:              strings.ToUpper(strings.TrimSpace(p.Currency)),
		FreeShippingThreshold: threshold,
		FlatShippingFee:       fee,
		TaxRatePercent:        tax,
		PromotionRates:        rates,
	}, nil
}

func parseNonNegative(name, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", name, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return value, nil
}

type CartConfig struct {
	TTL                time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
	MaxQuantityPerLine int           `envconfig:"STOREFRONT_CART_MAX_QUANTITY_PER_LINE" default:"10000"`
}

type PaymentConfig struct {
	Provider        string        `envconfig:"STOREFRONT_PAYMENT_PROVIDER" default:"mock"`
	MockDeclineAll  bool          `envconfig:"STOREFRONT_PAYMENT_MOCK_DECLINE_ALL" default:"false"`
	MockUnavailable bool          `envconfig:"STOREFRONT_PAYMENT_MOCK_UNAVAILABLE" default:"false"`
	MockLatency     time.Duration `envconfig:"STOREFRONT_PAYMENT_MOCK_LATENCY" default:"0s"`
}
