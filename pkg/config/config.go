package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Selection    SelectionConfig
	AdminPoll    AdminPollConfig
	Services     ServicesConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.StateBackend == StateBackendDB {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
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

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
}

// PricingConfig carries the order add-on fees in currency minor units.
// Upstream showed two conflicting values per fee, so both are operator
// configuration rather than constants.
type PricingConfig struct {
	EcoPackagingFee int `envconfig:"STOREFRONT_PRICING_ECO_PACKAGING_FEE" default:"5000"`
	CarbonOffsetFee int `envconfig:"STOREFRONT_PRICING_CARBON_OFFSET_FEE" default:"3800"`
}

type SelectionConfig struct {
	EmptyGuardDelay time.Duration `envconfig:"STOREFRONT_SELECTION_EMPTY_GUARD_DELAY" default:"3s"`
}

type AdminPollConfig struct {
	Interval time.Duration `envconfig:"STOREFRONT_ADMIN_POLL_INTERVAL" default:"30s"`
}

// ServicesConfig points at the upstream platform services the gateway
// consumes. Every entry is a base URL.
type ServicesConfig struct {
	CartURL    string        `envconfig:"STOREFRONT_CART_SERVICE_URL" required:"true"`
	WalletURL  string        `envconfig:"STOREFRONT_WALLET_SERVICE_URL" required:"true"`
	OrderURL   string        `envconfig:"STOREFRONT_ORDER_SERVICE_URL" required:"true"`
	VoucherURL string        `envconfig:"STOREFRONT_VOUCHER_SERVICE_URL" required:"true"`
	TopUpURL   string        `envconfig:"STOREFRONT_TOPUP_SERVICE_URL" required:"true"`
	CatalogURL string        `envconfig:"STOREFRONT_CATALOG_SERVICE_URL" required:"true"`
	UserURL    string        `envconfig:"STOREFRONT_USER_SERVICE_URL" required:"true"`
	Timeout    time.Duration `envconfig:"STOREFRONT_SERVICE_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	// StateBackend selects where per-user storefront state lives:
	// "redis" or "db".
	StateBackend string `envconfig:"STOREFRONT_STATE_BACKEND" default:"redis"`
	UseSQLite    bool   `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate  bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
