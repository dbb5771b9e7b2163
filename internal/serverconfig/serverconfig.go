package serverconfig

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// devJWTSecret is only accepted for local sqlite runs.
const devJWTSecret = "dev-secret"

var (
	ErrNoDatabase  = errors.New("database DSN is required (-d or DATABASE_URI)")
	ErrNoJWTSecret = errors.New("JWT secret is required outside local sqlite runs (-s or JWT_SECRET)")
)

type ConfigStore struct {
	FlagRunAddr        string
	FlagDatabase       string
	FlagKafkaBrokers   string
	FlagRedisAddr      string
	FlagJWTSecret      string
	FlagLogLevel       string
	FlagStaticDir      string
	FlagAdminEmail     string
	RateLimitPerMinute int
	SnowflakeNode      int64
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		FlagRunAddr:        "",
		FlagDatabase:       "",
		RateLimitPerMinute: 30,
		SnowflakeNode:      1,
	}
}

// ParseFlags reads .env (if present), the command line and then the
// environment. Environment values win over flags.
func (configStore *ConfigStore) ParseFlags() {
	_ = godotenv.Load()
	configStore.parse(flag.CommandLine, os.Args[1:])
}

func (configStore *ConfigStore) parse(fs *flag.FlagSet, args []string) {
	fs.StringVar(&configStore.FlagRunAddr, "a", ":8080", "address and port to run server")
	fs.StringVar(&configStore.FlagDatabase, "d", "", "database DSN (postgres DSN or sqlite://path)")
	fs.StringVar(&configStore.FlagKafkaBrokers, "k", "", "comma separated kafka brokers for domain events")
	fs.StringVar(&configStore.FlagRedisAddr, "r", "", "redis address for rate limiting")
	fs.StringVar(&configStore.FlagJWTSecret, "s", "", "secret used to sign auth tokens")
	fs.StringVar(&configStore.FlagLogLevel, "l", "info", "log level")
	fs.StringVar(&configStore.FlagStaticDir, "static", "", "directory with the built site to serve")
	fs.StringVar(&configStore.FlagAdminEmail, "admin-email", "", "email of the account promoted to admin on startup")
	_ = fs.Parse(args)

	if v := os.Getenv("RUN_ADDRESS"); v != "" {
		configStore.FlagRunAddr = v
	}
	if v := os.Getenv("DATABASE_URI"); v != "" {
		configStore.FlagDatabase = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		configStore.FlagKafkaBrokers = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		configStore.FlagRedisAddr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		configStore.FlagJWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		configStore.FlagLogLevel = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		configStore.FlagStaticDir = v
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		configStore.FlagAdminEmail = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_PER_MINUTE")); err == nil && v > 0 {
		configStore.RateLimitPerMinute = v
	}
	if v, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64); err == nil {
		configStore.SnowflakeNode = v
	}
}

// Validate checks the settings run cannot start without. A local sqlite
// database falls back to the development JWT secret.
func (configStore *ConfigStore) Validate() error {
	if configStore.FlagDatabase == "" {
		return ErrNoDatabase
	}
	if configStore.FlagJWTSecret != "" {
		return nil
	}
	if !configStore.IsLocalDatabase() {
		return ErrNoJWTSecret
	}
	configStore.FlagJWTSecret = devJWTSecret
	return nil
}

func (configStore *ConfigStore) IsLocalDatabase() bool {
	return strings.HasPrefix(configStore.FlagDatabase, "sqlite://")
}

func (configStore *ConfigStore) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(configStore.FlagKafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
