package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	BackendMongo = "mongo"
	BackendCRDB  = "crdb"
)

type Config struct {
	HTTPAddr     string
	StoreBackend string
	MongoURI     string
	MongoDB      string
	CRDBDSN      string
	RedisAddr    string
	RabbitURL    string
	OTLPEndpoint string
	LogLevel     string
	CORSOrigins  []string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	ChatTimeout   time.Duration

	DefaultAccountID   string
	DefaultAccountName string
	DefaultBalance     int64

	SurgeWindow      time.Duration
	StrictFares      bool
	FlightsCacheTTL  time.Duration
	AttemptRateLimit int

	OutboxInterval time.Duration
	AuditQueue     string
}

// ChatEnabled reports whether a usable Gemini key is configured. The
// placeholder shipped in sample .env files counts as missing.
func (c *Config) ChatEnabled() bool {
	return c.GeminiAPIKey != "" && !strings.HasPrefix(c.GeminiAPIKey, "Your_API_Key")
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":5000"),
		StoreBackend:       getenv("STORE_BACKEND", BackendMongo),
		MongoURI:           getenv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:            getenv("MONGO_DB", "flightBookingDB"),
		CRDBDSN:            os.Getenv("CRDB_DSN"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RabbitURL:          os.Getenv("RABBIT_URL"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS", "*")),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:      getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		DefaultAccountID:   getenv("DEFAULT_ACCOUNT_ID", "default"),
		DefaultAccountName: getenv("DEFAULT_ACCOUNT_NAME", "Test User"),
		AuditQueue:         getenv("AUDIT_QUEUE", "flightdesk.audit"),
	}

	var err error
	if cfg.ChatTimeout, err = durationEnv("CHAT_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SurgeWindow, err = durationEnv("SURGE_WINDOW", 0); err != nil {
		return nil, err
	}
	if cfg.FlightsCacheTTL, err = durationEnv("FLIGHTS_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxInterval, err = durationEnv("OUTBOX_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.StrictFares, err = boolEnv("STRICT_FARES", false); err != nil {
		return nil, err
	}
	if cfg.DefaultBalance, err = int64Env("DEFAULT_BALANCE", 50000); err != nil {
		return nil, err
	}
	rateLimit, err := int64Env("ATTEMPT_RATE_LIMIT", 30)
	if err != nil {
		return nil, err
	}
	cfg.AttemptRateLimit = int(rateLimit)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMongo:
	case BackendCRDB:
		if c.CRDBDSN == "" {
			return errors.New("CRDB_DSN is required when STORE_BACKEND=crdb")
		}
	default:
		return errors.Newf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.DefaultBalance < 0 {
		return errors.Newf("DEFAULT_BALANCE must not be negative, got %d", c.DefaultBalance)
	}
	if c.SurgeWindow < 0 {
		return errors.Newf("SURGE_WINDOW must not be negative, got %s", c.SurgeWindow)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "parse %s", key)
	}
	return b, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
