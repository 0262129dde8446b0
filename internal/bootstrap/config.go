package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/infra/setup"
)

// Config holds everything read from the environment at startup.
type Config struct {
	AppEnv     string
	ServerPort string
	LogLevel   string

	DB setup.DBConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	JWTSecret      string
	JWTExpiryHours int

	RoomTTL         time.Duration
	MaxParticipants int
	AssetBaseURL    string

	SyncInitialDelay time.Duration
	SyncInterval     time.Duration
	RelayWorkers     int

	SignalRelayFallback     bool
	LeaveOnDisconnect       bool
	ConfigureKeyspaceEvents bool

	RateLimitMax      int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var p envParser
	cfg := &Config{
		AppEnv:     p.text("APP_ENV", "development"),
		ServerPort: p.text("SERVER_PORT", "8080"),
		LogLevel:   p.text("LOG_LEVEL", "info"),
		DB: setup.DBConfig{
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     p.text("DB_HOST", "127.0.0.1"),
			Port:     p.text("DB_PORT", "3306"),
			Name:     p.text("DB_NAME", "clov"),
		},
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 p.integer("REDIS_DB", 0),
		KeyPrefix:               os.Getenv("REDIS_KEY_PREFIX"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		JWTExpiryHours:          p.integer("JWT_EXPIRY_HOURS", 4),
		RoomTTL:                 time.Duration(p.integer("ROOM_TTL_SECONDS", 3600)) * time.Second,
		MaxParticipants:         p.integer("ROOM_MAX_PARTICIPANTS", 10),
		AssetBaseURL:            p.text("ASSET_BASE_URL", "http://localhost:8080/assets/"),
		SyncInitialDelay:        p.duration("SYNC_INITIAL_DELAY", 10*time.Second),
		SyncInterval:            p.duration("SYNC_INTERVAL", 15*time.Second),
		RelayWorkers:            p.integer("RELAY_WORKERS", 10),
		SignalRelayFallback:     p.boolean("SIGNAL_RELAY_FALLBACK", true),
		LeaveOnDisconnect:       p.boolean("LEAVE_ON_DISCONNECT", true),
		ConfigureKeyspaceEvents: p.boolean("CONFIGURE_KEYSPACE_EVENTS", true),
		RateLimitMax:            p.integer("RATE_LIMIT_MAX", 100),
		RateLimitWindow:         p.duration("RATE_LIMIT_WINDOW", time.Second),
		CORSAllowedOrigin:       p.text("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.RoomTTL <= 0 || cfg.MaxParticipants <= 0 || cfg.RelayWorkers <= 0 {
		return nil, fmt.Errorf("ROOM_TTL_SECONDS, ROOM_MAX_PARTICIPANTS and RELAY_WORKERS must be positive")
	}
	if cfg.SyncInterval <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL and RATE_LIMIT_WINDOW must be positive")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// envParser reads typed variables and keeps the first parse error.
type envParser struct {
	err error
}

func (p *envParser) text(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *envParser) integer(key string, def int) int {
	raw := p.text(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *envParser) boolean(key string, def bool) bool {
	raw := p.text(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	raw := p.text(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *envParser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s: %w", raw, key, err)
	}
}

// NewLogger builds the application logger and applies the same settings to
// the logrus standard logger used by package level log calls.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	configureLogger(log, cfg)
	configureLogger(logrus.StandardLogger(), cfg)
	return log
}

func configureLogger(log *logrus.Logger, cfg *Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
}
