// Package config provides application configuration loaded from an optional
// YAML file and environment variables with defaults and validation. It
// centralizes application settings such as server timeouts, logging, storage,
// credentials, SMS delivery, rate limiting, and observability.
//
// Sources are layered with koanf: built-in defaults, then the file named by
// CONFIG_PATH (flat lowercase keys, e.g. "db_driver: postgres"), then the
// process environment (DB_DRIVER=postgres). Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "metrosite-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path
	DSN    string // Postgres DSN or URL
}

// JWTConfig configures access and refresh credentials.
type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// EskizConfig holds Eskiz gateway credentials.
type EskizConfig struct {
	Email    string
	Password string
	From     string
	BaseURL  string
}

// TwilioConfig holds Twilio credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// SMSConfig selects and configures the SMS provider.
type SMSConfig struct {
	Provider string        // log|eskiz|twilio
	Timeout  time.Duration // per-send deadline
	Prefix   string        // text placed before the code
	Eskiz    EskizConfig
	Twilio   TwilioConfig
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB         DBConfig
	BadgerPath string // pending-verification store; empty = in-memory

	// Credentials
	JWT    JWTConfig
	OTPTTL time.Duration
	SMS    SMSConfig
	APIKey string // optional X-API-Key gate

	// Bootstrap admin (created on startup when both are set)
	AdminUsername string
	AdminPassword string

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the optional CONFIG_PATH file and the
// environment, applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	s, err := newSource(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              s.getenv("PORT", "8080"),
		ReadTimeout:       s.getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: s.getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      s.getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       s.getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    s.getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(s.getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(s.getenv("LOG_LEVEL", "info")),
		LogPretty:      s.getbool("LOG_PRETTY", false),
		SwaggerEnabled: s.getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(s.getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(s.getenv("DB_DRIVER", "sqlite")),
			Path:   s.getenv("DB_PATH", "app.db"),
			DSN:    s.getenv("DB_DSN", ""),
		},
		BadgerPath: s.getenv("BADGER_PATH", ""),

		// Credentials
		JWT: JWTConfig{
			Secret:     s.getenv("JWT_SECRET", ""),
			Issuer:     s.getenv("JWT_ISSUER", "metrosite"),
			AccessTTL:  s.getdur("ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTTL: s.getdur("REFRESH_TOKEN_TTL", 60*24*time.Hour),
		},
		OTPTTL: s.getdur("OTP_TTL", 5*time.Minute),
		SMS: SMSConfig{
			Provider: strings.ToLower(s.getenv("SMS_PROVIDER", "log")),
			Timeout:  s.getdur("SMS_TIMEOUT", 10*time.Second),
			Prefix:   s.getenv("SMS_PREFIX", "Metro: tasdiqlash kodingiz"),
			Eskiz: EskizConfig{
				Email:    s.getenv("ESKIZ_EMAIL", ""),
				Password: s.getenv("ESKIZ_PASSWORD", ""),
				From:     s.getenv("ESKIZ_FROM", "4546"),
				BaseURL:  strings.TrimRight(s.getenv("ESKIZ_BASE_URL", "https://notify.eskiz.uz/api"), "/"),
			},
			Twilio: TwilioConfig{
				AccountSID: s.getenv("TWILIO_ACCOUNT_SID", ""),
				AuthToken:  s.getenv("TWILIO_AUTH_TOKEN", ""),
				From:       s.getenv("TWILIO_FROM", ""),
			},
		},
		APIKey: s.getenv("API_KEY", ""),

		AdminUsername: s.getenv("ADMIN_USERNAME", ""),
		AdminPassword: s.getenv("ADMIN_PASSWORD", ""),

		// Rate limiting
		RateRPS:   s.getfloat("RATE_RPS", 5.0),
		RateBurst: s.getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(s.getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: s.getbool("ENABLE_HSTS", false),
			HSTSMaxAge: s.getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: s.getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     s.getbool("OTEL_ENABLED", false),
			Endpoint:    s.getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    s.getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: s.getenv("OTEL_SERVICE_NAME", "metrosite-backend"),
			SampleRatio: s.getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return errors.New("DB_DSN must be set when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if len(cfg.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be > 0")
	}
	if cfg.OTPTTL <= 0 {
		return errors.New("OTP_TTL must be > 0")
	}
	if cfg.SMS.Timeout <= 0 {
		return errors.New("SMS_TIMEOUT must be > 0")
	}
	switch cfg.SMS.Provider {
	case "log":
	case "eskiz":
		if cfg.SMS.Eskiz.Email == "" || cfg.SMS.Eskiz.Password == "" {
			return errors.New("ESKIZ_EMAIL and ESKIZ_PASSWORD are required when SMS_PROVIDER=eskiz")
		}
	case "twilio":
		if cfg.SMS.Twilio.AccountSID == "" || cfg.SMS.Twilio.AuthToken == "" || cfg.SMS.Twilio.From == "" {
			return errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM are required when SMS_PROVIDER=twilio")
		}
	default:
		return errors.New("SMS_PROVIDER must be one of: log, eskiz, twilio")
	}
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- source helpers ----

// source is a flat key space: env names lowercased, file keys as written.
type source struct {
	k *koanf.Koanf
}

func newSource(path string) (source, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return source{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return source{}, fmt.Errorf("load environment: %w", err)
	}
	return source{k: k}, nil
}

func (s source) lookup(key string) (string, bool) {
	key = strings.ToLower(key)
	if !s.k.Exists(key) {
		return "", false
	}
	return s.k.String(key), true
}

func (s source) getenv(k, def string) string {
	if v, ok := s.lookup(k); ok && v != "" {
		return v
	}
	return def
}

func (s source) getfloat(k string, def float64) float64 {
	if v, ok := s.lookup(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) getint(k string, def int) int {
	if v, ok := s.lookup(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getbool(k string, def bool) bool {
	if v, ok := s.lookup(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func (s source) getdur(k string, def time.Duration) time.Duration {
	if v, ok := s.lookup(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
