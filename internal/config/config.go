// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, payment gateway credentials,
// staff authentication, the feedback relay, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Deployment environments recognized by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
	// AllowCredentials lets the staff frontend send the auth cookie. Only
	// honoured together with an explicit origin allowlist.
	AllowCredentials bool
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-excursion-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and locates the relational store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite path
	URL    string // Postgres DSN (DATABASE_URL)
}

// UploadsConfig defines where catalog images are stored and served from.
type UploadsConfig struct {
	Dir       string // UPLOADS_DIR
	URLPrefix string // UPLOADS_URL_PREFIX, e.g. "/uploads"
	MaxBytes  int64  // UPLOADS_MAX_BYTES
}

// AuthConfig defines staff authentication settings.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
}

// PaymentConfig defines the payment gateway integration.
type PaymentConfig struct {
	ShopID      string
	SecretKey   string
	APIURL      string
	Currency    string        // ISO 4217, fixed for every payment
	Timeout     time.Duration // network timeout for a single gateway call
	Description string        // receipt line / payment description
	VatCode     int           // receipt VAT code (1 = without VAT)

	// ReturnURLs maps a deployment environment to the redirect target shown
	// after the customer confirms a payment. FrontendURL is the fallback.
	ReturnURLs  map[string]string
	FrontendURL string
}

// KeyGenConfig bounds the key generator's rejection-sampling loop.
type KeyGenConfig struct {
	MaxAttempts int
}

// TelegramConfig defines the customer feedback relay.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string
	Timeout  time.Duration
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
	AppEnv            string        // development|staging|production

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs (RedactingLogger)
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB      DBConfig
	Uploads UploadsConfig

	// Integrations
	Auth     AuthConfig
	Payment  PaymentConfig
	KeyGen   KeyGenConfig
	Telegram TelegramConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Stricter per-route bucket for payment, feedback and sign-in.
	RateStrictRPS   float64
	RateStrictBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// Load reads the environment, fills defaults, normalizes aliases and
// validates the result. Every violation is reported, joined into one error.
func Load() (Config, error) {
	cfg := fromEnv()
	cfg.normalize()
	return cfg, cfg.validate()
}

func fromEnv() Config {
	return Config{
		Port:              str("PORT", str("BACKEND_PORT", "8080")),
		ReadTimeout:       dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    num("MAX_HEADER_BYTES", 1<<20),
		GinMode:           lower("GIN_MODE", "release"),
		AppEnv:            lower("APP_ENV", EnvDevelopment),

		LogLevel:       lower("LOG_LEVEL", "info"),
		LogPretty:      flag("LOG_PRETTY", false),
		LogRedact:      flag("LOG_REDACT", true),
		SwaggerEnabled: flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(str("API_BASE_PATH", "/api")),

		DB: DBConfig{
			Driver: lower("DB_DRIVER", "sqlite"),
			Path:   str("DB_PATH", "app.db"),
			URL:    str("DATABASE_URL", ""),
		},
		Uploads: UploadsConfig{
			Dir:       str("UPLOADS_DIR", "uploads"),
			URLPrefix: normalizeBasePath(str("UPLOADS_URL_PREFIX", "/uploads")),
			MaxBytes:  int64(num("UPLOADS_MAX_BYTES", 10<<20)),
		},

		Auth: AuthConfig{
			JWTSecret:    str("JWT_SECRET", ""),
			TokenTTL:     dur("AUTH_TOKEN_TTL", 7*24*time.Hour),
			CookieName:   str("AUTH_COOKIE_NAME", "authToken"),
			CookieSecure: flag("AUTH_COOKIE_SECURE", true),
		},
		Payment: PaymentConfig{
			ShopID:      str("SHOP_ID", ""),
			SecretKey:   str("YOOKASSA_SECRET_KEY", ""),
			APIURL:      strings.TrimRight(str("YOOKASSA_API_URL", "https://api.yookassa.ru/v3"), "/"),
			Currency:    strings.ToUpper(str("PAYMENT_CURRENCY", "RUB")),
			Timeout:     dur("PAYMENT_TIMEOUT", 10*time.Second),
			Description: str("PAYMENT_DESCRIPTION", "Оплата экскурсии"),
			VatCode:     num("PAYMENT_VAT_CODE", 1),
			ReturnURLs:  splitPairs(str("PAYMENT_RETURN_URLS", "")),
			FrontendURL: str("FRONTEND_URL", "http://localhost:3000"),
		},
		KeyGen: KeyGenConfig{MaxAttempts: num("KEYGEN_MAX_ATTEMPTS", 1000)},
		Telegram: TelegramConfig{
			BotToken: str("BOT_TOKEN", ""),
			ChatID:   str("CHAT_ID", ""),
			APIURL:   strings.TrimRight(str("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
			Timeout:  dur("TELEGRAM_TIMEOUT", 10*time.Second),
		},

		RateRPS:         float("RATE_RPS", 5),
		RateBurst:       num("RATE_BURST", 10),
		RateStrictRPS:   float("RATE_STRICT_RPS", 0.2),
		RateStrictBurst: num("RATE_STRICT_BURST", 5),

		CORS: CORSConfig{
			AllowedOrigins:   splitCSV(str("CORS_ALLOWED_ORIGINS", "")),
			AllowCredentials: flag("CORS_ALLOW_CREDENTIALS", true),
		},
		Security: SecurityConfig{
			EnableHSTS: flag("ENABLE_HSTS", false),
			HSTSMaxAge: dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     flag("OTEL_ENABLED", false),
			Endpoint:    str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: str("OTEL_SERVICE_NAME", "go-excursion-backend"),
			SampleRatio: float("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}
}

// aliases accepted for APP_ENV, DB_DRIVER and LOG_LEVEL.
var aliases = map[string]string{
	"dev": EnvDevelopment, "local": EnvDevelopment,
	"stage": EnvStaging,
	"prod":  EnvProduction,

	"postgresql": "postgres", "pg": "postgres",

	"warning": "warn",
}

func canonical(v string) string {
	if c, ok := aliases[v]; ok {
		return c
	}
	return v
}

func (c *Config) normalize() {
	c.AppEnv = canonical(c.AppEnv)
	c.DB.Driver = canonical(c.DB.Driver)
	c.LogLevel = canonical(c.LogLevel)
	if !oneOf(c.GinMode, "debug", "release", "test") {
		c.GinMode = "release"
	}
	if c.Auth.JWTSecret == "" && c.AppEnv != EnvProduction {
		c.Auth.JWTSecret = "dev-insecure-secret"
	}
}

func (c Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(oneOf(c.LogLevel, "debug", "info", "warn", "error", "fatal", "panic"),
		"LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	check(oneOf(c.AppEnv, EnvDevelopment, EnvStaging, EnvProduction),
		"APP_ENV must be one of: development, staging, production")
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch c.DB.Driver {
	case "sqlite":
		check(strings.TrimSpace(c.DB.Path) != "", "DB_PATH must not be empty")
	case "postgres":
		check(strings.TrimSpace(c.DB.URL) != "", "DATABASE_URL must be set when DB_DRIVER=postgres")
	default:
		check(false, "DB_DRIVER must be one of: sqlite, postgres")
	}
	check(strings.TrimSpace(c.Uploads.Dir) != "", "UPLOADS_DIR must not be empty")
	check(c.Uploads.MaxBytes > 0, "UPLOADS_MAX_BYTES must be > 0")

	check(c.Auth.JWTSecret != "", "JWT_SECRET must be set in production")
	check(c.Auth.TokenTTL > 0, "AUTH_TOKEN_TTL must be > 0")
	check(len(c.Payment.Currency) == 3, "PAYMENT_CURRENCY must be a 3-letter ISO code")
	check(c.Payment.Timeout > 0 && c.Telegram.Timeout > 0, "PAYMENT_TIMEOUT and TELEGRAM_TIMEOUT must be > 0")
	check(c.Payment.VatCode >= 1 && c.Payment.VatCode <= 12, "PAYMENT_VAT_CODE must be in [1,12]")
	check(c.KeyGen.MaxAttempts >= 1, "KEYGEN_MAX_ATTEMPTS must be >= 1")

	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.RateStrictRPS >= 0 && c.RateStrictBurst >= 1,
		"RATE_STRICT_RPS must be >= 0 and RATE_STRICT_BURST >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// ReturnURL resolves the payment confirmation redirect for the given
// deployment environment, falling back to FrontendURL.
func (p PaymentConfig) ReturnURL(env string) string {
	if u := p.ReturnURLs[strings.ToLower(env)]; u != "" {
		return u
	}
	return p.FrontendURL
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// lookup parses a non-empty variable with parse; unset, empty or
// unparsable values give def.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func str(key, def string) string {
	return lookup(key, def, func(v string) (string, error) { return v, nil })
}

func lower(key, def string) string {
	return strings.ToLower(strings.TrimSpace(str(key, def)))
}

func num(key string, def int) int { return lookup(key, def, strconv.Atoi) }

func float(key string, def float64) float64 {
	return lookup(key, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func dur(key string, def time.Duration) time.Duration {
	return lookup(key, def, time.ParseDuration)
}

func flag(key string, def bool) bool {
	return lookup(key, def, parseBool)
}

var errNotBool = errors.New("not a boolean")

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, errNotBool
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitPairs parses "k1=v1,k2=v2" into a map with lower-cased keys.
// Entries without '=' or with an empty key are skipped.
func splitPairs(s string) map[string]string {
	out := map[string]string{}
	for _, p := range splitCSV(s) {
		k, v, ok := strings.Cut(p, "=")
		if k = strings.ToLower(strings.TrimSpace(k)); ok && k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// normalizeBasePath gives p a leading '/' and no trailing '/', with "" and
// "/" both meaning the root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
