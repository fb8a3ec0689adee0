package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTPAddr               string `yaml:"http_addr"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`

	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	LogFile          string `yaml:"log_file"`
	LogMaxSizeMB     int    `yaml:"log_max_size_mb"`
	LogMaxBackups    int    `yaml:"log_max_backups"`
	LogMaxAgeDays    int    `yaml:"log_max_age_days"`
	LogCompressFiles bool   `yaml:"log_compress_files"`

	PostgresDSN   string `yaml:"postgres_dsn"`
	DBAutoMigrate bool   `yaml:"db_auto_migrate"`
	SeedAccounts  string `yaml:"seed_accounts"`

	JWTAlgorithm            string `yaml:"jwt_algorithm"`
	JWTAccessSecret         string `yaml:"jwt_access_secret"`
	JWTPublicKeyPEM         string `yaml:"jwt_public_key_pem"`
	JWTJWKSURL              string `yaml:"jwt_jwks_url"`
	JWTIssuer               string `yaml:"jwt_issuer"`
	JWTAudience             string `yaml:"jwt_audience"`
	JWTExpectedPurpose      string `yaml:"jwt_expected_purpose"`
	JWTClockSkewSecs        int    `yaml:"jwt_clock_skew_seconds"`
	JWKSCacheTTLSeconds     int    `yaml:"jwks_cache_ttl_seconds"`
	JWKSMaxStaleSeconds     int    `yaml:"jwks_max_stale_seconds"`
	JWKSFetchTimeoutSeconds int    `yaml:"jwks_fetch_timeout_seconds"`

	StatusPolicyPath string `yaml:"status_policy_path"`

	RateLimitRequests      int    `yaml:"rate_limit_requests"`
	RateLimitWindowSeconds int    `yaml:"rate_limit_window_seconds"`
	RateLimitFailClosed    bool   `yaml:"rate_limit_fail_closed"`
	RateLimitMaxKeys       int    `yaml:"rate_limit_max_keys"`
	RedisAddr              string `yaml:"redis_addr"`
	RedisPassword          string `yaml:"redis_password"`
	RedisDB                int    `yaml:"redis_db"`
}

func Default() Config {
	return Config{
		HTTPAddr:               ":8080",
		ShutdownTimeoutSeconds: 10,
		LogLevel:               "info",
		LogFormat:              "json",
		LogMaxSizeMB:           100,
		LogMaxBackups:          5,
		LogMaxAgeDays:          28,
		JWTAlgorithm:           "HS256",
		JWTClockSkewSecs:       60,
		RateLimitWindowSeconds: 60,
		RateLimitMaxKeys:       10000,
	}
}

// Load reads CONFIG_FILE when set, applies environment overrides and validates.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		fileCfg, err := LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file over base. Keys absent from the file keep
// their base value.
func LoadFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := base
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(c Config) Config {
	c.HTTPAddr = envDefault("HTTP_ADDR", c.HTTPAddr)
	c.ShutdownTimeoutSeconds = envIntDefault("SHUTDOWN_TIMEOUT_SECONDS", c.ShutdownTimeoutSeconds)

	c.LogLevel = envDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envDefault("LOG_FORMAT", c.LogFormat)
	c.LogFile = envDefault("LOG_FILE", c.LogFile)
	c.LogMaxSizeMB = envIntDefault("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
	c.LogMaxBackups = envIntDefault("LOG_MAX_BACKUPS", c.LogMaxBackups)
	c.LogMaxAgeDays = envIntDefault("LOG_MAX_AGE_DAYS", c.LogMaxAgeDays)
	c.LogCompressFiles = envBoolDefault("LOG_COMPRESS_FILES", c.LogCompressFiles)

	c.PostgresDSN = envDefault("POSTGRES_DSN", c.PostgresDSN)
	c.DBAutoMigrate = envBoolDefault("DB_AUTO_MIGRATE", c.DBAutoMigrate)
	c.SeedAccounts = envDefault("SEED_ACCOUNTS", c.SeedAccounts)

	c.JWTAlgorithm = envDefault("JWT_ALGORITHM", c.JWTAlgorithm)
	c.JWTAccessSecret = envDefault("JWT_ACCESS_SECRET", c.JWTAccessSecret)
	c.JWTPublicKeyPEM = envDefault("JWT_PUBLIC_KEY_PEM", c.JWTPublicKeyPEM)
	c.JWTJWKSURL = envDefault("JWT_JWKS_URL", c.JWTJWKSURL)
	c.JWTIssuer = envDefault("JWT_ISSUER", c.JWTIssuer)
	c.JWTAudience = envDefault("JWT_AUDIENCE", c.JWTAudience)
	c.JWTExpectedPurpose = envDefault("JWT_EXPECTED_PURPOSE", c.JWTExpectedPurpose)
	c.JWTClockSkewSecs = envIntDefault("JWT_CLOCK_SKEW_SECONDS", c.JWTClockSkewSecs)
	c.JWKSCacheTTLSeconds = envIntDefault("JWKS_CACHE_TTL_SECONDS", c.JWKSCacheTTLSeconds)
	c.JWKSMaxStaleSeconds = envIntDefault("JWKS_MAX_STALE_SECONDS", c.JWKSMaxStaleSeconds)
	c.JWKSFetchTimeoutSeconds = envIntDefault("JWKS_FETCH_TIMEOUT_SECONDS", c.JWKSFetchTimeoutSeconds)

	c.StatusPolicyPath = envDefault("STATUS_POLICY_PATH", c.StatusPolicyPath)

	c.RateLimitRequests = envIntDefault("RATE_LIMIT_REQUESTS", c.RateLimitRequests)
	c.RateLimitWindowSeconds = envIntDefault("RATE_LIMIT_WINDOW_SECONDS", c.RateLimitWindowSeconds)
	c.RateLimitFailClosed = envBoolDefault("RATE_LIMIT_FAIL_CLOSED", c.RateLimitFailClosed)
	c.RateLimitMaxKeys = envIntDefault("RATE_LIMIT_MAX_KEYS", c.RateLimitMaxKeys)
	c.RedisAddr = envDefault("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envDefault("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envIntDefault("REDIS_DB", c.RedisDB)
	return c
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToUpper(strings.TrimSpace(c.JWTAlgorithm)) {
	case "HS256":
		if c.JWTAccessSecret == "" {
			errs = append(errs, errors.New("JWT_ACCESS_SECRET is required for HS256"))
		}
	case "RS256":
		if strings.TrimSpace(c.JWTPublicKeyPEM) == "" && strings.TrimSpace(c.JWTJWKSURL) == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PEM or JWT_JWKS_URL is required for RS256"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm))
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_LEVEL %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat))
	}
	if c.RateLimitRequests < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must not be negative"))
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindowSeconds <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW_SECONDS must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
