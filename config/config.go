// Package config provides configuration management for the JarvisFi service.
// It loads and validates values from environment variables, supporting
// required variables, defaults, and collective error reporting: every problem
// is reported at once instead of failing on the first missing key.
package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE validation must not depend on the host's zoneinfo
)

// knownLanguages lists the language codes the assistant can be configured for.
var knownLanguages = map[string]bool{
	"en": true, "ta": true, "hi": true, "te": true, "bn": true, "gu": true,
	"kn": true, "ml": true, "mr": true, "or": true, "pa": true, "ur": true,
}

// AppSettings holds identity and localization settings.
type AppSettings struct {
	Name               string
	Version            string
	Environment        string // development, staging, production
	Debug              bool
	LogLevel           string
	SupportedLanguages []string
	DefaultLanguage    string
	DefaultCurrency    string
	Timezone           string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                 string
	CORSOrigins          []string
	SlowRequestThreshold time.Duration
	RequestTimeout       time.Duration
}

// DBConfig represents configuration for the Postgres connection pool.
type DBConfig struct {
	URL            string // overrides the discrete fields when set
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	MaxSize        int
	MigrationsPath string
	MigrateOnStart bool
}

// RedisConfig configures the optional key-value store.
// An empty URL disables the store; cache and rate limiter fall back accordingly.
type RedisConfig struct {
	URL                string
	CacheTTL           time.Duration
	AIResponseCacheTTL time.Duration
}

// AuthConfig holds authentication and cryptography settings.
type AuthConfig struct {
	JWTSecret            string
	JWTAlgorithm         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	EncryptionKey        []byte // exactly 32 bytes
	BcryptCost           int
	MaxLoginAttempts     int
	LockoutDuration      time.Duration
	AdminAPIKey          string
}

// RateLimitConfig holds per-client request quotas.
type RateLimitConfig struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// FeatureFlags toggles optional route groups and integrations.
type FeatureFlags struct {
	Voice        bool
	RAG          bool
	Community    bool
	FarmerTools  bool
	AIGeneration bool
}

// IntegrationsConfig holds credentials for third-party services. Every field
// is optional; a missing key selects the built-in fallback.
type IntegrationsConfig struct {
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	WatsonxAPIKey      string
	WatsonxURL         string
	WatsonxProjectID   string
	ExchangeRateAPIKey string
	FixerAPIKey        string
	CIBILAPIKey        string
	ExperianAPIKey     string
	WeatherAPIKey      string
	STTURL             string
	TTSURL             string
	HTTPTimeout        time.Duration
}

// SchedulerConfig holds cron expressions for background jobs.
type SchedulerConfig struct {
	SessionCleanupCron string
	ActivityRetention  time.Duration
	ActivityPurgeCron  string
	RateRefreshCron    string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	App          *AppSettings
	Server       *ServerConfig
	DB           *DBConfig
	Redis        *RedisConfig
	Auth         *AuthConfig
	RateLimit    *RateLimitConfig
	Features     *FeatureFlags
	Integrations *IntegrationsConfig
	Scheduler    *SchedulerConfig
}

// IsProduction reports whether the service runs in the production environment.
func (c *AppConfig) IsProduction() bool {
	return c.App.Environment == "production"
}

// DSN returns a postgres connection string suitable for pgx and golang-migrate.
func (c *DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// getOptionalEnvBool parses booleans the way strconv does ("1", "true", "false", ...).
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s'", key, valueStr))
		return defaultValue
	}
	return v
}

// getOptionalEnvList splits a comma separated variable, dropping empty items.
func getOptionalEnvList(key string, defaultValue string) []string {
	raw := getOptionalEnv(key, defaultValue)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// clampPoolSize keeps the pool size between 5 and 100, noting any adjustment.
func clampPoolSize(size int, varName string, errors *[]string) int {
	if size < 5 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 5", varName, size))
		return 5
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// parseEncryptionKey accepts either a base64 encoding of 32 bytes or a raw
// string of at least 32 bytes (truncated to 32).
func parseEncryptionKey(raw string, errors *[]string) []byte {
	if raw == "" {
		return nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(raw); err == nil && len(decoded) == 32 {
			return decoded
		}
	}
	if len(raw) >= 32 {
		return []byte(raw)[:32]
	}
	*errors = append(*errors, "ENCRYPTION_KEY must be at least 32 bytes or base64 of 32 bytes")
	return nil
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// App
	app := &AppSettings{
		Name:               getOptionalEnv("APP_NAME", "JarvisFi"),
		Version:            getOptionalEnv("APP_VERSION", "2.0.0"),
		Environment:        strings.ToLower(getOptionalEnv("ENVIRONMENT", "development")),
		Debug:              getOptionalEnvBool("DEBUG", false, &errors),
		LogLevel:           strings.ToLower(getOptionalEnv("LOG_LEVEL", "info")),
		SupportedLanguages: getOptionalEnvList("SUPPORTED_LANGUAGES", "en,ta,hi,te"),
		DefaultLanguage:    getOptionalEnv("DEFAULT_LANGUAGE", "en"),
		DefaultCurrency:    strings.ToUpper(getOptionalEnv("DEFAULT_CURRENCY", "INR")),
		Timezone:           getOptionalEnv("TIMEZONE", "Asia/Kolkata"),
	}
	switch app.Environment {
	case "development", "staging", "production":
	default:
		errors = append(errors, fmt.Sprintf("invalid value for ENVIRONMENT: %q (want development, staging or production)", app.Environment))
	}
	for _, lang := range app.SupportedLanguages {
		if !knownLanguages[lang] {
			errors = append(errors, fmt.Sprintf("unsupported language in SUPPORTED_LANGUAGES: %s", lang))
		}
	}
	if !knownLanguages[app.DefaultLanguage] {
		errors = append(errors, fmt.Sprintf("unsupported DEFAULT_LANGUAGE: %s", app.DefaultLanguage))
	}
	if _, err := time.LoadLocation(app.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid TIMEZONE %q: %v", app.Timezone, err))
	}

	// Server
	server := &ServerConfig{
		Port:                 getOptionalEnv("PORT", "8000"),
		CORSOrigins:          getOptionalEnvList("CORS_ORIGINS", "*"),
		SlowRequestThreshold: getOptionalEnvDuration("SLOW_REQUEST_THRESHOLD", 2*time.Second, &errors),
		RequestTimeout:       getOptionalEnvDuration("REQUEST_TIMEOUT", 60*time.Second, &errors),
	}

	// Database. DATABASE_URL wins over the discrete DB_* variables.
	db := &DBConfig{
		URL:            getOptionalEnv("DATABASE_URL", ""),
		Host:           getOptionalEnv("DB_HOST", "localhost"),
		Port:           getOptionalEnvInt("DB_PORT", 5432, &errors),
		MigrationsPath: getOptionalEnv("MIGRATIONS_PATH", "./migrations"),
		MigrateOnStart: getOptionalEnvBool("MIGRATE_ON_START", false, &errors),
	}
	if db.URL == "" {
		db.User = getRequiredEnv("DB_USER", &errors)
		db.Password = getRequiredEnv("DB_PASSWORD", &errors)
		db.DBName = getRequiredEnv("DB_NAME", &errors)
	}
	db.MaxSize = clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), "DB_POOL_SIZE", &errors)

	// Redis
	redisCfg := &RedisConfig{
		URL:                getOptionalEnv("REDIS_URL", ""),
		CacheTTL:           getOptionalEnvDuration("CACHE_TTL", time.Hour, &errors),
		AIResponseCacheTTL: getOptionalEnvDuration("AI_RESPONSE_CACHE_TTL", time.Hour, &errors),
	}

	// Auth
	authCfg := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errors),
		JWTAlgorithm:         strings.ToUpper(getOptionalEnv("JWT_ALGORITHM", "HS256")),
		AccessTokenDuration:  getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", 30*time.Minute, &errors),
		RefreshTokenDuration: getOptionalEnvDuration("JWT_REFRESH_TOKEN_DURATION", 30*24*time.Hour, &errors),
		EncryptionKey:        parseEncryptionKey(getRequiredEnv("ENCRYPTION_KEY", &errors), &errors),
		BcryptCost:           getOptionalEnvInt("BCRYPT_COST", 12, &errors),
		MaxLoginAttempts:     getOptionalEnvInt("MAX_LOGIN_ATTEMPTS", 5, &errors),
		LockoutDuration:      getOptionalEnvDuration("LOCKOUT_DURATION", 30*time.Minute, &errors),
		AdminAPIKey:          getOptionalEnv("ADMIN_API_KEY", ""),
	}
	switch authCfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errors = append(errors, fmt.Sprintf("unsupported JWT_ALGORITHM: %s", authCfg.JWTAlgorithm))
	}
	if authCfg.BcryptCost < 4 || authCfg.BcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("BCRYPT_COST must be between 4 and 31, got %d", authCfg.BcryptCost))
	}

	// Rate limiting
	rateLimit := &RateLimitConfig{
		PerMinute: getOptionalEnvInt("RATE_LIMIT_PER_MINUTE", 60, &errors),
		PerHour:   getOptionalEnvInt("RATE_LIMIT_PER_HOUR", 1000, &errors),
		PerDay:    getOptionalEnvInt("RATE_LIMIT_PER_DAY", 10000, &errors),
	}

	features := &FeatureFlags{
		Voice:        getOptionalEnvBool("ENABLE_VOICE", true, &errors),
		RAG:          getOptionalEnvBool("ENABLE_RAG", true, &errors),
		Community:    getOptionalEnvBool("ENABLE_COMMUNITY", true, &errors),
		FarmerTools:  getOptionalEnvBool("ENABLE_FARMER_TOOLS", true, &errors),
		AIGeneration: getOptionalEnvBool("ENABLE_AI_GENERATION", true, &errors),
	}

	integrations := &IntegrationsConfig{
		OpenAIAPIKey:       getOptionalEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getOptionalEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:        getOptionalEnv("OPENAI_MODEL", "gpt-4o-mini"),
		WatsonxAPIKey:      getOptionalEnv("WATSONX_API_KEY", ""),
		WatsonxURL:         getOptionalEnv("WATSONX_URL", "https://us-south.ml.cloud.ibm.com"),
		WatsonxProjectID:   getOptionalEnv("WATSONX_PROJECT_ID", ""),
		ExchangeRateAPIKey: getOptionalEnv("EXCHANGE_RATE_API_KEY", ""),
		FixerAPIKey:        getOptionalEnv("FIXER_API_KEY", ""),
		CIBILAPIKey:        getOptionalEnv("CIBIL_API_KEY", ""),
		ExperianAPIKey:     getOptionalEnv("EXPERIAN_API_KEY", ""),
		WeatherAPIKey:      getOptionalEnv("WEATHER_API_KEY", ""),
		STTURL:             getOptionalEnv("STT_URL", ""),
		TTSURL:             getOptionalEnv("TTS_URL", ""),
		HTTPTimeout:        getOptionalEnvDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second, &errors),
	}

	scheduler := &SchedulerConfig{
		SessionCleanupCron: getOptionalEnv("SESSION_CLEANUP_CRON", "@every 15m"),
		ActivityRetention:  getOptionalEnvDuration("ACTIVITY_RETENTION", 90*24*time.Hour, &errors),
		ActivityPurgeCron:  getOptionalEnv("ACTIVITY_PURGE_CRON", "0 3 * * *"),
		RateRefreshCron:    getOptionalEnv("RATE_REFRESH_CRON", "@hourly"),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		App:          app,
		Server:       server,
		DB:           db,
		Redis:        redisCfg,
		Auth:         authCfg,
		RateLimit:    rateLimit,
		Features:     features,
		Integrations: integrations,
		Scheduler:    scheduler,
	}, nil
}
