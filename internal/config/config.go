package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=japoke port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogLevel    string
	Timezone    string

	RedisAddress  string // empty: in-process locks
	RedisPassword string
	RabbitMQURL   string // empty: no AMQP publishing

	RatesBaseURL  string
	RatesRefresh  time.Duration
	RatesCacheTTL time.Duration

	WhatsApp WhatsAppConfig

	NotifyTimeout time.Duration
}

type WhatsAppConfig struct {
	Enabled       bool
	PhoneNumberID string
	AccessToken   string
	APIVersion    string
	DefaultRegion string
	MonthlyLimit  int
}

// Configured reports whether the Cloud API credentials are present.
func (w WhatsAppConfig) Configured() bool {
	return w.PhoneNumberID != "" && w.AccessToken != ""
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] no se pudo leer .env: %v", err)
	}

	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "4000"),
		DatabaseDSN:   getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Timezone:      getEnv("TIMEZONE", "America/Caracas"),
		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		RatesBaseURL:  strings.TrimRight(getEnv("RATES_BASE_URL", "https://ve.dolarapi.com/v1"), "/"),
		RatesRefresh:  time.Duration(getEnvInt("RATES_REFRESH_MINUTES", 30)) * time.Minute,
		RatesCacheTTL: time.Duration(getEnvInt("RATES_CACHE_TTL_SECONDS", 300)) * time.Second,
		WhatsApp: WhatsAppConfig{
			Enabled:       getEnvBool("WHATSAPP_ENABLED", false),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v21.0"),
			DefaultRegion: strings.ToUpper(getEnv("WHATSAPP_DEFAULT_REGION", "VE")),
			MonthlyLimit:  getEnvInt("WHATSAPP_MONTHLY_LIMIT", 1000),
		},
		NotifyTimeout: time.Duration(getEnvInt("NOTIFY_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET no está definido")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres")
	}
	for _, w := range cfg.Warnings() {
		log.Println("[WARN] " + w)
	}

	return cfg
}

// Warnings lists defaults that should not reach production.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN usa el valor por defecto")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS usa el valor por defecto")
	}
	if c.WhatsApp.Enabled && !c.WhatsApp.Configured() {
		out = append(out, "WHATSAPP_ENABLED=true pero faltan WHATSAPP_PHONE_NUMBER_ID o WHATSAPP_ACCESS_TOKEN")
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[WARN] %s=%q inválido, usando %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
