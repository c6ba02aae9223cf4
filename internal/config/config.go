package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN assembles the postgres connection string.
func (d DBConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

type RelayConfig struct {
	BatchSize       int
	Interval        time.Duration
	Workers         int
	MaxAttempts     int
	Backoff         time.Duration
	ClaimLease      time.Duration
	DispatchTimeout time.Duration
}

type Config struct {
	Port                string
	DB                  DBConfig
	Relay               RelayConfig
	HighAmountThreshold decimal.Decimal
	CORSAllowedOrigins  []string
}

// Load reads configs/.env (if present) and the process environment,
// falling back to development defaults for anything unset.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	threshold, err := decimal.NewFromString(getEnv("HIGH_AMOUNT_THRESHOLD", "500"))
	if err != nil {
		log.Printf("Invalid HIGH_AMOUNT_THRESHOLD, using 500: %v", err)
		threshold = decimal.NewFromInt(500)
	}

	return Config{
		Port: getEnv("PORT", "8080"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Relay: RelayConfig{
			BatchSize:       getEnvInt("RELAY_BATCH_SIZE", 50),
			Interval:        getEnvDuration("RELAY_INTERVAL", 5*time.Second),
			Workers:         getEnvInt("RELAY_WORKERS", 4),
			MaxAttempts:     getEnvInt("RELAY_MAX_ATTEMPTS", 5),
			Backoff:         getEnvDuration("RELAY_BACKOFF", 30*time.Second),
			ClaimLease:      getEnvDuration("RELAY_CLAIM_LEASE", time.Minute),
			DispatchTimeout: getEnvDuration("RELAY_DISPATCH_TIMEOUT", 10*time.Second),
		},
		HighAmountThreshold: threshold,
		CORSAllowedOrigins: []string{
			getEnv("FRONTEND_URL", "http://localhost:5173"),
			"http://127.0.0.1:5173",
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
