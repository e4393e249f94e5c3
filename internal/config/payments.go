package config

import (
	"os"
	"time"
)

type PaymentsConfig struct {
	Timezone         string
	DefaultDebtTitle string
	IdempotencyTTL   time.Duration
}

// LoadPaymentsConfig reads payment engine tunables from the environment.
// Timezone is the fixed reference calendar used to default paid dates.
func LoadPaymentsConfig() *PaymentsConfig {
	return &PaymentsConfig{
		Timezone:         getEnv("PAYMENTS_TIMEZONE", "Asia/Jakarta"),
		DefaultDebtTitle: getEnv("PAYMENTS_DEFAULT_DEBT_TITLE", "Unknown Debt"),
		IdempotencyTTL:   getEnvAsDuration("PAYMENTS_IDEMPOTENCY_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
