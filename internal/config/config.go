package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

const defaultStripeAPIBase = "https://api.stripe.com"

type Config struct {
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIBase       string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	JWTSecret         string
	InternalSecretKey string

	// RedisAddr switches webhook dedupe to Redis when set.
	RedisAddr string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:              os.Getenv("APP_ENV"),
		AppPort:             getEnv("APP_PORT", "8080"),
		DBHost:              os.Getenv("DB_HOST"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              os.Getenv("DB_NAME"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBSSLMode:           getEnv("DB_SSLMODE", "disable"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIBase:       getEnv("STRIPE_API_BASE", defaultStripeAPIBase),
		CheckoutSuccessURL:  os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:   os.Getenv("CHECKOUT_CANCEL_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		InternalSecretKey:   os.Getenv("INTERNAL_SECRET_KEY"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
	}

	if cfg.DBHost == "" {
		return nil, errors.New("DB_HOST is not set")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is not set")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
