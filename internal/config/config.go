package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Server
	ApiPort      string
	KeepAliveURL string

	// Business timezone for due dates and scheduled tasks
	Timezone string

	// WhatsApp gateway
	WaGatewayURL     string
	WaGatewaySession string
	WaGatewayToken   string
	WaSendRate       float64 // outbound messages per second
	WaSendBurst      int

	// Payment processor
	ProcessorURL     string
	ProcessorTimeout time.Duration

	// Reminder schedule (cron specs, evaluated in Timezone)
	MorningReminderSpec string
	EveningReminderSpec string

	// Support contact shown in customer-facing messages
	SupportPhone string

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	AdminEmail      string

	// AWS S3 (QR image hosting)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseS3URL     string
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "papatango")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.ApiPort = getEnv("API_PORT", "3000")
	cfg.KeepAliveURL = getEnv("KEEP_ALIVE_URL", "")
	cfg.Timezone = getEnv("TIMEZONE", "America/Sao_Paulo")

	cfg.WaGatewayURL, err = getRequiredEnv("WA_GATEWAY_URL")
	if err != nil {
		return nil, err
	}
	cfg.WaGatewaySession = getEnv("WA_GATEWAY_SESSION", "papa-motos")
	cfg.WaGatewayToken = getEnv("WA_GATEWAY_TOKEN", "")
	cfg.WaSendRate, err = strconv.ParseFloat(getEnv("WA_SEND_RATE", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WA_SEND_RATE: %w", err)
	}
	cfg.WaSendBurst, err = strconv.Atoi(getEnv("WA_SEND_BURST", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid WA_SEND_BURST: %w", err)
	}

	cfg.ProcessorURL, err = getRequiredEnv("PAYMENT_PROCESSOR_URL")
	if err != nil {
		return nil, err
	}
	processorTimeoutSec, err := strconv.Atoi(getEnv("PAYMENT_PROCESSOR_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_PROCESSOR_TIMEOUT_SECONDS: %w", err)
	}
	cfg.ProcessorTimeout = time.Duration(processorTimeoutSec) * time.Second

	cfg.MorningReminderSpec = getEnv("MORNING_REMINDER_SPEC", "10 10 * * *")
	cfg.EveningReminderSpec = getEnv("EVENING_REMINDER_SPEC", "0 21 * * *")

	cfg.SupportPhone = getEnv("SUPPORT_PHONE", "(85) 99268-4035")

	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "")
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", "")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseS3URL = getEnv("IMAGE_BASE_S3_URL", "")

	return cfg, nil
}

// Location resolves the configured business timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
