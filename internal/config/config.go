package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion            string
	SQSReconcileQueueURL string

	JWTSecret          string
	JWTExpirationHours time.Duration

	ReconcileInterval time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	reconcileMinutes, _ := strconv.Atoi(getEnv("RECONCILE_INTERVAL_MINUTES", "5"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parkwise"),
		DBPassword: getEnv("DB_PASSWORD", "parkwise"),
		DBName:     getEnv("DB_NAME", "parkwise_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:            getEnv("AWS_REGION", "ap-south-1"),
		SQSReconcileQueueURL: getEnv("SQS_RECONCILE_QUEUE_URL", ""),

		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		ReconcileInterval: time.Duration(reconcileMinutes) * time.Minute,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable '%s' not set, using default: '%s'", key, fallback)
	return fallback
}
