package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBHost     string `envconfig:"DB_HOST"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	AppPort   string `envconfig:"APP_PORT" default:"8080"`
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL"`
	JWTSecret string `envconfig:"JWT_SECRET"`

	PaymentGateway    string `envconfig:"PAYMENT_GATEWAY" default:"RAZORPAY"`
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`

	RabbitMQURL     string `envconfig:"RABBITMQ_URL"`
	NotifyQueueSize int    `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`

	BookingConflictMode string        `envconfig:"BOOKING_CONFLICT_MODE" default:"exact"`
	BookingSlotDuration time.Duration `envconfig:"BOOKING_SLOT_DURATION" default:"2h"`

	InternalSecretKey string `envconfig:"INTERNAL_SECRET_KEY"`
	CORSAllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to process environment: %v", err)
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return &cfg
}
