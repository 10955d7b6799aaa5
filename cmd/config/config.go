package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var (
	RunAddress        string
	DatabaseURI       string
	RedisAddress      string
	NotifyAMQPURL     string
	TokenSecret       string
	LogLevel          string
	ReconcileInterval time.Duration
	UnpaidOrderTTL    time.Duration
)

func ParseFlags() {
	godotenv.Load()

	flag.StringVar(&RunAddress, "a", ":8080", "address to run server")
	flag.StringVar(&DatabaseURI, "d", "", "database uri")
	flag.StringVar(&RedisAddress, "r", "", "redis address for cart storage")
	flag.StringVar(&NotifyAMQPURL, "q", "", "amqp uri for lifecycle notifications")
	flag.StringVar(&TokenSecret, "s", "marketcore-dev-secret", "jwt signing secret")
	flag.StringVar(&LogLevel, "l", "info", "log level")
	flag.DurationVar(&ReconcileInterval, "i", time.Minute, "reconciliation interval")
	flag.DurationVar(&UnpaidOrderTTL, "t", 24*time.Hour, "time before an unpaid order expires")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		RunAddress = envRunAddr
	}
	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		DatabaseURI = databaseURI
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		RedisAddress = redisAddress
	}
	if amqpURL := os.Getenv("NOTIFY_AMQP_URL"); amqpURL != "" {
		NotifyAMQPURL = amqpURL
	}
	if secret := os.Getenv("TOKEN_SECRET"); secret != "" {
		TokenSecret = secret
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		LogLevel = logLevel
	}
	if interval := os.Getenv("RECONCILE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			ReconcileInterval = d
		}
	}
	if ttl := os.Getenv("UNPAID_ORDER_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			UnpaidOrderTTL = d
		}
	}
}
