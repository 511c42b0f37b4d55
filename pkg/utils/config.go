package utils

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	Migrate  bool
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
	ClaimTTLSeconds int
}

type KafkaConfig struct {
	Brokers      []string
	BookingTopic string
	GroupID      string
}

type PaymentConfig struct {
	// SuccessRate is the percentage of simulated settlements that complete.
	SuccessRate int
	// RandomSeed of 0 seeds from the clock.
	RandomSeed int64
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "travel-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MIGRATE", true)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("BOOKING_CLAIM_TTL_SECONDS", 10)
	viper.SetDefault("KAFKA_BOOKING_TOPIC", "booking-events")
	viper.SetDefault("KAFKA_GROUP_ID", "notification-worker")
	viper.SetDefault("PAYMENT_SUCCESS_RATE", 80)
	viper.SetDefault("PAYMENT_RANDOM_SEED", 0)

	// .env is optional, the environment alone is enough
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			CORSOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			Migrate:  viper.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:            viper.GetString("REDIS_ADDR"),
			Password:        viper.GetString("REDIS_PASSWORD"),
			DB:              viper.GetInt("REDIS_DB"),
			CacheTTLSeconds: viper.GetInt("CACHE_TTL_SECONDS"),
			ClaimTTLSeconds: viper.GetInt("BOOKING_CLAIM_TTL_SECONDS"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(viper.GetString("KAFKA_BROKERS")),
			BookingTopic: viper.GetString("KAFKA_BOOKING_TOPIC"),
			GroupID:      viper.GetString("KAFKA_GROUP_ID"),
		},
		Payment: PaymentConfig{
			SuccessRate: viper.GetInt("PAYMENT_SUCCESS_RATE"),
			RandomSeed:  viper.GetInt64("PAYMENT_RANDOM_SEED"),
		},
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
