package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config collects every backend endpoint the service talks to. Values come
// from SHOP_* environment variables with local-dev defaults.
type Config struct {
	HTTPPort int

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsDir    string

	RedisAddr string
	CartTTL   time.Duration

	RabbitHost     string
	RabbitPort     int
	RabbitUser     string
	RabbitPassword string

	ConsulHost string
	ConsulPort int
}

func Load() Config {
	return Config{
		HTTPPort: getenvInt("SHOP_HTTP_PORT", 8080),

		PostgresHost:     getenv("SHOP_PG_HOST", "localhost"),
		PostgresPort:     getenvInt("SHOP_PG_PORT", 5432),
		PostgresUser:     getenv("SHOP_PG_USER", "shopcore"),
		PostgresPassword: getenv("SHOP_PG_PASSWORD", "shopcore123"),
		PostgresDB:       getenv("SHOP_PG_DB", "shopcore"),
		MigrationsDir:    getenv("SHOP_MIGRATIONS_DIR", "migrations"),

		RedisAddr: getenv("SHOP_REDIS_ADDR", "localhost:6379"),
		CartTTL:   getenvDuration("SHOP_CART_TTL", 24*time.Hour),

		RabbitHost:     getenv("SHOP_RABBIT_HOST", "localhost"),
		RabbitPort:     getenvInt("SHOP_RABBIT_PORT", 5672),
		RabbitUser:     getenv("SHOP_RABBIT_USER", "guest"),
		RabbitPassword: getenv("SHOP_RABBIT_PASSWORD", "guest"),

		ConsulHost: getenv("SHOP_CONSUL_HOST", "localhost"),
		ConsulPort: getenvInt("SHOP_CONSUL_PORT", 8500),
	}
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(key, ""))
	if err != nil {
		return def
	}
	return v
}
