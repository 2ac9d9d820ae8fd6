package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvHTTPAddr        = "HTTP_ADDR"
	EnvGRPCAddr        = "GRPC_ADDR"
	EnvMySQLDSN        = "MYSQL_DSN"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvJWTSecret       = "JWT_SECRET"
	EnvMigrateOnStart  = "MIGRATE_ON_START"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvDBMaxOpenConns  = "DB_MAX_OPEN_CONNS"
)

var ErrMissingSecret = errors.New(EnvJWTSecret + " must be set")

type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	MySQLDSN        string
	RedisAddr       string // empty disables idempotency keys
	JWTSecret       string
	MigrateOnStart  bool
	LogLevel        string
	ShutdownTimeout time.Duration
	DBMaxOpenConns  int
}

func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50051",
		MySQLDSN:        "root:root@tcp(localhost:3306)/marketplace?parseTime=true",
		RedisAddr:       "localhost:6379",
		MigrateOnStart:  true,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		DBMaxOpenConns:  50,
	}
}

// Load reads the environment on top of Default.
func Load() (Config, error) {
	cfg := Default()

	trySetFromEnv(EnvHTTPAddr, &cfg.HTTPAddr)
	trySetFromEnv(EnvGRPCAddr, &cfg.GRPCAddr)
	trySetFromEnv(EnvMySQLDSN, &cfg.MySQLDSN)
	trySetFromEnv(EnvRedisAddr, &cfg.RedisAddr)
	trySetFromEnv(EnvJWTSecret, &cfg.JWTSecret)
	trySetFromEnv(EnvLogLevel, &cfg.LogLevel)

	if v, ok := os.LookupEnv(EnvMigrateOnStart); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvMigrateOnStart, err)
		}
		cfg.MigrateOnStart = b
	}

	if v, ok := os.LookupEnv(EnvShutdownTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvShutdownTimeout, err)
		}
		cfg.ShutdownTimeout = d
	}

	if v, ok := os.LookupEnv(EnvDBMaxOpenConns); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("parse %s: invalid value %q", EnvDBMaxOpenConns, v)
		}
		cfg.DBMaxOpenConns = n
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}

	return cfg, nil
}

func trySetFromEnv(envName string, val *string) {
	if envVal, found := os.LookupEnv(envName); found {
		*val = envVal
	}
}
