package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// 支持的存储后端。
const (
	DriverJSON     = "json"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	StoreDriver    string
	DataDir        string
	DatabaseDSN    string
	StaticDir      string
	RateLimitRPS   int
	RateLimitBurst int
	WSSendBuffer   int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvInt 解析正整数环境变量，非法值回退到默认值。
func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	env := getenv("APP_ENV", "dev")
	level := "info"
	if env == "dev" {
		level = "debug"
	}
	return Config{
		Port:           getenv("APP_PORT", "8080"),
		Env:            env,
		LogLevel:       getenv("LOG_LEVEL", level),
		StoreDriver:    strings.ToLower(getenv("STORE_DRIVER", DriverJSON)),
		DataDir:        getenv("DATA_DIR", "./db"),
		DatabaseDSN:    getenv("DATABASE_DSN", ""),
		StaticDir:      getenv("STATIC_DIR", "./public"),
		RateLimitRPS:   getenvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getenvInt("RATE_LIMIT_BURST", 40),
		WSSendBuffer:   getenvInt("WS_SEND_BUFFER", 256),
	}
}

// Validate 在启动前检查配置是否可用。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("APP_PORT is required")
	}
	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverJSON:
		if cfg.DataDir == "" {
			return errors.New("DATA_DIR is required for the json store")
		}
	case DriverSQLite, DriverPostgres:
		if cfg.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for the " + cfg.StoreDriver + " store")
		}
	default:
		return errors.New("unknown STORE_DRIVER " + strconv.Quote(cfg.StoreDriver))
	}
	return nil
}
