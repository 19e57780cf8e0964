package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
)

type Config struct {
	Backend        string
	DataDir        string
	FileFormat     string
	CatalogKey     string
	LedgerKey      string
	SQLitePath     string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	BadgerPath     string
	MatchCutoff    float64
	CurrencySymbol string
	LogLevel       string
	Plain          bool
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cutoff, err := strconv.ParseFloat(getEnv("MATCH_CUTOFF", "0.6"), 64)
	if err != nil {
		cutoff = 0.6
	}

	cfg := Config{
		Backend:        strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataDir:        getEnv("DATA_DIR", "."),
		FileFormat:     strings.ToLower(getEnv("FILE_FORMAT", "json")),
		CatalogKey:     getEnv("CATALOG_KEY", "product"),
		LedgerKey:      getEnv("LEDGER_KEY", "sale"),
		SQLitePath:     os.Getenv("SQLITE_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		RedisPrefix:    getEnv("REDIS_PREFIX", "shopbot:"),
		BadgerPath:     os.Getenv("BADGER_PATH"),
		MatchCutoff:    cutoff,
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "warn")),
		Plain:          os.Getenv("NO_COLOR") != "",
	}

	return cfg
}

// SQLiteFile is SQLitePath, or shopbot.db inside DataDir when unset.
func (c Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "shopbot.db")
}

// BadgerDir is BadgerPath, or a badger directory inside DataDir when unset.
func (c Config) BadgerDir() string {
	if c.BadgerPath != "" {
		return c.BadgerPath
	}
	return filepath.Join(c.DataDir, "badger")
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
