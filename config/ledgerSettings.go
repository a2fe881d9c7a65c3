package config

import (
	"database/sql"
	"os"
	"strconv"
	"strings"
	"time"
)

// LedgerTimezone is the zone used to bucket operation timestamps into YYYY-MM periods.
//
// Set via env:
// - LEDGER_TIMEZONE=Asia/Jakarta
func LedgerTimezone() string {
	v := strings.TrimSpace(os.Getenv("LEDGER_TIMEZONE"))
	if v == "" {
		return "Asia/Jakarta"
	}
	return v
}

// TxMaxRetries bounds how often a posting transaction is re-run after a write conflict.
//
// Set via env:
// - LEDGER_TX_MAX_RETRIES (default 5)
func TxMaxRetries() int {
	n := intFromEnv("LEDGER_TX_MAX_RETRIES", 5)
	if n < 1 {
		return 1
	}
	return n
}

// TxIsolation maps LEDGER_TX_ISOLATION onto a database/sql level.
// Accepted: serializable (default), repeatable_read, read_committed, default.
func TxIsolation() sql.IsolationLevel {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_TX_ISOLATION"))) {
	case "default":
		return sql.LevelDefault
	case "repeatable_read", "repeatable-read":
		return sql.LevelRepeatableRead
	case "read_committed", "read-committed":
		return sql.LevelReadCommitted
	default:
		return sql.LevelSerializable
	}
}

// ReplayCacheTTL is how long committed operation results stay in redis.
//
// Set via env:
// - REPLAY_CACHE_TTL_SECONDS (default 86400, 0 disables the cache)
func ReplayCacheTTL() time.Duration {
	return time.Duration(intFromEnv("REPLAY_CACHE_TTL_SECONDS", 86400)) * time.Second
}

func ServerPort() string {
	v := strings.TrimSpace(os.Getenv("PORT"))
	if v == "" {
		return "8080"
	}
	return v
}

// CorsAllowOrigins reads a comma separated CORS_ALLOW_ORIGINS list.
func CorsAllowOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS"))
	if raw == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
