package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field maps to an
// environment variable.  Strings for identifiers and secrets, ints for
// costs and TTLs, ticks for the lifecycle windows.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs

	DBMaxOpenConns    int           // upper bound on open MySQL connections
	DBMaxIdleConns    int           // idle connections kept for reuse
	DBConnMaxLifetime time.Duration // recycle connections after this age

	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	ServerSeed         string        // seed for the deterministic generator
	ClosingGap         uint64        // ticks a booked ticket stays claimable
	PlayingGap         uint64        // ticks a started session may run
	TickInterval       time.Duration // wall-clock length of one logical tick
	ExistentialDeposit uint64        // minimum balance keep-alive transfers preserve
	StartingBalance    uint64        // currency credited to new accounts
	MaxGenerateRandom  int           // bias-correction retries for ranged draws
}

// Load reads configuration from environment variables.  Required
// variables are enforced by must(); gameplay knobs fall back to
// sensible defaults.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),

		DBMaxOpenConns:    atoi(getenv("DB_MAX_OPEN_CONNS", "25")),
		DBMaxIdleConns:    atoi(getenv("DB_MAX_IDLE_CONNS", "25")),
		DBConnMaxLifetime: parseDur(getenv("DB_CONN_MAX_LIFETIME", "30m")),

		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		ServerSeed:         must("SERVER_SEED"),
		ClosingGap:         uint64(atoi(getenv("CLOSING_GAP_TICKS", "10"))),
		PlayingGap:         uint64(atoi(getenv("PLAYING_GAP_TICKS", "30"))),
		TickInterval:       parseDur(getenv("TICK_INTERVAL", "6s")),
		ExistentialDeposit: uint64(atoi(getenv("EXISTENTIAL_DEPOSIT", "1"))),
		StartingBalance:    uint64(atoi(getenv("STARTING_BALANCE", "1000"))),
		MaxGenerateRandom:  atoi(getenv("MAX_GENERATE_RANDOM", "10")),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
