package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-super-secret-key-change-in-production"

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	Port string

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	Timezone          string

	JWTSecret     []byte
	JWTExpiration time.Duration

	Argon2      Argon2Config
	HashWorkers int64

	RequestTimeout          time.Duration
	TxMaxRetries            int
	DefaultReorderThreshold int64

	AdminUsername string
	AdminPassword string
}

// Argon2Config holds the argon2id cost parameters.
type Argon2Config struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Port:              p.str("PORT", "3000"),
		DatabaseURL:       getenv("DATABASE_URL"),
		DBMaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", time.Hour),
		Timezone:          p.str("TIMEZONE", "UTC"),
		JWTSecret:         []byte(p.str("JWT_SECRET", "")),
		JWTExpiration:     p.duration("JWT_EXPIRATION", 24*time.Hour),
		Argon2: Argon2Config{
			MemoryKiB:   uint32(p.bounded("ARGON2_MEMORY_KIB", 64*1024, math.MaxUint32)),
			Iterations:  uint32(p.bounded("ARGON2_ITERATIONS", 3, math.MaxUint32)),
			Parallelism: uint8(p.bounded("ARGON2_PARALLELISM", 2, math.MaxUint8)),
			SaltLength:  uint32(p.bounded("ARGON2_SALT_LENGTH", 16, math.MaxUint32)),
			KeyLength:   uint32(p.bounded("ARGON2_KEY_LENGTH", 32, math.MaxUint32)),
		},
		HashWorkers:             int64(p.int("HASH_WORKERS", 4)),
		RequestTimeout:          p.duration("REQUEST_TIMEOUT", 10*time.Second),
		TxMaxRetries:            p.int("TX_MAX_RETRIES", 3),
		DefaultReorderThreshold: int64(p.int("DEFAULT_REORDER_THRESHOLD", 10)),
		AdminUsername:           p.str("ADMIN_USERNAME", "admin"),
		AdminPassword:           p.str("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			getenv("DB_HOST"),
			getenv("DB_USER"),
			getenv("DB_PASSWORD"),
			getenv("DB_NAME"),
			getenv("DB_PORT"),
			cfg.Timezone,
		)
	}

	if len(cfg.JWTSecret) == 0 {
		log.Println("Warning: JWT_SECRET not set, using the built-in development secret")
		cfg.JWTSecret = []byte(defaultJWTSecret)
	}

	if p.err != nil {
		return nil, p.err
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.JWTExpiration <= 0:
		return errors.New("JWT_EXPIRATION must be positive")
	case c.Argon2.MemoryKiB < 8*uint32(c.Argon2.Parallelism):
		return errors.New("ARGON2_MEMORY_KIB must be at least 8*ARGON2_PARALLELISM")
	case c.Argon2.Iterations == 0 || c.Argon2.Parallelism == 0:
		return errors.New("ARGON2_ITERATIONS and ARGON2_PARALLELISM must be positive")
	case c.Argon2.SaltLength < 8 || c.Argon2.KeyLength < 16:
		return errors.New("ARGON2_SALT_LENGTH must be >= 8 and ARGON2_KEY_LENGTH >= 16")
	case c.HashWorkers <= 0:
		return errors.New("HASH_WORKERS must be positive")
	case c.DBMaxOpenConns <= 0:
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	case c.RequestTimeout <= 0:
		return errors.New("REQUEST_TIMEOUT must be positive")
	case c.TxMaxRetries < 0:
		return errors.New("TX_MAX_RETRIES cannot be negative")
	case c.DefaultReorderThreshold < 0:
		return errors.New("DEFAULT_REORDER_THRESHOLD cannot be negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Location is the zone reports use to cut calendar days.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return n
}

// bounded parses an integer in [0, limit] so it converts to a narrower unsigned type unchanged.
func (p *parser) bounded(key string, def int, limit uint64) uint64 {
	n := p.int(key, def)
	if n < 0 || uint64(n) > limit {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s: %d is outside 0..%d", key, n, limit)
		}
		return uint64(def)
	}
	return uint64(n)
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Plain integers are seconds, matching the JWT_EXPIRATION=86400 convention.
		secs, convErr := strconv.Atoi(v)
		if convErr != nil {
			if p.err == nil {
				p.err = fmt.Errorf("invalid %s: %w", key, err)
			}
			return def
		}
		d = time.Duration(secs) * time.Second
	}
	return d
}
