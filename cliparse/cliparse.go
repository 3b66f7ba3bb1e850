package cliparse

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"
)

const defaultEnvFile = ".env"

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	JWTSecret    string
	TokenTTL     time.Duration
	AdminKey     string
	BcryptCost   int
	RateLimitRPS float64
	RateBurst    int
	ResetTTL     time.Duration
	SeedDemoData bool
	LogLevel     slog.Level
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile, logLevel string

	flags := pflag.NewFlagSet("servicoja", pflag.ContinueOnError)

	// Network and storage config (can be CLI args or env)
	flags.IntVarP(&cfg.Port, "port", "p", 3318, "Server port")
	flags.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL")
	flags.StringVarP(&cfg.DatabaseType, "database-type", "t", DatabasePostgres, "Database type (postgres or memory)")
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "Path to a .env file")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")
	flags.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key for privileged routes (prefer env)")

	// Tuning
	flags.DurationVar(&cfg.TokenTTL, "token-ttl", 7*24*time.Hour, "Access token lifetime")
	flags.IntVar(&cfg.BcryptCost, "bcrypt-cost", 10, "bcrypt cost")
	flags.Float64Var(&cfg.RateLimitRPS, "rate-limit", 20, "Requests per second per client (0 disables)")
	flags.IntVar(&cfg.RateBurst, "rate-burst", 40, "Rate limit burst")
	flags.DurationVar(&cfg.ResetTTL, "reset-ttl", time.Hour, "Password reset token lifetime")
	flags.BoolVar(&cfg.SeedDemoData, "seed", false, "Seed demo data on start")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// .env never overrides variables already present in the environment
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || flags.Changed("env-file") {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables for anything not set on the CLI
	env := envLookup{flags: flags}
	env.intVar(&cfg.Port, "port", "PORT")
	env.stringVar(&cfg.DatabaseURL, "database-url", "DATABASE_URL")
	env.stringVar(&cfg.DatabaseType, "database-type", "DATABASE_TYPE")
	env.stringVar(&cfg.JWTSecret, "jwt-secret", "JWT_SECRET")
	env.stringVar(&cfg.AdminKey, "admin-key", "ADMIN_KEY")
	env.durationVar(&cfg.TokenTTL, "token-ttl", "TOKEN_TTL")
	env.intVar(&cfg.BcryptCost, "bcrypt-cost", "BCRYPT_COST")
	env.floatVar(&cfg.RateLimitRPS, "rate-limit", "RATE_LIMIT_RPS")
	env.intVar(&cfg.RateBurst, "rate-burst", "RATE_LIMIT_BURST")
	env.durationVar(&cfg.ResetTTL, "reset-ttl", "RESET_TOKEN_TTL")
	env.boolVar(&cfg.SeedDemoData, "seed", "SEED_DEMO_DATA")
	env.stringVar(&logLevel, "log-level", "LOG_LEVEL")
	if env.err != nil {
		return Config{}, env.err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", logLevel)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}

	switch cfg.DatabaseType {
	case DatabasePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case DatabaseMemory:
	default:
		return fmt.Errorf("unknown database type %q (want postgres or memory)", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}

	if cfg.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if cfg.ResetTTL <= 0 {
		return errors.New("reset token ttl must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range [4, 31]", cfg.BcryptCost)
	}
	if cfg.RateLimitRPS < 0 {
		return errors.New("rate limit must not be negative")
	}
	if cfg.RateLimitRPS > 0 && cfg.RateBurst < 1 {
		return errors.New("rate burst must be at least 1")
	}
	return nil
}

// envLookup copies environment values into flags the user did not set.
// The first conversion error is kept in err.
type envLookup struct {
	flags *pflag.FlagSet
	err   error
}

func (e *envLookup) get(flag, key string) (string, bool) {
	if e.err != nil || e.flags.Changed(flag) {
		return "", false
	}
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envLookup) stringVar(p *string, flag, key string) {
	if v, ok := e.get(flag, key); ok {
		*p = v
	}
}

func (e *envLookup) intVar(p *int, flag, key string) {
	if v, ok := e.get(flag, key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*p = n
	}
}

func (e *envLookup) floatVar(p *float64, flag, key string) {
	if v, ok := e.get(flag, key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*p = f
	}
}

func (e *envLookup) boolVar(p *bool, flag, key string) {
	if v, ok := e.get(flag, key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*p = b
	}
}

func (e *envLookup) durationVar(p *time.Duration, flag, key string) {
	if v, ok := e.get(flag, key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable", key)
			return
		}
		*p = d
	}
}
