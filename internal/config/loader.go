package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/clinic-scheduler/internal/logging"
)

// Storage backends.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort        int
	Storage         string
	SQLiteDSN       string
	DatabaseURL     string
	ClinicLocation  *time.Location
	RandomSeed      *uint64
	LogLevel        slog.Level
	ShutdownTimeout time.Duration

	RedisAddr         string
	RateLimit         int
	RateLimitFailOpen bool
	// TrustedProxies are the peers whose X-Forwarded-For the limiter believes.
	TrustedProxies []netip.Prefix

	// KafkaBrokers is the raw comma separated broker list; empty disables publishing.
	KafkaBrokers string
	KafkaTopic   string

	OTLPEndpoint    string
	OTelSampleRatio float64
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment without overriding variables that are already set, then
// parses the configuration. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv()
}

// FromEnv parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every missing or invalid variable is
// reported in a single error.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		Storage:           StorageSQLite,
		SQLiteDSN:         "clinic.db",
		ClinicLocation:    time.UTC,
		LogLevel:          slog.LevelInfo,
		ShutdownTimeout:   10 * time.Second,
		RateLimit:         120,
		RateLimitFailOpen: true,
		KafkaTopic:        "clinic.appointments",
		OTelSampleRatio:   1.0,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("SCHEDULER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.ToLower(env("SCHEDULER_STORAGE")); storage != "" {
		switch storage {
		case StorageSQLite, StoragePostgres, StorageMemory:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "SCHEDULER_STORAGE")
		}
	}

	if dsn := env("SCHEDULER_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.DatabaseURL = env("SCHEDULER_DATABASE_URL")
	if cfg.Storage == StoragePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "SCHEDULER_DATABASE_URL")
	}

	if tz := env("SCHEDULER_CLINIC_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_CLINIC_TIMEZONE")
		} else {
			cfg.ClinicLocation = loc
		}
	}

	if seedValue := env("SCHEDULER_RANDOM_SEED"); seedValue != "" {
		seed, err := strconv.ParseUint(seedValue, 10, 64)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_RANDOM_SEED")
		} else {
			cfg.RandomSeed = &seed
		}
	}

	if levelValue := env("SCHEDULER_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if timeoutValue := env("SCHEDULER_SHUTDOWN_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "SCHEDULER_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	cfg.RedisAddr = env("SCHEDULER_REDIS_ADDR")

	if limitValue := env("SCHEDULER_RATE_LIMIT"); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "SCHEDULER_RATE_LIMIT")
		} else {
			cfg.RateLimit = limit
		}
	}

	if failOpenValue := env("SCHEDULER_RATE_LIMIT_FAIL_OPEN"); failOpenValue != "" {
		failOpen, err := strconv.ParseBool(failOpenValue)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_RATE_LIMIT_FAIL_OPEN")
		} else {
			cfg.RateLimitFailOpen = failOpen
		}
	}

	if proxiesValue := env("SCHEDULER_TRUSTED_PROXIES"); proxiesValue != "" {
		proxies, err := parsePrefixes(proxiesValue)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_TRUSTED_PROXIES")
		} else {
			cfg.TrustedProxies = proxies
		}
	}

	cfg.KafkaBrokers = env("SCHEDULER_KAFKA_BROKERS")
	if topic := env("SCHEDULER_KAFKA_TOPIC"); topic != "" {
		cfg.KafkaTopic = topic
	}

	cfg.OTLPEndpoint = env("SCHEDULER_OTLP_ENDPOINT")
	if ratioValue := env("SCHEDULER_OTEL_SAMPLE_RATIO"); ratioValue != "" {
		ratio, err := strconv.ParseFloat(ratioValue, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			invalid = append(invalid, "SCHEDULER_OTEL_SAMPLE_RATIO")
		} else {
			cfg.OTelSampleRatio = ratio
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// parsePrefixes reads a comma separated list of CIDRs or bare addresses.
func parsePrefixes(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			prefix, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
