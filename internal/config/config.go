package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "TRANSFERS_"

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	HTTP        HTTPConfig
	Log         LogConfig
	Store       string
	Idempotency IdempotencyConfig
	DB          DBConfig
	Redis       RedisConfig
	Ledger      LedgerConfig
	Breaker     BreakerConfig
	Batch       BatchConfig
}

type HTTPConfig struct {
	Addr        string
	MaxInFlight int
}

type LogConfig struct {
	Level  string
	Format string
}

type IdempotencyConfig struct {
	Store         string
	TTL           time.Duration
	PurgeInterval time.Duration
	WaitTimeout   time.Duration
	PollInterval  time.Duration
}

type DBConfig struct {
	DSN      string
	MaxConns int32
	Migrate  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LedgerConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	CallTimeout    time.Duration
}

type BreakerConfig struct {
	FailureRate  float64
	MinCalls     uint32
	Window       time.Duration
	OpenDuration time.Duration
	TrialCalls   uint32
	SlowCall     time.Duration
}

type BatchConfig struct {
	MaxItems    int
	Concurrency int
}

func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv, applying defaults for unset
// variables, and validates the result.
func LoadFrom(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:        r.str("HTTP_ADDR", ":8080"),
			MaxInFlight: r.int("HTTP_MAX_INFLIGHT", 64),
		},
		Log: LogConfig{
			Level:  r.str("LOG_LEVEL", "info"),
			Format: r.str("LOG_FORMAT", "json"),
		},
		Store: strings.ToLower(r.str("STORE", BackendMemory)),
		DB: DBConfig{
			DSN:      r.str("DB_DSN", ""),
			MaxConns: int32(r.int("DB_MAX_CONNS", 10)),
			Migrate:  r.bool("DB_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     r.str("REDIS_ADDR", "localhost:6379"),
			Password: r.str("REDIS_PASSWORD", ""),
			DB:       r.int("REDIS_DB", 0),
		},
		Ledger: LedgerConfig{
			BaseURL:        r.str("LEDGER_BASE_URL", "http://localhost:9090"),
			ConnectTimeout: r.duration("LEDGER_CONNECT_TIMEOUT", time.Second),
			ReadTimeout:    r.duration("LEDGER_READ_TIMEOUT", 2*time.Second),
			CallTimeout:    r.duration("LEDGER_CALL_TIMEOUT", 3*time.Second),
		},
		Breaker: BreakerConfig{
			FailureRate:  r.float("BREAKER_FAILURE_RATE", 50),
			MinCalls:     uint32(r.int("BREAKER_MIN_CALLS", 5)),
			Window:       r.duration("BREAKER_WINDOW", 60*time.Second),
			OpenDuration: r.duration("BREAKER_OPEN_DURATION", 10*time.Second),
			TrialCalls:   uint32(r.int("BREAKER_TRIAL_CALLS", 3)),
			SlowCall:     r.duration("BREAKER_SLOW_CALL", 2*time.Second),
		},
		Batch: BatchConfig{
			MaxItems:    r.int("BATCH_MAX_ITEMS", 20),
			Concurrency: r.int("BATCH_CONCURRENCY", 8),
		},
	}

	cfg.Idempotency = IdempotencyConfig{
		Store:         strings.ToLower(r.str("IDEMPOTENCY_STORE", cfg.Store)),
		TTL:           r.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		PurgeInterval: r.duration("IDEMPOTENCY_PURGE_INTERVAL", 5*time.Minute),
		WaitTimeout:   r.duration("IDEMPOTENCY_WAIT_TIMEOUT", 10*time.Second),
		PollInterval:  r.duration("IDEMPOTENCY_POLL_INTERVAL", 50*time.Millisecond),
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case BackendMemory, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("%sSTORE: unsupported backend %q", envPrefix, c.Store))
	}

	switch c.Idempotency.Store {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("%sIDEMPOTENCY_STORE: unsupported backend %q", envPrefix, c.Idempotency.Store))
	}

	// A memory transfer store next to a shared idempotency store would
	// replay responses for transfers no other instance can read.
	if c.Store == BackendMemory && c.Idempotency.Store != BackendMemory {
		errs = append(errs, fmt.Errorf("%sIDEMPOTENCY_STORE=%s requires a shared transfer store", envPrefix, c.Idempotency.Store))
	}

	if (c.Store == BackendPostgres || c.Idempotency.Store == BackendPostgres) && c.DB.DSN == "" {
		errs = append(errs, fmt.Errorf("%sDB_DSN is required for the postgres backend", envPrefix))
	}

	if u, err := url.Parse(c.Ledger.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%sLEDGER_BASE_URL: invalid url %q", envPrefix, c.Ledger.BaseURL))
	}

	positive := map[string]time.Duration{
		"LEDGER_CONNECT_TIMEOUT":     c.Ledger.ConnectTimeout,
		"LEDGER_READ_TIMEOUT":        c.Ledger.ReadTimeout,
		"LEDGER_CALL_TIMEOUT":        c.Ledger.CallTimeout,
		"BREAKER_WINDOW":             c.Breaker.Window,
		"BREAKER_OPEN_DURATION":      c.Breaker.OpenDuration,
		"IDEMPOTENCY_TTL":            c.Idempotency.TTL,
		"IDEMPOTENCY_PURGE_INTERVAL": c.Idempotency.PurgeInterval,
		"IDEMPOTENCY_WAIT_TIMEOUT":   c.Idempotency.WaitTimeout,
		"IDEMPOTENCY_POLL_INTERVAL":  c.Idempotency.PollInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s%s must be positive", envPrefix, name))
		}
	}

	if c.Breaker.FailureRate <= 0 || c.Breaker.FailureRate > 100 {
		errs = append(errs, fmt.Errorf("%sBREAKER_FAILURE_RATE must be in (0, 100]", envPrefix))
	}
	if c.Breaker.MinCalls == 0 || c.Breaker.TrialCalls == 0 {
		errs = append(errs, fmt.Errorf("%sBREAKER_MIN_CALLS and %sBREAKER_TRIAL_CALLS must be positive", envPrefix, envPrefix))
	}
	if c.Breaker.SlowCall < 0 {
		errs = append(errs, fmt.Errorf("%sBREAKER_SLOW_CALL must not be negative", envPrefix))
	}

	if c.Batch.MaxItems <= 0 || c.Batch.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("%sBATCH_MAX_ITEMS and %sBATCH_CONCURRENCY must be positive", envPrefix, envPrefix))
	}
	if c.HTTP.MaxInFlight <= 0 {
		errs = append(errs, fmt.Errorf("%sHTTP_MAX_INFLIGHT must be positive", envPrefix))
	}

	return errors.Join(errs...)
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) lookup(name string) (string, bool) {
	v := strings.TrimSpace(r.getenv(envPrefix + name))
	return v, v != ""
}

func (r *reader) str(name, def string) string {
	if v, ok := r.lookup(name); ok {
		return v
	}
	return def
}

func (r *reader) int(name string, def int) int {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		r.errs = append(r.errs, fmt.Errorf("%s%s: want a non-negative integer, got %q", envPrefix, name, v))
		return def
	}
	return n
}

func (r *reader) float(name string, def float64) float64 {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: want a number, got %q", envPrefix, name, v))
		return def
	}
	return f
}

func (r *reader) bool(name string, def bool) bool {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: want a boolean, got %q", envPrefix, name, v))
		return def
	}
	return b
}

func (r *reader) duration(name string, def time.Duration) time.Duration {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: want a duration, got %q", envPrefix, name, v))
		return def
	}
	return d
}
