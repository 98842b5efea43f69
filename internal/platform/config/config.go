package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Database configures the record store. An empty URL selects in-memory stores.
type Database struct {
	URL             string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional user-directory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dedup holds the duplicate-search policy.
type Dedup struct {
	CandidateCap       int
	NationalIDWeight   int
	PhoneWeight        int
	NameWeight         int
	NameThreshold      float64
	Prefilter          string
	PrefilterThreshold float64
	PhonePolicy        string
	ScoringParallelism int
	DirectoryCacheTTL  time.Duration
	DecisionTxTimeout  time.Duration
}

type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Dedup    Dedup
}

// Prefilter strategies.
const (
	PrefilterTrigram     = "trigram"
	PrefilterContainment = "containment"
)

// FromEnv builds the configuration from environment variables so main stays
// lean. Unset variables take defaults; malformed ones are reported.
func FromEnv() (Config, error) {
	r := envReader{lookup: os.LookupEnv}

	cfg := Config{
		Server: Server{
			Addr:            r.str("CASEGUARD_ADDR", ":8080"),
			LogLevel:        r.str("LOG_LEVEL", "info"),
			ShutdownTimeout: r.duration("CASEGUARD_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL:             r.str("DATABASE_URL", ""),
			AutoMigrate:     r.boolean("DATABASE_AUTO_MIGRATE", true),
			MaxOpenConns:    r.integer("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    r.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 2*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 2*time.Second),
		},
		Dedup: Dedup{
			CandidateCap:       r.integer("DEDUP_CANDIDATE_CAP", 50),
			NationalIDWeight:   r.integer("DEDUP_NATIONAL_ID_WEIGHT", 100),
			PhoneWeight:        r.integer("DEDUP_PHONE_WEIGHT", 80),
			NameWeight:         r.integer("DEDUP_NAME_WEIGHT", 60),
			NameThreshold:      r.float("DEDUP_NAME_THRESHOLD", 0.6),
			Prefilter:          strings.ToLower(r.str("DEDUP_PREFILTER", PrefilterTrigram)),
			PrefilterThreshold: r.float("DEDUP_PREFILTER_THRESHOLD", 0.3),
			PhonePolicy:        r.str("DEDUP_PHONE_POLICY", "trim"),
			ScoringParallelism: r.integer("DEDUP_SCORING_PARALLELISM", runtime.GOMAXPROCS(0)),
			DirectoryCacheTTL:  r.duration("DEDUP_DIRECTORY_CACHE_TTL", 5*time.Minute),
			DecisionTxTimeout:  r.duration("DEDUP_DECISION_TX_TIMEOUT", 5*time.Second),
		},
	}

	if len(r.errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InMemory reports whether the server should run without a database.
func (c Config) InMemory() bool {
	return c.Database.URL == ""
}

func (c Config) validate() error {
	d := c.Dedup
	if d.CandidateCap <= 0 {
		return fmt.Errorf("invalid configuration: DEDUP_CANDIDATE_CAP must be positive, got %d", d.CandidateCap)
	}
	if d.Prefilter != PrefilterTrigram && d.Prefilter != PrefilterContainment {
		return fmt.Errorf("invalid configuration: DEDUP_PREFILTER must be %q or %q, got %q", PrefilterTrigram, PrefilterContainment, d.Prefilter)
	}
	if d.PrefilterThreshold <= 0 || d.PrefilterThreshold > 1 {
		return fmt.Errorf("invalid configuration: DEDUP_PREFILTER_THRESHOLD must be in (0, 1], got %v", d.PrefilterThreshold)
	}
	if d.DirectoryCacheTTL < 0 {
		return fmt.Errorf("invalid configuration: DEDUP_DIRECTORY_CACHE_TTL must not be negative")
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (r *envReader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (r *envReader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}
