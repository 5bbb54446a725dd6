package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config gathers everything main needs to wire the service. Observed-store
// credentials are an explicit value handed to the store constructor, never
// package-level state.
type Config struct {
	Addr string

	// CaseDatabaseURL is the Postgres DSN for case records. Empty selects
	// the in-memory store.
	CaseDatabaseURL string
	// ObservedDatabaseURL is the Postgres DSN for the gantry flow store.
	ObservedDatabaseURL string
	// ObservedQueryTimeout bounds each observed-flow query.
	ObservedQueryTimeout time.Duration
	// ObservedFlowTable is the fully qualified gantry flow table name.
	ObservedFlowTable string

	// RedisURL enables the distributed run lock. Empty selects the
	// in-process keyed mutex.
	RedisURL string

	// KafkaBrokers enables the transition event publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// SimulatorCommand is the external simulator binary; SimulatorTimeout
	// caps one invocation.
	SimulatorCommand string
	SimulatorTimeout time.Duration

	// IntervalMinutes is the comparison bucket width shared by the
	// aggregator and the aligner.
	IntervalMinutes int
	// GEHHigh and GEHLow are the anomaly thresholds.
	GEHHigh float64
	GEHLow  float64

	// ParseWorkers limits concurrent detector-file parsing.
	ParseWorkers int

	// DataDir roots per-case working directories.
	DataDir string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:                 getenv("CALIBRA_ADDR", ":8080"),
		CaseDatabaseURL:      os.Getenv("CASE_DATABASE_URL"),
		ObservedDatabaseURL:  os.Getenv("OBSERVED_DATABASE_URL"),
		ObservedQueryTimeout: getdur("OBSERVED_QUERY_TIMEOUT", 30*time.Second),
		ObservedFlowTable:    getenv("OBSERVED_FLOW_TABLE", "dwd.dwd_flow_gantry_weekly"),
		RedisURL:             os.Getenv("REDIS_URL"),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:           getenv("AUDIT_TOPIC", "calibra.case-transitions"),
		SimulatorCommand:     getenv("SIMULATOR_COMMAND", "sumo"),
		SimulatorTimeout:     getdur("SIMULATOR_TIMEOUT", 2*time.Hour),
		IntervalMinutes:      getint("INTERVAL_MINUTES", 5),
		GEHHigh:              getfloat("GEH_HIGH_THRESHOLD", 10),
		GEHLow:               getfloat("GEH_LOW_THRESHOLD", 5),
		ParseWorkers:         getint("PARSE_WORKERS", 8),
		DataDir:              getenv("CALIBRA_DATA_DIR", "data"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
