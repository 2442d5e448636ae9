package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfiguration marks a required value that is absent. Processes
// abort on it before issuing any mutating call.
var ErrMissingConfiguration = errors.New("missing configuration")

const (
	LedgerStoreMemory   = "memory"
	LedgerStorePostgres = "postgres"

	DefaultAPIURL    = "http://127.0.0.1:8080"
	DefaultRateLimit = "600-M"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	LedgerStore  string
	KafkaBrokers []string

	RelayInProcess bool
	RelayInterval  time.Duration
	RelayBatchSize int
	RateLimit      string
	AutoMigrate    bool
}

// ClientConfig is what votingctl needs to reach a ledger host.
type ClientConfig struct {
	APIURL        string
	LedgerAddress string
	CallerAddress string
	Admin         string
}

// Load reads process configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() (Config, error) {
	loadDotEnv()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "ballotbox"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	store := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_STORE")))
	switch store {
	case "":
		store = LedgerStoreMemory
		if dsn != "" {
			store = LedgerStorePostgres
		}
	case LedgerStoreMemory:
	case LedgerStorePostgres:
		if err := Require("POSTGRES_DSN", dsn); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported LEDGER_STORE %q", store)
	}

	interval, err := envDuration("RELAY_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := envInt("RELAY_BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}

	rateLimit := strings.TrimSpace(os.Getenv("RATE_LIMIT"))
	if rateLimit == "" {
		rateLimit = DefaultRateLimit
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  dsn,
		LedgerStore:  store,
		KafkaBrokers: brokers,

		RelayInProcess: envBool("RELAY_IN_PROCESS", true),
		RelayInterval:  interval,
		RelayBatchSize: batchSize,
		RateLimit:      rateLimit,
		AutoMigrate:    envBool("AUTO_MIGRATE", true),
	}, nil
}

// LoadClient reads the CLI settings. Nothing is required here; each command
// calls Require for the values it needs.
func LoadClient() ClientConfig {
	loadDotEnv()

	apiURL := strings.TrimSpace(os.Getenv("VOTING_API_URL"))
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return ClientConfig{
		APIURL:        apiURL,
		LedgerAddress: strings.TrimSpace(os.Getenv("VOTING_ADDRESS")),
		CallerAddress: strings.TrimSpace(os.Getenv("CALLER_ADDRESS")),
		Admin:         strings.TrimSpace(os.Getenv("ADMIN")),
	}
}

// Require fails with ErrMissingConfiguration when value is blank.
func Require(name string, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrMissingConfiguration, name)
	}
	return nil
}

func loadDotEnv() {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}
