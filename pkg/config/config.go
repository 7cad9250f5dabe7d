// Package config loads the relayer's environment-driven configuration,
// grounded on this tree's Load/Validate/getEnv* convention (env vars read
// by explicit name, no default for anything security- or
// correctness-sensitive, YAML only for the one inherently multi-valued
// piece: the list of chains to relay between).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ChainConfig describes one counterparty chain this relayer instance
// bridges to: its IBC interface/version, the RPC endpoints its
// ConsensusModule and ProofModule dial, and the signing key(s) its
// TxSubmitter draws from.
type ChainConfig struct {
	ChainID     string   `yaml:"chain_id"`
	Interface   string   `yaml:"interface"` // ibc-go-v8-native, ibc-go-v8-08-wasm, ibc-cosmwasm, ibc-solidity, ibc-move, ibc-near
	IbcVersion  string   `yaml:"ibc_version"` // "1.0.0" or "union-ibc"
	RPCURL      string   `yaml:"rpc_url"`
	HandlerAddr string   `yaml:"handler_addr"` // IBC handler contract/module address
	SigningKeys []string `yaml:"signing_keys"` // hex private keys (EVM) or mnemonics (Cosmos)
	MaxGasPrice uint64   `yaml:"max_gas_price"`
}

// Config holds all configuration for the voyager relayer daemon.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// OpQueue / Postgres
	DatabaseURL         string
	DatabaseMaxOpenConns int
	DatabaseMaxIdleConns int
	DatabaseConnMaxLifetime time.Duration

	// Firestore mirror (best-effort, optional)
	FirestoreEnabled        bool
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Worker pool
	WorkerConcurrency int
	WorkerPollInterval time.Duration

	// Chains to relay between, loaded from ChainsConfigPath
	ChainsConfigPath string
	Chains           []ChainConfig

	LogLevel string
}

// Load reads configuration from environment variables, then loads the
// chains list from ChainsConfigPath if set.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("VOYAGER_LISTEN_ADDR", "0.0.0.0:7777"),
		MetricsAddr: getEnv("VOYAGER_METRICS_ADDR", "0.0.0.0:9090"),

		DatabaseURL:             getEnv("VOYAGER_DATABASE_URL", ""),
		DatabaseMaxOpenConns:    getEnvInt("VOYAGER_DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns:    getEnvInt("VOYAGER_DB_MAX_IDLE_CONNS", 5),
		DatabaseConnMaxLifetime: getEnvDuration("VOYAGER_DB_CONN_MAX_LIFETIME", time.Hour),

		FirestoreEnabled:        getEnvBool("VOYAGER_FIRESTORE_ENABLED", false),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		WorkerConcurrency:  getEnvInt("VOYAGER_WORKER_CONCURRENCY", 4),
		WorkerPollInterval: getEnvDuration("VOYAGER_WORKER_POLL_INTERVAL", 2*time.Second),

		ChainsConfigPath: getEnv("VOYAGER_CHAINS_CONFIG", "./chains.yaml"),
		LogLevel:         getEnv("VOYAGER_LOG_LEVEL", "info"),
	}

	if cfg.ChainsConfigPath != "" {
		chains, err := loadChains(cfg.ChainsConfigPath)
		if err != nil {
			return nil, fmt.Errorf("config: load chains: %w", err)
		}
		cfg.Chains = chains
	}

	return cfg, nil
}

func loadChains(path string) ([]ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc struct {
		Chains []ChainConfig `yaml:"chains"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return doc.Chains, nil
}

// Validate checks that all required configuration is present before the
// daemon starts serving traffic.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "VOYAGER_DATABASE_URL is required but not set")
	}
	if len(c.Chains) < 2 {
		errs = append(errs, fmt.Sprintf("at least two chains must be configured in %s to relay between them", c.ChainsConfigPath))
	}
	seen := make(map[string]bool)
	for _, chain := range c.Chains {
		if chain.ChainID == "" {
			errs = append(errs, "a chain entry is missing chain_id")
			continue
		}
		if seen[chain.ChainID] {
			errs = append(errs, fmt.Sprintf("duplicate chain_id %q", chain.ChainID))
		}
		seen[chain.ChainID] = true
		if chain.RPCURL == "" {
			errs = append(errs, fmt.Sprintf("chain %q is missing rpc_url", chain.ChainID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
