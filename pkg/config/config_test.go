package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeChainsFile(t *testing.T, dir, yaml string) string {
	t.Helper()
	path := filepath.Join(dir, "chains.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write chains file: %v", err)
	}
	return path
}

func TestLoadChainsMissingFileIsNotAnError(t *testing.T) {
	chains, err := loadChains(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("loadChains: %v", err)
	}
	if chains != nil {
		t.Errorf("expected nil chains for a missing file, got %v", chains)
	}
}

func TestLoadChainsParsesYAML(t *testing.T) {
	path := writeChainsFile(t, t.TempDir(), `
chains:
  - chain_id: osmosis-1
    interface: ibc-go-v8-native
    ibc_version: "1.0.0"
    rpc_url: https://rpc.osmosis.example
    handler_addr: transfer
    max_gas_price: 5000
  - chain_id: "1"
    interface: ibc-solidity
    rpc_url: https://eth.example
    handler_addr: "0xHandler"
`)
	chains, err := loadChains(path)
	if err != nil {
		t.Fatalf("loadChains: %v", err)
	}
	if len(chains) != 2 {
		t.Fatalf("len(chains) = %d, want 2", len(chains))
	}
	if chains[0].ChainID != "osmosis-1" || chains[0].MaxGasPrice != 5000 {
		t.Errorf("chains[0] = %+v", chains[0])
	}
	if chains[1].Interface != "ibc-solidity" {
		t.Errorf("chains[1].Interface = %q, want ibc-solidity", chains[1].Interface)
	}
}

func TestValidateRequiresTwoChainsAndDatabaseURL(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error on an empty config")
	}

	cfg = &Config{
		DatabaseURL: "postgres://localhost/voyager",
		Chains: []ChainConfig{
			{ChainID: "a", RPCURL: "https://a.example"},
			{ChainID: "b", RPCURL: "https://b.example"},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected a valid config to pass, got: %v", err)
	}
}

func TestValidateRejectsDuplicateChainIDs(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/voyager",
		Chains: []ChainConfig{
			{ChainID: "a", RPCURL: "https://a.example"},
			{ChainID: "a", RPCURL: "https://b.example"},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a duplicate chain_id to fail validation")
	}
}

func TestValidateRejectsMissingRPCURL(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/voyager",
		Chains: []ChainConfig{
			{ChainID: "a", RPCURL: "https://a.example"},
			{ChainID: "b"},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a missing rpc_url to fail validation")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	const key = "VOYAGER_TEST_ENV_HELPER"
	os.Unsetenv(key)
	if got := getEnv(key, "default"); got != "default" {
		t.Errorf("getEnv default = %q, want default", got)
	}
	os.Setenv(key, "set")
	defer os.Unsetenv(key)
	if got := getEnv(key, "default"); got != "set" {
		t.Errorf("getEnv override = %q, want set", got)
	}
}
