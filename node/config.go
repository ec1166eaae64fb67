// Package node wires the oracle components to a store, an HTTP endpoint and
// the process lifecycle.
package node

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"

	"github.com/eth2030/feedoracle/crypto"
	"github.com/eth2030/feedoracle/log"
)

// Config holds all configuration for an oracle node.
type Config struct {
	DB       DBConfig       `toml:"db"`
	HTTP     HTTPConfig     `toml:"http"`
	Log      LogConfig      `toml:"log"`
	Verifier VerifierConfig `toml:"verifier"`
	Feeds    FeedsConfig    `toml:"feeds"`
	Pauser   PauserConfig   `toml:"pauser"`
}

// DBConfig selects the key-value backend.
type DBConfig struct {
	// Backend is "memory" or "leveldb".
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Cache   int    `toml:"cache"`
	Handles int    `toml:"handles"`
}

// HTTPConfig controls the JSON-RPC and metrics endpoint.
type HTTPConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
	BodyLimit   int      `toml:"body_limit"`

	Metrics          bool   `toml:"metrics"`
	MetricsPath      string `toml:"metrics_path"`
	MetricsNamespace string `toml:"metrics_namespace"`
	RuntimeMetrics   bool   `toml:"runtime_metrics"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// VerifierConfig bootstraps the verification facade.
type VerifierConfig struct {
	// Owner is written on first start only.
	Owner          common.Address `toml:"owner"`
	HashToCurveDST string         `toml:"hash_to_curve_dst"`
}

// FeedsConfig bootstraps the feed store.
type FeedsConfig struct {
	// Address is the store's identity towards the verifier. It is
	// registered as the verifier's feed manager on first start.
	Address  common.Address `toml:"address"`
	Owner    common.Address `toml:"owner"`
	Deployer common.Address `toml:"deployer"`
}

// PauserConfig lists who may pause and unpause submissions.
type PauserConfig struct {
	Pausers  []common.Address `toml:"pausers"`
	Unpauser common.Address   `toml:"unpauser"`
}

// DefaultConfig returns a Config with sensible defaults. Owners and the
// feed store address must still be set.
func DefaultConfig() Config {
	return Config{
		DB: DBConfig{
			Backend: "leveldb",
			Path:    "feedoracle-data",
			Cache:   16,
			Handles: 16,
		},
		HTTP: HTTPConfig{
			Enabled:          true,
			Addr:             "127.0.0.1:8547",
			Metrics:          true,
			MetricsPath:      "/metrics",
			MetricsNamespace: "feedoracle",
			RuntimeMetrics:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: log.FormatTerminal,
		},
		Verifier: VerifierConfig{
			HashToCurveDST: crypto.DefaultHashToCurveDST,
		},
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	switch c.DB.Backend {
	case "memory":
	case "leveldb":
		if c.DB.Path == "" {
			return errors.New("config: db.path must not be empty")
		}
	default:
		return fmt.Errorf("config: unknown db backend %q", c.DB.Backend)
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return errors.New("config: http.addr must not be empty")
	}
	if c.HTTP.BodyLimit < 0 {
		return fmt.Errorf("config: invalid http.body_limit: %d", c.HTTP.BodyLimit)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case "", log.FormatTerminal, log.FormatLogfmt, log.FormatJSON:
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Verifier.HashToCurveDST == "" {
		return errors.New("config: verifier.hash_to_curve_dst must not be empty")
	}
	if c.Feeds.Address == (common.Address{}) {
		return errors.New("config: feeds.address must be set")
	}
	return nil
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Marshal renders the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
