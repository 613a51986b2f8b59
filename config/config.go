package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tidepool/crypto"
)

// Config carries the daemon settings loaded from TOML.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	Env            string `toml:"Env"`
	// GenesisAdmin is the bech32 address seeded into the admin role on first
	// boot. Ignored once any admin exists in state.
	GenesisAdmin string `toml:"GenesisAdmin"`
}

const (
	defaultRPCAddress     = "127.0.0.1:8475"
	defaultMetricsAddress = "127.0.0.1:9475"
	defaultDataDir        = "./data"
)

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = defaultMetricsAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
}

// Validate checks field formats without touching the filesystem.
func (c *Config) Validate() error {
	if admin := strings.TrimSpace(c.GenesisAdmin); admin != "" {
		if _, err := crypto.DecodeAddress(admin); err != nil {
			return fmt.Errorf("config: invalid GenesisAdmin: %w", err)
		}
	}
	return nil
}

// GenesisAdminAddress decodes the configured admin, reporting whether one is
// set.
func (c *Config) GenesisAdminAddress() (crypto.Address, bool, error) {
	admin := strings.TrimSpace(c.GenesisAdmin)
	if admin == "" {
		return crypto.Address{}, false, nil
	}
	addr, err := crypto.DecodeAddress(admin)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     defaultRPCAddress,
		MetricsAddress: defaultMetricsAddress,
		DataDir:        defaultDataDir,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
