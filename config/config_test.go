package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tidepool/crypto"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, defaultRPCAddress, cfg.RPCAddress)
	require.Equal(t, defaultMetricsAddress, cfg.MetricsAddress)
	require.Equal(t, defaultDataDir, cfg.DataDir)
	require.FileExists(t, path)

	// Loading the created file again round-trips the defaults.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("RPCAddress = \"0.0.0.0:9000\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, defaultMetricsAddress, cfg.MetricsAddress)
	require.Equal(t, defaultDataDir, cfg.DataDir)
}

func TestValidateGenesisAdmin(t *testing.T) {
	cfg := &Config{GenesisAdmin: "not-an-address"}
	require.Error(t, cfg.Validate())

	raw := make([]byte, crypto.AddressLength)
	raw[0] = 0x01
	addr := crypto.MustNewAddress(crypto.Prefix, raw)
	cfg = &Config{GenesisAdmin: addr.String()}
	require.NoError(t, cfg.Validate())

	decoded, ok, err := cfg.GenesisAdminAddress()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, decoded.Equal(addr))

	_, ok, err = (&Config{}).GenesisAdminAddress()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadRejectsInvalidAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("GenesisAdmin = \"bogus\"\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
