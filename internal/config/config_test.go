package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PINATA_API_KEY", "")

	cfg := Load()

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "https://gateway.pinata.cloud/ipfs/", cfg.IPFSGateway)
	require.Equal(t, 10*time.Second, cfg.MetadataFetchTimeout)
	require.Equal(t, time.Minute, cfg.RefreshInterval)
	require.Equal(t, 10, cfg.LeaderboardLimit)
	require.True(t, cfg.DemoMode())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("METADATA_FETCH_TIMEOUT", "3s")
	t.Setenv("METADATA_CONCURRENCY", "4")
	t.Setenv("PINATA_API_KEY", "key")
	t.Setenv("PINATA_SECRET_API_KEY", "secret")
	t.Setenv("USE_MOCK_DATA", "false")

	cfg := Load()

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, 3*time.Second, cfg.MetadataFetchTimeout)
	require.Equal(t, 4, cfg.MetadataConcurrency)
	require.False(t, cfg.DemoMode())
}
