package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 0.7, cfg.Analysis.SimilarityThreshold)
	assert.Equal(t, 0.5, cfg.Analysis.ImpactThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Schema.TTL)
	assert.Equal(t, 80, cfg.Events.RiskThreshold)
	assert.Len(t, cfg.Sources, 3)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadLayering(t *testing.T) {
	path := writeFile(t, `
environment: staging
http_addr: ":9090"
store:
  backend: sqlite
  sqlite_path: /tmp/sot.db
graph:
  endpoint: http://graph.local:8182/gremlin
  timeout: 3s
schema:
  url: http://graph.local/schema
  ttl: 1m
sources:
  - code: SCR
    name: Source Code Repository
  - code: PLM
    name: Product Lifecycle
`)

	t.Run("Should read values from the file", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Staging, cfg.Environment)
		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, StoreSQLite, cfg.Store.Backend)
		assert.Equal(t, 3*time.Second, cfg.Graph.Timeout)
		assert.Equal(t, time.Minute, cfg.Schema.TTL)
		assert.Equal(t, []domain.Source{
			{Code: "SCR", Name: "Source Code Repository"},
			{Code: "PLM", Name: "Product Lifecycle"},
		}, cfg.Sources)
		// untouched keys keep their defaults
		assert.Equal(t, 2, cfg.Graph.MaxHops)
	})

	t.Run("Should let the environment win over the file", func(t *testing.T) {
		t.Setenv("SOT_HTTP_ADDR", ":7070")
		t.Setenv("SOT_GRAPH_TIMEOUT", "250ms")
		t.Setenv("SOT_SIMILARITY_THRESHOLD", "0.9")
		t.Setenv("SOT_WATCH_SEED", "false")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.HTTPAddr)
		assert.Equal(t, 250*time.Millisecond, cfg.Graph.Timeout)
		assert.Equal(t, 0.9, cfg.Analysis.SimilarityThreshold)
		assert.False(t, cfg.Store.WatchSeed)
	})

	t.Run("Should ignore unparsable environment values", func(t *testing.T) {
		t.Setenv("SOT_GRAPH_MAX_HOPS", "many")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Graph.MaxHops)
	})
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeFile(t, "store: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"unknown environment", func(c *Config) { c.Environment = "qa" }},
		{"similarity threshold above one", func(c *Config) { c.Analysis.SimilarityThreshold = 1.5 }},
		{"impact threshold above similarity", func(c *Config) { c.Analysis.ImpactThreshold = 0.8 }},
		{"sqlite without path", func(c *Config) { c.Store.Backend = StoreSQLite; c.Store.SQLitePath = "" }},
		{"dynamodb without table", func(c *Config) { c.Store.Backend = StoreDynamoDB; c.Store.TableName = "" }},
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"duplicate source", func(c *Config) { c.Sources = append(c.Sources, domain.Source{Code: "SCR"}) }},
		{"bad graph endpoint", func(c *Config) { c.Graph.Endpoint = "not a url" }},
		{"half configured auth", func(c *Config) { c.Auth.SupabaseURL = "https://x.supabase.co" }},
		{"max hops out of range", func(c *Config) { c.Graph.MaxHops = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
