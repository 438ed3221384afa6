package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = `threads:
  - tqName: SCR_mb.SCR_mb
    componentNode:
      - name: harness
        node:
          - id: HH@id@934
            type: HH
            class: CF
            functionName: routeHarness
          - id: HH@id@935
            type: HH
            class: CF
            functionName: routeHarnessFast
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "threads.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seed), 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  seed_file: "+seedPath+"\n"), 0o600))
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	outputFormat = "human"
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	cfg := setup(t)

	t.Run("Should rank similar nodes", func(t *testing.T) {
		out, err := run(t, "similar", "HH@id@934", "--config", cfg)
		require.NoError(t, err)
		assert.Contains(t, out, "HH@id@935")
	})

	t.Run("Should print an impact assessment as JSON", func(t *testing.T) {
		out, err := run(t, "impact", "HH@id@934", "--config", cfg, "--format", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"targetNodeId": "HH@id@934"`)
	})

	t.Run("Should answer questions", func(t *testing.T) {
		out, err := run(t, "ask", "how", "many", "HH", "nodes", "--config", cfg)
		require.NoError(t, err)
		assert.Contains(t, out, "There are 2 HH node(s).")
	})

	t.Run("Should fail on unknown nodes", func(t *testing.T) {
		_, err := run(t, "impact", "ZZ@id@1", "--config", cfg)
		assert.Error(t, err)
	})

	t.Run("Should refuse to import into the memory backend", func(t *testing.T) {
		_, err := run(t, "import", filepath.Join(filepath.Dir(cfg), "threads.yaml"), "--config", cfg)
		assert.ErrorContains(t, err, "memory")
	})
}

func TestImportIntoSQLite(t *testing.T) {
	cfgPath := setup(t)
	dir := filepath.Dir(cfgPath)
	dbPath := filepath.Join(dir, "sot.db")
	sqliteCfg := filepath.Join(dir, "sqlite.yaml")
	require.NoError(t, os.WriteFile(sqliteCfg, []byte("store:\n  backend: sqlite\n  sqlite_path: "+dbPath+"\n"), 0o600))

	out, err := run(t, "import", filepath.Join(dir, "threads.yaml"), "--config", sqliteCfg)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 thread(s), 2 node(s) into sqlite")

	out, err = run(t, "deps", "HH@id@934", "--config", sqliteCfg)
	require.NoError(t, err)
	assert.Contains(t, out, "HH@id@935")
}
