package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
)

const seed = `threads:
  - tqName: SCR_mb.SCR_mb
    componentNode:
      - name: harness
        node:
          - id: HH@id@934
            type: HH
            class: CF
          - id: HH@id@935
            type: HH
            class: CF
`

func TestInitializeContainer(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	path := filepath.Join(t.TempDir(), "threads.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	cfg := config.Default()
	cfg.Store.SeedFile = path
	cfg.Store.WatchSeed = false

	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, c.MCP)
	assert.Nil(t, c.Tracing)

	srv := httptest.NewServer(c.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/nodes/HH@id@934/impact")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, err := c.Interpreter.Interpret(context.Background(), "system status", "")
	require.NoError(t, err)
	assert.Contains(t, status.Response, "graph: not configured")
}

func TestProvideStoreSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.StoreSQLite
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "sot.db")

	st, cleanup, err := ProvideStore(cfg, awsConfigForTest(), nil)
	require.NoError(t, err)
	defer cleanup()

	threads, err := st.ListThreads(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestOptionalComponentsStayNil(t *testing.T) {
	cfg := config.Default()
	assert.Nil(t, ProvideGuardedExecutor(cfg, nil, nil))
	assert.Nil(t, ProvideExecutor(nil))
	assert.Nil(t, ProvideNotifier(cfg, awsConfigForTest(), nil, nil))
	assert.False(t, ProvideSchemaCache(cfg, nil, nil).Enabled())

	v, err := ProvideVerifier(cfg)
	require.NoError(t, err)
	assert.Nil(t, v)

	cfg.Graph.Endpoint = "http://graph.local:8182/gremlin"
	assert.NotNil(t, ProvideExecutor(ProvideGuardedExecutor(cfg, nil, nil)))
}

func awsConfigForTest() aws.Config {
	return aws.Config{Region: "us-east-1"}
}
