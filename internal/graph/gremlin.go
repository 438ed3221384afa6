package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// gremlinRequest is the body accepted by a Gremlin Server HTTP endpoint.
type gremlinRequest struct {
	Gremlin  string         `json:"gremlin"`
	Bindings map[string]any `json:"bindings,omitempty"`
}

type gremlinResponse struct {
	RequestID string `json:"requestId"`
	Status    struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Result struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

// untyped GraphSON keeps rows as plain JSON objects
const graphSONv1 = "application/vnd.gremlin-v1.0+json"

// GremlinClient executes traversals over the Gremlin Server HTTP protocol.
type GremlinClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewGremlinClient creates a client for endpoint (e.g. http://graph:8182/gremlin).
func NewGremlinClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *GremlinClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GremlinClient{endpoint: endpoint, client: httpClient, logger: logger}
}

// Execute implements Executor.
func (c *GremlinClient) Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error) {
	start := time.Now()

	body, err := json.Marshal(gremlinRequest{Gremlin: query, Bindings: bindings})
	if err != nil {
		return nil, fmt.Errorf("failed to encode gremlin request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gremlin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", graphSONv1)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gremlin request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gremlin response: %w", err)
	}
	elapsed := time.Since(start)

	var decoded gremlinResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("malformed gremlin response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Status.Code >= 300 {
		c.logger.Warn("Gremlin query rejected",
			zap.Int("http_status", resp.StatusCode),
			zap.Int("gremlin_status", decoded.Status.Code),
			zap.String("message", decoded.Status.Message),
		)
		return &Result{Success: false, Error: decoded.Status.Message, ExecutionTime: elapsed}, nil
	}

	var rows []Row
	if len(decoded.Result.Data) > 0 && string(decoded.Result.Data) != "null" {
		if err := json.Unmarshal(decoded.Result.Data, &rows); err != nil {
			return nil, fmt.Errorf("malformed gremlin rows: %w", err)
		}
	}

	c.logger.Debug("Gremlin query executed",
		zap.Int("rows", len(rows)),
		zap.Duration("duration", elapsed),
	)
	return &Result{Success: true, Data: rows, ExecutionTime: elapsed}, nil
}
