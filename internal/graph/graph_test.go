package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

type stubExecutor struct {
	calls  atomic.Int32
	result *Result
	err    error
	delay  time.Duration
}

func (s *stubExecutor) Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

type countingObserver struct {
	ok, failed int
}

func (o *countingObserver) ObserveGraphQuery(_ time.Duration, err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

func TestGremlinClient(t *testing.T) {
	t.Run("Should post the traversal and decode rows", func(t *testing.T) {
		var got gremlinRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, graphSONv1, r.Header.Get("Accept"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"requestId":"1","status":{"code":200,"message":""},"result":{"data":[{"nodeId":"HH@id@935","sharedConnections":3}],"meta":{}}}`))
		}))
		defer srv.Close()

		res, err := NewGremlinClient(srv.URL, srv.Client(), nil).Execute(context.Background(), "g.V()", map[string]any{"nodeId": "HH@id@934"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "HH@id@935", res.Data[0].String("nodeId"))
		assert.Equal(t, "g.V()", got.Gremlin)
		assert.Equal(t, "HH@id@934", got.Bindings["nodeId"])
	})

	t.Run("Should report server errors as unsuccessful results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":{"code":597,"message":"script evaluation error"},"result":{"data":null}}`))
		}))
		defer srv.Close()

		res, err := NewGremlinClient(srv.URL, srv.Client(), nil).Execute(context.Background(), "g.V(", nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "script evaluation error", res.Error)
	})

	t.Run("Should fail on a malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>proxy error</html>`))
		}))
		defer srv.Close()

		_, err := NewGremlinClient(srv.URL, srv.Client(), nil).Execute(context.Background(), "g.V()", nil)
		assert.Error(t, err)
	})
}

func TestRunFoldsFailures(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, nil, "g.V()", nil)
	assert.True(t, apperrors.IsExternalQuery(err))

	_, err = Run(ctx, &stubExecutor{err: errors.New("connection refused")}, "g.V()", nil)
	assert.True(t, apperrors.IsExternalQuery(err))

	_, err = Run(ctx, &stubExecutor{result: &Result{Success: false, Error: "boom"}}, "g.V()", nil)
	assert.True(t, apperrors.IsExternalQuery(err))

	rows, err := Run(ctx, &stubExecutor{result: &Result{Success: true}}, "g.V()", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGuardedExecutor(t *testing.T) {
	t.Run("Should time out slow queries", func(t *testing.T) {
		cfg := DefaultBreakerConfig("test")
		cfg.Timeout = 20 * time.Millisecond
		obs := &countingObserver{}
		g := NewGuardedExecutor(&stubExecutor{delay: time.Second, result: &Result{Success: true}}, cfg, obs, nil)

		_, err := g.Execute(context.Background(), "g.V()", nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, obs.failed)
	})

	t.Run("Should open after repeated failures and stop calling the backend", func(t *testing.T) {
		inner := &stubExecutor{result: &Result{Success: false, Error: "unavailable"}}
		cfg := DefaultBreakerConfig("test")
		g := NewGuardedExecutor(inner, cfg, nil, nil)

		for i := 0; i < int(cfg.MinRequests); i++ {
			_, err := g.Execute(context.Background(), "g.V()", nil)
			require.Error(t, err)
		}
		assert.Equal(t, "open", g.State())

		_, err := g.Execute(context.Background(), "g.V()", nil)
		assert.Error(t, err)
		assert.Equal(t, int32(cfg.MinRequests), inner.calls.Load())
	})

	t.Run("Should pass successful results through", func(t *testing.T) {
		obs := &countingObserver{}
		g := NewGuardedExecutor(&stubExecutor{result: &Result{Success: true, Data: []Row{{"a": "b"}}}}, DefaultBreakerConfig("test"), obs, nil)

		res, err := g.Execute(context.Background(), "g.V()", nil)
		require.NoError(t, err)
		assert.Len(t, res.Data, 1)
		assert.Equal(t, 1, obs.ok)
	})
}

func TestSharedNeighbors(t *testing.T) {
	ctx := context.Background()

	t.Run("Should decode and cap candidates", func(t *testing.T) {
		rows := make([]Row, 0, 25)
		for i := 0; i < 25; i++ {
			rows = append(rows, Row{"nodeId": "N" + string(rune('a'+i)), "sharedConnections": float64(25 - i), "totalConnections": float64(30)})
		}
		out, err := SharedNeighbors(ctx, &stubExecutor{result: &Result{Success: true, Data: rows}}, "HH@id@934", 0)
		require.NoError(t, err)
		assert.Len(t, out, MaxStructuralCandidates)
		assert.Equal(t, 25, out[0].SharedConnections)
	})

	t.Run("Should reject rows without an id", func(t *testing.T) {
		ex := &stubExecutor{result: &Result{Success: true, Data: []Row{{"sharedConnections": float64(1)}}}}
		_, err := SharedNeighbors(ctx, ex, "HH@id@934", 2)
		assert.True(t, apperrors.IsExternalQuery(err))
	})
}

func TestConnectionCountsAndDependencies(t *testing.T) {
	ctx := context.Background()

	ex := &stubExecutor{result: &Result{Success: true, Data: []Row{{
		"direct": float64(4), "indirect": float64(9), "systems": []any{"SCR", "Capital"},
	}}}}
	c, err := ConnectionCounts(ctx, ex, "HH@id@934")
	require.NoError(t, err)
	assert.Equal(t, &Connectivity{Direct: 4, Indirect: 9, Systems: []string{"SCR", "Capital"}}, c)

	_, err = ConnectionCounts(ctx, &stubExecutor{result: &Result{Success: true}}, "HH@id@934")
	assert.True(t, apperrors.IsExternalQuery(err))

	deps, err := Dependencies(ctx, &stubExecutor{result: &Result{Success: true, Data: []Row{
		{"nodeId": "TX@id@1", "relation": "calls", "direction": "outgoing", "type": "TX", "sourceCode": "Capital"},
	}}}, "HH@id@934")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "calls", deps[0].Relation)
	assert.Equal(t, "outgoing", deps[0].Direction)
}
