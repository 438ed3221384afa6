package schema

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

type fakeSource struct {
	calls atomic.Int32
	doc   *Doc
	err   error
	gate  chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context) (*Doc, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.doc, f.err
}

type eventCounter struct {
	mu                    sync.Mutex
	hits, misses, refails int
}

func (e *eventCounter) SchemaCacheHit()      { e.mu.Lock(); e.hits++; e.mu.Unlock() }
func (e *eventCounter) SchemaCacheMiss()     { e.mu.Lock(); e.misses++; e.mu.Unlock() }
func (e *eventCounter) SchemaRefreshFailed() { e.mu.Lock(); e.refails++; e.mu.Unlock() }

func sampleDoc() *Doc {
	return &Doc{
		Vertices: []VertexLabel{
			{Label: "HH", Relationships: []string{"routes", "feeds", "owns", "powers", "grounds"}},
			{Label: "TX", Relationships: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
			{Label: "CF", Relationships: []string{"feeds"}},
		},
		Edges: []EdgeLabel{
			{Label: "routes", From: "HH", To: "CF"},
			{Label: "feeds", From: "CF", To: "NET"},
		},
	}
}

func TestCacheTTL(t *testing.T) {
	src := &fakeSource{doc: sampleDoc()}
	events := &eventCounter{}
	c := NewCache(src, time.Minute, events, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	require.NotNil(t, c.Get(ctx))
	require.NotNil(t, c.Get(ctx))
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, events.hits)
	assert.Equal(t, 1, events.misses)

	clock = clock.Add(2 * time.Minute)
	require.NotNil(t, c.Get(ctx))
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCacheFailedRefreshKeepsValueAndClock(t *testing.T) {
	src := &fakeSource{doc: sampleDoc()}
	events := &eventCounter{}
	c := NewCache(src, time.Minute, events, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	ctx := context.Background()

	first := c.Get(ctx)
	require.NotNil(t, first)

	clock = clock.Add(2 * time.Minute)
	src.err, src.doc = errors.New("unreachable"), nil
	assert.Same(t, first, c.Get(ctx))
	assert.Same(t, first, c.Get(ctx), "stale value is retried, not re-timestamped")
	assert.Equal(t, int32(3), src.calls.Load())
	assert.Equal(t, 2, events.refails)
}

func TestCacheDisabledAndEmpty(t *testing.T) {
	assert.Nil(t, NewCache(nil, 0, nil, nil).Get(context.Background()))

	var nilCache *Cache
	assert.Nil(t, nilCache.Get(context.Background()))

	failing := NewCache(&fakeSource{err: errors.New("down")}, 0, nil, nil)
	assert.Nil(t, failing.Get(context.Background()))
}

func TestCacheCoalescesConcurrentRefreshes(t *testing.T) {
	src := &fakeSource{doc: sampleDoc(), gate: make(chan struct{})}
	c := NewCache(src, time.Minute, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, c.Get(context.Background()))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.LessOrEqual(t, src.calls.Load(), int32(8))
	assert.GreaterOrEqual(t, src.calls.Load(), int32(1))
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schema" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"vertices":[{"label":"HH","relationships":["routes"]}],"edges":[{"label":"routes","from":"HH","to":"CF"}]}`))
	}))
	defer srv.Close()

	doc, err := NewHTTPSource(srv.URL+"/schema", srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	v, ok := doc.Vertex("hh")
	require.True(t, ok)
	assert.Equal(t, 2, doc.RelationshipCount(v))

	_, err = NewHTTPSource(srv.URL+"/missing", srv.Client()).Fetch(context.Background())
	assert.Error(t, err)
}

func TestEnrich(t *testing.T) {
	doc := sampleDoc()
	base := domain.SimilarityResult{NodeID: "x", Similarity: 0.75, ImpactLevel: domain.ImpactLow}

	tests := []struct {
		name      string
		node      domain.Node
		in        domain.SimilarityResult
		wantSim   float64
		wantLevel domain.ImpactLevel
	}{
		{"unknown label is untouched", domain.Node{Type: "ZZ"}, base, 0.75, domain.ImpactLow},
		{"three relationships reach MEDIUM", domain.Node{Type: "CF"}, base, 0.85, domain.ImpactMedium},
		{"many relationships reach CRITICAL", domain.Node{Type: "TX"}, base, 0.85, domain.ImpactCritical},
		{"class label also matches", domain.Node{Type: "ZZ", Class: "HH"}, base, 0.85, domain.ImpactHigh},
		{"never downgrades", domain.Node{Type: "CF"}, domain.SimilarityResult{Similarity: 0.95, ImpactLevel: domain.ImpactCritical}, 1.0, domain.ImpactCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enrich(doc, tt.node, tt.in)
			assert.InDelta(t, tt.wantSim, got.Similarity, 1e-9)
			assert.Equal(t, tt.wantLevel, got.ImpactLevel)
		})
	}

	assert.Equal(t, base, Enrich(nil, domain.Node{Type: "HH"}, base))
}
