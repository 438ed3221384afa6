package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/graph"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/store"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

func fixtureThreads() []domain.Thread {
	return []domain.Thread{
		{
			TQName: "SCR_mb.SCR_mb",
			ComponentNodes: []domain.ComponentNode{
				{Name: "harness", Nodes: []domain.Node{
					{ID: "HH@id@934", Type: "HH", Class: "CF", FunctionName: "routeHarness"},
					{ID: "HH@id@935", Type: "HH", Class: "CF", FunctionName: "routeHarnessFast", Properties: map[string]any{"owner": "team-a"}},
					{ID: "NET@id@10", Type: "NET", Class: "CF", FunctionName: "linkNet"},
				}},
				{Name: "power", Nodes: []domain.Node{
					{ID: "CF@id@20", Type: "CF", Class: "PWR", FunctionName: "routeHarness"},
				}},
			},
		},
		{
			TQName: "Capital.wiring",
			ComponentNodes: []domain.ComponentNode{
				{Name: "tx", Nodes: []domain.Node{
					{ID: "TX@id@1", Type: "TX", Class: "AUTH", FunctionName: "commit"},
					{ID: "HH@id@936", Type: "HH", Class: "XX"},
				}},
			},
		},
	}
}

type execFunc func(ctx context.Context, query string, bindings map[string]any) (*graph.Result, error)

func (f execFunc) Execute(ctx context.Context, query string, bindings map[string]any) (*graph.Result, error) {
	return f(ctx, query, bindings)
}

func failingExecutor() graph.Executor {
	return execFunc(func(context.Context, string, map[string]any) (*graph.Result, error) {
		return nil, errors.New("connection refused")
	})
}

type recordingObserver struct {
	mu        sync.Mutex
	outcomes  map[string][]string
	fallbacks map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: map[string][]string{}, fallbacks: map[string]int{}}
}

func (o *recordingObserver) ObserveAnalysis(kind, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[kind] = append(o.outcomes[kind], outcome)
}

func (o *recordingObserver) ObserveFallback(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks[kind]++
}

type notifierFunc func(ctx context.Context, a *domain.ImpactAssessment)

func (f notifierFunc) ImpactAssessed(ctx context.Context, a *domain.ImpactAssessment) { f(ctx, a) }

func newEngine(threads []domain.Thread, opts ...Option) *Engine {
	return NewEngine(store.NewMemoryStore(threads), DefaultConfig(), opts...)
}

func TestSimilarity(t *testing.T) {
	ctx := context.Background()
	obs := newRecordingObserver()
	e := newEngine(fixtureThreads(), WithObserver(obs))

	t.Run("Should resolve an id-only target and exclude it", func(t *testing.T) {
		results, err := e.Similarity(ctx, domain.NodePartial{ID: "HH@id@934"}, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "HH@id@935", results[0].NodeID)
		assert.Equal(t, domain.ImpactHigh, results[0].ImpactLevel)
		assert.Equal(t, "SCR", results[0].SourceCode)
		assert.Equal(t, "team-a", results[0].NodeProperties["owner"])
	})

	t.Run("Should score partial targets on the fields they carry", func(t *testing.T) {
		results, err := e.Similarity(ctx, domain.NodePartial{Type: "HH"}, 0.9)
		require.NoError(t, err)
		ids := make([]string, 0, len(results))
		for _, r := range results {
			ids = append(ids, r.NodeID)
			assert.Equal(t, 1.0, r.Similarity)
		}
		assert.Equal(t, []string{"HH@id@934", "HH@id@935", "HH@id@936"}, ids, "ties keep iteration order")
	})

	t.Run("Should reject empty targets", func(t *testing.T) {
		_, err := e.Similarity(ctx, domain.NodePartial{}, 0)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("Should report unknown ids as not found", func(t *testing.T) {
		_, err := e.Similarity(ctx, domain.NodePartial{ID: "ZZ@id@1"}, 0)
		assert.True(t, apperrors.IsNotFound(err))
	})

	assert.Equal(t, []string{"success", "success", "invalid", "not_found"}, obs.outcomes["similarity"])
}

func TestFindSimilarByPrefix(t *testing.T) {
	e := newEngine(fixtureThreads())

	results, err := e.FindSimilarByPrefix(context.Background(), domain.NodePartial{ID: "HH@id@934"})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var found *domain.SimilarityResult
	for i := range results {
		if results[i].NodeID == "HH@id@935" {
			found = &results[i]
		}
		assert.NotEqual(t, "HH@id@934", results[i].NodeID)
	}
	require.NotNil(t, found)
	assert.GreaterOrEqual(t, found.Similarity, 0.3)
	assert.GreaterOrEqual(t, found.ImpactLevel.Rank(), domain.ImpactLow.Rank())
	assert.Equal(t, "HH@id@935", results[0].NodeID)

	unknown, err := e.FindSimilarByPrefix(context.Background(), domain.NodePartial{ID: "TX@id@999"})
	require.NoError(t, err)
	require.Len(t, unknown, 1)
	assert.Equal(t, "TX@id@1", unknown[0].NodeID)
}

func TestAssessImpact(t *testing.T) {
	ctx := context.Background()
	var notified *domain.ImpactAssessment
	e := newEngine(fixtureThreads(), WithNotifier(notifierFunc(func(_ context.Context, a *domain.ImpactAssessment) {
		notified = a
	})))

	a, err := e.AssessImpact(ctx, "HH@id@934")
	require.NoError(t, err)
	assert.Equal(t, "HH@id@934", a.TargetNodeID)
	require.Len(t, a.AffectedNodes, 2)
	assert.Equal(t, "HH@id@935", a.AffectedNodes[0].NodeID)
	assert.Equal(t, "HH@id@936", a.AffectedNodes[1].NodeID)
	assert.Equal(t, map[string]int{"SCR": 1, "Capital": 1}, a.ImpactSummary.SourceBreakdown)
	assert.Equal(t, 1, a.ImpactSummary.SeverityBreakdown[domain.ImpactHigh])
	assert.Equal(t, 1, a.ImpactSummary.SeverityBreakdown[domain.ImpactLow])
	// (15 + 3) * 2/10
	assert.Equal(t, 4, a.ImpactSummary.EstimatedImpactScore)
	assert.Equal(t, []string{"Low impact: follow the standard change process"}, a.Recommendations)
	assert.Same(t, a, notified)

	byNumber, err := e.AssessImpact(ctx, "935")
	require.NoError(t, err)
	assert.Equal(t, "HH@id@935", byNumber.TargetNodeID)

	_, err = e.AssessImpact(ctx, "ZZ@id@1")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, apperrors.Message(err), "ZZ@id@1")
}

func TestEmptyAssessment(t *testing.T) {
	a := BuildAssessment("HH@id@934", rank(newEngine(nil).scorer, nil, domain.NodePartial{Type: "HH"}, store.Flatten(nil), 0.5, "HH@id@934"))
	assert.Equal(t, 0, a.ImpactSummary.TotalAffectedNodes)
	assert.Equal(t, 0, a.ImpactSummary.EstimatedImpactScore)
	assert.NotEmpty(t, a.Recommendations)
	assert.NotNil(t, a.AffectedNodes)

	_, err := newEngine(nil).AssessImpact(context.Background(), "HH@id@934")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestImpactScore(t *testing.T) {
	t.Run("Should be monotonic as severe nodes are added", func(t *testing.T) {
		severity := map[domain.ImpactLevel]int{domain.ImpactLow: 4}
		total := 4
		prev := ImpactScore(severity, total)
		for i := 0; i < 30; i++ {
			level := domain.ImpactHigh
			if i%2 == 0 {
				level = domain.ImpactCritical
			}
			severity[level]++
			total++
			score := ImpactScore(severity, total)
			assert.GreaterOrEqual(t, score, prev)
			assert.LessOrEqual(t, score, 100)
			prev = score
		}
		assert.Equal(t, 100, prev)
	})

	tests := []struct {
		name     string
		severity map[domain.ImpactLevel]int
		want     int
	}{
		{"empty", nil, 0},
		{"ten lows", map[domain.ImpactLevel]int{domain.ImpactLow: 10}, 30},
		{"multiplier capped at 1.5", map[domain.ImpactLevel]int{domain.ImpactLow: 20}, 90},
		{"five criticals at half breadth", map[domain.ImpactLevel]int{domain.ImpactCritical: 5}, 63},
		{"score clamped", map[domain.ImpactLevel]int{domain.ImpactCritical: 10}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := 0
			for _, n := range tt.severity {
				total += n
			}
			assert.Equal(t, tt.want, ImpactScore(tt.severity, total))
		})
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		score    int
		contains string
	}{
		{85, "maintenance window"},
		{80, "change management"},
		{60, "staging"},
		{30, "Monitor"},
		{29, "standard change process"},
	}
	for _, tt := range tests {
		recs := Recommendations(tt.score, domain.ImpactSummary{})
		assert.Contains(t, strings.Join(recs, "\n"), tt.contains, "score %d", tt.score)
	}

	recs := Recommendations(10, domain.ImpactSummary{
		SourceBreakdown:   map[string]int{"SCR": 1, "Capital": 1, "Teamcenter": 1},
		SeverityBreakdown: map[domain.ImpactLevel]int{domain.ImpactCritical: 2},
	})
	require.Len(t, recs, 3)
	assert.Contains(t, recs[1], "3 source systems")
	assert.Contains(t, recs[2], "rollback")
}

func TestDependencies(t *testing.T) {
	ctx := context.Background()

	t.Run("Should list co-located nodes without a graph", func(t *testing.T) {
		out, err := newEngine(fixtureThreads()).Dependencies(ctx, "HH@id@934")
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, out.Status)
		require.Len(t, out.Data, 3)
		assert.Equal(t, "HH@id@935", out.Data[0].NodeID)
		assert.Equal(t, "component", out.Data[0].Relation)
		assert.Equal(t, "component", out.Data[1].Relation)
		assert.Equal(t, "CF@id@20", out.Data[2].NodeID)
		assert.Equal(t, "thread", out.Data[2].Relation)
	})

	t.Run("Should degrade when the graph fails", func(t *testing.T) {
		obs := newRecordingObserver()
		out, err := newEngine(fixtureThreads(), WithExecutor(failingExecutor()), WithObserver(obs)).Dependencies(ctx, "HH@id@934")
		require.NoError(t, err)
		assert.Equal(t, StatusDegraded, out.Status)
		assert.NotEmpty(t, out.Reason)
		assert.Len(t, out.Data, 3)
		assert.Equal(t, 1, obs.fallbacks["dependencies"])
	})

	t.Run("Should prefer graph edges", func(t *testing.T) {
		ex := execFunc(func(_ context.Context, _ string, b map[string]any) (*graph.Result, error) {
			assert.Equal(t, "HH@id@934", b["nodeId"])
			return &graph.Result{Success: true, Data: []graph.Row{
				{"nodeId": "TX@id@1", "relation": "calls", "direction": "outgoing", "type": "TX", "sourceCode": "Capital"},
			}}, nil
		})
		out, err := newEngine(fixtureThreads(), WithExecutor(ex)).Dependencies(ctx, "HH@id@934")
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, out.Status)
		require.Len(t, out.Data, 1)
		assert.Equal(t, "calls", out.Data[0].Relation)
	})

	t.Run("Should report an isolated node as empty", func(t *testing.T) {
		threads := []domain.Thread{{TQName: "SCR_x", ComponentNodes: []domain.ComponentNode{{Nodes: []domain.Node{{ID: "HH@id@1"}}}}}}
		out, err := newEngine(threads).Dependencies(ctx, "HH@id@1")
		require.NoError(t, err)
		assert.Equal(t, StatusEmpty, out.Status)
	})

	t.Run("Should return not found for unknown nodes", func(t *testing.T) {
		_, err := newEngine(fixtureThreads()).Dependencies(ctx, "ZZ@id@1")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestOverview(t *testing.T) {
	ov, err := newEngine(fixtureThreads()).Overview(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, ov.Threads)
	assert.Equal(t, 6, ov.Nodes)
	assert.Equal(t, 4, ov.Sources["SCR"])
	assert.Equal(t, 3, ov.Types["HH"])

	scr, err := newEngine(fixtureThreads()).Overview(context.Background(), "Capital")
	require.NoError(t, err)
	assert.Equal(t, 2, scr.Nodes)
}
