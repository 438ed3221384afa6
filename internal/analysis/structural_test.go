package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/graph"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

type countingFinder struct {
	inner LocalFinder
	calls int
	last  domain.NodePartial
}

func (c *countingFinder) Similarity(ctx context.Context, target domain.NodePartial, threshold float64) ([]domain.SimilarityResult, error) {
	c.calls++
	c.last = target
	return c.inner.Similarity(ctx, target, threshold)
}

// graphFixture answers the connection-count and shared-neighbor traversals.
func graphFixture() graph.Executor {
	return execFunc(func(_ context.Context, query string, _ map[string]any) (*graph.Result, error) {
		if strings.Contains(query, "'direct'") {
			return &graph.Result{Success: true, Data: []graph.Row{{
				"direct": float64(3), "indirect": float64(10), "systems": []any{"SCR", "Capital"},
			}}}, nil
		}
		return &graph.Result{Success: true, Data: []graph.Row{
			{"nodeId": "HH@id@935", "type": "HH", "sourceCode": "SCR", "sharedConnections": float64(2), "totalConnections": float64(4)},
			{"nodeId": "NET@id@10", "type": "NET", "sourceCode": "SCR", "sharedConnections": float64(6), "totalConnections": float64(12)},
			{"nodeId": "TX@id@1", "type": "TX", "sourceCode": "Capital", "sharedConnections": float64(0), "totalConnections": float64(0)},
		}}, nil
	})
}

func TestFindSimilarByStructure(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(fixtureThreads())

	t.Run("Should rank graph neighbors by shared connections", func(t *testing.T) {
		finder := &countingFinder{inner: engine}
		s := NewStructuralScorer(graphFixture(), finder, engine, nil, nil)

		out := s.FindSimilarByStructure(ctx, "HH@id@934", 0)
		assert.Equal(t, StatusSuccess, out.Status)
		require.Len(t, out.Data, 3)
		assert.Equal(t, "NET@id@10", out.Data[0].NodeID)
		assert.Equal(t, 0.5, out.Data[0].Similarity)
		// 12 + 2*6
		assert.Equal(t, domain.ImpactCritical, out.Data[0].ImpactLevel)
		// 4 + 2*2
		assert.Equal(t, domain.ImpactMedium, out.Data[1].ImpactLevel)
		assert.Equal(t, 0.0, out.Data[2].Similarity)
		assert.Equal(t, domain.ImpactLow, out.Data[2].ImpactLevel)
		assert.Zero(t, finder.calls)
	})

	t.Run("Should fall back to local scoring exactly once when the graph fails", func(t *testing.T) {
		finder := &countingFinder{inner: engine}
		obs := newRecordingObserver()
		s := NewStructuralScorer(failingExecutor(), finder, engine, obs, nil)

		out := s.FindSimilarByStructure(ctx, "HH@id@934", 2)
		assert.Equal(t, StatusDegraded, out.Status)
		assert.NotEmpty(t, out.Reason)
		require.Len(t, out.Data, 1)
		assert.Equal(t, "HH@id@935", out.Data[0].NodeID)
		assert.Equal(t, 1, finder.calls)
		assert.Equal(t, "HH@id@934", finder.last.ID)
		assert.Equal(t, 1, obs.fallbacks["structural"])
	})

	t.Run("Should fall back without a configured executor", func(t *testing.T) {
		finder := &countingFinder{inner: engine}
		out := NewStructuralScorer(nil, finder, engine, nil, nil).FindSimilarByStructure(ctx, "HH@id@934", 2)
		assert.Equal(t, StatusDegraded, out.Status)
		assert.Equal(t, 1, finder.calls)
	})

	t.Run("Should fall back on malformed rows", func(t *testing.T) {
		ex := execFunc(func(context.Context, string, map[string]any) (*graph.Result, error) {
			return &graph.Result{Success: true, Data: []graph.Row{{"unexpected": true}}}, nil
		})
		finder := &countingFinder{inner: engine}
		out := NewStructuralScorer(ex, finder, engine, nil, nil).FindSimilarByStructure(ctx, "HH@id@934", 2)
		assert.Equal(t, StatusDegraded, out.Status)
		assert.Equal(t, 1, finder.calls)
	})

	t.Run("Should return an empty outcome when the fallback finds nothing", func(t *testing.T) {
		empty := newEngine(nil)
		finder := &countingFinder{inner: empty}
		out := NewStructuralScorer(failingExecutor(), finder, empty, nil, nil).FindSimilarByStructure(ctx, "HH@id@934", 2)
		assert.Equal(t, StatusEmpty, out.Status)
		assert.Empty(t, out.Data)
		assert.Equal(t, 1, finder.calls)
	})
}

func TestAssessImpactByGraph(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(fixtureThreads())

	t.Run("Should score graph reach", func(t *testing.T) {
		out, err := NewStructuralScorer(graphFixture(), engine, engine, nil, nil).AssessImpactByGraph(ctx, "HH@id@934")
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, out.Status)
		a := out.Data
		// 5*3 + 2*10 + 10*2
		assert.Equal(t, 55, a.RiskScore)
		assert.Equal(t, 55, a.ImpactSummary.EstimatedImpactScore)
		assert.Equal(t, []string{"SCR", "Capital"}, a.ConnectedSystems)
		assert.Equal(t, 3, a.ImpactSummary.TotalAffectedNodes)
		assert.Contains(t, strings.Join(a.Recommendations, "\n"), "Monitor")
	})

	t.Run("Should degrade to the local assessment", func(t *testing.T) {
		out, err := NewStructuralScorer(failingExecutor(), engine, engine, nil, nil).AssessImpactByGraph(ctx, "HH@id@934")
		require.NoError(t, err)
		assert.Equal(t, StatusDegraded, out.Status)
		assert.Equal(t, 4, out.Data.RiskScore)
		assert.Len(t, out.Data.AffectedNodes, 2)
	})

	t.Run("Should surface unknown nodes after fallback", func(t *testing.T) {
		out, err := NewStructuralScorer(failingExecutor(), engine, engine, nil, nil).AssessImpactByGraph(ctx, "ZZ@id@1")
		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, StatusEmpty, out.Status)
	})
}

func TestRiskScore(t *testing.T) {
	assert.Equal(t, 0, RiskScore(0, 0, 0))
	assert.Equal(t, 37, RiskScore(3, 6, 1))
	assert.Equal(t, 100, RiskScore(20, 20, 5))
}
