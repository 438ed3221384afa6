package analysis

import (
	"context"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/graph"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/similarity"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

// LocalFinder is the property-based similarity search used when the graph
// database cannot answer.
type LocalFinder interface {
	Similarity(ctx context.Context, target domain.NodePartial, threshold float64) ([]domain.SimilarityResult, error)
}

// LocalAssessor is the store-backed impact assessment used as fallback.
type LocalAssessor interface {
	AssessImpact(ctx context.Context, nodeID string) (*domain.ImpactAssessment, error)
}

// GraphImpactAssessment extends an impact assessment with graph reach.
type GraphImpactAssessment struct {
	domain.ImpactAssessment
	DirectConnections   int      `json:"directConnections"`
	IndirectConnections int      `json:"indirectConnections"`
	ConnectedSystems    []string `json:"connectedSystems"`
	RiskScore           int      `json:"riskScore"`
}

// StructuralScorer ranks nodes by shared graph neighbors and assesses
// impact from graph reach. Every graph failure degrades to the local
// engine; none is returned to the caller.
type StructuralScorer struct {
	executor graph.Executor
	finder   LocalFinder
	assessor LocalAssessor
	observer Observer
	logger   *zap.Logger
}

// NewStructuralScorer creates a scorer. executor may be nil, in which case
// every call goes straight to the local fallback.
func NewStructuralScorer(executor graph.Executor, finder LocalFinder, assessor LocalAssessor, observer Observer, logger *zap.Logger) *StructuralScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructuralScorer{
		executor: executor,
		finder:   finder,
		assessor: assessor,
		observer: observer,
		logger:   logger,
	}
}

// FindSimilarByStructure returns up to 20 nodes sharing the most neighbors
// with nodeID. maxHops <= 0 means 2.
func (s *StructuralScorer) FindSimilarByStructure(ctx context.Context, nodeID string, maxHops int) Outcome[[]domain.SimilarityResult] {
	ctx, span := tracer.Start(ctx, "analysis.FindSimilarByStructure", trace.WithAttributes(
		attribute.String("node.id", nodeID),
		attribute.Int("max_hops", maxHops),
	))
	defer span.End()
	start := time.Now()

	neighbors, err := graph.SharedNeighbors(ctx, s.executor, nodeID, maxHops)
	if err == nil {
		results := make([]domain.SimilarityResult, 0, len(neighbors))
		for _, n := range neighbors {
			results = append(results, structuralResult(n))
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].SharedConnections > results[j].SharedConnections
		})
		s.observeStatus("structural", start, StatusSuccess)
		return Success(results)
	}

	span.RecordError(err)
	s.logger.Warn("Structural similarity unavailable, falling back to property scoring",
		zap.String("node_id", nodeID),
		zap.Error(err),
	)
	s.fallback("structural")

	local, lerr := s.finder.Similarity(ctx, domain.NodePartial{ID: nodeID}, 0)
	if lerr != nil {
		s.logger.Warn("Local similarity fallback failed", zap.String("node_id", nodeID), zap.Error(lerr))
		s.observeStatus("structural", start, StatusEmpty)
		return Empty[[]domain.SimilarityResult](apperrors.Message(lerr))
	}
	if local == nil {
		local = []domain.SimilarityResult{}
	}
	s.observeStatus("structural", start, StatusDegraded)
	return Degraded(local, apperrors.Message(err))
}

// AssessImpactByGraph scores impact from direct and two-hop reach and the
// number of systems touched. On graph failure it falls back to the local
// assessment; only an unresolvable node id is returned as an error.
func (s *StructuralScorer) AssessImpactByGraph(ctx context.Context, nodeID string) (Outcome[*GraphImpactAssessment], error) {
	ctx, span := tracer.Start(ctx, "analysis.AssessImpactByGraph", trace.WithAttributes(attribute.String("node.id", nodeID)))
	defer span.End()
	start := time.Now()

	assessment, err := s.graphAssessment(ctx, nodeID)
	if err == nil {
		s.observeStatus("graph_impact", start, StatusSuccess)
		return Success(assessment), nil
	}

	span.RecordError(err)
	s.logger.Warn("Graph impact assessment unavailable, falling back to local assessment",
		zap.String("node_id", nodeID),
		zap.Error(err),
	)
	s.fallback("graph_impact")

	local, lerr := s.assessor.AssessImpact(ctx, nodeID)
	if lerr != nil {
		s.observeStatus("graph_impact", start, StatusEmpty)
		return Empty[*GraphImpactAssessment](apperrors.Message(lerr)), lerr
	}
	s.observeStatus("graph_impact", start, StatusDegraded)
	return Degraded(&GraphImpactAssessment{
		ImpactAssessment: *local,
		ConnectedSystems: []string{},
		RiskScore:        local.ImpactSummary.EstimatedImpactScore,
	}, apperrors.Message(err)), nil
}

func (s *StructuralScorer) graphAssessment(ctx context.Context, nodeID string) (*GraphImpactAssessment, error) {
	conn, err := graph.ConnectionCounts(ctx, s.executor, nodeID)
	if err != nil {
		return nil, err
	}
	neighbors, err := graph.SharedNeighbors(ctx, s.executor, nodeID, 2)
	if err != nil {
		return nil, err
	}

	affected := make([]domain.SimilarityResult, 0, len(neighbors))
	for _, n := range neighbors {
		affected = append(affected, structuralResult(n))
	}

	risk := RiskScore(conn.Direct, conn.Indirect, len(conn.Systems))
	summary := Summarize(affected)
	summary.EstimatedImpactScore = risk

	systems := conn.Systems
	if systems == nil {
		systems = []string{}
	}
	return &GraphImpactAssessment{
		ImpactAssessment: domain.ImpactAssessment{
			TargetNodeID:    nodeID,
			AffectedNodes:   affected,
			ImpactSummary:   summary,
			Recommendations: Recommendations(risk, summary),
		},
		DirectConnections:   conn.Direct,
		IndirectConnections: conn.Indirect,
		ConnectedSystems:    systems,
		RiskScore:           risk,
	}, nil
}

// RiskScore is 5 per direct connection, 2 per indirect one and 10 per
// connected system, capped at 100.
func RiskScore(direct, indirect, systems int) int {
	return int(math.Min(100, float64(5*direct+2*indirect+10*systems)))
}

func structuralResult(n graph.Neighbor) domain.SimilarityResult {
	sim := 0.0
	if n.TotalConnections > 0 {
		sim = similarity.Round(float64(n.SharedConnections)/float64(n.TotalConnections), 4)
	}
	return domain.SimilarityResult{
		NodeID:            n.NodeID,
		Similarity:        math.Min(1, sim),
		ImpactLevel:       similarity.ConnectionLevel(n.TotalConnections, n.SharedConnections),
		SourceCode:        n.SourceCode,
		RelationshipCount: n.TotalConnections,
		SharedConnections: n.SharedConnections,
		NodeProperties:    n.Properties,
	}
}

func (s *StructuralScorer) observeStatus(kind string, start time.Time, status Status) {
	if s.observer != nil {
		s.observer.ObserveAnalysis(kind, string(status), time.Since(start))
	}
}

func (s *StructuralScorer) fallback(kind string) {
	if s.observer != nil {
		s.observer.ObserveFallback(kind)
	}
}
