// Package analysis implements similarity search, impact assessment and
// dependency lookup over the node store, with optional graph and schema
// enrichment.
package analysis

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/graph"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/schema"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/similarity"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/store"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

var tracer = otel.Tracer("github.com/doubletgeekedup/int-dashboard-sub000/internal/analysis")

// Config holds the engine thresholds.
type Config struct {
	SimilarityThreshold float64
	ImpactThreshold     float64
	Weights             similarity.Weights
	Sources             []domain.Source
}

// DefaultConfig returns the standard thresholds: 0.7 for interactive
// similarity and a looser 0.5 for impact candidates.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.7,
		ImpactThreshold:     0.5,
		Weights:             similarity.DefaultWeights(),
		Sources:             domain.DefaultSources(),
	}
}

// Observer records analysis metrics.
type Observer interface {
	ObserveAnalysis(kind, outcome string, duration time.Duration)
	ObserveFallback(kind string)
}

// Notifier is told about every completed impact assessment.
type Notifier interface {
	ImpactAssessed(ctx context.Context, assessment *domain.ImpactAssessment)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSchema enables schema enrichment of similarity results.
func WithSchema(cache *schema.Cache) Option { return func(e *Engine) { e.schema = cache } }

// WithExecutor enables graph-backed dependency lookup.
func WithExecutor(ex graph.Executor) Option { return func(e *Engine) { e.executor = ex } }

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option { return func(e *Engine) { e.observer = o } }

// WithNotifier sets the impact notifier.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// Engine answers similarity, impact and dependency questions from the node store.
type Engine struct {
	store    store.NodeStore
	scorer   *similarity.Scorer
	cfg      Config
	schema   *schema.Cache
	executor graph.Executor
	observer Observer
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates an engine over st.
func NewEngine(st store.NodeStore, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.ImpactThreshold <= 0 {
		cfg.ImpactThreshold = def.ImpactThreshold
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = def.Sources
	}
	e := &Engine{
		store:  st,
		scorer: similarity.NewScorer(cfg.Weights),
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sources returns the configured sources of truth.
func (e *Engine) Sources() []domain.Source {
	return e.cfg.Sources
}

// Similarity returns every node scoring at least threshold against target,
// most similar first. A target carrying only an id is resolved from the
// store first; threshold <= 0 selects the configured default.
func (e *Engine) Similarity(ctx context.Context, target domain.NodePartial, threshold float64) (results []domain.SimilarityResult, err error) {
	ctx, span := tracer.Start(ctx, "analysis.Similarity", trace.WithAttributes(
		attribute.String("target.id", target.ID),
		attribute.String("target.type", target.Type),
	))
	defer span.End()
	defer e.observe("similarity", time.Now(), func() string { return outcomeOf(len(results), err) })

	if target.IsEmpty() {
		return nil, apperrors.NewValidation("target must specify at least one of id, type, class, functionName or description")
	}
	if threshold <= 0 {
		threshold = e.cfg.SimilarityThreshold
	}

	exclude := target.ID
	if onlyID(target) {
		node, err := e.resolve(ctx, target.ID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		target = node.Partial()
		exclude = node.Key()
	}

	threads, err := e.store.ListThreads(ctx, "")
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.NewInternal("failed to read node store", err)
	}

	results = rank(e.scorer, e.schema.Get(ctx), target, store.Flatten(threads), threshold, exclude)
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// FindSimilarByPrefix runs the permissive prefix matcher used by the chat
// interface. Blank target fields are filled from the stored node when the
// id resolves; an unknown id still matches on its prefix.
func (e *Engine) FindSimilarByPrefix(ctx context.Context, target domain.NodePartial) ([]domain.SimilarityResult, error) {
	ctx, span := tracer.Start(ctx, "analysis.FindSimilarByPrefix")
	defer span.End()

	exclude := target.ID
	if target.ID != "" {
		node, err := e.resolve(ctx, target.ID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		if node != nil {
			target = fillBlank(target, node.Partial())
			exclude = node.Key()
		}
	}

	threads, err := e.store.ListThreads(ctx, "")
	if err != nil {
		return nil, apperrors.NewInternal("failed to read node store", err)
	}

	var results []domain.SimilarityResult
	for _, p := range store.Flatten(threads) {
		key := p.Node.Key()
		if key == "" || key == exclude {
			continue
		}
		ok, score := similarity.PrefixMatch(target, p.Node)
		if !ok {
			continue
		}
		results = append(results, domain.SimilarityResult{
			NodeID:         key,
			Similarity:     score,
			ImpactLevel:    similarity.Level(score, p.Node.Type),
			SourceCode:     p.SourceCode,
			NodeProperties: p.Node.Properties,
		})
	}
	sortBySimilarity(results)
	return results, nil
}

// AssessImpact estimates the blast radius of changing nodeID.
func (e *Engine) AssessImpact(ctx context.Context, nodeID string) (assessment *domain.ImpactAssessment, err error) {
	ctx, span := tracer.Start(ctx, "analysis.AssessImpact", trace.WithAttributes(attribute.String("node.id", nodeID)))
	defer span.End()
	defer e.observe("impact", time.Now(), func() string {
		if assessment == nil {
			return outcomeOf(0, err)
		}
		return string(StatusSuccess)
	})

	target, err := e.resolve(ctx, nodeID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	threads, err := e.store.ListThreads(ctx, "")
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.NewInternal("failed to read node store", err)
	}

	affected := rank(e.scorer, e.schema.Get(ctx), target.Partial(), store.Flatten(threads), e.cfg.ImpactThreshold, target.Key())
	assessment = BuildAssessment(target.Key(), affected)

	span.SetAttributes(
		attribute.Int("impact.affected", assessment.ImpactSummary.TotalAffectedNodes),
		attribute.Int("impact.score", assessment.ImpactSummary.EstimatedImpactScore),
	)
	e.logger.Info("Impact assessed",
		zap.String("node_id", target.Key()),
		zap.Int("affected", assessment.ImpactSummary.TotalAffectedNodes),
		zap.Int("score", assessment.ImpactSummary.EstimatedImpactScore),
	)
	if e.notifier != nil {
		e.notifier.ImpactAssessed(ctx, assessment)
	}
	return assessment, nil
}

// BuildAssessment assembles the summary and recommendations for a ranked
// list of affected nodes.
func BuildAssessment(targetID string, affected []domain.SimilarityResult) *domain.ImpactAssessment {
	if affected == nil {
		affected = []domain.SimilarityResult{}
	}
	summary := Summarize(affected)
	return &domain.ImpactAssessment{
		TargetNodeID:    targetID,
		AffectedNodes:   affected,
		ImpactSummary:   summary,
		Recommendations: Recommendations(summary.EstimatedImpactScore, summary),
	}
}

// Dependencies lists what nodeID is connected to. The graph database is
// asked first; without it, or when it fails, nodes sharing the target's
// component or thread are reported instead.
func (e *Engine) Dependencies(ctx context.Context, nodeID string) (Outcome[[]domain.DependencyRecord], error) {
	ctx, span := tracer.Start(ctx, "analysis.Dependencies", trace.WithAttributes(attribute.String("node.id", nodeID)))
	defer span.End()
	start := time.Now()

	target, err := e.resolve(ctx, nodeID)
	if err != nil {
		span.RecordError(err)
		return Outcome[[]domain.DependencyRecord]{}, err
	}

	var reason string
	if e.executor != nil {
		deps, err := graph.Dependencies(ctx, e.executor, target.Key())
		if err == nil {
			out := Success(deps)
			e.observeStatus("dependencies", start, out.Status)
			return out, nil
		}
		reason = apperrors.Message(err)
		e.logger.Warn("Graph dependency lookup failed, using store membership",
			zap.String("node_id", target.Key()),
			zap.Error(err),
		)
		span.RecordError(err)
		e.fallback("dependencies")
	}

	threads, err := e.store.ListThreads(ctx, "")
	if err != nil {
		return Outcome[[]domain.DependencyRecord]{}, apperrors.NewInternal("failed to read node store", err)
	}
	local := coMembers(threads, target)

	var out Outcome[[]domain.DependencyRecord]
	switch {
	case reason != "":
		out = Degraded(local, reason)
	case len(local) == 0:
		out = Empty[[]domain.DependencyRecord]("node shares no component or thread with other nodes")
	default:
		out = Success(local)
	}
	e.observeStatus("dependencies", start, out.Status)
	return out, nil
}

// Overview counts the stored threads and nodes per source and per type.
type Overview struct {
	Threads int            `json:"threads"`
	Nodes   int            `json:"nodes"`
	Sources map[string]int `json:"sources"`
	Types   map[string]int `json:"types"`
}

// Overview summarizes the threads whose tqName starts with prefix.
func (e *Engine) Overview(ctx context.Context, prefix string) (*Overview, error) {
	threads, err := e.store.ListThreads(ctx, prefix)
	if err != nil {
		return nil, apperrors.NewInternal("failed to read node store", err)
	}
	ov := &Overview{
		Threads: len(threads),
		Sources: make(map[string]int),
		Types:   make(map[string]int),
	}
	for _, p := range store.Flatten(threads) {
		ov.Nodes++
		ov.Sources[p.SourceCode]++
		if p.Node.Type != "" {
			ov.Types[p.Node.Type]++
		}
	}
	return ov, nil
}

// Node resolves a single node by id, nodeKey or bare numeric suffix.
func (e *Engine) Node(ctx context.Context, nodeID string) (*domain.Node, error) {
	return e.resolve(ctx, nodeID)
}

// Threads lists stored threads by tqName prefix.
func (e *Engine) Threads(ctx context.Context, prefix string) ([]domain.Thread, error) {
	threads, err := e.store.ListThreads(ctx, prefix)
	if err != nil {
		return nil, apperrors.NewInternal("failed to read node store", err)
	}
	return threads, nil
}

// resolve looks id up by id or nodeKey. A bare number that matches neither
// is tried as the numeric suffix of a <TYPE>@id@<n> id.
func (e *Engine) resolve(ctx context.Context, id string) (*domain.Node, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidation("node id is required")
	}
	node, err := e.store.FindNodeByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternal("failed to read node store", err)
	}
	if node != nil {
		return node, nil
	}
	if isDigits(id) {
		threads, err := e.store.ListThreads(ctx, "")
		if err != nil {
			return nil, apperrors.NewInternal("failed to read node store", err)
		}
		suffix := "@id@" + id
		for _, p := range store.Flatten(threads) {
			if strings.HasSuffix(p.Node.ID, suffix) {
				n := p.Node
				return &n, nil
			}
		}
	}
	return nil, apperrors.NewNodeNotFound(id)
}

func (e *Engine) observe(kind string, start time.Time, outcome func() string) {
	if e.observer != nil {
		e.observer.ObserveAnalysis(kind, outcome(), time.Since(start))
	}
}

func (e *Engine) observeStatus(kind string, start time.Time, status Status) {
	if e.observer != nil {
		e.observer.ObserveAnalysis(kind, string(status), time.Since(start))
	}
}

func (e *Engine) fallback(kind string) {
	if e.observer != nil {
		e.observer.ObserveFallback(kind)
	}
}

// rank scores every placed node against target and keeps those at or
// above threshold. The sort is stable so equal scores keep thread,
// component and node order.
func rank(scorer *similarity.Scorer, doc *schema.Doc, target domain.NodePartial, placed []domain.PlacedNode, threshold float64, exclude string) []domain.SimilarityResult {
	var results []domain.SimilarityResult
	for _, p := range placed {
		key := p.Node.Key()
		if key == "" || (exclude != "" && key == exclude) {
			continue
		}
		score := scorer.Score(target, p.Node)
		if score < threshold {
			continue
		}
		r := domain.SimilarityResult{
			NodeID:         key,
			Similarity:     score,
			ImpactLevel:    similarity.Level(score, p.Node.Type),
			SourceCode:     p.SourceCode,
			NodeProperties: p.Node.Properties,
		}
		results = append(results, schema.Enrich(doc, p.Node, r))
	}
	sortBySimilarity(results)
	return results
}

func sortBySimilarity(results []domain.SimilarityResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

// coMembers reports the nodes sharing the first component or thread that
// holds target.
func coMembers(threads []domain.Thread, target *domain.Node) []domain.DependencyRecord {
	key := target.Key()
	for _, t := range threads {
		for ci, c := range t.ComponentNodes {
			for _, n := range c.Nodes {
				if !n.Matches(key) {
					continue
				}
				return peersOf(t, ci, key)
			}
		}
	}
	return []domain.DependencyRecord{}
}

func peersOf(t domain.Thread, component int, key string) []domain.DependencyRecord {
	out := []domain.DependencyRecord{}
	src := t.SourceCode()
	for ci, c := range t.ComponentNodes {
		relation := "thread"
		if ci == component {
			relation = "component"
		}
		for _, n := range c.Nodes {
			k := n.Key()
			if k == "" || k == key {
				continue
			}
			out = append(out, domain.DependencyRecord{
				NodeID:     k,
				Relation:   relation,
				Direction:  domain.DirectionPeer,
				SourceCode: src,
				Type:       n.Type,
				Properties: n.Properties,
			})
		}
	}
	// same-component peers first
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relation == "component" && out[j].Relation != "component"
	})
	return out
}

func onlyID(p domain.NodePartial) bool {
	return p.ID != "" && p.Type == "" && p.Class == "" && p.FunctionName == "" && p.Description == ""
}

func fillBlank(p, from domain.NodePartial) domain.NodePartial {
	if p.Type == "" {
		p.Type = from.Type
	}
	if p.Class == "" {
		p.Class = from.Class
	}
	if p.FunctionName == "" {
		p.FunctionName = from.FunctionName
	}
	if p.Description == "" {
		p.Description = from.Description
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// outcomeOf labels a call for metrics.
func outcomeOf(n int, err error) string {
	switch {
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsValidation(err):
		return "invalid"
	case err != nil:
		return "error"
	case n == 0:
		return string(StatusEmpty)
	default:
		return string(StatusSuccess)
	}
}
