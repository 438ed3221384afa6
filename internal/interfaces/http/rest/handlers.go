package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/analysis"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/chat"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/schema"
	"github.com/doubletgeekedup/int-dashboard-sub000/pkg/api"
)

const maxBodyBytes = 1 << 20

// Analyzer is the local analysis surface served over HTTP.
type Analyzer interface {
	Similarity(ctx context.Context, target domain.NodePartial, threshold float64) ([]domain.SimilarityResult, error)
	AssessImpact(ctx context.Context, nodeID string) (*domain.ImpactAssessment, error)
	Dependencies(ctx context.Context, nodeID string) (analysis.Outcome[[]domain.DependencyRecord], error)
	Node(ctx context.Context, nodeID string) (*domain.Node, error)
	Threads(ctx context.Context, prefix string) ([]domain.Thread, error)
	Sources() []domain.Source
}

// GraphAnalyzer is the graph-backed analysis surface.
type GraphAnalyzer interface {
	FindSimilarByStructure(ctx context.Context, nodeID string, maxHops int) analysis.Outcome[[]domain.SimilarityResult]
	AssessImpactByGraph(ctx context.Context, nodeID string) (analysis.Outcome[*analysis.GraphImpactAssessment], error)
}

// Interpreter answers free-text questions.
type Interpreter interface {
	Interpret(ctx context.Context, message, sourceCode string) (*chat.ChatResponse, error)
}

// SchemaProvider returns the current schema document, or nil.
type SchemaProvider interface {
	Get(ctx context.Context) *schema.Doc
}

// Handlers serves the analysis API.
type Handlers struct {
	analyzer    Analyzer
	graph       GraphAnalyzer
	interpreter Interpreter
	schema      SchemaProvider
	validator   *requestValidator
	logger      *zap.Logger
}

// NewHandlers creates the API handlers. schema may be nil.
func NewHandlers(analyzer Analyzer, graph GraphAnalyzer, interpreter Interpreter, schema SchemaProvider, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		analyzer:    analyzer,
		graph:       graph,
		interpreter: interpreter,
		schema:      schema,
		validator:   newRequestValidator(),
		logger:      logger,
	}
}

// ListSources handles GET /api/v1/sources
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	threads, err := h.analyzer.Threads(r.Context(), "")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	threadCounts := make(map[string]int)
	nodeCounts := make(map[string]int)
	for _, t := range threads {
		code := t.SourceCode()
		threadCounts[code]++
		nodeCounts[code] += t.NodeCount()
	}

	sources := h.analyzer.Sources()
	out := make([]api.SourceSummary, 0, len(sources))
	for _, s := range sources {
		out = append(out, api.SourceSummary{Source: s, Threads: threadCounts[s.Code], Nodes: nodeCounts[s.Code]})
	}
	api.Success(w, http.StatusOK, out)
}

// ListThreads handles GET /api/v1/threads?prefix=
func (h *Handlers) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.analyzer.Threads(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if threads == nil {
		threads = []domain.Thread{}
	}
	api.Success(w, http.StatusOK, api.ThreadsResponse{Threads: threads, Count: len(threads)})
}

// GetNode handles GET /api/v1/nodes/{nodeID}
func (h *Handlers) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.analyzer.Node(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, node)
}

// Similarity handles POST /api/v1/similarity
func (h *Handlers) Similarity(w http.ResponseWriter, r *http.Request) {
	var req api.SimilarityRequest
	if !h.decode(w, r, &req) {
		return
	}
	results, err := h.analyzer.Similarity(r.Context(), req.Target, req.Threshold)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.SimilarityResponse{Results: results, Count: len(results), Threshold: req.Threshold})
}

// StructuralSimilarity handles GET /api/v1/nodes/{nodeID}/similar/structural?maxHops=
func (h *Handlers) StructuralSimilarity(w http.ResponseWriter, r *http.Request) {
	maxHops := 0
	if raw := r.URL.Query().Get("maxHops"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 5 {
			api.Error(w, http.StatusBadRequest, "maxHops must be an integer between 1 and 5")
			return
		}
		maxHops = n
	}
	api.Success(w, http.StatusOK, h.graph.FindSimilarByStructure(r.Context(), chi.URLParam(r, "nodeID"), maxHops))
}

// Impact handles GET /api/v1/nodes/{nodeID}/impact
func (h *Handlers) Impact(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.analyzer.AssessImpact(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, assessment)
}

// GraphImpact handles GET /api/v1/nodes/{nodeID}/impact/graph
func (h *Handlers) GraphImpact(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.graph.AssessImpactByGraph(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, outcome)
}

// Dependencies handles GET /api/v1/nodes/{nodeID}/dependencies
func (h *Handlers) Dependencies(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.analyzer.Dependencies(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, outcome)
}

// Chat handles POST /api/v1/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.interpreter.Interpret(r.Context(), req.Message, req.SourceCode)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, resp)
}

// Schema handles GET /api/v1/schema
func (h *Handlers) Schema(w http.ResponseWriter, r *http.Request) {
	var doc *schema.Doc
	if h.schema != nil {
		doc = h.schema.Get(r.Context())
	}
	api.Success(w, http.StatusOK, doc)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validator.Validate(dst); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if status := api.FromError(w, err); status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
}
