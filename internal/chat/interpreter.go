package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/analysis"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

// Response statuses beyond the analysis outcome statuses.
const (
	StatusNeedsInput = "needs_input"
	StatusNotFound   = "not_found"
	StatusSynthetic  = "synthetic"
)

const maxListed = 10

// ChatResponse is the answer to one message.
type ChatResponse struct {
	Response     string `json:"response"`
	Data         any    `json:"data,omitempty"`
	AnalysisType Intent `json:"analysisType"`
	Synthetic    bool   `json:"synthetic"`
	Status       string `json:"status"`
}

// Analyzer is the analysis surface the interpreter routes to.
type Analyzer interface {
	FindSimilarByPrefix(ctx context.Context, target domain.NodePartial) ([]domain.SimilarityResult, error)
	AssessImpact(ctx context.Context, nodeID string) (*domain.ImpactAssessment, error)
	Dependencies(ctx context.Context, nodeID string) (analysis.Outcome[[]domain.DependencyRecord], error)
	Overview(ctx context.Context, prefix string) (*analysis.Overview, error)
	Node(ctx context.Context, nodeID string) (*domain.Node, error)
	Threads(ctx context.Context, prefix string) ([]domain.Thread, error)
	Sources() []domain.Source
}

// Probe reports the state of one backing component for status answers.
type Probe func(ctx context.Context) (component, state string)

type handler func(ctx context.Context, req request) (*ChatResponse, error)

type request struct {
	message    string
	sourceCode string
	params     Params
}

// Interpreter classifies messages and answers them from the analyzer.
type Interpreter struct {
	analyzer Analyzer
	probes   []Probe
	logger   *zap.Logger
	handlers map[Intent]handler
}

// NewInterpreter creates an interpreter over analyzer.
func NewInterpreter(analyzer Analyzer, logger *zap.Logger, probes ...Probe) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &Interpreter{analyzer: analyzer, probes: probes, logger: logger}
	in.handlers = map[Intent]handler{
		IntentSimilarity:   in.similar,
		IntentImpact:       in.impact,
		IntentDependency:   in.dependencies,
		IntentNodeSearch:   in.search,
		IntentNodeCount:    in.count,
		IntentNodeDescribe: in.describe,
		IntentSystemStatus: in.status,
		IntentListSources:  in.listSources,
		IntentHelp:         in.help,
	}
	return in
}

// Interpret answers message. sourceCode, when set, scopes thread-based
// answers to one source. Missing parameters and unknown nodes are answered
// with guidance text; only store failures are returned as errors.
func (in *Interpreter) Interpret(ctx context.Context, message, sourceCode string) (*ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return in.help(ctx, request{})
	}

	intent := Classify(message)
	req := request{message: message, sourceCode: sourceCode, params: Extract(message)}
	if req.sourceCode == "" {
		req.sourceCode = req.params.SourceCode
	}

	in.logger.Debug("Chat message classified",
		zap.String("intent", string(intent)),
		zap.String("node_id", req.params.NodeID),
	)

	resp, err := in.handlers[intent](ctx, req)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &ChatResponse{
				Response:     fmt.Sprintf("%s. Check the id or try \"find nodes type: HH\" to browse.", capitalize(apperrors.Message(err))),
				AnalysisType: intent,
				Status:       StatusNotFound,
			}, nil
		}
		if apperrors.IsMalformedInput(err) {
			return &ChatResponse{Response: apperrors.Message(err), AnalysisType: intent, Status: StatusNeedsInput}, nil
		}
		in.logger.Error("Chat analysis failed", zap.String("intent", string(intent)), zap.Error(err))
		return nil, err
	}
	resp.AnalysisType = intent
	return resp, nil
}

func (in *Interpreter) storeEmpty(ctx context.Context) (bool, error) {
	ov, err := in.analyzer.Overview(ctx, "")
	if err != nil {
		return false, err
	}
	return ov.Nodes == 0, nil
}

func (in *Interpreter) similar(ctx context.Context, req request) (*ChatResponse, error) {
	p := req.params
	target := domain.NodePartial{ID: p.NodeID, Type: p.Type, Class: p.Class, FunctionName: p.FunctionName}
	if target.IsEmpty() {
		return nil, apperrors.NewMalformedInput(`Which node should I compare? Try "Find similar nodes to HH@id@934" or "similar nodes type: HH class: CF".`)
	}

	empty, err := in.storeEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		results := demoSimilar(p)
		return synthetic(formatSimilar(describeTarget(target), results), results), nil
	}

	results, err := in.analyzer.FindSimilarByPrefix(ctx, target)
	if err != nil {
		return nil, err
	}
	if p.Threshold > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Similarity >= p.Threshold {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	if len(results) == 0 {
		return &ChatResponse{
			Response: fmt.Sprintf("No nodes similar to %s were found.", describeTarget(target)),
			Data:     []domain.SimilarityResult{},
			Status:   string(analysis.StatusEmpty),
		}, nil
	}
	return &ChatResponse{
		Response: formatSimilar(describeTarget(target), results),
		Data:     results,
		Status:   string(analysis.StatusSuccess),
	}, nil
}

func (in *Interpreter) impact(ctx context.Context, req request) (*ChatResponse, error) {
	id := req.params.NodeID
	if id == "" {
		return nil, apperrors.NewMalformedInput(`Which node should I assess? Try "What's the impact of changing HH@id@934?".`)
	}
	a, err := in.analyzer.AssessImpact(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{
		Response: formatImpact(a),
		Data:     a,
		Status:   string(analysis.StatusSuccess),
	}, nil
}

func (in *Interpreter) dependencies(ctx context.Context, req request) (*ChatResponse, error) {
	id := req.params.NodeID
	if id == "" {
		return nil, apperrors.NewMalformedInput(`Which node's dependencies do you need? Try "What depends on HH@id@934?" or "dependencies of HH@id@934".`)
	}

	empty, err := in.storeEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		deps := demoDependencies()
		return synthetic(formatDependencies(id, deps, ""), deps), nil
	}

	out, err := in.analyzer.Dependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	note := ""
	if out.Status == analysis.StatusDegraded {
		note = "Graph unavailable; showing nodes that share a component or thread."
	}
	if out.Data == nil {
		out.Data = []domain.DependencyRecord{}
	}
	return &ChatResponse{
		Response: formatDependencies(id, out.Data, note),
		Data:     out.Data,
		Status:   string(out.Status),
	}, nil
}

func (in *Interpreter) search(ctx context.Context, req request) (*ChatResponse, error) {
	p := req.params
	term := ""
	if p.NodeID == "" && p.Type == "" && p.Class == "" && p.FunctionName == "" {
		term = strings.ToLower(searchTerm(req.message))
	}

	threads, err := in.analyzer.Threads(ctx, req.sourceCode)
	if err != nil {
		return nil, err
	}

	var matches []searchHit
	for _, t := range threads {
		for _, c := range t.ComponentNodes {
			for _, n := range c.Nodes {
				if n.Key() == "" || !matchesSearch(n, p, term) {
					continue
				}
				matches = append(matches, searchHit{Node: n, TQName: t.TQName, SourceCode: t.SourceCode()})
			}
		}
	}

	if len(matches) == 0 {
		return &ChatResponse{
			Response: "No nodes matched your search.",
			Data:     []searchHit{},
			Status:   string(analysis.StatusEmpty),
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching node(s):\n", len(matches))
	for i, m := range matches {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more", len(matches)-maxListed)
			break
		}
		fmt.Fprintf(&b, "• %s (type %s, %s, %s)\n", m.Node.Key(), orDash(m.Node.Type), m.SourceCode, m.TQName)
	}
	return &ChatResponse{Response: strings.TrimRight(b.String(), "\n"), Data: matches, Status: string(analysis.StatusSuccess)}, nil
}

type searchHit struct {
	Node       domain.Node `json:"node"`
	TQName     string      `json:"tqName"`
	SourceCode string      `json:"sourceCode"`
}

func matchesSearch(n domain.Node, p Params, term string) bool {
	if p.NodeID != "" && !n.Matches(p.NodeID) && domain.IDPrefix(n.ID) != domain.IDPrefix(p.NodeID) {
		return false
	}
	if p.Type != "" && !strings.EqualFold(n.Type, p.Type) {
		return false
	}
	if p.Class != "" && !strings.EqualFold(n.Class, p.Class) {
		return false
	}
	if p.FunctionName != "" && !strings.Contains(strings.ToLower(n.FunctionName), strings.ToLower(p.FunctionName)) {
		return false
	}
	if term != "" {
		hay := strings.ToLower(strings.Join([]string{n.ID, n.NodeKey, n.Type, n.FunctionName, n.Description}, " "))
		return strings.Contains(hay, term)
	}
	return true
}

func (in *Interpreter) count(ctx context.Context, req request) (*ChatResponse, error) {
	requested := req.params.RequestedType

	empty, err := in.storeEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		counts := demoCounts(requested)
		return synthetic(formatCounts(requested, req.sourceCode, counts, total(counts)), counts), nil
	}

	ov, err := in.analyzer.Overview(ctx, req.sourceCode)
	if err != nil {
		return nil, err
	}
	counts := ov.Types
	if requested != "" {
		counts = map[string]int{requested: ov.Types[requested]}
	}
	data := map[string]any{"requestedType": requested, "counts": counts, "totalNodes": ov.Nodes}
	return &ChatResponse{
		Response: formatCounts(requested, req.sourceCode, counts, ov.Nodes),
		Data:     data,
		Status:   string(analysis.StatusSuccess),
	}, nil
}

func (in *Interpreter) describe(ctx context.Context, req request) (*ChatResponse, error) {
	id := req.params.NodeID
	if id == "" {
		return nil, apperrors.NewMalformedInput(`Which node should I describe? Try "describe node HH@id@934".`)
	}
	n, err := in.analyzer.Node(ctx, id)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Node %s\n", n.Key())
	fmt.Fprintf(&b, "• type: %s\n• class: %s\n• function: %s\n", orDash(n.Type), orDash(n.Class), orDash(n.FunctionName))
	if n.Description != "" {
		fmt.Fprintf(&b, "• description: %s\n", n.Description)
	}
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "• %s: %v\n", k, n.Properties[k])
	}
	return &ChatResponse{Response: strings.TrimRight(b.String(), "\n"), Data: n, Status: string(analysis.StatusSuccess)}, nil
}

func (in *Interpreter) status(ctx context.Context, req request) (*ChatResponse, error) {
	ov, err := in.analyzer.Overview(ctx, "")
	if err != nil {
		return nil, err
	}

	components := make(map[string]string, len(in.probes)+1)
	components["node_store"] = "ok"
	for _, probe := range in.probes {
		name, state := probe(ctx)
		components[name] = state
	}

	var b strings.Builder
	fmt.Fprintf(&b, "System status: %d thread(s), %d node(s) across %d source(s).\n", ov.Threads, ov.Nodes, len(ov.Sources))
	for _, name := range sortedKeys(components) {
		fmt.Fprintf(&b, "• %s: %s\n", name, components[name])
	}
	if ov.Nodes == 0 {
		b.WriteString("The node store is empty; some answers will use demo data.\n")
	}
	return &ChatResponse{
		Response: strings.TrimRight(b.String(), "\n"),
		Data:     map[string]any{"overview": ov, "components": components},
		Status:   string(analysis.StatusSuccess),
	}, nil
}

func (in *Interpreter) listSources(ctx context.Context, req request) (*ChatResponse, error) {
	ov, err := in.analyzer.Overview(ctx, "")
	if err != nil {
		return nil, err
	}
	sources := in.analyzer.Sources()

	var b strings.Builder
	fmt.Fprintf(&b, "%d source(s) of truth:\n", len(sources))
	for _, s := range sources {
		fmt.Fprintf(&b, "• %s (%s): %d node(s)\n", s.Code, s.Name, ov.Sources[s.Code])
	}
	return &ChatResponse{
		Response: strings.TrimRight(b.String(), "\n"),
		Data:     map[string]any{"sources": sources, "nodeCounts": ov.Sources},
		Status:   string(analysis.StatusSuccess),
	}, nil
}

const helpText = `I can answer questions about nodes without an AI model. Try:
• "Find similar nodes to HH@id@934" (add type:, class:, function: or threshold: to refine)
• "What's the impact of changing HH@id@934?"
• "What are the dependencies of HH@id@934?"
• "Find nodes type: HH" or "search routeHarness"
• "How many HH nodes are there?"
• "Describe node HH@id@934"
• "System status" or "List sources of truth"`

func (in *Interpreter) help(ctx context.Context, req request) (*ChatResponse, error) {
	return &ChatResponse{Response: helpText, AnalysisType: IntentHelp, Status: string(analysis.StatusSuccess)}, nil
}

func synthetic(text string, data any) *ChatResponse {
	return &ChatResponse{
		Response:  demoMarker + " " + text,
		Data:      data,
		Synthetic: true,
		Status:    StatusSynthetic,
	}
}

func formatSimilar(target string, results []domain.SimilarityResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d node(s) similar to %s:\n", len(results), target)
	for i, r := range results {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more", len(results)-maxListed)
			break
		}
		fmt.Fprintf(&b, "• %s (%s) similarity %.2f, impact %s\n", r.NodeID, r.SourceCode, r.Similarity, r.ImpactLevel)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatImpact(a *domain.ImpactAssessment) string {
	s := a.ImpactSummary
	var b strings.Builder
	fmt.Fprintf(&b, "Impact of changing %s: score %d/100, %d affected node(s).\n", a.TargetNodeID, s.EstimatedImpactScore, s.TotalAffectedNodes)
	if s.TotalAffectedNodes > 0 {
		parts := make([]string, 0, len(domain.ImpactLevels))
		for i := len(domain.ImpactLevels) - 1; i >= 0; i-- {
			lvl := domain.ImpactLevels[i]
			if n := s.SeverityBreakdown[lvl]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", lvl, n))
			}
		}
		fmt.Fprintf(&b, "Severity: %s\n", strings.Join(parts, ", "))

		srcs := make([]string, 0, len(s.SourceBreakdown))
		for _, code := range sortedKeys(s.SourceBreakdown) {
			srcs = append(srcs, fmt.Sprintf("%s %d", code, s.SourceBreakdown[code]))
		}
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(srcs, ", "))
	}
	b.WriteString("Recommendations:\n")
	for _, r := range a.Recommendations {
		fmt.Fprintf(&b, "• %s\n", r)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDependencies(id string, deps []domain.DependencyRecord, note string) string {
	var b strings.Builder
	if note != "" {
		b.WriteString(note + "\n")
	}
	if len(deps) == 0 {
		fmt.Fprintf(&b, "No dependencies found for %s.", id)
		return b.String()
	}
	fmt.Fprintf(&b, "%s has %d dependency record(s):\n", id, len(deps))
	for i, d := range deps {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more", len(deps)-maxListed)
			break
		}
		fmt.Fprintf(&b, "• %s %s %s (%s)\n", arrow(d.Direction), d.NodeID, d.Relation, d.SourceCode)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCounts(requested, source string, counts map[string]int, totalNodes int) string {
	scope := ""
	if source != "" {
		scope = " in " + source
	}
	if requested != "" {
		return fmt.Sprintf("There are %d %s node(s)%s.", counts[requested], requested, scope)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "There are %d node(s)%s.\n", totalNodes, scope)
	for _, t := range sortedKeys(counts) {
		fmt.Fprintf(&b, "• %s: %d\n", t, counts[t])
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeTarget(t domain.NodePartial) string {
	if t.ID != "" {
		return t.ID
	}
	var parts []string
	if t.Type != "" {
		parts = append(parts, "type "+t.Type)
	}
	if t.Class != "" {
		parts = append(parts, "class "+t.Class)
	}
	if t.FunctionName != "" {
		parts = append(parts, "function "+t.FunctionName)
	}
	return strings.Join(parts, ", ")
}

func arrow(direction string) string {
	switch direction {
	case domain.DirectionOutgoing:
		return "→"
	case domain.DirectionIncoming:
		return "←"
	default:
		return "↔"
	}
}

func total(counts map[string]int) int {
	n := 0
	for _, v := range counts {
		n += v
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
