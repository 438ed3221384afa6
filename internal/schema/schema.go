// Package schema fetches the external graph-schema description and uses it
// to enrich similarity results for well-connected node kinds.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

// Doc describes the vertex and edge labels known to the graph.
type Doc struct {
	Vertices []VertexLabel `json:"vertices"`
	Edges    []EdgeLabel   `json:"edges"`
}

// VertexLabel describes one kind of vertex.
type VertexLabel struct {
	Label         string   `json:"label"`
	Description   string   `json:"description,omitempty"`
	Properties    []string `json:"properties,omitempty"`
	Relationships []string `json:"relationships,omitempty"`
}

// EdgeLabel describes one kind of edge between vertex labels.
type EdgeLabel struct {
	Label       string `json:"label"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Description string `json:"description,omitempty"`
}

// Vertex returns the vertex entry whose label equals name, ignoring case.
func (d *Doc) Vertex(name string) (VertexLabel, bool) {
	if d == nil || name == "" {
		return VertexLabel{}, false
	}
	for _, v := range d.Vertices {
		if strings.EqualFold(v.Label, name) {
			return v, true
		}
	}
	return VertexLabel{}, false
}

// RelationshipCount counts the relationships listed on the vertex plus the
// edge labels that start or end at it.
func (d *Doc) RelationshipCount(v VertexLabel) int {
	n := len(v.Relationships)
	for _, e := range d.Edges {
		if strings.EqualFold(e.From, v.Label) || strings.EqualFold(e.To, v.Label) {
			n++
		}
	}
	return n
}

// Source produces a schema document.
type Source interface {
	Fetch(ctx context.Context) (*Doc, error)
}

// HTTPSource fetches the schema as JSON from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSource{url: url, client: client}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (*Doc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("schema endpoint returned %d", resp.StatusCode)
	}

	var doc Doc
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed schema document: %w", err)
	}
	return &doc, nil
}

// Enrich boosts result when the schema knows the node's type, class or
// function as a vertex label. The similarity gains a flat 0.1 (capped at
// 1.0) and the impact level is raised according to how many relationships
// the best matching vertex has. Levels are never lowered.
func Enrich(doc *Doc, node domain.Node, result domain.SimilarityResult) domain.SimilarityResult {
	if doc == nil {
		return result
	}

	best, found := -1, false
	for _, name := range []string{node.Type, node.Class, node.FunctionName} {
		v, ok := doc.Vertex(name)
		if !ok {
			continue
		}
		found = true
		best = max(best, doc.RelationshipCount(v))
	}
	if !found {
		return result
	}

	result.Similarity = min(1.0, result.Similarity+0.1)
	result.RelationshipCount = max(result.RelationshipCount, best)

	switch {
	case best > 10:
		result.ImpactLevel = result.ImpactLevel.AtLeast(domain.ImpactCritical)
	case best > 5:
		result.ImpactLevel = result.ImpactLevel.AtLeast(domain.ImpactHigh)
	case best > 2:
		result.ImpactLevel = result.ImpactLevel.AtLeast(domain.ImpactMedium)
	}
	return result
}
