package graph

import (
	"context"
	"fmt"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

// MaxStructuralCandidates bounds the shared-neighbor ranking.
const MaxStructuralCandidates = 20

const (
	sharedNeighborsQuery = `g.V().has('id', nodeId).as('target')
  .both().dedup().aggregate('targetNeighbors')
  .repeat(both().simplePath()).times(maxHops - 1).emit()
  .where(neq('target')).dedup()
  .project('nodeId', 'type', 'sourceCode', 'sharedConnections', 'totalConnections', 'properties')
    .by(values('id'))
    .by(coalesce(values('type'), constant('')))
    .by(coalesce(values('sourceCode'), constant('')))
    .by(both().where(within('targetNeighbors')).dedup().count())
    .by(both().dedup().count())
    .by(valueMap())
  .order().by(select('sharedConnections'), desc)
  .limit(limit)`

	connectionCountsQuery = `g.V().has('id', nodeId)
  .project('direct', 'indirect', 'systems')
    .by(both().dedup().count())
    .by(both().both().where(neq(nodeId)).dedup().count())
    .by(both().both().values('sourceCode').dedup().fold())`

	dependenciesQuery = `g.V().has('id', nodeId).union(
    outE().project('nodeId', 'relation', 'direction', 'type', 'sourceCode')
      .by(inV().values('id')).by(label()).by(constant('outgoing'))
      .by(inV().coalesce(values('type'), constant('')))
      .by(inV().coalesce(values('sourceCode'), constant(''))),
    inE().project('nodeId', 'relation', 'direction', 'type', 'sourceCode')
      .by(outV().values('id')).by(label()).by(constant('incoming'))
      .by(outV().coalesce(values('type'), constant('')))
      .by(outV().coalesce(values('sourceCode'), constant(''))))`
)

// Neighbor is one candidate of the shared-neighbor traversal.
type Neighbor struct {
	NodeID            string
	Type              string
	SourceCode        string
	SharedConnections int
	TotalConnections  int
	Properties        map[string]any
}

// Connectivity summarizes how far a node reaches in the graph.
type Connectivity struct {
	Direct   int
	Indirect int
	Systems  []string
}

// SharedNeighbors ranks nodes by how many neighbors they share with nodeID.
// Results are ordered by shared connections descending and capped at
// MaxStructuralCandidates.
func SharedNeighbors(ctx context.Context, ex Executor, nodeID string, maxHops int) ([]Neighbor, error) {
	if maxHops <= 0 {
		maxHops = 2
	}
	rows, err := Run(ctx, ex, sharedNeighborsQuery, map[string]any{
		"nodeId":  nodeID,
		"maxHops": maxHops,
		"limit":   MaxStructuralCandidates,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Neighbor, 0, len(rows))
	for i, r := range rows {
		id := r.String("nodeId")
		if id == "" {
			return nil, malformed("shared neighbor", i, "nodeId")
		}
		shared, ok := r.Int("sharedConnections")
		if !ok {
			return nil, malformed("shared neighbor", i, "sharedConnections")
		}
		total, _ := r.Int("totalConnections")
		props, _ := r["properties"].(map[string]any)
		out = append(out, Neighbor{
			NodeID:            id,
			Type:              r.String("type"),
			SourceCode:        r.String("sourceCode"),
			SharedConnections: shared,
			TotalConnections:  total,
			Properties:        props,
		})
	}
	if len(out) > MaxStructuralCandidates {
		out = out[:MaxStructuralCandidates]
	}
	return out, nil
}

// ConnectionCounts returns direct and two-hop neighbor counts plus the
// distinct source systems reachable from nodeID.
func ConnectionCounts(ctx context.Context, ex Executor, nodeID string) (*Connectivity, error) {
	rows, err := Run(ctx, ex, connectionCountsQuery, map[string]any{"nodeId": nodeID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewExternalQuery(fmt.Sprintf("node %q not present in graph", nodeID), nil)
	}
	direct, ok := rows[0].Int("direct")
	if !ok {
		return nil, malformed("connectivity", 0, "direct")
	}
	indirect, _ := rows[0].Int("indirect")
	return &Connectivity{
		Direct:   direct,
		Indirect: indirect,
		Systems:  rows[0].Strings("systems"),
	}, nil
}

// Dependencies lists the incoming and outgoing edges of nodeID.
func Dependencies(ctx context.Context, ex Executor, nodeID string) ([]domain.DependencyRecord, error) {
	rows, err := Run(ctx, ex, dependenciesQuery, map[string]any{"nodeId": nodeID})
	if err != nil {
		return nil, err
	}
	out := make([]domain.DependencyRecord, 0, len(rows))
	for i, r := range rows {
		id := r.String("nodeId")
		if id == "" {
			return nil, malformed("dependency", i, "nodeId")
		}
		out = append(out, domain.DependencyRecord{
			NodeID:     id,
			Relation:   r.String("relation"),
			Direction:  r.String("direction"),
			SourceCode: r.String("sourceCode"),
			Type:       r.String("type"),
		})
	}
	return out, nil
}

func malformed(kind string, row int, field string) error {
	return apperrors.NewExternalQuery(fmt.Sprintf("malformed %s row %d: missing %s", kind, row, field), nil)
}
