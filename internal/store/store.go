// Package store reads the current thread set from a pluggable backend.
//
// Every backend returns plain records and never fails for "no data". The
// node lookup and flattening helpers live here so that the scan order and
// the id/nodeKey matching rules are identical regardless of backend.
package store

import (
	"context"
	"strings"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

// NodeStore is the read side of the thread data.
type NodeStore interface {
	// ListThreads returns threads whose tqName starts with prefix; "" means all.
	ListThreads(ctx context.Context, prefix string) ([]domain.Thread, error)
	// FindNodeByID returns the first node matching id or nodeKey, or nil.
	FindNodeByID(ctx context.Context, id string) (*domain.Node, error)
}

// FilterByPrefix keeps the threads whose tqName starts with prefix.
func FilterByPrefix(threads []domain.Thread, prefix string) []domain.Thread {
	if prefix == "" {
		return threads
	}
	out := make([]domain.Thread, 0, len(threads))
	for _, t := range threads {
		if strings.HasPrefix(t.TQName, prefix) {
			out = append(out, t)
		}
	}
	return out
}

// FindNode scans threads, then components, then nodes and returns the
// first node whose id or nodeKey equals id. Nodes carrying neither are skipped.
func FindNode(threads []domain.Thread, id string) *domain.Node {
	if id == "" {
		return nil
	}
	for _, t := range threads {
		for _, c := range t.ComponentNodes {
			for i := range c.Nodes {
				n := c.Nodes[i]
				if n.ID == "" && n.NodeKey == "" {
					continue
				}
				if n.Matches(id) {
					return &n
				}
			}
		}
	}
	return nil
}

// Flatten lists every node in iteration order: thread, component, node.
func Flatten(threads []domain.Thread) []domain.PlacedNode {
	var out []domain.PlacedNode
	for _, t := range threads {
		src := t.SourceCode()
		for _, c := range t.ComponentNodes {
			for _, n := range c.Nodes {
				out = append(out, domain.PlacedNode{
					Node:       n,
					TQName:     t.TQName,
					Component:  c.Name,
					SourceCode: src,
				})
			}
		}
	}
	return out
}

// CountNodes returns the number of nodes across threads.
func CountNodes(threads []domain.Thread) int {
	n := 0
	for _, t := range threads {
		n += t.NodeCount()
	}
	return n
}
