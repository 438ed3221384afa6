// Package domain holds the records the analysis engine operates on.
//
// Nodes are never indexed globally. Every node is reached by walking
// Thread -> ComponentNodes -> Nodes, and "all nodes" always means the
// flattened current thread set.
package domain

import (
	"strings"
)

// Node is an immutable snapshot of one entity imported from a Source of Truth.
// Properties carries any additional keys verbatim; scoring never reads them.
type Node struct {
	ID           string         `json:"id,omitempty" yaml:"id,omitempty" dynamodbav:"id,omitempty"`
	NodeKey      string         `json:"nodeKey,omitempty" yaml:"nodeKey,omitempty" dynamodbav:"nodeKey,omitempty"`
	Type         string         `json:"type,omitempty" yaml:"type,omitempty" dynamodbav:"type,omitempty"`
	Class        string         `json:"class,omitempty" yaml:"class,omitempty" dynamodbav:"class,omitempty"`
	FunctionName string         `json:"functionName,omitempty" yaml:"functionName,omitempty" dynamodbav:"functionName,omitempty"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty" dynamodbav:"description,omitempty"`
	Properties   map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" dynamodbav:"properties,omitempty"`
}

// Key returns the identifier used for display and self-exclusion.
func (n Node) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.NodeKey
}

// Matches reports whether id names this node by id or by nodeKey.
func (n Node) Matches(id string) bool {
	if id == "" {
		return false
	}
	return (n.ID != "" && n.ID == id) || (n.NodeKey != "" && n.NodeKey == id)
}

// Partial converts the node into a scoring target.
func (n Node) Partial() NodePartial {
	return NodePartial{
		ID:           n.ID,
		Type:         n.Type,
		Class:        n.Class,
		FunctionName: n.FunctionName,
		Description:  n.Description,
	}
}

// IDPrefix returns the part of the id before the first '@', e.g. "HH" for "HH@id@934".
func IDPrefix(id string) string {
	if i := strings.Index(id, "@"); i >= 0 {
		return id[:i]
	}
	return ""
}

// NodePartial is a scoring target where any subset of fields may be supplied.
type NodePartial struct {
	ID           string `json:"id,omitempty" validate:"omitempty,max=128"`
	Type         string `json:"type,omitempty" validate:"omitempty,max=32"`
	Class        string `json:"class,omitempty" validate:"omitempty,max=32"`
	FunctionName string `json:"functionName,omitempty" validate:"omitempty,max=256"`
	Description  string `json:"description,omitempty" validate:"omitempty,max=2048"`
}

// IsEmpty reports whether no field was supplied.
func (p NodePartial) IsEmpty() bool {
	return p.ID == "" && p.Type == "" && p.Class == "" && p.FunctionName == "" && p.Description == ""
}

// ComponentNode groups the nodes of one component inside a thread.
type ComponentNode struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty" dynamodbav:"name,omitempty"`
	Nodes []Node `json:"node" yaml:"node" dynamodbav:"node"`
}

// Thread is a cluster record tagged with the qualified name of its owning source.
type Thread struct {
	TQName         string          `json:"tqName" yaml:"tqName" dynamodbav:"tqName"`
	ComponentNodes []ComponentNode `json:"componentNode" yaml:"componentNode" dynamodbav:"componentNode"`
}

// SourceCode returns the owning source prefix of the thread.
func (t Thread) SourceCode() string {
	return SourceCodeOf(t.TQName)
}

// NodeCount returns the number of nodes across all components.
func (t Thread) NodeCount() int {
	n := 0
	for _, c := range t.ComponentNodes {
		n += len(c.Nodes)
	}
	return n
}

// PlacedNode is a node together with its position in the thread set.
type PlacedNode struct {
	Node       Node
	TQName     string
	Component  string
	SourceCode string
}
