// Package graph talks to the external graph database.
//
// The database is only ever seen through Executor: a textual traversal
// goes in, rows or a typed failure come out.
package graph

import (
	"context"
	"time"

	apperrors "github.com/doubletgeekedup/int-dashboard-sub000/pkg/errors"
)

// Row is one result record of a traversal.
type Row map[string]any

// Result mirrors the executor contract: success flag, rows, error text and timing.
type Result struct {
	Success       bool          `json:"success"`
	Data          []Row         `json:"data,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"executionTimeMs"`
}

// Executor runs traversal expressions against the graph database.
type Executor interface {
	Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error)
}

// Run executes query and folds every kind of failure (transport error,
// success=false, nil result) into a single EXTERNAL_QUERY error.
func Run(ctx context.Context, ex Executor, query string, bindings map[string]any) ([]Row, error) {
	if ex == nil {
		return nil, apperrors.NewExternalQuery("graph executor not configured", nil)
	}
	res, err := ex.Execute(ctx, query, bindings)
	if err != nil {
		return nil, apperrors.NewExternalQuery("graph query failed", err)
	}
	if res == nil {
		return nil, apperrors.NewExternalQuery("graph query returned no result", nil)
	}
	if !res.Success {
		return nil, apperrors.NewExternalQuery("graph query unsuccessful: "+res.Error, nil)
	}
	return res.Data, nil
}

// String reads a string column; missing or non-string values yield "".
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []any:
		// valueMap() style single-element lists
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// Int reads a numeric column. ok is false when the column is absent or not numeric.
func (r Row) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// Strings reads a list-of-strings column.
func (r Row) Strings(key string) []string {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
