package analysis

// Status tells callers how an answer was produced.
type Status string

const (
	// StatusSuccess is a primary-path answer.
	StatusSuccess Status = "success"
	// StatusDegraded is a best-effort answer from a fallback path.
	StatusDegraded Status = "degraded"
	// StatusEmpty means no path produced data.
	StatusEmpty Status = "empty"
)

// Outcome carries a result together with the path that produced it.
type Outcome[T any] struct {
	Status Status `json:"status"`
	Data   T      `json:"data"`
	Reason string `json:"reason,omitempty"`
}

// Success wraps a primary-path answer.
func Success[T any](data T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Data: data}
}

// Degraded wraps a fallback answer and the reason the primary path was skipped.
func Degraded[T any](data T, reason string) Outcome[T] {
	return Outcome[T]{Status: StatusDegraded, Data: data, Reason: reason}
}

// Empty reports that nothing could be produced.
func Empty[T any](reason string) Outcome[T] {
	var zero T
	return Outcome[T]{Status: StatusEmpty, Data: zero, Reason: reason}
}

// OK reports whether the outcome carries data from any path.
func (o Outcome[T]) OK() bool {
	return o.Status != StatusEmpty
}
