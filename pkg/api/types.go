package api

import "github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SimilarityRequest represents the request to rank nodes against a target
type SimilarityRequest struct {
	Target    domain.NodePartial `json:"target" validate:"required"`
	Threshold float64            `json:"threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// SimilarityResponse wraps ranked similarity results
type SimilarityResponse struct {
	Results   []domain.SimilarityResult `json:"results"`
	Count     int                       `json:"count"`
	Threshold float64                   `json:"threshold,omitempty"`
}

// ChatRequest represents a free-text analytic question
type ChatRequest struct {
	Message    string `json:"message" validate:"required,max=2000"`
	SourceCode string `json:"sourceCode,omitempty" validate:"omitempty,max=64"`
}

// SourceSummary represents a source of truth with its stored thread count
type SourceSummary struct {
	domain.Source
	Threads int `json:"threads"`
	Nodes   int `json:"nodes"`
}

// ThreadsResponse wraps a thread listing
type ThreadsResponse struct {
	Threads []domain.Thread `json:"threads"`
	Count   int             `json:"count"`
}
