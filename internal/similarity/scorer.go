// Package similarity implements the scoring primitives shared by every analysis.
package similarity

import (
	"math"
	"strings"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

// Weights configures the factor weights of the local scorer.
type Weights struct {
	Type         float64
	Class        float64
	FunctionName float64
	Description  float64
}

// DefaultWeights returns the standard factor weights.
func DefaultWeights() Weights {
	return Weights{
		Type:         0.4,
		Class:        0.3,
		FunctionName: 0.2,
		Description:  0.1,
	}
}

// Scorer computes property similarity between a target and a candidate node.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. A zero Weights value selects the defaults.
func NewScorer(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score returns a value in [0, 1]. Only factors present on both sides
// contribute, and the weighted sum is divided by the weights of those
// factors, so a target that only carries a type can still reach 1.0.
func (s *Scorer) Score(target domain.NodePartial, candidate domain.Node) float64 {
	var sum, weight float64

	if target.Type != "" && candidate.Type != "" {
		weight += s.weights.Type
		if target.Type == candidate.Type {
			sum += s.weights.Type
		}
	}
	if target.Class != "" && candidate.Class != "" {
		weight += s.weights.Class
		if target.Class == candidate.Class {
			sum += s.weights.Class
		}
	}
	if target.FunctionName != "" && candidate.FunctionName != "" {
		weight += s.weights.FunctionName
		sum += s.weights.FunctionName * Ratio(target.FunctionName, candidate.FunctionName)
	}
	if target.Description != "" && candidate.Description != "" {
		weight += s.weights.Description
		sum += s.weights.Description * Ratio(target.Description, candidate.Description)
	}

	if weight == 0 {
		return 0
	}
	return clamp(sum / weight)
}

const (
	prefixBase     = 0.3
	prefixIDBonus  = 0.2
	prefixTypeBon  = 0.2
	prefixClassBon = 0.1
	prefixFuncBon  = 0.1
)

// PrefixMatch is the permissive variant behind conversational lookups.
// Two nodes match when their id prefixes agree, their types agree, or one
// function name contains the other. Matches start at a base of 0.3 and
// earn a bonus per agreeing field.
func PrefixMatch(target domain.NodePartial, candidate domain.Node) (bool, float64) {
	idMatch := false
	if tp, cp := domain.IDPrefix(target.ID), domain.IDPrefix(candidate.ID); tp != "" && tp == cp {
		idMatch = true
	}
	typeMatch := target.Type != "" && target.Type == candidate.Type
	funcMatch := false
	if target.FunctionName != "" && candidate.FunctionName != "" {
		tf, cf := strings.ToLower(target.FunctionName), strings.ToLower(candidate.FunctionName)
		funcMatch = strings.Contains(tf, cf) || strings.Contains(cf, tf)
	}

	if !idMatch && !typeMatch && !funcMatch {
		return false, 0
	}

	score := prefixBase
	if idMatch {
		score += prefixIDBonus
	}
	if typeMatch {
		score += prefixTypeBon
	}
	if target.Class != "" && target.Class == candidate.Class {
		score += prefixClassBon
	}
	if funcMatch {
		score += prefixFuncBon
	}
	return true, Round(clamp(score), 2)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
