package analysis

import (
	"fmt"
	"math"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

var severityWeights = map[domain.ImpactLevel]float64{
	domain.ImpactCritical: 25,
	domain.ImpactHigh:     15,
	domain.ImpactMedium:   8,
	domain.ImpactLow:      3,
}

// Summarize folds affected nodes into per-source and per-severity counts
// and the overall 0-100 impact score.
func Summarize(affected []domain.SimilarityResult) domain.ImpactSummary {
	summary := domain.ImpactSummary{
		TotalAffectedNodes: len(affected),
		SourceBreakdown:    make(map[string]int),
		SeverityBreakdown:  make(map[domain.ImpactLevel]int),
	}
	for _, r := range affected {
		summary.SourceBreakdown[r.SourceCode]++
		summary.SeverityBreakdown[r.ImpactLevel]++
	}
	summary.EstimatedImpactScore = ImpactScore(summary.SeverityBreakdown, summary.TotalAffectedNodes)
	return summary
}

// ImpactScore weights each severity, scales by breadth (total/10, at most
// 1.5) and caps the result at 100.
func ImpactScore(severity map[domain.ImpactLevel]int, total int) int {
	if total <= 0 {
		return 0
	}
	var weighted float64
	for level, count := range severity {
		weighted += severityWeights[level] * float64(count)
	}
	multiplier := math.Min(float64(total)/10, 1.5)
	return int(math.Min(100, math.Round(weighted*multiplier)))
}

// Recommendations returns the banded advice for score plus add-ons for
// cross-system spread and critical nodes.
func Recommendations(score int, summary domain.ImpactSummary) []string {
	var recs []string
	switch {
	case score >= 80:
		recs = append(recs,
			"High risk: route this change through formal change management and notify every affected source owner",
			"Schedule the change inside an agreed maintenance window",
		)
	case score >= 60:
		recs = append(recs,
			"Run the full test suite in a staging environment before release",
			"Roll out in phases and verify affected nodes after each phase",
		)
	case score >= 30:
		recs = append(recs,
			"Monitor affected nodes closely after deployment",
			"Review the dependencies of the affected nodes before proceeding",
		)
	default:
		recs = append(recs, "Low impact: follow the standard change process")
	}

	if n := len(summary.SourceBreakdown); n > 2 {
		recs = append(recs, fmt.Sprintf("Change spans %d source systems: coordinate cross-system testing", n))
	}
	if n := summary.SeverityBreakdown[domain.ImpactCritical]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d critical node(s) affected: prepare and rehearse a rollback plan", n))
	}
	return recs
}
