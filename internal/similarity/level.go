package similarity

import "github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"

var (
	criticalTypes   = map[string]bool{"TX": true, "AUTH": true, "CORE": true}
	highImpactTypes = map[string]bool{"HH": true, "CF": true, "NET": true}
)

// IsCriticalType reports whether changes to nodes of this type are always at least HIGH.
func IsCriticalType(nodeType string) bool { return criticalTypes[nodeType] }

// Level classifies a scored candidate. The checks run in order and the
// first one that holds wins.
func Level(sim float64, nodeType string) domain.ImpactLevel {
	switch {
	case criticalTypes[nodeType] && sim > 0.8:
		return domain.ImpactCritical
	case criticalTypes[nodeType] || sim > 0.9:
		return domain.ImpactHigh
	case highImpactTypes[nodeType] && sim > 0.7:
		return domain.ImpactHigh
	case sim > 0.8:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}

// ConnectionLevel classifies a structural match by how connected it is.
func ConnectionLevel(connections, shared int) domain.ImpactLevel {
	score := connections + 2*shared
	switch {
	case score >= 20:
		return domain.ImpactCritical
	case score >= 10:
		return domain.ImpactHigh
	case score >= 5:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}
