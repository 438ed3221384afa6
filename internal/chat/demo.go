package chat

import (
	"fmt"
	"strconv"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/similarity"
)

// demoMarker prefixes every answer built from synthetic data.
const demoMarker = "[demo data]"

var demoSources = []string{"SCR", "Capital", "Teamcenter"}

var demoTypeCounts = map[string]int{
	"HH":  42,
	"CF":  23,
	"TX":  17,
	"NET": 8,
}

// demoSimilar fabricates a stable ranking of nodes of the same kind as the target.
func demoSimilar(p Params) []domain.SimilarityResult {
	nodeType, base := p.Type, 1000
	if id := p.NodeID; id != "" {
		if prefix := domain.IDPrefix(id); prefix != "" {
			nodeType = prefix
		}
		if n, err := strconv.Atoi(idNumber(id)); err == nil {
			base = n
		}
	}
	if nodeType == "" {
		nodeType = "HH"
	}

	scores := []float64{0.92, 0.85, 0.78, 0.64}
	out := make([]domain.SimilarityResult, 0, len(scores))
	for i, s := range scores {
		out = append(out, domain.SimilarityResult{
			NodeID:      fmt.Sprintf("%s@id@%d", nodeType, base+i+1),
			Similarity:  s,
			ImpactLevel: similarity.Level(s, nodeType),
			SourceCode:  demoSources[i%len(demoSources)],
		})
	}
	return out
}

// demoDependencies fabricates two outgoing edges and one incoming edge.
func demoDependencies() []domain.DependencyRecord {
	return []domain.DependencyRecord{
		{NodeID: "CORE@id@1", Relation: "calls", Direction: domain.DirectionOutgoing, SourceCode: "SCR", Type: "CORE"},
		{NodeID: "TX@id@101", Relation: "feeds", Direction: domain.DirectionOutgoing, SourceCode: "Capital", Type: "TX"},
		{NodeID: "NET@id@77", Relation: "routes_to", Direction: domain.DirectionIncoming, SourceCode: "Teamcenter", Type: "NET"},
	}
}

// demoCounts returns synthetic per-type counts, or a single entry for requestedType.
func demoCounts(requestedType string) map[string]int {
	if requestedType == "" {
		out := make(map[string]int, len(demoTypeCounts))
		for k, v := range demoTypeCounts {
			out[k] = v
		}
		return out
	}
	n, ok := demoTypeCounts[requestedType]
	if !ok {
		n = 10 + len(requestedType)
	}
	return map[string]int{requestedType: n}
}

func idNumber(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '@' {
			return id[i+1:]
		}
	}
	return id
}
