package domain

// ImpactLevel is a coarse severity bucket.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "LOW"
	ImpactMedium   ImpactLevel = "MEDIUM"
	ImpactHigh     ImpactLevel = "HIGH"
	ImpactCritical ImpactLevel = "CRITICAL"
)

// ImpactLevels lists the levels from least to most severe.
var ImpactLevels = []ImpactLevel{ImpactLow, ImpactMedium, ImpactHigh, ImpactCritical}

// Rank orders levels; unknown values rank below LOW.
func (l ImpactLevel) Rank() int {
	for i, lvl := range ImpactLevels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// AtLeast returns the more severe of l and floor.
func (l ImpactLevel) AtLeast(floor ImpactLevel) ImpactLevel {
	if floor.Rank() > l.Rank() {
		return floor
	}
	return l
}

// SimilarityResult is one scored candidate. It is recomputed on every call.
type SimilarityResult struct {
	NodeID            string         `json:"nodeId"`
	Similarity        float64        `json:"similarity"`
	ImpactLevel       ImpactLevel    `json:"impactLevel"`
	SourceCode        string         `json:"sourceCode"`
	RelationshipCount int            `json:"relationshipCount"`
	SharedConnections int            `json:"sharedConnections"`
	NodeProperties    map[string]any `json:"nodeProperties,omitempty"`
}

// ImpactSummary folds the affected nodes of an assessment.
type ImpactSummary struct {
	TotalAffectedNodes   int                 `json:"totalAffectedNodes"`
	SourceBreakdown      map[string]int      `json:"sourceBreakdown"`
	SeverityBreakdown    map[ImpactLevel]int `json:"severityBreakdown"`
	EstimatedImpactScore int                 `json:"estimatedImpactScore"`
}

// ImpactAssessment is the blast radius estimate for a target node.
type ImpactAssessment struct {
	TargetNodeID    string             `json:"targetNodeId"`
	AffectedNodes   []SimilarityResult `json:"affectedNodes"`
	ImpactSummary   ImpactSummary      `json:"impactSummary"`
	Recommendations []string           `json:"recommendations"`
}

// DependencyRecord describes one node related to a target.
type DependencyRecord struct {
	NodeID     string         `json:"nodeId"`
	Relation   string         `json:"relation"`
	Direction  string         `json:"direction"`
	SourceCode string         `json:"sourceCode"`
	Type       string         `json:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Dependency directions.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionPeer     = "peer"
)
