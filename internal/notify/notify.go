// Package notify publishes high-risk impact assessments to EventBridge.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

const (
	// DefaultThreshold is the lowest impact score that is published.
	DefaultThreshold = 80
	DefaultSource    = "int-dashboard.analysis"
	DetailType       = "ImpactAssessed"
)

// EventBridgeAPI is the subset of the EventBridge client used here.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Observer records publish attempts.
type Observer interface {
	ObserveNotification(err error)
}

// ImpactEvent is the event detail.
type ImpactEvent struct {
	TargetNodeID       string                     `json:"targetNodeId"`
	ImpactScore        int                        `json:"impactScore"`
	TotalAffectedNodes int                        `json:"totalAffectedNodes"`
	SeverityBreakdown  map[domain.ImpactLevel]int `json:"severityBreakdown"`
	SourceBreakdown    map[string]int             `json:"sourceBreakdown"`
	AssessedAt         time.Time                  `json:"assessedAt"`
}

// Publisher sends ImpactAssessed events for assessments at or above the threshold.
type Publisher struct {
	client    EventBridgeAPI
	eventBus  string
	source    string
	threshold int
	observer  Observer
	logger    *zap.Logger
	now       func() time.Time
}

// NewPublisher creates a publisher. A threshold <= 0 selects DefaultThreshold.
func NewPublisher(client EventBridgeAPI, eventBus string, threshold int, observer Observer, logger *zap.Logger) *Publisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:    client,
		eventBus:  eventBus,
		source:    DefaultSource,
		threshold: threshold,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}
}

// ImpactAssessed publishes the assessment when its score reaches the
// threshold. Failures are logged and counted, never returned.
func (p *Publisher) ImpactAssessed(ctx context.Context, a *domain.ImpactAssessment) {
	if a == nil || a.ImpactSummary.EstimatedImpactScore < p.threshold {
		return
	}
	err := p.publish(ctx, a)
	if p.observer != nil {
		p.observer.ObserveNotification(err)
	}
	if err != nil {
		p.logger.Warn("failed to publish impact event",
			zap.String("target", a.TargetNodeID),
			zap.Int("score", a.ImpactSummary.EstimatedImpactScore),
			zap.Error(err))
		return
	}
	p.logger.Info("published impact event",
		zap.String("target", a.TargetNodeID),
		zap.Int("score", a.ImpactSummary.EstimatedImpactScore),
		zap.String("bus", p.eventBus))
}

func (p *Publisher) publish(ctx context.Context, a *domain.ImpactAssessment) error {
	detail, err := json.Marshal(ImpactEvent{
		TargetNodeID:       a.TargetNodeID,
		ImpactScore:        a.ImpactSummary.EstimatedImpactScore,
		TotalAffectedNodes: a.ImpactSummary.TotalAffectedNodes,
		SeverityBreakdown:  a.ImpactSummary.SeverityBreakdown,
		SourceBreakdown:    a.ImpactSummary.SourceBreakdown,
		AssessedAt:         p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBus),
			Source:       aws.String(p.source),
			DetailType:   aws.String(DetailType),
			Detail:       aws.String(string(detail)),
			Resources:    []string{a.TargetNodeID},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, entry := range out.Entries {
			if entry.ErrorCode != nil {
				return fmt.Errorf("event rejected: %s: %s", aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
		return fmt.Errorf("%d events failed to publish", out.FailedEntryCount)
	}
	return nil
}
