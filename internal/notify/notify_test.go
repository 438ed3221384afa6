package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

type fakeEventBridge struct {
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

type observed struct{ errs []error }

func (o *observed) ObserveNotification(err error) { o.errs = append(o.errs, err) }

func assessment(score int) *domain.ImpactAssessment {
	return &domain.ImpactAssessment{
		TargetNodeID: "HH@id@934",
		ImpactSummary: domain.ImpactSummary{
			TotalAffectedNodes:   12,
			SourceBreakdown:      map[string]int{"SCR": 12},
			SeverityBreakdown:    map[domain.ImpactLevel]int{domain.ImpactCritical: 12},
			EstimatedImpactScore: score,
		},
	}
}

func TestPublisherThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		score     int
		published bool
	}{
		{"Should skip below the default threshold", 0, 79, false},
		{"Should publish at the default threshold", 0, 80, true},
		{"Should honour a custom threshold", 50, 55, true},
		{"Should skip below a custom threshold", 50, 49, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventBridge{}
			p := NewPublisher(fake, "", tt.threshold, nil, nil)
			p.ImpactAssessed(context.Background(), assessment(tt.score))
			assert.Equal(t, tt.published, len(fake.inputs) == 1)
		})
	}
}

func TestPublisherEventShape(t *testing.T) {
	fake := &fakeEventBridge{}
	obs := &observed{}
	p := NewPublisher(fake, "impact-bus", 0, obs, nil)
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	p.ImpactAssessed(context.Background(), assessment(100))

	require.Len(t, fake.inputs, 1)
	entry := fake.inputs[0].Entries[0]
	assert.Equal(t, "impact-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, DetailType, aws.ToString(entry.DetailType))
	assert.Equal(t, DefaultSource, aws.ToString(entry.Source))

	var ev ImpactEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &ev))
	assert.Equal(t, "HH@id@934", ev.TargetNodeID)
	assert.Equal(t, 100, ev.ImpactScore)
	assert.Equal(t, 12, ev.SeverityBreakdown[domain.ImpactCritical])
	assert.Equal(t, 2026, ev.AssessedAt.Year())

	require.Len(t, obs.errs, 1)
	assert.NoError(t, obs.errs[0])
}

func TestPublisherSwallowsFailures(t *testing.T) {
	t.Run("Should swallow API errors", func(t *testing.T) {
		obs := &observed{}
		p := NewPublisher(&fakeEventBridge{err: errors.New("throttled")}, "", 0, obs, nil)
		assert.NotPanics(t, func() { p.ImpactAssessed(context.Background(), assessment(90)) })
		require.Len(t, obs.errs, 1)
		assert.Error(t, obs.errs[0])
	})

	t.Run("Should report rejected entries", func(t *testing.T) {
		obs := &observed{}
		fake := &fakeEventBridge{out: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")}},
		}}
		NewPublisher(fake, "", 0, obs, nil).ImpactAssessed(context.Background(), assessment(90))
		require.Len(t, obs.errs, 1)
		assert.ErrorContains(t, obs.errs[0], "InternalFailure")
	})

	t.Run("Should ignore nil assessments", func(t *testing.T) {
		fake := &fakeEventBridge{}
		NewPublisher(fake, "", 0, nil, nil).ImpactAssessed(context.Background(), nil)
		assert.Empty(t, fake.inputs)
	})
}
