// Package events publishes match lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	awsclient "program-matching/internal/common/aws"
	apperrors "program-matching/internal/common/errors"
	"program-matching/internal/matching"
	"program-matching/internal/models"
)

const TypeMatchesRecomputed = "matches.recomputed"

// MatchesRecomputed is emitted after a user's match set was replaced.
type MatchesRecomputed struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	OccurredAt       time.Time         `json:"occurredAt"`
	UserID           string            `json:"userId"`
	TotalPrograms    int               `json:"totalPrograms"`
	EligiblePrograms int               `json:"eligiblePrograms"`
	Stats            models.MatchStats `json:"stats"`
}

type Publisher interface {
	PublishMatchesRecomputed(ctx context.Context, result *matching.RecomputeResult) error
}

// SNSPublisher sends events to one SNS topic.
type SNSPublisher struct {
	client   awsclient.SNSAPI
	topicARN string
	now      func() time.Time
	newID    func() string
}

func NewSNSPublisher(client awsclient.SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (p *SNSPublisher) PublishMatchesRecomputed(ctx context.Context, result *matching.RecomputeResult) error {
	event := MatchesRecomputed{
		ID:               p.newID(),
		Type:             TypeMatchesRecomputed,
		OccurredAt:       p.now().UTC(),
		UserID:           result.UserID,
		TotalPrograms:    result.TotalPrograms,
		EligiblePrograms: result.EligiblePrograms,
		Stats:            result.Stats,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewEventPublishFailedError(TypeMatchesRecomputed, fmt.Errorf("encode event: %w", err))
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(TypeMatchesRecomputed)},
			"userId":    {DataType: aws.String("String"), StringValue: aws.String(result.UserID)},
		},
	})
	if err != nil {
		return apperrors.NewEventPublishFailedError(TypeMatchesRecomputed, err)
	}
	return nil
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishMatchesRecomputed(context.Context, *matching.RecomputeResult) error {
	return nil
}
