package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// OwnerAttribute is the message attribute subscriptions filter on.
const OwnerAttribute = "UserID"

// SNSAPI is the subset of the SNS client used by Publisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error)
}

// Publisher publishes claim emails to one topic.
type Publisher struct {
	api      SNSAPI
	topicARN string
}

// NewPublisher returns a Publisher for topicARN.
func NewPublisher(api SNSAPI, topicARN string) *Publisher {
	return &Publisher{api: api, topicARN: topicARN}
}

// Publish sends the submission email for c, tagged with its owner so only
// the owner's subscription receives it. It returns the message id.
func (p *Publisher) Publish(ctx context.Context, c models.Claim) (string, error) {
	if c.UserID == "" {
		return "", apperr.Validation("claim has no owner")
	}
	email := FormatEmail(c)
	out, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(email.Subject),
		Message:  aws.String(email.Body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			OwnerAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(c.UserID),
			},
		},
	})
	if err != nil {
		return "", apperr.Provider(err)
	}
	return aws.ToString(out.MessageId), nil
}

// Subscribe registers email on the topic with a filter policy matching
// only messages about subject's claims.
func (p *Publisher) Subscribe(ctx context.Context, email, subject string) error {
	policy, err := FilterPolicy(subject)
	if err != nil {
		return err
	}
	if _, err := p.api.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(p.topicARN),
		Protocol: aws.String("email"),
		Endpoint: aws.String(email),
		Attributes: map[string]string{
			"FilterPolicy": policy,
		},
	}); err != nil {
		return apperr.Provider(err)
	}
	return nil
}

// FilterPolicy builds the subscription filter for subject.
func FilterPolicy(subject string) (string, error) {
	b, err := json.Marshal(map[string][]string{OwnerAttribute: {subject}})
	if err != nil {
		return "", fmt.Errorf("marshal filter policy: %w", err)
	}
	return string(b), nil
}
