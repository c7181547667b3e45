package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Message attributes carried on fallback notifications.
const (
	AttrRecordID = "record_id"
	AttrReason   = "reason"
	AttrSite     = "site"
)

// Publisher sends fallback notifications to one SQS queue.
type Publisher struct {
	client   SQSAPI
	queueURL string
}

// NewPublisher returns a Publisher bound to queueURL.
func NewPublisher(client SQSAPI, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// SendJSON marshals v and publishes it with attrs.
func (p *Publisher) SendJSON(ctx context.Context, v any, attrs map[string]string) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.Send(ctx, string(body), attrs)
}

// Send publishes body. Attributes with empty values are dropped since SQS
// rejects them.
func (p *Publisher) Send(ctx context.Context, body string, attrs map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &body,
	}
	for k, v := range attrs {
		if v == "" {
			continue
		}
		if input.MessageAttributes == nil {
			input.MessageAttributes = map[string]sqstypes.MessageAttributeValue{}
		}
		input.MessageAttributes[k] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(v),
		}
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message to %s: %w", p.queueURL, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
