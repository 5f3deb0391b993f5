package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/sungwon/notify-mailer/internal/metrics"
)

// sqsAPI is the subset of the SQS client used by SQSPublisher.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends events to an SQS queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
}

// NewSQSPublisher creates an SQSPublisher targeting queueURL.
func NewSQSPublisher(client sqsAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

// NewSQSPublisherFromConfig builds a real SQS client for region. endpoint
// overrides the service endpoint for LocalStack.
func NewSQSPublisherFromConfig(ctx context.Context, queueURL, region, endpoint string) (*SQSPublisher, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("events: sqs queue url is empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	var optFns []func(*sqs.Options)
	if endpoint != "" {
		optFns = append(optFns, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return NewSQSPublisher(sqs.NewFromConfig(cfg, optFns...), queueURL), nil
}

// Publish serializes the event and sends it via SendMessage. It returns the
// SQS message ID.
func (p *SQSPublisher) Publish(ctx context.Context, ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(data)),
	})
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("sqs send message: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues("success").Inc()
	return aws.ToString(out.MessageId), nil
}
