package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/notify")

// SNSAPI defines required SNS operations.
type SNSAPI interface {
	Publish(
		ctx context.Context,
		input *sns.PublishInput,
		optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS sends provisioning summaries to an SNS topic.
type SNS struct {
	client   SNSAPI
	topicARN string
}

// NewSNS creates a new SNS sender.
func NewSNS(client SNSAPI, topicARN string) *SNS {
	return &SNS{
		client:   client,
		topicARN: topicARN,
	}
}

// NotifyResult publishes the run summary for a resource to the ops topic.
func (s *SNS) NotifyResult(ctx context.Context, res *event.Resource, result *provision.Result) error {
	ctx, span := tracer.Start(ctx, "notify.sns")
	defer span.End()
	span.SetAttributes(
		attribute.String("sns.topic_arn", s.topicARN),
		attribute.String("resource.id", res.ResourceID),
	)

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String("Alarm Provisioning - " + res.ResourceID),
		Message:  aws.String(FormatResult(res, result, time.Now())),
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("cannot publish to SNS: %w", err)
	}

	return nil
}
