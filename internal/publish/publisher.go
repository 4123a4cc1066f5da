// Package publish sends built alarm configs onto the EventBridge bus that
// chains the builder to the provisioner.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/publish")

// Source identifies this pipeline as the event producer.
const Source = "cloudwatch.alarm.provisioner"

// EventBridgeAPI defines required EventBridge operations.
type EventBridgeAPI interface {
	PutEvents(
		ctx context.Context,
		params *eventbridge.PutEventsInput,
		optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher publishes pipeline events to EventBridge.
type Publisher struct {
	client       EventBridgeAPI
	eventBusName string
}

// NewPublisher creates a new EventBridge publisher.
func NewPublisher(client EventBridgeAPI, eventBusName string) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
	}
}

// Publish marshals detail and puts it on the bus under the given detail
// type. A rejected entry is reported as an error even when PutEvents itself
// succeeds.
func (p *Publisher) Publish(ctx context.Context, detailType string, detail any) error {
	ctx, span := tracer.Start(ctx, "publish.eventbridge")
	defer span.End()
	span.SetAttributes(
		attribute.String("eventbus.name", p.eventBusName),
		attribute.String("event.detailType", detailType),
	)

	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("cannot marshal event detail: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Detail:       aws.String(string(payload)),
			DetailType:   aws.String(detailType),
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
		}},
	}

	out, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("cannot put event: %w", err)
	}

	if out.FailedEntryCount > 0 {
		entry := out.Entries[0]
		return fmt.Errorf("event rejected: %s - %s",
			aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}

	return nil
}
