package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog")

// ErrNotFound indicates no template exists for a service/metric pair.
var ErrNotFound = errors.New("alarm template not found")

// Store loads alarm templates by service and metric name.
type Store interface {
	// Get returns the template for the pair, ErrNotFound when the table has
	// no matching item, or another error for storage and decoding failures.
	Get(ctx context.Context, service, metric string) (*Template, error)
}

// DynamoDBAPI defines the DynamoDB operations required by the catalog.
type DynamoDBAPI interface {
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDB is a Store backed by a table keyed on (service, metric_name).
type DynamoDB struct {
	client    DynamoDBAPI
	tableName string
}

// NewDynamoDB creates a DynamoDB-backed template store.
func NewDynamoDB(client DynamoDBAPI, tableName string) *DynamoDB {
	return &DynamoDB{
		client:    client,
		tableName: tableName,
	}
}

// Get fetches and validates a template. Templates are validated at load time
// so that defects surface before any alarm is derived from them.
func (d *DynamoDB) Get(ctx context.Context, service, metric string) (*Template, error) {
	ctx, span := tracer.Start(ctx, "catalog.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("catalog.service", service),
		attribute.String("catalog.metric", metric),
	)

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"service":     &types.AttributeValueMemberS{Value: service},
			"metric_name": &types.AttributeValueMemberS{Value: metric},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot get template %s/%s: %w", service, metric, err)
	}

	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var tmpl Template
	if err := attributevalue.UnmarshalMap(out.Item, &tmpl); err != nil {
		return nil, fmt.Errorf("cannot unmarshal template %s/%s: %w", service, metric, err)
	}

	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid template %s/%s: %w", service, metric, err)
	}

	return &tmpl, nil
}
