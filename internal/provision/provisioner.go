// Package provision creates CloudWatch alarms in member accounts from built
// alarm configs.
package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision")

// CloudWatchAPI defines the CloudWatch operations required for provisioning.
type CloudWatchAPI interface {
	PutMetricAlarm(
		ctx context.Context,
		params *cloudwatch.PutMetricAlarmInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricAlarmOutput, error)

	DescribeAlarms(
		ctx context.Context,
		params *cloudwatch.DescribeAlarmsInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsOutput, error)

	TagResource(
		ctx context.Context,
		params *cloudwatch.TagResourceInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.TagResourceOutput, error)
}

// ClientFactory returns a CloudWatch client scoped to the member account and
// region the candidates target. The provisioner calls it once per run.
type ClientFactory func(ctx context.Context, account, region string) (CloudWatchAPI, error)

// Result summarizes one provisioning run by alarm name.
type Result struct {
	Created []string `json:"created"`
	Failed  []string `json:"failed"`
}

// Provisioner writes alarm candidates to the member account they target.
type Provisioner struct {
	newClient ClientFactory
	cfg       *config.Config
	logger    *slog.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(newClient ClientFactory, cfg *config.Config, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		newClient: newClient,
		cfg:       cfg,
		logger:    logger,
	}
}

// Provision creates or updates every candidate in the resource's account.
// PutMetricAlarm is idempotent on alarm name, so re-running a config updates
// alarms in place. Per-candidate failures are recorded in the result and the
// run continues; only failing to reach the account at all returns an error.
func (p *Provisioner) Provision(ctx context.Context, res *event.Resource, candidates []alarm.Candidate) (*Result, error) {
	ctx, span := tracer.Start(ctx, "provision.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("resource.account", res.Account),
		attribute.String("resource.id", res.ResourceID),
		attribute.Int("alarm.candidates", len(candidates)),
	)

	client, err := p.newClient(ctx, res.Account, res.Region)
	if err != nil {
		return nil, fmt.Errorf("cannot create cloudwatch client for account %s: %w", res.Account, err)
	}

	result := &Result{}

	for _, c := range candidates {
		if err := p.putAlarm(ctx, client, res, c); err != nil {
			p.logger.ErrorContext(
				ctx,
				"cannot provision alarm",
				slog.String("alarmName", c.AlarmName),
				slog.String("account", res.Account),
				slog.String("error", err.Error()),
			)
			result.Failed = append(result.Failed, c.AlarmName)
			continue
		}

		p.logger.InfoContext(
			ctx,
			"provisioned alarm",
			slog.String("alarmName", c.AlarmName),
			slog.String("account", res.Account),
		)
		result.Created = append(result.Created, c.AlarmName)
	}

	span.SetAttributes(
		attribute.Int("alarm.created", len(result.Created)),
		attribute.Int("alarm.failed", len(result.Failed)),
	)

	return result, nil
}

func (p *Provisioner) putAlarm(ctx context.Context, client CloudWatchAPI, res *event.Resource, c alarm.Candidate) error {
	input := &cloudwatch.PutMetricAlarmInput{
		AlarmName:          aws.String(c.AlarmName),
		AlarmDescription:   aws.String(c.Description),
		ComparisonOperator: types.ComparisonOperator(c.ComparisonOperator),
		MetricName:         aws.String(c.MetricName),
		Namespace:          aws.String(c.Namespace),
		Period:             aws.Int32(c.Period),
		EvaluationPeriods:  aws.Int32(c.EvaluationPeriods),
		DatapointsToAlarm:  aws.Int32(c.DatapointsToAlarm),
		Threshold:          aws.Float64(c.Threshold),
		TreatMissingData:   aws.String(c.TreatMissingData),
		ActionsEnabled:     aws.Bool(c.ActionsEnabled),
		OKActions:          c.AlarmActions,
		AlarmActions:       c.AlarmActions,
		Dimensions:         toCloudWatchDimensions(c.Dimensions),
	}

	// CloudWatch accepts exactly one of the two statistic forms.
	if c.ExtendedStatistic != "" {
		input.ExtendedStatistic = aws.String(c.ExtendedStatistic)
	} else {
		input.Statistic = types.Statistic(c.Statistic)
	}

	if c.Unit != "" {
		input.Unit = types.StandardUnit(c.Unit)
	}

	if _, err := client.PutMetricAlarm(ctx, input); err != nil {
		return fmt.Errorf("cannot put metric alarm: %w", err)
	}

	return p.tagAlarm(ctx, client, res, c)
}

// tagAlarm attaches the provenance tags. PutMetricAlarm does not return the
// alarm ARN, so the alarm is described first.
func (p *Provisioner) tagAlarm(ctx context.Context, client CloudWatchAPI, res *event.Resource, c alarm.Candidate) error {
	out, err := client.DescribeAlarms(ctx, &cloudwatch.DescribeAlarmsInput{
		AlarmNames: []string{c.AlarmName},
		MaxRecords: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("cannot describe alarm %q: %w", c.AlarmName, err)
	}

	if len(out.MetricAlarms) == 0 {
		return fmt.Errorf("alarm %q not found after creation", c.AlarmName)
	}

	arn := aws.ToString(out.MetricAlarms[0].AlarmArn)

	_, err = client.TagResource(ctx, &cloudwatch.TagResourceInput{
		ResourceARN: aws.String(arn),
		Tags:        p.provenanceTags(res, c),
	})
	if err != nil {
		return fmt.Errorf("cannot tag alarm %q: %w", c.AlarmName, err)
	}

	return nil
}

func (p *Provisioner) provenanceTags(res *event.Resource, c alarm.Candidate) []types.Tag {
	prefix := p.cfg.TagNamespace + ":alarm:"

	return []types.Tag{
		{Key: aws.String(prefix + "name"), Value: aws.String(c.AlarmName)},
		{Key: aws.String(prefix + "description"), Value: aws.String(c.Description)},
		{Key: aws.String(prefix + "service"), Value: aws.String(res.Service)},
		{Key: aws.String(prefix + "type"), Value: aws.String(res.ResourceType)},
		{Key: aws.String(prefix + "identifier"), Value: aws.String(res.ResourceID)},
		{Key: aws.String(prefix + "namespace"), Value: aws.String(c.Namespace)},
		{Key: aws.String(prefix + "metric"), Value: aws.String(c.MetricName)},
		{Key: aws.String(prefix + "criticality"), Value: aws.String(c.Criticality)},
	}
}

func toCloudWatchDimensions(dims []catalog.Dimension) []types.Dimension {
	out := make([]types.Dimension, 0, len(dims))
	for _, d := range dims {
		out = append(out, types.Dimension{
			Name:  aws.String(d.Name),
			Value: aws.String(d.Value),
		})
	}
	return out
}
