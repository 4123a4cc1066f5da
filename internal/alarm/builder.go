package alarm

import (
	"context"
	"log/slog"
	"maps"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/disk"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/tag"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm")

// Builder derives alarm candidates for a tagged resource.
type Builder interface {
	// Build returns the deduplicated candidate list for the resource. An
	// empty list with a nil error means the resource requested nothing
	// usable; an error means the run as a whole could not complete.
	Build(ctx context.Context, res *event.Resource) ([]Candidate, error)
}

// Discoverer lists the mounted volumes of an EC2 instance.
type Discoverer interface {
	Discover(ctx context.Context, instanceID string) ([]disk.Descriptor, error)
}

// ConfigBuilder implements Builder on top of the template catalog and the
// disk discovery agent.
type ConfigBuilder struct {
	store  catalog.Store
	disks  Discoverer
	cfg    *config.Config
	logger *slog.Logger
}

// NewConfigBuilder creates a ConfigBuilder.
func NewConfigBuilder(
	store catalog.Store,
	disks Discoverer,
	cfg *config.Config,
	logger *slog.Logger,
) *ConfigBuilder {
	return &ConfigBuilder{
		store:  store,
		disks:  disks,
		cfg:    cfg,
		logger: logger,
	}
}

// Build runs the derivation pipeline: normalize tags, discover disks when
// the resource asks for per-disk alarms, resolve each signal against the
// catalog and deduplicate by alarm name. Signals are processed in the
// normalizer's deterministic order, so first-wins deduplication is
// reproducible across runs.
func (b *ConfigBuilder) Build(ctx context.Context, res *event.Resource) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "alarm.build")
	defer span.End()
	span.SetAttributes(
		attribute.String("resource.service", res.Service),
		attribute.String("resource.id", res.ResourceID),
		attribute.String("resource.account", res.Account),
	)

	parsed := tag.Parse(res.Tags, b.cfg.Conventions())
	if parsed.Skipped > 0 {
		b.logger.WarnContext(
			ctx,
			"skipped malformed monitoring tags",
			slog.Int("count", parsed.Skipped),
			slog.String("resourceID", res.ResourceID),
		)
	}

	// Values carried on the event win; tag-derived values fill the gaps.
	identifier := res.Identifier
	if identifier == "" {
		identifier = parsed.Identifier
	}

	metadata := make(map[string]string, len(parsed.Metadata)+len(res.Metadata))
	maps.Copy(metadata, parsed.Metadata)
	maps.Copy(metadata, res.Metadata)

	if identifier == "" || res.ResourceID == "" {
		b.logger.WarnContext(
			ctx,
			"resource carries no identifier dimension; no alarms derived",
			slog.String("resourceID", res.ResourceID),
			slog.String("service", res.Service),
		)
		return nil, nil
	}

	rc := &runContext{
		res:        res,
		identifier: identifier,
		metadata:   metadata,
	}

	descriptors := b.discoverDisks(ctx, res, &parsed)

	seen := make(map[string]struct{})
	var out []Candidate

	keep := func(candidates []Candidate) {
		for _, c := range candidates {
			if _, dup := seen[c.AlarmName]; dup {
				b.logger.InfoContext(
					ctx,
					"duplicate alarm name; keeping first candidate",
					slog.String("alarmName", c.AlarmName),
				)
				continue
			}
			seen[c.AlarmName] = struct{}{}
			out = append(out, c)
		}
	}

	for _, sig := range parsed.Signals {
		candidates, err := b.resolve(ctx, sig, rc, nil)
		if err != nil {
			return nil, err
		}
		keep(candidates)
	}

	if len(parsed.DiskSignals) > 0 && len(descriptors) == 0 {
		b.logger.WarnContext(
			ctx,
			"disk signals present but no volumes discovered; skipping per-disk alarms",
			slog.Int("diskSignals", len(parsed.DiskSignals)),
			slog.String("resourceID", res.ResourceID),
		)
	} else {
		for _, sig := range parsed.DiskSignals {
			candidates, err := b.resolve(ctx, sig, rc, descriptors)
			if err != nil {
				return nil, err
			}
			keep(candidates)
		}
	}

	span.SetAttributes(attribute.Int("alarm.candidates", len(out)))

	return out, nil
}

// discoverDisks runs volume discovery when the resource both asks for
// per-disk alarms and can answer a remote command. Discovery failures
// degrade to zero disks; the rest of the pipeline proceeds.
func (b *ConfigBuilder) discoverDisks(ctx context.Context, res *event.Resource, parsed *tag.Result) []disk.Descriptor {
	if len(parsed.DiskSignals) == 0 {
		return nil
	}

	if res.Service != "ec2" || res.ResourceType != "instance" {
		b.logger.WarnContext(
			ctx,
			"disk signals on a resource that is not an instance; skipping discovery",
			slog.String("service", res.Service),
			slog.String("resourceType", res.ResourceType),
		)
		return nil
	}

	if !res.CloudWatch && !parsed.CloudWatch {
		b.logger.InfoContext(
			ctx,
			"cloudwatch agent not flagged on resource; skipping disk discovery",
			slog.String("resourceID", res.ResourceID),
		)
		return nil
	}

	descriptors, err := b.disks.Discover(ctx, res.ResourceID)
	if err != nil {
		b.logger.WarnContext(
			ctx,
			"disk discovery failed; continuing without per-disk alarms",
			slog.String("instanceID", res.ResourceID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	return descriptors
}
