package alarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/disk"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/tag"
)

// runContext is the per-invocation state shared by every signal resolution:
// the resource under derivation plus its merged identifier and metadata.
type runContext struct {
	res        *event.Resource
	identifier string
	metadata   map[string]string
}

// resolve turns one signal into zero or more candidates. Data-quality
// problems (missing template, unusable threshold) skip the signal with a log
// line and return no error; only missing resource context propagates, since
// that invalidates the whole run.
func (b *ConfigBuilder) resolve(ctx context.Context, sig tag.Signal, rc *runContext, disks []disk.Descriptor) ([]Candidate, error) {
	tmpl, err := b.store.Get(ctx, sig.Service, sig.Metric)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			b.logger.WarnContext(
				ctx,
				"no template for signal; skipping",
				slog.String("service", sig.Service),
				slog.String("metric", sig.Metric),
			)
			return nil, nil
		}
		b.logger.ErrorContext(
			ctx,
			"cannot load template; skipping signal",
			slog.String("service", sig.Service),
			slog.String("metric", sig.Metric),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	threshold, criticality, err := resolveThreshold(tmpl, sig)
	if err != nil {
		b.logger.WarnContext(
			ctx,
			"cannot resolve threshold; skipping signal",
			slog.String("tagKey", sig.Key),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	bound, dropped := bindDimensions(tmpl, rc.identifier, rc.res.ResourceID, rc.metadata)
	for _, d := range dropped {
		b.logger.InfoContext(
			ctx,
			"dropped unresolved dimension",
			slog.String("dimension", d.Name),
			slog.String("service", sig.Service),
			slog.String("metric", sig.Metric),
		)
	}

	topicARN, err := buildActionTopicARN(b.cfg.Partition, b.cfg.TopicPrefix, rc.res, sig.Priority)
	if err != nil {
		return nil, err
	}

	base := newCandidate(tmpl, sig, threshold, criticality)
	base.AlarmActions = []string{topicARN}

	if len(disks) == 0 {
		base.Dimensions = bound

		name, err := buildAlarmName(rc.res, sig.Metric, criticality, bound)
		if err != nil {
			return nil, err
		}
		base.AlarmName = name

		return []Candidate{base}, nil
	}

	// Disk fan-out: one candidate per discovered volume, identical except for
	// the volume dimensions and the name qualifier they produce.
	candidates := make([]Candidate, 0, len(disks))
	for _, d := range disks {
		dims := make([]catalog.Dimension, 0, len(bound)+3)
		dims = append(dims, bound...)
		dims = append(dims, diskDimensions(d)...)

		name, err := buildAlarmName(rc.res, sig.Metric, criticality, dims)
		if err != nil {
			return nil, err
		}

		c := base
		c.Dimensions = dims
		c.AlarmName = name
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// resolveThreshold decides the candidate's threshold and criticality label.
// The literal tag value "true" (any casing) selects the template tier for the
// signal's priority; any other value is an operator override that must parse
// as a number and keeps the priority token as criticality.
func resolveThreshold(tmpl *catalog.Template, sig tag.Signal) (float64, string, error) {
	if strings.EqualFold(sig.RawValue, "true") {
		tier, ok := tmpl.Tier(sig.Priority)
		if !ok {
			return 0, "", fmt.Errorf("no %s threshold tier for %s/%s", sig.Priority, sig.Service, sig.Metric)
		}
		return tier.Value, tier.Criticality, nil
	}

	value, err := strconv.ParseFloat(sig.RawValue, 64)
	if err != nil {
		return 0, "", fmt.Errorf("threshold override %q for %s/%s is not a number", sig.RawValue, sig.Service, sig.Metric)
	}

	return value, sig.Priority, nil
}

// bindDimensions resolves the template's dimension placeholders against the
// resource. A dimension named after the identifier takes the resource id,
// one named in the metadata map takes the override, and anything still
// carrying no value or its own name as value is dropped.
func bindDimensions(tmpl *catalog.Template, identifier, resourceID string, metadata map[string]string) (bound, dropped []catalog.Dimension) {
	for _, d := range tmpl.Dimensions {
		switch {
		case d.Name == identifier:
			d.Value = resourceID
		default:
			if override, ok := metadata[d.Name]; ok {
				d.Value = override
			}
		}

		if d.Value == "" || d.Value == d.Name {
			dropped = append(dropped, d)
			continue
		}
		bound = append(bound, d)
	}

	return bound, dropped
}

// diskDimensions converts a discovered volume into the dimensions its
// per-disk candidate carries.
func diskDimensions(d disk.Descriptor) []catalog.Dimension {
	if d.Platform == disk.Windows {
		return []catalog.Dimension{
			{Name: disk.DimLogicalDisk, Value: d.Letter},
		}
	}

	return []catalog.Dimension{
		{Name: disk.DimDevice, Value: d.Device},
		{Name: disk.DimFilesystem, Value: d.Filesystem},
		{Name: disk.DimPath, Value: d.Path},
	}
}
