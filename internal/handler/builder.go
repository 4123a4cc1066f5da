// Package handler wires the Lambda entrypoints to the pipeline components.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
)

// Publisher sends pipeline events onto the chaining bus.
type Publisher interface {
	Publish(ctx context.Context, detailType string, detail any) error
}

type BuilderHandler struct {
	builder   alarm.Builder
	publisher Publisher
	logger    *slog.Logger
}

func NewBuilderHandler(builder alarm.Builder, publisher Publisher, logger *slog.Logger) *BuilderHandler {
	return &BuilderHandler{
		builder:   builder,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *BuilderHandler) HandleRequest(ctx context.Context, evt events.CloudWatchEvent) error {
	var res event.Resource

	if err := json.Unmarshal(evt.Detail, &res); err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot parse event detail",
			slog.String("error", err.Error()),
		)
		return err
	}

	// Upstream normalizers may omit fields the bus envelope already carries.
	if res.Account == "" {
		res.Account = evt.AccountID
	}
	if res.Region == "" {
		res.Region = evt.Region
	}

	if err := res.Validate(); err != nil {
		h.logger.ErrorContext(
			ctx,
			"invalid resource event",
			slog.String("error", err.Error()),
		)
		return err
	}

	candidates, err := h.builder.Build(ctx, &res)
	if err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot build alarm config",
			slog.String("resourceID", res.ResourceID),
			slog.String("error", err.Error()),
		)
		return err
	}

	if len(candidates) == 0 {
		h.logger.InfoContext(
			ctx,
			"no alarm candidates derived; nothing to publish",
			slog.String("resourceID", res.ResourceID),
		)
		return nil
	}

	built := &alarm.BuiltConfig{Resource: res, Candidates: candidates}

	if err := h.publisher.Publish(ctx, alarm.DetailTypeConfigBuilt, built); err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot publish built config",
			slog.String("resourceID", res.ResourceID),
			slog.String("error", err.Error()),
		)
		return err
	}

	h.logger.InfoContext(
		ctx,
		"published alarm config",
		slog.String("resourceID", res.ResourceID),
		slog.Int("candidates", len(candidates)),
	)

	return nil
}
