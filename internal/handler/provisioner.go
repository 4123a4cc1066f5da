package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision"
)

// Provisioner writes candidates to the member account they target.
type Provisioner interface {
	Provision(ctx context.Context, res *event.Resource, candidates []alarm.Candidate) (*provision.Result, error)
}

// Notifier sends the per-run ops summary. A nil Notifier disables summaries.
type Notifier interface {
	NotifyResult(ctx context.Context, res *event.Resource, result *provision.Result) error
}

type ProvisionerHandler struct {
	provisioner Provisioner
	notifier    Notifier
	logger      *slog.Logger
}

func NewProvisionerHandler(provisioner Provisioner, notifier Notifier, logger *slog.Logger) *ProvisionerHandler {
	return &ProvisionerHandler{
		provisioner: provisioner,
		notifier:    notifier,
		logger:      logger,
	}
}

func (h *ProvisionerHandler) HandleRequest(ctx context.Context, evt events.CloudWatchEvent) error {
	var built alarm.BuiltConfig

	if err := json.Unmarshal(evt.Detail, &built); err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot parse event detail",
			slog.String("error", err.Error()),
		)
		return err
	}

	if err := built.Resource.Validate(); err != nil {
		h.logger.ErrorContext(
			ctx,
			"invalid built config",
			slog.String("error", err.Error()),
		)
		return err
	}

	if len(built.Candidates) == 0 {
		h.logger.InfoContext(
			ctx,
			"built config carries no candidates; nothing to provision",
			slog.String("resourceID", built.Resource.ResourceID),
		)
		return nil
	}

	result, err := h.provisioner.Provision(ctx, &built.Resource, built.Candidates)
	if err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot provision alarms",
			slog.String("resourceID", built.Resource.ResourceID),
			slog.String("error", err.Error()),
		)
		return err
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyResult(ctx, &built.Resource, result); err != nil {
			h.logger.WarnContext(
				ctx,
				"cannot send ops summary",
				slog.String("resourceID", built.Resource.ResourceID),
				slog.String("error", err.Error()),
			)
		}
	}

	// Partial failures surface as a handler error after the summary goes
	// out, so the bus retry policy can replay the config.
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d alarms failed to provision", len(result.Failed), len(built.Candidates))
	}

	return nil
}
