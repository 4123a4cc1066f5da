package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/handler"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/identity"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/notify"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/telemetry"
)

func main() {
	startTime := time.Now()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	logger.Info("starting alarm provisioner")

	cfg, err := config.LoadProvisioner()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("cannot load aws config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	// PutMetricAlarm throttles aggressively on bulk runs, so the member
	// account client retries harder than the SDK default.
	newClient := func(_ context.Context, account, region string) (provision.CloudWatchAPI, error) {
		roleARN := identity.RoleARN(cfg.Partition, account, cfg.ProvisionRoleName, region)
		assumed := identity.Assume(awsCfg, roleARN, cfg.SessionName, region)

		return cloudwatch.NewFromConfig(assumed, func(o *cloudwatch.Options) {
			o.Retryer = retry.NewStandard(func(so *retry.StandardOptions) {
				so.MaxAttempts = 10
			})
		}), nil
	}

	provisioner := provision.NewProvisioner(newClient, cfg, logger)

	var notifier handler.Notifier
	if cfg.OpsTopicARN != "" {
		notifier = notify.NewSNS(sns.NewFromConfig(awsCfg), cfg.OpsTopicARN)
	}

	tp, err := telemetry.NewTracerProvider(ctx, "alarm-provisioner")
	if err != nil {
		logger.Error("cannot initialize tracer provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("cannot shutdown tracer provider", slog.String("error", err.Error()))
		}
	}()

	logger.Info(
		"started alarm provisioner",
		slog.String("role", cfg.ProvisionRoleName),
		slog.Bool("opsNotifications", cfg.OpsTopicARN != ""),
		slog.Float64("initDurationSec", time.Since(startTime).Seconds()),
	)

	h := handler.NewProvisionerHandler(provisioner, notifier, logger)
	lambda.Start(
		otellambda.InstrumentHandler(
			h.HandleRequest,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp)),
	)
}
