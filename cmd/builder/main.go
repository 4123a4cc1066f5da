package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/disk"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/handler"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/publish"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/telemetry"
)

func main() {
	startTime := time.Now()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	logger.Info("starting alarm config builder")

	cfg, err := config.LoadBuilder()
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

	store := catalog.NewDynamoDB(dynamodb.NewFromConfig(awsCfg), cfg.AlarmTableName)
	discoverer := disk.NewDiscoverer(
		ssm.NewFromConfig(awsCfg),
		ec2.NewFromConfig(awsCfg),
		cfg.DiscoveryPollInterval,
		cfg.DiscoveryTimeout,
		logger,
	)
	builder := alarm.NewConfigBuilder(store, discoverer, cfg, logger)
	publisher := publish.NewPublisher(eventbridge.NewFromConfig(awsCfg), cfg.EventBusName)

	tp, err := telemetry.NewTracerProvider(ctx, "alarm-config-builder")
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
		"started alarm config builder",
		slog.String("table", cfg.AlarmTableName),
		slog.String("eventBus", cfg.EventBusName),
		slog.Float64("initDurationSec", time.Since(startTime).Seconds()),
	)

	h := handler.NewBuilderHandler(builder, publisher, logger)
	lambda.Start(
		otellambda.InstrumentHandler(
			h.HandleRequest,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp)),
	)
}
