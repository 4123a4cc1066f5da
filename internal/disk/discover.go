package disk

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/disk")

const (
	linuxDocument = "AWS-RunShellScript"
	// df output: filesystem fstype 1K-blocks used available use% mounted_on
	linuxCommand = "df -T -P | tail -n +2 | awk '{print $1,$2,$7}'"

	windowsDocument = "AWS-RunPowerShellScript"
	windowsCommand  = "Get-PSDrive -PSProvider FileSystem | ForEach-Object { $_.Name }"
)

// SSMAPI defines the SSM operations required for disk discovery.
type SSMAPI interface {
	SendCommand(
		ctx context.Context,
		params *ssm.SendCommandInput,
		optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)

	GetCommandInvocation(
		ctx context.Context,
		params *ssm.GetCommandInvocationInput,
		optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// EC2API defines the EC2 operations required for disk discovery.
type EC2API interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2.DescribeInstancesInput,
		optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Discoverer enumerates the mounted volumes of an EC2 instance by running a
// platform-specific command through SSM and polling for its output.
type Discoverer struct {
	ssm     SSMAPI
	ec2     EC2API
	poll    time.Duration
	timeout time.Duration
	logger  *slog.Logger
	clock   clock
}

// NewDiscoverer creates a Discoverer polling every pollInterval until timeout.
func NewDiscoverer(
	ssmClient SSMAPI,
	ec2Client EC2API,
	pollInterval, timeout time.Duration,
	logger *slog.Logger,
) *Discoverer {
	return &Discoverer{
		ssm:     ssmClient,
		ec2:     ec2Client,
		poll:    pollInterval,
		timeout: timeout,
		logger:  logger,
		clock:   realClock(),
	}
}

// Discover returns the volumes mounted on the instance. It determines the
// platform first, then runs the matching discovery command and parses its
// standard output.
func (d *Discoverer) Discover(ctx context.Context, instanceID string) ([]Descriptor, error) {
	ctx, span := tracer.Start(ctx, "disk.discover")
	defer span.End()
	span.SetAttributes(attribute.String("instance.id", instanceID))

	platform, err := d.lookupPlatform(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("cannot determine platform for %s: %w", instanceID, err)
	}
	span.SetAttributes(attribute.String("instance.platform", string(platform)))

	document, command := linuxDocument, linuxCommand
	if platform == Windows {
		document, command = windowsDocument, windowsCommand
	}

	out, err := d.ssm.SendCommand(ctx, &ssm.SendCommandInput{
		InstanceIds:  []string{instanceID},
		DocumentName: aws.String(document),
		Parameters:   map[string][]string{"commands": {command}},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot send %s command to %s: %w", document, instanceID, err)
	}

	commandID := aws.ToString(out.Command.CommandId)

	stdout, err := d.waitForCommand(ctx, commandID, instanceID)
	if err != nil {
		return nil, err
	}

	var disks []Descriptor
	if platform == Windows {
		disks = parseWindows(stdout)
	} else {
		disks = d.parseLinux(ctx, stdout)
	}

	d.logger.InfoContext(ctx, "discovered volumes",
		slog.String("instanceID", instanceID),
		slog.String("platform", string(platform)),
		slog.Int("count", len(disks)))

	return disks, nil
}

func (d *Discoverer) lookupPlatform(ctx context.Context, instanceID string) (Platform, error) {
	out, err := d.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", err
	}

	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return "", fmt.Errorf("instance %s not found", instanceID)
	}

	if out.Reservations[0].Instances[0].Platform == ec2types.PlatformValuesWindows {
		return Windows, nil
	}
	return Linux, nil
}

// parseLinux converts df output lines into descriptors. Each line carries
// exactly three fields: device path, filesystem type and mount path.
func (d *Discoverer) parseLinux(ctx context.Context, output string) []Descriptor {
	var disks []Descriptor

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			d.logger.WarnContext(ctx, "skipping malformed df line", slog.String("line", line))
			continue
		}

		disks = append(disks, Descriptor{
			Platform:   Linux,
			Device:     path.Base(fields[0]),
			Filesystem: fields[1],
			Path:       fields[2],
		})
	}

	return disks
}

// parseWindows reads one drive letter per line.
func parseWindows(output string) []Descriptor {
	var disks []Descriptor

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		disks = append(disks, Descriptor{Platform: Windows, Letter: line})
	}

	return disks
}
