package disk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ErrDiscoveryTimeout indicates the SSM command did not reach a terminal
// state before the configured deadline.
var ErrDiscoveryTimeout = errors.New("disk discovery timed out")

// clock abstracts time so the poll loop can be tested without sleeping.
type clock struct {
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func realClock() clock {
	return clock{
		now: time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

// waitForCommand polls the invocation until it reaches a terminal status or
// the deadline passes. An invocation that does not exist yet is transient:
// SSM takes a moment to register it after SendCommand.
func (d *Discoverer) waitForCommand(ctx context.Context, commandID, instanceID string) (string, error) {
	deadline := d.clock.now().Add(d.timeout)

	for {
		out, err := d.ssm.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
			CommandId:  aws.String(commandID),
			InstanceId: aws.String(instanceID),
		})

		switch {
		case err == nil:
			switch out.Status {
			case types.CommandInvocationStatusSuccess:
				return aws.ToString(out.StandardOutputContent), nil
			case types.CommandInvocationStatusFailed,
				types.CommandInvocationStatusCancelled,
				types.CommandInvocationStatusTimedOut:
				return "", fmt.Errorf("command %s on %s ended with status %s: %s",
					commandID, instanceID, out.Status, aws.ToString(out.StandardErrorContent))
			}
		case !invocationPending(err):
			return "", fmt.Errorf("cannot get invocation %s on %s: %w", commandID, instanceID, err)
		}

		if d.clock.now().After(deadline) {
			return "", fmt.Errorf("command %s on %s: %w", commandID, instanceID, ErrDiscoveryTimeout)
		}

		if err := d.clock.sleep(ctx, d.poll); err != nil {
			return "", fmt.Errorf("disk discovery interrupted: %w", err)
		}
	}
}

func invocationPending(err error) bool {
	var notFound *types.InvocationDoesNotExist
	return errors.As(err, &notFound)
}
