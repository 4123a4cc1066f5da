// Package notify publishes per-run provisioning summaries to the ops topic.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision"
)

// FormatResult renders one provisioning run as a human-readable text message.
func FormatResult(res *event.Resource, result *provision.Result, timestamp time.Time) string {
	var msg strings.Builder

	msg.WriteString("Alarm provisioning summary for ")
	msg.WriteString(res.ResourceID)
	fmt.Fprintf(&msg, " (%s/%s)\n", res.Service, res.ResourceType)
	fmt.Fprintf(&msg, "Account: %s (%s)\n", res.Account, res.AccountAlias)
	fmt.Fprintf(&msg, "Region: %s\n\n", res.Region)

	if len(result.Created) == 0 {
		msg.WriteString("No alarms created.\n")
	} else {
		fmt.Fprintf(&msg, "Created %d alarm(s):\n", len(result.Created))
		for i, name := range result.Created {
			fmt.Fprintf(&msg, "%d. %s\n", i+1, name)
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(&msg, "\nFailed %d alarm(s):\n", len(result.Failed))
		for i, name := range result.Failed {
			fmt.Fprintf(&msg, "%d. %s\n", i+1, name)
		}
	}

	fmt.Fprintf(&msg, "\nTimestamp: %s", timestamp.Format(time.RFC3339))

	return msg.String()
}
