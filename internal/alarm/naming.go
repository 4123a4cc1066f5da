package alarm

import (
	"fmt"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/disk"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
)

// buildAlarmName derives the deterministic alarm name. Two runs over the
// same resource and tags must produce the same name: name equality is what
// deduplicates candidates within a run and what makes re-provisioning
// overwrite instead of duplicate.
//
// Shape: {alias}-{account}-{service}-{resourceType}-{resourceID}-{metric}-Severity: {criticality}
// with the volume qualifier spliced in as -'{path}' for per-disk alarms.
func buildAlarmName(res *event.Resource, metric, criticality string, dims []catalog.Dimension) (string, error) {
	if res.Account == "" || res.ResourceID == "" {
		return "", fmt.Errorf("cannot build alarm name for metric %s: account and resource id are required", metric)
	}

	if qualifier := diskQualifier(dims); qualifier != "" {
		return fmt.Sprintf("%s-%s-%s-%s-%s-%s-'%s'-Severity: %s",
			res.AccountAlias, res.Account, res.Service, res.ResourceType,
			res.ResourceID, metric, qualifier, criticality), nil
	}

	return fmt.Sprintf("%s-%s-%s-%s-%s-%s-Severity: %s",
		res.AccountAlias, res.Account, res.Service, res.ResourceType,
		res.ResourceID, metric, criticality), nil
}

// buildActionTopicARN derives the notification topic for a priority tier.
// One topic exists per priority and region; the same ARN serves both the
// alarm and OK actions.
func buildActionTopicARN(partition, topicPrefix string, res *event.Resource, priority string) (string, error) {
	if res.Region == "" || res.Account == "" {
		return "", fmt.Errorf("cannot build action topic ARN for priority %s: region and account are required", priority)
	}

	return fmt.Sprintf("arn:%s:sns:%s:%s:%s%s-%s",
		partition, res.Region, res.Account, topicPrefix, priority, res.Region), nil
}

// diskQualifier returns the value of the volume-identifying dimension, the
// mount path on Linux or the drive letter on Windows. Empty for candidates
// that did not fan out per disk.
func diskQualifier(dims []catalog.Dimension) string {
	for _, d := range dims {
		if d.Name == disk.DimPath || d.Name == disk.DimLogicalDisk {
			return d.Value
		}
	}
	return ""
}
