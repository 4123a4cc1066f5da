// Package config loads the runtime configuration for both Lambda entrypoints.
package config

import (
	"fmt"
	"time"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/env"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/tag"
)

// Config holds every setting the alarm pipeline reads from the environment.
// It is built once at startup and passed around by value semantics; nothing
// mutates it afterwards.
type Config struct {
	AWSRegion string

	// Tag conventions. TagNamespace is the organization prefix all reserved
	// tag families hang off (e.g. "rebura" for rebura:monitor:...).
	TagNamespace      string
	MonitorTag        string
	IdentifierTag     string
	DimensionsTag     string
	CloudWatchTag     string
	LinuxDiskMetric   string
	WindowsDiskMetric string

	// Alarm template catalog.
	AlarmTableName string

	// Alarm action routing.
	TopicPrefix string
	Partition   string

	// Builder output bus.
	EventBusName string

	// Provisioner member-account access and ops notification.
	ProvisionRoleName string
	SessionName       string
	OpsTopicARN       string

	// Disk discovery polling.
	DiscoveryPollInterval time.Duration
	DiscoveryTimeout      time.Duration
}

// Conventions returns the tag-grammar view of the configuration consumed by
// the tag normalizer.
func (c *Config) Conventions() tag.Conventions {
	return tag.Conventions{
		Namespace:         c.TagNamespace,
		Monitor:           c.MonitorTag,
		Identifier:        c.IdentifierTag,
		Dimensions:        c.DimensionsTag,
		CloudWatch:        c.CloudWatchTag,
		LinuxDiskMetric:   c.LinuxDiskMetric,
		WindowsDiskMetric: c.WindowsDiskMetric,
	}
}

// LoadBuilder loads the configuration for the builder Lambda, which derives
// alarm candidates from resource tag events and publishes them to EventBridge.
func LoadBuilder() (*Config, error) {
	cfg, err := loadShared()
	if err != nil {
		return nil, err
	}

	tableName, err := env.GetRequired("ALARM_TABLE_NAME", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.AlarmTableName = tableName

	busName, err := env.GetRequired("EVENT_BUS_NAME", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.EventBusName = busName

	cfg.DiscoveryPollInterval = env.Get("DISCOVERY_POLL_INTERVAL", 5*time.Second, env.ParsePositiveDuration)
	cfg.DiscoveryTimeout = env.Get("DISCOVERY_TIMEOUT", 3*time.Minute, env.ParsePositiveDuration)

	if cfg.DiscoveryPollInterval > cfg.DiscoveryTimeout {
		return nil, fmt.Errorf("discovery poll interval %s exceeds timeout %s",
			cfg.DiscoveryPollInterval, cfg.DiscoveryTimeout)
	}

	return cfg, nil
}

// LoadProvisioner loads the configuration for the provisioner Lambda, which
// consumes built alarm configs and creates the alarms in member accounts.
func LoadProvisioner() (*Config, error) {
	cfg, err := loadShared()
	if err != nil {
		return nil, err
	}

	roleName, err := env.GetRequired("PROVISION_ROLE_NAME", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.ProvisionRoleName = roleName

	cfg.SessionName = env.Get("SESSION_NAME", "alarm-provisioner", env.ParseNonEmptyString)
	cfg.OpsTopicARN = env.Get("OPS_TOPIC_ARN", "", env.ParseString)

	return cfg, nil
}

func loadShared() (*Config, error) {
	cfg := &Config{}

	region, err := env.GetRequired("AWS_REGION", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.AWSRegion = region

	namespace, err := env.GetRequired("TAG_NAMESPACE", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}
	cfg.TagNamespace = namespace

	cfg.MonitorTag = env.Get("MONITOR_TAG", "monitor", env.ParseNonEmptyString)
	cfg.IdentifierTag = env.Get("IDENTIFIER_TAG", "identifier", env.ParseNonEmptyString)
	cfg.DimensionsTag = env.Get("DIMENSIONS_TAG", "dimensions", env.ParseNonEmptyString)
	cfg.CloudWatchTag = env.Get("CLOUDWATCH_TAG", "cloudwatch", env.ParseNonEmptyString)
	cfg.LinuxDiskMetric = env.Get("LINUX_DISK_METRIC", "disk_used_percent", env.ParseNonEmptyString)
	cfg.WindowsDiskMetric = env.Get("WINDOWS_DISK_METRIC", "LogicalDisk % Free Space", env.ParseNonEmptyString)

	cfg.TopicPrefix = env.Get("TOPIC_PREFIX", "CentralisedObservabilityAutomationTopic", env.ParseNonEmptyString)
	cfg.Partition = env.Get("PARTITION", "aws", env.ParseNonEmptyString)

	return cfg, nil
}
