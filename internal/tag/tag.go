// Package tag parses resource tags into monitoring signals.
package tag

import (
	"slices"
	"strings"
)

// Conventions holds the reserved tag families the normalizer recognizes.
// Namespace is the organization prefix (e.g. "rebura"); the remaining fields
// name the family segments under it.
type Conventions struct {
	Namespace         string
	Monitor           string
	Identifier        string
	Dimensions        string
	CloudWatch        string
	LinuxDiskMetric   string
	WindowsDiskMetric string
}

func (c Conventions) monitorKey() string {
	return c.Namespace + ":" + c.Monitor
}

func (c Conventions) cloudWatchKey() string {
	return c.Namespace + ":" + c.CloudWatch
}

func (c Conventions) identifierKey() string {
	return c.monitorKey() + ":" + c.Identifier
}

func (c Conventions) dimensionPrefix() string {
	return c.monitorKey() + ":" + c.Dimensions + ":"
}

// IsDiskMetric reports whether metric names one of the per-disk metrics
// that require volume discovery before alarms can be built.
func (c Conventions) IsDiskMetric(metric string) bool {
	return metric == c.LinuxDiskMetric || metric == c.WindowsDiskMetric
}

// Signal is a single monitoring request derived from a tag key of the form
// <namespace>:<service>:<metric>:<priority>. RawValue carries the tag value:
// either the literal "true" (use the catalog threshold tier) or an explicit
// threshold number.
type Signal struct {
	Key      string
	Service  string
	Metric   string
	Priority string
	RawValue string
}

// Result is the normalized view of a resource's tag map.
//
// Signals and DiskSignals are ordered by source tag key so that every run
// over the same tag map processes them identically; downstream deduplication
// depends on that ordering being stable.
type Result struct {
	Signals     []Signal
	DiskSignals []Signal
	Identifier  string
	Metadata    map[string]string
	Monitored   bool
	CloudWatch  bool

	// Skipped counts keys under the monitoring namespace that matched no
	// reserved family and did not form a valid signal.
	Skipped int
}

// Parse normalizes a raw tag map against the given conventions.
// Malformed keys never produce an error; they are counted in Skipped.
func Parse(tags map[string]string, conv Conventions) Result {
	res := Result{Metadata: make(map[string]string)}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	monitorKey := conv.monitorKey()
	cloudWatchKey := conv.cloudWatchKey()
	identifierKey := conv.identifierKey()
	dimensionPrefix := conv.dimensionPrefix()
	signalPrefix := monitorKey + ":"

	for _, key := range keys {
		value := tags[key]

		switch {
		case key == monitorKey:
			res.Monitored = isTrue(value)
			continue
		case key == cloudWatchKey:
			res.CloudWatch = isTrue(value)
			continue
		case key == identifierKey:
			res.Identifier = value
			continue
		case strings.HasPrefix(key, dimensionPrefix):
			name := strings.TrimPrefix(key, dimensionPrefix)
			if name == "" {
				res.Skipped++
				continue
			}
			res.Metadata[name] = value
			continue
		}

		sig, ok := parseSignal(key, value)
		if !ok {
			if strings.HasPrefix(key, signalPrefix) {
				res.Skipped++
			}
			continue
		}

		if conv.IsDiskMetric(sig.Metric) {
			res.DiskSignals = append(res.DiskSignals, sig)
		} else {
			res.Signals = append(res.Signals, sig)
		}
	}

	return res
}

// parseSignal extracts (service, metric, priority) from the three trailing
// colon-separated segments of a tag key. Keys with fewer than three segments,
// an unknown priority token, or empty service/metric segments do not form
// a signal.
func parseSignal(key, value string) (Signal, bool) {
	parts := strings.Split(key, ":")
	if len(parts) < 3 {
		return Signal{}, false
	}

	service := parts[len(parts)-3]
	metric := parts[len(parts)-2]
	priority := parts[len(parts)-1]

	if !validPriority(priority) || service == "" || metric == "" {
		return Signal{}, false
	}

	return Signal{
		Key:      key,
		Service:  service,
		Metric:   metric,
		Priority: priority,
		RawValue: value,
	}, true
}

func validPriority(token string) bool {
	switch token {
	case "P1", "P2", "P3":
		return true
	default:
		return false
	}
}

func isTrue(value string) bool {
	return strings.EqualFold(value, "true")
}
