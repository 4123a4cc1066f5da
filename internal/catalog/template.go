// Package catalog loads alarm templates from the DynamoDB template table.
package catalog

import "fmt"

// Dimension is a template dimension row. Value is a placeholder until the
// resolver binds it to the monitored resource.
type Dimension struct {
	Name  string `dynamodbav:"Name"  json:"Name"`
	Value string `dynamodbav:"Value" json:"Value,omitempty"`
}

// ThresholdTier maps a priority token to its threshold value and the
// operator-facing criticality label.
type ThresholdTier struct {
	Priority    string  `dynamodbav:"priority"    json:"priority"`
	Value       float64 `dynamodbav:"threshold"   json:"threshold"`
	Criticality string  `dynamodbav:"criticality" json:"criticality"`
}

// Template is one alarm template keyed on (service, metric name). It carries
// every CloudWatch alarm attribute except the threshold, dimensions values,
// name and actions, which are resolved per resource.
type Template struct {
	Service            string          `dynamodbav:"service"`
	MetricName         string          `dynamodbav:"metric_name"`
	Namespace          string          `dynamodbav:"namespace"`
	Statistic          string          `dynamodbav:"statistic"`
	ExtendedStatistic  string          `dynamodbav:"extended_statistic"`
	Description        string          `dynamodbav:"alarm_description"`
	ComparisonOperator string          `dynamodbav:"comparison_operator"`
	TreatMissingData   string          `dynamodbav:"treat_missing_data"`
	Unit               string          `dynamodbav:"unit"`
	ActionsEnabled     bool            `dynamodbav:"actions_enabled"`
	Period             int32           `dynamodbav:"period"`
	EvaluationPeriods  int32           `dynamodbav:"evaluation_periods"`
	DatapointsToAlarm  int32           `dynamodbav:"datapoints_to_alarm"`
	Dimensions         []Dimension     `dynamodbav:"dimensions"`
	Thresholds         []ThresholdTier `dynamodbav:"thresholds"`
}

// Validate rejects templates the resolver cannot safely use. Two tiers
// claiming the same priority would make threshold resolution depend on
// storage order, so they fail here instead.
func (t *Template) Validate() error {
	if t.Namespace == "" {
		return fmt.Errorf("template missing namespace")
	}
	if t.ComparisonOperator == "" {
		return fmt.Errorf("template missing comparison operator")
	}

	seen := make(map[string]string, len(t.Thresholds))
	for _, tier := range t.Thresholds {
		if prev, ok := seen[tier.Priority]; ok {
			return fmt.Errorf("duplicate threshold tier for priority %s (criticality %q and %q)",
				tier.Priority, prev, tier.Criticality)
		}
		seen[tier.Priority] = tier.Criticality
	}
	return nil
}

// Tier returns the threshold tier matching the given priority token.
func (t *Template) Tier(priority string) (ThresholdTier, bool) {
	for _, tier := range t.Thresholds {
		if tier.Priority == priority {
			return tier, true
		}
	}
	return ThresholdTier{}, false
}
