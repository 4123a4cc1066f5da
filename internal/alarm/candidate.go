// Package alarm derives fully-specified CloudWatch alarm candidates from
// resource tag events and the alarm template catalog.
package alarm

import (
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/tag"
)

// DetailTypeConfigBuilt is the EventBridge detail type under which built
// alarm configs travel from the builder to the provisioner.
const DetailTypeConfigBuilt = "Alarm Config Built"

// Candidate is one fully resolved alarm definition, ready for the
// provisioner to create or update. Candidates are immutable once built;
// the alarm name doubles as the idempotency key against the monitoring
// backend.
type Candidate struct {
	AlarmName          string              `json:"alarmName"`
	Service            string              `json:"service"`
	MetricName         string              `json:"metricName"`
	Namespace          string              `json:"namespace"`
	Statistic          string              `json:"statistic,omitempty"`
	ExtendedStatistic  string              `json:"extendedStatistic,omitempty"`
	Description        string              `json:"alarmDescription"`
	ComparisonOperator string              `json:"comparisonOperator"`
	TreatMissingData   string              `json:"treatMissingData"`
	Unit               string              `json:"unit,omitempty"`
	ActionsEnabled     bool                `json:"actionsEnabled"`
	Period             int32               `json:"period"`
	EvaluationPeriods  int32               `json:"evaluationPeriods"`
	DatapointsToAlarm  int32               `json:"datapointsToAlarm"`
	Threshold          float64             `json:"threshold"`
	Priority           string              `json:"priority"`
	Criticality        string              `json:"criticality"`
	Dimensions         []catalog.Dimension `json:"dimensions"`
	AlarmActions       []string            `json:"alarmActions"`
}

// BuiltConfig is the builder's output payload: the resource the candidates
// were derived for plus the deduplicated candidate list.
type BuiltConfig struct {
	Resource   event.Resource `json:"resource"`
	Candidates []Candidate    `json:"candidates"`
}

// newCandidate seeds a candidate from the template and the resolved
// threshold. Dimensions, actions and the alarm name are bound afterwards.
func newCandidate(tmpl *catalog.Template, sig tag.Signal, threshold float64, criticality string) Candidate {
	return Candidate{
		Service:            sig.Service,
		MetricName:         sig.Metric,
		Namespace:          tmpl.Namespace,
		Statistic:          tmpl.Statistic,
		ExtendedStatistic:  tmpl.ExtendedStatistic,
		Description:        tmpl.Description,
		ComparisonOperator: tmpl.ComparisonOperator,
		TreatMissingData:   tmpl.TreatMissingData,
		Unit:               tmpl.Unit,
		ActionsEnabled:     tmpl.ActionsEnabled,
		Period:             tmpl.Period,
		EvaluationPeriods:  tmpl.EvaluationPeriods,
		DatapointsToAlarm:  tmpl.DatapointsToAlarm,
		Threshold:          threshold,
		Priority:           sig.Priority,
		Criticality:        criticality,
	}
}
