package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTemplate() Template {
	return Template{
		Service:            "EC2",
		MetricName:         "CPUUtilization",
		Namespace:          "AWS/EC2",
		Statistic:          "Average",
		ComparisonOperator: "GreaterThanOrEqualToThreshold",
		TreatMissingData:   "breaching",
		ActionsEnabled:     true,
		Period:             60,
		EvaluationPeriods:  15,
		DatapointsToAlarm:  15,
		Dimensions:         []Dimension{{Name: "InstanceId", Value: "InstanceId"}},
		Thresholds: []ThresholdTier{
			{Priority: "P1", Value: 95, Criticality: "Critical"},
			{Priority: "P2", Value: 90, Criticality: "High"},
			{Priority: "P3", Value: 80, Criticality: "Low"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Template)
		wantErr string
	}{
		{
			name:   "valid template",
			mutate: func(*Template) {},
		},
		{
			name: "duplicate tier priority",
			mutate: func(tmpl *Template) {
				tmpl.Thresholds = append(tmpl.Thresholds, ThresholdTier{
					Priority:    "P1",
					Value:       50,
					Criticality: "Medium",
				})
			},
			wantErr: "duplicate threshold tier for priority P1",
		},
		{
			name:    "missing namespace",
			mutate:  func(tmpl *Template) { tmpl.Namespace = "" },
			wantErr: "missing namespace",
		},
		{
			name:    "missing comparison operator",
			mutate:  func(tmpl *Template) { tmpl.ComparisonOperator = "" },
			wantErr: "missing comparison operator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(&tmpl)

			err := tmpl.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestTier(t *testing.T) {
	tmpl := validTemplate()

	tier, ok := tmpl.Tier("P2")
	require.True(t, ok)
	assert.Equal(t, 90.0, tier.Value)
	assert.Equal(t, "High", tier.Criticality)

	_, ok = tmpl.Tier("P4")
	assert.False(t, ok)
}
