// Package event defines the resource payload consumed by the alarm pipeline.
package event

import (
	"fmt"
	"strings"
)

// Resource describes a tagged cloud resource as delivered by the upstream
// tag-change normalizer. Tags carry the raw tag map; Identifier and Metadata
// are the pre-extracted conventions when the upstream already resolved them.
type Resource struct {
	Service      string            `json:"service"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceID"`
	Region       string            `json:"region"`
	Account      string            `json:"account"`
	AccountAlias string            `json:"accountAlias"`
	Identifier   string            `json:"identifier,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Tags         map[string]string `json:"tags"`
	Monitored    bool              `json:"monitored"`
	CloudWatch   bool              `json:"cloudwatch"`
}

// Validate checks the fields every derived alarm name and action route
// depends on. A resource event failing validation cannot be processed at all.
func (r *Resource) Validate() error {
	var missing []string

	if r.Account == "" {
		missing = append(missing, "account")
	}
	if r.Region == "" {
		missing = append(missing, "region")
	}
	if r.ResourceID == "" {
		missing = append(missing, "resourceID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("resource event missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
