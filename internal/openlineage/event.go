// Package openlineage holds the wire model for lineage run events: a run of
// a job transitions through its lifecycle (START, COMPLETE) while reading
// input datasets and writing output datasets, each optionally described by a
// column schema facet.
package openlineage

import (
	"errors"
	"strings"
	"time"
)

const (
	EventTypeStart    = "START"
	EventTypeComplete = "COMPLETE"

	Producer  = "https://github.com/lineagelab/olgen"
	SchemaURL = "https://openlineage.io/spec/1-0-5/OpenLineage.json#/definitions/RunEvent"
)

type RunEvent struct {
	EventType string    `json:"eventType"`
	EventTime time.Time `json:"eventTime"`
	Run       Run       `json:"run"`
	Job       Job       `json:"job"`
	Inputs    []Dataset `json:"inputs"`
	Outputs   []Dataset `json:"outputs"`
	Producer  string    `json:"producer"`
	SchemaURL string    `json:"schemaURL"`
}

type Run struct {
	RunID  string    `json:"runId"`
	Facets RunFacets `json:"facets"`
}

type RunFacets struct {
	NominalTime *NominalTimeRunFacet `json:"nominalTime,omitempty"`
	Parent      *ParentRunFacet      `json:"parent,omitempty"`
}

type NominalTimeRunFacet struct {
	NominalStartTime time.Time `json:"nominalStartTime"`
	NominalEndTime   time.Time `json:"nominalEndTime"`
}

// ParentRunFacet links a run to the run/job pair that spawned it. Only one
// level of nesting is modeled.
type ParentRunFacet struct {
	Run ParentRun `json:"run"`
	Job Job       `json:"job"`
}

type ParentRun struct {
	RunID string `json:"runId"`
}

type Job struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

type Dataset struct {
	Namespace string        `json:"namespace"`
	Name      string        `json:"name"`
	Facets    DatasetFacets `json:"facets"`
}

type DatasetFacets struct {
	Schema *SchemaDatasetFacet `json:"schema,omitempty"`
}

type SchemaDatasetFacet struct {
	Fields []SchemaField `json:"fields"`
}

type SchemaField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func (e RunEvent) Validate() error {
	switch e.EventType {
	case EventTypeStart, EventTypeComplete:
	default:
		return errors.New("eventType must be START or COMPLETE")
	}
	if e.EventTime.IsZero() {
		return errors.New("eventTime is required")
	}
	if strings.TrimSpace(e.Run.RunID) == "" {
		return errors.New("run.runId is required")
	}
	if strings.TrimSpace(e.Job.Namespace) == "" {
		return errors.New("job.namespace is required")
	}
	if strings.TrimSpace(e.Job.Name) == "" {
		return errors.New("job.name is required")
	}
	return nil
}
