// Package events provides progress-event recording for allocation runs.
// This package has no dependencies on alloc/ — it stores pure data types
// and the sink plumbing that forwards them to external consumers.
package events

import "time"

// Type names the progress events an allocation run emits, in the order the
// external dashboard expects them.
type Type string

const (
	PipelineStart           Type = "pipeline_start"
	ModelCall               Type = "model_call"
	ModelResult             Type = "model_result"
	PatientStart            Type = "patient_start"
	PatientComplete         Type = "patient_complete"
	NurseSchedulingStart    Type = "nurse_scheduling_start"
	NurseSchedulingComplete Type = "nurse_scheduling_complete"
	ValidationWarning       Type = "validation_warning"
	PipelineComplete        Type = "pipeline_complete"
)

// Event is one progress record pushed to the external sink as a run
// progresses. Data is event-specific and kept loosely typed because the
// sink is an external consumer with its own schema expectations.
type Event struct {
	Type      Type           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data"`
}
