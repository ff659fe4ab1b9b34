package models

import "time"

// Trigger identifies what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerCLI      Trigger = "cli"
)

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// SinkOutcome records what happened when one sink received the batch.
type SinkOutcome struct {
	Sink    string `json:"sink"`
	Written int    `json:"written"`
	Error   string `json:"error,omitempty"`
}

// RunSummary describes one pipeline pass. Published to observers on every run.
type RunSummary struct {
	ID         string         `json:"id"`
	Trigger    Trigger        `json:"trigger"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Ingested   int            `json:"ingested"`
	Cleaned    int            `json:"cleaned"`
	Enriched   int            `json:"enriched"`
	Clean      CleanReport    `json:"clean"`
	Degraded   map[string]int `json:"degraded,omitempty"`
	Sinks      []SinkOutcome  `json:"sinks,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Duration returns the wall time of the run, or zero while it is running.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
