package models

import "encoding/json"

// CommandResult is the normalized outcome of applying a decision.
type CommandResult struct {
	StatusCode   int             `json:"status_code"`
	AppliedValue *int            `json:"applied_value"`
	RawResponse  json.RawMessage `json:"raw_response,omitempty"`
	Summary      string          `json:"summary"`
}

// Target identifies the output a cycle controls.
type Target struct {
	DeviceName string `json:"device_name"`
	ZoneName   string `json:"zone_name"`
	DeviceID   int64  `json:"device_id"`
	ZoneID     int64  `json:"zone_id"`
}

// CycleReport is returned to every caller of a cycle, successful or not.
type CycleReport struct {
	StatusCode int            `json:"statusCode"`
	Site       string         `json:"site"`
	Zone       string         `json:"zone"`
	Summary    string         `json:"summary"`
	Narrative  string         `json:"narrative,omitempty"`
	Status     TerminalStatus `json:"terminal_status,omitempty"`
	Event      Event          `json:"requested_change"`
	Decision   *Decision      `json:"decision,omitempty"`
	Result     *CommandResult `json:"data,omitempty"`
	Snapshot   *Snapshot      `json:"system_status,omitempty"`
	Error      string         `json:"error,omitempty"`
}
