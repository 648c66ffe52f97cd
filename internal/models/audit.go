package models

import "time"

// AuditRecord captures the inputs and outcome of one cycle for log shipping.
type AuditRecord struct {
	ID         string         `json:"id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Site       string         `json:"site"`
	StatusCode int            `json:"status_code"`
	Status     TerminalStatus `json:"terminal_status"`
	Narrative  string         `json:"narrative"`
	Event      Event          `json:"event"`
	Decision   *Decision      `json:"decision,omitempty"`
	Result     *CommandResult `json:"result,omitempty"`
	Snapshot   *Snapshot      `json:"snapshot,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// AuditFilter narrows an audit listing. Zero fields do not filter.
type AuditFilter struct {
	From   time.Time      `json:"from"`
	To     time.Time      `json:"to"`
	Site   string         `json:"site"`
	Status TerminalStatus `json:"status"`
	Limit  int            `json:"limit"`
}
