package models

// TerminalStatus is the outcome class of a decision cycle.
type TerminalStatus string

const (
	StatusOK              TerminalStatus = "ok"
	StatusNoOp            TerminalStatus = "no_op"
	StatusInvalidInput    TerminalStatus = "invalid_input"
	StatusPowerOut        TerminalStatus = "power_out"
	StatusUpstreamFailure TerminalStatus = "upstream_failure"
)

// Output values written to a Sentinel output zone.
const (
	OutputOff = 0
	OutputOn  = 1
)

// Decision is what the engine wants done with one output.
type Decision struct {
	DesiredValue      *int           `json:"desired_value"` // nil means no change
	ObservedValue     *int           `json:"observed_value,omitempty"`
	Narrative         string         `json:"narrative"`
	Status            TerminalStatus `json:"terminal_status"`
	PowerOutDevice    string         `json:"power_out_device,omitempty"`
	PowerOutDependent bool           `json:"power_out_dependent,omitempty"`
	PowerOutState     PowerState     `json:"power_out_state,omitempty"`
}

// PowerSummary names the device that blocked the write, e.g. "Well#3 Power Out".
// An unset state reads as Off.
func (d Decision) PowerSummary() string {
	if d.PowerOutState == PowerOff || d.PowerOutState == "" {
		return d.PowerOutDevice + " Power Out"
	}
	return d.PowerOutDevice + " Power Unknown"
}

// Value returns a pointer to v, for building decisions.
func Value(v int) *int { return &v }

// Wants reports whether the decision asks for exactly v.
func (d Decision) Wants(v int) bool {
	return d.DesiredValue != nil && *d.DesiredValue == v
}
