package models

import (
	"strings"
)

// PumpState is the state requested by an event.
type PumpState string

const (
	PumpOn   PumpState = "on"
	PumpOff  PumpState = "off"
	PumpNone PumpState = "none"
)

// ReasonType says why an event was raised.
type ReasonType string

const (
	ReasonManual          ReasonType = "manual"
	ReasonScheduledWindow ReasonType = "scheduled_window"
	ReasonEmailAlarm      ReasonType = "email_alarm"
	ReasonPowerRestore    ReasonType = "power_restore"
)

// Reason carries a policy-specific payload: a "HH:MM" schedule time, an hour of
// day, or a boolean flag.
type Reason struct {
	Type  ReasonType `json:"type"`
	Value any        `json:"value,omitempty"`
}

// Event is the input of one decision cycle.
type Event struct {
	SentinelName       string    `json:"sentinel_name,omitempty"`
	ActuatorName       string    `json:"pump_name,omitempty"`
	RequestedPumpState PumpState `json:"pump,omitempty"`
	Reason             *Reason   `json:"reason,omitempty"`
}

// ScheduledTick is the no-override event used for timer-driven cycles.
func ScheduledTick() Event {
	return Event{RequestedPumpState: PumpNone}
}

// Requested returns the normalized requested state. An empty request is PumpNone;
// anything unrecognized is returned as-is so the caller can reject it.
func (e Event) Requested() PumpState {
	s := PumpState(strings.ToLower(strings.TrimSpace(string(e.RequestedPumpState))))
	if s == "" {
		return PumpNone
	}
	return s
}
