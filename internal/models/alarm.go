package models

// Alarm kinds understood by the alarm router.
const (
	AlarmChlorineLow = "chlorine_low"
)

// Alarm is an already-parsed alarm notification from a Sentinel.
type Alarm struct {
	Sentinel string  `json:"sentinel"`
	Kind     string  `json:"kind"`
	Reading  float64 `json:"reading"`
}

// AlarmRoute sends alarms raised by Sentinel to each of Sites.
type AlarmRoute struct {
	Sentinel string   `json:"sentinel" mapstructure:"sentinel"`
	Sites    []string `json:"sites" mapstructure:"sites"`
}
