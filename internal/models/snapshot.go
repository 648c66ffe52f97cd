package models

import "time"

// PowerState is the mains power status reported by a Sentinel.
type PowerState string

const (
	PowerOn      PowerState = "On"
	PowerOff     PowerState = "Off"
	PowerUnknown PowerState = "Unknown"
)

// ZoneKind distinguishes readings from controllable outputs.
type ZoneKind string

const (
	ZoneSensor ZoneKind = "sensor"
	ZoneOutput ZoneKind = "output"
)

// Zone is one sensor or output on a device.
type Zone struct {
	ZoneID   int64    `json:"zone_id"`
	Name     string   `json:"name"`
	RawValue string   `json:"value"` // e.g. "23.1Ft", "On"
	Units    string   `json:"units,omitempty"`
	Kind     ZoneKind `json:"kind"`
	Enabled  bool     `json:"enabled"`
}

// Device is one Sentinel unit.
type Device struct {
	DeviceID    int64      `json:"device_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	IsOnline    bool       `json:"is_online"`
	PowerState  PowerState `json:"power_state"`
	Zones       []Zone     `json:"zone"`
}

// Zone finds a zone by name.
func (d Device) Zone(name string) (Zone, bool) {
	for _, z := range d.Zones {
		if z.Name == name {
			return z, true
		}
	}
	return Zone{}, false
}

// Snapshot is the state of every device on the account at FetchedAt.
type Snapshot struct {
	Devices   []Device  `json:"devices"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Device finds a device by name.
func (s Snapshot) Device(name string) (Device, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
