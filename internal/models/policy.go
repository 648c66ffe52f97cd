package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// HourWindow is a range of local hours. Start > End wraps past midnight.
type HourWindow struct {
	Start        int  `json:"start" mapstructure:"start"`
	End          int  `json:"end" mapstructure:"end"`
	EndExclusive bool `json:"end_exclusive" mapstructure:"end_exclusive"`
	Enabled      bool `json:"enabled" mapstructure:"enabled"`
}

// Contains reports whether hour h falls in the window.
func (w HourWindow) Contains(h int) bool {
	if !w.Enabled {
		return false
	}
	end := w.End
	if w.Start <= w.End {
		if w.EndExclusive {
			return h >= w.Start && h < end
		}
		return h >= w.Start && h <= end
	}
	// wraps midnight, e.g. 22..4
	if w.EndExclusive {
		return h >= w.Start || h < end
	}
	return h >= w.Start || h <= end
}

// Policy holds the calibration of one pumping site. All values come from
// configuration because site calibration drifts.
type Policy struct {
	Site             string   `json:"site" mapstructure:"-"`
	Label            string   `json:"label" mapstructure:"label"`
	MonitoredDevice  string   `json:"monitored_device" mapstructure:"monitored_device"`
	OutputZone       string   `json:"output_zone" mapstructure:"output_zone"`
	LevelDevice      string   `json:"level_device,omitempty" mapstructure:"level_device"`
	LevelZone        string   `json:"level_zone,omitempty" mapstructure:"level_zone"`
	LevelUnit        string   `json:"level_unit" mapstructure:"level_unit"`
	DependentDevices []string `json:"dependent_devices,omitempty" mapstructure:"dependent_devices"`

	HighLevel float64 `json:"high_level" mapstructure:"high_level"`
	NoonLevel float64 `json:"noon_level" mapstructure:"noon_level"`
	LowLevel  float64 `json:"low_level" mapstructure:"low_level"`
	MidLevel  float64 `json:"mid_level" mapstructure:"mid_level"` // 0 disables off-peak fill

	NoonWindow HourWindow `json:"noon_window" mapstructure:"noon_window"`
	FillWindow HourWindow `json:"fill_window" mapstructure:"fill_window"`

	OnHour          int    `json:"on_hour" mapstructure:"on_hour"` // -1 disables the fixed-hour gate
	OnWindowMinutes int    `json:"on_window_minutes" mapstructure:"on_window_minutes"`
	Timezone        string `json:"timezone" mapstructure:"timezone"`
}

// HasLevelPolicy reports whether threshold rules apply to this site.
func (p Policy) HasLevelPolicy() bool {
	return p.LevelDevice != "" && p.LevelZone != ""
}

// ZoneLabel names the controlled output for reports.
func (p Policy) ZoneLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.MonitoredDevice + " " + p.OutputZone
}

// Set applies one named key/value override, as stored by the parameter source.
func (p *Policy) Set(key, value string) error {
	var err error
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "label":
		p.Label = value
	case "monitored_device":
		p.MonitoredDevice = value
	case "output_zone":
		p.OutputZone = value
	case "level_device":
		p.LevelDevice = value
	case "level_zone":
		p.LevelZone = value
	case "level_unit":
		p.LevelUnit = value
	case "dependent_devices":
		p.DependentDevices = splitList(value)
	case "high_level":
		p.HighLevel, err = cast.ToFloat64E(value)
	case "noon_level":
		p.NoonLevel, err = cast.ToFloat64E(value)
	case "low_level":
		p.LowLevel, err = cast.ToFloat64E(value)
	case "mid_level":
		p.MidLevel, err = cast.ToFloat64E(value)
	case "noon_start_hour":
		p.NoonWindow.Start, err = toHour(value)
	case "noon_end_hour":
		p.NoonWindow.End, err = toHour(value)
	case "noon_end_exclusive":
		p.NoonWindow.EndExclusive, err = cast.ToBoolE(value)
	case "noon_enabled":
		p.NoonWindow.Enabled, err = cast.ToBoolE(value)
	case "fill_start_hour":
		p.FillWindow.Start, err = toHour(value)
	case "fill_end_hour":
		p.FillWindow.End, err = toHour(value)
	case "fill_enabled":
		p.FillWindow.Enabled, err = cast.ToBoolE(value)
	case "on_hour":
		p.OnHour, err = strconv.Atoi(strings.TrimSpace(value))
		if err == nil && (p.OnHour < -1 || p.OnHour > 23) {
			err = fmt.Errorf("hour %d out of range", p.OnHour)
		}
	case "on_window_minutes":
		p.OnWindowMinutes, err = strconv.Atoi(strings.TrimSpace(value))
	case "timezone":
		p.Timezone = value
	default:
		return fmt.Errorf("%w: unknown policy key %q", ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: policy key %q: %v", ErrInvalidInput, key, err)
	}
	return nil
}

func toHour(v string) (int, error) {
	// strconv rather than cast: cast reads "08" as octal
	h, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range", h)
	}
	return h, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
