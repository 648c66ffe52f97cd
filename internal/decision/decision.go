// Package decision turns a device snapshot, an event and the wall clock into the
// desired state of one pump output. Everything here is pure: no I/O, no globals,
// and the same inputs always give the same Decision.
package decision

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pump_control/internal/models"
)

const (
	narrativeNoChange     = "No Output Change Needed"
	narrativeInvalidValue = "Invalid Pump Value!"
)

// Decide evaluates, in order: the explicit override carried by ev, the level
// thresholds of pol, the power safety gate, and finally the idempotency check
// against the observed output.
func Decide(snap models.Snapshot, ev models.Event, now time.Time, pol models.Policy) models.Decision {
	loc, err := location(pol.Timezone)
	if err != nil {
		return invalid(fmt.Sprintf("unknown timezone %q", pol.Timezone))
	}
	local := now.In(loc)

	deviceName, zoneName := Target(ev, pol)
	dev, ok := snap.Device(deviceName)
	if !ok {
		return invalid(fmt.Sprintf("device %q not found in snapshot", deviceName))
	}
	out, ok := dev.Zone(zoneName)
	if !ok {
		return invalid(fmt.Sprintf("output %q not found on %s", zoneName, deviceName))
	}

	d := evaluate(snap, ev, now, local, pol, zoneName)
	d.ObservedValue = observed(out.RawValue)

	// power gate runs last and overrides everything above
	if gated, ok := powerGate(snap, dev, pol, d.ObservedValue); ok {
		return gated
	}
	if d.Status == models.StatusInvalidInput {
		return d
	}

	if d.DesiredValue == nil || (d.ObservedValue != nil && *d.ObservedValue == *d.DesiredValue) {
		d.Status = models.StatusNoOp
		if d.DesiredValue != nil {
			d.Narrative += " (value already set)"
		}
		return d
	}
	d.Status = models.StatusOK
	return d
}

// evaluate applies the override and threshold rules; first match wins.
func evaluate(snap models.Snapshot, ev models.Event, now, local time.Time, pol models.Policy, zoneName string) models.Decision {
	switch ev.Requested() {
	case models.PumpOff:
		return models.Decision{DesiredValue: models.Value(models.OutputOff), Narrative: Describe(ev)}
	case models.PumpOn:
		ok, next, err := onGate(ev.Reason, local, pol)
		if err != nil {
			return invalid(err.Error())
		}
		if !ok {
			return models.Decision{Narrative: fmt.Sprintf("Currently %s / %s - %s will turn On at %s",
				local.Format("03PM MST"), now.UTC().Format("03PM MST"), zoneName, next.Format("3:04PM MST Mon Jan 2"))}
		}
		return models.Decision{DesiredValue: models.Value(models.OutputOn), Narrative: Describe(ev)}
	case models.PumpNone:
		if !pol.HasLevelPolicy() {
			return models.Decision{Narrative: narrativeNoChange}
		}
		return thresholds(snap, local, pol)
	default:
		return invalid(narrativeInvalidValue)
	}
}

// thresholds applies the level rules of a tank site.
func thresholds(snap models.Snapshot, local time.Time, pol models.Policy) models.Decision {
	dev, ok := snap.Device(pol.LevelDevice)
	if !ok {
		return invalid(fmt.Sprintf("level device %q not found in snapshot", pol.LevelDevice))
	}
	z, ok := dev.Zone(pol.LevelZone)
	if !ok {
		return invalid(fmt.Sprintf("level zone %q not found on %s", pol.LevelZone, pol.LevelDevice))
	}
	level, err := ParseLevel(z.RawValue, pol.LevelUnit)
	if err != nil {
		return invalid(fmt.Sprintf("%s unreadable: %v", pol.LevelZone, err))
	}

	hour := local.Hour()
	lv := strconv.FormatFloat(level, 'f', -1, 64)
	switch {
	case level >= pol.HighLevel:
		return models.Decision{DesiredValue: models.Value(models.OutputOff),
			Narrative: fmt.Sprintf("%s at High Limit %s", pol.LevelZone, lv)}
	case pol.NoonWindow.Contains(hour) && level >= pol.NoonLevel:
		return models.Decision{DesiredValue: models.Value(models.OutputOff),
			Narrative: fmt.Sprintf("%s at Noon High Limit %s", pol.LevelZone, lv)}
	case level <= pol.LowLevel:
		return models.Decision{DesiredValue: models.Value(models.OutputOn),
			Narrative: fmt.Sprintf("%s Low %s", pol.LevelZone, lv)}
	case pol.MidLevel > 0 && pol.FillWindow.Contains(hour) && level < pol.MidLevel:
		return models.Decision{DesiredValue: models.Value(models.OutputOn),
			Narrative: fmt.Sprintf("%s below Fill Level %s during off-peak hours", pol.LevelZone, lv)}
	default:
		return models.Decision{Narrative: narrativeNoChange}
	}
}

// powerGate forces the output off unless the controlled device and every
// device it depends on report mains power On. Unknown power blocks like Off.
func powerGate(snap models.Snapshot, dev models.Device, pol models.Policy, observedValue *int) (models.Decision, bool) {
	lost, state, dependent := "", models.PowerOn, false
	if dev.PowerState != models.PowerOn {
		lost, state = dev.Name, dev.PowerState
	} else {
		for _, name := range pol.DependentDevices {
			dd, ok := snap.Device(name)
			if !ok {
				return invalid(fmt.Sprintf("dependent device %q not found in snapshot", name)), true
			}
			if dd.PowerState != models.PowerOn {
				lost, state, dependent = dd.Name, dd.PowerState, true
				break
			}
		}
	}
	if lost == "" {
		return models.Decision{}, false
	}
	if state != models.PowerOff {
		state = models.PowerUnknown
	}
	d := models.Decision{
		DesiredValue:      models.Value(models.OutputOff),
		ObservedValue:     observedValue,
		Status:            models.StatusPowerOut,
		PowerOutDevice:    lost,
		PowerOutDependent: dependent,
		PowerOutState:     state,
	}
	d.Narrative = d.PowerSummary()
	if observedValue != nil && *observedValue == models.OutputOff {
		d.Narrative += " (output already off)"
	}
	return d, true
}

// Describe echoes an event in the "<sentinel> <pump> Change - <state>" form.
func Describe(ev models.Event) string {
	var b strings.Builder
	if ev.SentinelName != "" {
		b.WriteString(ev.SentinelName + " ")
	}
	if ev.ActuatorName != "" {
		b.WriteString(ev.ActuatorName + " ")
	}
	b.WriteString("Change - " + string(ev.Requested()))
	if ev.Reason != nil {
		if ev.Reason.Value != nil {
			fmt.Fprintf(&b, " (%s: %v)", ev.Reason.Type, ev.Reason.Value)
		} else {
			fmt.Fprintf(&b, " (%s)", ev.Reason.Type)
		}
	}
	return b.String()
}

// Target names the device and output zone a cycle controls: the event's names
// when given, else the site's configured output.
func Target(ev models.Event, pol models.Policy) (string, string) {
	device, zone := pol.MonitoredDevice, pol.OutputZone
	if ev.SentinelName != "" {
		device = ev.SentinelName
	}
	if ev.ActuatorName != "" {
		zone = ev.ActuatorName
	}
	return device, zone
}

func observed(raw string) *int {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "1":
		return models.Value(models.OutputOn)
	case "off", "0":
		return models.Value(models.OutputOff)
	default:
		return nil
	}
}

func invalid(narrative string) models.Decision {
	return models.Decision{Narrative: narrative, Status: models.StatusInvalidInput}
}

func location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
