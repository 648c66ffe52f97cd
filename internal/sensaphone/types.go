package sensaphone

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"pump_control/internal/models"
)

// Request types and resources of the Sensaphone.net API.
const (
	requestCreate = "create"
	requestRead   = "read"
	requestUpdate = "update"

	resourceLogin  = "login"
	resourceDevice = "device"

	// codeSessionInvalid is result.code for an expired or unknown session.
	codeSessionInvalid = 2
)

type result struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type envelope struct {
	Result   *result         `json:"result"`
	Response json.RawMessage `json:"response"`
}

type loginRequest struct {
	RequestType string `json:"request_type"`
	Resource    string `json:"resource"`
	UserName    string `json:"user_name"`
	Password    string `json:"password"`
}

type loginResponse struct {
	Session           string `json:"session"`
	AcctID            int64  `json:"acctid"`
	SessionExpiration int64  `json:"session_expiration"` // seconds
	LoginTimestamp    int64  `json:"login_timestamp"`    // unix seconds
}

type deviceRequest struct {
	RequestType string        `json:"request_type"`
	Resource    string        `json:"resource"`
	AcctID      int64         `json:"acctid"`
	Session     string        `json:"session"`
	Device      []deviceWrite `json:"device"`
}

type deviceWrite struct {
	DeviceID int64       `json:"device_id"`
	Zone     []zoneWrite `json:"zone"`
}

type zoneWrite struct {
	ZoneID     int64       `json:"zone_id"`
	OutputZone outputValue `json:"output_zone"`
}

type outputValue struct {
	Value int `json:"value"`
}

type deviceResponse struct {
	Device *[]rawDevice `json:"device"`
}

type rawDevice struct {
	DeviceID    *int64     `json:"device_id"`
	Name        *string    `json:"name"`
	Description string     `json:"description"`
	IsOnline    bool       `json:"is_online"`
	PowerValue  string     `json:"power_value"`
	Zone        *[]rawZone `json:"zone"`
}

type rawZone struct {
	ZoneID *int64  `json:"zone_id"`
	Name   *string `json:"name"`
	Type   string  `json:"type"`
	Units  string  `json:"units"`
	Value  any     `json:"value"`
	Enable *bool   `json:"enable"`
}

// WriteResult is the remote outcome of an output update.
type WriteResult struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

func (l loginResponse) credential(now time.Time) models.Credential {
	issued := now.UTC()
	if l.LoginTimestamp > 0 {
		issued = time.Unix(l.LoginTimestamp, 0).UTC()
	}
	return models.Credential{
		Token:     l.Session,
		AccountID: l.AcctID,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(time.Duration(l.SessionExpiration) * time.Second),
	}
}

// toSnapshot validates the raw device tree. Any malformed device or zone fails
// the whole snapshot.
func toSnapshot(raw []rawDevice, fetchedAt time.Time) (models.Snapshot, error) {
	snap := models.Snapshot{Devices: make([]models.Device, 0, len(raw)), FetchedAt: fetchedAt.UTC()}
	for i, rd := range raw {
		if rd.DeviceID == nil || rd.Name == nil || rd.Zone == nil {
			return models.Snapshot{}, fmt.Errorf("%w: device %d missing id, name or zone list", models.ErrTransport, i)
		}
		dev := models.Device{
			DeviceID:    *rd.DeviceID,
			Name:        *rd.Name,
			Description: rd.Description,
			IsOnline:    rd.IsOnline,
			PowerState:  powerState(rd.PowerValue),
			Zones:       make([]models.Zone, 0, len(*rd.Zone)),
		}
		for j, rz := range *rd.Zone {
			if rz.ZoneID == nil || rz.Name == nil {
				return models.Snapshot{}, fmt.Errorf("%w: %s zone %d missing id or name", models.ErrTransport, dev.Name, j)
			}
			dev.Zones = append(dev.Zones, models.Zone{
				ZoneID:   *rz.ZoneID,
				Name:     *rz.Name,
				RawValue: cast.ToString(rz.Value),
				Units:    rz.Units,
				Kind:     zoneKind(rz.Type),
				Enabled:  rz.Enable == nil || *rz.Enable,
			})
		}
		snap.Devices = append(snap.Devices, dev)
	}
	return snap, nil
}

func powerState(v string) models.PowerState {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on":
		return models.PowerOn
	case "off":
		return models.PowerOff
	default:
		return models.PowerUnknown
	}
}

func zoneKind(t string) models.ZoneKind {
	if strings.Contains(strings.ToLower(t), "output") {
		return models.ZoneOutput
	}
	return models.ZoneSensor
}
