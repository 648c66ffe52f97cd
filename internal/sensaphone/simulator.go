package sensaphone

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"pump_control/internal/models"
)

// ----------- Simulation constants -----------
const (
	FillFtPerHour    = 0.6  // tank rise while its supply pump runs
	DrainFtPerHour   = 0.25 // draw-down from household usage
	MaxLevelFt       = 24.0 // overflow height
	DefaultSessionTT = 4 * time.Hour
)

// Remote result codes returned by the simulator on rejected writes.
const (
	simCodeBadValue = 3
	simCodeNotFound = 4
)

// Tank links a level zone to the output that fills it.
type Tank struct {
	Device     string
	LevelZone  string
	PumpDevice string
	PumpZone   string
	LevelFt    float64
}

// Simulator is an in-memory Sensaphone account. It satisfies the same calls
// as Client and moves tank levels over time while pumps run.
type Simulator struct {
	mu sync.Mutex

	username, password string
	sessionTTL         time.Duration
	sessions           map[string]time.Time
	devices            []models.Device
	tanks              []*Tank
	lastTick           time.Time
	writes             int
	now                func() time.Time
}

// NewSimulator returns a simulator seeded with the water system's three
// Sentinels. Empty credentials accept any login.
func NewSimulator(username, password string) *Simulator {
	return &Simulator{
		username:   username,
		password:   password,
		sessionTTL: DefaultSessionTT,
		sessions:   map[string]time.Time{},
		devices:    defaultDevices(),
		tanks: []*Tank{{
			Device: "88kTank", LevelZone: "88k Level",
			PumpDevice: "TreatmentPlant", PumpZone: "88k Pump",
			LevelFt: 21.5,
		}},
		now: time.Now,
	}
}

func defaultDevices() []models.Device {
	return []models.Device{
		{
			DeviceID: 1001, Name: "TreatmentPlant", Description: "Treatment plant Sentinel",
			IsOnline: true, PowerState: models.PowerOn,
			Zones: []models.Zone{
				{ZoneID: 1, Name: "88k Pump", RawValue: "Off", Kind: models.ZoneOutput, Enabled: true},
				{ZoneID: 2, Name: "Spring Pump", RawValue: "On", Kind: models.ZoneOutput, Enabled: true},
				{ZoneID: 9, Name: "Chlorine", RawValue: "1.2", Units: "ppm", Kind: models.ZoneSensor, Enabled: true},
			},
		},
		{
			DeviceID: 1002, Name: "88kTank", Description: "88k storage tank",
			IsOnline: true, PowerState: models.PowerOn,
			Zones: []models.Zone{
				{ZoneID: 3, Name: "88k Level", RawValue: "21.5Ft", Units: "Ft", Kind: models.ZoneSensor, Enabled: true},
			},
		},
		{
			DeviceID: 45275, Name: "Well#3", Description: "Well 3",
			IsOnline: true, PowerState: models.PowerOn,
			Zones: []models.Zone{
				{ZoneID: 26, Name: "#3 Well Pump", RawValue: "On", Kind: models.ZoneOutput, Enabled: true},
			},
		},
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Step(now)
		}
	}
}

// Step advances tank levels to now.
func (s *Simulator) Step(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastTick.IsZero() {
		s.lastTick = now
		return
	}
	elapsed := now.Sub(s.lastTick).Hours()
	if elapsed <= 0 {
		return
	}
	s.lastTick = now

	for _, tk := range s.tanks {
		rate := -DrainFtPerHour
		if s.pumpRunning(tk) {
			rate += FillFtPerHour
		}
		tk.LevelFt = clamp(tk.LevelFt+rate*elapsed, 0, MaxLevelFt)
		s.setRaw(tk.Device, tk.LevelZone, strconv.FormatFloat(round2(tk.LevelFt), 'f', -1, 64)+"Ft")
	}
}

// pumpRunning needs the output On and mains power on its Sentinel.
func (s *Simulator) pumpRunning(tk *Tank) bool {
	d := s.device(tk.PumpDevice)
	if d == nil || d.PowerState != models.PowerOn {
		return false
	}
	for _, z := range d.Zones {
		if z.Name == tk.PumpZone {
			return z.RawValue == "On"
		}
	}
	return false
}

func (s *Simulator) Login(_ context.Context, username, password string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.username != "" && (username != s.username || password != s.password) {
		return models.Credential{}, fmt.Errorf("%w: login code 1 invalid user name or password", models.ErrAuth)
	}
	now := s.now().UTC().Truncate(time.Second)
	token := uuid.NewString()
	s.sessions[token] = now.Add(s.sessionTTL)
	return models.Credential{Token: token, AccountID: 100010835, IssuedAt: now, ExpiresAt: now.Add(s.sessionTTL)}, nil
}

func (s *Simulator) FetchSnapshot(_ context.Context, cred models.Credential) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSession(cred); err != nil {
		return models.Snapshot{}, err
	}
	devices := make([]models.Device, len(s.devices))
	for i, d := range s.devices {
		d.Zones = append([]models.Zone(nil), d.Zones...)
		devices[i] = d
	}
	return models.Snapshot{Devices: devices, FetchedAt: s.now().UTC()}, nil
}

func (s *Simulator) SetOutput(_ context.Context, cred models.Credential, deviceID, zoneID int64, value int) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSession(cred); err != nil {
		return WriteResult{}, err
	}
	s.writes++

	reject := func(code int, msg string) (WriteResult, error) {
		res := WriteResult{Code: code, Message: msg}
		return res, fmt.Errorf("%w: code %d %s", models.ErrUpstream, code, msg)
	}
	if value != models.OutputOff && value != models.OutputOn {
		return reject(simCodeBadValue, "invalid output value")
	}
	for i := range s.devices {
		if s.devices[i].DeviceID != deviceID {
			continue
		}
		for j := range s.devices[i].Zones {
			z := &s.devices[i].Zones[j]
			if z.ZoneID != zoneID {
				continue
			}
			if z.Kind != models.ZoneOutput {
				return reject(simCodeNotFound, "zone is not an output")
			}
			z.RawValue = "Off"
			if value == models.OutputOn {
				z.RawValue = "On"
			}
			return WriteResult{Success: true}, nil
		}
	}
	return reject(simCodeNotFound, "device or zone not found")
}

// SetPower changes the mains power state reported for a device.
func (s *Simulator) SetPower(device string, p models.PowerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.device(device); d != nil {
		d.PowerState = p
	}
}

// SetRaw overrides one zone value, e.g. a tank level or a chlorine reading.
func (s *Simulator) SetRaw(device, zone, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.tanks {
		if tk.Device == device && tk.LevelZone == zone {
			if v, err := strconv.ParseFloat(trimUnit(raw), 64); err == nil {
				tk.LevelFt = v
			}
		}
	}
	s.setRaw(device, zone, raw)
}

// ExpireSessions invalidates every issued session, as the remote service does
// on a server-side logout.
func (s *Simulator) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]time.Time{}
}

// Writes counts SetOutput calls that passed session validation.
func (s *Simulator) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Simulator) checkSession(cred models.Credential) error {
	exp, ok := s.sessions[cred.Token]
	if !ok || !s.now().Before(exp) {
		return fmt.Errorf("%w: unknown session", models.ErrSessionExpired)
	}
	return nil
}

func (s *Simulator) device(name string) *models.Device {
	for i := range s.devices {
		if s.devices[i].Name == name {
			return &s.devices[i]
		}
	}
	return nil
}

func (s *Simulator) setRaw(device, zone, raw string) {
	d := s.device(device)
	if d == nil {
		return
	}
	for j := range d.Zones {
		if d.Zones[j].Name == zone {
			d.Zones[j].RawValue = raw
		}
	}
}

// helpers
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func trimUnit(raw string) string {
	i := len(raw)
	for i > 0 && (raw[i-1] < '0' || raw[i-1] > '9') && raw[i-1] != '.' {
		i--
	}
	return raw[:i]
}
