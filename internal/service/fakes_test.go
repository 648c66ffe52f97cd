package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pump_control/internal/models"
	"pump_control/internal/sensaphone"
)

// memCredStore is an in-memory repository.CredentialRepo.
type memCredStore struct {
	mu     sync.Mutex
	cred   *models.Credential
	getErr error
	putErr error
	puts   int
}

func (m *memCredStore) Get(context.Context) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *memCredStore) Put(_ context.Context, c models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.cred = &c
	return nil
}

type staticSecrets struct {
	user, pass string
	err        error
}

func (s staticSecrets) Credentials(context.Context) (string, string, error) {
	return s.user, s.pass, s.err
}

// countingAPI wraps a DeviceAPI and counts calls. Hooks replace the wrapped
// call when set.
type countingAPI struct {
	DeviceAPI

	logins    atomic.Int32
	fetches   atomic.Int32
	writes    atomic.Int32
	FetchFn   func(ctx context.Context, cred models.Credential) (models.Snapshot, error)
	SetOutFn  func(ctx context.Context, cred models.Credential, deviceID, zoneID int64, value int) (sensaphone.WriteResult, error)
	LoginWait time.Duration
}

func (c *countingAPI) Login(ctx context.Context, username, password string) (models.Credential, error) {
	c.logins.Add(1)
	if c.LoginWait > 0 {
		time.Sleep(c.LoginWait)
	}
	return c.DeviceAPI.Login(ctx, username, password)
}

func (c *countingAPI) FetchSnapshot(ctx context.Context, cred models.Credential) (models.Snapshot, error) {
	c.fetches.Add(1)
	if c.FetchFn != nil {
		return c.FetchFn(ctx, cred)
	}
	return c.DeviceAPI.FetchSnapshot(ctx, cred)
}

func (c *countingAPI) SetOutput(ctx context.Context, cred models.Credential, deviceID, zoneID int64, value int) (sensaphone.WriteResult, error) {
	c.writes.Add(1)
	if c.SetOutFn != nil {
		return c.SetOutFn(ctx, cred, deviceID, zoneID, value)
	}
	return c.DeviceAPI.SetOutput(ctx, cred, deviceID, zoneID, value)
}

type fakeSource struct {
	policies map[string]models.Policy
	routes   []models.AlarmRoute
}

func (f fakeSource) Policy(site string) (models.Policy, error) {
	p, ok := f.policies[site]
	if !ok {
		return models.Policy{}, models.ErrUnknownSite
	}
	return p, nil
}

func (f fakeSource) AlarmRoutes() ([]models.AlarmRoute, error) { return f.routes, nil }

type memParams struct {
	mu   sync.Mutex
	vals map[string]map[string]string
	err  error
}

func (m *memParams) List(_ context.Context, site string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]string{}
	for k, v := range m.vals[site] {
		out[k] = v
	}
	return out, nil
}

func (m *memParams) Set(_ context.Context, site, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals == nil {
		m.vals = map[string]map[string]string{}
	}
	if m.vals[site] == nil {
		m.vals[site] = map[string]string{}
	}
	m.vals[site][key] = value
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	records []models.AuditRecord
	gotF    models.AuditFilter
	listErr error
}

func (m *memAudit) Append(_ context.Context, r models.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memAudit) List(_ context.Context, f models.AuditFilter) ([]models.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotF = f
	return m.records, m.listErr
}

type sinkFunc func(ctx context.Context, rec models.AuditRecord) error

func (f sinkFunc) Publish(ctx context.Context, rec models.AuditRecord) error { return f(ctx, rec) }

// tankPolicy is the 88k tank site in UTC.
func tankPolicy() models.Policy {
	return models.Policy{
		Site:            "88k",
		MonitoredDevice: "TreatmentPlant",
		OutputZone:      "88k Pump",
		LevelDevice:     "88kTank",
		LevelZone:       "88k Level",
		LevelUnit:       "Ft",
		HighLevel:       23.3,
		NoonLevel:       23.0,
		LowLevel:        20,
		NoonWindow:      models.HourWindow{Start: 12, End: 21, EndExclusive: true, Enabled: true},
		OnHour:          -1,
		OnWindowMinutes: 30,
		Timezone:        "UTC",
	}
}

// wellPolicy is an output-only site with no level rules.
func wellPolicy() models.Policy {
	return models.Policy{
		Site:            "well3",
		MonitoredDevice: "Well#3",
		OutputZone:      "#3 Well Pump",
		OnHour:          -1,
		Timezone:        "UTC",
	}
}

type cycleRig struct {
	sim     *sensaphone.Simulator
	api     *countingAPI
	store   *memCredStore
	audit   *memAudit
	svc     *CycleService
	sess    *SessionManager
	now     time.Time
	publish []models.AuditRecord
}

func newCycleRig(t *testing.T, at time.Time) *cycleRig {
	t.Helper()
	r := &cycleRig{
		sim:   sensaphone.NewSimulator("ops", "pw"),
		store: &memCredStore{},
		audit: &memAudit{},
		now:   at,
	}
	r.api = &countingAPI{DeviceAPI: r.sim}
	r.sess = NewSessionManager(r.store, r.api, staticSecrets{user: "ops", pass: "pw"}, time.Minute, nil, nil)
	src := fakeSource{policies: map[string]models.Policy{"88k": tankPolicy(), "well3": wellPolicy()}}
	r.svc = NewCycleService(CycleDeps{
		Policies:   NewPolicyService(src, &memParams{}),
		Sessions:   r.sess,
		API:        r.api,
		Dispatcher: NewDispatcher(r.api, nil, nil),
		Audit:      r.audit,
		Sink: sinkFunc(func(_ context.Context, rec models.AuditRecord) error {
			r.publish = append(r.publish, rec)
			return nil
		}),
		Now: func() time.Time { return r.now },
	})
	return r
}

func at(hour int) time.Time {
	return time.Date(2025, time.June, 2, hour, 0, 0, 0, time.UTC)
}
