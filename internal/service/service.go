package service

import (
	"context"
	"time"

	"pump_control/internal/audit"
	"pump_control/internal/logger"
	"pump_control/internal/models"
	"pump_control/internal/repository"
	"pump_control/internal/sensaphone"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Cycle runs decision cycles for configured sites.
type Cycle interface {
	RunCycle(ctx context.Context, site string, ev models.Event) models.CycleReport
	RunScheduled(ctx context.Context, site string) models.CycleReport
}

// Alarms turns Sentinel alarms into shut-off cycles.
type Alarms interface {
	Route(ctx context.Context, alarm models.Alarm) ([]models.CycleReport, error)
}

// Policies reads and overrides site calibration.
type Policies interface {
	Fetch(ctx context.Context, site string) (models.Policy, error)
	Override(ctx context.Context, site, key, value string) (models.Policy, error)
}

// Monitoring exposes the live device snapshot.
type Monitoring interface {
	GetSnapshot(ctx context.Context) (models.Snapshot, error)
}

// AuditLog exposes the append-only cycle history with filtering access.
type AuditLog interface {
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditRecord, error)
}

// DeviceAPI is the remote Sensaphone.net account, real or simulated.
type DeviceAPI interface {
	Login(ctx context.Context, username, password string) (models.Credential, error)
	FetchSnapshot(ctx context.Context, cred models.Credential) (models.Snapshot, error)
	SetOutput(ctx context.Context, cred models.Credential, deviceID, zoneID int64, value int) (sensaphone.WriteResult, error)
}

// SecretProvider supplies the account username and password.
type SecretProvider interface {
	Credentials(ctx context.Context) (username, password string, err error)
}

// PolicySource is the configuration file behind site policies.
type PolicySource interface {
	Policy(site string) (models.Policy, error)
	AlarmRoutes() ([]models.AlarmRoute, error)
}

// Recorder receives operational metrics.
type Recorder interface {
	ObserveCycle(site, status string, code int, took time.Duration)
	ObserveWrite(site string, ok bool)
	ObserveLogin(ok bool)
	SetTankLevel(site string, level float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(string, string, int, time.Duration) {}
func (nopRecorder) ObserveWrite(string, bool)                       {}
func (nopRecorder) ObserveLogin(bool)                               {}
func (nopRecorder) SetTankLevel(string, float64)                    {}

// Deps collects what NewService wires together.
type Deps struct {
	Repos        *repository.Repository
	Credentials  repository.CredentialRepo // overrides Repos.Credentials, e.g. DynamoDB
	API          DeviceAPI
	Secrets      SecretProvider
	Source       PolicySource
	Sink         audit.Sink
	Metrics      Recorder
	Log          *logger.Logger
	SafetyMargin time.Duration
	CycleTimeout time.Duration
	SigningKey   string
	TokenTTL     time.Duration
}

type Service struct {
	Cycle
	Alarms
	Policies
	Monitoring
	AuditLog
	Authorization

	Sessions *SessionManager
}

// NewService wires repositories and remote clients into the concrete services.
func NewService(d Deps) *Service {
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	creds := d.Credentials
	if creds == nil {
		creds = d.Repos.Credentials
	}

	sessions := NewSessionManager(creds, d.API, d.Secrets, d.SafetyMargin, d.Metrics, d.Log)
	policies := NewPolicyService(d.Source, d.Repos.Params)
	dispatcher := NewDispatcher(d.API, d.Metrics, d.Log)
	cycles := NewCycleService(CycleDeps{
		Policies:   policies,
		Sessions:   sessions,
		API:        d.API,
		Dispatcher: dispatcher,
		Audit:      d.Repos.Audit,
		Sink:       d.Sink,
		Metrics:    d.Metrics,
		Log:        d.Log,
		Timeout:    d.CycleTimeout,
	})

	return &Service{
		Cycle:         cycles,
		Alarms:        NewAlarmService(d.Source, cycles, d.Log),
		Policies:      policies,
		Monitoring:    NewMonitoringService(sessions, d.API),
		AuditLog:      NewAuditLogService(d.Repos.Audit),
		Authorization: NewAuthService(d.Repos.Auth, d.SigningKey, d.TokenTTL),
		Sessions:      sessions,
	}
}
