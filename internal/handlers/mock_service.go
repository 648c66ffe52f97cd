package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"pump_control/internal/models"
	"pump_control/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCycle struct {
	report   models.CycleReport
	lastSite string
	lastEv   models.Event
	calls    int
}

func (m *mockCycle) RunCycle(_ context.Context, site string, ev models.Event) models.CycleReport {
	m.calls++
	m.lastSite, m.lastEv = site, ev
	r := m.report
	r.Site = site
	return r
}
func (m *mockCycle) RunScheduled(ctx context.Context, site string) models.CycleReport {
	return m.RunCycle(ctx, site, models.ScheduledTick())
}

type mockAlarms struct {
	reports   []models.CycleReport
	err       error
	lastAlarm models.Alarm
}

func (m *mockAlarms) Route(_ context.Context, a models.Alarm) ([]models.CycleReport, error) {
	m.lastAlarm = a
	return m.reports, m.err
}

type mockPolicies struct {
	policy    models.Policy
	err       error
	lastKey   string
	lastValue string
}

func (m *mockPolicies) Fetch(_ context.Context, site string) (models.Policy, error) {
	p := m.policy
	p.Site = site
	return p, m.err
}
func (m *mockPolicies) Override(_ context.Context, site, key, value string) (models.Policy, error) {
	m.lastKey, m.lastValue = key, value
	p := m.policy
	p.Site = site
	return p, m.err
}

type mockMonitoring struct {
	snap  models.Snapshot
	err   error
	calls int
}

func (m *mockMonitoring) GetSnapshot(context.Context) (models.Snapshot, error) {
	m.calls++
	return m.snap, m.err
}

type mockAuditLog struct {
	resp  []models.AuditRecord
	err   error
	lastF models.AuditFilter
}

func (m *mockAuditLog) List(_ context.Context, f models.AuditFilter) ([]models.AuditRecord, error) {
	m.lastF = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, opts...).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
