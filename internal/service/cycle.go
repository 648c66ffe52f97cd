package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pump_control/internal/audit"
	"pump_control/internal/decision"
	"pump_control/internal/logger"
	"pump_control/internal/models"
	"pump_control/internal/repository"
)

const (
	DefaultCycleTimeout = 25 * time.Second
	auditWriteTimeout   = 5 * time.Second
)

type CycleDeps struct {
	Policies   Policies
	Sessions   *SessionManager
	API        SnapshotReader
	Dispatcher *Dispatcher
	Audit      repository.AuditRepo
	Sink       audit.Sink
	Metrics    Recorder
	Log        *logger.Logger
	Timeout    time.Duration
	Now        func() time.Time
}

// CycleService runs one decision cycle per call: read, decide, write at most
// once, record.
type CycleService struct {
	policies   Policies
	sessions   *SessionManager
	api        SnapshotReader
	dispatcher *Dispatcher
	audit      repository.AuditRepo
	sink       audit.Sink
	metrics    Recorder
	log        *logger.Logger
	timeout    time.Duration
	now        func() time.Time
}

func NewCycleService(d CycleDeps) *CycleService {
	s := &CycleService{
		policies:   d.Policies,
		sessions:   d.Sessions,
		api:        d.API,
		dispatcher: d.Dispatcher,
		audit:      d.Audit,
		sink:       d.Sink,
		metrics:    d.Metrics,
		log:        d.Log,
		timeout:    d.Timeout,
		now:        d.Now,
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultCycleTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RunScheduled is the timer-driven cycle: thresholds only, no override.
func (s *CycleService) RunScheduled(ctx context.Context, site string) models.CycleReport {
	return s.RunCycle(ctx, site, models.ScheduledTick())
}

// RunCycle always returns a report; failures are folded into its status code.
func (s *CycleService) RunCycle(ctx context.Context, site string, ev models.Event) (rep models.CycleReport) {
	started := s.now()
	site = normalizeSite(site)
	rep = models.CycleReport{Site: site, Event: ev}

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("cycle_panic", "site", site, "panic", r)
			rep = failed(rep, http.StatusInternalServerError, fmt.Errorf("internal error: %v", r))
		}
		s.finish(ctx, rep, started)
	}()

	pol, err := s.policies.Fetch(ctx, site)
	if err != nil {
		return failed(rep, statusFor(err), err)
	}
	rep.Zone = pol.ZoneLabel()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, cred, err := fetchWithRenew(ctx, s.sessions, s.api)
	if err != nil {
		return failed(rep, statusFor(err), err)
	}
	rep.Snapshot = &snap
	s.recordLevel(site, snap, pol)

	now := s.now()
	dec := decision.Decide(snap, ev, now, pol)
	rep.Decision = &dec
	rep.Narrative = dec.Narrative
	rep.Status = dec.Status

	target := resolveTarget(snap, ev, pol)

	res, err := s.dispatcher.Apply(ctx, cred, site, target, dec)
	if errors.Is(err, models.ErrSessionExpired) {
		cred, err = s.sessions.Renew(ctx, cred)
		if err == nil {
			res, err = s.dispatcher.Apply(ctx, cred, site, target, dec)
		}
		if errors.Is(err, models.ErrSessionExpired) {
			err = fmt.Errorf("%w: write rejected after re-login", models.ErrAuth)
		}
	}
	if err != nil {
		return failed(rep, statusFor(err), err)
	}

	rep.Result = &res
	rep.StatusCode = res.StatusCode
	rep.Summary = res.Summary
	if dec.Status == models.StatusOK && res.AppliedValue == nil {
		rep.Status = models.StatusUpstreamFailure
	}
	return rep
}

func (s *CycleService) recordLevel(site string, snap models.Snapshot, pol models.Policy) {
	if !pol.HasLevelPolicy() {
		return
	}
	dev, ok := snap.Device(pol.LevelDevice)
	if !ok {
		return
	}
	z, ok := dev.Zone(pol.LevelZone)
	if !ok {
		return
	}
	if level, err := decision.ParseLevel(z.RawValue, pol.LevelUnit); err == nil {
		s.metrics.SetTankLevel(site, level)
	}
}

// finish persists and publishes the report. Recording runs even when the
// cycle ctx has expired.
func (s *CycleService) finish(ctx context.Context, rep models.CycleReport, started time.Time) {
	took := s.now().Sub(started)
	rec := models.AuditRecord{
		ID:         uuid.NewString(),
		OccurredAt: started.UTC(),
		Site:       rep.Site,
		StatusCode: rep.StatusCode,
		Status:     rep.Status,
		Narrative:  rep.Narrative,
		Event:      rep.Event,
		Decision:   rep.Decision,
		Result:     rep.Result,
		Snapshot:   rep.Snapshot,
		Error:      rep.Error,
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if s.audit != nil {
		if err := s.audit.Append(actx, rec); err != nil {
			s.log.Errorw("audit_append_failed", "site", rep.Site, "err", err)
		}
	}
	if s.sink != nil {
		if err := s.sink.Publish(actx, rec); err != nil {
			s.log.Warnw("audit_publish_failed", "site", rep.Site, "err", err)
		}
	}

	s.metrics.ObserveCycle(rep.Site, string(rep.Status), rep.StatusCode, took)
	s.log.Infow("cycle_completed",
		"site", rep.Site,
		"zone", rep.Zone,
		"status_code", rep.StatusCode,
		"terminal_status", rep.Status,
		"summary", rep.Summary,
		"narrative", rep.Narrative,
		"error", rep.Error,
		"took", took,
	)
}

// resolveTarget looks up the remote IDs of the output the cycle controls.
// Missing names leave zero IDs; Decide has already flagged them invalid.
func resolveTarget(snap models.Snapshot, ev models.Event, pol models.Policy) models.Target {
	t := models.Target{}
	t.DeviceName, t.ZoneName = decision.Target(ev, pol)
	if dev, ok := snap.Device(t.DeviceName); ok {
		t.DeviceID = dev.DeviceID
		if z, ok := dev.Zone(t.ZoneName); ok {
			t.ZoneID = z.ZoneID
		}
	}
	return t
}

func failed(rep models.CycleReport, code int, err error) models.CycleReport {
	rep.StatusCode = code
	rep.Summary = summaryFailure
	rep.Error = err.Error()
	switch {
	case code == http.StatusBadRequest:
		rep.Status = models.StatusInvalidInput
	case code >= http.StatusInternalServerError || code == http.StatusUnauthorized:
		rep.Status = models.StatusUpstreamFailure
	}
	if rep.Narrative == "" {
		rep.Narrative = err.Error()
	}
	return rep
}

// statusFor maps the error taxonomy onto report status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownSite):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
