package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pump_control/internal/logger"
	"pump_control/internal/models"
	"pump_control/internal/sensaphone"
)

const (
	summarySuccess  = "success"
	summaryFailure  = "failure"
	summaryNoChange = "no change needed"
)

// OutputWriter issues one output update.
type OutputWriter interface {
	SetOutput(ctx context.Context, cred models.Credential, deviceID, zoneID int64, value int) (sensaphone.WriteResult, error)
}

// Dispatcher turns a Decision into at most one remote write.
type Dispatcher struct {
	api     OutputWriter
	metrics Recorder
	log     *logger.Logger
}

func NewDispatcher(api OutputWriter, rec Recorder, log *logger.Logger) *Dispatcher {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{api: api, metrics: rec, log: log}
}

// Apply executes dec against target. Remote outcomes are folded into the
// CommandResult; only ErrSessionExpired and context errors are returned.
func (d *Dispatcher) Apply(ctx context.Context, cred models.Credential, site string, target models.Target, dec models.Decision) (models.CommandResult, error) {
	switch {
	case dec.Status == models.StatusInvalidInput:
		return models.CommandResult{StatusCode: http.StatusBadRequest, Summary: dec.Narrative}, nil
	case dec.Status == models.StatusPowerOut:
		code := http.StatusServiceUnavailable
		if dec.PowerOutDependent {
			code = http.StatusConflict
		}
		return models.CommandResult{StatusCode: code, Summary: dec.PowerSummary()}, nil
	case dec.DesiredValue == nil || dec.Status == models.StatusNoOp:
		return models.CommandResult{StatusCode: http.StatusOK, Summary: summaryNoChange}, nil
	}

	// last point where a cycle may be abandoned; a started write is never cut short
	if err := ctx.Err(); err != nil {
		return models.CommandResult{StatusCode: http.StatusGatewayTimeout, Summary: summaryFailure},
			fmt.Errorf("abandoned before write: %w", err)
	}

	value := *dec.DesiredValue
	res, err := d.api.SetOutput(context.WithoutCancel(ctx), cred, target.DeviceID, target.ZoneID, value)
	switch {
	case err == nil:
		d.metrics.ObserveWrite(site, true)
		d.log.Infow("output_written", "site", site, "device", target.DeviceName, "zone", target.ZoneName, "value", value)
		return models.CommandResult{
			StatusCode:   http.StatusOK,
			AppliedValue: models.Value(value),
			RawResponse:  res.Raw,
			Summary:      summarySuccess,
		}, nil
	case errors.Is(err, models.ErrSessionExpired):
		return models.CommandResult{}, err
	case errors.Is(err, models.ErrUpstream):
		d.metrics.ObserveWrite(site, false)
		d.log.Warnw("output_rejected", "site", site, "code", res.Code, "message", res.Message)
		code := res.Code
		if code <= 0 {
			code = http.StatusBadGateway
		}
		return models.CommandResult{StatusCode: code, RawResponse: res.Raw, Summary: summaryFailure}, nil
	default:
		d.metrics.ObserveWrite(site, false)
		d.log.Errorw("output_write_failed", "site", site, "err", err)
		return models.CommandResult{StatusCode: http.StatusBadGateway, Summary: summaryFailure}, nil
	}
}
