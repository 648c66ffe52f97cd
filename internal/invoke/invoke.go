// Package invoke adapts trigger payloads (Lambda events, CLI input) to the
// cycle and alarm services.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pump_control/internal/logger"
	"pump_control/internal/models"
	"pump_control/internal/service"
)

// Request is one trigger. Exactly one of Site, Alarm or Scheduled is used, in
// that order of precedence.
type Request struct {
	Site      string        `json:"site,omitempty"`
	Event     models.Event  `json:"requested_change"`
	Alarm     *models.Alarm `json:"alarm,omitempty"`
	Scheduled bool          `json:"scheduled,omitempty"`
}

// Response mirrors the worst status among the reports it carries.
type Response struct {
	StatusCode int                  `json:"statusCode"`
	Reports    []models.CycleReport `json:"reports"`
	Error      string               `json:"error,omitempty"`
}

var errEmptyRequest = errors.New("request names no site, alarm or schedule")

// Rounder runs one scheduled cycle per configured site.
type Rounder interface {
	Round(ctx context.Context) []models.CycleReport
}

type Handler struct {
	Cycles    service.Cycle
	Alarms    service.Alarms
	Scheduler Rounder
	Log       *logger.Logger
}

// HandleRequest never returns an error for a cycle outcome; those live in the
// response. Only a malformed request fails the invocation.
func (h *Handler) HandleRequest(ctx context.Context, req Request) (Response, error) {
	log := h.Log
	if log == nil {
		log = logger.Nop()
	}

	switch {
	case req.Site != "":
		rep := h.Cycles.RunCycle(ctx, req.Site, req.Event)
		return respond(rep), nil
	case req.Alarm != nil:
		reports, err := h.Alarms.Route(ctx, *req.Alarm)
		if err != nil {
			log.Warnw("invoke_alarm_failed", "sentinel", req.Alarm.Sentinel, "err", err)
			code := http.StatusInternalServerError
			if errors.Is(err, models.ErrUnknownSite) {
				code = http.StatusNotFound
			}
			return Response{StatusCode: code, Reports: []models.CycleReport{}, Error: err.Error()}, nil
		}
		return respond(reports...), nil
	case req.Scheduled && h.Scheduler != nil:
		return respond(h.Scheduler.Round(ctx)...), nil
	default:
		return Response{}, fmt.Errorf("%w: %w", models.ErrInvalidInput, errEmptyRequest)
	}
}

// respond picks the highest report status code, or 200 when there are none.
func respond(reports ...models.CycleReport) Response {
	out := Response{StatusCode: http.StatusOK, Reports: reports}
	if out.Reports == nil {
		out.Reports = []models.CycleReport{}
	}
	for _, r := range reports {
		if r.StatusCode > out.StatusCode {
			out.StatusCode = r.StatusCode
		}
	}
	return out
}
