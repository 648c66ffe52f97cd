package service

import (
	"context"
	"fmt"
	"strings"

	"pump_control/internal/logger"
	"pump_control/internal/models"
)

// AlarmService shuts pumps off when a Sentinel reports a low chlorine barrel.
type AlarmService struct {
	source PolicySource
	cycles Cycle
	log    *logger.Logger
}

func NewAlarmService(source PolicySource, cycles Cycle, log *logger.Logger) *AlarmService {
	if log == nil {
		log = logger.Nop()
	}
	return &AlarmService{source: source, cycles: cycles, log: log}
}

// Route runs an off cycle for every site fed by the alarming Sentinel. Alarms
// of another kind, or with a non-positive reading (the Sentinel lost power),
// are ignored and yield no reports.
func (s *AlarmService) Route(ctx context.Context, alarm models.Alarm) ([]models.CycleReport, error) {
	if !strings.EqualFold(alarm.Kind, models.AlarmChlorineLow) || alarm.Reading <= 0 {
		s.log.Infow("alarm_ignored", "sentinel", alarm.Sentinel, "kind", alarm.Kind, "reading", alarm.Reading)
		return nil, nil
	}

	routes, err := s.source.AlarmRoutes()
	if err != nil {
		return nil, err
	}
	var sites []string
	for _, r := range routes {
		if strings.EqualFold(r.Sentinel, strings.TrimSpace(alarm.Sentinel)) {
			sites = r.Sites
			break
		}
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("%w: no alarm route for sentinel %q", models.ErrUnknownSite, alarm.Sentinel)
	}

	ev := models.Event{
		RequestedPumpState: models.PumpOff,
		Reason:             &models.Reason{Type: models.ReasonEmailAlarm, Value: true},
	}
	reports := make([]models.CycleReport, 0, len(sites))
	for _, site := range sites {
		reports = append(reports, s.cycles.RunCycle(ctx, site, ev))
	}
	s.log.Infow("alarm_routed", "sentinel", alarm.Sentinel, "reading", alarm.Reading, "sites", sites)
	return reports, nil
}
