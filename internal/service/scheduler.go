package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"pump_control/internal/logger"
	"pump_control/internal/models"
)

const maxConcurrentSites = 4

// SiteLister names the sites a scheduled round covers.
type SiteLister interface {
	Sites() ([]string, error)
}

// Scheduler runs threshold cycles for every site on a fixed interval.
type Scheduler struct {
	cycles Cycle
	sites  SiteLister
	log    *logger.Logger
}

func NewScheduler(cycles Cycle, sites SiteLister, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{cycles: cycles, sites: sites, log: log}
}

// Run ticks until ctx is canceled. A round still in flight when the next tick
// fires delays that tick.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Round(ctx)
		}
	}
}

// Round runs one scheduled cycle per site, a few at a time, and returns the
// reports in site order.
func (s *Scheduler) Round(ctx context.Context) []models.CycleReport {
	sites, err := s.sites.Sites()
	if err != nil {
		s.log.Errorw("schedule_sites_failed", "err", err)
		return nil
	}

	reports := make([]models.CycleReport, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSites)
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			reports[i] = s.cycles.RunScheduled(gctx, site)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}
