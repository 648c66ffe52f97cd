package sensaphone

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"pump_control/internal/models"
)

// newBreaker trips after MaxFailures consecutive transport failures. Session
// and write rejections are answers from a healthy service and never count.
func newBreaker(name string, cfg Config) *gobreaker.CircuitBreaker {
	fails := cfg.MaxFailures
	if fails == 0 {
		fails = 5
	}
	open := cfg.OpenTimeout
	if open <= 0 {
		open = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: cfg.ResetWindow,
		Timeout:  open,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, models.ErrTransport)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if cfg.OnBreakerChange != nil {
				cfg.OnBreakerChange(from, to)
			}
		},
	})
}
