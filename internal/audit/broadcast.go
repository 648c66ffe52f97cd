package audit

import (
	"context"
	"sync"

	"pump_control/internal/models"
)

const subscriberBuffer = 16

// Broadcaster hands every record to live subscribers, such as WebSocket
// clients. A subscriber that falls behind misses records rather than
// stalling the cycle.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan models.AuditRecord]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[chan models.AuditRecord]struct{}{}}
}

// Subscribe returns a record channel and a func that closes it.
func (b *Broadcaster) Subscribe() (<-chan models.AuditRecord, func()) {
	ch := make(chan models.AuditRecord, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster) Publish(_ context.Context, rec models.AuditRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- rec:
		default:
		}
	}
	return nil
}

// Subscribers reports how many clients are listening.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
