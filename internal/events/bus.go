// Package events implements the in-process commit-then-notify bus. Services
// publish only AFTER their transaction commits; subscribers (order list view,
// KDS queue view, the sync pusher) therefore only ever observe committed
// snapshots. Nothing reads ambient globals.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Origen of a notification: a local command commit or a remote merge.
const (
	OrigenLocal = "local"
	OrigenMerge = "merge"
)

// Evento names a committed mutation: which table, which row, where it came from.
type Evento struct {
	Origen string
	Tabla  string
	ID     uuid.UUID
}

// Bus is a minimal fan-out. Publish never blocks: a subscriber that is not
// draining its channel misses notifications rather than stalling the command
// path (the periodic pull backstops missed refreshes).
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Evento
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Evento)}
}

// Subscribe returns a buffered channel of notifications and a cancel func.
func (b *Bus) Subscribe() (<-chan Evento, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Evento, 64)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Publish notifies all subscribers without blocking.
func (b *Bus) Publish(e Evento) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
