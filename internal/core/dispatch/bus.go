// Package dispatch is the in-process pointer event source and sink.
//
// Input adapters Dispatch raw events into a Bus; the monitor subscribes to it,
// and playback re-emits synthetic events into the same Bus.
package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

// ErrUnsupportedEvent is returned for raw events whose type is not a known kind.
var ErrUnsupportedEvent = errors.New("unsupported pointer event")

// Handler receives raw events delivered by a Bus.
type Handler func(model.RawEvent)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers raw events synchronously to the subscribers of their kind.
type Bus struct {
	mu     sync.RWMutex
	subs   map[model.EventKind][]subscription
	nextID uint64
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[model.EventKind][]subscription)}
}

// Subscribe registers fn for kinds; no kinds means every kind. The returned
// function removes the subscription and is safe to call more than once.
func (b *Bus) Subscribe(kinds []model.EventKind, fn Handler) func() {
	if len(kinds) == 0 {
		kinds = model.AllEventKinds()
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	for _, kind := range kinds {
		b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: fn})
	}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id, kinds) })
	}
}

func (b *Bus) unsubscribe(id uint64, kinds []model.EventKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, kind := range kinds {
		subs := b.subs[kind]
		kept := subs[:0]
		for _, s := range subs {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(b.subs, kind)
		} else {
			b.subs[kind] = kept
		}
	}
}

// Dispatch delivers raw to the subscribers of its kind on the calling goroutine.
func (b *Bus) Dispatch(raw model.RawEvent) error {
	kind := model.EventKind(raw.Type)
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, raw.Type)
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[kind]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(raw)
	}
	return nil
}

// Subscribers returns the number of handlers registered for kind.
func (b *Bus) Subscribers(kind model.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
