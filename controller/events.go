package controller

import (
	"sync"

	"github.com/gogpu/graphforce"
)

// EventKind names one of the five observable controller events.
type EventKind int

const (
	EventTick EventKind = iota
	EventEnd
	EventPause
	EventResume
	EventRestart
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventEnd:
		return "end"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// Event is a single controller notification. Which fields are
// meaningful depends on Kind: Tick carries Alpha+TickCount, End
// carries TickCount, Pause/Resume/Restart carry Alpha.
type Event struct {
	Kind      EventKind
	Alpha     float64
	TickCount uint64
}

// Handler receives controller events. A Handler that panics is
// recovered and logged; it does not stop delivery to other handlers
// or crash the controller, per the "handlers that throw are logged
// and skipped" requirement.
type Handler func(Event)

// EventBus is a best-effort broadcast of controller events to zero or
// more subscribed handlers. Grounded on the teacher's
// SetLogger/loggerPtr single-slot idiom, generalized from one slot to
// a mutex-guarded slice since a controller realistically has more than
// one interested listener (UI, telemetry, test harness).
type EventBus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewEventBus returns an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers handler and returns an unsubscribe function.
func (b *EventBus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = append(b.handlers, handler)
	id := len(b.handlers) - 1

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if id < len(b.handlers) {
			b.handlers[id] = nil
		}
	}
}

// emit calls every live handler with ev, recovering and logging any
// panic so one misbehaving handler cannot take down the controller or
// block delivery to the rest.
func (b *EventBus) emit(ev Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if h == nil {
			continue
		}
		callHandler(h, ev)
	}
}

func callHandler(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			graphforce.Logger().Error("controller: event handler panicked",
				"event", ev.Kind.String(), "recovered", r)
		}
	}()
	h(ev)
}
