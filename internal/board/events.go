package board

import (
	"sync"

	"github.com/bridgeboard/bridgeboard/internal/logging"
	"github.com/bridgeboard/bridgeboard/pkg/types"
)

const defaultEventBuffer = 64

// eventFeed fans board lifecycle events out to subscribers. Emission never
// blocks a board operation: a subscriber that falls behind drops events.
type eventFeed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan types.Event
}

func newEventFeed() *eventFeed {
	return &eventFeed{subs: make(map[int]chan types.Event)}
}

func (f *eventFeed) subscribe(buffer int) (<-chan types.Event, func()) {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	ch := make(chan types.Event, buffer)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *eventFeed) emit(ev types.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			logging.Warn("event subscriber lagging, dropping event",
				logging.Handle(uint64(ev.Handle)),
				logging.Component("board"))
		}
	}
}
