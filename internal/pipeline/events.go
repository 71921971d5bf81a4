package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/rpger/content-extractor/constants"
)

// ProgressEvent is one update on a session's broadcast channel.
type ProgressEvent struct {
	SessionID string          `json:"session"`
	Stage     constants.Stage `json:"stage"`
	Percent   int             `json:"percent"`
	Note      string          `json:"note,omitempty"`
	At        time.Time       `json:"at"`
}

const subscriberBuffer = 64

// broadcaster fans progress events out to any number of subscribers.
// Delivery is best-effort: a slow subscriber drops events but never
// observes them out of order, and percent is monotone within a stage.
type broadcaster struct {
	mu          sync.Mutex
	subscribers map[int]chan ProgressEvent
	nextID      int
	latest      map[constants.Stage]ProgressEvent
	order       []constants.Stage // stages in first-seen order, for replay
	closed      bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subscribers: make(map[int]chan ProgressEvent),
		latest:      make(map[constants.Stage]ProgressEvent),
	}
}

// publish records the event and offers it to every subscriber. Within a
// stage, an event with a lower percent than the latest is discarded.
func (b *broadcaster) publish(ev ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if prev, ok := b.latest[ev.Stage]; ok && ev.Percent < prev.Percent {
		return
	}
	if _, seen := b.latest[ev.Stage]; !seen {
		b.order = append(b.order, ev.Stage)
	}
	b.latest[ev.Stage] = ev
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default: // slow subscriber; drop
		}
	}
}

// subscribe registers a new subscriber. The latest event per stage is
// replayed first, in stage order, so re-subscribing resumes cleanly.
func (b *broadcaster) subscribe() (<-chan ProgressEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ProgressEvent, subscriberBuffer)
	replay := make([]ProgressEvent, 0, len(b.order))
	for _, stage := range b.order {
		replay = append(replay, b.latest[stage])
	}
	sort.SliceStable(replay, func(i, j int) bool {
		return replay[i].At.Before(replay[j].At)
	})
	for _, ev := range replay {
		ch <- ev
	}
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// close ends the stream for all subscribers; the sequence is finite once a
// terminal state is reached.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
