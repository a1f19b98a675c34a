package kb

import (
	"sync"

	"github.com/signalsfoundry/orrery/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventSnapshotPublished EventType = iota
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type     EventType
	Snapshot model.Snapshot
}

// KnowledgeBase is an in-memory, thread-safe store of the latest published
// frame. The simulation engine writes; API handlers read and subscribe.
type KnowledgeBase struct {
	mu sync.RWMutex

	latest    model.Snapshot
	published bool
	bodies    map[string]int // name -> index into latest.Bodies
	seq       uint64

	subs    map[int]func(Event)
	nextSub int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		bodies: make(map[string]int),
		subs:   make(map[int]func(Event)),
	}
}

// Publish stores s as the latest snapshot, stamps its sequence number and
// notifies subscribers. The caller hands over ownership of s's slices.
func (kb *KnowledgeBase) Publish(s model.Snapshot) model.Snapshot {
	kb.mu.Lock()
	kb.seq++
	s.Seq = kb.seq
	kb.latest = s
	kb.published = true

	clear(kb.bodies)
	for i, b := range s.Bodies {
		kb.bodies[b.Name] = i
	}

	subs := make([]func(Event), 0, len(kb.subs))
	for _, fn := range kb.subs {
		subs = append(subs, fn)
	}
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	event := Event{Type: EventSnapshotPublished, Snapshot: s}
	for _, sub := range subs {
		sub(event)
	}
	return s
}

// Latest returns the most recent snapshot, or false before the first
// Publish.
func (kb *KnowledgeBase) Latest() (model.Snapshot, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.latest, kb.published
}

// GetBody returns the named body from the latest snapshot.
func (kb *KnowledgeBase) GetBody(name string) (model.BodyState, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	i, ok := kb.bodies[name]
	if !ok {
		return model.BodyState{}, false
	}
	return kb.latest.Bodies[i], true
}

// ListBodies returns a copy of the latest body states in hierarchy order.
func (kb *KnowledgeBase) ListBodies() []model.BodyState {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]model.BodyState(nil), kb.latest.Bodies...)
}

// Camera returns the camera state of the latest snapshot.
func (kb *KnowledgeBase) Camera() (model.CameraState, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.latest.Camera, kb.published
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function that is safe to call more than once.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextSub
	kb.nextSub++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (kb *KnowledgeBase) SubscriberCount() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.subs)
}
