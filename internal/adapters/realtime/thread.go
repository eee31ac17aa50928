package realtime

import (
	"sort"
	"sync"
)

// State of a Thread
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// Thread reconciles a loaded snapshot with live inserts. Events that arrive
// while the snapshot is loading are held and merged once it lands. Rows are
// de-duplicated by ID and kept ordered by (CreatedAt, ID).
//
// A bounded thread keeps only its newest rows. Anything ordered at or before
// the newest dropped row is then treated as already seen.
type Thread struct {
	mu      sync.Mutex
	state   State
	limit   int
	seen    map[string]struct{}
	items   []Event
	pending []Event

	trimmed bool
	floor   Event
}

// NewThread returns an idle thread that keeps every row
func NewThread() *Thread {
	return NewBoundedThread(0)
}

// NewBoundedThread returns an idle thread that keeps at most limit rows.
// A limit of zero or less keeps everything.
func NewBoundedThread(limit int) *Thread {
	return &Thread{limit: limit, seen: make(map[string]struct{})}
}

func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// BeginLoad discards current rows and starts buffering live events
func (t *Thread) BeginLoad() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateLoading
	t.seen = make(map[string]struct{})
	t.items = nil
	t.pending = nil
	t.trimmed = false
}

// Finish installs the snapshot, merges anything buffered during the load and
// returns the resulting rows. The returned rows are complete even when the
// thread itself retains fewer.
func (t *Thread) Finish(snapshot []Event) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateLoaded
	for _, ev := range snapshot {
		t.add(ev)
	}
	for _, ev := range t.pending {
		t.add(ev)
	}
	t.pending = nil

	sort.SliceStable(t.items, func(i, j int) bool { return before(t.items[i], t.items[j]) })
	rows := t.snapshot()
	t.trim()
	return rows
}

// Fail abandons a load and drops buffered events
func (t *Thread) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateIdle
	t.pending = nil
}

// Apply feeds a live event. It reports true only when the event is a new row
// on a loaded thread; buffered and duplicate events report false.
func (t *Thread) Apply(ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateLoading:
		t.pending = append(t.pending, ev)
		return false
	case StateLoaded:
		if _, dup := t.seen[ev.ID]; dup {
			return false
		}
		if t.trimmed && !before(t.floor, ev) {
			return false
		}
		t.seen[ev.ID] = struct{}{}
		i := sort.Search(len(t.items), func(i int) bool { return before(ev, t.items[i]) })
		t.items = append(t.items, Event{})
		copy(t.items[i+1:], t.items[i:])
		t.items[i] = ev
		t.trim()
		return true
	default:
		return false
	}
}

// Items returns a copy of the current rows
func (t *Thread) Items() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Thread) add(ev Event) {
	if _, dup := t.seen[ev.ID]; dup {
		return
	}
	t.seen[ev.ID] = struct{}{}
	t.items = append(t.items, ev)
}

func (t *Thread) trim() {
	if t.limit <= 0 || len(t.items) <= t.limit {
		return
	}
	drop := len(t.items) - t.limit
	for _, ev := range t.items[:drop] {
		delete(t.seen, ev.ID)
	}
	t.floor, t.trimmed = t.items[drop-1], true
	t.items = append([]Event(nil), t.items[drop:]...)
}

func (t *Thread) snapshot() []Event {
	out := make([]Event, len(t.items))
	copy(out, t.items)
	return out
}

func before(a, b Event) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
