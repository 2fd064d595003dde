package runtime

import "sync"

// EventKind identifies what a trace event records.
type EventKind uint8

const (
	EventAlloc EventKind = iota + 1
	EventFree
	EventCall
)

func (k EventKind) String() string {
	switch k {
	case EventAlloc:
		return "alloc"
	case EventFree:
		return "free"
	case EventCall:
		return "call"
	default:
		return "unknown"
	}
}

// Event is one host call made by emitted code.
type Event struct {
	Entry  string // method entry label, for EventCall
	Kind   EventKind
	Ptr    uint32 // allocated block, freed block or receiver
	Size   uint32 // requested size, for EventAlloc
	Result uint32
}

// Trace collects events in call order.
type Trace struct {
	events []Event
	mu     sync.Mutex
}

// Record appends an event.
func (t *Trace) Record(e Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (t *Trace) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Count returns the number of events of kind k. For EventCall an entry
// other than "" restricts the count to that entry.
func (t *Trace) Count(k EventKind, entry string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.events {
		if e.Kind == k && (entry == "" || e.Entry == entry) {
			n++
		}
	}
	return n
}

// Reset discards all events.
func (t *Trace) Reset() {
	t.mu.Lock()
	t.events = t.events[:0]
	t.mu.Unlock()
}
