package otel

import "sync"

// DefaultRingSize is used when NewRingBuffer gets a non-positive size.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events in memory. Safe for concurrent
// use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	head  int // next write slot
	count int
}

// NewRingBuffer returns a ring holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied so
// later writes by the caller don't show up in the ring.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// oldest returns the slot of the oldest event. Caller holds mu.
func (r *RingBuffer) oldest() int {
	if r.count < len(r.buf) {
		return 0
	}
	return r.head
}

// Snapshot copies every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	out := make([]Event, n)
	start := (r.head - n + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Filter returns up to n of the newest events whose subsystem matches,
// oldest first. An empty subsystem matches everything.
func (r *RingBuffer) Filter(subsystem string, n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 {
		return nil
	}
	var rev []Event
	for i := 0; i < r.count && len(rev) < n; i++ {
		e := r.buf[(r.head-1-i+2*len(r.buf))%len(r.buf)]
		if subsystem == "" || e.Kind.Subsystem() == subsystem {
			rev = append(rev, e)
		}
	}
	out := make([]Event, len(rev))
	for i, e := range rev {
		out[len(rev)-1-i] = e
	}
	return out
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the ring capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	start := r.oldest()
	for i := 0; i < r.count; i++ {
		counts[r.buf[(start+i)%len(r.buf)].Kind]++
	}
	return counts
}
