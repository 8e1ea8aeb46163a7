package domain

// TouchpointRing is a fixed-capacity FIFO of touchpoint ids. Once full, each
// push overwrites the oldest slot.
type TouchpointRing struct {
	buf   []string
	start int
	size  int
}

// NewTouchpointRing creates a ring holding at most capacity ids. ids are
// pushed in order, so only the newest capacity entries are kept.
func NewTouchpointRing(capacity int, ids ...string) *TouchpointRing {
	if capacity < 1 {
		capacity = 1
	}
	r := &TouchpointRing{buf: make([]string, capacity)}
	for _, id := range ids {
		r.Push(id)
	}
	return r
}

// Push appends id. When the ring is full the oldest id is overwritten.
func (r *TouchpointRing) Push(id string) {
	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.start+r.size)%capacity] = id
		r.size++
		return
	}

	r.buf[r.start] = id
	r.start = (r.start + 1) % capacity
}

// IDs returns the ids ordered oldest to newest
func (r *TouchpointRing) IDs() []string {
	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *TouchpointRing) Len() int { return r.size }
