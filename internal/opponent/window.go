package opponent

// ring is a fixed-capacity FIFO that overwrites its oldest element.
type ring[T any] struct {
	buf   []T
	start int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v. When full, the oldest element is dropped and returned.
func (r *ring[T]) push(v T) (dropped T, ok bool) {
	if r.size == len(r.buf) {
		dropped = r.buf[r.start]
		r.buf[r.start] = v
		r.start = (r.start + 1) % len(r.buf)
		return dropped, true
	}
	r.buf[(r.start+r.size)%len(r.buf)] = v
	r.size++
	return dropped, false
}
