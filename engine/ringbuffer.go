package engine

// RingBuffer is a fixed size buffer with a write cursor. WriteOnce fills it
// once and drops what does not fit; WriteWrap writes around the end.
type RingBuffer[T any] struct {
	Buffer []T
	Cursor int
}

// WriteWrap writes values starting at the cursor, wrapping around the end of
// the buffer, and leaves the cursor after the last written value.
func (r *RingBuffer[T]) WriteWrap(values []T) {
	if len(r.Buffer) == 0 {
		return
	}
	for len(values) > 0 {
		n := copy(r.Buffer[r.Cursor:], values)
		values = values[n:]
		r.Cursor = (r.Cursor + n) % len(r.Buffer)
	}
}

// WriteOnce appends values until the buffer is full and returns how many of
// them fit.
func (r *RingBuffer[T]) WriteOnce(values []T) int {
	if r.Cursor >= len(r.Buffer) {
		return 0
	}
	n := copy(r.Buffer[r.Cursor:], values)
	r.Cursor += n
	return n
}

func (r *RingBuffer[T]) Full() bool { return r.Cursor >= len(r.Buffer) }
