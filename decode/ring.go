package decode

import "gonum.org/v1/gonum/floats"

// Ring is a fixed-capacity history. Push overwrites the oldest value once
// full. A new ring holds zeros.
type Ring struct {
	buf []float64
	idx int
}

func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]float64, capacity)}
}

func (r *Ring) Push(v float64) {
	r.buf[r.idx] = v
	r.idx++
	if r.idx == len(r.buf) {
		r.idx = 0
	}
}

func (r *Ring) Max() float64 {
	return floats.Max(r.buf)
}

func (r *Ring) Min() float64 {
	return floats.Min(r.buf)
}

// Values returns a copy of the history, oldest first.
func (r *Ring) Values() []float64 {
	values := make([]float64, 0, len(r.buf))
	values = append(values, r.buf[r.idx:]...)
	return append(values, r.buf[:r.idx]...)
}
