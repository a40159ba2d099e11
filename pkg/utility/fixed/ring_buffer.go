package fixed

import "fmt"

// RingBuffer keeps the last Capacity points. Index 0 is the most recent one.
type RingBuffer struct {
	buffer []Point
	size   int
	tail   int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		panic("capacity must be positive")
	}
	return &RingBuffer{
		buffer: make([]Point, capacity),
	}
}

func (r *RingBuffer) Size() int     { return r.size }
func (r *RingBuffer) Capacity() int { return len(r.buffer) }
func (r *RingBuffer) IsFull() bool  { return r.size == len(r.buffer) }

func (r *RingBuffer) Clear() {
	r.size = 0
	r.tail = 0
}

func (r *RingBuffer) Add(p Point) {
	r.buffer[r.tail] = p
	r.tail = (r.tail + 1) % len(r.buffer)

	if r.size < len(r.buffer) {
		r.size++
	}
}

func (r *RingBuffer) Get(idx int) Point {
	if idx < 0 || idx >= r.size {
		panic(fmt.Sprintf("index %d out of range [0, %d)", idx, r.size))
	}
	return r.buffer[(r.tail-1-idx+len(r.buffer))%len(r.buffer)]
}

func (r *RingBuffer) Latest() Point {
	return r.Get(0)
}

// Points returns the buffered points from the oldest to the most recent.
func (r *RingBuffer) Points() []Point {
	points := make([]Point, r.size)
	for i := range points {
		points[i] = r.Get(r.size - 1 - i)
	}
	return points
}

func (r *RingBuffer) Mean() Point {
	return Mean(r.Points())
}

func (r *RingBuffer) StdDev() Point {
	points := r.Points()
	return StdDev(points, Mean(points))
}

func (r *RingBuffer) SampleStdDev() Point {
	points := r.Points()
	return SampleStdDev(points, Mean(points))
}
