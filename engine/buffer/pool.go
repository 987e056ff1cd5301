package buffer

import "sync"

type block struct {
	samples []float64
}

// Pool provides sync.Pool-based reuse of channel blocks so repeated graph
// compiles do not keep growing the heap.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &block{}
			},
		},
	}
}

// Get returns a zeroed channel block of the requested length.
// Callers must return it via Put when done.
func (p *Pool) Get(length int) []float64 {
	if length < 0 {
		length = 0
	}

	b := p.pool.Get().(*block)
	s := b.samples

	if cap(s) < length {
		return make([]float64, length)
	}

	s = s[:length]
	clear(s)

	return s
}

// Put returns a channel block to the pool for reuse.
// The caller must not use the block after calling Put.
func (p *Pool) Put(s []float64) {
	if cap(s) == 0 {
		return
	}

	p.pool.Put(&block{samples: s[:0]})
}
