package ir

const poolPageSize = 128

// Pool is an arena of T that vends pointers which stay stable for the
// lifetime of the pool: T is never moved or freed once allocated, only
// logically invalidated by its owner. This is what lets Value/Instruction/
// BasicBlock identifiers remain permanently resolvable (see §3 "Lifecycle").
type Pool[T any] struct {
	pages            []*[poolPageSize]T
	allocated, index int
}

// NewPool returns a ready-to-use Pool.
func NewPool[T any]() Pool[T] {
	var p Pool[T]
	p.Reset()
	return p
}

// Allocated returns the number of items ever allocated from this pool
// since the last Reset.
func (p *Pool[T]) Allocated() int {
	return p.allocated
}

// Allocate returns a pointer to a fresh, zero-valued T.
func (p *Pool[T]) Allocate() *T {
	if p.index == poolPageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([poolPageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([poolPageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret
}

// AllocateID reserves the next entity slot as a stable, domain-level id
// rather than a bare pointer: every Value/Instruction/BasicBlock id space
// in this package treats 0 as its permanent invalid sentinel (§3), so the
// pool burns its own slot 0 the first time it is drawn from and hands
// every real caller back a 1-based id alongside the zero-valued slot to
// populate. This folds what used to be three copies of the same
// reserve-then-burn dance (Data.reserveBlockID, Data.reserveInstID, and
// CreateValue's inline check) into the one place that actually owns slot
// layout.
func (p *Pool[T]) AllocateID() (id int, item *T) {
	if p.allocated == 0 {
		p.Allocate() // burn slot 0, the invalid sentinel every id type reserves
	}
	id = p.allocated
	item = p.Allocate()
	return id, item
}

// View returns the pointer to the i-th item ever allocated from this pool.
// The id is stable across Allocate calls and is what instruction/value/
// basic-block identifiers are built from.
func (p *Pool[T]) View(i int) *T {
	page, index := i/poolPageSize, i%poolPageSize
	return &p.pages[page][index]
}

// Reset reclaims the pool for reuse by a new function, zeroing every
// slot it ever handed out.
func (p *Pool[T]) Reset() {
	for _, page := range p.pages {
		for i := range page {
			var zero T
			page[i] = zero
		}
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
	p.allocated = 0
}
