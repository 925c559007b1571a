package pool

import (
	"fmt"
	"sync"
)

// Handle references a pooled resource. Handles carry the slot
// generation so emergency reclamation invalidates every handle that
// was outstanding when the pool was cleared
type Handle struct {
	index      uint32
	generation uint32
}

type slot[T any] struct {
	value      T
	generation uint32
	inUse      bool
}

// Pool is the single owner of reusable render resources
//
// Acquire/Release must be paired. Only Reclaim may force-clear the
// pool; it invalidates all outstanding handles and callers must
// re-acquire afterward
type Pool[T any] struct {
	mu       sync.Mutex
	slots    []slot[T]
	free     []uint32 // stack of free slot indices
	factory  func() T
	reset    func(*T)
	inUse    int
	reclaims int
	epoch    uint32 // bumped on reclaim so pre-reclaim handles go stale
}

// New creates a pool of capacity resources built by factory
// reset is called on release to scrub resource state; nil skips scrubbing
func New[T any](capacity int, factory func() T, reset func(*T)) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool[T]{
		factory: factory,
		reset:   reset,
	}
	p.initSlots(capacity)
	return p
}

func (p *Pool[T]) initSlots(capacity int) {
	p.slots = make([]slot[T], capacity)
	p.free = make([]uint32, capacity)
	for i := range p.slots {
		p.slots[i].value = p.factory()
		p.slots[i].generation = p.epoch
		// LIFO free list: low indices acquired first
		p.free[i] = uint32(capacity - 1 - i)
	}
	p.inUse = 0
}

// Acquire returns a handle and the resource it references
// Fails when the pool is exhausted; callers should treat that as
// backpressure, not allocate around it
func (p *Pool[T]) Acquire() (Handle, *T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return Handle{}, nil, fmt.Errorf("pool exhausted: %d/%d in use", p.inUse, len(p.slots))
	}

	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	s := &p.slots[idx]
	s.inUse = true
	p.inUse++

	return Handle{index: idx, generation: s.generation}, &s.value, nil
}

// Release returns a resource to the pool
// Stale handles (from before a reclamation) are rejected
func (p *Pool[T]) Release(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(h.index) >= len(p.slots) {
		return fmt.Errorf("release: handle index %d out of range", h.index)
	}
	s := &p.slots[h.index]
	if s.generation != h.generation {
		return fmt.Errorf("release: stale handle (generation %d, slot %d)", h.generation, s.generation)
	}
	if !s.inUse {
		return fmt.Errorf("release: double release of slot %d", h.index)
	}

	if p.reset != nil {
		p.reset(&s.value)
	}
	s.inUse = false
	s.generation++
	p.inUse--
	p.free = append(p.free, h.index)
	return nil
}

// Valid reports whether the handle still references a live resource
func (p *Pool[T]) Valid(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(h.index) < len(p.slots) &&
		p.slots[h.index].inUse &&
		p.slots[h.index].generation == h.generation
}

// Utilization returns the in-use ratio in [0, 1]
func (p *Pool[T]) Utilization() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.slots) == 0 {
		return 0
	}
	return float64(p.inUse) / float64(len(p.slots))
}

// Capacity returns the current slot count
func (p *Pool[T]) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// InUse returns the number of acquired resources
func (p *Pool[T]) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// ReclaimCount returns how many emergency reclamations have run
func (p *Pool[T]) ReclaimCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reclaims
}

// Reclaim force-clears the pool and reinitializes at newCapacity
// Every outstanding handle becomes stale; this is the emergency path,
// never routine release
func (p *Pool[T]) Reclaim(newCapacity int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if newCapacity < 1 {
		newCapacity = 1
	}
	// Large epoch step keeps post-reclaim generations ahead of any
	// release-bumped generation still held by a stale handle
	p.epoch += 1 << 16
	p.initSlots(newCapacity)
	p.reclaims++
}
