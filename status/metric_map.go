package status

import (
	"sort"
	"sync"
)

// MetricMap registers named metrics of one atomic type. Lookups are
// guarded; the returned pointers are stable for the registry lifetime,
// so subsystems resolve them once at construction and write lock-free
// on the frame path afterwards.
type MetricMap[T any] struct {
	mu      sync.RWMutex
	metrics map[string]*T
	keys    []string // sorted lazily for Range
	dirty   bool
}

// NewMetricMap creates an empty metric map
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{metrics: make(map[string]*T)}
}

// Get resolves the metric for key, allocating it on first use. The
// pointer never changes for a given key.
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	ptr, ok := m.metrics[key]
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ptr, ok := m.metrics[key]; ok {
		return ptr
	}
	ptr = new(T)
	m.metrics[key] = ptr
	m.keys = append(m.keys, key)
	m.dirty = true
	return ptr
}

// Has reports whether key has been registered
func (m *MetricMap[T]) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.metrics[key]
	return ok
}

// Range visits all metrics in sorted key order; the diagnostic
// overlay depends on a stable iteration order between frames
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.mu.Lock()
	if m.dirty {
		sort.Strings(m.keys)
		m.dirty = false
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	m.mu.Unlock()

	for _, k := range keys {
		m.mu.RLock()
		ptr := m.metrics[k]
		m.mu.RUnlock()
		fn(k, ptr)
	}
}

// Count returns the number of registered metrics
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.metrics)
}
