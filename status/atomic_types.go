package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 stored as atomic bits. The zero value
// reads as 0.0 and is ready to use.
type AtomicFloat struct {
	bits atomic.Uint64
}

// Set overwrites the value
func (f *AtomicFloat) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Get loads the current value
func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add applies delta with a CAS loop and returns the updated value
func (f *AtomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// MaxStringLen bounds stored string metrics; longer values truncate
// Quality level names and module ids fit comfortably
const MaxStringLen = 24

// AtomicString holds a short string metric behind a pointer swap.
// The zero value reads as the empty string.
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store replaces the value, truncating past MaxStringLen
func (s *AtomicString) Store(val string) {
	if len(val) > MaxStringLen {
		val = val[:MaxStringLen]
	}
	s.ptr.Store(&val)
}

// Load returns the current value
func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
