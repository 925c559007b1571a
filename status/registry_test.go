package status

import (
	"sync"
	"testing"
)

func TestMetricMapReturnsSamePointer(t *testing.T) {
	reg := NewRegistry()

	a := reg.Floats.Get("governor.fps_avg")
	b := reg.Floats.Get("governor.fps_avg")
	if a != b {
		t.Error("repeated Get should return the cached pointer")
	}

	a.Set(59.5)
	if got := b.Get(); got != 59.5 {
		t.Errorf("value through second pointer = %v, want 59.5", got)
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	ptrs := make([]*AtomicFloat, 16)
	for i := range ptrs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := reg.Floats.Get("shared")
			p.Add(1)
			ptrs[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(ptrs); i++ {
		if ptrs[i] != ptrs[0] {
			t.Fatal("concurrent Get produced distinct pointers for one key")
		}
	}
	if got := ptrs[0].Get(); got != 16 {
		t.Errorf("counter = %v, want 16", got)
	}
}

func TestAtomicFloatAdd(t *testing.T) {
	var f AtomicFloat

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Add(0.5)
			}
		}()
	}
	wg.Wait()

	if got := f.Get(); got != 400 {
		t.Errorf("sum = %v, want 400", got)
	}
}

func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString

	if s.Load() != "" {
		t.Error("zero value should read empty")
	}

	long := "this string is much longer than the limit"
	s.Store(long)
	if got := s.Load(); got != long[:MaxStringLen] {
		t.Errorf("stored %q, want truncation to %d bytes", got, MaxStringLen)
	}

	s.Store("ultra")
	if got := s.Load(); got != "ultra" {
		t.Errorf("stored %q, want ultra", got)
	}
}

func TestRegistryTotalCount(t *testing.T) {
	reg := NewRegistry()
	reg.Floats.Get("a")
	reg.Floats.Get("b")
	reg.Ints.Get("c")
	reg.Bools.Get("d")
	reg.Strings.Get("e")
	reg.Floats.Get("a") // repeat, no new metric

	if got := reg.TotalCount(); got != 5 {
		t.Errorf("TotalCount = %d, want 5", got)
	}
}
