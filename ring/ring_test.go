package ring

import (
	"errors"
	"testing"
)

type countingSource struct {
	calls int
	grant int // words granted; 0 grants exactly the request
	err   error
	next  uint64
}

func (s *countingSource) Acquire(words int) (Region, error) {
	s.calls++
	if s.err != nil {
		return Region{}, s.err
	}
	n := s.grant
	if n == 0 {
		n = words
	}
	r := Region{Addr: 0x9000_0000 + s.next, Mem: make([]uint32, n)}
	s.next += uint64(n) * 4
	return r, nil
}

func TestNewRegionCount(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{4, false},
		{5, true},
	}
	for _, tt := range tests {
		_, err := New(Config{Regions: NewRegions(tt.n, 8, 0x1000)}, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%d regions) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrRegionCount) {
			t.Errorf("New(%d regions) error = %v, want %v", tt.n, err, ErrRegionCount)
		}
	}
}

func TestReserveSequential(t *testing.T) {
	a, err := New(Config{Regions: NewRegions(1, 16, 0x1000), GlobalTableAddr: 0xABC}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first, err := a.Reserve(4)
	if err != nil {
		t.Fatalf("Reserve(4) error = %v", err)
	}
	second, err := a.Reserve(6)
	if err != nil {
		t.Fatalf("Reserve(6) error = %v", err)
	}

	if first.Addr != 0x1000 {
		t.Errorf("first.Addr = %#x, want 0x1000", first.Addr)
	}
	if second.Addr != 0x1000+16 {
		t.Errorf("second.Addr = %#x, want %#x", second.Addr, 0x1000+16)
	}
	if len(first.Mem) != 4 || cap(first.Mem) != 4 {
		t.Errorf("first.Mem len/cap = %d/%d, want 4/4", len(first.Mem), cap(first.Mem))
	}

	first.Mem[3] = 7
	second.Mem[0] = 9
	if first.Mem[3] != 7 {
		t.Error("allocations overlap")
	}

	if a.Used() != 10 || a.Remaining() != 6 {
		t.Errorf("Used/Remaining = %d/%d, want 10/6", a.Used(), a.Remaining())
	}
	if a.GlobalTableAddr() != 0xABC {
		t.Errorf("GlobalTableAddr() = %#x, want 0xabc", a.GlobalTableAddr())
	}
}

func TestReserveWraparound(t *testing.T) {
	const n, words = 3, 8
	src := &countingSource{}
	a, err := New(Config{Regions: NewRegions(n, words, 0x1000)}, src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Exactly exhausting the region succeeds without the source.
	for range 2 {
		if _, err := a.Reserve(words / 2); err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
	}
	if src.calls != 0 {
		t.Fatalf("source called %d times before exhaustion", src.calls)
	}
	if a.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", a.Remaining())
	}

	// One word past exhaustion consults the source exactly once.
	over, err := a.Reserve(1)
	if err != nil {
		t.Fatalf("Reserve(1) past end error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	if over.Addr != 0x9000_0000 {
		t.Errorf("overflow Addr = %#x, want 0x90000000", over.Addr)
	}
	if !a.Overflowing() || a.OverflowCount() != 1 {
		t.Errorf("Overflowing/OverflowCount = %v/%d, want true/1", a.Overflowing(), a.OverflowCount())
	}

	// Swap resets to the next region start and cycles back after n swaps.
	for i := 1; i <= n; i++ {
		a.Swap()
		want := i % n
		if a.Current() != want {
			t.Errorf("after %d swaps Current() = %d, want %d", i, a.Current(), want)
		}
		if a.Used() != 0 || a.Remaining() != words {
			t.Errorf("after %d swaps Used/Remaining = %d/%d, want 0/%d", i, a.Used(), a.Remaining(), words)
		}
		if a.Overflowing() {
			t.Errorf("after %d swaps still overflowing", i)
		}
		got, err := a.Reserve(1)
		if err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		wantAddr := NewRegions(n, words, 0x1000)[want].Addr
		if got.Addr != wantAddr {
			t.Errorf("after %d swaps Addr = %#x, want %#x", i, got.Addr, wantAddr)
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestReserveOutOfMemory(t *testing.T) {
	srcErr := errors.New("device lost")
	tests := []struct {
		name string
		src  BufferSource
	}{
		{"no source", nil},
		{"source error", &countingSource{err: srcErr}},
		{"short grant", &countingSource{grant: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(Config{Regions: NewRegions(1, 4, 0)}, tt.src)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			_, err = a.Reserve(5)
			if !errors.Is(err, ErrOutOfMemory) {
				t.Errorf("Reserve(5) error = %v, want %v", err, ErrOutOfMemory)
			}
			if a.Used() != 0 {
				t.Errorf("Used() = %d after failed Reserve, want 0", a.Used())
			}
		})
	}

	t.Run("wraps source error", func(t *testing.T) {
		a, _ := New(Config{Regions: NewRegions(1, 4, 0)}, &countingSource{err: srcErr})
		if _, err := a.Reserve(8); !errors.Is(err, srcErr) {
			t.Errorf("Reserve() error = %v, want wrapped %v", err, srcErr)
		}
	})
}

type recyclingSource struct {
	countingSource
	recycled int
}

func (s *recyclingSource) Recycle() { s.recycled++ }

func TestSwapRecycles(t *testing.T) {
	src := &recyclingSource{}
	a, err := New(Config{Regions: NewRegions(2, 4, 0)}, src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	a.Swap()
	a.Swap()
	if src.recycled != 2 {
		t.Errorf("Recycle calls = %d, want 2", src.recycled)
	}
}

func TestHeapSource(t *testing.T) {
	src := HeapSource(0x4000, 64)
	r1, err := src.Acquire(10)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	r2, _ := src.Acquire(100)
	if r1.SizeInWords() != 64 || r2.SizeInWords() != 100 {
		t.Errorf("sizes = %d, %d, want 64, 100", r1.SizeInWords(), r2.SizeInWords())
	}
	if r2.Addr != 0x4000+256 {
		t.Errorf("r2.Addr = %#x, want %#x", r2.Addr, 0x4000+256)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		x, align, want uint64
	}{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
	}
	for _, tt := range tests {
		if got := alignUp(tt.x, tt.align); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.x, tt.align, got, tt.want)
		}
	}
}

func BenchmarkReserve(b *testing.B) {
	a, _ := New(Config{Regions: NewRegions(2, 1<<16, 0)}, nil)
	b.ReportAllocs()
	for b.Loop() {
		if a.Remaining() < 16 {
			a.Swap()
		}
		_, _ = a.Reserve(16)
	}
}
