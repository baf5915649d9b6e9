package ring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/resbind"
	"github.com/gogpu/wgpu/hal"
	"honnef.co/go/safeish"
)

// HAL source errors.
var (
	// ErrBudgetExceeded is returned when an acquisition would exceed the
	// source's memory budget.
	ErrBudgetExceeded = errors.New("ring: memory budget exceeded")

	// ErrSourceClosed is returned when operating on a closed source.
	ErrSourceClosed = errors.New("ring: buffer source closed")

	// ErrUnknownAllocation is returned by Upload for an allocation no
	// region of the source contains.
	ErrUnknownAllocation = errors.New("ring: allocation not owned by source")
)

// Default HAL source limits.
const (
	// DefaultHALMemoryMB is the default budget (64 MB).
	DefaultHALMemoryMB = 64

	// MinHALMemoryMB is the smallest accepted budget.
	MinHALMemoryMB = 1

	// DefaultRegionSizeInWords is the default region size (64 KB).
	DefaultRegionSizeInWords = 16 * 1024

	// halBaseAddr is the first synthetic region address.
	halBaseAddr = 0x1_0000_0000
)

// HALSourceConfig configures a HALSource.
type HALSourceConfig struct {
	// Label prefixes the debug labels of created buffers.
	Label string

	// RegionSizeInWords is the minimum size of every region.
	// Defaults to DefaultRegionSizeInWords if <= 0.
	RegionSizeInWords int

	// MaxMemoryMB is the budget for all live buffers.
	// Defaults to DefaultHALMemoryMB if < MinHALMemoryMB.
	MaxMemoryMB int
}

// HALStats reports HALSource memory usage.
type HALStats struct {
	BudgetBytes uint64
	UsedBytes   uint64
	Pinned      int    // regions from Regions, live until Close
	Overflow    int    // overflow regions not yet destroyed
	Acquired    uint64 // overflow regions created
	Destroyed   uint64 // overflow regions destroyed by Recycle
}

func (s HALStats) String() string {
	return fmt.Sprintf("HAL[%d/%d KB, %d pinned, %d overflow, %d acquired, %d destroyed]",
		s.UsedBytes/1024, s.BudgetBytes/1024, s.Pinned, s.Overflow, s.Acquired, s.Destroyed)
}

type halRegion struct {
	buf  hal.Buffer
	addr uint64
	mem  []uint32
	size uint64
}

func (r *halRegion) contains(addr uint64, words int) bool {
	return addr >= r.addr && addr+uint64(words)*4 <= r.addr+uint64(len(r.mem))*4
}

// HALSource is a BufferSource backed by storage buffers on a HAL device.
// Every region keeps a CPU shadow; Upload copies reserved words from the
// shadow into the buffer.
//
// The HAL does not expose device addresses, so region addresses are
// synthetic, unique and monotonically increasing.
//
// Overflow regions are destroyed one Recycle after the cycle that
// acquired them ended, leaving the GPU a cycle to finish reading.
//
// HALSource is safe for concurrent use.
type HALSource struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	label       string
	regionWords int
	budgetBytes uint64
	usedBytes   uint64
	nextAddr    uint64

	pinned  []*halRegion
	live    []*halRegion // overflow regions of the current cycle
	retired []*halRegion // overflow regions of the previous cycle

	acquired  uint64
	destroyed uint64
	closed    bool
}

// NewHALSource creates a source that allocates on device and uploads
// through queue.
func NewHALSource(device hal.Device, queue hal.Queue, cfg HALSourceConfig) *HALSource {
	words := cfg.RegionSizeInWords
	if words <= 0 {
		words = DefaultRegionSizeInWords
	}
	maxMB := cfg.MaxMemoryMB
	if maxMB < MinHALMemoryMB {
		maxMB = DefaultHALMemoryMB
	}
	label := cfg.Label
	if label == "" {
		label = "resbind_ring"
	}

	resbind.Logger().Info("ring: HAL source opened", "label", label, "regionWords", words, "budgetMB", maxMB)

	//nolint:gosec // G115: maxMB is bounded below by MinHALMemoryMB
	return &HALSource{
		device:      device,
		queue:       queue,
		label:       label,
		regionWords: words,
		budgetBytes: uint64(maxMB) * 1024 * 1024,
		nextAddr:    halBaseAddr,
	}
}

// NewHALSourceFromProvider creates a source on a shared device. The
// provider must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewHALSourceFromProvider(provider gpucontext.DeviceProvider, cfg HALSourceConfig) (*HALSource, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("ring: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("ring: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("ring: provider HalQueue is not hal.Queue")
	}
	return NewHALSource(device, queue, cfg), nil
}

// Regions creates n pinned regions of the configured size for use as
// Config.Regions. Pinned regions are released by Close.
func (s *HALSource) Regions(n int) ([]Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Region, 0, n)
	for range n {
		r, err := s.createLocked(s.regionWords, "region")
		if err != nil {
			return nil, err
		}
		s.pinned = append(s.pinned, r)
		out = append(out, Region{Addr: r.addr, Mem: r.mem})
	}
	return out, nil
}

// Acquire implements BufferSource.
func (s *HALSource) Acquire(words int) (Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.createLocked(max(words, s.regionWords), "overflow")
	if err != nil {
		return Region{}, err
	}
	s.live = append(s.live, r)
	s.acquired++
	return Region{Addr: r.addr, Mem: r.mem}, nil
}

func (s *HALSource) createLocked(words int, kind string) (*halRegion, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}

	size := alignUp(uint64(words)*4, regionAlignment)
	if s.usedBytes+size > s.budgetBytes {
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d used",
			ErrBudgetExceeded, size, s.usedBytes, s.budgetBytes)
	}

	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("%s_%s_%d", s.label, kind, s.nextAddr),
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("ring: create %s buffer: %w", kind, err)
	}

	r := &halRegion{buf: buf, addr: s.nextAddr, mem: make([]uint32, words), size: size}
	s.nextAddr += size
	s.usedBytes += size

	resbind.Logger().Debug("ring: HAL region created", "kind", kind, "addr", r.addr, "bytes", size)
	return r, nil
}

// Upload writes the words of a through the queue into the buffer backing
// the region a was reserved from.
func (s *HALSource) Upload(a Allocation) error {
	if len(a.Mem) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}
	r := s.findLocked(a.Addr, len(a.Mem))
	if r == nil {
		return fmt.Errorf("%w: %#x+%d words", ErrUnknownAllocation, a.Addr, len(a.Mem))
	}
	s.queue.WriteBuffer(r.buf, a.Addr-r.addr, safeish.SliceCast[[]byte](a.Mem))
	return nil
}

func (s *HALSource) findLocked(addr uint64, words int) *halRegion {
	for _, list := range [][]*halRegion{s.pinned, s.live, s.retired} {
		for _, r := range list {
			if r.contains(addr, words) {
				return r
			}
		}
	}
	return nil
}

// Recycle implements Recycler. It destroys the overflow regions retired
// by the previous call and retires the current ones.
func (s *HALSource) Recycle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.destroyLocked(s.retired)
	s.destroyed += uint64(len(s.retired))
	s.retired = s.live
	s.live = nil
}

func (s *HALSource) destroyLocked(regions []*halRegion) {
	for _, r := range regions {
		s.device.DestroyBuffer(r.buf)
		s.usedBytes -= r.size
	}
}

// Close destroys every buffer. Regions handed out earlier must not be
// used afterwards. Close is idempotent.
func (s *HALSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.destroyLocked(s.pinned)
	s.destroyLocked(s.live)
	s.destroyLocked(s.retired)
	s.pinned, s.live, s.retired = nil, nil, nil
	s.closed = true

	resbind.Logger().Info("ring: HAL source closed", "label", s.label)
}

// Stats returns current usage.
func (s *HALSource) Stats() HALStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HALStats{
		BudgetBytes: s.budgetBytes,
		UsedBytes:   s.usedBytes,
		Pinned:      len(s.pinned),
		Overflow:    len(s.live) + len(s.retired),
		Acquired:    s.acquired,
		Destroyed:   s.destroyed,
	}
}
