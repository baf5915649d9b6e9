package validate

import (
	"github.com/gogpu/resbind"
	"github.com/gogpu/resbind/bind"
	"github.com/gogpu/resbind/desc"
	"github.com/gogpu/resbind/internal/parallel"
	"github.com/gogpu/resbind/offsets"
)

// Callback receives validation failures. apiSlot and cat identify the
// slot; bits lists every failed check.
type Callback func(e *bind.Engine, userData any, apiSlot int, cat offsets.Category, bits ErrorBits)

// Config configures a Layer.
type Config struct {
	// Callback receives every report. If nil, reports panic with *Error.
	Callback Callback

	// UserData is passed to Callback unchanged.
	UserData any

	// CheckDescriptors enables per-descriptor checks in set calls.
	CheckDescriptors bool

	// Memory, if set, is consulted for the mapping and protection checks.
	Memory *MemoryMap

	// Workers is the number of goroutines checking the descriptors of one
	// set call. Values <= 1 check on the calling goroutine.
	Workers int
}

// Layer is a bind.Validator.
type Layer struct {
	cfg   Config
	pool  *parallel.WorkerPool
	bound [offsets.NumCategories][]bool

	checked  uint64
	reported uint64
}

var _ bind.Validator = (*Layer)(nil)

// New creates a layer. Call Close to stop its workers.
func New(cfg Config) *Layer {
	l := &Layer{cfg: cfg}
	if cfg.CheckDescriptors && cfg.Workers > 1 {
		l.pool = parallel.NewWorkerPool(cfg.Workers)
	}
	return l
}

// Close stops the worker pool. The layer keeps working on the calling
// goroutine afterwards.
func (l *Layer) Close() {
	if l.pool != nil {
		l.pool.Close()
	}
}

// OnBind resets the is-bound table to the slots of t. Slots t does not
// read count as bound.
func (l *Layer) OnBind(_ *bind.Engine, t *offsets.Table) {
	for c := range offsets.Category(offsets.NumCategories) {
		b := l.bound[c][:0]
		for i := range t.SlotCount(c) {
			b = append(b, t.Location(c, i).Kind == offsets.LocationUnused)
		}
		l.bound[c] = b
	}
}

// OnSet marks the slots bound and, if enabled, checks the descriptors.
func (l *Layer) OnSet(e *bind.Engine, cat offsets.Category, start int, descs []desc.Descriptor) {
	b := l.bound[cat]
	for i := range descs {
		if slot := start + i; slot < len(b) {
			b[slot] = true
		}
	}

	if !l.cfg.CheckDescriptors || len(descs) == 0 {
		return
	}

	results := make([]ErrorBits, len(descs))
	check := func(i int) { results[i] = l.check(cat, descs[i]) }
	if l.pool != nil && len(descs) > 1 {
		l.pool.Run(len(descs), check)
	} else {
		for i := range descs {
			check(i)
		}
	}
	l.checked += uint64(len(descs))

	for i, bits := range results {
		if bits != 0 {
			l.report(e, start+i, cat, bits)
		}
	}
}

// OnImmediate does nothing; immediate ranges carry no descriptor.
func (l *Layer) OnImmediate(*bind.Engine, offsets.Pointer) {}

// BeforeFlush reports every unbound slot. A slot that stays unbound is
// reported again on each flush.
func (l *Layer) BeforeFlush(e *bind.Engine) {
	for c := range offsets.Category(offsets.NumCategories) {
		for i, ok := range l.bound[c] {
			if !ok {
				l.report(e, i, c, ErrorNotBound)
			}
		}
	}
}

func (l *Layer) report(e *bind.Engine, slot int, cat offsets.Category, bits ErrorBits) {
	l.reported++
	if l.cfg.Callback == nil {
		panic(&Error{Stage: e.Stage(), Category: cat, Slot: slot, Bits: bits})
	}
	resbind.Logger().Warn("validate: binding error",
		"stage", e.Stage(),
		"category", cat,
		"slot", slot,
		"errors", bits)
	l.cfg.Callback(e, l.cfg.UserData, slot, cat, bits)
}

// Bound reports whether slot of cat counts as bound.
func (l *Layer) Bound(cat offsets.Category, slot int) bool {
	b := l.bound[cat]
	return slot < 0 || slot >= len(b) || b[slot]
}

// Checked returns the number of descriptors checked.
func (l *Layer) Checked() uint64 { return l.checked }

// Reported returns the number of reports delivered.
func (l *Layer) Reported() uint64 { return l.reported }
