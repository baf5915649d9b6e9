package bind

import (
	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/shaderbin"
)

// Config configures an Engine.
type Config struct {
	// Stage is the only stage tables bound to the engine may target.
	Stage shaderbin.Stage

	// ScratchSizeInWords is the capacity of the scratch area. Tables
	// requiring more panic on Bind.
	// Defaults to offsets.MaxScratchSizeInWords if <= 0.
	ScratchSizeInWords int

	// MaxSlots bounds start+count of set calls per category.
	// Zero entries default to the category maximum.
	MaxSlots [offsets.NumCategories]int

	// Prefetch emits a code prefetch after every shader change.
	Prefetch bool
}

// DefaultConfig returns a configuration for stage with the largest
// scratch area and every category at its maximum.
func DefaultConfig(stage shaderbin.Stage) Config {
	cfg := Config{Stage: stage}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.ScratchSizeInWords <= 0 {
		c.ScratchSizeInWords = offsets.MaxScratchSizeInWords
	}
	for cat := range offsets.Category(offsets.NumCategories) {
		if c.MaxSlots[cat] <= 0 || c.MaxSlots[cat] > cat.MaxSlots() {
			c.MaxSlots[cat] = cat.MaxSlots()
		}
	}
}
