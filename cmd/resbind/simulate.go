package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/resbind/bind"
	"github.com/gogpu/resbind/cache"
	"github.com/gogpu/resbind/desc"
	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/recording"
	"github.com/gogpu/resbind/recording/backends/regfile"
	"github.com/gogpu/resbind/recording/backends/trace"
	"github.com/gogpu/resbind/ring"
	"github.com/gogpu/resbind/shaderbin"
	"github.com/gogpu/resbind/validate"
)

// simConfig is the optional TOML file of the simulate command.
type simConfig struct {
	Regions         int          `toml:"regions"`
	RegionWords     int          `toml:"region_words"`
	BaseAddr        uint64       `toml:"base_addr"`
	GlobalTableAddr uint64       `toml:"global_table_addr"`
	ShaderAddr      uint64       `toml:"shader_addr"`
	Submits         int          `toml:"submits"`
	Grid            []uint32     `toml:"grid"`
	Vertices        uint32       `toml:"vertices"`
	Instances       uint32       `toml:"instances"`
	Prefetch        bool         `toml:"prefetch"`
	Validate        bool         `toml:"validate"`
	Workers         int          `toml:"workers"`
	Backend         string       `toml:"backend"`
	Remap           []remapEntry `toml:"remap"`
}

type remapEntry struct {
	Semantic uint8 `toml:"semantic"`
	Slot     uint8 `toml:"slot"`
}

func defaultSimConfig() simConfig {
	return simConfig{
		Regions:         2,
		RegionWords:     ring.DefaultRegionSizeInWords,
		BaseAddr:        0x10_0000,
		GlobalTableAddr: 0xF000_0000,
		ShaderAddr:      0x8000_0000,
		Submits:         1,
		Grid:            []uint32{1, 1, 1},
		Vertices:        3,
		Instances:       1,
		Backend:         "trace",
	}
}

// loadSimConfig decodes the TOML file at path over cfg. Unknown keys are
// an error.
func loadSimConfig(path string, cfg *simConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return cfg.check()
}

func (c *simConfig) check() error {
	switch {
	case c.Regions < 1 || c.Regions > ring.MaxRegions:
		return fmt.Errorf("regions must be in [1, %d], got %d", ring.MaxRegions, c.Regions)
	case c.RegionWords <= 0:
		return fmt.Errorf("region_words must be positive, got %d", c.RegionWords)
	case c.Submits < 0:
		return fmt.Errorf("submits must not be negative, got %d", c.Submits)
	case len(c.Grid) != 3:
		return fmt.Errorf("grid needs 3 dimensions, got %d", len(c.Grid))
	}
	return nil
}

func (c *simConfig) remap() []offsets.SemanticRemap {
	if len(c.Remap) == 0 {
		return nil
	}
	out := make([]offsets.SemanticRemap, len(c.Remap))
	for i, r := range c.Remap {
		out[i] = offsets.SemanticRemap{Semantic: r.Semantic, Slot: r.Slot}
	}
	return out
}

func runSimulate(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML simulation config")
	backendName := fs.String("backend", "", "playback backend (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one binary")
	}

	cfg := defaultSimConfig()
	if *configPath != "" {
		if err := loadSimConfig(*configPath, &cfg); err != nil {
			return err
		}
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}

	bin, err := readBinary(fs.Arg(0))
	if err != nil {
		return err
	}
	return simulate(w, bin, cfg)
}

func simulate(w io.Writer, bin *shaderbin.Binary, cfg simConfig) error {
	tables := cache.New(cache.Config{Capacity: 16})
	tbl, err := tables.GetOrBuild(bin.Stage(), bin, cfg.remap())
	if err != nil {
		return err
	}

	overflowBase := cfg.BaseAddr + uint64(cfg.Regions)*uint64(cfg.RegionWords)*4*2
	alloc, err := ring.New(ring.Config{
		Regions:         ring.NewRegions(cfg.Regions, cfg.RegionWords, cfg.BaseAddr),
		GlobalTableAddr: cfg.GlobalTableAddr,
	}, ring.HeapSource(overflowBase, cfg.RegionWords))
	if err != nil {
		return err
	}

	bcfg := bind.DefaultConfig(bin.Stage())
	bcfg.Prefetch = cfg.Prefetch

	var opts []bind.Option
	failures := 0
	if cfg.Validate {
		layer := validate.New(validate.Config{
			Callback: func(_ *bind.Engine, _ any, slot int, cat offsets.Category, bits validate.ErrorBits) {
				fmt.Fprintf(w, "# validate: %v slot %d: %v\n", cat, slot, bits)
				failures++
			},
			CheckDescriptors: true,
			Workers:          cfg.Workers,
		})
		defer layer.Close()
		opts = append(opts, bind.WithValidator(layer))
	}

	rec := recording.NewRecorder()
	e := bind.New(bcfg, alloc, rec, opts...)
	e.Bind(&bind.Shader{Binary: bin, Addr: cfg.ShaderAddr}, tbl)

	for frame := range cfg.Submits {
		bindSynthetic(e, tbl, frame)
		if bin.Stage() == shaderbin.StageCompute {
			err = e.Dispatch(cfg.Grid[0], cfg.Grid[1], cfg.Grid[2])
		} else {
			err = e.Draw(cfg.Vertices, cfg.Instances)
		}
		if err != nil {
			return fmt.Errorf("submit %d: %w", frame, err)
		}
		e.Reset()
	}

	backend, err := newBackend(cfg.Backend, w)
	if err != nil {
		return err
	}
	r := rec.FinishRecording()
	if err := r.Playback(backend); err != nil {
		return err
	}
	if rf, ok := backend.(*regfile.Backend); ok {
		printRegisters(w, rf, bin.Stage())
	}

	fmt.Fprintf(w, "# %d commands, %d submits, %d flushes, %d overflows, %d validation failures\n",
		r.Len(), r.Submits(), e.Flushes(), alloc.OverflowCount(), failures)
	return nil
}

func newBackend(name string, w io.Writer) (recording.Backend, error) {
	if name == "trace" {
		return trace.NewWriterBackend(w), nil
	}
	return recording.NewBackend(name)
}

func printRegisters(w io.Writer, b *regfile.Backend, stage shaderbin.Stage) {
	fmt.Fprintf(w, "shader %v %#x\n", stage, b.Shader(stage))
	for reg, v := range b.Registers(stage) {
		if b.Written(stage, reg) {
			fmt.Fprintf(w, "  r%-2d %08x\n", reg, v)
		}
	}
	last := b.Last()
	if last.Compute {
		fmt.Fprintf(w, "last dispatch %v\n", last.Grid)
	} else if b.Submits() > 0 {
		fmt.Fprintf(w, "last draw %v\n", last.Counts)
	}
}

// bindSynthetic fills every declared slot with a descriptor that passes
// validation. Addresses change per frame so every flush writes new data.
func bindSynthetic(e *bind.Engine, tbl *offsets.Table, frame int) {
	for c := range offsets.Category(offsets.NumCategories) {
		n := tbl.SlotCount(c)
		if n == 0 {
			continue
		}
		base := 0x4000_0000 + uint64(frame)<<24 + uint64(c)<<20
		addr := func(slot int) uint64 { return base + uint64(slot)<<12 }

		switch c {
		case offsets.CategoryResource:
			texs := make([]desc.Texture, n)
			for i := range texs {
				texs[i] = desc.NewTexture(desc.TextureDesc{
					Addr: addr(i), Type: desc.TypeTexture2D, Format: desc.FormatRGBA8Unorm,
					Width: 64, Height: 64, Depth: 1, Pitch: 64, MipLevels: 1,
				})
			}
			e.SetTextures(0, texs)
		case offsets.CategorySampler:
			samplers := make([]desc.Sampler, n)
			for i := range samplers {
				samplers[i] = desc.NewSampler(desc.SamplerDesc{MaxLOD: 15})
			}
			e.SetSamplers(0, samplers)
		default:
			bufs := make([]desc.Buffer, n)
			for i := range bufs {
				bufs[i] = desc.NewBuffer(desc.BufferDesc{
					Addr: addr(i), Stride: 16, NumRecords: 64, Format: desc.FormatRGBA32Float,
				})
			}
			setBuffers(e, c, bufs)
		}
	}
}

func setBuffers(e *bind.Engine, c offsets.Category, bufs []desc.Buffer) {
	switch c {
	case offsets.CategoryRWResource:
		e.SetRWBuffers(0, bufs)
	case offsets.CategoryConstantBuffer:
		e.SetConstantBuffers(0, bufs)
	case offsets.CategoryVertexBuffer:
		e.SetVertexBuffers(0, bufs)
	case offsets.CategoryStreamOut:
		e.SetStreamOutBuffers(0, bufs)
	}
}
