package shaderbin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrTooManyEntries is returned by Writer.Bytes when a count does not fit
// its footer field.
var ErrTooManyEntries = errors.New("shaderbin: too many metadata entries")

// Writer assembles a shader binary with its metadata block.
//
// Writer is not safe for concurrent use.
type Writer struct {
	stage     Stage
	flags     uint8
	code      []byte
	slots     []UsageSlot
	masks     []uint32
	semantics []Semantic
	err       error
}

// NewWriter returns a writer for a binary of the given stage.
func NewWriter(stage Stage) *Writer {
	return &Writer{stage: stage}
}

// SetCode sets the code section. The slice is copied by Bytes.
func (w *Writer) SetCode(code []byte) *Writer {
	w.code = code
	return w
}

// SetFlags sets the footer flag byte.
func (w *Writer) SetFlags(flags uint8) *Writer {
	w.flags = flags
	return w
}

// AddUsage appends a usage slot followed by its chunk mask words.
// len(masks) must equal u.ChunkCount().
func (w *Writer) AddUsage(u UsageSlot, masks ...uint32) *Writer {
	if len(masks) != u.ChunkCount() {
		w.setErr(fmt.Errorf("shaderbin: %v has %d chunk bits but %d mask words",
			u.Kind, u.ChunkCount(), len(masks)))
		return w
	}
	w.slots = append(w.slots, u)
	w.masks = append(w.masks, masks...)
	return w
}

// AddImmediate appends an immediate usage slot.
func (w *Writer) AddImmediate(kind UsageKind, apiSlot, startReg uint8) *Writer {
	return w.AddUsage(UsageSlot{Kind: kind, APISlot: apiSlot, StartRegister: startReg})
}

// AddTable appends a table pointer at startReg whose mask selects the
// given slots. Slots must be below 128.
func (w *Writer) AddTable(kind UsageKind, startReg uint8, slots ...int) *Writer {
	var chunks [4]uint32
	maxSlot := 0
	for _, s := range slots {
		if s < 0 || s >= 128 {
			w.setErr(fmt.Errorf("shaderbin: table slot %d out of range", s))
			return w
		}
		chunks[s/32] |= 1 << (s % 32)
		maxSlot = max(maxSlot, s)
	}

	u := UsageSlot{Kind: kind, APISlot: uint8(maxSlot), StartRegister: startReg}
	var masks []uint32
	for i, c := range chunks {
		if c != 0 {
			u.ChunkMask |= 1 << i
			masks = append(masks, c)
		}
	}
	return w.AddUsage(u, masks...)
}

// AddSemantic appends a vertex semantic.
func (w *Writer) AddSemantic(s Semantic) *Writer {
	w.semantics = append(w.semantics, s)
	return w
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Bytes lays out the binary. The code section is padded to a dword
// boundary before the metadata block.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if !w.stage.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, w.stage)
	}
	if len(w.slots) > 0xFF || len(w.semantics) > 0xFF {
		return nil, fmt.Errorf("%w: %d usage slots, %d semantics",
			ErrTooManyEntries, len(w.slots), len(w.semantics))
	}

	codeLen := len(w.code)
	padded := (codeLen + 3) &^ 3

	slotsDW := len(w.slots)
	masksDW := len(w.masks)
	semDW := len(w.semantics)
	if slotsDW+masksDW+semDW > 0xFFFF {
		return nil, fmt.Errorf("%w: metadata block of %d dwords", ErrTooManyEntries, slotsDW+masksDW+semDW)
	}

	out := make([]byte, padded+(semDW+masksDW+slotsDW)*4+FooterSize)
	copy(out, w.code)

	pos := padded
	for _, s := range w.semantics {
		s.encode(out[pos:])
		pos += SemanticSize
	}
	for _, m := range w.masks {
		binary.LittleEndian.PutUint32(out[pos:], m)
		pos += 4
	}
	for _, u := range w.slots {
		u.encode(out[pos:])
		pos += UsageSlotSize
	}

	h := fnv.New32a()
	_, _ = h.Write(w.code) // fnv.Write never returns an error

	f := Footer{
		Signature:                Magic | uint64(Version)<<56,
		Stage:                    w.stage,
		Flags:                    w.flags,
		NumInputUsageSlots:       uint8(slotsDW),
		NumInputSemantics:        uint8(semDW),
		UsageSlotsOffsetInDW:     uint16(slotsDW),
		ChunkUsageBaseOffsetInDW: uint16(slotsDW + masksDW),
		CodeLength:               uint32(codeLen),
		SemanticsOffsetInDW:      uint16(slotsDW + masksDW + semDW),
		ShaderHash:               h.Sum32(),
	}
	if w.needsExtendedUserData() {
		f.Flags |= FlagExtendedUserData
	}
	f.encode(out[pos:])

	return out, nil
}

func (w *Writer) needsExtendedUserData() bool {
	for _, u := range w.slots {
		if int(u.StartRegister)+u.SizeInDW() > 16 {
			return true
		}
	}
	return false
}
