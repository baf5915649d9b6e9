package shaderbin

import (
	"encoding/binary"
	"errors"
	"testing"
)

func buildTestBinary(t *testing.T) []byte {
	t.Helper()
	data, err := NewWriter(StageVertex).
		SetCode([]byte{0xde, 0xad, 0xbe, 0xef, 0x01}).
		AddImmediate(ImmediateConstantBuffer, 0, 4).
		AddTable(PointerResourceTable, 0, 0, 3, 40, 127).
		AddTable(PointerVertexBufferTable, 2, 0, 1).
		AddSemantic(Semantic{Index: 0, VGPR: 4, SizeInElements: 3}).
		AddSemantic(Semantic{Index: 1, VGPR: 7, SizeInElements: 2}).
		Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	return data
}

func TestParseRoundTrip(t *testing.T) {
	data := buildTestBinary(t)

	b, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if b.Stage() != StageVertex {
		t.Errorf("Stage() = %v, want %v", b.Stage(), StageVertex)
	}
	if got := b.Code(); len(got) != 5 || got[4] != 0x01 {
		t.Errorf("Code() = %x, want 5 bytes ending in 01", got)
	}
	if b.Size() != len(data) {
		t.Errorf("Size() = %d, want %d", b.Size(), len(data))
	}
	if b.Hash() == 0 {
		t.Error("Hash() = 0, want FNV hash of code")
	}

	slots := b.UsageSlots()
	if len(slots) != 3 {
		t.Fatalf("len(UsageSlots()) = %d, want 3", len(slots))
	}
	want := []UsageSlot{
		{Kind: ImmediateConstantBuffer, APISlot: 0, StartRegister: 4},
		{Kind: PointerResourceTable, APISlot: 127, StartRegister: 0, ChunkMask: 0b1011},
		{Kind: PointerVertexBufferTable, APISlot: 1, StartRegister: 2, ChunkMask: 0b0001},
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("UsageSlots()[%d] = %+v, want %+v", i, slots[i], want[i])
		}
	}

	words := b.ChunkWords(1)
	wantWords := [4]uint32{1<<0 | 1<<3, 1 << 8, 0, 1 << 31}
	if words != wantWords {
		t.Errorf("ChunkWords(1) = %#x, want %#x", words, wantWords)
	}
	if got := b.ChunkWords(0); got != [4]uint32{} {
		t.Errorf("ChunkWords(0) = %#x, want zero", got)
	}

	sems := b.Semantics()
	if len(sems) != 2 || sems[1] != (Semantic{Index: 1, VGPR: 7, SizeInElements: 2}) {
		t.Errorf("Semantics() = %+v", sems)
	}
}

func TestDigestCoversMetadata(t *testing.T) {
	code := []byte{1, 2, 3, 4}
	mk := func(reg uint8) *Binary {
		t.Helper()
		data, err := NewWriter(StageCompute).
			SetCode(code).
			AddImmediate(ImmediateConstantBuffer, 0, reg).
			Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}
		b, err := Parse(data)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		return b
	}

	a, b, again := mk(4), mk(8), mk(4)
	if a.Hash() != b.Hash() {
		t.Errorf("Hash() differs for identical code: %#x, %#x", a.Hash(), b.Hash())
	}
	if a.Digest() == b.Digest() {
		t.Error("Digest() equal for binaries with different usage slots")
	}
	if a.Digest() != again.Digest() {
		t.Error("Digest() is not stable")
	}
}

func TestParseFooterFields(t *testing.T) {
	data := buildTestBinary(t)
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	f := b.Footer()
	if !f.HasMagic() {
		t.Error("HasMagic() = false")
	}
	if f.Version() != Version {
		t.Errorf("Version() = %d, want %d", f.Version(), Version)
	}
	if f.NumInputUsageSlots != 3 {
		t.Errorf("NumInputUsageSlots = %d, want 3", f.NumInputUsageSlots)
	}
	if f.UsageSlotsOffsetInDW != 3 {
		t.Errorf("UsageSlotsOffsetInDW = %d, want 3", f.UsageSlotsOffsetInDW)
	}
	// three resource mask words and one vertex buffer mask word
	if f.ChunkUsageBaseOffsetInDW != 3+4 {
		t.Errorf("ChunkUsageBaseOffsetInDW = %d, want 7", f.ChunkUsageBaseOffsetInDW)
	}
	if f.SemanticsOffsetInDW != 3+4+2 {
		t.Errorf("SemanticsOffsetInDW = %d, want 9", f.SemanticsOffsetInDW)
	}
	if f.Flags&FlagExtendedUserData != 0 {
		t.Error("FlagExtendedUserData set for a shader within 16 registers")
	}
}

func TestParseErrors(t *testing.T) {
	valid := func(t *testing.T) []byte { return buildTestBinary(t) }
	footer := func(data []byte) []byte { return data[len(data)-FooterSize:] }

	tests := []struct {
		name    string
		corrupt func(t *testing.T) []byte
		wantErr error
	}{
		{
			name:    "truncated",
			corrupt: func(*testing.T) []byte { return make([]byte, FooterSize-1) },
			wantErr: ErrTruncated,
		},
		{
			name: "bad magic",
			corrupt: func(t *testing.T) []byte {
				d := valid(t)
				footer(d)[0] ^= 0xFF
				return d
			},
			wantErr: ErrBadSignature,
		},
		{
			name: "bad version",
			corrupt: func(t *testing.T) []byte {
				d := valid(t)
				footer(d)[7] = Version + 1
				return d
			},
			wantErr: ErrUnsupportedVersion,
		},
		{
			name: "invalid stage",
			corrupt: func(t *testing.T) []byte {
				d := valid(t)
				footer(d)[8] = byte(NumStages)
				return d
			},
			wantErr: ErrInvalidStage,
		},
		{
			name: "usage slots past start",
			corrupt: func(t *testing.T) []byte {
				d := valid(t)
				binary.LittleEndian.PutUint16(footer(d)[0x0C:], 0xFFFF)
				return d
			},
			wantErr: ErrLayout,
		},
		{
			name: "code overlaps metadata",
			corrupt: func(t *testing.T) []byte {
				d := valid(t)
				binary.LittleEndian.PutUint32(footer(d)[0x10:], uint32(len(d)))
				return d
			},
			wantErr: ErrLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.corrupt(t))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriterErrors(t *testing.T) {
	t.Run("mask count mismatch", func(t *testing.T) {
		_, err := NewWriter(StageCompute).
			AddUsage(UsageSlot{Kind: PointerSamplerTable, ChunkMask: 0b11}, 0x1).
			Bytes()
		if err == nil {
			t.Error("Bytes() error = nil, want mask count error")
		}
	})
	t.Run("table slot out of range", func(t *testing.T) {
		_, err := NewWriter(StageCompute).AddTable(PointerResourceTable, 0, 128).Bytes()
		if err == nil {
			t.Error("Bytes() error = nil, want slot range error")
		}
	})
	t.Run("invalid stage", func(t *testing.T) {
		_, err := NewWriter(Stage(99)).Bytes()
		if !errors.Is(err, ErrInvalidStage) {
			t.Errorf("Bytes() error = %v, want %v", err, ErrInvalidStage)
		}
	})
}

func TestWriterExtendedUserDataFlag(t *testing.T) {
	data, err := NewWriter(StageCompute).
		AddImmediate(ImmediateConstantBuffer, 0, 14).
		Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Footer().Flags&FlagExtendedUserData == 0 {
		t.Error("FlagExtendedUserData not set for a register range ending at 18")
	}
}

func TestUsageSlotSizeInDW(t *testing.T) {
	tests := []struct {
		slot UsageSlot
		want int
	}{
		{UsageSlot{Kind: ImmediateResource}, 4},
		{UsageSlot{Kind: ImmediateResource, Wide: true}, 8},
		{UsageSlot{Kind: ImmediateRWResource, Wide: true}, 8},
		{UsageSlot{Kind: ImmediateSampler}, 4},
		{UsageSlot{Kind: ImmediateConstantBuffer}, 4},
		{UsageSlot{Kind: ImmediateGDSRange}, 1},
		{UsageSlot{Kind: ImmediateShaderResourceTable, APISlot: 5}, 6},
		{UsageSlot{Kind: PointerFetchShader}, 2},
		{UsageSlot{Kind: UsageKind(0x7F)}, 0},
	}
	for _, tt := range tests {
		if got := tt.slot.SizeInDW(); got != tt.want {
			t.Errorf("%v.SizeInDW() = %d, want %d", tt.slot.Kind, got, tt.want)
		}
	}
}

func TestUsageKindString(t *testing.T) {
	if got := PointerResourceTable.String(); got != "PointerResourceTable" {
		t.Errorf("String() = %q", got)
	}
	if got := UsageKind(0x7F).String(); got != "UsageKind(0x7f)" {
		t.Errorf("String() = %q, want %q", got, "UsageKind(0x7f)")
	}
	if UsageKind(0x7F).Known() {
		t.Error("Known() = true for an undefined kind")
	}
}

func TestStage(t *testing.T) {
	for i := range NumStages {
		s := Stage(i)
		got, err := ParseStage(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStage(%q) = %v, %v; want %v", s.String(), got, err, s)
		}
	}
	if _, err := ParseStage("tessellation"); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("ParseStage() error = %v, want %v", err, ErrInvalidStage)
	}
	if StageHull.GPUStage() != 0 {
		t.Error("StageHull.GPUStage() should be 0")
	}
}
