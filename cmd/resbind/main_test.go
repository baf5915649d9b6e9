package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/resbind/shaderbin"
)

// writeBinary stores a compute shader with textures 0 and 1 in a table at
// r0, constant buffer 0 in r4 and sampler 0 in r8.
func writeBinary(t *testing.T, dir string) string {
	t.Helper()
	data, err := shaderbin.NewWriter(shaderbin.StageCompute).
		SetCode(make([]byte, 64)).
		AddTable(shaderbin.PointerResourceTable, 0, 0, 1).
		AddImmediate(shaderbin.ImmediateConstantBuffer, 0, 4).
		AddImmediate(shaderbin.ImmediateSampler, 0, 8).
		Bytes()
	if err != nil {
		t.Fatalf("Writer.Bytes() error = %v", err)
	}
	path := filepath.Join(dir, "shader.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDump(t *testing.T) {
	bin := writeBinary(t, t.TempDir())

	var out bytes.Buffer
	if err := runDump([]string{bin}, &out); err != nil {
		t.Fatalf("runDump() error = %v", err)
	}
	for _, want := range []string{"stage:   compute", "code:    64 bytes", "usage slots (3):", "scratch: 16 words"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dump output missing %q:\n%s", want, out.String())
		}
	}

	if err := runDump(nil, &out); err == nil {
		t.Error("runDump() without a file returned nil error")
	}
}

func TestSimulateTrace(t *testing.T) {
	dir := t.TempDir()
	bin := writeBinary(t, dir)
	cfg := writeFile(t, dir, "sim.toml", `
regions = 2
region_words = 1024
base_addr = 0x100000
submits = 2
grid = [4, 2, 1]
prefetch = true
validate = true
workers = 2
`)

	var out bytes.Buffer
	if err := runSimulate([]string{"-config", cfg, bin}, &out); err != nil {
		t.Fatalf("runSimulate() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"set_shader compute 0x0000000080000000",
		"prefetch 0x0000000080000000 64",
		"user_data compute r4 40300000 00100000 00000040",
		"user_data compute r0 00100000 00000000",
		"user_data compute r0 00101000 00000000",
		"dispatch 4 2 1",
		"2 submits, 2 flushes, 0 overflows, 0 validation failures",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("simulate output missing %q:\n%s", want, got)
		}
	}
}

func TestSimulateRegfile(t *testing.T) {
	bin := writeBinary(t, t.TempDir())

	var out bytes.Buffer
	if err := runSimulate([]string{"-backend", "regfile", bin}, &out); err != nil {
		t.Fatalf("runSimulate() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"shader compute 0x80000000",
		"r0  00100000",
		"r4  40300000",
		"last dispatch [1 1 1]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("regfile output missing %q:\n%s", want, got)
		}
	}
}

func TestLoadSimConfig(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"valid", "regions = 3\nbackend = \"regfile\"\n[[remap]]\nsemantic = 0\nslot = 5\n", ""},
		{"unknown key", "regoins = 3\n", "strict mode"},
		{"too many regions", "regions = 9\n", "regions must be"},
		{"bad grid", "grid = [1, 2]\n", "grid needs 3"},
		{"negative submits", "submits = -1\n", "submits must not"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".toml", tt.content)
			cfg := defaultSimConfig()
			err := loadSimConfig(path, &cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("loadSimConfig() error = %v", err)
				}
				if cfg.Regions != 3 || cfg.Backend != "regfile" || cfg.Submits != 1 {
					t.Errorf("cfg = %+v", cfg)
				}
				if r := cfg.remap(); len(r) != 1 || r[0].Slot != 5 {
					t.Errorf("remap() = %v", r)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("loadSimConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSimulateUnknownBackend(t *testing.T) {
	bin := writeBinary(t, t.TempDir())
	var out bytes.Buffer
	err := runSimulate([]string{"-backend", "pdf", bin}, &out)
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("runSimulate() error = %v, want unknown backend", err)
	}
}
