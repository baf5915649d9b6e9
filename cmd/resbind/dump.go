package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/shaderbin"
)

func readBinary(path string) (*shaderbin.Binary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return shaderbin.Parse(data)
}

func runDump(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one binary")
	}

	bin, err := readBinary(fs.Arg(0))
	if err != nil {
		return err
	}
	tbl, err := offsets.Build(bin.Stage(), bin)
	if err != nil {
		return err
	}
	dump(w, bin, tbl)
	return nil
}

func dump(w io.Writer, bin *shaderbin.Binary, tbl *offsets.Table) {
	f := bin.Footer()
	fmt.Fprintf(w, "stage:   %v\n", bin.Stage())
	fmt.Fprintf(w, "version: %d\n", f.Version())
	fmt.Fprintf(w, "hash:    %#08x\n", bin.Hash())
	fmt.Fprintf(w, "code:    %d bytes\n", f.CodeLength)
	fmt.Fprintf(w, "flags:   %#02x\n", f.Flags)

	fmt.Fprintf(w, "usage slots (%d):\n", len(bin.UsageSlots()))
	for _, u := range bin.UsageSlots() {
		fmt.Fprintf(w, "  %-28v slot %-3d r%-2d %d dw", u.Kind, u.APISlot, u.StartRegister, u.SizeInDW())
		if u.ChunkCount() > 0 {
			fmt.Fprintf(w, " chunks %#x", u.ChunkMask)
		}
		if u.Raw {
			fmt.Fprint(w, " raw")
		}
		fmt.Fprintln(w)
	}

	if sems := bin.Semantics(); len(sems) > 0 {
		fmt.Fprintf(w, "semantics (%d):\n", len(sems))
		for _, s := range sems {
			fmt.Fprintf(w, "  index %d vgpr %d elements %d\n", s.Index, s.VGPR, s.SizeInElements)
		}
	}

	fmt.Fprintf(w, "scratch: %d words (extended user data %d)\n",
		tbl.RequiredScratchSizeInWords(), tbl.ExtendedUserDataSizeInWords())
	fmt.Fprintln(w, tbl)
}
