package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/resbind/shaderbin"
)

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	src := fs.String("wgsl", "", "WGSL source file")
	entry := fs.String("entry", "main", "entry point name")
	out := fs.String("o", "", "output file (default: source name with .bin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" {
		return errors.New("missing -wgsl")
	}

	source, err := os.ReadFile(*src)
	if err != nil {
		return err
	}
	data, err := shaderbin.FromWGSL(string(source), *entry)
	if err != nil {
		return err
	}

	if *out == "" {
		*out = strings.TrimSuffix(*src, filepath.Ext(*src)) + ".bin"
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	log.Printf("wrote %s (%d bytes)", *out, len(data))
	return nil
}
