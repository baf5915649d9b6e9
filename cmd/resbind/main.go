// Command resbind builds, inspects and simulates shader binaries.
//
// Usage:
//
//	resbind build -wgsl shader.wgsl [-entry main] [-o shader.bin]
//	resbind dump shader.bin
//	resbind simulate [-config sim.toml] [-backend trace] shader.bin
//
// The global -v flag logs debug output to stderr.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/resbind"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("resbind: ")

	verbose := flag.Bool("v", false, "log debug output to stderr")
	flag.Usage = usage
	flag.Parse()

	if *verbose {
		resbind.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	case "build":
		err = runBuild(args)
	case "dump":
		err = runDump(args, os.Stdout)
	case "simulate":
		err = runSimulate(args, os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: resbind [-v] <command> [flags] [file]

commands:
  build     compile a WGSL entry point to a shader binary
  dump      print the footer, usage slots and offset table of a binary
  simulate  bind synthetic resources and print the flushed commands
`)
}
