// Command a2l-mcp serves an MCP tool server exposing read-only queries
// (list_globals, find_symbol, describe_type, resolve_path) against a
// single binary's Symbol Graph, for an LLM-driven client to inspect a
// target's debug information without a full a2ltool update run.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/DanielT/a2ltool/internal/finder"
	"github.com/DanielT/a2ltool/internal/indexer"
	"github.com/DanielT/a2ltool/internal/tools"
)

func main() {
	if err := run(); err != nil {
		logrus.StandardLogger().Fatal(err)
	}
}

func run() error {
	binPath := flag.String("bin", "", "Path to the ELF or PE binary to load")
	pdbPath := flag.String("pdb", "", "Path to a separate PDB file, if the binary ships debug info that way")
	strict := flag.Bool("strict", false, "Abort on the first malformed debug-info unit instead of skipping it")
	flag.Parse()

	if *binPath == "" && *pdbPath == "" {
		return fmt.Errorf("either --bin or --pdb must be given")
	}

	log := logrus.StandardLogger()
	fmt.Fprintln(os.Stderr, "Loading Symbol Graph...")

	g, err := indexer.Load(*binPath, indexer.Options{Strict: *strict, PDBPath: *pdbPath}, log)
	if err != nil {
		return fmt.Errorf("loading symbol graph: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Symbol Graph ready.")

	f := finder.New(g)

	s := server.NewMCPServer("a2l-mcp", "0.1.0")
	tools.Register(s, f)

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	return nil
}
