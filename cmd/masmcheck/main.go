// Command masmcheck analyzes MASM source files and prints their
// diagnostics, one per line, in file:line:col form. It exits non-zero
// when any file has an error-severity diagnostic.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Fy-nite/masm-lsp/backend/analyzer"
	"github.com/Fy-nite/masm-lsp/backend/config"
	"github.com/Fy-nite/masm-lsp/backend/model"
	"github.com/Fy-nite/masm-lsp/backend/resolver"
)

func main() {
	var (
		includePath   = flag.String("include", "", "include search directory")
		nativesPath   = flag.String("natives", "", "path to a native-function declaration file")
		toolchainPath = flag.String("toolchain", "", "path to a toolchain descriptor file")
		maxProblems   = flag.Int("max", 0, "diagnostic cap per file (0 = default)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: masmcheck [-include dir] [-natives file] [-toolchain file] [-max n] file...")
		os.Exit(2)
	}

	settings := model.DefaultSettings()
	if *maxProblems > 0 {
		settings.MaxNumberOfProblems = *maxProblems
	}
	settings.IncludePath = *includePath

	if *toolchainPath != "" {
		tc, err := config.LoadToolchain(*toolchainPath)
		if err != nil {
			log.Fatal(err)
		}
		settings.IncludePath = config.EffectiveIncludePath(settings, tc)
	}

	var natives map[string]model.NativeSignature
	if *nativesPath != "" {
		loaded, err := config.LoadNatives(*nativesPath)
		if err != nil {
			log.Fatal(err)
		}
		natives = loaded
	}

	files := flag.Args()
	results := make([][]model.Diagnostic, len(files))

	// Independent documents analyze concurrently; each goroutine gets
	// its own resolver so no cache is shared across files.
	var g errgroup.Group
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			code, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			a := analyzer.New(resolver.New(resolver.DiskSource{}), natives)
			results[i] = a.Analyze(file, string(code), settings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	failed := false
	for i, file := range files {
		for _, d := range results[i] {
			fmt.Printf("%s:%d:%d: %s: %s\n", file, d.Range.Start.Line+1, d.Range.Start.Column+1, d.Severity, d.Message)
			if d.Severity == model.SeverityError {
				failed = true
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}
