// Package main contains Mage build targets for newspaper-search developer tooling.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/newspaper-search/internal/store"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// projectDirs lists the working directories the tool expects.
var projectDirs = []string{
	"data/source",
	"data/parts",
	".secrets",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "newspaper-search"
	cmdPkg  = "./cmd/newspaper-search"
)

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs every package's tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Ingest builds the binary and loads data/source into the configured store.
func Ingest() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "ingest", "data/source")
}

// Split builds the binary and splits the SQLite store into data/parts.
func Split() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "split", "--dir", "data/parts")
}

// Stats prints Go line counts and, when the default SQLite store exists,
// its paper, title, and year counts.
func Stats() error {
	prod, tests, err := countGoLines(".")
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)

	if _, err := os.Stat(store.DefaultPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Store: %s not found, run mage ingest\n", store.DefaultPath)
		return nil
	}
	s, err := store.Open(types.StoreConfig{Path: store.DefaultPath})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	papers, err := s.Papers(ctx)
	if err != nil {
		return err
	}
	titles, err := s.CountTitles(ctx)
	if err != nil {
		return err
	}
	years, err := s.DistinctYears(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Store (%s): %d papers, %d titles", s.Describe(), len(papers), titles)
	if len(years) > 0 {
		fmt.Printf(", %s-%s", years[0], years[len(years)-1])
	}
	fmt.Println()
	return nil
}

// countGoLines counts non-blank lines in Go files under root, split into
// production and _test.go files. Hidden directories, _-prefixed
// directories, and testdata are skipped, as the go tool does.
func countGoLines(root string) (prod, tests int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countNonBlank(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, tests, err
}

func countNonBlank(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}
