//go:build mage

// Package main contains Mage build targets for docintel developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// workDirs lists the folders a local docintel setup uses.
var workDirs = []string{
	"inbox",
	"library",
	"selected",
	".secrets",
	"logs",
}

const sampleConfig = `# docintel configuration. Flags and DOCINTEL_* environment variables
# override these values.
source: inbox
dest: library
log-level: info
extractor: fitz
provider: anthropic
threshold: 70
max-retries: 2
workers: 1
`

const sampleCriteria = `# Topic
Replace with your research topic.

# Aim
Replace with the aim of your research.

# Research Questions
1. First research question?

# Objectives
- First objective.

# Rationale
Why this research matters.
`

// Init creates the working folders, a sample docintel.yaml, and a sample
// research.md. Existing files are left alone.
func Init() error {
	for _, dir := range workDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	for name, content := range map[string]string{
		"docintel.yaml": sampleConfig,
		"research.md":   sampleCriteria,
	} {
		if _, err := os.Stat(name); err == nil {
			continue
		}
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Println("  ", name)
	}
	fmt.Println("Project initialized. Put API keys in .secrets/anthropic-api-key or .secrets/gemini-api-key.")
	return nil
}

const (
	binDir  = "bin"
	binName = "docintel"
	cmdPkg  = "./cmd/docintel"
)

// Build compiles the CLI binary into bin/, stamping the version from git
// when available.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests. Slow tests (language models) are skipped with
// -short; run TestAll for everything.
func Test() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// TestAll runs every test.
func TestAll() error {
	return sh.RunV("go", "test", "./...")
}

// Rename builds the CLI and runs the rename batch with docintel.yaml.
func Rename() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "rename")
}

// Research builds the CLI and runs the research batch against research.md.
func Research() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "research", "--criteria", "research.md")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports whether a directory is outside the project's own code.
func skipDir(name string) bool {
	return name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "bin" || name == "vendor")
}

// countGoLines counts non-blank lines in production and test Go files.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}

// countDocWords counts words in Markdown files.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
		return nil
	})
	return total, err
}
