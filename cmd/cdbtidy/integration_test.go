// Package main provides integration tests for the cdbtidy CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/andyballingall/cdbtidy/internal/app"
	"github.com/andyballingall/cdbtidy/internal/compdb"
)

const stubFixes = `---
MainSourceFile:  pe
Diagnostics:
  - DiagnosticName:  modernize-use-nullptr
    DiagnosticMessage:
      Message:         'use nullptr'
      FilePath:        'pe/pe_base.h'
      FileOffset:      44
      Replacements:
        - FilePath:        'pe/pe_base.h'
          Offset:          44
          Length:          4
          ReplacementText: nullptr
...
`

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"cdbtidy": func() {
			ctx := context.Background()
			if err := app.Run(ctx, os.Args, os.Stdout, os.Stderr, nil); err != nil {
				os.Exit(1)
			}
		},
		"run-clang-tidy.py": func() { os.Exit(stubTidy(os.Args[1:])) },
		"clang-format":      func() { os.Exit(stubFormat(os.Args[1:])) },
	})
}

func TestScripts(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

// stubTidy stands in for run-clang-tidy.py. It checks the compilation database
// is in place, writes the fixes log unless STUB_TIDY_NO_FIXES is set and exits
// with STUB_TIDY_EXIT.
func stubTidy(args []string) int {
	data, err := os.ReadFile(compdb.FileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stub tidy:", err)
		return 2
	}
	entries, err := compdb.Parse(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stub tidy:", err)
		return 2
	}
	fmt.Printf("database entries: %d, file: %s\n", len(entries), entries[0].File)
	fmt.Printf("args: %s\n", strings.Join(args, " "))

	for _, a := range args {
		path, ok := strings.CutPrefix(a, "-export-fixes=")
		if !ok || os.Getenv("STUB_TIDY_NO_FIXES") != "" {
			continue
		}
		if err := os.WriteFile(path, []byte(stubFixes), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "stub tidy:", err)
			return 2
		}
	}

	if code := os.Getenv("STUB_TIDY_EXIT"); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			return 2
		}
		return n
	}
	return 0
}

// stubFormat stands in for clang-format -i. It fails for the file named by STUB_FORMAT_FAIL.
func stubFormat(args []string) int {
	if len(args) == 0 {
		return 2
	}
	name := filepath.Base(args[len(args)-1])
	if name == os.Getenv("STUB_FORMAT_FAIL") {
		fmt.Fprintf(os.Stderr, "stub format: cannot format %s\n", name)
		return 1
	}
	fmt.Printf("formatted %s\n", name)
	return 0
}
