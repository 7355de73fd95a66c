// Package fixes reads the fixes log a tidy tool exports with -export-fixes.
package fixes

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

type Replacement struct {
	FilePath        string `yaml:"FilePath"`
	Offset          int    `yaml:"Offset"`
	Length          int    `yaml:"Length"`
	ReplacementText string `yaml:"ReplacementText"`
}

type Message struct {
	Message      string        `yaml:"Message"`
	FilePath     string        `yaml:"FilePath"`
	FileOffset   int           `yaml:"FileOffset"`
	Replacements []Replacement `yaml:"Replacements"`
}

type Diagnostic struct {
	DiagnosticName    string  `yaml:"DiagnosticName"`
	DiagnosticMessage Message `yaml:"DiagnosticMessage"`
	// Replacements sits here in logs written by clang-tidy 8 and earlier.
	Replacements []Replacement `yaml:"Replacements"`
	Level        string        `yaml:"Level"`
}

// Log is one YAML document of a fixes log.
type Log struct {
	MainSourceFile string       `yaml:"MainSourceFile"`
	Diagnostics    []Diagnostic `yaml:"Diagnostics"`
}

// Summary aggregates every document of a fixes log.
type Summary struct {
	Diagnostics  int            `json:"diagnostics"`
	Replacements int            `json:"replacements"`
	ByCheck      map[string]int `json:"byCheck"`
	Files        []string       `json:"files"`
}

// Parse reads all documents in r. An empty log yields an empty Summary.
func Parse(r io.Reader) (*Summary, error) {
	s := &Summary{ByCheck: map[string]int{}}
	files := map[string]struct{}{}

	dec := yaml.NewDecoder(r)
	for {
		var l Log
		err := dec.Decode(&l)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid fixes log: %w", err)
		}
		for _, d := range l.Diagnostics {
			s.Diagnostics++
			s.ByCheck[d.DiagnosticName]++
			for _, rep := range slices.Concat(d.DiagnosticMessage.Replacements, d.Replacements) {
				s.Replacements++
				if rep.FilePath != "" {
					files[rep.FilePath] = struct{}{}
				}
			}
		}
	}

	for f := range files {
		s.Files = append(s.Files, f)
	}
	slices.Sort(s.Files)
	return s, nil
}
