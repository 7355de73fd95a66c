// Package compdb renders the one-entry compilation database that lets a tidy
// tool treat a whole source tree as a single translation unit.
package compdb

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// FileName is the name analysis tools look for in the working directory.
const FileName = "compile_commands.json"

// DefaultFile is the placeholder token used as the translation unit name.
const DefaultFile = "pe"

// DefaultArguments is the compiler invocation the tidy tool simulates.
var DefaultArguments = []string{
	"clang++.exe",
	"-xc++",
	DefaultFile,
	"--driver-mode=g++",
	"-c",
	"--std=c++17",
	"-O3",
	"-march=native",
	"-mtune=native",
	"--target=x86_64-w64-windows-gnu",
	"-fopenmp",
}

const (
	directoryPlaceholder = "$(CURRENT_DIRECTORY)"
	filePlaceholder      = "$(FILE)"
	argumentsPlaceholder = "$(ARGUMENTS)"
)

// templateText holds exactly one entry. The directory is spliced in as text so
// it arrives in the file exactly as EscapeDirectory produced it.
const templateText = `[{ "directory": "` + directoryPlaceholder + `", "file": ` + filePlaceholder +
	`, "arguments": ` + argumentsPlaceholder + `}]`

// Entry is a single compilation database record.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

// Template describes the synthetic translation unit written into the database.
type Template struct {
	File      string
	Arguments []string
}

// DefaultTemplate returns the built-in translation unit description.
func DefaultTemplate() Template {
	return Template{
		File:      DefaultFile,
		Arguments: append([]string(nil), DefaultArguments...),
	}
}

// EscapeDirectory makes dir safe to embed inside a JSON string literal.
// Every backslash is doubled, so C:\proj becomes C:\\proj. Quotes and control
// characters are escaped too, which never occurs in ordinary paths.
func EscapeDirectory(dir string) string {
	var b strings.Builder
	b.Grow(len(dir))
	for _, r := range dir {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '"':
			b.WriteString(`\"`)
		case r < 0x20:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Render produces the compilation database text for dir. The result has been
// checked against the database schema.
func Render(dir string, tmpl Template) ([]byte, error) {
	if dir == "" {
		return nil, &InvalidTemplateError{Reason: "directory is empty"}
	}
	// JSON strings cannot carry arbitrary bytes; a lossy rewrite would name another directory.
	if !utf8.ValidString(dir) {
		return nil, &InvalidTemplateError{Reason: "directory is not valid UTF-8"}
	}
	if tmpl.File == "" {
		return nil, &InvalidTemplateError{Reason: "file token is empty"}
	}
	if len(tmpl.Arguments) == 0 {
		return nil, &InvalidTemplateError{Reason: "argument list is empty"}
	}

	file, err := json.Marshal(tmpl.File)
	if err != nil {
		return nil, err
	}
	args, err := json.Marshal(tmpl.Arguments)
	if err != nil {
		return nil, err
	}

	r := strings.NewReplacer(
		directoryPlaceholder, EscapeDirectory(dir),
		filePlaceholder, string(file),
		argumentsPlaceholder, string(args),
	)
	out := []byte(r.Replace(templateText))

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Parse decodes a compilation database.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &InvalidDatabaseError{Wrapped: err}
	}
	return entries, nil
}
