package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file cdbtidy looks for in the working directory.
const FileName = ".cdbtidy.yml"

const DefaultConfigContent = `# cdbtidy configuration

# COMPILATION DATABASE
#
# cdbtidy writes a compile_commands.json holding a single entry. The tidy tool
# treats the whole tree as one translation unit compiled with the arguments
# below. "file" is a placeholder token, not a real path.
compile:
  file: pe
  arguments:
    - clang++.exe
    - -xc++
    - pe
    - --driver-mode=g++
    - -c
    - --std=c++17
    - -O3
    - -march=native
    - -mtune=native
    - --target=x86_64-w64-windows-gnu
    - -fopenmp

# TIDY PASS
#
# fixesLog controls what happens when the tidy tool does not produce the
# exportFixes file:
# - require: a missing fixes log is reported as an error (default)
# - tolerate: a missing fixes log is taken to mean there was nothing to fix
#
# A non-zero exit from the tidy tool is only reported as a warning unless
# failOnToolError is true. timeout bounds the tool run (e.g. "10m"); 0 waits forever.
tidy:
  command: run-clang-tidy.py
  checks:
    - "-*"
    - google-readability-casting
    - google-readability-braces-around-statements
    - google-readability-namespace-comments
    - performance-*
    - modernize-use-*
    - -modernize-use-trailing-return-type
    - -modernize-use-nodiscard
    - misc-unused-parameters
  headerFilter: pe.*
  target: pe
  exportFixes: format-fixes.yaml
  fixesLog: require
  failOnToolError: false
  timeout: 0s

# FORMAT PASS
#
# Files are selected by extension; noExtension also selects files without one.
# Any directory whose path contains an entry of skipDirs is not descended into.
format:
  command: clang-format
  args:
    - -style=Google
    - -sort-includes=0
    - -i
  extensions: [".h", ".hpp", ".c", ".cxx", ".cpp"]
  noExtension: true
  exclude:
    - parallel_cal_prime_pi.c
  skipDirs:
    - .git
  jobs: 1
`

// FixesLogPolicy decides whether a missing fixes log fails the tidy pass.
type FixesLogPolicy string

const (
	FixesLogRequire  FixesLogPolicy = "require"
	FixesLogTolerate FixesLogPolicy = "tolerate"
)

// ParseFixesLogPolicy converts a flag or config value to a FixesLogPolicy.
func ParseFixesLogPolicy(s string) (FixesLogPolicy, error) {
	switch p := FixesLogPolicy(s); p {
	case FixesLogRequire, FixesLogTolerate:
		return p, nil
	default:
		return "", &InvalidValueError{Property: "tidy.fixesLog", Value: s, Reason: "must be 'require' or 'tolerate'"}
	}
}

type CompileConfig struct {
	File      string   `yaml:"file"`
	Arguments []string `yaml:"arguments"`
}

type TidyConfig struct {
	Command         string         `yaml:"command"`
	Checks          []string       `yaml:"checks"`
	HeaderFilter    string         `yaml:"headerFilter"`
	Target          string         `yaml:"target"`
	ExportFixes     string         `yaml:"exportFixes"`
	FixesLog        FixesLogPolicy `yaml:"fixesLog"`
	FailOnToolError bool           `yaml:"failOnToolError"`
	Timeout         time.Duration  `yaml:"timeout"`
}

type FormatConfig struct {
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args"`
	Extensions  []string `yaml:"extensions"`
	NoExtension bool     `yaml:"noExtension"`
	Exclude     []string `yaml:"exclude"`
	SkipDirs    []string `yaml:"skipDirs"`
	Jobs        int      `yaml:"jobs"`
}

type Config struct {
	Compile CompileConfig `yaml:"compile"`
	Tidy    TidyConfig    `yaml:"tidy"`
	Format  FormatConfig  `yaml:"format"`
	Path    string        `yaml:"-"` // file the config was read from; empty for built-in defaults
}

// Default returns the built-in configuration, identical to DefaultConfigContent.
func Default() *Config {
	return &Config{
		Compile: CompileConfig{
			File: "pe",
			Arguments: []string{
				"clang++.exe", "-xc++", "pe", "--driver-mode=g++", "-c", "--std=c++17", "-O3",
				"-march=native", "-mtune=native", "--target=x86_64-w64-windows-gnu", "-fopenmp",
			},
		},
		Tidy: TidyConfig{
			Command: "run-clang-tidy.py",
			Checks: []string{
				"-*",
				"google-readability-casting",
				"google-readability-braces-around-statements",
				"google-readability-namespace-comments",
				"performance-*",
				"modernize-use-*",
				"-modernize-use-trailing-return-type",
				"-modernize-use-nodiscard",
				"misc-unused-parameters",
			},
			HeaderFilter: "pe.*",
			Target:       "pe",
			ExportFixes:  "format-fixes.yaml",
			FixesLog:     FixesLogRequire,
		},
		Format: FormatConfig{
			Command:     "clang-format",
			Args:        []string{"-style=Google", "-sort-includes=0", "-i"},
			Extensions:  []string{".h", ".hpp", ".c", ".cxx", ".cpp"},
			NoExtension: true,
			Exclude:     []string{"parallel_cal_prime_pi.c"},
			SkipDirs:    []string{".git"},
			Jobs:        1,
		},
	}
}

// Load reads the config file at path over the built-in defaults. The file must exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingConfigError{Path: path}
		}
		return nil, err
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidYAMLError{Path: path, Wrapped: err}
	}
	cfg.Path = path

	if vErr := cfg.Validate(); vErr != nil {
		return nil, vErr
	}
	return cfg, nil
}

// Discover loads FileName from workDir when present and falls back to Default otherwise.
func Discover(workDir string) (*Config, error) {
	path := filepath.Join(workDir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if c.Compile.File == "" {
		return &MissingPropertyError{Property: "compile.file"}
	}
	if len(c.Compile.Arguments) == 0 {
		return &MissingPropertyError{Property: "compile.arguments"}
	}

	if err := c.Tidy.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}

func (t *TidyConfig) Validate() error {
	required := []struct {
		prop string
		val  string
	}{
		{"tidy.command", t.Command},
		{"tidy.headerFilter", t.HeaderFilter},
		{"tidy.target", t.Target},
		{"tidy.exportFixes", t.ExportFixes},
	}
	for _, r := range required {
		if r.val == "" {
			return &MissingPropertyError{Property: r.prop}
		}
	}
	if len(t.Checks) == 0 {
		return &MissingPropertyError{Property: "tidy.checks"}
	}
	if _, err := ParseFixesLogPolicy(string(t.FixesLog)); err != nil {
		return err
	}
	if t.Timeout < 0 {
		return &InvalidValueError{Property: "tidy.timeout", Value: t.Timeout.String(), Reason: "must not be negative"}
	}
	return nil
}

func (f *FormatConfig) Validate() error {
	if f.Command == "" {
		return &MissingPropertyError{Property: "format.command"}
	}
	if len(f.Extensions) == 0 && !f.NoExtension {
		return &MissingPropertyError{Property: "format.extensions"}
	}
	if f.Jobs < 1 {
		return &InvalidValueError{Property: "format.jobs", Value: fmt.Sprint(f.Jobs), Reason: "must be at least 1"}
	}
	return nil
}

// WriteDefault writes DefaultConfigContent to FileName in dir and returns its path.
// An existing config file is never overwritten.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", &ConfigExistsError{Path: path}
		}
		return "", err
	}
	if _, err = f.WriteString(DefaultConfigContent); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
