package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/andyballingall/cdbtidy/internal/fixes"
	"github.com/andyballingall/cdbtidy/internal/format"
	"github.com/andyballingall/cdbtidy/internal/tidy"
)

func tidyReport() *tidy.Report {
	start := time.Time{}
	return &tidy.Report{
		WorkDir:         "/src/project",
		Command:         "run-clang-tidy.py -checks=-* -header-filter=pe.* -export-fixes=format-fixes.yaml -fix pe",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		ExitCode:        0,
		FixesLogPresent: true,
		Fixes: &fixes.Summary{
			Diagnostics:  3,
			Replacements: 4,
			ByCheck: map[string]int{
				"performance-unnecessary-value-param": 1,
				"google-readability-casting":          2,
			},
			Files: []string{"/src/project/pe/pe_base.h"},
		},
		Removed: []string{"/src/project/compile_commands.json", "/src/project/format-fixes.yaml"},
	}
}

func formatReport() *format.Report {
	start := time.Time{}
	return &format.Report{
		Root:      "/src/project",
		StartTime: start,
		EndTime:   start.Add(time.Second),
		Formatted: []string{"/src/project/pe/pe_base.h", "/src/project/pe/pe"},
		Skipped:   5,
		Failed:    map[string]string{"/src/project/bad.c": "exit status 1"},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := New(FormatText, true, false)
	require.NoError(t, err)
	assert.Equal(t, &TextReporter{UseColour: true}, r)

	r, err = New("", false, false)
	require.NoError(t, err)
	assert.IsType(t, &TextReporter{}, r)

	r, err = New(FormatJSON, true, true)
	require.NoError(t, err)
	assert.IsType(t, &JSONReporter{}, r)

	_, err = New("xml", false, false)
	var target *UnknownFormatError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, Format("xml"), target.Format)
	assert.Contains(t, err.Error(), `"xml"`)
}

func TestTextReporter_WriteTidy(t *testing.T) {
	t.Parallel()

	t.Run("Concise Mode", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{}).WriteTidy(&buf, tidyReport()))

		output := buf.String()
		assert.Contains(t, output, "TIDY REPORT")
		assert.Contains(t, output, "/src/project")
		assert.Contains(t, output, "2s")
		assert.Contains(t, output, "[OK] exit status 0")
		assert.Contains(t, output, "• google-readability-casting (2)")
		assert.Contains(t, output, "Tidy summary: 3 diagnostics, 4 replacements")
		assert.NotContains(t, output, "run-clang-tidy.py")
		assert.NotContains(t, output, "removed")
		assert.NotContains(t, output, "no fixes log")
		assert.Less(t,
			bytes.Index(buf.Bytes(), []byte("google-readability-casting")),
			bytes.Index(buf.Bytes(), []byte("performance-unnecessary-value-param")))
	})

	t.Run("Verbose Mode", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{Verbose: true}).WriteTidy(&buf, tidyReport()))

		output := buf.String()
		assert.Contains(t, output, "run-clang-tidy.py -checks=-*")
		assert.Contains(t, output, "✓ /src/project/pe/pe_base.h")
		assert.Contains(t, output, "removed /src/project/compile_commands.json")
		assert.Contains(t, output, "removed /src/project/format-fixes.yaml")
	})

	t.Run("Tool failure and no fixes log", func(t *testing.T) {
		t.Parallel()
		r := tidyReport()
		r.ExitCode = 1
		r.FixesLogPresent = false
		r.Fixes = nil
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{}).WriteTidy(&buf, r))

		output := buf.String()
		assert.Contains(t, output, "[WARN] exit status 1")
		assert.Contains(t, output, "[WARN] no fixes log was written")
		assert.Contains(t, output, "Tidy summary: 0 diagnostics, 0 replacements")
	})

	t.Run("Colour Mode", func(t *testing.T) {
		t.Parallel()
		r := tidyReport()
		r.ExitCode = 2
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{UseColour: true}).WriteTidy(&buf, r))

		output := buf.String()
		assert.Contains(t, output, "\033[33m[WARN]\033[0m")
		assert.Contains(t, output, "\033[1;37mTidy summary: \033[0m")
		assert.Contains(t, output, "\033[1;32m3 diagnostics, 4 replacements\033[0m")
	})
}

func TestTextReporter_WriteFormat(t *testing.T) {
	t.Parallel()

	t.Run("Concise Mode", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{}).WriteFormat(&buf, formatReport()))

		output := buf.String()
		assert.Contains(t, output, "FORMAT REPORT")
		assert.NotContains(t, output, "dry run")
		assert.NotContains(t, output, "✓")
		assert.Contains(t, output, "✗ /src/project/bad.c:")
		assert.Contains(t, output, "    exit status 1")
		assert.Contains(t, output, "Format summary: 2 formatted, 5 skipped, 1 failed")
	})

	t.Run("Dry run lists the selection", func(t *testing.T) {
		t.Parallel()
		r := formatReport()
		r.DryRun = true
		r.Failed = map[string]string{}
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{}).WriteFormat(&buf, r))

		output := buf.String()
		assert.Contains(t, output, "FORMAT REPORT (dry run)")
		assert.Contains(t, output, "✓ /src/project/pe/pe_base.h")
		assert.Contains(t, output, "✓ /src/project/pe/pe")
	})

	t.Run("Colour Mode", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{UseColour: true, Verbose: true}).WriteFormat(&buf, formatReport()))

		output := buf.String()
		assert.Contains(t, output, "\033[32m✓\033[0m")
		assert.Contains(t, output, "\033[31m✗\033[0m")
		assert.Contains(t, output, "\033[1;31m2 formatted, 5 skipped, 1 failed\033[0m")
	})

	t.Run("Summary No Failures Colour", func(t *testing.T) {
		t.Parallel()
		r := formatReport()
		r.Failed = nil
		var buf bytes.Buffer
		require.NoError(t, (&TextReporter{UseColour: true}).WriteFormat(&buf, r))
		assert.Contains(t, buf.String(), "\033[1;32m2 formatted, 5 skipped, 0 failed\033[0m")
	})
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	t.Run("tidy", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&JSONReporter{}).WriteTidy(&buf, tidyReport()))

		doc := buf.String()
		require.True(t, gjson.Valid(doc))
		assert.Equal(t, "tidy", gjson.Get(doc, "pass").String())
		assert.Equal(t, "/src/project", gjson.Get(doc, "workDir").String())
		assert.Equal(t, "2s", gjson.Get(doc, "duration").String())
		assert.Equal(t, int64(0), gjson.Get(doc, "exitCode").Int())
		assert.True(t, gjson.Get(doc, "fixesLogPresent").Bool())
		assert.Equal(t, int64(3), gjson.Get(doc, "fixes.diagnostics").Int())
		assert.Equal(t, int64(2), gjson.Get(doc, "fixes.byCheck.google-readability-casting").Int())
		assert.Equal(t, int64(2), gjson.Get(doc, "removed.#").Int())
	})

	t.Run("tidy without fixes", func(t *testing.T) {
		t.Parallel()
		r := tidyReport()
		r.Fixes = nil
		r.Removed = nil
		var buf bytes.Buffer
		require.NoError(t, (&JSONReporter{}).WriteTidy(&buf, r))

		doc := buf.String()
		assert.False(t, gjson.Get(doc, "fixes").Exists())
		assert.True(t, gjson.Get(doc, "removed").IsArray())
		assert.Equal(t, int64(0), gjson.Get(doc, "removed.#").Int())
	})

	t.Run("format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&JSONReporter{}).WriteFormat(&buf, formatReport()))

		doc := buf.String()
		assert.Equal(t, "format", gjson.Get(doc, "pass").String())
		assert.Equal(t, "1s", gjson.Get(doc, "duration").String())
		assert.Equal(t, int64(2), gjson.Get(doc, "stats.formatted").Int())
		assert.Equal(t, int64(5), gjson.Get(doc, "stats.skipped").Int())
		assert.Equal(t, int64(1), gjson.Get(doc, "stats.failed").Int())
		assert.Equal(t, "exit status 1", gjson.Get(doc, `failed./src/project/bad\.c`).String())
	})

	t.Run("format empty", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, (&JSONReporter{}).WriteFormat(&buf, &format.Report{}))

		doc := buf.String()
		assert.True(t, gjson.Get(doc, "formatted").IsArray())
		assert.True(t, gjson.Get(doc, "failed").IsObject())
	})
}
