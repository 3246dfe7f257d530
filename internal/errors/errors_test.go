package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/idom/pkg/idom"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestNewFromRegistry(t *testing.T) {
	e := New("E101")
	assert.Equal(t, CategoryScript, e.Category)
	assert.Equal(t, "Unknown call kind", e.Message)
	assert.Equal(t, "https://idom.vango.dev/errors/E101", e.DocURL)
	assert.Equal(t, "E101: Unknown call kind", e.Error())

	unknown := New("E999")
	assert.Equal(t, "Unknown error", unknown.Message)
	assert.Empty(t, unknown.DocURL)
}

func TestRegistryCodesAreDocumented(t *testing.T) {
	codes := GetAllCodes()
	require.NotEmpty(t, codes)
	assert.True(t, strings.Compare(codes[0], codes[len(codes)-1]) < 0, "codes should be sorted")
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		require.True(t, ok)
		assert.NotEmpty(t, tmpl.Message, code)
		assert.NotEmpty(t, tmpl.Detail, code)
		assert.NotEmpty(t, tmpl.Category, code)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("permission denied")
	e := New("E160").Wrap(cause)

	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "E160: File not readable: permission denied", e.Error())
	assert.Same(t, e, FromError(e, "E161"))
	assert.Nil(t, FromError(nil, "E161"))

	wrapped := FromError(cause, "E161")
	assert.Equal(t, "E161", wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestFromSequencing(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{idom.ErrAttrOutsideBuild, "E001"},
		{idom.ErrOpenEndMissing, "E002"},
		{idom.ErrOpenEndWithoutStart, "E003"},
		{idom.ErrOpenInsideBuild, "E004"},
		{idom.ErrOpenStartInsideBuild, "E005"},
		{idom.ErrCloseInsideBuild, "E006"},
		{idom.ErrTextInsideBuild, "E007"},
		{idom.ErrSkipInsideBuild, "E008"},
		{idom.ErrCloseWithoutOpen, "E009"},
		{&idom.SequencingError{Op: idom.OpElementClose, Message: `Received a call to close "b" but "a" was open.`}, "E010"},
		{&idom.SequencingError{Op: idom.OpPatch, Message: "One or more tags were not closed:\ndiv"}, "E011"},
		{idom.ErrNotPatching, "E012"},
		{fmt.Errorf("pass 2: %w", idom.ErrNoTextSupport), "E013"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := FromSequencing(tt.err)
			require.NotNil(t, e)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, CategorySequencing, e.Category)
			assert.Equal(t, tt.err.Error(), e.Message)
			assert.ErrorIs(t, e, tt.err)
		})
	}

	assert.Nil(t, FromSequencing(stderrors.New("other")))
}

func TestFormat(t *testing.T) {
	noColor(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	src := "passes:\n  - calls:\n      - openStart: div\n      - opne: span\n      - openEnd: true\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	e := New("E101").WithLocation(path, 4, 9).WithSuggestion("Did you mean open?")
	out := e.Format()

	assert.Contains(t, out, "ERROR E101: Unknown call kind")
	assert.Contains(t, out, path+":4:9")
	assert.Contains(t, out, "→    4 │       - opne: span")
	assert.Contains(t, out, "       │         ^")
	assert.Contains(t, out, "Hint: Did you mean open?")
	assert.Contains(t, out, "Learn more: https://idom.vango.dev/errors/E101")
}

func TestWithSource(t *testing.T) {
	noColor(t)
	src := []byte("a\nb\nc\nd\ne\nf\n")

	e := New("E100").WithSource(src, "", 1, 0)
	require.NotNil(t, e.Snippet)
	assert.Equal(t, 1, e.Snippet.Start)
	assert.Equal(t, []string{"a", "b", "c"}, e.Snippet.Lines)
	assert.Equal(t, "<input>:1", e.Location.String())

	e = New("E100").WithSource(src, "s.yaml", 4, 1)
	assert.Equal(t, 2, e.Snippet.Start)
	assert.Equal(t, []string{"b", "c", "d", "e", "f"}, e.Snippet.Lines)
	assert.Contains(t, e.Format(), "→    4 │ d")

	e = New("E100").WithSource(src, "s.yaml", 40, 1)
	assert.Nil(t, e.Snippet)
	assert.Equal(t, "s.yaml:40:1", e.Location.String())
}

func TestFormatMultilineMessage(t *testing.T) {
	noColor(t)
	e := FromSequencing(&idom.SequencingError{Op: idom.OpPatch, Message: "One or more tags were not closed:\ndiv\nspan"})
	out := e.Format()
	assert.Contains(t, out, "ERROR E011: One or more tags were not closed:\n    div\n    span\n")
	assert.NotContains(t, out, "Cause:")
	assert.Equal(t, "E011: One or more tags were not closed: div span", e.FormatCompact())
}

func TestFormatJSON(t *testing.T) {
	e := New("E120").WithSuggestion("check indentation")
	e.Location = &Location{File: "idom.yaml", Line: 3}

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.FormatJSON()), &got))
	assert.Equal(t, "E120", got["code"])
	assert.Equal(t, "config", got["category"])
	assert.Equal(t, "check indentation", got["suggestion"])
	assert.Equal(t, "idom.yaml", got["location"].(map[string]any)["file"])
	assert.Equal(t, "idom.yaml:3", e.Location.String())
}

func TestPrint(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	Print(&buf, idom.ErrCloseWithoutOpen)
	assert.Contains(t, buf.String(), "ERROR E009: elementClose() called without a matching elementOpen().")

	buf.Reset()
	Print(&buf, stderrors.New("plain"))
	assert.Equal(t, "\nERROR: plain\n\n", buf.String())

	buf.Reset()
	Print(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestSetColorMode(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })

	SetColorMode(ColorAlways, os.Stdout)
	assert.False(t, color.NoColor)
	SetColorMode(ColorNever, os.Stdout)
	assert.True(t, color.NoColor)

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	SetColorMode(ColorAuto, f)
	assert.True(t, color.NoColor, "a regular file is not a terminal")
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}
	assert.Nil(t, wrapText("", 10))
}
