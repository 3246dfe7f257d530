package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listScript = `root: {tag: ul}
passes:
  - name: initial
    data: {items: [a, b, c]}
    calls: &list
      - each: items
        calls:
          - open: li
            keyExpr: item
          - text: ""
            expr: item
          - close: li
  - name: reordered
    data: {items: [c, a]}
    calls: *list
`

// execute runs the CLI with a colourless config in dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dir, "idom.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(cfgPath, []byte("output: {color: never}\nlog: {level: error}\n"), 0o644))
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunPrintsPassesAndHTML(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, listScript)

	out, err := execute(t, dir, "run", path)
	require.NoError(t, err)

	assert.Contains(t, out, "initial: 6 created, 0 moved, 0 removed")
	assert.Contains(t, out, "reordered: 0 created, 1 moved, 1 removed")
	assert.True(t, strings.HasSuffix(out, "<li>c</li><li>a</li>\n"), out)
}

func TestRunDiff(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, listScript)

	out, err := execute(t, dir, "run", path, "--diff")
	require.NoError(t, err)

	assert.Contains(t, out, "+ <li>")
	assert.Contains(t, out, "-   b")
}

func TestRunMetrics(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, listScript)

	out, err := execute(t, dir, "run", path, "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, `idom_patches_total{status="ok"} 2`)
	assert.Contains(t, out, `idom_mutations_total{kind="move"} 1`)
}

func TestRunReportsFailedPasses(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `passes:
  - name: broken
    calls:
      - attr: id
        value: x
  - name: fine
    calls:
      - void: br
`)

	out, err := execute(t, dir, "run", path)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 passes failed", err.Error())

	assert.Contains(t, out, "attr() can only be called after calling elementOpenStart().")
	assert.Contains(t, out, "E001")
	assert.Contains(t, out, "<br>")
}

func TestRunScriptError(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "passes: [{calls: [{open: div, close: div}]}]\n")

	_, err := execute(t, dir, "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E101")
}

func TestFramesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, listScript)
	frames := filepath.Join(dir, "list.bin")

	out, err := execute(t, dir, "run", path, "--frames", frames)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 frames to "+frames)

	out, err = execute(t, dir, "decode", frames, "--replay", "--root", "ul")
	require.NoError(t, err)
	assert.Contains(t, out, "frame 1 (12 mutations)")
	assert.Contains(t, out, "frame 2 (2 mutations)")
	assert.Contains(t, out, `CreateNode #2 <li key="a">`)
	assert.True(t, strings.HasSuffix(out, "<li>c</li><li>a</li>\n"), out)
}

func TestDecodeTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x05, 0x01}, 0o644))

	_, err := execute(t, dir, "decode", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E140")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev\n", out.String())
}
