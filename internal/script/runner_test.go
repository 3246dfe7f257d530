package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/livetree"
	"github.com/vango-dev/idom/pkg/protocol"
)

func newRunner(t *testing.T, src string) *Runner {
	t.Helper()
	s, err := Parse([]byte(src), "")
	require.NoError(t, err)
	r, err := NewRunner(s, Options{})
	require.NoError(t, err)
	return r
}

// replay rebuilds the runner's tree from its frames.
func replay(t *testing.T, r *Runner, results []Result) string {
	t.Helper()
	root := livetree.NewElement(r.Script().RootTag)
	replica := protocol.NewReplica[*livetree.Node](livetree.NewTree(), root)
	if f := r.Bootstrap(); f != nil {
		require.NoError(t, replica.Apply(f))
	}
	for _, res := range results {
		if res.Frame != nil {
			require.NoError(t, replica.Apply(res.Frame))
		}
	}
	return root.HTML()
}

func TestRunExample(t *testing.T) {
	r := newRunner(t, exampleScript)

	results := r.Run(context.Background())
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	assert.Equal(t, `<div data-static="world" data-expanded="hello"></div>`, r.Root().HTML())
	assert.Equal(t, 1, results[0].Stats.Created)
	assert.Equal(t, 2, results[0].Stats.AttrSets)
}

const listScript = `
root: {tag: ul}
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
  - name: unchanged
    data: {items: [c, a]}
    calls: *list
`

func TestRunKeyedList(t *testing.T) {
	r := newRunner(t, listScript)

	results := r.Run(context.Background())
	require.Len(t, results, 3)
	for _, res := range results {
		require.NoError(t, res.Err, res.Name)
	}

	assert.Equal(t, "<li>c</li><li>a</li>", r.Root().HTML())

	initial := results[0].Stats
	assert.Equal(t, 6, initial.Created)

	reordered := results[1].Stats
	assert.Equal(t, 0, reordered.Created)
	assert.Equal(t, 1, reordered.Moved)
	assert.Equal(t, 1, reordered.Removed)
	require.NotNil(t, results[1].Frame)
	assert.Equal(t, uint64(2), results[1].Frame.Seq)

	assert.Zero(t, results[2].Stats.Mutations())
	assert.Nil(t, results[2].Frame)

	assert.Equal(t, r.Root().HTML(), replay(t, r, results))
}

func TestRunInitialHTML(t *testing.T) {
	r := newRunner(t, `
html: '<p id="msg" class="old">hi</p>'
passes:
  - calls:
      - open: p
        attrs: {id: msg, class: new}
      - text: hi
      - close: p
`)
	require.NotNil(t, r.Bootstrap())
	assert.Equal(t, uint64(1), r.Bootstrap().Seq)

	results := r.Run(context.Background())
	require.NoError(t, results[0].Err)

	assert.Equal(t, `<p id="msg" class="new">hi</p>`, r.Root().HTML())
	assert.Equal(t, 0, results[0].Stats.Created)
	assert.Equal(t, 1, results[0].Stats.AttrSets)
	assert.Equal(t, r.Root().HTML(), replay(t, r, results))
}

func TestRunConditionsAndLoopVariables(t *testing.T) {
	r := newRunner(t, `
root: {tag: form}
passes:
  - data: {fields: [a, b], strict: true}
    calls:
      - each: fields
        as: field
        calls:
          - openStart: input
            keyExpr: field
            statics: {type: text}
          - attr: name
            expr: field
          - attr: required
            value: true
            if: strict && index == 0
          - openEnd: true
          - close: input
`)
	results := r.Run(context.Background())
	require.NoError(t, results[0].Err)

	assert.Equal(t, `<input type="text" name="a" required><input type="text" name="b">`, r.Root().HTML())
}

func TestRunSequencingErrorDoesNotStopLaterPasses(t *testing.T) {
	r := newRunner(t, `
passes:
  - name: broken
    calls:
      - openStart: div
      - open: span
  - name: fixed
    calls:
      - open: p
      - close: p
`)
	results := r.Run(context.Background())
	require.Len(t, results, 2)

	require.Error(t, results[0].Err)
	assert.True(t, idom.IsSequencingError(results[0].Err))
	assert.EqualError(t, results[0].Err,
		"elementOpen() can not be called between elementOpenStart() and elementOpenEnd().")

	require.NoError(t, results[1].Err)
	assert.Equal(t, "<p></p>", r.Root().HTML())
}

func TestRunNestedPatch(t *testing.T) {
	r := newRunner(t, `
passes:
  - calls: &calls
      - open: section
        attrs: {id: panel}
      - skip: true
      - close: section
      - patch: panel
        calls:
          - open: em
          - text: hi
          - close: em
  - calls: *calls
`)
	results := r.Run(context.Background())
	require.Len(t, results, 2)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, 1, res.Nested)
	}

	assert.Equal(t, `<section id="panel"><em>hi</em></section>`, r.Root().HTML())
	assert.Equal(t, 1, results[0].Stats.Created)
	assert.Zero(t, results[1].Stats.Mutations())
	assert.Nil(t, results[1].Frame)
}

func TestRunScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		code   string
	}{
		{
			name:   "missing patch target",
			script: "passes: [{calls: [{patch: nowhere, calls: []}]}]\n",
			code:   "E104",
		},
		{
			name:   "each over a number",
			script: "passes: [{data: {count: 3}, calls: [{each: count}]}]\n",
			code:   "E105",
		},
		{
			name:   "evaluation failure",
			script: "passes: [{data: {word: abc}, calls: [{openStart: div}, {attr: x, expr: 'int(word)'}]}]\n",
			code:   "E103",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, tt.script)
			results := r.Run(context.Background())
			require.Len(t, results, 1)
			require.Error(t, results[0].Err)
			assert.Equal(t, tt.code, errorCode(t, results[0].Err))
		})
	}
}

func TestRunNilListIsEmpty(t *testing.T) {
	r := newRunner(t, `
passes:
  - calls:
      - each: missing
        calls:
          - void: br
`)
	results := r.Run(context.Background())
	require.NoError(t, results[0].Err)
	assert.Equal(t, "", r.Root().HTML())
}

func TestRunCanceled(t *testing.T) {
	r := newRunner(t, exampleScript)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, r.Run(ctx))
	assert.Equal(t, 0, r.Root().Count()-1)
}

func TestRunnerHooks(t *testing.T) {
	s, err := Parse([]byte(listScript), "")
	require.NoError(t, err)

	counter := &countingHooks{}
	r, err := NewRunner(s, Options{Hooks: []idom.Hooks{counter}})
	require.NoError(t, err)

	r.Run(context.Background())
	assert.Equal(t, 3, counter.patches)
}

type countingHooks struct {
	idom.NopHooks
	patches int
}

func (h *countingHooks) PatchEnd(context.Context, idom.PatchStats, error) {
	h.patches++
}
