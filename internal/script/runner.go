package script

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/livetree"
	"github.com/vango-dev/idom/pkg/protocol"
)

// Options configures a Runner.
type Options struct {
	Logger *slog.Logger
	Hooks  []idom.Hooks
	Debug  bool
}

// Result describes one executed pass.
type Result struct {
	Index  int
	Name   string
	Stats  idom.PatchStats // top-level patch only
	Nested int             // number of nested patches
	Frame  *protocol.Frame // nil when the pass changed nothing
	Err    error
}

// Runner executes the passes of a script against one live tree.
type Runner struct {
	script   *Script
	logger   *slog.Logger
	tree     *livetree.Tree
	recorder *protocol.Recorder[*livetree.Node]
	patcher  *idom.Patcher[*livetree.Node]
	root     *livetree.Node
	initial  *protocol.Frame
	stats    *statsHook
}

// NewRunner prepares the root of s. When the script has an html: tree it
// is built through the recorder, so Bootstrap returns a frame that lets a
// replica start from the same tree.
func NewRunner(s *Script, opts Options) (*Runner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "script")

	r := &Runner{
		script: s,
		logger: logger,
		tree:   livetree.NewTree(),
		root:   livetree.NewElement(s.RootTag),
		stats:  &statsHook{},
	}
	r.recorder = protocol.NewRecorder[*livetree.Node](r.tree)
	r.recorder.ID(r.root)

	hooks := append([]idom.Hooks{r.stats}, opts.Hooks...)
	r.patcher = idom.New(r.recorder.Tree(),
		idom.WithLogger(logger),
		idom.WithHooks(hooks...),
		idom.WithDebug(opts.Debug),
	)

	if s.HTML != "" {
		parsed, err := livetree.ParseHTMLString(s.HTML, s.RootTag)
		if err != nil {
			return nil, errors.New("E106").Wrap(err)
		}
		tt := r.recorder.Tree().(idom.TextTree[*livetree.Node])
		for c := parsed.FirstChild; c != nil; c = c.NextSibling {
			mount(tt, r.root, c)
		}
		r.initial = r.recorder.Flush()
	}
	return r, nil
}

// mount copies src into parent through tree.
func mount(tree idom.TextTree[*livetree.Node], parent, src *livetree.Node) {
	if src.Type == livetree.TextNode {
		tree.InsertBefore(parent, tree.CreateText(src.Data), nil)
		return
	}
	n := tree.CreateNode(src.Tag, src.Key)
	for _, a := range src.Attributes() {
		tree.SetAttribute(n, a.Name, a.Value)
	}
	tree.InsertBefore(parent, n, nil)
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		mount(tree, n, c)
	}
}

// Script returns the script being run.
func (r *Runner) Script() *Script { return r.script }

// Root returns the root element.
func (r *Runner) Root() *livetree.Node { return r.root }

// Tree returns the live tree, which logs every mutation.
func (r *Runner) Tree() *livetree.Tree { return r.tree }

// Bootstrap returns the frame that built the initial html: tree, or nil.
func (r *Runner) Bootstrap() *protocol.Frame { return r.initial }

// HTML renders the children of the root.
func (r *Runner) HTML(opts livetree.RenderOptions) string {
	return livetree.RenderChildren(r.root, opts)
}

// Run executes every pass in order. A failing pass does not stop the
// run; a canceled context does.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.script.Passes))
	for i := range r.script.Passes {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.RunPass(ctx, i))
	}
	return results
}

// RunPass executes the pass at index i.
func (r *Runner) RunPass(ctx context.Context, i int) Result {
	pass := r.script.Passes[i]
	r.stats.reset()

	err := r.patcher.Patch(ctx, r.root, func() error {
		return r.exec(ctx, maps.Clone(pass.Data), pass.Calls)
	})

	res := Result{
		Index:  i,
		Name:   pass.Name,
		Stats:  r.stats.top,
		Nested: r.stats.nested,
		Frame:  r.recorder.Flush(),
		Err:    err,
	}
	if err != nil {
		r.logger.Warn("pass failed", "pass", pass.Name, "error", err)
	} else {
		r.logger.Debug("pass complete",
			"pass", pass.Name,
			"mutations", res.Stats.Mutations(),
			"created", res.Stats.Created,
			"moved", res.Stats.Moved,
			"removed", res.Stats.Removed,
		)
	}
	return res
}

func (r *Runner) exec(ctx context.Context, env map[string]any, calls []*Call) error {
	for _, c := range calls {
		if err := r.call(ctx, env, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) call(ctx context.Context, env map[string]any, c *Call) error {
	if c.If != nil {
		v, err := r.eval(c, c.If, env)
		if err != nil {
			return err
		}
		if !idom.ValueOf(v).Truthy() {
			return nil
		}
	}

	p := r.patcher
	switch c.Kind {
	case KindOpen, KindOpenStart, KindVoid:
		key, err := r.key(c, env)
		if err != nil {
			return err
		}
		switch c.Kind {
		case KindOpen:
			_, err = p.ElementOpen(c.Tag, key, c.Statics, c.Attrs...)
		case KindVoid:
			_, err = p.ElementVoid(c.Tag, key, c.Statics, c.Attrs...)
		default:
			if err = p.ElementOpenStart(c.Tag, key, c.Statics); err != nil {
				return err
			}
			for _, a := range c.Attrs {
				if err = p.Attr(a.Name, a.Value); err != nil {
					return err
				}
			}
		}
		return err

	case KindAttr:
		value := c.Value
		if c.Expr != nil {
			v, err := r.eval(c, c.Expr, env)
			if err != nil {
				return err
			}
			value = idom.ValueOf(v)
		}
		return p.Attr(c.Name, value)

	case KindOpenEnd:
		_, err := p.ElementOpenEnd()
		return err

	case KindClose:
		_, err := p.ElementClose(c.Tag)
		return err

	case KindText:
		text := c.Text
		if c.Expr != nil {
			v, err := r.eval(c, c.Expr, env)
			if err != nil {
				return err
			}
			text = stringify(v)
		}
		_, err := p.Text(text)
		return err

	case KindSkip:
		return p.Skip()

	case KindEach:
		return r.each(ctx, env, c)

	case KindPatch:
		target := r.root.FindByID(c.Target)
		if target == nil {
			return r.fail("E104", c).WithDetail(fmt.Sprintf("No element has id %q.", c.Target))
		}
		return p.Patch(ctx, target, func() error {
			return r.exec(ctx, env, c.Calls)
		})
	}
	return r.fail("E101", c)
}

func (r *Runner) each(ctx context.Context, env map[string]any, c *Call) error {
	v, err := r.eval(c, c.Expr, env)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	list := reflect.ValueOf(v)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return r.fail("E105", c).WithDetail(fmt.Sprintf("each evaluated to %T.", v))
	}

	for i := 0; i < list.Len(); i++ {
		scope := make(map[string]any, len(env)+2)
		maps.Copy(scope, env)
		scope[c.As] = list.Index(i).Interface()
		scope["index"] = i
		if err := r.exec(ctx, scope, c.Calls); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) key(c *Call, env map[string]any) (string, error) {
	if c.KeyExpr == nil {
		return c.Key, nil
	}
	v, err := r.eval(c, c.KeyExpr, env)
	if err != nil {
		return "", err
	}
	return stringify(v), nil
}

func (r *Runner) eval(c *Call, prg *vm.Program, env map[string]any) (any, error) {
	v, err := expr.Run(prg, env)
	if err != nil {
		return nil, r.fail("E103", c).Wrap(err)
	}
	return v, nil
}

func (r *Runner) fail(code string, c *Call) *errors.Error {
	e := errors.New(code)
	if r.script.Path != "" {
		return e.WithLocation(r.script.Path, c.Line, c.Column)
	}
	e.Location = &errors.Location{Line: c.Line, Column: c.Column}
	return e
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// statsHook keeps the stats of the last top-level patch.
type statsHook struct {
	idom.NopHooks
	top    idom.PatchStats
	nested int
}

func (h *statsHook) reset() {
	h.top = idom.PatchStats{}
	h.nested = 0
}

func (h *statsHook) PatchEnd(_ context.Context, stats idom.PatchStats, _ error) {
	if stats.Depth == 0 {
		h.top = stats
		return
	}
	h.nested++
}
