package idom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotPatching is returned by call-stream methods invoked outside Patch.
var ErrNotPatching = errors.New("idom: call outside of Patch")

// Option configures a Patcher.
type Option func(*options)

type options struct {
	logger *slog.Logger
	hooks  []Hooks
	debug  bool
}

// WithLogger sets the logger. Default: slog.Default() with component=idom.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks adds hooks observing patches and mutations.
func WithHooks(hooks ...Hooks) Option {
	return func(o *options) {
		for _, h := range hooks {
			if h != nil {
				o.hooks = append(o.hooks, h)
			}
		}
	}
}

// WithDebug enables the extra close-tag and unclosed-element checks.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// nodeData is the engine's bookkeeping for a node it has reconciled.
type nodeData struct {
	// attrs is the snapshot of dynamic attributes applied by the most
	// recent reconciliation; order keeps removal deterministic.
	attrs map[string]Value
	order []string
	// text is the last content written to a text node.
	text string
}

// walk is the state of one Patch invocation.
type walk[N comparable] struct {
	stack   scopeStack[N]
	builder attrBuilder
	err     error
	stats   PatchStats
}

// Patcher applies render passes to a live tree.
//
// A Patcher is not safe for concurrent use. Patch is reentrant: a render
// callback may call Patch again on a different root, and the outer walk
// is restored when the nested call returns.
type Patcher[N comparable] struct {
	tree   Tree[N]
	text   TextTree[N]
	logger *slog.Logger
	hooks  Hooks
	debug  bool

	data map[N]*nodeData
	w    *walk[N]
	// nesting is the number of active Patch calls.
	nesting int
}

// New creates a Patcher for the given tree.
func New[N comparable](tree Tree[N], opts ...Option) *Patcher[N] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "idom")
	}

	p := &Patcher[N]{
		tree:   tree,
		logger: o.logger,
		debug:  o.debug,
		data:   make(map[N]*nodeData),
	}
	if tt, ok := tree.(TextTree[N]); ok {
		p.text = tt
	}
	switch len(o.hooks) {
	case 0:
		p.hooks = NopHooks{}
	case 1:
		p.hooks = o.hooks[0]
	default:
		p.hooks = multiHooks(o.hooks)
	}
	return p
}

// Tree returns the tree the Patcher mutates.
func (p *Patcher[N]) Tree() Tree[N] {
	return p.tree
}

// Patch runs fn against root, reconciling the children of root with the
// calls fn makes. The first error of the walk is returned: the one fn
// returns, a sequencing error fn ignored, or an error detected when the
// walk ends. All walk state is restored on every exit path, including a
// panic in fn, which is re-raised after cleanup.
func (p *Patcher[N]) Patch(ctx context.Context, root N, fn func() error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	outer := p.w
	w := &walk[N]{}
	w.stats.Depth = p.nesting
	w.stack.push(scope[N]{parent: root, cursor: p.tree.FirstChild(root)})
	p.w = w
	p.nesting++

	hctx := p.hooks.PatchStart(ctx, w.stats.Depth)
	start := time.Now()

	defer func() {
		r := recover()
		endErr := p.finish(w, r != nil)
		p.w = outer
		p.nesting--
		w.stats.Duration = time.Since(start)

		if r != nil {
			p.hooks.PatchEnd(hctx, w.stats, fmt.Errorf("idom: render panicked: %v", r))
			panic(r)
		}

		if err == nil {
			err = w.err
		}
		if err == nil {
			err = endErr
		}
		if err != nil {
			p.logger.Debug("patch failed", "depth", w.stats.Depth, "error", err)
		}
		p.hooks.PatchEnd(hctx, w.stats, err)
	}()

	return fn()
}

// finish checks the end-of-walk invariants, clears stale children of the
// root scope and resets the walk. It returns the first invariant violation.
func (p *Patcher[N]) finish(w *walk[N], panicked bool) error {
	var endErr error
	if w.builder.building() {
		if w.err == nil {
			endErr = p.fail(w, newSequencingError(OpPatch, MsgOpenEndMissing))
		}
		w.builder.reset()
	}
	balanced := w.stack.depth() == 1
	if !balanced && p.debug && endErr == nil && w.err == nil {
		endErr = p.fail(w, errUnclosedTags(w.stack.openTags()))
	}

	// A panic may come from the tree itself; do not touch it again.
	// An unbalanced stack leaves the root cursor on a node still being
	// built, so clearing from it would discard live content.
	if !panicked && balanced {
		root := w.stack.top()
		p.clearFrom(w, root.parent, root.cursor)
	}
	w.stack.scopes = w.stack.scopes[:0]
	return endErr
}

// fail records err as the walk's first error and reports it to hooks.
func (p *Patcher[N]) fail(w *walk[N], err *SequencingError) error {
	p.hooks.SequencingError(err)
	p.logger.Debug("sequencing error", "op", err.Op.String(), "error", err.Message)
	if w.err == nil {
		w.err = err
	}
	return err
}

// active returns the current walk, or an error if calls cannot proceed.
func (p *Patcher[N]) active() (*walk[N], error) {
	if p.w == nil {
		return nil, ErrNotPatching
	}
	if p.w.err != nil {
		return nil, p.w.err
	}
	return p.w, nil
}

// Render runs fn with data as a Patch on root and returns fn's result.
func Render[N comparable, D, R any](ctx context.Context, p *Patcher[N], root N, fn func(D) (R, error), data D) (R, error) {
	var out R
	err := p.Patch(ctx, root, func() error {
		r, err := fn(data)
		out = r
		return err
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return out, nil
}

// Depth returns the number of open scopes of the current walk, including
// the root scope, or 0 outside Patch.
func (p *Patcher[N]) Depth() int {
	if p.w == nil {
		return 0
	}
	return p.w.stack.depth()
}

// Building reports whether the current walk is between elementOpenStart
// and elementOpenEnd.
func (p *Patcher[N]) Building() bool {
	return p.w != nil && p.w.builder.building()
}

// Nesting returns the number of active Patch calls.
func (p *Patcher[N]) Nesting() int {
	return p.nesting
}

// CurrentElement returns the node whose children are being visited.
func (p *Patcher[N]) CurrentElement() N {
	if p.w == nil || p.w.stack.depth() == 0 {
		var zero N
		return zero
	}
	return p.w.stack.top().parent
}

// CurrentPointer returns the next old child the walk will consider.
func (p *Patcher[N]) CurrentPointer() N {
	if p.w == nil || p.w.stack.depth() == 0 {
		var zero N
		return zero
	}
	return p.w.stack.top().cursor
}

// Forget drops the engine's bookkeeping for node and its descendants.
// Use it when nodes are removed from the tree outside of Patch.
func (p *Patcher[N]) Forget(node N) {
	p.forget(node)
}

// Tracked returns the number of nodes with bookkeeping.
func (p *Patcher[N]) Tracked() int {
	return len(p.data)
}
