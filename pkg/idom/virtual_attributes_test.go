package idom_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/livetree"
)

func newTestPatcher(t testing.TB, opts ...idom.Option) (*idom.Patcher[*livetree.Node], *livetree.Tree, *livetree.Node) {
	t.Helper()
	tree := livetree.NewTree()
	return idom.New[*livetree.Node](tree, opts...), tree, livetree.NewElement("div")
}

// renderConditional declares a div with a static attribute and an
// optional virtual one.
func renderConditional(p *idom.Patcher[*livetree.Node], key any) func() error {
	return func() error {
		p.ElementOpenStart("div", "", idom.Attrs("data-static", "world"))
		if idom.ValueOf(key).Truthy() {
			p.Attr("data-expanded", key)
		}
		p.ElementOpenEnd()
		p.ElementClose("div")
		return nil
	}
}

func TestConditionalAttributePresentWhenSpecified(t *testing.T) {
	p, _, container := newTestPatcher(t)

	if err := p.Patch(context.Background(), container, renderConditional(p, "hello")); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	el := container.ChildAt(0)
	if got := el.AttrString("data-expanded"); got != "hello" {
		t.Errorf("data-expanded = %q, want hello", got)
	}
	if got := el.AttrString("data-static"); got != "world" {
		t.Errorf("data-static = %q, want world", got)
	}
}

func TestConditionalAttributeAbsentWhenNotSpecified(t *testing.T) {
	p, _, container := newTestPatcher(t)

	if err := p.Patch(context.Background(), container, renderConditional(p, false)); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	el := container.ChildAt(0)
	if el.HasAttr("data-expanded") {
		t.Errorf("data-expanded should not be present, got %q", el.AttrString("data-expanded"))
	}
	if got := el.AttrString("data-static"); got != "world" {
		t.Errorf("data-static = %q, want world", got)
	}
}

func TestConditionalAttributeRemovedOnRerender(t *testing.T) {
	p, _, container := newTestPatcher(t)
	ctx := context.Background()

	if err := p.Patch(ctx, container, renderConditional(p, "hello")); err != nil {
		t.Fatal(err)
	}
	if err := p.Patch(ctx, container, renderConditional(p, false)); err != nil {
		t.Fatal(err)
	}

	el := container.ChildAt(0)
	if el.HasAttr("data-expanded") {
		t.Error("data-expanded should be removed after rendering a falsy value")
	}
	if got := el.AttrString("data-static"); got != "world" {
		t.Errorf("data-static = %q, want world", got)
	}
}

func TestConditionalAttributeUpdatesWithOneMutation(t *testing.T) {
	p, tree, container := newTestPatcher(t)
	ctx := context.Background()

	if err := p.Patch(ctx, container, renderConditional(p, "foo")); err != nil {
		t.Fatal(err)
	}
	first := container.ChildAt(0)
	tree.Reset()

	if err := p.Patch(ctx, container, renderConditional(p, "bar")); err != nil {
		t.Fatal(err)
	}

	el := container.ChildAt(0)
	if el != first {
		t.Error("element should be reused across passes")
	}
	if got := el.AttrString("data-expanded"); got != "bar" {
		t.Errorf("data-expanded = %q, want bar", got)
	}
	if tree.Total() != 1 || tree.Count(livetree.OpSetAttr) != 1 {
		t.Errorf("mutations = %+v, want exactly one setAttribute", tree.Log())
	}
}

func TestSequencingErrors(t *testing.T) {
	tests := []struct {
		name   string
		render func(p *idom.Patcher[*livetree.Node]) func() error
		want   string
	}{
		{
			name: "attr outside virtual attributes element",
			render: func(p *idom.Patcher[*livetree.Node]) func() error {
				return func() error {
					p.Attr("data-expanded", true)
					return nil
				}
			},
			want: "attr() can only be called after calling elementOpenStart().",
		},
		{
			name: "unclosed virtual attributes element",
			render: func(p *idom.Patcher[*livetree.Node]) func() error {
				return func() error {
					p.ElementOpenStart("div", "", nil)
					return nil
				}
			},
			want: "elementOpenEnd() must be called after calling elementOpenStart().",
		},
		{
			name: "closed without being opened",
			render: func(p *idom.Patcher[*livetree.Node]) func() error {
				return func() error {
					p.ElementOpenEnd()
					return nil
				}
			},
			want: "elementOpenEnd() can only be called after calling elementOpenStart().",
		},
		{
			name: "elementOpen inside virtual attributes element",
			render: func(p *idom.Patcher[*livetree.Node]) func() error {
				return func() error {
					p.ElementOpenStart("div", "", nil)
					p.ElementOpen("div", "", nil)
					return nil
				}
			},
			want: "elementOpen() can not be called between elementOpenStart() and elementOpenEnd().",
		},
		{
			name: "elementOpenStart inside virtual attributes element",
			render: func(p *idom.Patcher[*livetree.Node]) func() error {
				return func() error {
					p.ElementOpenStart("div", "", nil)
					p.ElementOpenStart("div", "", nil)
					return nil
				}
			},
			want: "elementOpenStart() can not be called between elementOpenStart() and elementOpenEnd().",
		},
		{
			name: "elementClose inside virtual attributes element",
			render: func(p *idom.Patcher[*livetree.Node]) func() error {
				return func() error {
					p.ElementOpenStart("div", "", nil)
					p.ElementClose("div")
					return nil
				}
			},
			want: "elementClose() can not be called between elementOpenStart() and elementOpenEnd().",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, container := newTestPatcher(t)

			err := p.Patch(context.Background(), container, tt.render(p))
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			var se *idom.SequencingError
			if !errors.As(err, &se) {
				t.Errorf("error %T is not a *SequencingError", err)
			}

			if p.Building() {
				t.Error("builder should be idle after Patch returns")
			}
			if p.Depth() != 0 {
				t.Errorf("Depth() = %d after Patch, want 0", p.Depth())
			}

			// The next patch must not be wedged.
			if err := p.Patch(context.Background(), container, renderConditional(p, "ok")); err != nil {
				t.Fatalf("next Patch() error = %v", err)
			}
			if got := container.ChildAt(0).AttrString("data-expanded"); got != "ok" {
				t.Errorf("data-expanded = %q after recovery, want ok", got)
			}
		})
	}
}

func TestSequencingErrorReturnedFromCall(t *testing.T) {
	p, _, container := newTestPatcher(t)

	var callErr error
	err := p.Patch(context.Background(), container, func() error {
		p.ElementOpenStart("div", "", nil)
		callErr = p.Attr("a", "1")
		if callErr != nil {
			return callErr
		}
		_, callErr = p.ElementOpen("span", "", nil)
		return callErr
	})

	if !errors.Is(callErr, idom.ErrOpenInsideBuild) {
		t.Errorf("ElementOpen() error = %v, want ErrOpenInsideBuild", callErr)
	}
	if !errors.Is(err, idom.ErrOpenInsideBuild) {
		t.Errorf("Patch() error = %v, want ErrOpenInsideBuild", err)
	}
	if !idom.IsSequencingError(err) {
		t.Error("IsSequencingError() = false")
	}
}

func TestCallsAfterErrorAreNoOps(t *testing.T) {
	p, tree, container := newTestPatcher(t)

	err := p.Patch(context.Background(), container, func() error {
		p.Attr("stray", "x")
		// Ignored error: the walk is aborted, so nothing below may mutate.
		if _, err := p.ElementOpen("div", "", nil); !errors.Is(err, idom.ErrAttrOutsideBuild) {
			t.Errorf("ElementOpen() after failure error = %v, want the sticky error", err)
		}
		p.ElementClose("div")
		return nil
	})

	if !errors.Is(err, idom.ErrAttrOutsideBuild) {
		t.Errorf("Patch() error = %v", err)
	}
	if container.FirstChild != nil {
		t.Error("no node should have been created after the walk failed")
	}
	if tree.Total() != 0 {
		t.Errorf("mutations = %v, want none", tree.Log())
	}
}
