package idom_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vango-dev/idom/pkg/livetree"
)

// uniqueKeys turns generated indexes into a list of distinct keys,
// keeping first occurrences.
func uniqueKeys(idx []int) []string {
	seen := make(map[int]bool, len(idx))
	keys := make([]string, 0, len(idx))
	for _, i := range idx {
		if seen[i] {
			continue
		}
		seen[i] = true
		keys = append(keys, fmt.Sprintf("k%d", i))
	}
	return keys
}

func childKeys(n *livetree.Node) []string {
	var keys []string
	for _, c := range n.Children() {
		keys = append(keys, c.Key)
	}
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestKeyedReconciliationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	indexes := gen.SliceOf(gen.IntRange(0, 9))

	properties.Property("children follow the last pass in order", prop.ForAll(
		func(first, second []int) bool {
			p, _, container := newTestPatcher(t)
			ctx := context.Background()
			a, b := uniqueKeys(first), uniqueKeys(second)

			if err := p.Patch(ctx, container, renderList(p, a, true)); err != nil {
				return false
			}
			if err := p.Patch(ctx, container, renderList(p, b, true)); err != nil {
				return false
			}
			return equalKeys(childKeys(container.ChildAt(0)), b)
		},
		indexes, indexes,
	))

	properties.Property("surviving keys keep their nodes", prop.ForAll(
		func(first, second []int) bool {
			p, _, container := newTestPatcher(t)
			ctx := context.Background()
			a, b := uniqueKeys(first), uniqueKeys(second)

			if err := p.Patch(ctx, container, renderList(p, a, true)); err != nil {
				return false
			}
			before := map[string]*livetree.Node{}
			for _, c := range container.ChildAt(0).Children() {
				before[c.Key] = c
			}
			if err := p.Patch(ctx, container, renderList(p, b, true)); err != nil {
				return false
			}
			for _, c := range container.ChildAt(0).Children() {
				if old, ok := before[c.Key]; ok && old != c {
					return false
				}
			}
			return true
		},
		indexes, indexes,
	))

	properties.Property("repeating a pass mutates nothing", prop.ForAll(
		func(idx []int, keyed bool) bool {
			p, tree, container := newTestPatcher(t)
			ctx := context.Background()
			keys := uniqueKeys(idx)

			if err := p.Patch(ctx, container, renderList(p, keys, keyed)); err != nil {
				return false
			}
			tree.Reset()
			if err := p.Patch(ctx, container, renderList(p, keys, keyed)); err != nil {
				return false
			}
			return tree.Total() == 0
		},
		indexes, gen.Bool(),
	))

	properties.Property("removed nodes are forgotten", prop.ForAll(
		func(idx []int) bool {
			p, _, container := newTestPatcher(t)
			ctx := context.Background()

			if err := p.Patch(ctx, container, renderList(p, uniqueKeys(idx), true)); err != nil {
				return false
			}
			if err := p.Patch(ctx, container, func() error { return nil }); err != nil {
				return false
			}
			return p.Tracked() == 0 && container.FirstChild == nil
		},
		indexes,
	))

	properties.TestingRun(t)
}
