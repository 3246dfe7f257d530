package script

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/idom"
)

// DefaultRootTag is the root element tag when a script names none.
const DefaultRootTag = "div"

// DefaultItemName is the loop variable bound by each when as: is omitted.
const DefaultItemName = "item"

// Script is a parsed render script.
type Script struct {
	Path    string
	RootTag string
	HTML    string // initial children of the root, if any
	Passes  []*Pass
}

// Pass is one render pass.
type Pass struct {
	Name  string
	Data  map[string]any
	Calls []*Call
	Line  int
}

// Kind identifies a call.
type Kind uint8

const (
	KindOpen Kind = iota + 1
	KindOpenStart
	KindAttr
	KindOpenEnd
	KindClose
	KindVoid
	KindText
	KindSkip
	KindEach
	KindPatch
)

var kindNames = map[string]Kind{
	"open":      KindOpen,
	"openStart": KindOpenStart,
	"attr":      KindAttr,
	"openEnd":   KindOpenEnd,
	"close":     KindClose,
	"void":      KindVoid,
	"text":      KindText,
	"skip":      KindSkip,
	"each":      KindEach,
	"patch":     KindPatch,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// callFields are the keys a call may carry besides its kind.
var callFields = map[string]bool{
	"key":     true,
	"keyExpr": true,
	"statics": true,
	"attrs":   true,
	"value":   true,
	"expr":    true,
	"if":      true,
	"as":      true,
	"calls":   true,
}

// Call is one step of a pass.
type Call struct {
	Kind Kind

	Tag    string // open, openStart, close, void
	Name   string // attr
	Target string // patch: id of the element to patch into
	Text   string // literal text

	Key     string
	KeyExpr *vm.Program
	Statics []idom.Attr
	Attrs   []idom.Attr
	Value   idom.Value  // literal attr value
	Expr    *vm.Program // attr value, text or each list
	If      *vm.Program
	As      string
	Calls   []*Call

	Line, Column int
}

type rawScript struct {
	Root   *rawRoot    `yaml:"root"`
	HTML   string      `yaml:"html"`
	Passes []yaml.Node `yaml:"passes"`
}

type rawRoot struct {
	Tag string `yaml:"tag"`
}

type rawPass struct {
	Name  string         `yaml:"name"`
	Data  map[string]any `yaml:"data"`
	Calls []yaml.Node    `yaml:"calls"`
}

type rawCall struct {
	Open      string      `yaml:"open"`
	OpenStart string      `yaml:"openStart"`
	Attr      string      `yaml:"attr"`
	Close     string      `yaml:"close"`
	Void      string      `yaml:"void"`
	Text      any         `yaml:"text"`
	Each      string      `yaml:"each"`
	Patch     string      `yaml:"patch"`
	Key       string      `yaml:"key"`
	KeyExpr   string      `yaml:"keyExpr"`
	Statics   yaml.Node   `yaml:"statics"`
	Attrs     yaml.Node   `yaml:"attrs"`
	Value     any         `yaml:"value"`
	Expr      string      `yaml:"expr"`
	If        string      `yaml:"if"`
	As        string      `yaml:"as"`
	Calls     []yaml.Node `yaml:"calls"`
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E160").Wrap(err)
	}
	return Parse(data, path)
}

// Parse parses a script. path is used for diagnostics and may be empty.
func Parse(data []byte, path string) (*Script, error) {
	p := &parser{src: data, path: path}

	var raw rawScript
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.New("E100").Wrap(err)
	}

	s := &Script{Path: path, RootTag: DefaultRootTag, HTML: raw.HTML}
	if raw.Root != nil && raw.Root.Tag != "" {
		s.RootTag = raw.Root.Tag
	}

	for i := range raw.Passes {
		pass, err := p.pass(&raw.Passes[i], i)
		if err != nil {
			return nil, err
		}
		s.Passes = append(s.Passes, pass)
	}
	if len(s.Passes) == 0 {
		return nil, errors.New("E100").WithDetail("The script has no passes.")
	}
	return s, nil
}

type parser struct {
	src  []byte
	path string
}

// fail builds a diagnostic located at n.
func (p *parser) fail(code string, n *yaml.Node) *errors.Error {
	return errors.New(code).WithSource(p.src, p.path, n.Line, n.Column)
}

func (p *parser) pass(n *yaml.Node, index int) (*Pass, error) {
	var raw rawPass
	if err := n.Decode(&raw); err != nil {
		return nil, p.fail("E100", n).Wrap(err)
	}
	pass := &Pass{Name: raw.Name, Data: raw.Data, Line: n.Line}
	if pass.Name == "" {
		pass.Name = fmt.Sprintf("pass %d", index+1)
	}
	if pass.Data == nil {
		pass.Data = map[string]any{}
	}

	calls, err := p.calls(raw.Calls)
	if err != nil {
		return nil, err
	}
	pass.Calls = calls
	return pass, nil
}

func (p *parser) calls(nodes []yaml.Node) ([]*Call, error) {
	calls := make([]*Call, 0, len(nodes))
	for i := range nodes {
		c, err := p.call(&nodes[i])
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, nil
}

func (p *parser) call(n *yaml.Node) (*Call, error) {
	if n.Kind != yaml.MappingNode {
		return nil, p.fail("E100", n).WithDetail("A call must be a mapping such as {open: div}.")
	}

	var kinds []string
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		if _, ok := kindNames[name]; ok {
			kinds = append(kinds, name)
			continue
		}
		if !callFields[name] {
			return nil, p.fail("E100", n.Content[i]).WithDetail(fmt.Sprintf("Unknown call field %q.", name))
		}
	}
	if len(kinds) != 1 {
		e := p.fail("E101", n)
		if len(kinds) > 1 {
			sort.Strings(kinds)
			e.WithSuggestion("Split this call; it names " + strings.Join(kinds, ", ") + ".")
		}
		return nil, e
	}

	var raw rawCall
	if err := n.Decode(&raw); err != nil {
		return nil, p.fail("E100", n).Wrap(err)
	}

	c := &Call{
		Kind:   kindNames[kinds[0]],
		Key:    raw.Key,
		As:     raw.As,
		Line:   n.Line,
		Column: n.Column,
	}

	var err error
	if c.If, err = p.compile(raw.If, n); err != nil {
		return nil, err
	}
	if c.KeyExpr, err = p.compile(raw.KeyExpr, n); err != nil {
		return nil, err
	}
	if c.Expr, err = p.compile(raw.Expr, n); err != nil {
		return nil, err
	}
	if c.Statics, err = p.attrs(&raw.Statics); err != nil {
		return nil, err
	}
	if c.Attrs, err = p.attrs(&raw.Attrs); err != nil {
		return nil, err
	}

	switch c.Kind {
	case KindOpen, KindOpenStart, KindVoid:
		c.Tag = first(raw.Open, raw.OpenStart, raw.Void)
		if c.Tag == "" {
			return nil, p.fail("E100", n).WithDetail(c.Kind.String() + " needs a tag name.")
		}
	case KindClose:
		c.Tag = raw.Close
	case KindAttr:
		c.Name = raw.Attr
		c.Value = idom.ValueOf(raw.Value)
		if c.Name == "" {
			return nil, p.fail("E100", n).WithDetail("attr needs an attribute name.")
		}
	case KindText:
		if raw.Text != nil {
			c.Text = fmt.Sprint(raw.Text)
		}
	case KindEach:
		if c.Expr, err = p.compile(raw.Each, n); err != nil {
			return nil, err
		}
		if c.Expr == nil {
			return nil, p.fail("E100", n).WithDetail("each needs a list expression.")
		}
		if c.As == "" {
			c.As = DefaultItemName
		}
	case KindPatch:
		c.Target = raw.Patch
		if c.Target == "" {
			return nil, p.fail("E100", n).WithDetail("patch needs the id of an element.")
		}
	}

	if c.Kind == KindEach || c.Kind == KindPatch {
		if c.Calls, err = p.calls(raw.Calls); err != nil {
			return nil, err
		}
	} else if len(raw.Calls) > 0 {
		return nil, p.fail("E100", n).WithDetail("Only each and patch calls take nested calls.")
	}
	return c, nil
}

// attrs converts a mapping into attributes, keeping document order.
func (p *parser) attrs(n *yaml.Node) ([]idom.Attr, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, p.fail("E100", n).WithDetail("Attributes must be a mapping of name to value.")
	}
	attrs := make([]idom.Attr, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return nil, p.fail("E100", n.Content[i+1]).Wrap(err)
		}
		attrs = append(attrs, idom.A(n.Content[i].Value, v))
	}
	return attrs, nil
}

func (p *parser) compile(src string, n *yaml.Node) (*vm.Program, error) {
	if src == "" {
		return nil, nil
	}
	prg, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, p.fail("E102", n).Wrap(err).WithExample(src)
	}
	return prg, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
