package amr

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrNoGraph is returned when a text block holds no graph, only comments
var ErrNoGraph = errors.New("no AMR graph found")

// Triple is a smatch triple. Instances are ("instance", var, concept),
// attributes (role, var, constant) and relations (role, var, var).
type Triple struct {
	Role   string
	Source string
	Target string
}

// Node is one variable of a graph with its concept and outgoing edges
type Node struct {
	Var     string
	Concept string
	Edges   []Edge
}

// Edge links a node to a child node, a constant or a variable defined
// elsewhere in the graph. Exactly one of Node and Value is set.
type Edge struct {
	Role   string
	Node   *Node
	Value  string
	Quoted bool
}

// Tree is a parsed PENMAN graph
type Tree struct {
	Root     *Node
	Metadata map[string]string

	vars map[string]*Node
}

// roles ending in -of that are not inverses
var nonInverseRoles = map[string]bool{
	"consist-of":        true,
	"prep-on-behalf-of": true,
	"prep-out-of":       true,
}

var alignmentRe = regexp.MustCompile(`~(?:[A-Za-z]+\.)?[0-9]+(?:,[0-9]+)*$`)

// Parse reads one graph. Comment lines starting with '#' are skipped; a
// "# ::key value" comment is kept in Metadata. Alignment markers such as
// ~e.4 are dropped.
func Parse(text string) (*Tree, error) {
	body, meta := stripComments(text)

	toks, err := lex(body)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, ErrNoGraph
	}

	p := &parser{toks: toks, vars: make(map[string]*Node)}
	root, err := p.node()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("unexpected %q after graph at offset %d", p.toks[p.pos].text, p.toks[p.pos].pos)
	}

	return &Tree{Root: root, Metadata: meta, vars: p.vars}, nil
}

func stripComments(text string) (string, map[string]string) {
	meta := make(map[string]string)
	var body strings.Builder

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}

		// "# ::snt a b c ::tok x" carries several fields
		for _, field := range strings.Split(trimmed, "::")[1:] {
			key, value, _ := strings.Cut(field, " ")
			if key = strings.TrimSpace(key); key != "" {
				meta[key] = strings.TrimSpace(value)
			}
		}
	}

	return body.String(), meta
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokSlash
	tokRole
	tokString
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"', '/':
		return true
	}
	return false
}

func lex(text string) ([]token, error) {
	var toks []token

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '/':
			toks = append(toks, token{tokSlash, "/", i})
			i++
		case c == '"':
			var sb strings.Builder
			j := i + 1
			for ; j < len(text) && text[j] != '"'; j++ {
				if text[j] == '\\' && j+1 < len(text) {
					j++
				}
				sb.WriteByte(text[j])
			}
			if j >= len(text) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			toks = append(toks, token{tokString, sb.String(), i})
			i = j + 1
			if i < len(text) && text[i] == '~' {
				for i < len(text) && !isDelim(text[i]) {
					i++
				}
			}
		default:
			j := i
			for j < len(text) && !isDelim(text[j]) {
				j++
			}
			word := alignmentRe.ReplaceAllString(text[i:j], "")
			kind := tokSymbol
			if strings.HasPrefix(word, ":") {
				kind = tokRole
			}
			toks = append(toks, token{kind, word, i})
			i = j
		}
	}

	return toks, nil
}

type parser struct {
	toks []token
	pos  int
	vars map[string]*Node
}

func (p *parser) next() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	t := p.toks[p.pos]
	p.pos++
	return t, true
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t, ok := p.next()
	if !ok {
		return t, fmt.Errorf("unexpected end of graph, expected %s", what)
	}
	if t.kind != kind {
		return t, fmt.Errorf("expected %s at offset %d, got %q", what, t.pos, t.text)
	}
	return t, nil
}

func (p *parser) node() (*Node, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	v, err := p.expect(tokSymbol, "variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSlash, "'/'"); err != nil {
		return nil, err
	}
	concept, ok := p.next()
	if !ok || (concept.kind != tokSymbol && concept.kind != tokString) {
		return nil, fmt.Errorf("missing concept for variable %s", v.text)
	}

	if _, dup := p.vars[v.text]; dup {
		return nil, fmt.Errorf("variable %s defined twice", v.text)
	}
	n := &Node{Var: v.text, Concept: concept.text}
	p.vars[v.text] = n

	for {
		t, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("unclosed node %s", n.Var)
		}

		switch t.kind {
		case tokRParen:
			return n, nil
		case tokRole:
			edge, err := p.edge(t.text)
			if err != nil {
				return nil, err
			}
			n.Edges = append(n.Edges, edge)
		default:
			return nil, fmt.Errorf("expected role at offset %d, got %q", t.pos, t.text)
		}
	}
}

func (p *parser) edge(role string) (Edge, error) {
	if p.pos >= len(p.toks) {
		return Edge{}, fmt.Errorf("role %s has no value", role)
	}

	t := p.toks[p.pos]
	switch t.kind {
	case tokLParen:
		child, err := p.node()
		if err != nil {
			return Edge{}, err
		}
		return Edge{Role: role, Node: child}, nil
	case tokString:
		p.pos++
		return Edge{Role: role, Value: t.text, Quoted: true}, nil
	case tokSymbol:
		p.pos++
		return Edge{Role: role, Value: t.text}, nil
	default:
		return Edge{}, fmt.Errorf("role %s has no value", role)
	}
}

// Variables returns the variables of the graph in depth-first order
func (t *Tree) Variables() []string {
	var out []string
	t.walk(func(n *Node) { out = append(out, n.Var) })
	return out
}

func (t *Tree) walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		fn(n)
		for _, e := range n.Edges {
			if e.Node != nil {
				visit(e.Node)
			}
		}
	}
	visit(t.Root)
}

// Instances returns one ("instance", var, concept) triple per variable
func (t *Tree) Instances() []Triple {
	var out []Triple
	t.walk(func(n *Node) {
		out = append(out, Triple{"instance", n.Var, strings.ToLower(n.Concept)})
	})
	return out
}

// Attributes returns the TOP triple followed by every constant-valued edge
func (t *Tree) Attributes() []Triple {
	out := []Triple{{"TOP", t.Root.Var, strings.ToLower(t.Root.Concept)}}
	t.walk(func(n *Node) {
		for _, e := range n.Edges {
			if t.isConstant(e) {
				role := strings.ToLower(strings.TrimPrefix(e.Role, ":"))
				out = append(out, Triple{role, n.Var, strings.ToLower(e.Value)})
			}
		}
	})
	return out
}

// Relations returns every variable-to-variable edge with inverse roles
// normalised, so :ARG0-of from a to b becomes ARG0 from b to a.
func (t *Tree) Relations() []Triple {
	var out []Triple
	t.walk(func(n *Node) {
		for _, e := range n.Edges {
			if t.isConstant(e) {
				continue
			}
			target := e.Value
			if e.Node != nil {
				target = e.Node.Var
			}
			role, inverted := normalizeRole(e.Role)
			if inverted {
				out = append(out, Triple{role, target, n.Var})
			} else {
				out = append(out, Triple{role, n.Var, target})
			}
		}
	})
	return out
}

// Triples returns instances, attributes and relations in that order
func (t *Tree) Triples() []Triple {
	out := t.Instances()
	out = append(out, t.Attributes()...)
	return append(out, t.Relations()...)
}

func (t *Tree) isConstant(e Edge) bool {
	if e.Node != nil {
		return false
	}
	if e.Quoted {
		return true
	}
	_, isVar := t.vars[e.Value]
	return !isVar
}

func normalizeRole(role string) (string, bool) {
	role = strings.ToLower(strings.TrimPrefix(role, ":"))
	if strings.HasSuffix(role, "-of") && !nonInverseRoles[role] {
		return strings.TrimSuffix(role, "-of"), true
	}
	return role, false
}

// Format serialises the graph in indented PENMAN notation, without metadata
func (t *Tree) Format() string {
	var b strings.Builder
	formatNode(&b, t.Root, 1)
	return b.String()
}

func formatNode(b *strings.Builder, n *Node, depth int) {
	fmt.Fprintf(b, "(%s / %s", n.Var, n.Concept)
	indent := strings.Repeat("    ", depth)
	for _, e := range n.Edges {
		fmt.Fprintf(b, "\n%s%s ", indent, e.Role)
		switch {
		case e.Node != nil:
			formatNode(b, e.Node, depth+1)
		case e.Quoted:
			b.WriteString(`"` + strings.ReplaceAll(e.Value, `"`, `\"`) + `"`)
		default:
			b.WriteString(e.Value)
		}
	}
	b.WriteByte(')')
}

// Header renders the metadata as "# ::key value" lines, snt first
func (t *Tree) Header() string {
	keys := make([]string, 0, len(t.Metadata))
	for k := range t.Metadata {
		if k != "snt" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := t.Metadata["snt"]; ok {
		keys = append([]string{"snt"}, keys...)
	}

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "# ::%s %s\n", k, t.Metadata[k])
	}
	return b.String()
}
