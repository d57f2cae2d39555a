// Package sequence parses and flattens nested assembly sequences such as
// "[[0,1],[2,[3,4]]]": each integer is a plate index and nesting groups
// plates into assembly steps.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is either a leaf holding a plate index or a list of child nodes.
type Node struct {
	Index    int
	Children []Node
	List     bool
}

// Leaf returns a leaf node.
func Leaf(i int) Node { return Node{Index: i} }

// List returns a list node.
func List(children ...Node) Node { return Node{Children: children, List: true} }

// FromFlat builds a one-level list from plate indices.
func FromFlat(ids []int) Node {
	n := Node{List: true, Children: make([]Node, len(ids))}
	for i, id := range ids {
		n.Children[i] = Leaf(id)
	}
	return n
}

// SyntaxError reports where parsing stopped.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sequence: offset %d: %s", e.Offset, e.Message)
}

// Parse reads a nested integer list. Whitespace is ignored and commas
// separate siblings; a bare integer is a valid sequence of one plate.
func Parse(s string) (Node, error) {
	p := &parser{src: s}
	p.skipSpace()
	if p.eof() {
		return Node{}, &SyntaxError{Offset: 0, Message: "empty sequence"}
	}
	n, err := p.node()
	if err != nil {
		return Node{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Node{}, p.errorf("unexpected %q after sequence", p.src[p.pos])
	}
	return n, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) node() (Node, error) {
	p.skipSpace()
	if p.eof() {
		return Node{}, p.errorf("unexpected end of input")
	}
	if p.src[p.pos] == '[' {
		return p.list()
	}
	return p.leaf()
}

func (p *parser) list() (Node, error) {
	p.pos++ // '['
	n := Node{List: true}
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == ']' {
		p.pos++
		return n, nil
	}
	for {
		child, err := p.node()
		if err != nil {
			return Node{}, err
		}
		n.Children = append(n.Children, child)
		p.skipSpace()
		if p.eof() {
			return Node{}, p.errorf("missing ']'")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return n, nil
		default:
			return Node{}, p.errorf("expected ',' or ']', got %q", p.src[p.pos])
		}
	}
}

func (p *parser) leaf() (Node, error) {
	start := p.pos
	if !p.eof() && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	v, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return Node{}, p.errorf("expected integer or '['")
	}
	return Leaf(v), nil
}

// Flatten returns every plate index depth-first.
func (n Node) Flatten() []int {
	if !n.List {
		return []int{n.Index}
	}
	var out []int
	for _, c := range n.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

// Steps returns each top-level child flattened. A leaf is a single step.
func (n Node) Steps() [][]int {
	if !n.List {
		return [][]int{{n.Index}}
	}
	steps := make([][]int, 0, len(n.Children))
	for _, c := range n.Children {
		steps = append(steps, c.Flatten())
	}
	return steps
}

// Count returns the number of plate indices.
func (n Node) Count() int { return len(n.Flatten()) }

// Depth returns the nesting depth; a leaf has depth 0.
func (n Node) Depth() int {
	if !n.List {
		return 0
	}
	d := 0
	for _, c := range n.Children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}

func (n Node) String() string {
	if !n.List {
		return strconv.Itoa(n.Index)
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// MarshalText encodes the node in its bracket notation.
func (n Node) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// UnmarshalText parses bracket notation.
func (n *Node) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
