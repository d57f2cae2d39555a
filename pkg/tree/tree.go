// Package tree holds ragged per-plate and per-pair results as an ordered
// mapping from integer paths to item lists.
package tree

import (
	"strconv"
	"strings"
)

// Path addresses a branch, e.g. {0;2}.
type Path []int

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return "{" + strings.Join(parts, ";") + "}"
}

// Branch is one path with its items.
type Branch[T any] struct {
	Path  Path `json:"path"`
	Items []T  `json:"items"`
}

// Tree is an insertion-ordered mapping from Path to a list of T. The zero
// value is an empty tree ready for use.
type Tree[T any] struct {
	branches []Branch[T]
	index    map[string]int
}

// New returns an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{}
}

// Add appends items to the branch at path, creating it if needed. An empty
// item list still creates the branch so per-plate trees keep one branch per
// plate.
func (t *Tree[T]) Add(path Path, items ...T) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	key := path.String()
	if i, ok := t.index[key]; ok {
		t.branches[i].Items = append(t.branches[i].Items, items...)
		return
	}
	p := append(Path(nil), path...)
	t.index[key] = len(t.branches)
	t.branches = append(t.branches, Branch[T]{Path: p, Items: append([]T(nil), items...)})
}

// Branch returns a copy of the items at path, or nil.
func (t *Tree[T]) Branch(path Path) []T {
	if t == nil || t.index == nil {
		return nil
	}
	if i, ok := t.index[path.String()]; ok {
		return append([]T{}, t.branches[i].Items...)
	}
	return nil
}

// Branches returns a copy of every branch in insertion order. Changing the
// result leaves the tree untouched.
func (t *Tree[T]) Branches() []Branch[T] {
	if t == nil {
		return nil
	}
	out := make([]Branch[T], len(t.branches))
	for i, b := range t.branches {
		out[i] = Branch[T]{Path: append(Path(nil), b.Path...), Items: append([]T{}, b.Items...)}
	}
	return out
}

// Paths returns the branch paths in insertion order.
func (t *Tree[T]) Paths() []Path {
	if t == nil {
		return nil
	}
	paths := make([]Path, len(t.branches))
	for i, b := range t.branches {
		paths[i] = append(Path(nil), b.Path...)
	}
	return paths
}

// BranchCount returns the number of branches.
func (t *Tree[T]) BranchCount() int {
	if t == nil {
		return 0
	}
	return len(t.branches)
}

// Len returns the total number of items across branches.
func (t *Tree[T]) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, b := range t.branches {
		n += len(b.Items)
	}
	return n
}

// Flatten returns every item in branch order.
func (t *Tree[T]) Flatten() []T {
	if t == nil {
		return nil
	}
	var out []T
	for _, b := range t.branches {
		out = append(out, b.Items...)
	}
	return out
}

// FromLists puts lists[i] on path {i}.
func FromLists[T any](lists [][]T) *Tree[T] {
	t := New[T]()
	for i, l := range lists {
		t.Add(Path{i}, l...)
	}
	return t
}

// FromNested puts lists[i][j] on path {i;j}.
func FromNested[T any](lists [][][]T) *Tree[T] {
	t := New[T]()
	for i, outer := range lists {
		for j, l := range outer {
			t.Add(Path{i, j}, l...)
		}
	}
	return t
}

// Map converts every item of t with f, keeping the branch layout.
func Map[T, U any](t *Tree[T], f func(T) U) *Tree[U] {
	out := New[U]()
	for _, b := range t.Branches() {
		items := make([]U, len(b.Items))
		for i, v := range b.Items {
			items[i] = f(v)
		}
		out.Add(b.Path, items...)
	}
	return out
}
