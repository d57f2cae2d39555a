package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestPathString(t *testing.T) {
	assert.Equal(t, "{0;2;1}", Path{0, 2, 1}.String())
	assert.Equal(t, "{}", Path{}.String())
}

func TestFromListsKeepsEmptyBranches(t *testing.T) {
	tr := FromLists([][]int{{1, 2}, {}, {3}})
	assert.Equal(t, 3, tr.BranchCount())
	assert.Equal(t, 3, tr.Len())
	assert.Empty(t, tr.Branch(Path{1}))
	if diff := cmp.Diff([]int{1, 2, 3}, tr.Flatten()); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Path{{0}, {1}, {2}}, tr.Paths()); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestFromNested(t *testing.T) {
	tr := FromNested([][][]string{{{"a"}, {"b", "c"}}, {{"d"}}})
	assert.Equal(t, []string{"b", "c"}, tr.Branch(Path{0, 1}))
	assert.Equal(t, []string{"d"}, tr.Branch(Path{1, 0}))
	assert.Nil(t, tr.Branch(Path{2}))
}

func TestAddAppendsToExistingBranch(t *testing.T) {
	var tr Tree[int]
	tr.Add(Path{0}, 1)
	tr.Add(Path{0}, 2)
	assert.Equal(t, []int{1, 2}, tr.Branch(Path{0}))
	assert.Equal(t, 1, tr.BranchCount())
}

func TestAddCopiesPath(t *testing.T) {
	tr := New[int]()
	p := Path{0}
	tr.Add(p, 1)
	p[0] = 9
	assert.Equal(t, []int{1}, tr.Branch(Path{0}))
}

func TestIterationIsRestartable(t *testing.T) {
	tr := FromLists([][]int{{1}, {2}})
	first := tr.Flatten()
	second := tr.Flatten()
	assert.Equal(t, first, second)
}

func TestNilTree(t *testing.T) {
	var tr *Tree[int]
	assert.Equal(t, 0, tr.BranchCount())
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, tr.Flatten())
	assert.Nil(t, tr.Branch(Path{0}))
}

func TestMap(t *testing.T) {
	tr := FromLists([][]int{{1, 2}, {3}})
	doubled := Map(tr, func(v int) int { return v * 2 })
	assert.Equal(t, []int{2, 4}, doubled.Branch(Path{0}))
	assert.Equal(t, []int{6}, doubled.Branch(Path{1}))
}

func TestReadersReturnCopies(t *testing.T) {
	tr := FromLists([][]int{{1, 2}, {3}})

	bs := tr.Branches()
	bs[0].Items[0] = 99
	bs[0].Path[0] = 7
	bs[1].Items = append(bs[1].Items, 4)

	items := tr.Branch(Path{0})
	items[1] = 42
	tr.Paths()[1][0] = 5

	assert.Equal(t, []int{1, 2}, tr.Branch(Path{0}))
	assert.Equal(t, []int{3}, tr.Branch(Path{1}))
	if diff := cmp.Diff([]Path{{0}, {1}}, tr.Paths()); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, tr.Len())
}
