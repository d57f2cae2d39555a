package sequence

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		flat    []int
		steps   [][]int
		depth   int
		printed string
	}{
		{"3", []int{3}, [][]int{{3}}, 0, "3"},
		{"[]", nil, [][]int{}, 1, "[]"},
		{"[0,1,2]", []int{0, 1, 2}, [][]int{{0}, {1}, {2}}, 1, "[0,1,2]"},
		{" [ [0, 1] , [2,[3, 4]] ] ", []int{0, 1, 2, 3, 4}, [][]int{{0, 1}, {2, 3, 4}}, 3, "[[0,1],[2,[3,4]]]"},
		{"[[10],[-1]]", []int{10, -1}, [][]int{{10}, {-1}}, 2, "[[10],[-1]]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.flat, n.Flatten())
			assert.Equal(t, tt.steps, n.Steps())
			assert.Equal(t, tt.depth, n.Depth())
			assert.Equal(t, tt.printed, n.String())
			assert.Equal(t, len(tt.flat), n.Count())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in     string
		offset int
	}{
		{"", 0},
		{"[0,1", 4},
		{"[0;1]", 2},
		{"[a]", 1},
		{"[0]]", 3},
		{"[0,]", 3},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.offset, se.Offset)
		})
	}
}

func TestFromFlatRoundTrip(t *testing.T) {
	n := FromFlat([]int{4, 2, 7})
	back, err := Parse(n.String())
	require.NoError(t, err)
	assert.Equal(t, n, back)
}

func TestNodeJSONUsesBracketNotation(t *testing.T) {
	type wrapper struct {
		Seq Node `json:"seq"`
	}
	n, err := Parse("[[0,1],2]")
	require.NoError(t, err)

	b, err := json.Marshal(wrapper{Seq: n})
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":"[[0,1],2]"}`, string(b))

	var back wrapper
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []int{0, 1, 2}, back.Seq.Flatten())

	assert.Error(t, json.Unmarshal([]byte(`{"seq":"[1,"}`), &back))
}
