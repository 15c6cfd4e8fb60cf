package ngram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionResolve(t *testing.T) {
	tests := []struct {
		name     string
		sel      Selection
		expected []int
	}{
		{"all", All(), []int{1, 2, 3}},
		{"zero value", Selection{}, []int{1, 2, 3}},
		{"only", Only(2), []int{2}},
		{"set", Set(3, 1, 3), []int{1, 3}},
		{"empty set", Set(), []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sel.resolve("order", 1, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSelectionResolveOutOfRange(t *testing.T) {
	for _, sel := range []Selection{Only(0), Only(4), Set(1, 5)} {
		_, err := sel.resolve("order", 1, 3)
		assert.ErrorIs(t, err, ErrInvalidArgument, sel.String())
	}
}

func TestSelectionString(t *testing.T) {
	assert.Equal(t, "all", All().String())
	assert.Equal(t, "only(2)", Only(2).String())
	assert.Equal(t, "set[1 2]", Set(1, 2).String())
	assert.True(t, Selection{}.IsAll())
	assert.False(t, Only(1).IsAll())
}
