package ngram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipFilter(t *testing.T) {
	f := NewMembershipFilter[string](1000, 0.001)
	f.Add([]string{"a", "b"}, 0)
	f.Add([]string{"a", "c"}, 1)

	assert.True(t, f.MayContain([]string{"a", "b"}, 0))
	assert.True(t, f.MayContain([]string{"a", "c"}, 1))

	misses := 0
	for _, probe := range [][]string{{"x", "y"}, {"b", "a"}, {"q"}, {"a", "b", "c"}} {
		if !f.MayContain(probe, 0) {
			misses++
		}
	}
	// false positives are possible but not for all probes at this rate
	assert.Positive(t, misses)
	assert.NotZero(t, f.ApproximatedSize())
}

func TestMembershipFilterDefaults(t *testing.T) {
	f := NewMembershipFilter[int](0, 2)
	f.Add([]int{1, 2, 3}, 2)
	assert.True(t, f.MayContain([]int{1, 2, 3}, 2))
}
