package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("b", "a")
	s.Add("c")
	assert.True(t, s.Has("a"))
	s.Delete("a")
	assert.False(t, s.Has("a"))
	assert.Equal(t, []string{"b", "c"}, Sorted(s))
}
