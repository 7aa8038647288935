package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Toggle(t *testing.T) {
	s := New()

	assert.True(t, s.Toggle("pkg.alpha"))
	assert.True(t, s.Contains("pkg.alpha"))
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.Toggle("pkg.alpha"))
	assert.False(t, s.Contains("pkg.alpha"))
	assert.Equal(t, 0, s.Len())
}

func TestSet_MembersKeepsInsertionOrder(t *testing.T) {
	s := New()
	s.Toggle("c")
	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("a") // deselect
	s.Toggle("d")
	s.Add("c") // already present, position kept

	assert.Equal(t, []string{"c", "b", "d"}, s.Members())
	assert.True(t, s.Contains("b"))
	assert.True(t, s.Contains("d"))
}

func TestSet_MembersIsSnapshot(t *testing.T) {
	s := New()
	s.Toggle("a")

	m := s.Members()
	s.Toggle("b")

	assert.Equal(t, []string{"a"}, m)
}

func TestSet_Clear(t *testing.T) {
	s := New()
	s.Toggle("a")
	s.Toggle("b")

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("a"))
	assert.Empty(t, s.Members())

	s.Toggle("b")
	assert.Equal(t, []string{"b"}, s.Members())
}

func TestSet_ZeroValueUsable(t *testing.T) {
	var s Set
	assert.False(t, s.Contains("x"))
	s.Add("x")
	assert.True(t, s.Contains("x"))
}

func TestSet_NoInventoryValidation(t *testing.T) {
	s := New()
	assert.True(t, s.Toggle("com.never.installed"))
	assert.True(t, s.Contains("com.never.installed"))
}
