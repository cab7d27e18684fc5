package value_test

import (
	"testing"

	"github.com/mna/dynexec/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentical(t *testing.T) {
	assert.True(t, value.Identical(value.Nil, value.Nil))
	assert.True(t, value.Identical(value.Integer(3), value.Integer(3)))
	assert.False(t, value.Identical(value.Integer(3), value.Integer(4)))
	assert.False(t, value.Identical(value.Nil, value.Unbound))

	s1 := value.NewString("abc")
	s2 := value.NewString("abc")
	assert.True(t, value.Identical(s1, s1))
	assert.False(t, value.Identical(s1, s2), "distinct string objects are not eq despite equal content")
}

func TestInternIsUnique(t *testing.T) {
	a := value.Intern("foo")
	b := value.Intern("foo")
	require.Same(t, a, b)
	assert.True(t, value.IsUnbound(a.Value))
}

func TestListRoundTrip(t *testing.T) {
	l := value.List(value.Integer(1), value.Integer(2), value.Integer(3))
	got := value.ListToSlice(l)
	require.Len(t, got, 3)
	assert.Equal(t, value.Integer(2), got[1])
}

func TestUnboundDistinctFromNil(t *testing.T) {
	assert.NotEqual(t, value.Nil.Type(), value.Unbound.Type())
	assert.True(t, value.IsUnbound(value.Unbound))
	assert.False(t, value.IsUnbound(value.Nil))
}
