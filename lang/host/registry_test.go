package host_test

import (
	"testing"

	"github.com/mna/dynexec/lang/host"
	"github.com/mna/dynexec/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, r *host.Registry, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	fn, ok := r.Lookup(name)
	require.True(t, ok, "primitive %q not registered", name)
	return fn(args)
}

func TestRegistryConsCarCdr(t *testing.T) {
	r := host.NewRegistry()
	pair, err := call(t, r, "cons", value.NewInteger(1), value.NewInteger(2))
	require.NoError(t, err)

	car, err := call(t, r, "car", pair)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(1), car)

	cdr, err := call(t, r, "cdr", pair)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(2), cdr)
}

func TestRegistryArithmetic(t *testing.T) {
	r := host.NewRegistry()

	sum, err := call(t, r, "+", value.NewInteger(1), value.NewInteger(2), value.NewInteger(3))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(6), sum)

	prod, err := call(t, r, "*", value.NewInteger(2), value.NewInteger(3), value.NewInteger(4))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(24), prod)

	neg, err := call(t, r, "-", value.NewInteger(5))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(-5), neg)

	diff, err := call(t, r, "-", value.NewInteger(10), value.NewInteger(3), value.NewInteger(2))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(5), diff)

	quot, err := call(t, r, "/", value.NewInteger(10), value.NewInteger(2))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(5), quot)

	inc, err := call(t, r, "1+", value.NewInteger(41))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(42), inc)

	dec, err := call(t, r, "1-", value.NewInteger(43))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(42), dec)

	mixed, err := call(t, r, "+", value.NewInteger(1), value.Float(0.5))
	require.NoError(t, err)
	assert.Equal(t, value.Float(1.5), mixed)
}

func TestRegistryComparisonChains(t *testing.T) {
	r := host.NewRegistry()

	res, err := call(t, r, "<", value.NewInteger(1), value.NewInteger(2), value.NewInteger(3))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), res)

	res, err = call(t, r, "<", value.NewInteger(1), value.NewInteger(3), value.NewInteger(2))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(false), res)

	res, err = call(t, r, "=", value.NewInteger(2), value.NewInteger(2), value.NewInteger(2))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), res)
}

func TestRegistryNullAndNot(t *testing.T) {
	r := host.NewRegistry()

	res, err := call(t, r, "null", value.Nil)
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), res)

	res, err = call(t, r, "null", value.NewInteger(0))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(false), res)
}

func TestRegistryHashTablePutGet(t *testing.T) {
	r := host.NewRegistry()

	ht, err := call(t, r, "make-hash-table")
	require.NoError(t, err)
	require.True(t, value.IsHashTable(ht))

	key := value.Intern("dynexec-test-key")
	_, err = call(t, r, "puthash", key, value.NewInteger(7), ht)
	require.NoError(t, err)

	got, err := call(t, r, "gethash", key, ht)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(7), got)

	miss, err := call(t, r, "gethash", value.Intern("dynexec-test-missing"), ht, value.NewInteger(-1))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(-1), miss)
}

func TestRegistryThrowPanicsWithSignal(t *testing.T) {
	r := host.NewRegistry()
	tag := value.Intern("dynexec-test-registry-tag")

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		_, _ = call(t, r, "throw", tag, value.NewInteger(9))
	}()

	sig, ok := host.Recover(recovered)
	require.True(t, ok)
	assert.Same(t, tag, sig.Tag)
	assert.Equal(t, value.NewInteger(9), sig.Value)
}
