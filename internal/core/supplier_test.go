package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestValueOf(t *testing.T) {
	s := ValueOf(cty.StringVal("x"))
	v, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "x", v.AsString())
	assert.Empty(t, s.Upstream())
}

func TestOfCallable(t *testing.T) {
	calls := 0
	s := OfCallable(func() (cty.Value, error) {
		calls++
		return cty.NumberIntVal(int64(calls)), nil
	})

	v, err := s.Get()
	require.NoError(t, err)
	n, _ := v.AsBigFloat().Int64()
	assert.Equal(t, int64(1), n)

	// Suppliers are recomputed on each read.
	v, err = s.Get()
	require.NoError(t, err)
	n, _ = v.AsBigFloat().Int64()
	assert.Equal(t, int64(2), n)
}

func TestMapSupplier(t *testing.T) {
	s := Map(ValueOf(cty.StringVal("a")), func(v cty.Value) (cty.Value, error) {
		return cty.StringVal(v.AsString() + "b"), nil
	})
	v, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "ab", v.AsString())

	boom := errors.New("boom")
	s = Map(OfCallable(func() (cty.Value, error) { return cty.NilVal, boom }), func(v cty.Value) (cty.Value, error) {
		t.Fatal("map fn must not run on error")
		return v, nil
	})
	_, err = s.Get()
	assert.ErrorIs(t, err, boom)
}

func TestOnce(t *testing.T) {
	calls := 0
	s := Once(OfCallable(func() (cty.Value, error) {
		calls++
		return cty.True, nil
	}))
	_, err := s.Get()
	require.NoError(t, err)
	_, err = s.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
