package lphash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lphash-go/lphash"
)

func TestDefaultOptsAreInternallyConsistent(t *testing.T) {
	o := lphash.DefaultOpts
	require.Greater(t, o.K, 0)
	require.Greater(t, o.M, 0)
	require.LessOrEqual(t, o.M, o.K)
	require.LessOrEqual(t, 2*o.M, 64)
	require.NotNil(t, o.Hasher)
	require.Greater(t, o.MPHFGamma, 0.0)
	require.Greater(t, o.Parallelism, 0)
}
