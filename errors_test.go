package lphash_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lphash-go/lphash"
	"github.com/lphash-go/lphash/minimizer"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "ConfigurationError", lphash.ConfigurationError.String())
	require.Equal(t, "InputError", lphash.InputError.String())
	require.Equal(t, "ResourceError", lphash.ResourceError.String())
	require.Equal(t, "InternalInvariantViolation", lphash.InternalInvariantViolation.String())
	require.Equal(t, "QueryError", lphash.QueryError.String())
}

func TestBuildIndexRejectsBadK(t *testing.T) {
	_, err := lphash.BuildIndex(context.Background(), lphash.Opts{K: 0, M: 1}, nil)
	require.Error(t, err)
	var lerr *lphash.Error
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, lphash.ConfigurationError, lerr.Kind)
}

func TestBuildIndexRejectsMGreaterThanK(t *testing.T) {
	_, err := lphash.BuildIndex(context.Background(), lphash.Opts{K: 5, M: 9}, nil)
	require.Error(t, err)
	var lerr *lphash.Error
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, lphash.ConfigurationError, lerr.Kind)
}

func TestBuildIndexRequiresTmpDir(t *testing.T) {
	opts := lphash.DefaultOpts
	opts.TmpDir = ""
	_, err := lphash.BuildIndex(context.Background(), opts, []string{"ACGT"})
	require.Error(t, err)
	var lerr *lphash.Error
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, lphash.ConfigurationError, lerr.Kind)
}

func TestExtractAllRejectsZeroParallelism(t *testing.T) {
	opts := lphash.DefaultOpts
	opts.Parallelism = 0
	noop := minimizer.SinkFunc(func(minimizer.SuperKmerRecord) error { return nil })
	_, err := lphash.ExtractAll(opts, []string{"ACGT"}, noop)
	require.Error(t, err)
}
