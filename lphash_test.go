package lphash_test

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lphash-go/lphash"
	"github.com/lphash-go/lphash/minimizer"
	"github.com/lphash-go/lphash/mphf"
)

func TestBuildIndexEndToEndIsBijective(t *testing.T) {
	tmp, err := os.MkdirTemp("", "lphash-test-")
	require.NoError(t, err)
	defer os.RemoveAll(tmp) // nolint: errcheck

	contigs := []string{
		"ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCGGGTACCATGGAT",
		"TTTTACGGGGCATCGATCGATCGGGATCCATGGCATGCATGCATGCTTAGC",
		"GGGGCCCCAAAATTTTACGTACGTGGCCAATTCCGGAATTCCGGTTAACCG",
	}
	opts := lphash.DefaultOpts
	opts.K = 9
	opts.M = 5
	opts.TmpDir = tmp
	opts.SortMemoryBudgetBytes = 64 // force spilling multiple runs.

	result, err := lphash.BuildIndex(context.Background(), opts, contigs)
	require.NoError(t, err)
	require.NoError(t, mphf.CheckBijective(result.Index, contigs))
}

func TestBuildIndexProducesNonEmptyHistogramWhenCollisionsExist(t *testing.T) {
	tmp, err := os.MkdirTemp("", "lphash-test-")
	require.NoError(t, err)
	defer os.RemoveAll(tmp) // nolint: errcheck

	// A long, low-complexity contig gives the same minimizer many chances
	// to repeat across widely separated positions.
	contig := "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT"
	opts := lphash.DefaultOpts
	opts.K = 9
	opts.M = 5
	opts.TmpDir = tmp

	result, err := lphash.BuildIndex(context.Background(), opts, []string{contig})
	require.NoError(t, err)
	require.NotEmpty(t, result.Histogram)
	require.NoError(t, mphf.CheckBijective(result.Index, []string{contig}))
}

func TestExtractAllCoversEveryKmerAcrossContigs(t *testing.T) {
	contigs := []string{
		"ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCGGGTACCATGGAT",
		"TTTTACGGGGCATCGATCGATCGGGATCCATGGCATGCATGCATGCTTAGC",
	}
	opts := lphash.DefaultOpts
	opts.K = 9
	opts.M = 5
	opts.Parallelism = 3

	var mu sync.Mutex
	var recs []minimizer.SuperKmerRecord
	sink := minimizer.SinkFunc(func(rec minimizer.SuperKmerRecord) error {
		mu.Lock()
		defer mu.Unlock()
		recs = append(recs, rec)
		return nil
	})
	n, err := lphash.ExtractAll(opts, contigs, sink)
	require.NoError(t, err)

	var want, totalMMers uint64
	for _, c := range contigs {
		want += uint64(len(c) - opts.K + 1)
		totalMMers += uint64(len(c) - opts.M + 1)
	}
	require.Equal(t, want, n)

	ids := make([]uint64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	// An id is drawn for every m-mer, but only minimizer m-mers become
	// records: ids are distinct and lie below the total m-mer count.
	for i := range ids {
		require.Less(t, ids[i], totalMMers)
		if i > 0 {
			require.Greater(t, ids[i], ids[i-1])
		}
	}
}
