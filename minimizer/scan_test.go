package minimizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lphash-go/lphash/minimizer"
)

func collectRecords(t *testing.T, contig string, k, m int) ([]minimizer.SuperKmerRecord, uint64) {
	t.Helper()
	var recs []minimizer.SuperKmerRecord
	sink := minimizer.SinkFunc(func(rec minimizer.SuperKmerRecord) error {
		recs = append(recs, rec)
		return nil
	})
	n, err := minimizer.ScanContig(contig, k, m, 42, true, minimizer.FarmHasher{}, &minimizer.SerialCounter{}, sink)
	require.NoError(t, err)
	return recs, n
}

func TestScanContigSizesSumToKmerCount(t *testing.T) {
	contig := "ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCG"
	k, m := 9, 5
	recs, n := collectRecords(t, contig, k, m)
	require.NotEmpty(t, recs)

	var sum uint64
	for _, r := range recs {
		require.GreaterOrEqual(t, r.Size, uint32(1))
		require.LessOrEqual(t, r.Size, uint32(k-m+1))
		require.LessOrEqual(t, r.P1, uint32(k-m))
		sum += uint64(r.Size)
	}
	require.Equal(t, n, sum)
	require.Equal(t, uint64(len(contig)-k+1), n)
}

func TestScanContigIDsAreUniqueAndAscending(t *testing.T) {
	contig := "ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCG"
	recs, _ := collectRecords(t, contig, 9, 5)
	var last uint64
	seen := map[uint64]bool{}
	for i, r := range recs {
		require.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
		if i > 0 {
			require.Greater(t, r.ID, last)
		}
		last = r.ID
	}
}

func TestScanContigBreakSplitsSuperKmers(t *testing.T) {
	// N splits the contig into two independently-scanned halves.
	contig := "ACGTACGGTTNACGGATCGATCGATTACGGCATCG"
	k, m := 9, 5
	recs, n := collectRecords(t, contig, k, m)

	left := "ACGTACGGTT"
	right := "ACGGATCGATCGATTACGGCATCG"
	_, nLeft := collectRecords(t, left, k, m)
	_, nRight := collectRecords(t, right, k, m)
	require.Equal(t, nLeft+nRight, n)
	require.NotEmpty(t, recs)
}

func TestScanContigSingleKmerContig(t *testing.T) {
	k, m := 7, 4
	contig := "ACGTACG" // exactly k bases: one k-mer, one super-k-mer.
	recs, n := collectRecords(t, contig, k, m)
	require.Equal(t, uint64(1), n)
	require.Len(t, recs, 1)
	require.Equal(t, uint32(1), recs[0].Size)
}

func TestScanContigRejectsMGreaterThanK(t *testing.T) {
	sink := minimizer.SinkFunc(func(minimizer.SuperKmerRecord) error { return nil })
	_, err := minimizer.ScanContig("ACGT", 3, 5, 0, true, minimizer.FarmHasher{}, &minimizer.SerialCounter{}, sink)
	require.Error(t, err)
}

func TestScanContigTooShortContigEmitsNothing(t *testing.T) {
	recs, n := collectRecords(t, "ACG", 9, 5)
	require.Equal(t, uint64(0), n)
	require.Empty(t, recs)
}
