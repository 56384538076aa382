package mphf_test

import (
	"sort"
	"testing"

	"github.com/opencoff/go-bbhash"
	"github.com/stretchr/testify/require"

	"github.com/lphash-go/lphash/classify"
	"github.com/lphash-go/lphash/minimizer"
	"github.com/lphash-go/lphash/mphf"
	"github.com/lphash-go/lphash/seq"
)

// buildTestIndex runs the same extract -> classify -> collect -> build
// pipeline lphash.BuildIndex runs, entirely in memory (no external sort),
// so the mphf package's tests don't need to depend on sortedvector or the
// root package.
func buildTestIndex(t *testing.T, contigs []string, k, m int) *mphf.Index {
	t.Helper()
	const seed = 42
	hasher := minimizer.FarmHasher{}

	var all []minimizer.SuperKmerRecord
	bases := make([]uint64, len(contigs))
	var idsIssued uint64
	for i, contig := range contigs {
		bases[i] = idsIssued
		counter := &minimizer.RangeCounter{Base: idsIssued}
		sink := minimizer.SinkFunc(func(rec minimizer.SuperKmerRecord) error {
			all = append(all, rec)
			return nil
		})
		_, err := minimizer.ScanContig(contig, k, m, seed, true, hasher, counter, sink)
		require.NoError(t, err)
		idsIssued += counter.Issued()
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Minimizer < all[j].Minimizer })

	iter := &sliceRecordIterator{recs: all}
	var unique []classify.Record
	var collidingIDs []uint64
	uniqueSink := classify.UniqueSinkFunc(func(rec classify.Record) error {
		unique = append(unique, rec)
		return nil
	})
	collidingSink := classify.CollidingIDSinkFunc(func(id uint64) error {
		collidingIDs = append(collidingIDs, id)
		return nil
	})
	require.NoError(t, classify.Classify(iter, uniqueSink, collidingSink))
	sort.Slice(collidingIDs, func(i, j int) bool { return collidingIDs[i] < collidingIDs[j] })

	var fallbackKeys []uint64
	histogram := make(map[uint32]uint64)
	cursor := &sliceIDIterator{ids: collidingIDs}
	foldingSink := minimizer.KmerSinkFunc(func(km seq.Wide) error {
		fallbackKeys = append(fallbackKeys, mphf.FoldKmer(km, hasher, seed))
		return nil
	})
	for i, contig := range contigs {
		counter := &minimizer.RangeCounter{Base: bases[i]}
		err := minimizer.CollectCollidingKmers(contig, k, m, seed, true, hasher, counter, cursor, foldingSink, histogram)
		require.NoError(t, err)
	}

	var nKmers uint64
	for _, contig := range contigs {
		if len(contig) >= k {
			nKmers += uint64(len(contig) - k + 1)
		}
	}

	built, err := mphf.Build(mphf.BuildParams{
		K: k, M: m, Seed: seed, Canonical: true, Hasher: hasher,
		NKmers: nKmers, Gamma: bbhash.Gamma, Concurrent: false,
	}, unique, fallbackKeys)
	require.NoError(t, err)
	return built
}

type sliceRecordIterator struct {
	recs []minimizer.SuperKmerRecord
	pos  int
}

func (it *sliceRecordIterator) Next() (minimizer.SuperKmerRecord, bool) {
	if it.pos >= len(it.recs) {
		return minimizer.SuperKmerRecord{}, false
	}
	r := it.recs[it.pos]
	it.pos++
	return r, true
}

type sliceIDIterator struct {
	ids []uint64
	pos int
}

func (it *sliceIDIterator) Peek() (uint64, bool) {
	if it.pos >= len(it.ids) {
		return 0, false
	}
	return it.ids[it.pos], true
}

func (it *sliceIDIterator) Advance() {
	if it.pos < len(it.ids) {
		it.pos++
	}
}

func TestBuildIndexIsBijective(t *testing.T) {
	contigs := []string{
		"ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCGGGTACCATGGAT",
		"TTTTACGGGGCATCGATCGATCGGGATCCATGGCATGCATGCATGCTTAGC",
	}
	k, m := 9, 5
	idx := buildTestIndex(t, contigs, k, m)
	require.NoError(t, mphf.CheckBijective(idx, contigs))
}

func TestIndexEvaluateMatchesDumbEvaluate(t *testing.T) {
	contigs := []string{"ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCGGGTACCATGGAT"}
	k, m := 9, 5
	idx := buildTestIndex(t, contigs, k, m)
	require.NoError(t, mphf.CheckStreamingConsistency(idx, contigs[0]))
}

func TestIndexQueryUnknownMinimizer(t *testing.T) {
	contigs := []string{"ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCGGGTACCATGGAT"}
	k, m := 9, 5
	idx := buildTestIndex(t, contigs, k, m)
	_, err := idx.Query(0xffffffffffffffff, seq.Wide{}, 0)
	require.Error(t, err)
}

func TestIndexMarshalRoundTripPreservesQueries(t *testing.T) {
	contigs := []string{
		"ACGTACGGTTCAGTTACGGATCGATCGATTACGGCATCGGGTACCATGGAT",
		"TTTTACGGGGCATCGATCGATCGGGATCCATGGCATGCATGCATGCTTAGC",
	}
	k, m := 9, 5
	idx := buildTestIndex(t, contigs, k, m)

	before := make([][]uint64, len(contigs))
	for i, c := range contigs {
		hashes, err := idx.DumbEvaluate(c)
		require.NoError(t, err)
		before[i] = hashes
	}

	blob, err := idx.MarshalBinary()
	require.NoError(t, err)
	reloaded, err := mphf.UnmarshalIndex(blob)
	require.NoError(t, err)

	for i, c := range contigs {
		after, err := reloaded.DumbEvaluate(c)
		require.NoError(t, err)
		require.Equal(t, before[i], after)
	}
	require.NoError(t, mphf.CheckBijective(reloaded, contigs))
}

func TestFoldKmerIsDeterministic(t *testing.T) {
	hasher := minimizer.FarmHasher{}
	km := seq.Wide{Hi: 0x1234, Lo: 0x5678}
	a := mphf.FoldKmer(km, hasher, 7)
	b := mphf.FoldKmer(km, hasher, 7)
	require.Equal(t, a, b)
	c := mphf.FoldKmer(km, hasher, 8)
	require.NotEqual(t, a, c)
}
