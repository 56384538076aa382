package mphf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lphash-go/lphash/mphf"
)

func sampleTags() []mphf.Category {
	return []mphf.Category{
		mphf.Left, mphf.Maximal, mphf.Left, mphf.None, mphf.RightOrCollision,
		mphf.Maximal, mphf.Maximal, mphf.None, mphf.Left, mphf.RightOrCollision,
	}
}

func TestRankStructureTypeAndRank(t *testing.T) {
	tags := sampleTags()
	rs := mphf.BuildRankStructure(tags)
	require.Equal(t, len(tags), rs.Len())

	counts := map[mphf.Category]uint64{}
	for i, want := range tags {
		c, rank := rs.TypeAndRank(i)
		require.Equal(t, want, c)
		require.Equal(t, counts[want], rank)
		counts[want]++
	}
}

func TestRankStructureCountOfType(t *testing.T) {
	tags := sampleTags()
	rs := mphf.BuildRankStructure(tags)
	var want [4]uint64
	for _, c := range tags {
		want[c]++
	}
	require.Equal(t, want[mphf.Left], rs.CountOfType(mphf.Left))
	require.Equal(t, want[mphf.Maximal], rs.CountOfType(mphf.Maximal))
	require.Equal(t, want[mphf.None], rs.CountOfType(mphf.None))
	require.Equal(t, want[mphf.RightOrCollision], rs.CountOfType(mphf.RightOrCollision))
}

func TestRankStructureAcrossBlockBoundary(t *testing.T) {
	// Exercise more than one internal block (block size is an
	// implementation constant, not exported; use a generous entry count).
	n := 500
	tags := make([]mphf.Category, n)
	for i := range tags {
		tags[i] = mphf.Category(i % 4)
	}
	rs := mphf.BuildRankStructure(tags)
	var counts [4]uint64
	for i, want := range tags {
		c, rank := rs.TypeAndRank(i)
		require.Equal(t, want, c)
		require.Equal(t, counts[want], rank)
		counts[want]++
	}
}

func TestRankStructureRoundTrip(t *testing.T) {
	tags := sampleTags()
	rs := mphf.BuildRankStructure(tags)
	blob, err := rs.MarshalBinary()
	require.NoError(t, err)

	reloaded, err := mphf.UnmarshalRankStructure(blob)
	require.NoError(t, err)
	require.Equal(t, rs.Len(), reloaded.Len())
	for i, want := range tags {
		c, rank := reloaded.TypeAndRank(i)
		require.Equal(t, want, c)
		wantC, wantRank := rs.TypeAndRank(i)
		require.Equal(t, wantC, c)
		require.Equal(t, wantRank, rank)
	}
}
