package mphf

import (
	"bytes"
	"encoding/gob"
)

// RankStructure implements C7, spec.md §2's "Category rank structure...
// black box" supporting type(i) and rank_of_type(i) over the tagged
// minimizer sequence produced by the category tagger.
//
// spec.md treats this as a black box; the original builds a templated
// 4-ary wavelet tree (quartet_wtree_builder). No four-symbol rank/select
// library appears anywhere in the retrieval pack (the example MPHF/bit-
// vector libraries are general-purpose, not 4-ary wavelet trees), so this
// is hand-built: two bits per entry packed into a []uint64, plus
// block-level running counts of each of the four categories, giving O(1)
// amortized TypeAndRank via a bounded in-block linear scan. This is the
// minimal structure the query engine needs, not a rediscovery of a
// general-purpose succinct library; see DESIGN.md's stdlib-justification
// entry for this component.
type RankStructure struct {
	n         int
	tags      []uint64 // 2 bits per entry, packed low-to-high within each word.
	blockSize int
	// blockCounts[b] holds, for each category, the count of occurrences
	// in tags[0 : b*blockSize).
	blockCounts [][4]uint64
}

const rankBlockSize = 64

// BuildRankStructure packs tags into a RankStructure.
func BuildRankStructure(tags []Category) *RankStructure {
	n := len(tags)
	rs := &RankStructure{
		n:         n,
		tags:      make([]uint64, (n+31)/32),
		blockSize: rankBlockSize,
	}
	nBlocks := n/rankBlockSize + 1
	rs.blockCounts = make([][4]uint64, nBlocks)

	var running [4]uint64
	for i, c := range tags {
		if i%rankBlockSize == 0 {
			rs.blockCounts[i/rankBlockSize] = running
		}
		rs.set(i, c)
		running[c]++
	}
	if n%rankBlockSize == 0 {
		rs.blockCounts[n/rankBlockSize] = running
	}
	return rs
}

func (rs *RankStructure) set(i int, c Category) {
	word := i / 32
	shift := uint(i%32) * 2
	rs.tags[word] |= uint64(c) << shift
}

// TypeAt returns the category stored at position i.
func (rs *RankStructure) TypeAt(i int) Category {
	word := i / 32
	shift := uint(i%32) * 2
	return Category((rs.tags[word] >> shift) & 3)
}

// TypeAndRank returns (type(i), rank_of_type(i)): the category at i, and
// the number of entries with that same category at positions [0, i).
func (rs *RankStructure) TypeAndRank(i int) (Category, uint64) {
	c := rs.TypeAt(i)
	block := i / rs.blockSize
	rank := rs.blockCounts[block][c]
	for j := block * rs.blockSize; j < i; j++ {
		if rs.TypeAt(j) == c {
			rank++
		}
	}
	return c, rank
}

// Len returns the number of tagged entries.
func (rs *RankStructure) Len() int { return rs.n }

// CountOfType returns the total number of entries with category c.
func (rs *RankStructure) CountOfType(c Category) uint64 {
	_, rank := rs.typeAndRankAt(rs.n, c)
	return rank
}

// rankStructureWire is the gob-serializable form of a RankStructure: its
// packed bits and running counts round-trip exactly, unlike KeyMPHF (see
// DESIGN.md), since RankStructure has no hidden internal state to
// reconstruct.
type rankStructureWire struct {
	N           int
	Tags        []uint64
	BlockSize   int
	BlockCounts [][4]uint64
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (rs *RankStructure) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	w := rankStructureWire{N: rs.n, Tags: rs.tags, BlockSize: rs.blockSize, BlockCounts: rs.blockCounts}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalRankStructure rebuilds a RankStructure from bytes produced by
// MarshalBinary.
func UnmarshalRankStructure(data []byte) (*RankStructure, error) {
	var w rankStructureWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, err
	}
	return &RankStructure{n: w.N, tags: w.Tags, blockSize: w.BlockSize, blockCounts: w.BlockCounts}, nil
}

// typeAndRankAt computes rank_of_type(n) as if position n held category c
// (used to total counts at the end of the sequence, where TypeAt(n) is out
// of bounds).
func (rs *RankStructure) typeAndRankAt(n int, c Category) (Category, uint64) {
	if n == 0 {
		return c, 0
	}
	block := n / rs.blockSize
	if block >= len(rs.blockCounts) {
		block = len(rs.blockCounts) - 1
	}
	rank := rs.blockCounts[block][c]
	for j := block * rs.blockSize; j < n; j++ {
		if rs.TypeAt(j) == c {
			rank++
		}
	}
	return c, rank
}
