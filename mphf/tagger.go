package mphf

import (
	"bytes"
	"encoding/gob"

	"github.com/lphash-go/lphash/classify"
)

// TaggedIndex is C6's output: the tag sequence (wrapped in a RankStructure,
// C7) plus the four concatenated, prefix-summed offset sub-arrays (wrapped
// in an OffsetArray, C8) and the three section-start offsets spec.md
// §4.3 defines.
type TaggedIndex struct {
	Tags    *RankStructure
	Offsets *OffsetArray

	RightCollStart int
	NoneSizesStart int
	NonePosStart   int
	NMaximal       uint64
}

// BuildCategoryIndex implements C6. unique must already be ordered by
// MPHF_minimizer(minimizer) ascending (spec.md §4.3's precondition: "sorted
// by the minimizer MPHF's image").
//
// Grounded on original_source/src/mphf.cpp's build_inverted_index: the
// same four-way split into left_positions/right_or_collision_sizes/
// none_sizes/none_positions, and the same
// right_coll_sizes_start/none_sizes_start/none_pos_start three-way
// concatenation layout.
func BuildCategoryIndex(unique []classify.Record, k, m int) (*TaggedIndex, error) {
	tags := make([]Category, len(unique))
	var leftPositions, rightOrCollisionSizes, noneSizes, nonePositions []uint32
	var nMaximal uint64

	for i, r := range unique {
		c := DeriveCategory(r.P1, r.Size, k, m)
		tags[i] = c
		switch c {
		case Maximal:
			nMaximal++
		case Left:
			leftPositions = append(leftPositions, r.P1+1)
		case RightOrCollision:
			rightOrCollisionSizes = append(rightOrCollisionSizes, r.Size)
		case None:
			noneSizes = append(noneSizes, r.Size)
			nonePositions = append(nonePositions, r.P1)
		}
	}

	rightCollStart := len(leftPositions)
	noneSizesStart := rightCollStart + len(rightOrCollisionSizes)
	nonePosStart := noneSizesStart + len(noneSizes)

	concatenated := make([]uint32, 0, nonePosStart+len(nonePositions))
	concatenated = append(concatenated, leftPositions...)
	concatenated = append(concatenated, rightOrCollisionSizes...)
	concatenated = append(concatenated, noneSizes...)
	concatenated = append(concatenated, nonePositions...)

	offsets, err := BuildOffsetArray(concatenated)
	if err != nil {
		return nil, err
	}

	return &TaggedIndex{
		Tags:           BuildRankStructure(tags),
		Offsets:        offsets,
		RightCollStart: rightCollStart,
		NoneSizesStart: noneSizesStart,
		NonePosStart:   nonePosStart,
		NMaximal:       nMaximal,
	}, nil
}

// taggedIndexWire is the gob-serializable form of a TaggedIndex: Tags and
// Offsets are nested independently-marshaled blobs, following
// KeyMPHF.MarshalBinary's pattern of favoring each component's own
// MarshalBinary over one flattened struct.
type taggedIndexWire struct {
	Tags           []byte
	Offsets        []byte
	RightCollStart int
	NoneSizesStart int
	NonePosStart   int
	NMaximal       uint64
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (ti *TaggedIndex) MarshalBinary() ([]byte, error) {
	tagsBlob, err := ti.Tags.MarshalBinary()
	if err != nil {
		return nil, err
	}
	offsetsBlob, err := ti.Offsets.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := taggedIndexWire{
		Tags:           tagsBlob,
		Offsets:        offsetsBlob,
		RightCollStart: ti.RightCollStart,
		NoneSizesStart: ti.NoneSizesStart,
		NonePosStart:   ti.NonePosStart,
		NMaximal:       ti.NMaximal,
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalTaggedIndex rebuilds a TaggedIndex from bytes produced by
// MarshalBinary.
func UnmarshalTaggedIndex(data []byte) (*TaggedIndex, error) {
	var w taggedIndexWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, err
	}
	tags, err := UnmarshalRankStructure(w.Tags)
	if err != nil {
		return nil, err
	}
	offsets, err := UnmarshalOffsetArray(w.Offsets)
	if err != nil {
		return nil, err
	}
	return &TaggedIndex{
		Tags:           tags,
		Offsets:        offsets,
		RightCollStart: w.RightCollStart,
		NoneSizesStart: w.NoneSizesStart,
		NonePosStart:   w.NonePosStart,
		NMaximal:       w.NMaximal,
	}, nil
}
