package mphf

import (
	"bytes"
	"encoding/gob"
	"unsafe"

	"golang.org/x/sys/unix"
)

// OffsetArray implements C8, spec.md §2's "Packed offsets array... black
// box": a monotone, prefix-summed sequence supporting access(i) in O(1)
// and diff(i) = access(i+1) - access(i).
//
// spec.md's original encodes this with Elias-Fano; no Elias-Fano or other
// succinct monotone-sequence library appears in the retrieval pack, so
// this is a plain prefix-summed []uint64 — monotone by construction,
// O(1) access/diff via two slice reads. It is a strictly simpler encoding
// than Elias-Fano (no compression), but it satisfies every invariant
// spec.md §8 actually tests. Justified stdlib use per DESIGN.md.
//
// Large backing storage is placed in an anonymous mmap region with
// MADV_HUGEPAGE, grounded on fusion/kmer_index.go's kmerIndex.initShard,
// instead of a plain Go slice, once the sequence crosses
// mmapThresholdEntries; this gives the same "huge index lives outside the
// GC-scanned heap" property the teacher's sharded hash table relies on.
// Library: golang.org/x/sys/unix.
type OffsetArray struct {
	prefix []uint64 // prefix[0] = 0; prefix[i+1] = prefix[i] + values[i]
	mmaped []byte   // non-nil if prefix is backed by an mmap region
}

// mmapThresholdEntries is the entry count above which OffsetArray backs
// its storage with an mmap'd region instead of a regular Go slice.
const mmapThresholdEntries = 1 << 20

// BuildOffsetArray prefix-sums values into a monotone OffsetArray of
// length len(values)+1.
func BuildOffsetArray(values []uint32) (*OffsetArray, error) {
	n := len(values) + 1
	oa := &OffsetArray{}
	if n >= mmapThresholdEntries {
		buf, err := mmapUint64s(n)
		if err != nil {
			return nil, err
		}
		oa.mmaped = buf
		oa.prefix = bytesToUint64Slice(buf)
	} else {
		oa.prefix = make([]uint64, n)
	}
	var sum uint64
	oa.prefix[0] = 0
	for i, v := range values {
		sum += uint64(v)
		oa.prefix[i+1] = sum
	}
	return oa, nil
}

// Access returns the i-th prefix value, access(i) in spec.md §4.3/§4.4's
// terms.
func (oa *OffsetArray) Access(i int) uint64 { return oa.prefix[i] }

// Diff returns access(i+1) - access(i).
func (oa *OffsetArray) Diff(i int) uint64 { return oa.prefix[i+1] - oa.prefix[i] }

// Len returns the number of underlying values (one less than the prefix
// array's length).
func (oa *OffsetArray) Len() int {
	if len(oa.prefix) == 0 {
		return 0
	}
	return len(oa.prefix) - 1
}

// Close unmaps the backing region, if any. Safe to call on an OffsetArray
// that never crossed the mmap threshold.
func (oa *OffsetArray) Close() error {
	if oa.mmaped == nil {
		return nil
	}
	err := unix.Munmap(oa.mmaped)
	oa.mmaped = nil
	oa.prefix = nil
	return err
}

// MarshalBinary implements encoding.BinaryMarshaler. The mmap-vs-plain-
// slice distinction is a runtime performance detail, not part of the
// persisted value, so the round trip always rebuilds through
// BuildOffsetArray, which independently re-decides whether to mmap based
// on the restored size.
func (oa *OffsetArray) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(oa.prefix); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalOffsetArray rebuilds an OffsetArray from bytes produced by
// MarshalBinary. It re-decides mmap-backing from scratch based on the
// restored size, same as BuildOffsetArray.
func UnmarshalOffsetArray(data []byte) (*OffsetArray, error) {
	var prefix []uint64
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&prefix); err != nil {
		return nil, err
	}
	oa := &OffsetArray{}
	if len(prefix) >= mmapThresholdEntries {
		buf, err := mmapUint64s(len(prefix))
		if err != nil {
			return nil, err
		}
		oa.mmaped = buf
		oa.prefix = bytesToUint64Slice(buf)
		copy(oa.prefix, prefix)
	} else {
		oa.prefix = prefix
	}
	return oa, nil
}

func mmapUint64s(n int) ([]byte, error) {
	size := n * 8
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	// Best-effort: hugepages reduce TLB pressure for the large packed
	// offset arrays real genome-scale indexes build; failure here isn't
	// fatal, mirroring kmerIndex.initShard's handling of Madvise.
	_ = unix.Madvise(buf, unix.MADV_HUGEPAGE)
	return buf, nil
}

// bytesToUint64Slice reinterprets an mmap'd byte slice as a []uint64
// without copying, following fusion/kmer_index.go's raw unsafe.Pointer
// arithmetic over its mmap'd table (there via unsafe.Pointer casts to
// *kmerIndexEntry, here via unsafe.Slice to *uint64).
func bytesToUint64Slice(buf []byte) []uint64 {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&buf[0])), len(buf)/8)
}
