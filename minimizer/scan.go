package minimizer

import "github.com/lphash-go/lphash/seq"

// mmRecord is the teacher's "quartet" per-m-mer bookkeeping record: the
// packed m-mer value, its hash, the id assigned to this instance, and (once
// it is known to be the window minimum) the super-k-mer position and size
// it heads. Grounded on original_source/src/minimizer.hpp's mm_quartet_t.
type mmRecord struct {
	itself uint64
	hash   uint64
	id     uint64
	p1     uint32
	size   uint32
}

// ScanContig implements C3, the single-pass windowed minimizer scanner of
// spec.md §4.1. It slides a window of w = k-m+1 consecutive m-mers across
// contig, tracks the minimum-hash m-mer of each window with a circular
// buffer, and emits one SuperKmerRecord each time the window minimum
// changes (or the contig breaks on a non-ACGT byte). It returns the total
// number of valid k-mers scanned.
//
// Translated directly from original_source/src/minimizer.hpp's from_string:
// the circular buffer indexing, the p1/sks bookkeeping, and the two-phase
// "mark the old minimum dropped, then rescan the buffer for a brand new
// minimum" refresh are a line-for-line port of that function's control
// flow, per DESIGN.md's "p1 semantics" and "ScanContig" entries.
func ScanContig(contig string, k, m int, seed uint64, canonical bool, hasher Hasher, counter Counter, sink Sink) (uint64, error) {
	if m <= 0 || k < m {
		return 0, &ParamError{K: k, M: m}
	}
	w := k - m + 1
	shift := uint(2 * (m - 1))
	mask := seq.MMerMask(m)

	var mm [2]uint64
	var nbasesSinceBreak uint64
	var sks, p1 uint32
	var kmerCount uint64
	var z uint8
	findBrandNewMin := false

	buffer := make([]mmRecord, w)
	bufPos := 0
	minPos := w // w is the "unset" sentinel: no open super-k-mer.

	emit := func(rec mmRecord) error {
		return sink.Append(SuperKmerRecord{Minimizer: rec.itself, ID: rec.id, P1: rec.p1, Size: rec.size})
	}

	for i := 0; i < len(contig); i++ {
		base, ok := seq.EncodeBase(contig[i])
		if !ok {
			nbasesSinceBreak = 0
			if minPos < w {
				buffer[minPos].p1 = p1
				buffer[minPos].size = sks
				if err := emit(buffer[minPos]); err != nil {
					return 0, err
				}
			}
			sks = 0
			minPos = w
			bufPos = 0
			continue
		}

		comp, _ := seq.EncodeComplement(contig[i])
		mm[0] = ((mm[0] << 2) | uint64(base)) & mask
		mm[1] = (mm[1] >> 2) | (uint64(comp) << shift)
		if canonical {
			z = seq.SelectStrand(mm[0], mm[1], z)
		}
		nbasesSinceBreak++

		if nbasesSinceBreak < uint64(m) {
			continue
		}

		var current mmRecord
		current.itself = mm[z]
		current.hash = hasher.Hash(mm[z], seed)
		current.p1 = uint32(i) - uint32(m) + 1
		current.id = counter.Next()

		if nbasesSinceBreak == uint64(k) {
			kmerCount++
		}
		if nbasesSinceBreak == uint64(k+1) {
			minPos = 0
			for j := 1; j < w; j++ {
				if buffer[j].hash < buffer[minPos].hash {
					minPos = j
				}
			}
			p1 = uint32(minPos)
			sks = 1
		}
		if nbasesSinceBreak >= uint64(k+1) {
			if bufPos == minPos {
				buffer[minPos].p1 = p1
				buffer[minPos].size = sks
				if err := emit(buffer[minPos]); err != nil {
					return 0, err
				}
				sks = 0
				findBrandNewMin = true
			} else if current.hash < buffer[minPos].hash {
				buffer[minPos].p1 = p1
				buffer[minPos].size = sks
				if err := emit(buffer[minPos]); err != nil {
					return 0, err
				}
				sks = 0
				p1 = uint32(k - m)
				minPos = bufPos
			}
			sks++
			kmerCount++
		}

		buffer[bufPos] = current
		bufPos = (bufPos + 1) % w

		if findBrandNewMin {
			findBrandNewMin = false
			minPos = bufPos
			p1 = 0
			tmp := uint32(1)
			for j := (bufPos + 1) % w; j < w; j, tmp = j+1, tmp+1 {
				if buffer[j].hash < buffer[minPos].hash {
					minPos = j
					p1 = tmp
				}
			}
			for j := 0; j <= bufPos; j, tmp = j+1, tmp+1 {
				if buffer[j].hash < buffer[minPos].hash {
					minPos = j
					p1 = tmp
				}
			}
		}
	}

	if nbasesSinceBreak == uint64(k) {
		minPos = 0
		for j := 1; j < w; j++ {
			if buffer[j].hash < buffer[minPos].hash {
				minPos = j
			}
		}
		p1 = uint32(minPos)
		sks = 1
	}
	if minPos < w {
		buffer[minPos].p1 = p1
		buffer[minPos].size = sks
		if err := emit(buffer[minPos]); err != nil {
			return 0, err
		}
	}
	return kmerCount, nil
}
