package minimizer

import "github.com/lphash-go/lphash/seq"

// mmHashID is the reduced per-m-mer bookkeeping record needed for the
// second pass: unlike ScanContig's mmRecord, the collector never emits a
// SuperKmerRecord, so it only needs the hash (to track the window minimum)
// and the id (to test against the sorted colliding-id stream).
type mmHashID struct {
	hash uint64
	id   uint64
}

// CollectCollidingKmers implements C11, spec.md §4.6's second pass: it
// re-derives the same minimizer-window decomposition ScanContig produced,
// and for every super-k-mer whose minimizer id is in the (ascending-sorted)
// colliding-id stream ids, appends that super-k-mer's k-mers to sink and
// records one histogram observation at its size. ids and the scan must use
// identical (k, m, seed, canonical, hasher) to what produced the original
// ids, or the id comparison is meaningless.
//
// Grounded directly on original_source/src/minimizer.hpp's
// get_colliding_kmers: the window/minimum bookkeeping is the same
// translation as ScanContig, generalized with a parallel k-mer (not just
// m-mer) buffer that accumulates the super-k-mer's k-mer values until the
// super-k-mer closes, at which point it is flushed to sink only if its
// minimizer id matches the next id in ids.
func CollectCollidingKmers(contig string, k, m int, seed uint64, canonical bool, hasher Hasher, counter Counter, ids IDIterator, sink KmerSink, histogram map[uint32]uint64) error {
	if m <= 0 || k < m {
		return &ParamError{K: k, M: m}
	}
	w := k - m + 1
	mmShift := uint(2 * (m - 1))
	mmMask := seq.MMerMask(m)
	kmMask := seq.WideMask(k)

	var mm [2]uint64
	var km [2]seq.Wide
	var nbasesSinceBreak uint64
	var sks uint32
	var z uint8
	findBrandNewMin := false

	mmBuffer := make([]mmHashID, w)
	mmBufPos := 0
	minPos := w
	var kmBuffer []seq.Wide

	flush := func() error {
		if pid, ok := ids.Peek(); ok && pid == mmBuffer[minPos].id {
			for _, km := range kmBuffer {
				if err := sink.Append(km); err != nil {
					return err
				}
			}
			if histogram != nil {
				histogram[uint32(len(kmBuffer))]++
			}
			ids.Advance()
		}
		kmBuffer = kmBuffer[:0]
		return nil
	}

	for i := 0; i < len(contig); i++ {
		base, ok := seq.EncodeBase(contig[i])
		if !ok {
			nbasesSinceBreak = 0
			if minPos < w {
				if err := flush(); err != nil {
					return err
				}
			}
			minPos = w
			sks = 0
			mmBufPos = 0
			continue
		}

		comp, _ := seq.EncodeComplement(contig[i])
		mm[0] = ((mm[0] << 2) | uint64(base)) & mmMask
		mm[1] = (mm[1] >> 2) | (uint64(comp) << mmShift)
		km[0] = km[0].ShiftLeft2AndMask(base, kmMask)
		km[1] = km[1].ShiftRight2AndSet(comp, k)
		if canonical {
			z = seq.SelectStrand(mm[0], mm[1], z)
		}
		nbasesSinceBreak++

		if nbasesSinceBreak < uint64(m) {
			continue
		}

		var current mmHashID
		current.hash = hasher.Hash(mm[z], seed)
		current.id = counter.Next()

		if nbasesSinceBreak == uint64(k+1) {
			minPos = 0
			for j := 1; j < w; j++ {
				if mmBuffer[j].hash < mmBuffer[minPos].hash {
					minPos = j
				}
			}
			sks = 1
		}
		if nbasesSinceBreak >= uint64(k+1) {
			if mmBufPos == minPos {
				if err := flush(); err != nil {
					return err
				}
				sks = 0
				findBrandNewMin = true
			} else if current.hash < mmBuffer[minPos].hash {
				if err := flush(); err != nil {
					return err
				}
				sks = 0
				minPos = mmBufPos
			}
			sks++
		}

		mmBuffer[mmBufPos] = current
		mmBufPos = (mmBufPos + 1) % w

		if nbasesSinceBreak >= uint64(k) {
			kmBuffer = append(kmBuffer, km[z])
		}

		if findBrandNewMin {
			findBrandNewMin = false
			minPos = mmBufPos
			for j := (mmBufPos + 1) % w; j < w; j++ {
				if mmBuffer[j].hash < mmBuffer[minPos].hash {
					minPos = j
				}
			}
			for j := 0; j <= mmBufPos; j++ {
				if mmBuffer[j].hash < mmBuffer[minPos].hash {
					minPos = j
				}
			}
		}
	}

	if nbasesSinceBreak == uint64(k) {
		minPos = 0
		for j := 1; j < w; j++ {
			if mmBuffer[j].hash < mmBuffer[minPos].hash {
				minPos = j
			}
		}
		sks = 1
	}
	if minPos < w {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}
