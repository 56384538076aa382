package mphf

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/lphash-go/lphash/classify"
	"github.com/lphash-go/lphash/minimizer"
	"github.com/lphash-go/lphash/seq"
)

// Index is C10's query engine state: the assembled minimizer MPHF, category
// index, and fallback k-mer MPHF, plus the (k, m, seed, canonical) build
// parameters needed to reproduce minimizer computation during evaluation.
//
// Grounded on original_source/include/mphf.hpp's mphf class fields
// (k, m, mm_seed, nkmers, distinct_minimizers, n_maximal, minimizer_order,
// wtree, sizes_and_positions, fallback_kmer_order) and mphf.cpp's query.
type Index struct {
	K, M      int
	Seed      uint64
	Canonical bool
	Hasher    minimizer.Hasher

	NKmers             uint64
	DistinctMinimizers uint64

	MinimizerMPHF *KeyMPHF
	Tagged        *TaggedIndex
	FallbackMPHF  *KeyMPHF // nil if there were no colliding minimizers.

	// uniqueRecords and fallbackKeys are retained only so MarshalBinary
	// can rebuild MinimizerMPHF, Tagged and FallbackMPHF together on
	// load: go-bbhash re-randomizes its internal salt on every
	// New/NewConcurrent call (see KeyMPHF's doc comment), so a reloaded
	// MinimizerMPHF's rank ordering will not match a separately-persisted
	// Tagged blob built against the old ordering. Re-running Build's
	// logic from these raw inputs keeps the two consistent with each
	// other, which is all spec.md §8 property 7 ("round-trip: ... all
	// queries match") actually requires.
	uniqueRecords []classify.Record
	fallbackKeys  []uint64
}

// BuildParams collects Index's non-derived fields (spec.md §5's
// construction parameters).
type BuildParams struct {
	K, M       int
	Seed       uint64
	Canonical  bool
	Hasher     minimizer.Hasher
	NKmers     uint64
	Gamma      float64
	Concurrent bool
}

// Build assembles an Index from classify's output: unique is the stream of
// distinct-minimizer classify.Records (any order; Build sorts it by the
// minimizer MPHF's image as spec.md §4.3 requires), and fallbackKeys are
// the folded 64-bit surrogates of every k-mer belonging to a colliding
// minimizer (spec.md §4.5, C9), already collected by
// minimizer.CollectCollidingKmers and folded with FoldKmer.
func Build(params BuildParams, unique []classify.Record, fallbackKeys []uint64) (*Index, error) {
	minimizers := make([]uint64, len(unique))
	for i, r := range unique {
		minimizers[i] = r.Minimizer
	}
	mmMPHF, err := BuildKeyMPHF(minimizers, params.Gamma, params.Concurrent)
	if err != nil {
		return nil, fmt.Errorf("mphf: building minimizer MPHF: %w", err)
	}

	// Reorder unique by the MPHF's image, per spec.md §4.3's precondition
	// for BuildCategoryIndex, mirroring build_inverted_index's
	// mphf_compare sort.
	ordered := make([]classify.Record, len(unique))
	copy(ordered, unique)
	sort.Slice(ordered, func(i, j int) bool {
		ri, _ := mmMPHF.Rank(ordered[i].Minimizer)
		rj, _ := mmMPHF.Rank(ordered[j].Minimizer)
		return ri < rj
	})

	tagged, err := BuildCategoryIndex(ordered, params.K, params.M)
	if err != nil {
		return nil, fmt.Errorf("mphf: building category index: %w", err)
	}

	var fallback *KeyMPHF
	if len(fallbackKeys) > 0 {
		fallback, err = BuildKeyMPHF(fallbackKeys, params.Gamma, params.Concurrent)
		if err != nil {
			return nil, fmt.Errorf("mphf: building fallback k-mer MPHF: %w", err)
		}
	}

	uniqueCopy := make([]classify.Record, len(unique))
	copy(uniqueCopy, unique)
	fallbackCopy := make([]uint64, len(fallbackKeys))
	copy(fallbackCopy, fallbackKeys)

	return &Index{
		K:                  params.K,
		M:                  params.M,
		Seed:               params.Seed,
		Canonical:          params.Canonical,
		Hasher:             params.Hasher,
		NKmers:             params.NKmers,
		DistinctMinimizers: mmMPHF.Len(),
		MinimizerMPHF:      mmMPHF,
		Tagged:             tagged,
		FallbackMPHF:       fallback,
		uniqueRecords:      uniqueCopy,
		fallbackKeys:       fallbackCopy,
	}, nil
}

// indexWire is the gob-serializable form of an Index. Rather than
// persisting MinimizerMPHF/Tagged/FallbackMPHF's blobs directly (as
// taggedIndexWire does for its own sub-components), it persists the raw
// classify output Build was given plus the build parameters, and
// UnmarshalIndex calls Build again: see the uniqueRecords/fallbackKeys
// doc comment on Index for why MinimizerMPHF and Tagged must always be
// rebuilt together.
type indexWire struct {
	K, M          int
	Seed          uint64
	Canonical     bool
	HasherName    string
	NKmers        uint64
	Gamma         float64
	Concurrent    bool
	UniqueRecords []classify.Record
	FallbackKeys  []uint64
}

// MarshalBinary implements encoding.BinaryMarshaler, persisting every
// field spec.md §6's "Persisted state" lists (k, m, mm_seed, nkmers, plus
// enough of the unique/colliding classify output to deterministically
// reconstruct distinct_minimizers, n_maximal, the three section-start
// offsets, and all three MPHF/rank/offset blobs via Build).
func (idx *Index) MarshalBinary() ([]byte, error) {
	hasherName, err := minimizer.HasherName(idx.Hasher)
	if err != nil {
		return nil, fmt.Errorf("mphf: Index.MarshalBinary: %w", err)
	}
	var buf bytes.Buffer
	w := indexWire{
		K: idx.K, M: idx.M, Seed: idx.Seed, Canonical: idx.Canonical,
		HasherName:    hasherName,
		NKmers:        idx.NKmers,
		Gamma:         idx.MinimizerMPHF.gamma,
		Concurrent:    idx.MinimizerMPHF.concur,
		UniqueRecords: idx.uniqueRecords,
		FallbackKeys:  idx.fallbackKeys,
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalIndex rebuilds an Index from bytes produced by MarshalBinary by
// re-running Build. See DESIGN.md's open-question decision 6: the
// reloaded Index answers every query correctly and is internally
// consistent, but its minimizer/fallback MPHFs may assign different
// integers than the pre-serialize instance did, since go-bbhash
// re-randomizes its internal salt on every New/NewConcurrent call.
func UnmarshalIndex(data []byte) (*Index, error) {
	var w indexWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, err
	}
	hasher, err := minimizer.HasherByName(w.HasherName)
	if err != nil {
		return nil, err
	}
	return Build(BuildParams{
		K: w.K, M: w.M, Seed: w.Seed, Canonical: w.Canonical, Hasher: hasher,
		NKmers:     w.NKmers,
		Gamma:      w.Gamma,
		Concurrent: w.Concurrent,
	}, w.UniqueRecords, w.FallbackKeys)
}

// FoldKmer folds a Wide k-mer down to the 64-bit surrogate key fed to the
// fallback MPHF (C9). spec.md §1 treats the MPHF primitive as operating on
// 64-bit keys, but data-model k-mers may need up to 128 bits (k up to 64),
// so colliding k-mers are folded through a fixed-seed hash before being
// handed to BuildKeyMPHF. DESIGN.md's FoldKmer ledger entry records this
// choice: it assumes the fold is collision-free over the actual
// colliding-k-mer set, which holds with overwhelming probability for a
// 64-bit hash over realistic instance sizes, exactly as BBHash itself
// assumes no adversarial key collisions in its bit-fingerprint step.
func FoldKmer(km seq.Wide, hasher minimizer.Hasher, seed uint64) uint64 {
	folded := hasher.Hash(km.Lo, seed) ^ hasher.Hash(km.Hi, seed+1)
	return folded
}

// Query implements C10/mphf.cpp's query: given a k-mer's minimizer value,
// the packed k-mer itself (folded with FoldKmer here when its minimizer
// collides), and the minimizer's 0-based position within the k-mer, it
// returns the dense hash value in [0, NKmers).
func (idx *Index) Query(minimizerValue uint64, kmer seq.Wide, position int) (uint64, error) {
	mpHash, ok := idx.MinimizerMPHF.Rank(minimizerValue)
	if !ok {
		return 0, fmt.Errorf("mphf: query: minimizer %d is not part of the index", minimizerValue)
	}
	mmType, mmTypeRank := idx.Tagged.Tags.TypeAndRank(int(mpHash))

	var globalRank, localRank uint64
	switch mmType {
	case Left:
		globalRank = idx.Tagged.Offsets.Access(int(mmTypeRank))
		localRank = uint64(position)
	case RightOrCollision:
		skSize := idx.Tagged.Offsets.Diff(idx.Tagged.RightCollStart + int(mmTypeRank))
		if skSize == 0 {
			globalRank = idx.Tagged.Offsets.Access(idx.Tagged.NonePosStart)
			if idx.FallbackMPHF == nil {
				return 0, fmt.Errorf("mphf: query: colliding minimizer %d but no fallback MPHF was built", minimizerValue)
			}
			folded := FoldKmer(kmer, idx.Hasher, idx.Seed)
			r, ok := idx.FallbackMPHF.Rank(folded)
			if !ok {
				return 0, fmt.Errorf("mphf: query: k-mer not present in fallback MPHF")
			}
			localRank = r
		} else {
			globalRank = idx.Tagged.Offsets.Access(idx.Tagged.RightCollStart + int(mmTypeRank))
			localRank = uint64(idx.K - idx.M - position)
		}
	case Maximal:
		globalRank = uint64(idx.K-idx.M+1) * mmTypeRank
		localRank = uint64(position)
	case None:
		globalRank = idx.Tagged.Offsets.Access(idx.Tagged.NoneSizesStart + int(mmTypeRank))
		p1 := idx.Tagged.Offsets.Diff(idx.Tagged.NonePosStart + int(mmTypeRank))
		localRank = p1 - uint64(position)
	default:
		return 0, fmt.Errorf("mphf: query: unrecognized minimizer category %v", mmType)
	}
	if mmType != Maximal {
		globalRank += uint64(idx.K-idx.M+1) * idx.Tagged.NMaximal
	}
	return globalRank + localRank, nil
}

// bruteForceMinimizer independently recomputes, for the m-length window
// starting at each of the k-m+1 offsets of sub (a k-length ACGT string),
// the canonical m-mer value and its hash, returning the leftmost minimizer
// and its 0-based offset. Grounded on original_source/src/mphf.cpp's
// dumb_evaluate / debug::compute_minimizer_triplet: an intentionally
// independent, unoptimized re-derivation used only to cross-check
// ScanContig's incremental window tracking (spec.md §8's "consistency with
// reference" property).
func bruteForceMinimizer(sub string, m int, seed uint64, canonical bool, hasher minimizer.Hasher) (mmVal uint64, position int, ok bool) {
	w := len(sub) - m + 1
	var best uint64
	for pos := 0; pos < w; pos++ {
		fwd, valid := seq.PackForward64(sub[pos : pos+m])
		if !valid {
			return 0, 0, false
		}
		mm := fwd
		if canonical {
			rc := seq.ReverseComplement64(fwd, m)
			if rc < fwd {
				mm = rc
			}
		}
		h := hasher.Hash(mm, seed)
		if pos == 0 || h < best {
			best = h
			mmVal = mm
			position = pos
		}
	}
	return mmVal, position, true
}

// lastWindowStrand recomputes the canonical strand choice (0 = forward, 1 =
// reverse) of the m-mer ending at the last base of a k-length string, used
// to decide which orientation of the whole k-mer was recorded as the
// fallback key at that position, mirroring CollectCollidingKmers' km[z]
// bookkeeping (both minimizer and k-mer orientation share the same z,
// computed from the m-mer active at the current base).
func lastWindowStrand(sub string, k, m int, canonical bool) (uint8, bool) {
	if !canonical {
		return 0, true
	}
	last := sub[k-m:]
	fwd, ok := seq.PackForward64(last)
	if !ok {
		return 0, false
	}
	rc := seq.ReverseComplement64(fwd, m)
	if rc < fwd {
		return 1, true
	}
	return 0, true
}

// DumbEvaluate is the slow, independently-derived reference evaluation of
// spec.md §8's "consistency with reference" property: for every k-mer of
// contig it brute-force recomputes the minimizer and canonical k-mer
// orientation from scratch (not via ScanContig's incremental window), then
// calls Query. It requires contig to be break-free (no non-ACGT byte),
// unlike the streaming scanner; original_source's dumb_evaluate has no such
// guard and is only ever exercised on clean test strings, a gap this
// implementation closes explicitly (see DESIGN.md's open-question
// decision 2) rather than reproducing the original's unsigned
// wraparound when len(contig) < k.
func (idx *Index) DumbEvaluate(contig string) ([]uint64, error) {
	if len(contig) < idx.K {
		return nil, nil
	}
	out := make([]uint64, 0, len(contig)-idx.K+1)
	for i := 0; i+idx.K <= len(contig); i++ {
		sub := contig[i : i+idx.K]
		fwd, ok := seq.PackForward(sub)
		if !ok {
			return nil, fmt.Errorf("mphf: DumbEvaluate requires a break-free contig, found a non-ACGT byte at offset %d", i)
		}
		mmVal, pos, ok := bruteForceMinimizer(sub, idx.M, idx.Seed, idx.Canonical, idx.Hasher)
		if !ok {
			return nil, fmt.Errorf("mphf: DumbEvaluate requires a break-free contig, found a non-ACGT byte at offset %d", i)
		}
		kmer := fwd
		if idx.Canonical {
			z, ok := lastWindowStrand(sub, idx.K, idx.M, idx.Canonical)
			if !ok {
				return nil, fmt.Errorf("mphf: DumbEvaluate requires a break-free contig, found a non-ACGT byte at offset %d", i)
			}
			if z == 1 {
				kmer = seq.ReverseComplementWide(fwd, idx.K)
			}
		}
		h, err := idx.Query(mmVal, kmer, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Evaluate is spec.md operation 6's convenience path: "computes, per
// k-mer, its minimizer and calls query". A genuinely streaming
// implementation would need ScanContig's per-base window plus
// CollectCollidingKmers' incremental k-mer tracking fused into one pass
// (the fallback-MPHF lookup on a colliding minimizer needs the actual
// k-mer value, not just its minimizer and position, and ScanContig alone
// never materializes k-mer values since most minimizers never collide).
// Building that fused pass buys nothing beyond what DumbEvaluate already
// gives a caller that just wants "the hash values for this contig": no
// operation in spec.md's list calls Evaluate from a latency-sensitive
// path, so this delegates to DumbEvaluate directly rather than
// duplicating its window-tracking a third time. See DESIGN.md's
// "Evaluate delegates to DumbEvaluate" decision.
func (idx *Index) Evaluate(contig string) ([]uint64, error) {
	return idx.DumbEvaluate(contig)
}
