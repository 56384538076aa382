// Package lphash builds and queries a minimal perfect hash function over
// the distinct k-mers of a set of DNA contigs, exploiting minimizer/
// super-k-mer decomposition to keep the index small. See SPEC_FULL.md for
// the full component breakdown (C1-C11).
package lphash

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/lphash-go/lphash/classify"
	"github.com/lphash-go/lphash/minimizer"
	"github.com/lphash-go/lphash/mphf"
	"github.com/lphash-go/lphash/seq"
	"github.com/lphash-go/lphash/sortedvector"
)

// Index is the public handle on a built MPHF index: spec.md §6 operations
// 5 and 6 (query, evaluate) and persistence are exposed directly, since
// Index is an alias of mphf.Index.
type Index = mphf.Index

func validateParams(k, m int) error {
	if k <= 0 || k > 64 {
		return configError(fmt.Sprintf("k=%d out of range (1..64)", k))
	}
	if m <= 0 || m > k {
		return configError(fmt.Sprintf("m=%d out of range (1..k=%d)", m, k))
	}
	if 2*m > 64 {
		return configError(fmt.Sprintf("2*m=%d exceeds 64", 2*m))
	}
	return nil
}

// ExtractAll implements spec.md §6 operation 1's parallel form: contigs
// are scanned independently (spec.md §5's "independent contigs MAY be
// processed in parallel by separate workers"), sharing only an atomic
// id counter and a mutex-guarded sink ("thread-safe-append" per §5).
// Grounded on pileup/snp/pileup.go's traverse.Each(parallelism, ...)
// per-unit-of-work fan-out. Library: github.com/grailbio/base/traverse.
//
// Ids assigned this way are unique but not reproducible across runs or
// across a second ExtractAll call (goroutine scheduling order varies);
// BuildIndex uses a different, reproducible strategy internally because it
// needs the same ids in its second CollectCollidingKmers pass.
func ExtractAll(opts Opts, contigs []string, sink minimizer.Sink) (uint64, error) {
	if err := validateParams(opts.K, opts.M); err != nil {
		return 0, err
	}
	if opts.Parallelism <= 0 {
		return 0, configError("Opts.Parallelism must be positive")
	}
	counter := &minimizer.AtomicCounter{}
	var mu sync.Mutex
	guarded := minimizer.SinkFunc(func(rec minimizer.SuperKmerRecord) error {
		mu.Lock()
		defer mu.Unlock()
		return sink.Append(rec)
	})
	var total uint64
	var totalMu sync.Mutex
	err := traverse.Each(opts.Parallelism, func(shard int) error {
		for i := shard; i < len(contigs); i += opts.Parallelism {
			n, err := minimizer.ScanContig(contigs[i], opts.K, opts.M, opts.Seed, opts.Canonical, opts.Hasher, counter, guarded)
			if err != nil {
				return inputError(err, fmt.Sprintf("contig %d", i))
			}
			totalMu.Lock()
			total += n
			totalMu.Unlock()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// contigRange records the disjoint id range minimizer.RangeCounter
// assigned to one contig during BuildIndex's first pass, so the second
// pass (CollectCollidingKmers) can replay the exact same assignment
// (spec.md §9: "the colliding-id sort after C4 tolerates any assignment
// since ids are compared only for equality against the sorted colliding
// set" — which requires the two passes to agree on what each id means).
type contigRange struct {
	base uint64
}

// BuildResult is BuildIndex's return value: the query engine plus the
// per-super-k-mer-size histogram spec.md §6 operation 3 also produces.
type BuildResult struct {
	Index     *mphf.Index
	Histogram map[uint32]uint64
}

// BuildIndex runs the full pipeline of spec.md §6 operations 1-4 over
// contigs: extract (serially, to keep id assignment reproducible across
// the extract and collect passes — see ExtractAll's doc comment for the
// parallel alternative when reproducibility doesn't matter), sort by
// minimizer, classify, collect colliding k-mers, and build the MPHF index.
func BuildIndex(ctx context.Context, opts Opts, contigs []string) (*BuildResult, error) {
	if err := validateParams(opts.K, opts.M); err != nil {
		return nil, err
	}
	if opts.TmpDir == "" {
		return nil, configError("Opts.TmpDir must be set")
	}

	recordWriter := &sortedvector.Writer{Ctx: ctx, TmpDir: opts.TmpDir, Label: "minimizers", BudgetBytes: opts.SortMemoryBudgetBytes}
	ranges := make([]contigRange, len(contigs))
	var idsIssued, totalKmers uint64
	for i, contig := range contigs {
		ranges[i] = contigRange{base: idsIssued}
		counter := &minimizer.RangeCounter{Base: idsIssued}
		n, err := minimizer.ScanContig(contig, opts.K, opts.M, opts.Seed, opts.Canonical, opts.Hasher, counter, recordWriter)
		if err != nil {
			return nil, inputError(err, fmt.Sprintf("contig %d", i))
		}
		totalKmers += n
		idsIssued += counter.Issued()
	}
	log.Debug.Printf("lphash: extracted %d contigs, %d k-mers, %d minimizer instances", len(contigs), totalKmers, idsIssued)

	vec, err := recordWriter.Finish()
	if err != nil {
		return nil, resourceError(err, "flushing minimizer run")
	}
	iter, err := vec.Iterate()
	if err != nil {
		return nil, resourceError(err, "merging minimizer runs")
	}

	idWriter := &sortedvector.IDWriter{Ctx: ctx, TmpDir: opts.TmpDir, Label: "colliding-ids", BudgetBytes: collidingIDBudget(opts, idsIssued)}
	var unique []classify.Record
	uniqueSink := classify.UniqueSinkFunc(func(rec classify.Record) error {
		unique = append(unique, rec)
		return nil
	})
	if err := classify.Classify(iter, uniqueSink, idWriter); err != nil {
		return nil, invariantError(err, "classify")
	}

	idCursor, err := idWriter.Finish()
	if err != nil {
		return nil, resourceError(err, "flushing colliding-id run")
	}

	histogram := make(map[uint32]uint64)
	fallbackWriter := &sortedvector.FallbackKeyWriter{Ctx: ctx, TmpDir: opts.TmpDir, Label: "fallback-keys", BudgetBytes: opts.SortMemoryBudgetBytes}
	sink := foldingSink(opts, fallbackWriter)
	for i, contig := range contigs {
		counter := &minimizer.RangeCounter{Base: ranges[i].base}
		err := minimizer.CollectCollidingKmers(contig, opts.K, opts.M, opts.Seed, opts.Canonical, opts.Hasher, counter, idCursor, sink, histogram)
		if err != nil {
			return nil, invariantError(err, fmt.Sprintf("collect colliding k-mers: contig %d", i))
		}
	}
	fallbackKeys, err := fallbackWriter.Finish()
	if err != nil {
		return nil, resourceError(err, "flushing fallback-key run")
	}

	idx, err := mphf.Build(mphf.BuildParams{
		K: opts.K, M: opts.M, Seed: opts.Seed, Canonical: opts.Canonical, Hasher: opts.Hasher,
		NKmers:     totalKmers,
		Gamma:      opts.MPHFGamma,
		Concurrent: opts.Concurrent,
	}, unique, fallbackKeys)
	if err != nil {
		return nil, invariantError(err, "build MPHF index")
	}
	return &BuildResult{Index: idx, Histogram: histogram}, nil
}

func collidingIDBudget(opts Opts, nKmers uint64) int64 {
	// spec.md §5: "the classifier reserves the greater of 1% of the
	// minimizer-stream size or 4 MB for the colliding-ids sort and the
	// remainder for the unique-minimizer sort."
	onePercent := int64(nKmers) / 100 * 8 // 8 bytes per id.
	const fourMB = 4 << 20
	if onePercent > fourMB {
		return onePercent
	}
	return fourMB
}

// foldingSink folds each colliding k-mer down to its 64-bit surrogate and
// hands it to w, which spills a snappy-compressed run to disk once its
// budget is exceeded (spec.md §5's fallback-kmer collector stream).
func foldingSink(opts Opts, w *sortedvector.FallbackKeyWriter) minimizer.KmerSink {
	return minimizer.KmerSinkFunc(func(km seq.Wide) error {
		return w.Append(mphf.FoldKmer(km, opts.Hasher, opts.Seed))
	})
}
