// lphash-build constructs a minimal perfect hash index over the distinct
// k-mers of every sequence in a FASTA file and writes it to disk.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/lphash-go/lphash"
	"github.com/lphash-go/lphash/encoding/fasta"
)

var (
	fastaPath  = flag.String("fasta", "", "input FASTA file (required)")
	outPath    = flag.String("out", "", "output index file (required)")
	k          = flag.Int("k", lphash.DefaultOpts.K, "k-mer length")
	m          = flag.Int("m", lphash.DefaultOpts.M, "minimizer length")
	seed       = flag.Uint64("seed", lphash.DefaultOpts.Seed, "minimizer hash seed")
	canonical  = flag.Bool("canonical", lphash.DefaultOpts.Canonical, "use canonical (strand-independent) k-mers")
	tmpDir     = flag.String("tmp-dir", os.TempDir(), "scratch directory for external sort runs")
	sortBudget = flag.Int64("sort-budget-bytes", lphash.DefaultOpts.SortMemoryBudgetBytes, "in-memory byte budget per external-sort run")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if *fastaPath == "" || *outPath == "" {
		log.Fatalf("lphash-build: -fasta and -out are required")
	}

	ctx := context.Background()
	f, err := os.Open(*fastaPath)
	if err != nil {
		log.Fatalf("lphash-build: %v", err)
	}
	defer f.Close() // nolint: errcheck

	records, err := fasta.New(f, fasta.OptClean)
	if err != nil {
		log.Fatalf("lphash-build: parsing FASTA: %v", err)
	}

	var contigs []string
	for _, name := range records.SeqNames() {
		n, err := records.Len(name)
		if err != nil {
			log.Fatalf("lphash-build: %v", err)
		}
		seq, err := records.Get(name, 0, n)
		if err != nil {
			log.Fatalf("lphash-build: %v", err)
		}
		contigs = append(contigs, seq)
	}

	opts := lphash.DefaultOpts
	opts.K = *k
	opts.M = *m
	opts.Seed = *seed
	opts.Canonical = *canonical
	opts.TmpDir = *tmpDir
	opts.SortMemoryBudgetBytes = *sortBudget

	result, err := lphash.BuildIndex(ctx, opts, contigs)
	if err != nil {
		log.Fatalf("lphash-build: %v", err)
	}
	log.Printf("lphash-build: %d distinct k-mers, %d distinct minimizers", result.Index.NKmers, result.Index.DistinctMinimizers)
	for size, count := range result.Histogram {
		log.Debug.Printf("lphash-build: super-k-mer size %d occurred %d times", size, count)
	}

	blob, err := result.Index.MarshalBinary()
	if err != nil {
		log.Fatalf("lphash-build: serializing index: %v", err)
	}
	if err := os.WriteFile(*outPath, blob, 0644); err != nil {
		log.Fatalf("lphash-build: writing %s: %v", *outPath, err)
	}
}
