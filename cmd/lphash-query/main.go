// lphash-query loads a minimal perfect hash index built by lphash-build and
// prints, for every sequence in a FASTA file, the dense hash value of each
// of its k-mers.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/lphash-go/lphash/encoding/fasta"
	"github.com/lphash-go/lphash/mphf"
)

var (
	indexPath = flag.String("index", "", "index file produced by lphash-build (required)")
	fastaPath = flag.String("fasta", "", "input FASTA file (required)")
	verify    = flag.Bool("verify", false, "check that the index is a bijection onto [0, nkmers) before querying")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if *indexPath == "" || *fastaPath == "" {
		log.Fatalf("lphash-query: -index and -fasta are required")
	}

	blob, err := os.ReadFile(*indexPath)
	if err != nil {
		log.Fatalf("lphash-query: %v", err)
	}
	idx, err := mphf.UnmarshalIndex(blob)
	if err != nil {
		log.Fatalf("lphash-query: loading index: %v", err)
	}

	f, err := os.Open(*fastaPath)
	if err != nil {
		log.Fatalf("lphash-query: %v", err)
	}
	defer f.Close() // nolint: errcheck

	records, err := fasta.New(f, fasta.OptClean)
	if err != nil {
		log.Fatalf("lphash-query: parsing FASTA: %v", err)
	}

	var contigs []string
	for _, name := range records.SeqNames() {
		n, err := records.Len(name)
		if err != nil {
			log.Fatalf("lphash-query: %v", err)
		}
		seq, err := records.Get(name, 0, n)
		if err != nil {
			log.Fatalf("lphash-query: %v", err)
		}
		contigs = append(contigs, seq)
	}

	if *verify {
		if err := mphf.CheckBijective(idx, contigs); err != nil {
			log.Fatalf("lphash-query: index failed bijection check: %v", err)
		}
		log.Printf("lphash-query: index verified bijective over %d k-mers", idx.NKmers)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush() // nolint: errcheck
	for i, name := range records.SeqNames() {
		hashes, err := idx.Evaluate(contigs[i])
		if err != nil {
			log.Fatalf("lphash-query: evaluating %s: %v", name, err)
		}
		for j, h := range hashes {
			fmt.Fprintf(w, "%s\t%d\t%d\n", name, j, h)
		}
	}
}
