package lphash

import (
	"github.com/opencoff/go-bbhash"

	"github.com/lphash-go/lphash/minimizer"
)

// Opts collects the build parameters of spec.md §6 ("Parameters: k, m,
// seed, canonical") plus the resource-model knobs of §5: one field per
// tunable, doc comment above each, and a DefaultOpts value next to it
// documenting the default's origin.
type Opts struct {
	// K is the k-mer length, 1..64.
	K int
	// M is the minimizer length, 1..K with 2*M <= 64.
	M int
	// Seed is the 64-bit seed passed to the minimizer hasher.
	Seed uint64
	// Canonical selects canonical (strand-independent) k-mers and
	// minimizers when true.
	Canonical bool
	// Hasher computes H(mmer, seed); defaults to minimizer.FarmHasher{}.
	Hasher minimizer.Hasher

	// MPHFGamma is the BBHash space/speed tradeoff factor (spec.md §9
	// design note on pthash's alpha/c, reinterpreted for BBHash's single
	// gamma knob; see DESIGN.md's open-question decision 5).
	MPHFGamma float64
	// Concurrent selects bbhash.NewConcurrent over bbhash.New for both
	// the minimizer and fallback k-mer MPHFs.
	Concurrent bool

	// SortMemoryBudgetBytes is the in-memory byte budget for each
	// external sort spill, before sortedvector.Writer/FallbackKeyWriter
	// flush a run to disk (spec.md §5's "configurable byte cap"). The
	// colliding-id IDWriter's budget is derived from the minimizer count
	// instead (see collidingIDBudget).
	SortMemoryBudgetBytes int64
	// TmpDir holds the external-sort run files (spec.md §5).
	TmpDir string

	// Parallelism is the number of contigs ExtractAll scans
	// concurrently (spec.md §5's "independent contigs MAY be processed
	// in parallel").
	Parallelism int
}

// DefaultOpts: one line per field, each commented with the value chosen
// and why.
var DefaultOpts = Opts{
	K:                     31,               // a common short-read k-mer length.
	M:                     19,               // matches spec.md §8 scenario S6's example.
	Seed:                  0x5bd1e995,       // arbitrary fixed default, murmur2's magic constant.
	Canonical:             true,             // canonical minimizers are the common case for genomic data.
	Hasher:                minimizer.FarmHasher{},
	MPHFGamma:             bbhash.Gamma,     // go-bbhash's own recommended default (2.0).
	Concurrent:            false,            // matches the original's mphf_configuration.num_threads = 0 default.
	SortMemoryBudgetBytes: 64 << 20,         // 64 MiB per external-sort run, arbitrary but generous default.
	TmpDir:                "",               // caller must set one; left empty to force an explicit choice.
	Parallelism:           4,
}
