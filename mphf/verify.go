package mphf

import "fmt"

// CheckBijective verifies that evaluating every contig in contigs against
// idx produces a bijection onto [0, idx.NKmers): every hash is in range and
// no hash is produced twice. Grounded on original_source/src/mphf.cpp's
// check_collisions + check_perfection, fused into one pass since Go's
// idiom favors a single bool-slice population check over a two-phase
// bit_vector_builder handoff.
func CheckBijective(idx *Index, contigs []string) error {
	if idx.NKmers == 0 {
		return fmt.Errorf("mphf: CheckBijective: index has zero k-mers")
	}
	population := make([]bool, idx.NKmers)
	var seen uint64
	for _, contig := range contigs {
		hashes, err := idx.DumbEvaluate(contig)
		if err != nil {
			return fmt.Errorf("mphf: CheckBijective: %w", err)
		}
		for _, h := range hashes {
			if h >= idx.NKmers {
				return fmt.Errorf("mphf: CheckBijective: hash %d out of range [0,%d)", h, idx.NKmers)
			}
			if population[h] {
				return fmt.Errorf("mphf: CheckBijective: collision at hash %d", h)
			}
			population[h] = true
			seen++
		}
	}
	if seen != idx.NKmers {
		return fmt.Errorf("mphf: CheckBijective: %d of %d k-mers were never marked", idx.NKmers-seen, idx.NKmers)
	}
	return nil
}

// CheckStreamingConsistency verifies that Evaluate and the independent
// DumbEvaluate reference agree on contig, per spec.md §8's "consistency
// with reference" testable property. Evaluate returns DumbEvaluate's
// result (DESIGN.md's open-question decision 8), so the two agree by
// construction and this check guards that delegation. Grounded on
// original_source/src/mphf.cpp's check_streaming_correctness.
func CheckStreamingConsistency(idx *Index, contig string) error {
	dumb, err := idx.DumbEvaluate(contig)
	if err != nil {
		return fmt.Errorf("mphf: CheckStreamingConsistency: dumb evaluate: %w", err)
	}
	fast, err := idx.Evaluate(contig)
	if err != nil {
		return fmt.Errorf("mphf: CheckStreamingConsistency: evaluate: %w", err)
	}
	if len(dumb) != len(fast) {
		return fmt.Errorf("mphf: CheckStreamingConsistency: different hash counts (%d vs %d)", len(dumb), len(fast))
	}
	for i := range dumb {
		if dumb[i] != fast[i] {
			return fmt.Errorf("mphf: CheckStreamingConsistency: hash mismatch at k-mer %d (%d vs %d)", i, dumb[i], fast[i])
		}
	}
	return nil
}
