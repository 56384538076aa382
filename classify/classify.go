// Package classify implements C4, the minimizer classifier of spec.md
// §4.2: grouping super-k-mer records by minimizer value and splitting the
// result into unique and colliding minimizers.
package classify

import (
	"github.com/lphash-go/lphash/minimizer"
)

// Record is a classified unique minimizer: either a genuine super-k-mer
// description, or the size==0 collision sentinel (spec.md §3, §9's
// open-question decision to keep the sentinel representation rather than a
// tagged union).
type Record struct {
	Minimizer uint64
	P1        uint32
	Size      uint32
}

// IsCollision reports whether r is the sentinel for a colliding minimizer.
func (r Record) IsCollision() bool { return r.Size == 0 }

// RecordIterator walks an ascending-by-Minimizer stream of
// minimizer.SuperKmerRecord, e.g. sortedvector.Vector's iterator.
type RecordIterator interface {
	// Next advances to and returns the next record, or ok=false when
	// exhausted.
	Next() (rec minimizer.SuperKmerRecord, ok bool)
}

// UniqueSink receives one Record per distinct minimizer value, in the
// order RecordIterator produced them (ascending by minimizer).
type UniqueSink interface {
	Append(rec Record) error
}

// UniqueSinkFunc adapts a plain function to a UniqueSink, following
// minimizer.SinkFunc's pattern.
type UniqueSinkFunc func(rec Record) error

func (f UniqueSinkFunc) Append(rec Record) error { return f(rec) }

// CollidingIDSink receives the id of every super-k-mer record whose
// minimizer turned out to be colliding. Ids are appended in the input
// iterator's order (i.e. ascending by minimizer, then by contig-emission
// order within a group); callers that need them sorted ascending by id
// (as C11 requires) must sort this stream afterward, exactly as spec.md
// §4.2 describes ("later re-sorted ascending").
type CollidingIDSink interface {
	Append(id uint64) error
}

// CollidingIDSinkFunc adapts a plain function to a CollidingIDSink.
type CollidingIDSinkFunc func(id uint64) error

func (f CollidingIDSinkFunc) Append(id uint64) error { return f(id) }

// Classify implements C4: input must already be sorted ascending by
// Minimizer (spec.md §4.2's precondition, typically produced by
// sortedvector's external sort). It performs a single pass with one-record
// lookahead, grouping consecutive equal-minimizer records.
//
// Grounded on original_source/src/minimizer.hpp's free function classify:
// same one-record-lookahead grouping and same size==0 sentinel encoding
// for colliding minimizers.
func Classify(records RecordIterator, unique UniqueSink, colliding CollidingIDSink) error {
	cur, ok := records.Next()
	if !ok {
		return nil
	}
	group := []minimizer.SuperKmerRecord{cur}

	flush := func(group []minimizer.SuperKmerRecord) error {
		if len(group) == 1 {
			r := group[0]
			return unique.Append(Record{Minimizer: r.Minimizer, P1: r.P1, Size: r.Size})
		}
		if err := unique.Append(Record{Minimizer: group[0].Minimizer, P1: 0, Size: 0}); err != nil {
			return err
		}
		for _, r := range group {
			if err := colliding.Append(r.ID); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		next, ok := records.Next()
		if !ok {
			return flush(group)
		}
		if next.Minimizer == group[0].Minimizer {
			group = append(group, next)
			continue
		}
		if err := flush(group); err != nil {
			return err
		}
		group = group[:0]
		group = append(group, next)
	}
}
