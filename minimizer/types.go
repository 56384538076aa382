// Package minimizer implements the windowed minimizer scanner (spec.md C3),
// its companion second-pass colliding-k-mer collector (C11), and the
// seeded m-mer hash backends (C2).
package minimizer

import (
	"sync/atomic"

	"github.com/lphash-go/lphash/seq"
)

// SuperKmerRecord is one emitted super-k-mer description (spec.md §3):
// a maximal run of consecutive k-mers sharing the same minimizer instance.
type SuperKmerRecord struct {
	// Minimizer is the packed m-mer value (canonical, if configured).
	Minimizer uint64
	// ID is the globally unique sequence number of this minimizer
	// instance, in emission order.
	ID uint64
	// P1 is the offset in bases of the minimizer inside the first k-mer
	// of the super-k-mer: 0 <= P1 <= k-m.
	P1 uint32
	// Size is the number of k-mers in the super-k-mer: 1 <= Size <= k-m+1.
	Size uint32
}

// Sink receives super-k-mer records as ScanContig emits them. Implementations
// must be safe for the concurrency model of spec.md §5: a single Sink may be
// shared by multiple contigs scanned in parallel, in which case Append must
// be safe for concurrent use.
type Sink interface {
	Append(rec SuperKmerRecord) error
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(rec SuperKmerRecord) error

func (f SinkFunc) Append(rec SuperKmerRecord) error { return f(rec) }

// KmerSink receives the raw k-mer values of C11's colliding-k-mer collector.
type KmerSink interface {
	Append(km seq.Wide) error
}

// KmerSinkFunc adapts a plain function to a KmerSink.
type KmerSinkFunc func(km seq.Wide) error

func (f KmerSinkFunc) Append(km seq.Wide) error { return f(km) }

// IDIterator walks the ascending-sorted stream of colliding minimizer ids
// that C4's classifier produced (spec.md §4.2, §4.5). CollectCollidingKmers
// consumes it with a single forward pass, exactly like the original's
// sorted_external_vector<uint64_t>::const_iterator.
type IDIterator interface {
	// Peek returns the next unconsumed id, and false once exhausted.
	Peek() (id uint64, ok bool)
	// Advance consumes the id last returned by Peek.
	Advance()
}

// Counter assigns the globally increasing per-minimizer-instance id
// (spec.md §4.1's mm_count / §5, §9's "shared mm_count counter").
type Counter interface {
	Next() uint64
}

// SerialCounter is a Counter for single-contig or single-threaded use.
type SerialCounter struct{ n uint64 }

func (c *SerialCounter) Next() uint64 {
	n := c.n
	c.n++
	return n
}

// AtomicCounter is a Counter safe for the parallel-contigs model of
// spec.md §5 and §9 ("use an atomic counter").
type AtomicCounter struct{ n uint64 }

func (c *AtomicCounter) Next() uint64 { return atomic.AddUint64(&c.n, 1) - 1 }

// RangeCounter is the other option spec.md §9 allows: "each worker is
// assigned a disjoint pre-reserved id range". It issues sequential ids
// starting at Base, without synchronization, for exclusive use by one
// worker.
type RangeCounter struct {
	Base    uint64
	next    uint64
	started bool
}

func (c *RangeCounter) Next() uint64 {
	if !c.started {
		c.next = c.Base
		c.started = true
	}
	n := c.next
	c.next++
	return n
}

// Issued returns how many ids this counter has handed out so far, letting
// a caller compute the next worker's disjoint Base.
func (c *RangeCounter) Issued() uint64 {
	if !c.started {
		return 0
	}
	return c.next - c.Base
}
