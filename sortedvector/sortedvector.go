// Package sortedvector implements the external-memory sorted vector
// spec.md §1 treats as a black-box container: an append interface that
// spills in-memory runs to disk once a byte budget is exceeded, and an
// iteration interface that merges the spilled runs back into one ascending
// stream.
//
// Grounded on encoding/pam/pamutil.ReadShardIndex/WriteShardIndex's
// file.Open/file.Create + recordio.NewScanner/NewWriter pairing, and on
// pileup/snp's use of recordio for spill files. Each sorted run is written
// as a single recordio record (a zstd-compressed blob of fixed-width
// encoded entries); Iterate performs a k-way merge across runs with a
// container/heap min-heap, the standard external-sort merge technique (no
// merge-sort/external-sort library appears anywhere in the retrieval
// pack, so this part is hand-built per DESIGN.md's stdlib-justification
// clause).
package sortedvector

import (
	"container/heap"
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	_ "github.com/grailbio/base/recordio/recordiozstd" // registers the "zstd" transformer

	"github.com/lphash-go/lphash/minimizer"
)

func writeRun(ctx context.Context, path string, blob []byte) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	rio := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{"zstd"},
	})
	rio.Append(blob)
	return rio.Finish()
}

func readRun(ctx context.Context, path string) (blob []byte, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	rio := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	defer rio.Finish() // nolint: errcheck
	if !rio.Scan() {
		return nil, errors.E(rio.Err(), fmt.Sprintf("sortedvector: empty run %v", path))
	}
	return rio.Get().([]byte), rio.Err()
}

func runPath(tmpDir, label string, seq int) string {
	return filepath.Join(tmpDir, fmt.Sprintf("%s-%06d.run", label, seq))
}

// recordHeapItem and recordHeap implement the k-way merge of already
// ascending-by-Minimizer decoded runs.
type recordHeapItem struct {
	recs []minimizer.SuperKmerRecord
	pos  int
}

type recordHeap []recordHeapItem

func (h recordHeap) Len() int { return len(h) }
func (h recordHeap) Less(i, j int) bool {
	return h[i].recs[h[i].pos].Minimizer < h[j].recs[h[j].pos].Minimizer
}
func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *recordHeap) Push(x interface{}) { *h = append(*h, x.(recordHeapItem)) }
func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Vector is the read side of a spilled, sorted run set: the result of
// Writer.Finish. Its zero value is an empty vector.
type Vector struct {
	ctx      context.Context
	runPaths []string
}

// Iterator walks a Vector's records in ascending Minimizer order. It
// satisfies classify.RecordIterator.
type Iterator struct {
	h recordHeap
}

// Next returns classify.RecordIterator's (rec, ok) pair.
func (it *Iterator) Next() (minimizer.SuperKmerRecord, bool) {
	if it.h.Len() == 0 {
		return minimizer.SuperKmerRecord{}, false
	}
	top := it.h[0]
	rec := top.recs[top.pos]
	if top.pos+1 < len(top.recs) {
		it.h[0].pos++
		heap.Fix(&it.h, 0)
	} else {
		heap.Pop(&it.h)
	}
	return rec, true
}

// Iterate opens a merged, ascending view over every spilled run. Runs are
// loaded fully into memory at this point (this package's concession to
// simplicity for a structure spec.md treats as a black box); the merge
// itself streams.
func (v *Vector) Iterate() (*Iterator, error) {
	it := &Iterator{}
	for _, p := range v.runPaths {
		blob, err := readRun(v.ctx, p)
		if err != nil {
			return nil, err
		}
		recs := decodeRecords(blob)
		if len(recs) > 0 {
			it.h = append(it.h, recordHeapItem{recs: recs, pos: 0})
		}
	}
	heap.Init(&it.h)
	return it, nil
}

// RunPaths exposes the spilled run files, e.g. for diagnostics/cleanup by
// the out-of-scope temporary-directory lifecycle owner.
func (v *Vector) RunPaths() []string { return v.runPaths }

// Writer accumulates minimizer.SuperKmerRecord appends in memory up to
// BudgetBytes, sorting and spilling a run to TmpDir whenever the budget is
// exceeded (spec.md §5's "configurable byte cap"). Label namespaces run
// filenames so independent sorters sharing one TmpDir ("each sorter owns a
// disjoint group id", spec.md §5) don't collide.
type Writer struct {
	Ctx         context.Context
	TmpDir      string
	Label       string
	BudgetBytes int64

	buf      []minimizer.SuperKmerRecord
	bufBytes int64
	runPaths []string
	seq      int
}

// Append buffers rec, spilling a sorted run if the byte budget is
// exceeded.
func (w *Writer) Append(rec minimizer.SuperKmerRecord) error {
	w.buf = append(w.buf, rec)
	w.bufBytes += recordWireSize
	if w.bufBytes >= w.BudgetBytes {
		return w.spill()
	}
	return nil
}

func (w *Writer) spill() error {
	if len(w.buf) == 0 {
		return nil
	}
	sort.Slice(w.buf, func(i, j int) bool { return w.buf[i].Minimizer < w.buf[j].Minimizer })
	path := runPath(w.TmpDir, w.Label, w.seq)
	w.seq++
	if err := writeRun(w.Ctx, path, encodeRecords(w.buf)); err != nil {
		return err
	}
	log.Debug.Printf("sortedvector: spilled run %v (%d records)", path, len(w.buf))
	w.runPaths = append(w.runPaths, path)
	w.buf = w.buf[:0]
	w.bufBytes = 0
	return nil
}

// Finish spills any buffered records and returns the read-side Vector.
func (w *Writer) Finish() (*Vector, error) {
	if err := w.spill(); err != nil {
		return nil, err
	}
	return &Vector{ctx: w.Ctx, runPaths: w.runPaths}, nil
}
