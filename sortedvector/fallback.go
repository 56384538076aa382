package sortedvector

import (
	"context"
	"io"

	"github.com/golang/snappy"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

func writeFallbackRun(ctx context.Context, path string, raw []byte) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = out.Writer(ctx).Write(snappy.Encode(nil, raw))
	return err
}

func readFallbackRun(ctx context.Context, path string) (raw []byte, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	compressed, err := io.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, path)
	}
	return snappy.Decode(nil, compressed)
}

// FallbackKeyWriter accumulates the 64-bit folded fallback keys C11 emits
// for colliding minimizers (spec.md §5's fallback-kmer collector stream),
// spilling snappy-compressed runs to TmpDir once BudgetBytes is exceeded.
//
// Grounded on cmd/bio-bam-sort/sorter/sortshard.go's direct
// snappy.Encode/snappy.Decode framing of raw byte blocks: unlike the
// minimizer and colliding-id streams, the fallback-key stream is never
// externally sorted (mphf.BuildKeyMPHF doesn't care about key order), so it
// doesn't need recordio's transformer registry or the heap-merge Iterate
// does for sortedvector.Vector/IDCursor -- plain snappy framing is enough.
type FallbackKeyWriter struct {
	Ctx         context.Context
	TmpDir      string
	Label       string
	BudgetBytes int64

	buf      []uint64
	bufBytes int64
	runPaths []string
	seq      int
}

// Append buffers key, spilling a compressed run if the byte budget is
// exceeded. Satisfies minimizer.KmerSink once wrapped by the caller's
// folding closure (FallbackKeyWriter itself stores already-folded keys).
func (w *FallbackKeyWriter) Append(key uint64) error {
	w.buf = append(w.buf, key)
	w.bufBytes += 8
	if w.bufBytes >= w.BudgetBytes {
		return w.spill()
	}
	return nil
}

func (w *FallbackKeyWriter) spill() error {
	if len(w.buf) == 0 {
		return nil
	}
	path := runPath(w.TmpDir, w.Label, w.seq)
	w.seq++
	raw := encodeIDs(w.buf)
	if err := writeFallbackRun(w.Ctx, path, raw); err != nil {
		return err
	}
	log.Debug.Printf("sortedvector: spilled fallback-key run %v (%d keys, %d raw bytes)", path, len(w.buf), len(raw))
	w.runPaths = append(w.runPaths, path)
	w.buf = w.buf[:0]
	w.bufBytes = 0
	return nil
}

// Finish spills any buffered keys and returns every fallback key across all
// runs, decompressed and decoded. The returned order is unspecified: the
// only consumer, mphf.BuildKeyMPHF, treats its input as an unordered key
// set.
func (w *FallbackKeyWriter) Finish() ([]uint64, error) {
	if err := w.spill(); err != nil {
		return nil, err
	}
	var keys []uint64
	for _, p := range w.runPaths {
		raw, err := readFallbackRun(w.Ctx, p)
		if err != nil {
			return nil, err
		}
		keys = append(keys, decodeIDs(raw)...)
	}
	return keys, nil
}
