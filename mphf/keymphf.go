// Package mphf implements C5-C10 of spec.md: the minimizer MPHF and
// fallback k-mer MPHF (wrapping the black-box MPHF primitive), the
// category tagger, the category rank structure, the packed offsets array,
// and the query engine that combines them.
package mphf

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/opencoff/go-bbhash"
)

// KeyMPHF wraps github.com/opencoff/go-bbhash's BBHash to provide the
// minimal-perfect-hash-over-64-bit-keys primitive spec.md §1 treats as a
// black box, converting its 1-indexed Find (0 = not found) to the 0-indexed
// [0,N) range spec.md §4.4 expects.
//
// Grounded on other_examples/0c4ddfc2_opencoff-go-bbhash__bbhash.go.go's
// New/NewConcurrent/Find. Library: github.com/opencoff/go-bbhash.
type KeyMPHF struct {
	bb     *bbhash.BBHash
	keys   []uint64
	gamma  float64
	concur bool
}

// BuildKeyMPHF constructs a minimal perfect hash over the given distinct
// keys. gamma is the BBHash space/speed tradeoff factor (bbhash.Gamma is
// the library's recommended default); concurrent selects
// bbhash.NewConcurrent over bbhash.New, per Opts.Concurrent.
func BuildKeyMPHF(keys []uint64, gamma float64, concurrent bool) (*KeyMPHF, error) {
	var bb *bbhash.BBHash
	var err error
	if concurrent {
		bb, err = bbhash.NewConcurrent(gamma, keys)
	} else {
		bb, err = bbhash.New(gamma, keys)
	}
	if err != nil {
		return nil, fmt.Errorf("mphf: building key MPHF over %d keys: %w", len(keys), err)
	}
	cp := make([]uint64, len(keys))
	copy(cp, keys)
	return &KeyMPHF{bb: bb, keys: cp, gamma: gamma, concur: concurrent}, nil
}

// Len returns the number of distinct keys this MPHF was built over (its
// image is [0, Len())).
func (m *KeyMPHF) Len() uint64 { return uint64(len(m.keys)) }

// Rank returns the dense [0, Len()) hash for key, and false if key was not
// part of the original key set (bbhash.BBHash.Find's 0 sentinel, shifted).
func (m *KeyMPHF) Rank(key uint64) (uint64, bool) {
	r := m.bb.Find(key)
	if r == 0 {
		return 0, false
	}
	return r - 1, true
}

// keyMPHFWire is the gob-serializable form of a KeyMPHF.
//
// go-bbhash's public API (New/NewConcurrent/Find) does not expose a
// binary marshaler for *bbhash.BBHash itself (its bit-vectors, ranks and
// random salt are unexported), so persistence here serializes the key set,
// in the order it was given, and rebuilds the BBHash with BuildKeyMPHF on load, rather than
// round-tripping the internal bit layout byte-for-byte. See DESIGN.md's
// open-question entry on MPHF persistence for the consequence: a
// freshly-rebuilt KeyMPHF over the same keys is a valid bijection onto the
// same [0,N) but is not guaranteed to assign the same integer to each key
// as the pre-serialize instance did (BBHash's internal salt is re-randomized
// on every New/NewConcurrent call).
type keyMPHFWire struct {
	Keys       []uint64
	Gamma      float64
	Concurrent bool
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *KeyMPHF) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(keyMPHFWire{Keys: m.keys, Gamma: m.gamma, Concurrent: m.concur}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalKeyMPHF rebuilds a KeyMPHF from bytes produced by
// MarshalBinary.
func UnmarshalKeyMPHF(data []byte) (*KeyMPHF, error) {
	var w keyMPHFWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, err
	}
	return BuildKeyMPHF(w.Keys, w.Gamma, w.Concurrent)
}
