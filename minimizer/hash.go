package minimizer

import (
	"encoding/binary"
	"fmt"

	farm "github.com/dgryski/go-farm"
	"github.com/minio/highwayhash"

	"blainsmith.com/go/seahash"
)

// Hasher computes the seeded 64-bit hash H(mm, seed) of spec.md §3 used to
// pick a k-mer's minimizer. Implementations must be pure functions of
// (mmer, seed) so that a build and a later query agree.
type Hasher interface {
	Hash(mmer uint64, seed uint64) uint64
}

// FarmHasher is the default Hasher, grounded on fusion/kmer_index.go's
// hashKmer (github.com/dgryski/go-farm, already a direct teacher
// dependency).
type FarmHasher struct{}

func (FarmHasher) Hash(mmer, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], mmer)
	return farm.Hash64WithSeed(buf[:], seed)
}

// HighwayHasher is an alternate Hasher backed by
// github.com/minio/highwayhash (a direct teacher dependency otherwise left
// unbound; see SPEC_FULL.md's domain stack table).
type HighwayHasher struct{}

func highwayKey(seed uint64) []byte {
	key := make([]byte, highwayhash.Size)
	for i := 0; i < len(key); i += 8 {
		binary.LittleEndian.PutUint64(key[i:i+8], seed+uint64(i))
	}
	return key
}

func (HighwayHasher) Hash(mmer, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], mmer)
	h, err := highwayhash.New64(highwayKey(seed))
	if err != nil {
		// highwayKey always returns exactly highwayhash.Size bytes.
		panic(err)
	}
	h.Write(buf[:]) // nolint: errcheck
	return h.Sum64()
}

// SeaHasher is an alternate Hasher backed by blainsmith.com/go/seahash (a
// direct teacher dependency otherwise left unbound). SeaHash itself is
// unseeded, so the seed is folded into the hashed bytes.
type SeaHasher struct{}

func (SeaHasher) Hash(mmer, seed uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], mmer)
	binary.LittleEndian.PutUint64(buf[8:16], seed)
	return seahash.Sum64(buf[:])
}

// HasherName returns the stable name of one of this package's Hasher
// implementations, for persisting which backend an Index was built with
// (spec.md §6's "Persisted state").
func HasherName(h Hasher) (string, error) {
	switch h.(type) {
	case FarmHasher:
		return "farm", nil
	case HighwayHasher:
		return "highway", nil
	case SeaHasher:
		return "sea", nil
	default:
		return "", fmt.Errorf("minimizer: HasherName: unregistered Hasher type %T", h)
	}
}

// HasherByName reconstructs a Hasher from the name HasherName produced.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "farm":
		return FarmHasher{}, nil
	case "highway":
		return HighwayHasher{}, nil
	case "sea":
		return SeaHasher{}, nil
	default:
		return nil, fmt.Errorf("minimizer: HasherByName: unknown hasher %q", name)
	}
}
