// Package seq provides the nucleotide alphabet encoding and the packed
// m-mer/k-mer integer arithmetic shared by the minimizer scanner and the
// MPHF query engine.
package seq

// Base is a 2-bit-encoded nucleotide: A=0, C=1, G=2, T=3.
type Base uint8

const (
	A Base = 0
	C Base = 1
	G Base = 2
	T Base = 3

	// InvalidBase marks a byte that is not one of {A,C,G,T,a,c,g,t}: a
	// break in spec.md's terminology.
	InvalidBase = Base(0xff)
)

var (
	asciiToBase           [256]Base
	asciiToComplementBase [256]Base
)

func init() {
	for i := range asciiToBase {
		asciiToBase[i] = InvalidBase
		asciiToComplementBase[i] = InvalidBase
	}
	set := func(ch byte, b, comp Base) {
		asciiToBase[ch] = b
		asciiToComplementBase[ch] = comp
	}
	set('A', A, T)
	set('a', A, T)
	set('C', C, G)
	set('c', C, G)
	set('G', G, C)
	set('g', G, C)
	set('T', T, A)
	set('t', T, A)
}

// EncodeBase maps an ASCII byte to its 2-bit code. ok is false for any byte
// outside {A,C,G,T,a,c,g,t} (spec.md's "break").
func EncodeBase(ch byte) (b Base, ok bool) {
	b = asciiToBase[ch]
	return b, b != InvalidBase
}

// ComplementBase returns the Watson-Crick complement of a 2-bit base.
func ComplementBase(b Base) Base { return 3 ^ b }

// complementCode is like EncodeBase, but returns the complement's 2-bit
// code directly, avoiding a second table lookup in the reverse-complement
// shift-in hot path (mirrors fusion/kmer.go's
// asciiToReverseComplementKmerMap).
func complementCode(ch byte) (b Base, ok bool) {
	b = asciiToComplementBase[ch]
	return b, b != InvalidBase
}

// EncodeComplement is the exported form of complementCode, used by callers
// outside this package that need the same fast path (e.g. the minimizer
// scanner's reverse-complement shift-in).
func EncodeComplement(ch byte) (Base, bool) { return complementCode(ch) }

// MMerMask returns the bitmask selecting the low 2*m bits used to keep a
// forward m-mer within m bases as new bases are shifted in.
func MMerMask(m int) uint64 {
	if 2*m >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(2*m)) - 1
}

// SelectStrand implements spec.md §3's canonical tie-break: "ties keep the
// previously chosen strand". forward/reverse are the current forward and
// reverse-complement packed values; prev is the previously selected strand
// (0 = forward, 1 = reverse). It returns the strand to use now.
func SelectStrand(forward, reverse uint64, prev uint8) uint8 {
	if forward == reverse {
		return prev
	}
	if forward < reverse {
		return 0
	}
	return 1
}

// Wide is a 128-bit unsigned integer used to pack k-mers with k up to 64
// (2k up to 128 bits), following spec.md §9's "wide integers for k-mers"
// design note. Hi holds the high 64 bits, Lo the low 64 bits.
type Wide struct {
	Hi, Lo uint64
}

// Less implements the "lexicographically smaller packed value" total order
// of spec.md §3 (Hi is more significant than Lo, matching how bases are
// shifted in from the most-significant end).
func (w Wide) Less(o Wide) bool {
	if w.Hi != o.Hi {
		return w.Hi < o.Hi
	}
	return w.Lo < o.Lo
}

func (w Wide) Equal(o Wide) bool { return w.Hi == o.Hi && w.Lo == o.Lo }

// WideMask returns the bitmask selecting the low 2*k bits of a Wide k-mer.
func WideMask(k int) Wide {
	width := 2 * k
	switch {
	case width >= 128:
		return Wide{^uint64(0), ^uint64(0)}
	case width > 64:
		return Wide{(uint64(1) << uint(width-64)) - 1, ^uint64(0)}
	case width == 64:
		return Wide{0, ^uint64(0)}
	default:
		return Wide{0, (uint64(1) << uint(width)) - 1}
	}
}

// And returns w & mask.
func (w Wide) And(mask Wide) Wide { return Wide{w.Hi & mask.Hi, w.Lo & mask.Lo} }

// ShiftLeft2AndMask shifts w left by 2 bits, ORs in base (0..3) at the low
// end, and masks to the low 2*k bits: the forward-strand shift-in of
// spec.md §4.1/§4.5 generalized from uint64 to Wide.
func (w Wide) ShiftLeft2AndMask(base Base, mask Wide) Wide {
	nhi := (w.Hi << 2) | (w.Lo >> 62)
	nlo := (w.Lo << 2) | uint64(base)
	return Wide{nhi, nlo}.And(mask)
}

// ShiftRight2AndSet shifts w right by 2 bits and ORs in base (0..3) at the
// position vacated at the top of a k-base window (bit offset 2*(k-1)): the
// reverse-complement shift-in.
func (w Wide) ShiftRight2AndSet(base Base, k int) Wide {
	nlo := (w.Lo >> 2) | (w.Hi << 62)
	nhi := w.Hi >> 2
	shift := uint(2 * (k - 1))
	if shift >= 64 {
		nhi |= uint64(base) << uint(shift-64)
	} else {
		nlo |= uint64(base) << shift
	}
	return Wide{nhi, nlo}
}

// SelectStrandWide is the Wide analog of SelectStrand.
func SelectStrandWide(forward, reverse Wide, prev uint8) uint8 {
	if forward.Equal(reverse) {
		return prev
	}
	if forward.Less(reverse) {
		return 0
	}
	return 1
}

// PackForward packs an all-ACGT string into a Wide value with no
// reverse-complement tracking; used by the slow reference path
// (mphf.DumbEvaluate) to recompute a k-mer's value directly from its
// string, mirroring original_source's debug::string_to_integer_no_reverse.
// ok is false if s contains a non-ACGT byte.
func PackForward(s string) (Wide, bool) {
	var v Wide
	mask := WideMask(len(s))
	for i := 0; i < len(s); i++ {
		b, ok := EncodeBase(s[i])
		if !ok {
			return Wide{}, false
		}
		v = v.ShiftLeft2AndMask(b, mask)
	}
	return v, true
}

// PackForward64 is PackForward specialized for m-mers, which always fit in
// a uint64 (spec.md §3: 2m <= 64).
func PackForward64(s string) (uint64, bool) {
	var v uint64
	mask := MMerMask(len(s))
	for i := 0; i < len(s); i++ {
		b, ok := EncodeBase(s[i])
		if !ok {
			return 0, false
		}
		v = ((v << 2) | uint64(b)) & mask
	}
	return v, true
}

// ReverseComplement64 returns the reverse complement of the packed m-mer v
// (width 2*m bits), used by tests and by mphf's reference minimizer
// computation.
func ReverseComplement64(v uint64, m int) uint64 {
	var r uint64
	for i := 0; i < m; i++ {
		base := Base(v & 3)
		v >>= 2
		r = (r << 2) | uint64(ComplementBase(base))
	}
	return r
}

// ReverseComplementWide is ReverseComplement64 generalized to a Wide
// k-mer, used by mphf.DumbEvaluate's independent reference computation to
// re-derive the canonical orientation of a whole k-mer. v must be packed by
// PackForward (or equivalent repeated ShiftLeft2AndMask calls) over k bases.
func ReverseComplementWide(v Wide, k int) Wide {
	mask := WideMask(k)
	var r Wide
	for i := 0; i < k; i++ {
		base := Base(v.Lo & 3)
		v = Wide{v.Hi >> 2, (v.Lo >> 2) | (v.Hi << 62)}
		r = r.ShiftLeft2AndMask(ComplementBase(base), mask)
	}
	return r
}
