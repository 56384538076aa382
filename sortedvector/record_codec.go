package sortedvector

import (
	"encoding/binary"

	"github.com/lphash-go/lphash/minimizer"
)

const recordWireSize = 8 + 8 + 4 + 4 // Minimizer, ID, P1, Size

func encodeRecords(recs []minimizer.SuperKmerRecord) []byte {
	buf := make([]byte, len(recs)*recordWireSize)
	for i, r := range recs {
		o := i * recordWireSize
		binary.LittleEndian.PutUint64(buf[o:], r.Minimizer)
		binary.LittleEndian.PutUint64(buf[o+8:], r.ID)
		binary.LittleEndian.PutUint32(buf[o+16:], r.P1)
		binary.LittleEndian.PutUint32(buf[o+20:], r.Size)
	}
	return buf
}

func decodeRecords(buf []byte) []minimizer.SuperKmerRecord {
	n := len(buf) / recordWireSize
	recs := make([]minimizer.SuperKmerRecord, n)
	for i := range recs {
		o := i * recordWireSize
		recs[i] = minimizer.SuperKmerRecord{
			Minimizer: binary.LittleEndian.Uint64(buf[o:]),
			ID:        binary.LittleEndian.Uint64(buf[o+8:]),
			P1:        binary.LittleEndian.Uint32(buf[o+16:]),
			Size:      binary.LittleEndian.Uint32(buf[o+20:]),
		}
	}
	return recs
}

func encodeIDs(ids []uint64) []byte {
	buf := make([]byte, len(ids)*8)
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], id)
	}
	return buf
}

func decodeIDs(buf []byte) []uint64 {
	n := len(buf) / 8
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return ids
}
