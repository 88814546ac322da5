package chunk

import (
	"encoding/binary"
	"io"
)

// bitWriter packs fixed width values LSB first. Whole 64-bit words are
// flushed little endian, which yields the same stream as byte-wise packing.
type bitWriter struct {
	buf  []byte
	word uint64
	used uint
}

func newBitWriter() *bitWriter { return &bitWriter{buf: make([]byte, 0, 256)} }

func (w *bitWriter) put(v uint64, width uint8) {
	v &= 1<<width - 1
	w.word |= v << w.used
	free := 64 - w.used
	if uint(width) < free {
		w.used += uint(width)
		return
	}
	w.buf = binary.LittleEndian.AppendUint64(w.buf, w.word)
	// shifting by 64 yields 0
	w.word = v >> free
	w.used = uint(width) - free
}

// flush returns the packed bytes, padding the last byte with zero bits.
func (w *bitWriter) flush() []byte {
	for ; w.used > 0; w.used -= min(w.used, 8) {
		w.buf = append(w.buf, byte(w.word))
		w.word >>= 8
	}
	return w.buf
}

type bitReader struct {
	data []byte
	off  uint // in bits
}

func newBitReader(b []byte) *bitReader { return &bitReader{data: b} }

func (r *bitReader) take(width uint8) (uint64, error) {
	if r.off+uint(width) > uint(len(r.data))*8 {
		return 0, io.ErrUnexpectedEOF
	}
	var v uint64
	for got := uint(0); got < uint(width); {
		shift := r.off % 8
		n := min(8-shift, uint(width)-got)
		v |= uint64(r.data[r.off/8]>>shift) & (1<<n - 1) << got
		got += n
		r.off += n
	}
	return v, nil
}
