package chunk

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Encoding identifies a payload layout. The Compressed bit marks a zstd
// frame around it.
type Encoding uint8

const (
	Dense  Encoding = 0
	Sparse Encoding = 1
	// Bitmap is a 4096-bit occupancy map followed by the non-air values.
	Bitmap Encoding = 3

	Compressed Encoding = 0x80
)

func (e Encoding) Base() Encoding { return e &^ Compressed }

func (e Encoding) String() string {
	var s string
	switch e.Base() {
	case Dense:
		s = "dense"
	case Sparse:
		s = "sparse"
	case Bitmap:
		s = "bitmap"
	default:
		s = fmt.Sprintf("encoding(%d)", uint8(e.Base()))
	}
	if e&Compressed != 0 {
		s += "+zstd"
	}
	return s
}

const bitmapLen = Volume / 8

type encoded struct {
	encoding Encoding
	payload  []byte
}

func encodeDense(g *Grid, bpp uint8) []byte {
	bw := newBitWriter()
	for _, c := range flatten(g) {
		bw.put(uint64(c), bpp)
	}
	return bw.flush()
}

// encodeSparse writes a 16-bit count then (12-bit rank, value) pairs.
func encodeSparse(g *Grid, bpp uint8) []byte {
	bw := newBitWriter()
	stream := flatten(g)
	count := 0
	for _, c := range stream {
		if c != 0 {
			count++
		}
	}
	bw.put(uint64(count), 16)
	for i, c := range stream {
		if c == 0 {
			continue
		}
		bw.put(uint64(i), 12)
		bw.put(uint64(c), bpp)
	}
	return bw.flush()
}

func encodeBitmap(g *Grid, bpp uint8) []byte {
	stream := flatten(g)
	out := make([]byte, bitmapLen, bitmapLen+Volume)
	bw := newBitWriter()
	for i, v := range stream {
		if v != 0 {
			out[i>>3] |= 1 << (uint(i) & 7)
			bw.put(uint64(v), bpp)
		}
	}
	return append(out, bw.flush()...)
}

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil)
	})
	return zstdEnc, zstdDec, zstdErr
}

func compress(b []byte) ([]byte, error) {
	enc, _, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(b, nil), nil
}

func decompress(b []byte) ([]byte, error) {
	_, dec, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(b, nil)
}

// bestEncoding tries every layout, plain and compressed, and keeps the
// smallest. Ties keep the earlier candidate.
func bestEncoding(g *Grid, bpp uint8) (encoded, error) {
	candidates := []encoded{
		{encoding: Dense, payload: encodeDense(g, bpp)},
		{encoding: Sparse, payload: encodeSparse(g, bpp)},
		{encoding: Bitmap, payload: encodeBitmap(g, bpp)},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.payload) < len(best.payload) {
			best = c
		}
	}
	for _, c := range candidates {
		zb, err := compress(c.payload)
		if err != nil {
			return encoded{}, err
		}
		if len(zb) < len(best.payload) {
			best = encoded{encoding: c.encoding | Compressed, payload: zb}
		}
	}
	return best, nil
}

func decodePayload(enc Encoding, bpp uint8, payload []byte) (*Grid, error) {
	if enc&Compressed != 0 {
		var err error
		payload, err = decompress(payload)
		if err != nil {
			return nil, err
		}
	}
	stream := make([]uint8, Volume)
	switch enc.Base() {
	case Dense:
		br := newBitReader(payload)
		for i := range stream {
			v, err := br.take(bpp)
			if err != nil {
				return nil, err
			}
			stream[i] = uint8(v)
		}
	case Sparse:
		br := newBitReader(payload)
		cnt, err := br.take(16)
		if err != nil {
			return nil, err
		}
		if cnt > Volume {
			return nil, fmt.Errorf("sparse payload claims %d cells", cnt)
		}
		for i := 0; i < int(cnt); i++ {
			idx, err := br.take(12)
			if err != nil {
				return nil, err
			}
			v, err := br.take(bpp)
			if err != nil {
				return nil, err
			}
			stream[idx] = uint8(v)
		}
	case Bitmap:
		if len(payload) < bitmapLen {
			return nil, fmt.Errorf("bitmap payload too short: %d bytes", len(payload))
		}
		bitmap := payload[:bitmapLen]
		br := newBitReader(payload[bitmapLen:])
		for i := range stream {
			if (bitmap[i>>3]>>(uint(i)&7))&1 == 0 {
				continue
			}
			v, err := br.take(bpp)
			if err != nil {
				return nil, err
			}
			stream[i] = uint8(v)
		}
	default:
		return nil, fmt.Errorf("unknown encoding %d", enc.Base())
	}
	g := new(Grid)
	applyOrder(g, stream)
	return g, nil
}
