package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

const (
	magic         = "MCHK"
	formatVersion = 1
	headerLen     = 16
)

var ErrFormat = errors.New("not a chunk file")

// Header is the fixed 16 byte prefix of an encoded chunk:
// magic, version, encoding, bpp, w, h, d, palette generation, payload length.
type Header struct {
	Version    uint8
	Encoding   Encoding
	BPP        uint8
	W, H, D    uint8
	Generation uint16
	PayloadLen uint32
}

// BPPFor returns the bits needed to store palette indices up to n.
func BPPFor(n int) uint8 {
	b := uint8(bits.Len(uint(n)))
	return min(max(b, 1), 8)
}

// Marshal encodes g with the smallest layout. generation tags the palette
// the indices refer to.
func Marshal(g *Grid, bpp uint8, generation uint16) ([]byte, error) {
	bpp = min(max(bpp, 1), 8)
	if need := BPPFor(int(g.MaxIndex())); need > bpp {
		return nil, fmt.Errorf("chunk uses index %d which needs %d bits, have %d", g.MaxIndex(), need, bpp)
	}
	enc, err := bestEncoding(g, bpp)
	if err != nil {
		return nil, err
	}
	hdr := Header{Version: formatVersion, BPP: bpp, W: Size, H: Size, D: Size, Generation: generation}
	return Build(hdr, enc.encoding, enc.payload), nil
}

// Build assembles a chunk file from a header and an already encoded payload.
func Build(h Header, enc Encoding, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, h.Version)
	_ = binary.Write(&buf, binary.LittleEndian, uint8(enc))
	_ = binary.Write(&buf, binary.LittleEndian, h.BPP)
	_ = binary.Write(&buf, binary.LittleEndian, h.W)
	_ = binary.Write(&buf, binary.LittleEndian, h.H)
	_ = binary.Write(&buf, binary.LittleEndian, h.D)
	_ = binary.Write(&buf, binary.LittleEndian, h.Generation)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	_, _ = buf.Write(payload)
	return buf.Bytes()
}

// ParseHeader splits a chunk file into its header and payload.
func ParseHeader(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < headerLen || string(data[:4]) != magic {
		return h, nil, ErrFormat
	}
	h.Version = data[4]
	if h.Version != formatVersion {
		return h, nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.Version)
	}
	h.Encoding = Encoding(data[5])
	h.BPP = data[6]
	h.W, h.H, h.D = data[7], data[8], data[9]
	h.Generation = binary.LittleEndian.Uint16(data[10:12])
	h.PayloadLen = binary.LittleEndian.Uint32(data[12:16])
	if h.W != Size || h.H != Size || h.D != Size {
		return h, nil, fmt.Errorf("%w: dimensions %dx%dx%d", ErrFormat, h.W, h.H, h.D)
	}
	if h.BPP < 1 || h.BPP > 8 {
		return h, nil, fmt.Errorf("%w: bpp %d", ErrFormat, h.BPP)
	}
	if uint32(len(data)-headerLen) != h.PayloadLen {
		return h, nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrFormat, len(data)-headerLen, h.PayloadLen)
	}
	return h, data[headerLen:], nil
}

// Unmarshal decodes a chunk file.
func Unmarshal(data []byte) (*Grid, Header, error) {
	h, payload, err := ParseHeader(data)
	if err != nil {
		return nil, h, err
	}
	g, err := decodePayload(h.Encoding, h.BPP, payload)
	if err != nil {
		return nil, h, fmt.Errorf("chunk payload (%s): %w", h.Encoding, err)
	}
	return g, h, nil
}
