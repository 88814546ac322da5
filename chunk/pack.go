package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// PackCompression is the codec applied to the whole content section of a pack.
type PackCompression uint8

const (
	PackCompNone PackCompression = 0
	PackCompZlib PackCompression = 1
	PackCompZstd PackCompression = 2
)

func (c PackCompression) String() string {
	switch c {
	case PackCompNone:
		return "none"
	case PackCompZlib:
		return "zlib"
	case PackCompZstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParsePackCompression maps a codec name to its value.
func ParsePackCompression(s string) (PackCompression, error) {
	for _, c := range []PackCompression{PackCompNone, PackCompZlib, PackCompZstd} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown pack compression %q", s)
}

// PackLayout is how the content section stores entry payloads.
type PackLayout uint8

const (
	// LayoutRaw stores each payload as an independent blob.
	LayoutRaw PackLayout = 0
	// LayoutCDC stores a dictionary of content-defined blocks shared between
	// entries, and each entry as a list of block references.
	LayoutCDC PackLayout = 1
)

const (
	packMagic   = "MCHKPACK"
	packVersion = 1

	cdcTarget = 4096
	cdcMin    = 2048
	cdcMax    = 16384
)

// PackEntry is one chunk inside a pack. Name is chosen by the writer; world
// packs use "<dimension>/<x>.<y>.<z>".
type PackEntry struct {
	Name     string
	Encoding Encoding
	Payload  []byte
}

// PackHeader holds the header fields every entry shares.
type PackHeader struct {
	BPP        uint8
	Generation uint16
}

// Pack is a region archive of encoded chunks.
type Pack struct {
	Header  PackHeader
	Entries []PackEntry
	// Meta is free-form bytes stored ahead of the entries, e.g. a palette.
	Meta []byte
}

// Add appends an encoded chunk file. Its bpp and generation must match the
// pack's.
func (p *Pack) Add(name string, data []byte) error {
	h, payload, err := ParseHeader(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(p.Entries) == 0 && p.Header == (PackHeader{}) {
		p.Header = PackHeader{BPP: h.BPP, Generation: h.Generation}
	}
	if h.BPP != p.Header.BPP || h.Generation != p.Header.Generation {
		return fmt.Errorf("%s: header (bpp %d, generation %d) differs from pack (bpp %d, generation %d)",
			name, h.BPP, h.Generation, p.Header.BPP, p.Header.Generation)
	}
	p.Entries = append(p.Entries, PackEntry{Name: name, Encoding: h.Encoding, Payload: payload})
	return nil
}

// Chunk rebuilds the chunk file of entry i.
func (p *Pack) Chunk(i int) []byte {
	e := p.Entries[i]
	h := Header{Version: formatVersion, BPP: p.Header.BPP, W: Size, H: Size, D: Size, Generation: p.Header.Generation}
	return Build(h, e.Encoding, e.Payload)
}

// Grid decodes entry i.
func (p *Pack) Grid(i int) (*Grid, error) {
	e := p.Entries[i]
	return decodePayload(e.Encoding, p.Header.BPP, e.Payload)
}

// PayloadSize sums the entry payload lengths.
func (p *Pack) PayloadSize() int {
	n := 0
	for _, e := range p.Entries {
		n += len(e.Payload)
	}
	return n
}

// Marshal encodes the pack.
func (p *Pack) Marshal(layout PackLayout, comp PackCompression) ([]byte, error) {
	var content bytes.Buffer
	_ = binary.Write(&content, binary.LittleEndian, p.Header.BPP)
	_ = binary.Write(&content, binary.LittleEndian, p.Header.Generation)
	_ = binary.Write(&content, binary.LittleEndian, uint32(len(p.Meta)))
	_, _ = content.Write(p.Meta)
	_ = binary.Write(&content, binary.LittleEndian, uint8(layout))

	writeName := func(name string) error {
		if len(name) > 0xFFFF {
			return fmt.Errorf("entry name too long: %d bytes", len(name))
		}
		_ = binary.Write(&content, binary.LittleEndian, uint16(len(name)))
		_, _ = content.WriteString(name)
		return nil
	}

	switch layout {
	case LayoutRaw:
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(p.Entries)))
		for _, e := range p.Entries {
			if err := writeName(e.Name); err != nil {
				return nil, err
			}
			_ = binary.Write(&content, binary.LittleEndian, uint8(e.Encoding))
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(e.Payload)))
			_, _ = content.Write(e.Payload)
		}
	case LayoutCDC:
		_ = binary.Write(&content, binary.LittleEndian, uint32(cdcTarget))
		_ = binary.Write(&content, binary.LittleEndian, uint32(cdcMin))
		_ = binary.Write(&content, binary.LittleEndian, uint32(cdcMax))

		dict, sequences := buildCDCIndex(p.Entries, cdcTarget, cdcMin, cdcMax)
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(dict)))
		for _, blk := range dict {
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(blk)))
			_, _ = content.Write(blk)
		}
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(p.Entries)))
		for i, e := range p.Entries {
			if err := writeName(e.Name); err != nil {
				return nil, err
			}
			_ = binary.Write(&content, binary.LittleEndian, uint8(e.Encoding))
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(e.Payload)))
			seq := sequences[i]
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(seq)))
			for _, idx := range seq {
				_ = binary.Write(&content, binary.LittleEndian, uint32(idx))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported pack layout %d", layout)
	}

	var body []byte
	switch comp {
	case PackCompNone:
		body = content.Bytes()
	case PackCompZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(content.Bytes()); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	case PackCompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		body = enc.EncodeAll(content.Bytes(), nil)
		_ = enc.Close()
	default:
		return nil, fmt.Errorf("unsupported pack compression %d", comp)
	}

	var out bytes.Buffer
	out.Grow(len(packMagic) + 2 + len(body))
	out.WriteString(packMagic)
	out.WriteByte(packVersion)
	out.WriteByte(byte(comp))
	_, _ = out.Write(body)
	return out.Bytes(), nil
}

// UnmarshalPack parses a pack and reports the compression it used.
func UnmarshalPack(data []byte) (*Pack, PackCompression, error) {
	if len(data) < len(packMagic)+2 || string(data[:len(packMagic)]) != packMagic {
		return nil, 0, fmt.Errorf("%w: bad pack magic", ErrFormat)
	}
	if v := data[len(packMagic)]; v != packVersion {
		return nil, 0, fmt.Errorf("%w: unsupported pack version %d", ErrFormat, v)
	}
	comp := PackCompression(data[len(packMagic)+1])
	body := data[len(packMagic)+2:]
	switch comp {
	case PackCompNone:
	case PackCompZlib:
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, 0, err
		}
		defer zr.Close()
		b, err := io.ReadAll(zr)
		if err != nil {
			return nil, 0, err
		}
		body = b
	case PackCompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, 0, err
		}
		defer dec.Close()
		b, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, 0, err
		}
		body = b
	default:
		return nil, 0, fmt.Errorf("%w: unknown pack compression %d", ErrFormat, comp)
	}

	r := bytes.NewReader(body)
	read := func(v any) error { return binary.Read(r, binary.LittleEndian, v) }
	readBytes := func(n uint32) ([]byte, error) {
		if int64(n) > int64(r.Len()) {
			return nil, io.ErrUnexpectedEOF
		}
		b := make([]byte, n)
		_, err := io.ReadFull(r, b)
		return b, err
	}
	readName := func() (string, error) {
		var n uint16
		if err := read(&n); err != nil {
			return "", err
		}
		b, err := readBytes(uint32(n))
		return string(b), err
	}

	p := &Pack{}
	if err := read(&p.Header.BPP); err != nil {
		return nil, 0, err
	}
	if err := read(&p.Header.Generation); err != nil {
		return nil, 0, err
	}
	var metaLen uint32
	if err := read(&metaLen); err != nil {
		return nil, 0, err
	}
	meta, err := readBytes(metaLen)
	if err != nil {
		return nil, 0, err
	}
	if metaLen > 0 {
		p.Meta = meta
	}
	var layout uint8
	if err := read(&layout); err != nil {
		return nil, 0, err
	}

	switch PackLayout(layout) {
	case LayoutRaw:
		var n uint32
		if err := read(&n); err != nil {
			return nil, 0, err
		}
		for i := uint32(0); i < n; i++ {
			name, err := readName()
			if err != nil {
				return nil, 0, err
			}
			var enc uint8
			var plen uint32
			if err := read(&enc); err != nil {
				return nil, 0, err
			}
			if err := read(&plen); err != nil {
				return nil, 0, err
			}
			payload, err := readBytes(plen)
			if err != nil {
				return nil, 0, err
			}
			p.Entries = append(p.Entries, PackEntry{Name: name, Encoding: Encoding(enc), Payload: payload})
		}
	case LayoutCDC:
		var target, minSz, maxSz uint32
		for _, v := range []*uint32{&target, &minSz, &maxSz} {
			if err := read(v); err != nil {
				return nil, 0, err
			}
		}
		var nBlocks uint32
		if err := read(&nBlocks); err != nil {
			return nil, 0, err
		}
		blocks := make([][]byte, 0, min(nBlocks, 1<<16))
		for i := uint32(0); i < nBlocks; i++ {
			var blen uint32
			if err := read(&blen); err != nil {
				return nil, 0, err
			}
			b, err := readBytes(blen)
			if err != nil {
				return nil, 0, err
			}
			blocks = append(blocks, b)
		}
		var n uint32
		if err := read(&n); err != nil {
			return nil, 0, err
		}
		for i := uint32(0); i < n; i++ {
			name, err := readName()
			if err != nil {
				return nil, 0, err
			}
			var enc uint8
			var rawLen, seqLen uint32
			if err := read(&enc); err != nil {
				return nil, 0, err
			}
			if err := read(&rawLen); err != nil {
				return nil, 0, err
			}
			if err := read(&seqLen); err != nil {
				return nil, 0, err
			}
			payload := make([]byte, 0, rawLen)
			for j := uint32(0); j < seqLen; j++ {
				var idx uint32
				if err := read(&idx); err != nil {
					return nil, 0, err
				}
				if idx >= nBlocks {
					return nil, 0, fmt.Errorf("%w: block reference %d of %d", ErrFormat, idx, nBlocks)
				}
				payload = append(payload, blocks[idx]...)
				if uint64(len(payload)) > uint64(rawLen)+uint64(maxSz) {
					return nil, 0, fmt.Errorf("%w: entry %q overruns its length", ErrFormat, name)
				}
			}
			if uint32(len(payload)) != rawLen {
				return nil, 0, fmt.Errorf("%w: entry %q is %d bytes, want %d", ErrFormat, name, len(payload), rawLen)
			}
			p.Entries = append(p.Entries, PackEntry{Name: name, Encoding: Encoding(enc), Payload: payload})
		}
	default:
		return nil, 0, fmt.Errorf("%w: unknown pack layout %d", ErrFormat, layout)
	}
	return p, comp, nil
}

// gearTable is derived from xxhash so every writer cuts at the same places.
var gearTable = func() [256]uint64 {
	var gear [256]uint64
	seed := xxhash.Sum64String("mchk-cdc-gear-seed")
	for i := range gear {
		var b [16]byte
		binary.LittleEndian.PutUint64(b[:8], seed+uint64(i)*0x9E3779B185EBCA87)
		binary.LittleEndian.PutUint64(b[8:], ^(seed + uint64(i)*0xC2B2AE3D27D4EB4F))
		v := xxhash.Sum64(b[:])
		if v == 0 {
			v = 0x9E3779B185EBCA87
		}
		gear[i] = v
	}
	return gear
}()

// buildCDCIndex cuts every payload at content-defined boundaries and returns
// the unique blocks plus, per entry, the block indices that rebuild it.
func buildCDCIndex(entries []PackEntry, target, minSz, maxSz int) ([][]byte, [][]int) {
	blocks := make([][]byte, 0, 256)
	index := make(map[uint64]int, 1024)
	seqs := make([][]int, len(entries))

	pow := 1 << int(math.Round(math.Log2(float64(target))))
	mask := uint64(pow - 1)

	addBlock := func(b []byte) int {
		h := xxhash.Sum64(b)
		if idx, ok := index[h]; ok && bytes.Equal(blocks[idx], b) {
			return idx
		}
		idx := len(blocks)
		blocks = append(blocks, append([]byte(nil), b...))
		index[h] = idx
		return idx
	}

	for i, e := range entries {
		data := e.Payload
		var seq []int
		start := 0
		var h uint64
		for pos := 0; pos < len(data); pos++ {
			h = h<<1 + gearTable[data[pos]]
			if pos-start+1 < minSz {
				continue
			}
			if h&mask == 0 || pos-start+1 >= maxSz {
				seq = append(seq, addBlock(data[start:pos+1]))
				start = pos + 1
				h = 0
			}
		}
		if start < len(data) {
			seq = append(seq, addBlock(data[start:]))
		}
		seqs[i] = seq
	}
	return blocks, seqs
}
