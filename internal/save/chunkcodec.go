// Package save implements the facade over the region file store that
// serializes whole entities — chunks, world metadata, player data — per
// §4.3.
package save

import (
	"encoding/binary"
	"fmt"

	"voxelcore/internal/coreerr"
	"voxelcore/internal/world"
)

const chunkPayloadVersion = 1

const (
	blockFormDense byte = 0
	blockFormRLE   byte = 1
)

const denseBlockCount = world.ChunkSizeX * world.WorldHeight * world.ChunkSizeZ

// encodeChunkPayload serializes coord+snap into §4.3's chunk payload:
// version byte, (cx, cz), a block-array form flag, then the blocks in
// whichever of dense/RLE form is smaller, followed by the sparse
// snow/water ancillary records.
func encodeChunkPayload(coord world.ChunkCoord, snap *world.ChunkSnapshot) []byte {
	dense := snap.Blocks
	rle := runLengthEncode(dense)

	form := blockFormDense
	if len(rle)*4 < len(dense)*2 {
		form = blockFormRLE
	}

	buf := make([]byte, 0, 9+len(dense)*2)
	buf = append(buf, chunkPayloadVersion)
	buf = appendInt32LE(buf, coord.CX)
	buf = appendInt32LE(buf, coord.CZ)
	buf = append(buf, form)

	switch form {
	case blockFormDense:
		buf = appendUint32(buf, uint32(len(dense)))
		for _, b := range dense {
			buf = appendUint16(buf, uint16(b))
		}
	case blockFormRLE:
		buf = appendUint32(buf, uint32(len(rle)))
		for _, run := range rle {
			buf = appendUint16(buf, run.count)
			buf = appendUint16(buf, uint16(run.block))
		}
	}

	buf = appendUint16(buf, uint16(len(snap.Snow)))
	for _, s := range snap.Snow {
		buf = append(buf, s.LX, s.LZ)
		buf = appendUint16(buf, s.Y)
		buf = append(buf, s.Layers)
	}

	buf = appendUint16(buf, uint16(len(snap.Water)))
	for _, w := range snap.Water {
		buf = append(buf, w.LX, w.LZ)
		buf = appendUint16(buf, w.Y)
		buf = append(buf, w.Level, w.Flags)
	}

	if snap.FeaturesPopulated {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	return buf
}

// decodeChunkPayload is the inverse of encodeChunkPayload. It validates
// the embedded (cx, cz) against want and rejects the payload on mismatch
// per §4.3's recovery policy.
func decodeChunkPayload(data []byte, want world.ChunkCoord) (*world.ChunkSnapshot, error) {
	r := &reader{buf: data}

	version, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}
	if version != chunkPayloadVersion {
		return nil, fmt.Errorf("save: unsupported chunk payload version %d: %w", version, coreerr.ErrCorrupt)
	}

	cx, err := r.int32LE()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}
	cz, err := r.int32LE()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}
	if cx != want.CX || cz != want.CZ {
		return nil, fmt.Errorf("save: chunk payload coordinate mismatch: got (%d,%d) want (%d,%d): %w",
			cx, cz, want.CX, want.CZ, coreerr.ErrCorrupt)
	}

	form, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}

	var blocks []world.BlockType
	switch form {
	case blockFormDense:
		n, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		if n != denseBlockCount {
			return nil, fmt.Errorf("save: dense block count %d != %d: %w", n, denseBlockCount, coreerr.ErrCorrupt)
		}
		blocks = make([]world.BlockType, n)
		for i := range blocks {
			v, err := r.uint16()
			if err != nil {
				return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
			}
			blocks[i] = world.BlockType(v)
		}
	case blockFormRLE:
		runCount, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		blocks = make([]world.BlockType, 0, denseBlockCount)
		for i := uint32(0); i < runCount; i++ {
			count, err := r.uint16()
			if err != nil {
				return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
			}
			block, err := r.uint16()
			if err != nil {
				return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
			}
			for j := uint16(0); j < count; j++ {
				blocks = append(blocks, world.BlockType(block))
			}
		}
		if len(blocks) != denseBlockCount {
			return nil, fmt.Errorf("save: RLE block count %d != %d: %w", len(blocks), denseBlockCount, coreerr.ErrCorrupt)
		}
	default:
		return nil, fmt.Errorf("save: unknown block form %d: %w", form, coreerr.ErrCorrupt)
	}

	snowCount, err := r.uint16()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}
	snow := make([]world.SnowEntry, snowCount)
	for i := range snow {
		lx, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		lz, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		y, err := r.uint16()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		layers, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		snow[i] = world.SnowEntry{LX: lx, LZ: lz, Y: y, Layers: layers}
	}

	waterCount, err := r.uint16()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}
	water := make([]world.WaterEntry, waterCount)
	for i := range water {
		lx, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		lz, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		y, err := r.uint16()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		level, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		flags, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
		}
		water[i] = world.WaterEntry{LX: lx, LZ: lz, Y: y, Level: level, Flags: flags}
	}

	featuresPopulated, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("save: chunk payload: %w: %w", err, coreerr.ErrCorrupt)
	}

	return &world.ChunkSnapshot{
		Blocks:            blocks,
		Snow:              snow,
		Water:             water,
		FeaturesPopulated: featuresPopulated != 0,
	}, nil
}

type blockRun struct {
	count uint16
	block world.BlockType
}

// runLengthEncode groups consecutive identical blocks. Run lengths
// longer than a uint16 are split into multiple runs.
func runLengthEncode(blocks []world.BlockType) []blockRun {
	if len(blocks) == 0 {
		return nil
	}
	var runs []blockRun
	cur := blocks[0]
	count := uint16(1)
	for _, b := range blocks[1:] {
		if b == cur && count < 0xFFFF {
			count++
			continue
		}
		runs = append(runs, blockRun{count: count, block: cur})
		cur = b
		count = 1
	}
	runs = append(runs, blockRun{count: count, block: cur})
	return runs
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// appendInt32LE encodes cx/cz little-endian per the chunk payload's
// coordinate fields; the rest of the format carries no endianness
// annotation and stays big-endian above.
func appendInt32LE(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}
func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// reader is a small bounds-checked cursor over an encoded payload.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) byte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of payload")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of payload")
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of payload")
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// int32LE reads a little-endian int32, used only for the payload's cx/cz
// coordinate fields.
func (r *reader) int32LE() (int32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("unexpected end of payload")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return int32(v), nil
}
