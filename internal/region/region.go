// Package region implements the byte-exact .mcr region file format (§6):
// a fixed 8 KiB header of slot locations and timestamps followed by
// 4 KiB-aligned payload sectors, one region file per 32x32 chunk area.
package region

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"voxelcore/internal/coreerr"
	"voxelcore/internal/logging"
)

var log = logging.New("region")

// CompressionTag identifies the payload encoding of a stored chunk.
type CompressionTag byte

const (
	CompressionNone CompressionTag = 0
	CompressionZstd CompressionTag = 1
)

// Region is one open .mcr file. Internal mutex serializes writeChunk/
// readChunk/deleteChunk (§4.2); multiple Regions are safe to use from
// separate goroutines in parallel.
type Region struct {
	mu   sync.Mutex
	file *os.File
	hdr  header
	free *freeMap

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens path, creating a well-formed empty region file if it does
// not exist.
func Open(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: stat %s: %w", path, err)
	}

	r := &Region{file: f, free: newFreeMap()}
	if info.Size() == 0 {
		if err := r.initEmpty(); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if err := r.loadHeader(info.Size()); err != nil {
			f.Close()
			return nil, err
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		f.Close()
		enc.Close()
		return nil, fmt.Errorf("region: %w", err)
	}
	r.enc, r.dec = enc, dec
	return r, nil
}

func (r *Region) initEmpty() error {
	buf := make([]byte, HeaderSize)
	if _, err := r.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("region: init header: %w", err)
	}
	r.hdr = header{}
	return nil
}

// loadHeader reads and validates the header of a pre-existing file. A
// malformed header (size not sector-aligned, or a slot whose run extends
// past end-of-file) refuses the open per §4.2's "malformed headers cause
// the repository to refuse to open the file".
func (r *Region) loadHeader(size int64) error {
	if size < HeaderSize || size%SectorSize != 0 {
		return fmt.Errorf("region: malformed file size %d: %w", size, coreerr.ErrCorrupt)
	}
	buf := make([]byte, HeaderSize)
	if _, err := r.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("region: read header: %w", err)
	}
	r.hdr = decodeHeader(buf)

	totalSectors := size / SectorSize
	for i, s := range r.hdr.slots {
		if s.empty() {
			continue
		}
		end := int64(s.offset) + int64(s.count)
		if int64(s.offset) < HeaderSectors || end > totalSectors {
			return fmt.Errorf("region: slot %d sector run out of bounds: %w", i, coreerr.ErrCorrupt)
		}
		r.free.markUsed(s.offset, s.count)
	}
	return nil
}

// HasChunk reports whether a payload is present for (localX, localZ).
func (r *Region) HasChunk(localX, localZ int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.hdr.slots[slotIndex(localX, localZ)].empty()
}

// ReadChunk returns the decompressed payload for (localX, localZ), or
// ok=false if the slot is empty. Corruption (an impossible length prefix)
// is reported via err, per §4.2's recovery policy; the caller decides
// whether to delete the slot.
func (r *Region) ReadChunk(localX, localZ int) (payload []byte, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.hdr.slots[slotIndex(localX, localZ)]
	if s.empty() {
		return nil, false, nil
	}

	runBytes := int(s.count) * SectorSize
	buf := make([]byte, runBytes)
	if _, err := r.file.ReadAt(buf, int64(s.offset)*SectorSize); err != nil {
		return nil, false, fmt.Errorf("region: read sectors: %w: %w", err, coreerr.ErrTransient)
	}

	length := binary.BigEndian.Uint32(buf[0:4])
	if int(length) > runBytes-4 {
		return nil, false, fmt.Errorf("region: declared length %d exceeds sector run: %w", length, coreerr.ErrCorrupt)
	}
	if length < 1 {
		return nil, false, fmt.Errorf("region: zero-length payload record: %w", coreerr.ErrCorrupt)
	}

	tag := CompressionTag(buf[4])
	raw := buf[5 : 4+length]

	switch tag {
	case CompressionNone:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, true, nil
	case CompressionZstd:
		out, err := r.dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, false, fmt.Errorf("region: decompress: %w: %w", err, coreerr.ErrCorrupt)
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("region: unknown compression tag %d: %w", tag, coreerr.ErrCorrupt)
	}
}

// WriteChunk stores payload for (localX, localZ), compressing it with
// zstd when that shrinks the record. On every write the slot's existing
// sectors are freed and a new run is allocated first-fit, whether or not
// the size changed; a record that shrinks is not trimmed in place and
// may move to an earlier free run.
func (r *Region) WriteChunk(localX, localZ int, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag := CompressionNone
	body := payload
	if compressed := r.enc.EncodeAll(payload, nil); len(compressed) < len(payload) {
		tag = CompressionZstd
		body = compressed
	}

	length := uint32(1 + len(body))
	record := make([]byte, 4+length)
	binary.BigEndian.PutUint32(record[0:4], length)
	record[4] = byte(tag)
	copy(record[5:], body)

	needed := sectorsFor(len(body))

	idx := slotIndex(localX, localZ)
	old := r.hdr.slots[idx]
	if !old.empty() {
		r.free.markFree(old.offset, old.count)
	}
	offset := r.free.allocate(needed)

	if end := (int64(offset) + int64(needed)) * SectorSize; end > r.fileSize() {
		if err := r.file.Truncate(end); err != nil {
			return fmt.Errorf("region: grow file: %w", err)
		}
	}

	padded := make([]byte, int(needed)*SectorSize)
	copy(padded, record)
	if _, err := r.file.WriteAt(padded, int64(offset)*SectorSize); err != nil {
		return fmt.Errorf("region: write sectors: %w", err)
	}

	r.hdr.slots[idx] = slot{offset: offset, count: needed}
	return r.writeHeader()
}

// DeleteChunk clears the header entry for (localX, localZ). Sectors
// become free and are reused on the next allocation; the file is never
// compacted (§4.2).
func (r *Region) DeleteChunk(localX, localZ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slotIndex(localX, localZ)
	s := r.hdr.slots[idx]
	if s.empty() {
		return nil
	}
	r.free.markFree(s.offset, s.count)
	r.hdr.slots[idx] = slot{}
	return r.writeHeader()
}

func (r *Region) writeHeader() error {
	if _, err := r.file.WriteAt(r.hdr.encode(), 0); err != nil {
		return fmt.Errorf("region: write header: %w", err)
	}
	return nil
}

func (r *Region) fileSize() int64 {
	info, err := r.file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// Flush fsyncs all pending writes. writeChunk alone is not durable
// (§4.2); callers that need durability call Flush explicitly.
func (r *Region) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("region: sync: %w", err)
	}
	return nil
}

// Close flushes and releases the file handle.
func (r *Region) Close() error {
	if err := r.Flush(); err != nil {
		log.Warn("flush failed on close", logging.ErrAttr(err))
	}
	r.dec.Close()
	r.enc.Close()
	return r.file.Close()
}
