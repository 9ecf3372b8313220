package region

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Region {
	t.Helper()
	path := filepath.Join(t.TempDir(), "r.0.0.mcr")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRegionRoundTrip(t *testing.T) {
	r := openTemp(t)

	cases := []struct {
		lx, lz int
		data   []byte
	}{
		{0, 0, []byte("hello")},
		{31, 31, bytes.Repeat([]byte{0xAB}, 10_000)},
		{5, 17, []byte{}},
		{1, 1, bytes.Repeat([]byte{0x00}, 4096)}, // compresses well
	}

	for _, c := range cases {
		if err := r.WriteChunk(c.lx, c.lz, c.data); err != nil {
			t.Fatalf("WriteChunk(%d,%d): %v", c.lx, c.lz, err)
		}
	}
	for _, c := range cases {
		got, ok, err := r.ReadChunk(c.lx, c.lz)
		if err != nil {
			t.Fatalf("ReadChunk(%d,%d): %v", c.lx, c.lz, err)
		}
		if !ok {
			t.Fatalf("ReadChunk(%d,%d): expected ok", c.lx, c.lz)
		}
		if !bytes.Equal(got, c.data) {
			t.Fatalf("ReadChunk(%d,%d): got %d bytes, want %d", c.lx, c.lz, len(got), len(c.data))
		}
	}
}

func TestRegionRoundTripRandomized(t *testing.T) {
	r := openTemp(t)
	rng := rand.New(rand.NewSource(1))

	want := make(map[[2]int][]byte)
	for i := 0; i < 40; i++ {
		lx, lz := rng.Intn(RegionSide), rng.Intn(RegionSide)
		data := make([]byte, rng.Intn(8192))
		rng.Read(data)
		if err := r.WriteChunk(lx, lz, data); err != nil {
			t.Fatalf("WriteChunk: %v", err)
		}
		want[[2]int{lx, lz}] = data
	}

	for k, data := range want {
		got, ok, err := r.ReadChunk(k[0], k[1])
		if err != nil || !ok {
			t.Fatalf("ReadChunk(%v): ok=%v err=%v", k, ok, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("ReadChunk(%v): mismatch", k)
		}
	}
}

func TestRegionMissingSlotReadsEmpty(t *testing.T) {
	r := openTemp(t)
	_, ok, err := r.ReadChunk(3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected an untouched slot to read as empty")
	}
	if r.HasChunk(3, 4) {
		t.Fatal("expected HasChunk to be false for an untouched slot")
	}
}

func TestRegionIdempotentDelete(t *testing.T) {
	r := openTemp(t)
	if err := r.WriteChunk(2, 2, []byte("some payload")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	if err := r.DeleteChunk(2, 2); err != nil {
		t.Fatalf("DeleteChunk: %v", err)
	}
	if r.HasChunk(2, 2) {
		t.Fatal("expected HasChunk to be false after delete")
	}

	// Deleting again is a no-op, not an error.
	if err := r.DeleteChunk(2, 2); err != nil {
		t.Fatalf("second DeleteChunk: %v", err)
	}

	sizeBefore := r.fileSize()
	if err := r.WriteChunk(6, 6, []byte("reuses the freed sectors")); err != nil {
		t.Fatalf("WriteChunk after delete: %v", err)
	}
	if r.fileSize() > sizeBefore {
		t.Fatalf("expected freed sectors to be reused without growing the file: before=%d after=%d", sizeBefore, r.fileSize())
	}
}

func TestRegionCorruptionRecovery(t *testing.T) {
	r := openTemp(t)
	if err := r.WriteChunk(8, 8, bytes.Repeat([]byte{0x42}, 3000)); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	idx := slotIndex(8, 8)
	s := r.hdr.slots[idx]
	// Corrupt the declared length prefix in place so it exceeds the
	// sector run (§4.2's corruption rule).
	corrupt := make([]byte, 4)
	corrupt[0] = 0xFF
	corrupt[1] = 0xFF
	corrupt[2] = 0xFF
	corrupt[3] = 0xFF
	if _, err := r.file.WriteAt(corrupt, int64(s.offset)*SectorSize); err != nil {
		t.Fatalf("corrupt write: %v", err)
	}

	_, ok, err := r.ReadChunk(8, 8)
	if err == nil {
		t.Fatal("expected ReadChunk to report corruption")
	}
	if ok {
		t.Fatal("expected ok=false on corruption")
	}

	if err := r.DeleteChunk(8, 8); err != nil {
		t.Fatalf("DeleteChunk after corruption: %v", err)
	}
	if r.HasChunk(8, 8) {
		t.Fatal("expected slot to be empty after caller deletes the corrupt entry")
	}

	if err := r.WriteChunk(8, 8, []byte("fresh save after recovery")); err != nil {
		t.Fatalf("WriteChunk after recovery: %v", err)
	}
	got, ok, err := r.ReadChunk(8, 8)
	if err != nil || !ok || string(got) != "fresh save after recovery" {
		t.Fatalf("expected recovery write to round-trip, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestRegionRefusesMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mcr")
	if err := os.WriteFile(path, []byte("not a region file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected Open to refuse a file smaller than the header")
	}
}

func TestRegionReopenPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.mcr")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.WriteChunk(9, 10, []byte("persisted across reopen")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	got, ok, err := r2.ReadChunk(9, 10)
	if err != nil || !ok {
		t.Fatalf("ReadChunk after reopen: ok=%v err=%v", ok, err)
	}
	if string(got) != "persisted across reopen" {
		t.Fatalf("got %q", got)
	}
}
