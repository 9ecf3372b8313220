package region

// freeMap tracks which payload sectors (numbered from the end of the
// header) are in use, supporting first-fit allocation (§4.2).
type freeMap struct {
	used []bool // index 0 == first sector after the header
}

func newFreeMap() *freeMap {
	return &freeMap{}
}

func (f *freeMap) ensure(n int) {
	for len(f.used) < n {
		f.used = append(f.used, false)
	}
}

// markUsed reserves [offset, offset+count) sectors (offsets are absolute,
// i.e. already include HeaderSectors).
func (f *freeMap) markUsed(offset uint32, count uint8) {
	idx := int(offset) - HeaderSectors
	f.ensure(idx + int(count))
	for i := 0; i < int(count); i++ {
		f.used[idx+i] = true
	}
}

func (f *freeMap) markFree(offset uint32, count uint8) {
	idx := int(offset) - HeaderSectors
	for i := 0; i < int(count) && idx+i < len(f.used); i++ {
		f.used[idx+i] = false
	}
}

// allocate finds the first run of `count` consecutive free sectors,
// growing the tracked range (and so the file) if none fits. Returns the
// absolute sector offset of the run.
func (f *freeMap) allocate(count uint8) uint32 {
	n := int(count)
	run := 0
	for i, u := range f.used {
		if u {
			run = 0
			continue
		}
		run++
		if run == n {
			start := i - n + 1
			f.markUsed(uint32(start+HeaderSectors), count)
			return uint32(start + HeaderSectors)
		}
	}
	// No fit: append at the end.
	start := len(f.used)
	f.markUsed(uint32(start+HeaderSectors), count)
	return uint32(start + HeaderSectors)
}
