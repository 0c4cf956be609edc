package format

import "encoding/binary"

// Bounds-checked integer reads over raw dump bytes. Memory images are
// routinely truncated mid-structure, so every read reports failure instead
// of panicking on short input.

// U16LE reads a little-endian uint16 at off.
func U16LE(data []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(data[off:]), true
}

// U16BE reads a big-endian uint16 at off.
func U16BE(data []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(data) {
		return 0, false
	}
	return binary.BigEndian.Uint16(data[off:]), true
}

// U32LE reads a little-endian uint32 at off.
func U32LE(data []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[off:]), true
}

// U32BE reads a big-endian uint32 at off.
func U32BE(data []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(data) {
		return 0, false
	}
	return binary.BigEndian.Uint32(data[off:]), true
}

// Bytes returns n bytes at off, or nil if out of range.
func Bytes(data []byte, off, n int) []byte {
	if off < 0 || n < 0 || off+n > len(data) {
		return nil
	}
	return data[off : off+n]
}
