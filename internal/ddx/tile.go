package ddx

// Console GPU textures are stored tiled: 32x32-block macro tiles with an
// 8x8 micro layout inside, and a bank swizzle applied to the byte address.
// The two functions below compute the tiled byte offset of a block address
// split into its row and column contributions; the row part is hoisted out
// of the inner loop when walking a row of blocks.

// tiledOffsetRow computes the row contribution to a block's tiled byte
// offset. alignedWidth is the surface width in blocks rounded up to the
// macro tile size; logBpb is log2 of the bytes per block.
func tiledOffsetRow(y, alignedWidth int, logBpb uint) int {
	macro := ((y >> 5) * (alignedWidth >> 5)) << (logBpb + 7)
	micro := ((y & 6) << 2) << logBpb
	return macro +
		((micro &^ 15) << 1) +
		(micro & 15) +
		((y & 8) << (3 + logBpb)) +
		((y & 1) << 4)
}

// tiledOffsetColumn folds the column contribution into a row base produced
// by tiledOffsetRow and applies the bank swizzle, yielding the final byte
// offset of block (x, y).
func tiledOffsetColumn(rowBase, x, y int, logBpb uint) int {
	macro := (x >> 5) << (logBpb + 7)
	micro := (x & 7) << logBpb
	offset := rowBase + macro + ((micro &^ 15) << 1) + (micro & 15)
	return ((offset &^ 511) << 3) +
		((offset & 448) << 2) +
		(offset & 63) +
		((y & 16) << 7) +
		(((((y & 8) >> 2) + (x >> 3)) & 3) << 6)
}

// alignBlocks rounds a block count up to the 32-block macro tile boundary.
func alignBlocks(n int) int {
	return (n + 31) &^ 31
}

// Untile copies a tiled surface into linear block order. dst must hold
// widthBlocks*heightBlocks*bytesPerBlock bytes; src is the tiled surface,
// sized to the aligned extent. swap exchanges the bytes of each 16-bit word
// during the copy, undoing big-endian storage. Returns true if any source
// block fell outside src, in which case the missing blocks are left zero and
// the result is partial.
func Untile(dst, src []byte, widthBlocks, heightBlocks, bytesPerBlock int, swap bool) bool {
	logBpb := uint(3)
	if bytesPerBlock == 16 {
		logBpb = 4
	}
	alignedWidth := alignBlocks(widthBlocks)

	truncated := false
	for y := 0; y < heightBlocks; y++ {
		rowBase := tiledOffsetRow(y, alignedWidth, logBpb)
		dstRow := y * widthBlocks * bytesPerBlock
		for x := 0; x < widthBlocks; x++ {
			srcOff := tiledOffsetColumn(rowBase, x, y, logBpb)
			if srcOff+bytesPerBlock > len(src) {
				truncated = true
				continue
			}
			dstOff := dstRow + x*bytesPerBlock
			block := src[srcOff : srcOff+bytesPerBlock]
			if swap {
				for i := 0; i < bytesPerBlock; i += 2 {
					dst[dstOff+i] = block[i+1]
					dst[dstOff+i+1] = block[i]
				}
			} else {
				copy(dst[dstOff:dstOff+bytesPerBlock], block)
			}
		}
	}
	return truncated
}
