package ddx

// Mip levels below the top surface are packed together into a single atlas
// chunk of the same extent as the main surface. Levels are laid out on
// shelves in block units: left to right in descending size, wrapping to a
// new shelf when a level no longer fits on the current row.

// extractMips copies each packed mip level out of a linear atlas. width and
// height are the top-level pixel dimensions; extra is the number of levels
// below the top. Levels that fall outside the atlas are dropped, so the
// returned slice may be shorter than extra.
func extractMips(atlas []byte, width, height, extra, bpb int) [][]byte {
	bw := (width + 3) / 4
	bh := (height + 3) / 4

	var mips [][]byte
	cursorX, cursorY, rowH := 0, 0, 0
	for i := 1; i <= extra; i++ {
		mw := maxInt(1, width>>i)
		mh := maxInt(1, height>>i)
		mbw := (mw + 3) / 4
		mbh := (mh + 3) / 4

		if cursorX+mbw > bw {
			cursorY += rowH
			cursorX, rowH = 0, 0
		}
		if cursorY+mbh > bh {
			break
		}

		buf := make([]byte, mbw*mbh*bpb)
		for r := 0; r < mbh; r++ {
			srcOff := ((cursorY+r)*bw + cursorX) * bpb
			copy(buf[r*mbw*bpb:(r+1)*mbw*bpb], atlas[srcOff:srcOff+mbw*bpb])
		}
		mips = append(mips, buf)

		cursorX += mbw
		if mbh > rowH {
			rowH = mbh
		}
	}
	return mips
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
