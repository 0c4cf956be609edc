package format

// parsePNG walks the chunk chain to IEND and reports the exact stream size.
// A chain that runs off the window without reaching IEND is rejected rather
// than guessed at; PNG hits in a memory image are rare enough that a larger
// window costs little.
func parsePNG(in *Input) (*ParseResult, bool) {
	width, okW := U32BE(in.Window, 16)
	height, okH := U32BE(in.Window, 20)
	if !okW || !okH {
		return nil, false
	}
	if string(Bytes(in.Window, 12, 4)) != "IHDR" {
		return nil, false
	}
	if width == 0 || height == 0 || width > 16384 || height > 16384 {
		return nil, false
	}

	off := int64(8)
	for off+8 <= int64(len(in.Window)) {
		length, ok := U32BE(in.Window, int(off))
		if !ok || length > 50*mib {
			return nil, false
		}
		chunkType := string(Bytes(in.Window, int(off)+4, 4))
		off += 8 + int64(length) + 4 // length, type, data, crc
		if chunkType == "IEND" {
			return &ParseResult{
				Format:        "png",
				EstimatedSize: off,
				Width:         int(width),
				Height:        int(height),
			}, true
		}
	}
	return nil, false
}
