package format

// XMA format tags inside a RIFF fmt chunk.
var xmaFormatTags = map[uint16]bool{0x0165: true, 0x0166: true}

// parseXMA validates a RIFF/WAVE container carrying XMA audio. The RIFF
// size field is the one size field in the table trustworthy enough to use
// directly; the chunk walk only confirms the container is actually XMA and
// not a plain WAV.
func parseXMA(in *Input) (*ParseResult, bool) {
	riffSize, ok := U32LE(in.Window, 4)
	if !ok {
		return nil, false
	}
	if string(Bytes(in.Window, 8, 4)) != "WAVE" {
		return nil, false
	}

	isXMA := false
	off := 12
	for off < 200 && off+8 <= len(in.Window) {
		chunkID := string(Bytes(in.Window, off, 4))
		if chunkID == "XMA2" {
			isXMA = true
			break
		}
		if chunkID == "fmt " {
			if tag, ok := U16LE(in.Window, off+8); ok && xmaFormatTags[tag] {
				isXMA = true
				break
			}
		}
		chunkSize, ok := U32LE(in.Window, off+4)
		if !ok {
			break
		}
		off += 8 + int((chunkSize+1)&^uint32(1))
	}
	if !isXMA {
		return nil, false
	}

	return &ParseResult{
		Format:        "xma",
		EstimatedSize: int64(riffSize) + 8,
		FourCC:        "XMA2",
	}, true
}

// parseBIK validates a Bink video header; the size field at offset 4
// excludes the 8-byte preamble.
func parseBIK(in *Input) (*ParseResult, bool) {
	size, ok := U32LE(in.Window, 4)
	if !ok {
		return nil, false
	}
	if size < 20 || int64(size) > 500*mib {
		return nil, false
	}
	return &ParseResult{
		Format:        "bik",
		EstimatedSize: int64(size) + 8,
	}, true
}
