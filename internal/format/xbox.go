package format

// parseXEX validates an XEX2 executable header. The header stores its own
// size and the mapped image size as big-endian dwords; their sum bounds the
// on-disk extent.
func parseXEX(in *Input) (*ParseResult, bool) {
	headerSize, ok1 := U32BE(in.Window, 0x10)
	imageSize, ok2 := U32BE(in.Window, 0x14)
	if !ok1 || !ok2 {
		return nil, false
	}
	if headerSize < 24 || headerSize > 10*mib {
		return nil, false
	}

	total := int64(headerSize) + int64(imageSize)
	if total > 100*mib {
		total = int64(headerSize)
	}
	return &ParseResult{
		Format:        "xex",
		EstimatedSize: total,
	}, true
}

// parseXDBF validates a dashboard data file header. Entry and free-space
// table extents are declared up front; the data region size is not, so the
// estimate covers the tables plus a slack region.
func parseXDBF(in *Input) (*ParseResult, bool) {
	entryMax, ok1 := U32BE(in.Window, 8)
	entryCount, ok2 := U32BE(in.Window, 12)
	freeMax, ok3 := U32BE(in.Window, 16)
	if !ok1 || !ok2 || !ok3 {
		return nil, false
	}
	if entryMax == 0 || entryMax > 100000 || entryCount > entryMax {
		return nil, false
	}

	// 24-byte header, 18-byte entries, 8-byte free records.
	tables := int64(24) + int64(entryMax)*18 + int64(freeMax)*8
	estimated := tables + 512<<10
	if estimated > 10*mib {
		estimated = 10 * mib
	}
	return &ParseResult{
		Format:        "xdbf",
		EstimatedSize: estimated,
	}, true
}
