package format

import (
	"bytes"
	"strings"
)

// parseGamebryo validates a NetImmerse/Gamebryo header and derives a size
// estimate from the block count when one can be located. The header carries
// no payload size, so the estimate is deliberately conservative.
func parseGamebryo(in *Input) (*ParseResult, bool) {
	if len(in.Window) < 64 {
		return nil, false
	}

	// Version string follows ", Version " after the 20-byte magic.
	versionStart := 22
	nullPos := bytes.IndexByte(Bytes(in.Window, versionStart, 40), 0)
	if nullPos < 0 {
		return nil, false
	}
	version := string(in.Window[versionStart : versionStart+nullPos])

	estimated := int64(50000)
	if strings.Contains(version, "20.") {
		// 20.x headers keep the block count near the version string;
		// scan the next few dwords for a plausible value and assume
		// an average block weight.
		parseOff := versionStart + nullPos + 1
		for off := parseOff; off < parseOff+60 && off+4 <= len(in.Window); off += 4 {
			if blocks, ok := U32LE(in.Window, off); ok && blocks >= 1 && blocks <= 10000 {
				estimated = int64(blocks)*500 + 1000
				if estimated > 20*mib {
					estimated = 20 * mib
				}
				break
			}
		}
	}

	return &ParseResult{
		Format:        "nif",
		EstimatedSize: estimated,
		Metadata:      map[string]string{"version": version},
	}, true
}
