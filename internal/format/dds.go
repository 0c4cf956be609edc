package format

import (
	"fmt"
	"strings"
)

const ddsHeaderSize = 128

// blockBytes returns bytes per 4x4 block for a compressed fourCC, or 16 for
// anything unrecognized.
func blockBytes(fourCC string) int64 {
	switch fourCC {
	case "DXT1", "ATI1", "BC4U", "BC4S":
		return 8
	case "DXT2", "DXT3", "DXT4", "DXT5", "ATI2", "BC5U", "BC5S":
		return 16
	}
	return 16
}

func isBlockCompressed(fourCC string) bool {
	switch fourCC {
	case "DXT1", "DXT2", "DXT3", "DXT4", "DXT5", "ATI1", "BC4U", "BC4S", "ATI2", "BC5U", "BC5S":
		return true
	}
	return false
}

// mipChainSize sums the block-compressed surface sizes of a mip chain.
func mipChainSize(width, height, mipCount int64, bpb int64) int64 {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	size := blocksW * blocksH * bpb

	if mipCount > 1 {
		w, h := width, height
		for i := int64(1); i < mipCount && i < 16; i++ {
			w = max64(1, w/2)
			h = max64(1, h/2)
			mw := max64(1, (w+3)/4)
			mh := max64(1, (h+3)/4)
			size += mw * mh * bpb
		}
	}
	return size
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// parseDDS validates a DirectDraw Surface header and estimates the full
// surface size. Console dumps contain byte-swapped headers, so implausible
// little-endian dimensions trigger a big-endian reread.
func parseDDS(in *Input) (*ParseResult, bool) {
	hdr := Bytes(in.Window, 0, ddsHeaderSize)
	if hdr == nil {
		return nil, false
	}

	headerSize, _ := U32LE(hdr, 4)
	height, _ := U32LE(hdr, 12)
	width, _ := U32LE(hdr, 16)
	pitchOrLinear, _ := U32LE(hdr, 20)
	mipCount, _ := U32LE(hdr, 28)
	endianness := "little"

	if height > 16384 || width > 16384 || headerSize != 124 {
		height, _ = U32BE(hdr, 12)
		width, _ = U32BE(hdr, 16)
		pitchOrLinear, _ = U32BE(hdr, 20)
		mipCount, _ = U32BE(hdr, 28)
		endianness = "big"
	}
	if height == 0 || width == 0 || height > 16384 || width > 16384 {
		return nil, false
	}

	fourCC := strings.TrimRight(string(hdr[84:88]), "\x00")

	var payload int64
	if !isBlockCompressed(fourCC) && pitchOrLinear > 0 {
		// Uncompressed surface: pitch times height, mips shrinking by
		// a quarter each level.
		payload = int64(pitchOrLinear) * int64(height)
		if mipCount > 1 {
			mip := payload
			for i := uint32(1); i < mipCount && i < 16; i++ {
				mip /= 4
				payload += max64(mip, blockBytes(fourCC))
			}
		}
	} else {
		payload = mipChainSize(int64(width), int64(height), int64(mipCount), blockBytes(fourCC))
	}

	return &ParseResult{
		Format:        "dds",
		EstimatedSize: ddsHeaderSize + payload,
		Width:         int(width),
		Height:        int(height),
		MipCount:      int(mipCount),
		FourCC:        fourCC,
		Metadata: map[string]string{
			"endianness": endianness,
			"pitch":      fmt.Sprintf("%d", pitchOrLinear),
		},
	}, true
}
