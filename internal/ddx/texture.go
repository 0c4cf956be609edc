// Package ddx reconstructs linear DDS textures from console DDX containers:
// header decode, GPU detiling, block decompression, and mip atlas recovery.
package ddx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the fixed DDX container header length; the texture payload
// starts immediately after.
const HeaderSize = 68

// ErrUnsupportedTiling marks 3XDR containers, which use an engine-specific
// tiling scheme this decoder does not implement. Callers keep the raw carve.
var ErrUnsupportedTiling = errors.New("3XDR engine tiling is not supported")

// Info is a decoded DDX container header.
type Info struct {
	Width      int
	Height     int
	Format     byte
	FormatName string
	Tiled      bool
	AltTiling  bool
	BigEndian  bool
	MipLevels  int
	// SurfaceSize is the tiled main surface extent in bytes, padded to the
	// macro tile grid.
	SurfaceSize int64
}

// gpuFormats maps console GPU texture format codes to their DDS fourCC and
// bytes per 4x4 block. Several codes alias the same compression; the aliases
// differ only in sampler state.
var gpuFormats = map[byte]struct {
	fourCC string
	bpb    int
}{
	0x12: {"DXT1", 8},
	0x52: {"DXT1", 8},
	0x82: {"DXT1", 8},
	0x86: {"DXT1", 8},
	0x13: {"DXT3", 16},
	0x53: {"DXT3", 16},
	0x14: {"DXT5", 16},
	0x54: {"DXT5", 16},
	0x88: {"DXT5", 16},
	0x71: {"ATI2", 16},
	0x7B: {"ATI1", 8},
}

// ParseHeader decodes a DDX container header from the start of data.
func ParseHeader(data []byte) (*Info, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("header needs %d bytes, have %d", HeaderSize, len(data))
	}

	magic := string(data[0:4])
	if magic != "3XDO" && magic != "3XDR" {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	if v := binary.LittleEndian.Uint16(data[0x07:]); v < 3 {
		return nil, fmt.Errorf("unsupported container version %d", v)
	}

	dword3 := binary.LittleEndian.Uint32(data[0x24:])
	dword4 := binary.LittleEndian.Uint32(data[0x28:])
	dword5 := binary.BigEndian.Uint32(data[0x2C:])

	format := byte(dword4 >> 24)
	if format == 0 {
		format = byte(dword3)
	}
	gpu, known := gpuFormats[format]
	if !known {
		return nil, fmt.Errorf("unknown GPU format 0x%02X", format)
	}

	info := &Info{
		Width:      int(dword5&0x1FFF) + 1,
		Height:     int((dword5>>13)&0x1FFF) + 1,
		Format:     format,
		FormatName: gpu.fourCC,
		Tiled:      dword3&0x100 != 0,
		AltTiling:  magic == "3XDR",
		BigEndian:  dword4&0x100 != 0,
		MipLevels:  int((dword4>>16)&0xF) + 1,
	}
	if info.Width > 8192 || info.Height > 8192 {
		return nil, fmt.Errorf("implausible dimensions %dx%d", info.Width, info.Height)
	}

	info.SurfaceSize = tiledSurfaceSize(info.Width, info.Height, gpu.bpb)
	return info, nil
}

// tiledSurfaceSize is the byte extent of a tiled surface: block dimensions
// padded to the 32-block macro tile grid.
func tiledSurfaceSize(width, height, bpb int) int64 {
	bw := alignBlocks((width + 3) / 4)
	bh := alignBlocks((height + 3) / 4)
	return int64(bw) * int64(bh) * int64(bpb)
}

// Options control texture reconstruction.
type Options struct {
	// SkipSwap disables the 16-bit endian swap applied to big-endian
	// payloads.
	SkipSwap bool
	// EmitAtlas includes the untiled mip atlas in the result for
	// inspection.
	EmitAtlas bool
}

// Result is a reconstructed texture. Partial reports that some payload could
// not be recovered and the image contains zeroed regions or fewer mips than
// the header declared.
type Result struct {
	DDS     []byte
	Atlas   []byte
	Partial bool
}

// Convert reconstructs a linear DDS image from a full carved DDX container.
func Convert(raw []byte, opts Options) (*Result, error) {
	info, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if info.AltTiling {
		return nil, ErrUnsupportedTiling
	}

	gpu := gpuFormats[info.Format]
	size := info.SurfaceSize
	payload := raw[HeaderSize:]
	hasAtlas := info.MipLevels > 1

	// Classify the payload: stored raw, raw with a mip atlas chunk ahead
	// of the main surface, or a compressed chunk stream.
	var tiled []byte
	partial := false
	switch {
	case int64(len(payload)) == size:
		tiled = payload
		hasAtlas = false
	case hasAtlas && int64(len(payload)) == 2*size:
		tiled = payload
	default:
		want := size
		if hasAtlas {
			want *= 2
		}
		var n int64
		tiled, n, err = decompressChunks(payload, want, goozCodec{})
		if err != nil {
			return nil, err
		}
		partial = n < want
	}

	swap := info.BigEndian && !opts.SkipSwap
	bw := (info.Width + 3) / 4
	bh := (info.Height + 3) / 4

	// The atlas chunk precedes the main surface when both are present.
	mainTiled := tiled
	var atlasTiled []byte
	if hasAtlas {
		atlasTiled = tiled[:size]
		mainTiled = tiled[size:]
	}

	main := make([]byte, bw*bh*gpu.bpb)
	if Untile(main, mainTiled, bw, bh, gpu.bpb, swap) {
		partial = true
	}

	res := &Result{Partial: partial}
	var mips [][]byte
	if hasAtlas {
		atlas := make([]byte, bw*bh*gpu.bpb)
		if Untile(atlas, atlasTiled, bw, bh, gpu.bpb, swap) {
			partial = true
			res.Partial = true
		}
		if opts.EmitAtlas {
			res.Atlas = atlas
		}
		mips = extractMips(atlas, info.Width, info.Height, info.MipLevels-1, gpu.bpb)
	}

	res.DDS = buildDDS(info.Width, info.Height, 1+len(mips), info.FormatName, main, mips)
	return res, nil
}
