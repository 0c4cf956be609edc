package ddx

import "encoding/binary"

const (
	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPixelFormat = 0x1000
	ddsdMipCount    = 0x20000
	ddsdLinearSize  = 0x80000

	ddpfFourCC = 0x4

	ddsCapsComplex = 0x8
	ddsCapsTexture = 0x1000
	ddsCapsMipmap  = 0x400000
)

// buildDDS assembles a standard little-endian DDS file from a linear main
// surface and any recovered mip levels.
func buildDDS(width, height, mipCount int, fourCC string, main []byte, mips [][]byte) []byte {
	total := 128 + len(main)
	for _, m := range mips {
		total += len(m)
	}
	out := make([]byte, 128, total)

	flags := uint32(ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat | ddsdLinearSize)
	caps := uint32(ddsCapsTexture)
	if mipCount > 1 {
		flags |= ddsdMipCount
		caps |= ddsCapsComplex | ddsCapsMipmap
	}

	copy(out[0:4], "DDS ")
	binary.LittleEndian.PutUint32(out[4:], 124)
	binary.LittleEndian.PutUint32(out[8:], flags)
	binary.LittleEndian.PutUint32(out[12:], uint32(height))
	binary.LittleEndian.PutUint32(out[16:], uint32(width))
	binary.LittleEndian.PutUint32(out[20:], uint32(len(main)))
	binary.LittleEndian.PutUint32(out[28:], uint32(mipCount))
	binary.LittleEndian.PutUint32(out[76:], 32)
	binary.LittleEndian.PutUint32(out[80:], ddpfFourCC)
	copy(out[84:88], fourCC)
	binary.LittleEndian.PutUint32(out[108:], caps)

	out = append(out, main...)
	for _, m := range mips {
		out = append(out, m...)
	}
	return out
}
