package format

import (
	"fmt"

	"github.com/tessara/memcarve/internal/ddx"
)

// parseDDX validates a DDX texture container header. Size is computed
// analytically from the container's block geometry: compressed payloads are
// never larger than the tiled surface they decode to, so the analytic
// surface size is a safe upper bound that also covers stored-raw payloads
// exactly.
func parseDDX(in *Input) (*ParseResult, bool) {
	info, err := ddx.ParseHeader(in.Window)
	if err != nil {
		return nil, false
	}

	id := "ddx_3xdo"
	if info.AltTiling {
		id = "ddx_3xdr"
	}

	payload := info.SurfaceSize
	if info.MipLevels > 1 {
		// A mip atlas chunk of the same tiled extent follows the main
		// surface.
		payload *= 2
	}

	return &ParseResult{
		Format:        id,
		EstimatedSize: ddx.HeaderSize + payload,
		Width:         info.Width,
		Height:        info.Height,
		MipCount:      info.MipLevels,
		FourCC:        info.FormatName,
		Metadata: map[string]string{
			"gpu_format": fmt.Sprintf("0x%02X", info.Format),
			"tiled":      fmt.Sprintf("%t", info.Tiled),
		},
	}, true
}

// convertDDX reconstructs a linear DDS image from carved DDX bytes. The
// alternate 3XDR tiling scheme is rejected by the decoder; its raw carve
// stays on disk.
func convertDDX(raw []byte, opts map[string]string) ([]byte, string, bool, error) {
	res, err := ddx.Convert(raw, ddx.Options{
		SkipSwap:  opts["skip_endian_swap"] == "true",
		EmitAtlas: opts["emit_intermediate_atlas"] == "true",
	})
	if err != nil {
		return nil, "", false, err
	}
	return res.DDS, ".dds", res.Partial, nil
}
