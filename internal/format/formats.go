package format

// Built-in format table. Magic bytes, size bounds, and output folders follow
// the asset layout of the target titles: DirectDraw and console-tiled
// textures, RIFF/XMA audio, Gamebryo models, ObScript sources, and a handful
// of console system formats, plus bare zlib streams.

const (
	mib = 1 << 20
)

func builtinFormats() []*Format {
	return []*Format{
		{
			ID:          "dds",
			Description: "DirectDraw Surface texture",
			Extension:   ".dds",
			Folder:      "textures",
			Magic:       []byte("DDS "),
			Priority:    10,
			MinSize:     128,
			MaxSize:     50 * mib,
			Window:      2048,
			Parse:       parseDDS,
		},
		{
			ID:          "ddx_3xdo",
			Description: "Console-tiled DDX texture (3XDO)",
			Extension:   ".ddx",
			Folder:      "ddx",
			Magic:       []byte("3XDO"),
			Priority:    10,
			MinSize:     68,
			MaxSize:     50 * mib,
			Window:      2048,
			Parse:       parseDDX,
			Convert:     convertDDX,
		},
		{
			ID:          "ddx_3xdr",
			Description: "Console-tiled DDX texture (3XDR, engine tiling)",
			Extension:   ".ddx",
			Folder:      "ddx",
			Magic:       []byte("3XDR"),
			Priority:    10,
			MinSize:     68,
			MaxSize:     50 * mib,
			Window:      2048,
			Parse:       parseDDX,
			Convert:     convertDDX,
		},
		{
			ID:          "xma",
			Description: "XMA audio (RIFF/WAVE container)",
			Extension:   ".xma",
			Folder:      "audio",
			Magic:       []byte("RIFF"),
			Priority:    10,
			MinSize:     44,
			MaxSize:     100 * mib,
			Window:      2048,
			Parse:       parseXMA,
		},
		{
			ID:          "png",
			Description: "PNG image",
			Extension:   ".png",
			Folder:      "images",
			Magic:       []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
			Priority:    10,
			MinSize:     67,
			MaxSize:     50 * mib,
			Window:      mib,
			Parse:       parsePNG,
		},
		{
			ID:          "bik",
			Description: "Bink video",
			Extension:   ".bik",
			Folder:      "video",
			Magic:       []byte("BIKi"),
			Priority:    10,
			MinSize:     20,
			MaxSize:     500 * mib,
			Window:      2048,
			Parse:       parseBIK,
		},
		{
			ID:          "nif",
			Description: "Gamebryo model or animation",
			Extension:   ".nif",
			Folder:      "models",
			Magic:       []byte("Gamebryo File Format"),
			Priority:    20,
			MinSize:     100,
			MaxSize:     20 * mib,
			Window:      2048,
			Parse:       parseGamebryo,
		},
		{
			ID:          "xex",
			Description: "Console executable (XEX2)",
			Extension:   ".xex",
			Folder:      "system",
			Magic:       []byte("XEX2"),
			Priority:    20,
			MinSize:     24,
			MaxSize:     100 * mib,
			Window:      2048,
			Parse:       parseXEX,
		},
		{
			ID:          "xdbf",
			Description: "Dashboard data file (XDBF)",
			Extension:   ".xdbf",
			Folder:      "system",
			Magic:       []byte("XDBF"),
			Priority:    20,
			MinSize:     24,
			MaxSize:     10 * mib,
			Window:      2048,
			Parse:       parseXDBF,
		},
		{
			ID:          "lip",
			Description: "Lip-sync animation",
			Extension:   ".lip",
			Folder:      "lip",
			Magic:       []byte("LIPS"),
			Priority:    30,
			MinSize:     20,
			MaxSize:     5 * mib,
			Window:      2048,
			Parse:       parseLIP,
		},
		{
			ID:          "script",
			Description: "ObScript source text",
			Extension:   ".txt",
			Folder:      "scripts",
			Magic:       []byte("scn "),
			Priority:    30,
			MinSize:     20,
			MaxSize:     100 << 10,
			Window:      100 << 10,
			Parse:       parseScript,
		},
		{
			ID:          "script_sn",
			Description: "ObScript source text (ScriptName header)",
			Extension:   ".txt",
			Folder:      "scripts",
			Magic:       []byte("ScriptName "),
			Priority:    30,
			MinSize:     20,
			MaxSize:     100 << 10,
			Window:      100 << 10,
			Parse:       parseScript,
		},
		{
			ID:          "zlib",
			Description: "zlib compressed stream",
			Extension:   ".zlib",
			Folder:      "zlib",
			Magic:       []byte{0x78, 0x9c},
			Priority:    60,
			MinSize:     10,
			MaxSize:     10 * mib,
			Window:      mib,
			Parse:       parseZlib,
			Convert:     convertZlib,
		},
		{
			ID:          "zlib_best",
			Description: "zlib compressed stream (best compression)",
			Extension:   ".zlib",
			Folder:      "zlib",
			Magic:       []byte{0x78, 0xda},
			Priority:    60,
			MinSize:     10,
			MaxSize:     10 * mib,
			Window:      mib,
			Parse:       parseZlib,
			Convert:     convertZlib,
		},
	}
}
