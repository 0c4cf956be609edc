package format

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func input(window []byte) *Input {
	return &Input{Window: window, Remaining: int64(len(window))}
}

func TestParseDDS(t *testing.T) {
	hdr := make([]byte, 256)
	copy(hdr, "DDS ")
	binary.LittleEndian.PutUint32(hdr[4:], 124)
	binary.LittleEndian.PutUint32(hdr[12:], 64) // height
	binary.LittleEndian.PutUint32(hdr[16:], 64) // width
	binary.LittleEndian.PutUint32(hdr[28:], 1)
	copy(hdr[84:], "DXT1")

	res, ok := parseDDS(input(hdr))
	if !ok {
		t.Fatal("valid header rejected")
	}
	// 16x16 blocks of 8 bytes plus the header.
	if res.EstimatedSize != 128+16*16*8 {
		t.Errorf("estimated %d, want %d", res.EstimatedSize, 128+16*16*8)
	}
	if res.Width != 64 || res.Height != 64 || res.FourCC != "DXT1" {
		t.Errorf("got %dx%d %s", res.Width, res.Height, res.FourCC)
	}
	if res.Metadata["endianness"] != "little" {
		t.Errorf("endianness %q", res.Metadata["endianness"])
	}
}

func TestParseDDSBigEndianHeader(t *testing.T) {
	hdr := make([]byte, 256)
	copy(hdr, "DDS ")
	binary.BigEndian.PutUint32(hdr[4:], 124)
	binary.BigEndian.PutUint32(hdr[12:], 128)
	binary.BigEndian.PutUint32(hdr[16:], 256)
	binary.BigEndian.PutUint32(hdr[28:], 1)
	copy(hdr[84:], "DXT5")

	res, ok := parseDDS(input(hdr))
	if !ok {
		t.Fatal("byte-swapped header rejected")
	}
	if res.Width != 256 || res.Height != 128 {
		t.Errorf("got %dx%d, want 256x128", res.Width, res.Height)
	}
	if res.Metadata["endianness"] != "big" {
		t.Errorf("endianness %q", res.Metadata["endianness"])
	}
}

func TestParseDDSRejectsGarbage(t *testing.T) {
	hdr := make([]byte, 256)
	copy(hdr, "DDS ")
	// Zero dimensions in both byte orders.
	if _, ok := parseDDS(input(hdr)); ok {
		t.Error("zero-dimension header accepted")
	}
	if _, ok := parseDDS(input(make([]byte, 64))); ok {
		t.Error("short window accepted")
	}
}

func TestParseXMA(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf, "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], 5000)
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 32)
	binary.LittleEndian.PutUint16(buf[20:], 0x0166)

	res, ok := parseXMA(input(buf))
	if !ok {
		t.Fatal("XMA container rejected")
	}
	if res.EstimatedSize != 5008 {
		t.Errorf("estimated %d, want 5008", res.EstimatedSize)
	}
}

func TestParseXMARejectsPlainWAV(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf, "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], 5000)
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 0x0001) // PCM

	if _, ok := parseXMA(input(buf)); ok {
		t.Error("plain PCM WAV accepted as XMA")
	}
}

func TestParsePNG(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})

	chunk := func(typ string, data []byte) {
		var hdr [8]byte
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
		copy(hdr[4:], typ)
		buf.Write(hdr[:])
		buf.Write(data)
		buf.Write([]byte{0, 0, 0, 0}) // crc, not validated
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr, 32)     // width
	binary.BigEndian.PutUint32(ihdr[4:], 16) // height
	chunk("IHDR", ihdr)
	chunk("IDAT", make([]byte, 100))
	chunk("IEND", nil)

	res, ok := parsePNG(input(buf.Bytes()))
	if !ok {
		t.Fatal("valid PNG rejected")
	}
	if res.EstimatedSize != int64(buf.Len()) {
		t.Errorf("estimated %d, want exact stream size %d", res.EstimatedSize, buf.Len())
	}
	if res.Width != 32 || res.Height != 16 {
		t.Errorf("got %dx%d, want 32x16", res.Width, res.Height)
	}

	// Without IEND in the window the stream cannot be sized.
	if _, ok := parsePNG(input(buf.Bytes()[:buf.Len()-12])); ok {
		t.Error("PNG without IEND accepted")
	}
}

func TestParseScript(t *testing.T) {
	text := "scn DoorLockScript\nshort locked\nbegin OnActivate\nset locked to 1\nend\n"
	window := append([]byte(text), bytes.Repeat([]byte{0xFE}, 100)...)

	res, ok := parseScript(input(window))
	if !ok {
		t.Fatal("valid script rejected")
	}
	if res.Metadata["name"] != "DoorLockScript" {
		t.Errorf("name %q", res.Metadata["name"])
	}
	if res.Metadata["complete"] != "true" {
		t.Error("script with end marker not marked complete")
	}
	// Trailing newline and filler are excluded.
	if got := string(window[:res.EstimatedSize]); got != text[:len(text)-1] {
		t.Errorf("carved text %q", got)
	}
}

func TestParseScriptStopsAtNextHeader(t *testing.T) {
	text := "scn FirstOne\nshort a\nset a to 1\nend\nscn SecondOne\nshort b\n"
	res, ok := parseScript(input([]byte(text)))
	if !ok {
		t.Fatal("script rejected")
	}
	carved := text[:res.EstimatedSize]
	if bytes.Contains([]byte(carved), []byte("SecondOne")) {
		t.Errorf("carve crossed into the next script: %q", carved)
	}
}

func TestParseScriptRejectsBadName(t *testing.T) {
	cases := []string{
		"scn \nmore text here\nend\n",
		"scn bad=name!\nshort a\nset a\n",
	}
	for _, text := range cases {
		if _, ok := parseScript(input([]byte(text))); ok {
			t.Errorf("accepted %q", text)
		}
	}
}

func TestParseGamebryo(t *testing.T) {
	window := make([]byte, 128)
	copy(window, "Gamebryo File Format, Version 20.2.0.7")
	// Block count in the first dword after the version string's terminator.
	binary.LittleEndian.PutUint32(window[39:], 100)
	res, ok := parseGamebryo(input(window))
	if !ok {
		t.Fatal("valid header rejected")
	}
	if res.EstimatedSize != 100*500+1000 {
		t.Errorf("estimated %d, want %d", res.EstimatedSize, 100*500+1000)
	}
}

func TestParseXEX(t *testing.T) {
	window := make([]byte, 64)
	copy(window, "XEX2")
	binary.BigEndian.PutUint32(window[0x10:], 0x1000)
	binary.BigEndian.PutUint32(window[0x14:], 0x5000)
	res, ok := parseXEX(input(window))
	if !ok {
		t.Fatal("valid header rejected")
	}
	if res.EstimatedSize != 0x6000 {
		t.Errorf("estimated 0x%X, want 0x6000", res.EstimatedSize)
	}
}

func TestParseXDBF(t *testing.T) {
	window := make([]byte, 64)
	copy(window, "XDBF")
	binary.BigEndian.PutUint32(window[8:], 64)
	binary.BigEndian.PutUint32(window[12:], 10)
	binary.BigEndian.PutUint32(window[16:], 16)
	res, ok := parseXDBF(input(window))
	if !ok {
		t.Fatal("valid header rejected")
	}
	want := int64(24+64*18+16*8) + 512<<10
	if res.EstimatedSize != want {
		t.Errorf("estimated %d, want %d", res.EstimatedSize, want)
	}

	window[12] = 0xFF // entryCount way over entryMax
	if _, ok := parseXDBF(input(window)); ok {
		t.Error("inconsistent tables accepted")
	}
}

func TestParseLIP(t *testing.T) {
	window := make([]byte, 64)
	copy(window, "LIPS")
	binary.LittleEndian.PutUint32(window[4:], 1)

	in := input(window)
	in.Remaining = 1 << 20
	in.NextBoundary = func(from, _ int64, exclude string) int64 {
		if exclude != "lip" {
			t.Errorf("exclude %q, want lip", exclude)
		}
		return 2500
	}
	res, ok := parseLIP(in)
	if !ok {
		t.Fatal("valid header rejected")
	}
	if res.EstimatedSize != 2500 {
		t.Errorf("estimated %d, want boundary distance 2500", res.EstimatedSize)
	}

	// No boundary in reach: fixed fallback capped to the buffer.
	in.NextBoundary = func(_, _ int64, _ string) int64 { return -1 }
	res, ok = parseLIP(in)
	if !ok || res.EstimatedSize != 10000 {
		t.Fatalf("fallback estimate %d, want 10000", res.EstimatedSize)
	}
}

func TestRegistryParseRecoversPanics(t *testing.T) {
	reg, err := NewRegistry(&Format{
		ID:    "boom",
		Magic: []byte("BM"),
		Parse: func(in *Input) (*ParseResult, bool) {
			panic("adversarial input")
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := reg.Parse("boom", input([]byte("BM..."))); ok {
		t.Fatal("panicking parser treated as success")
	}
}

func TestRegistryParseRejectsTinyEstimates(t *testing.T) {
	reg, err := NewRegistry(&Format{
		ID:    "tiny",
		Magic: []byte("TINY"),
		Parse: func(in *Input) (*ParseResult, bool) {
			return &ParseResult{Format: "tiny", EstimatedSize: 3}, true
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := reg.Parse("tiny", input([]byte("TINY"))); ok {
		t.Fatal("estimate inside the magic accepted")
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	if reg.Lookup("ddx_3xdo") == nil || reg.Lookup("script") == nil {
		t.Fatal("built-in formats missing")
	}
	sigs := reg.Signatures()
	if len(sigs) != len(reg.IDs()) {
		t.Fatalf("%d signatures for %d formats", len(sigs), len(reg.IDs()))
	}

	sub, err := reg.Subset([]string{"dds", "zlib"})
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if len(sub.IDs()) != 2 {
		t.Errorf("subset has %d formats", len(sub.IDs()))
	}
	if _, err := reg.Subset([]string{"nope"}); err == nil {
		t.Error("unknown id accepted")
	}
}
