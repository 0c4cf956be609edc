package carve

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tessara/memcarve/internal/ddx"
	"github.com/tessara/memcarve/internal/format"
)

// fillerBuffer returns n bytes of high-bit-set filler that cannot collide
// with any registered magic.
func fillerBuffer(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(0x80 | i&0x3F)
	}
	return buf
}

// ddxRegion builds a complete raw-payload DDX container: 64x64 DXT1, one mip,
// tiled, little-endian. The payload bytes also avoid magic collisions.
func ddxRegion() []byte {
	hdr := make([]byte, ddx.HeaderSize)
	copy(hdr, "3XDO")
	binary.LittleEndian.PutUint16(hdr[0x07:], 3)
	binary.LittleEndian.PutUint32(hdr[0x24:], 0x12|0x100)
	binary.LittleEndian.PutUint32(hdr[0x28:], 0)
	binary.BigEndian.PutUint32(hdr[0x2C:], 63|63<<13)

	payload := make([]byte, 32*32*8)
	for i := range payload {
		payload[i] = byte(0x80 | (i*5)&0x3F)
	}
	return append(hdr, payload...)
}

func runCarver(t *testing.T, image []byte, opts Options) *Result {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	c, err := New(format.Default(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Run(context.Background(), bytes.NewReader(image), int64(len(image)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRunRecoversTiledTexture(t *testing.T) {
	// One tiled texture buried in a 1 MiB image of filler. The run must
	// produce exactly one complete entry and a converted image identical
	// to decoding the region directly.
	image := fillerBuffer(1 << 20)
	region := ddxRegion()
	copy(image[0x1000:], region)

	dir := t.TempDir()
	res := runCarver(t, image, Options{OutputDir: dir, Convert: true, ChunkSize: 64 << 10, Workers: 2})

	if len(res.Entries) != 1 {
		t.Fatalf("recovered %d entries, want 1", len(res.Entries))
	}
	e := res.Entries[0]
	if e.Offset != 0x1000 || e.FileType != "ddx_3xdo" {
		t.Fatalf("entry %+v, want ddx_3xdo at 0x1000", e)
	}
	if e.IsPartial {
		t.Error("entry marked partial for a complete container")
	}
	if !e.Converted {
		t.Error("entry not marked converted")
	}
	if e.SizeInDump != int64(len(region)) {
		t.Errorf("size in dump %d, want %d", e.SizeInDump, len(region))
	}

	want, err := ddx.Convert(region, ddx.Options{})
	if err != nil {
		t.Fatalf("reference convert: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, e.Filename))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(got, want.DDS) {
		t.Error("converted output does not match direct decoding of the region")
	}
}

func TestRunRecoversScript(t *testing.T) {
	image := fillerBuffer(64 << 10)
	script := "scn TrapDoorScript\nshort open\nbegin OnActivate\nset open to 1\nend\n"
	copy(image[500:], script)

	dir := t.TempDir()
	res := runCarver(t, image, Options{OutputDir: dir, ChunkSize: 8 << 10})

	if len(res.Entries) != 1 {
		t.Fatalf("recovered %d entries, want 1", len(res.Entries))
	}
	e := res.Entries[0]
	if e.FileType != "script" || e.Offset != 500 {
		t.Fatalf("entry %+v, want script at 500", e)
	}

	got, err := os.ReadFile(filepath.Join(dir, e.Filename))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.HasPrefix(got, []byte("scn TrapDoorScript")) {
		t.Errorf("script output starts with %q", got[:20])
	}
	if bytes.IndexByte(got, 0x80) >= 0 {
		t.Error("script output includes trailing filler bytes")
	}
}

func TestRunTruncatedAtBufferEnd(t *testing.T) {
	// A texture whose header promises more payload than the image holds
	// is carved to the end and marked partial.
	image := fillerBuffer(8 << 10)
	region := ddxRegion()
	start := len(image) - 500
	copy(image[start:], region[:500])

	res := runCarver(t, image, Options{OutputDir: t.TempDir(), ChunkSize: 4 << 10})
	if len(res.Entries) != 1 {
		t.Fatalf("recovered %d entries, want 1", len(res.Entries))
	}
	e := res.Entries[0]
	if !e.IsPartial {
		t.Error("truncated candidate not marked partial")
	}
	if e.SizeInDump != 500 {
		t.Errorf("size in dump %d, want 500", e.SizeInDump)
	}
}

func TestRunDeduplicatesIdenticalContent(t *testing.T) {
	image := fillerBuffer(128 << 10)
	region := ddxRegion()
	copy(image[0x1000:], region)
	copy(image[0x10000:], region)

	res := runCarver(t, image, Options{OutputDir: t.TempDir(), ChunkSize: 16 << 10})
	if len(res.Entries) != 1 {
		t.Fatalf("recovered %d entries, want 1 after dedup", len(res.Entries))
	}
	if res.Duplicates != 1 {
		t.Errorf("duplicates %d, want 1", res.Duplicates)
	}
}

func TestRunManifestMatchesEntries(t *testing.T) {
	image := fillerBuffer(64 << 10)
	copy(image[0x1000:], ddxRegion())
	script := "scn ManifestCheck\nshort a\nset a to 2\nend\n"
	copy(image[0xD000:], script)

	dir := t.TempDir()
	res := runCarver(t, image, Options{OutputDir: dir, ChunkSize: 8 << 10, Workers: 4})

	data, err := os.ReadFile(res.ManifestPath)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decoding manifest: %v", err)
	}
	if len(m.Entries) != len(res.Entries) {
		t.Fatalf("manifest has %d entries, result has %d", len(m.Entries), len(res.Entries))
	}
	if m.Summary["ddx_3xdo"].Count != 1 || m.Summary["script"].Count != 1 {
		t.Errorf("summary %+v, want one ddx_3xdo and one script", m.Summary)
	}
	// Every listed file exists on disk.
	for _, e := range m.Entries {
		if _, err := os.Stat(filepath.Join(dir, e.Filename)); err != nil {
			t.Errorf("manifest entry %s: %v", e.Filename, err)
		}
	}
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	image := fillerBuffer(256 << 10)
	copy(image[0x1000:], ddxRegion())
	copy(image[0x8000:], []byte("scn FirstScript\nshort a\nset a to 1\nend\n"))
	copy(image[0x20000:], []byte("scn SecondScript\nshort b\nset b to 2\nend\n"))

	var first []Entry
	for _, workers := range []int{1, 4} {
		res := runCarver(t, image, Options{OutputDir: t.TempDir(), ChunkSize: 32 << 10, Workers: workers})
		if first == nil {
			first = res.Entries
			continue
		}
		if len(res.Entries) != len(first) {
			t.Fatalf("workers=%d: %d entries, want %d", workers, len(res.Entries), len(first))
		}
		for i := range first {
			if res.Entries[i] != first[i] {
				t.Errorf("workers=%d entry %d: %+v != %+v", workers, i, res.Entries[i], first[i])
			}
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	c, err := New(format.Default(), Options{OutputDir: dir, ChunkSize: 8 << 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	image := fillerBuffer(64 << 10)
	res, err := c.Run(ctx, bytes.NewReader(image), int64(len(image)))
	if err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
	if !res.Cancelled {
		t.Fatal("result not marked cancelled")
	}
	data, err := os.ReadFile(res.ManifestPath)
	if err != nil {
		t.Fatalf("cancelled run left no manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decoding manifest: %v", err)
	}
	if !m.Cancelled {
		t.Error("manifest not marked cancelled")
	}
}

func TestRunProgressMonotonic(t *testing.T) {
	image := fillerBuffer(64 << 10)
	copy(image[0x1000:], ddxRegion())

	last := -1.0
	runCarver(t, image, Options{
		OutputDir: t.TempDir(),
		ChunkSize: 8 << 10,
		Workers:   1,
		Progress: func(f float64) {
			if f < last {
				t.Errorf("progress went backwards: %f after %f", f, last)
			}
			last = f
		},
	})
	if last != 1 {
		t.Errorf("final progress %f, want 1", last)
	}
}
