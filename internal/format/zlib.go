package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const maxZlibDecompressed = 100 * mib

// parseZlib validates a zlib stream by decompressing it in place. The
// decompressor consumes the source a byte at a time, so the reader position
// after the checksum is the exact compressed size; no guessing from the next
// signature is needed.
func parseZlib(in *Input) (*ParseResult, bool) {
	src := bytes.NewReader(in.Window)
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, false
	}
	defer zr.Close()

	decompressed, err := io.Copy(io.Discard, io.LimitReader(zr, maxZlibDecompressed))
	if err != nil || decompressed < 64 {
		// Tiny streams are overwhelmingly false positives; the two-byte
		// magic alone matches ordinary data often.
		return nil, false
	}

	compressed := int64(len(in.Window)) - int64(src.Len())
	if compressed < 10 {
		return nil, false
	}
	return &ParseResult{
		Format:        "zlib",
		EstimatedSize: compressed,
		Metadata: map[string]string{
			"decompressed_size": fmt.Sprintf("%d", decompressed),
		},
	}, true
}

// classifyDecompressed picks an extension for decompressed zlib content by
// sniffing its leading bytes.
func classifyDecompressed(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("Gamebryo File Format")):
		return ".nif"
	case bytes.HasPrefix(data, []byte("DDS ")):
		return ".dds"
	case bytes.HasPrefix(data, []byte("RIFF")):
		return ".xma"
	case bytes.HasPrefix(data, []byte("<?xml")):
		return ".xml"
	}
	printable := 0
	n := len(data)
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == '\t' || b == '\n' || b == '\r' || (b >= 32 && b < 127) {
			printable++
		}
	}
	if n > 0 && printable*10 >= n*9 {
		return ".txt"
	}
	return ".bin"
}

// convertZlib decompresses a carved stream and names the output after its
// content.
func convertZlib(raw []byte, _ map[string]string) ([]byte, string, bool, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, "", false, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, io.LimitReader(zr, maxZlibDecompressed))
	if err != nil {
		return nil, "", false, fmt.Errorf("decompressing stream: %w", err)
	}
	data := buf.Bytes()
	return data, classifyDecompressed(data), false, nil
}
