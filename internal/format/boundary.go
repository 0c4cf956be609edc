package format

import (
	"io"

	"github.com/tessara/memcarve/internal/sig"
)

// Boundary-scan defaults. Embedded assets carry no directory or size table,
// so the only evidence of where a candidate ends is where the next
// recognizable thing begins.
const (
	// DefaultBoundaryWindow bounds how far forward a parser may look for
	// the next signature.
	DefaultBoundaryWindow = 1 << 20
	// DefaultFallbackSize is used when no boundary is found in the
	// window, capped to the remaining buffer by the caller.
	DefaultFallbackSize = 10000
)

// BoundaryScanner locates candidate end offsets by searching forward for the
// next recognized signature of any registered format.
type BoundaryScanner struct {
	matcher *sig.Matcher
	r       io.ReaderAt
	size    int64
}

// NewBoundaryScanner builds a scanner over size bytes of r using every
// signature known to matcher. Exclusion is applied per query.
func NewBoundaryScanner(matcher *sig.Matcher, r io.ReaderAt, size int64) *BoundaryScanner {
	return &BoundaryScanner{matcher: matcher, r: r, size: size}
}

// Next returns the distance from the absolute offset `from` to the next
// signature hit of any format other than exclude, looking at most window
// bytes ahead. A recurrence of the candidate's own magic inside its payload
// must not truncate it, which is why the format excludes itself. Returns -1
// when nothing is found.
func (b *BoundaryScanner) Next(from, window int64, exclude string) int64 {
	if from < 0 || from >= b.size || window <= 0 {
		return -1
	}
	end := from + window
	if end > b.size {
		end = b.size
	}

	buf := make([]byte, end-from)
	n, err := b.r.ReadAt(buf, from)
	if err != nil && err != io.EOF {
		return -1
	}

	best := int64(-1)
	for _, m := range b.matcher.Scan(buf[:n]) {
		if m.SignatureID == exclude {
			continue
		}
		if best < 0 || m.Offset < best {
			best = m.Offset
		}
	}
	return best
}
