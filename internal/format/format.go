// Package format defines the per-format validation and size-estimation
// contract used by the carver, the registry of built-in formats, and the
// shared boundary scanner parsers fall back to when a format carries no
// trustworthy size field.
package format

import (
	"fmt"

	"github.com/tessara/memcarve/internal/sig"
)

// ParseResult is the outcome of validating a signature hit. EstimatedSize is
// a best-effort bound on the candidate's extent in the dump, not a
// guarantee; it is immutable once produced.
type ParseResult struct {
	Format        string
	EstimatedSize int64
	Width         int
	Height        int
	MipCount      int
	FourCC        string
	Metadata      map[string]string
}

// Input is what a parser sees for one candidate: a header window starting at
// the hit, the absolute offset, how many bytes remain in the buffer, and the
// shared boundary scanner.
type Input struct {
	// Window holds up to Format.Window bytes starting at the candidate
	// offset; it may be shorter near the end of the buffer.
	Window []byte
	// Offset is the candidate's absolute position in the dump.
	Offset int64
	// Remaining is the byte count from Offset to the end of the buffer.
	Remaining int64
	// NextBoundary locates the next recognized signature of any
	// registered format after Offset+from, excluding exclude's own
	// signature from the stop set. Returns the relative distance from
	// Offset, or -1 when nothing is found within the window.
	NextBoundary func(from, window int64, exclude string) int64
}

// ParseFunc validates a candidate and estimates its size. It returns
// (nil, false) to reject; most signature hits over a memory image are
// coincidental and rejection is the common path.
type ParseFunc func(in *Input) (*ParseResult, bool)

// ConvertFunc turns raw carved bytes into the format's converted output
// form. opts carries opaque converter options forwarded from configuration.
// A returned error leaves the raw carve on disk; partial reports that the
// output is a best-effort reconstruction of truncated input.
type ConvertFunc func(raw []byte, opts map[string]string) (out []byte, ext string, partial bool, err error)

// Format describes one carveable file type.
type Format struct {
	ID          string
	Description string
	Extension   string
	// Folder is the per-type output subdirectory.
	Folder string
	Magic  []byte
	// Priority orders overlap resolution; lower wins.
	Priority int
	// MinSize/MaxSize bound plausible candidate sizes.
	MinSize int64
	MaxSize int64
	// Window is how many header bytes the parser wants to see.
	Window int64
	Parse  ParseFunc
	// Convert is optional; formats without a converter are carved raw.
	Convert ConvertFunc
}

// Registry is the immutable set of formats for one carving run. It is built
// once at startup and threaded through every call; concurrent runs can hold
// independent registries.
type Registry struct {
	formats map[string]*Format
	order   []string
}

// NewRegistry builds a registry from the given formats. IDs must be unique
// and every format needs a magic and a parser.
func NewRegistry(formats ...*Format) (*Registry, error) {
	r := &Registry{formats: make(map[string]*Format, len(formats))}
	for _, f := range formats {
		if f.ID == "" || len(f.Magic) == 0 || f.Parse == nil {
			return nil, fmt.Errorf("format %q is missing id, magic, or parser", f.ID)
		}
		if _, dup := r.formats[f.ID]; dup {
			return nil, fmt.Errorf("duplicate format id %q", f.ID)
		}
		r.formats[f.ID] = f
		r.order = append(r.order, f.ID)
	}
	return r, nil
}

// Default returns a registry of every built-in format.
func Default() *Registry {
	r, err := NewRegistry(builtinFormats()...)
	if err != nil {
		panic(err) // built-in table is static
	}
	return r
}

// Subset restricts the registry to the named format ids.
func (r *Registry) Subset(ids []string) (*Registry, error) {
	var picked []*Format
	for _, id := range ids {
		f, ok := r.formats[id]
		if !ok {
			return nil, fmt.Errorf("unknown format id %q", id)
		}
		picked = append(picked, f)
	}
	return NewRegistry(picked...)
}

// Lookup returns the format for id, or nil.
func (r *Registry) Lookup(id string) *Format {
	return r.formats[id]
}

// IDs returns format ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Signatures returns one scanner signature per format, in registration
// order.
func (r *Registry) Signatures() []sig.Signature {
	sigs := make([]sig.Signature, 0, len(r.order))
	for _, id := range r.order {
		sigs = append(sigs, sig.Signature{ID: id, Magic: r.formats[id].Magic})
	}
	return sigs
}

// Parse dispatches a candidate to its format's parser. Parser failures of
// any kind, including panics over adversarial input, are converted to
// rejection here; they never reach the orchestrator.
func (r *Registry) Parse(id string, in *Input) (res *ParseResult, ok bool) {
	f := r.formats[id]
	if f == nil {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			res, ok = nil, false
		}
	}()
	res, ok = f.Parse(in)
	if !ok || res == nil {
		return nil, false
	}
	// An estimate that does not reach past the magic carries no
	// information; reject before the orchestrator sees it.
	if res.EstimatedSize <= int64(len(f.Magic)) {
		return nil, false
	}
	return res, true
}
