// Package carve orchestrates a carving run over a raw memory image: signature
// scanning, per-format validation, overlap resolution, bounded-concurrency
// extraction and conversion, and manifest generation.
package carve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/tessara/memcarve/internal/format"
	"github.com/tessara/memcarve/internal/sig"
)

// DefaultChunkSize is the scan chunk size when none is configured.
const DefaultChunkSize = 10 << 20

// Options configure a carving run.
type Options struct {
	// OutputDir receives per-type subdirectories and the manifest.
	OutputDir string
	// Formats restricts carving to the named format ids; empty means all.
	Formats []string
	// Convert enables per-format converters; raw carves are kept when a
	// converter fails.
	Convert bool
	// MaxPerType caps extracted files per type; zero means unlimited.
	MaxPerType int
	// ChunkSize is the scan chunk size in bytes.
	ChunkSize int64
	// Workers bounds extraction concurrency; zero means GOMAXPROCS.
	Workers int
	// Progress, if non-nil, receives overall run progress in [0, 1].
	Progress func(fraction float64)
	// ConverterOptions are opaque options forwarded to converters.
	ConverterOptions map[string]string
}

// Result reports what a run recovered.
type Result struct {
	Entries      []Entry
	Summary      map[string]TypeSummary
	ManifestPath string
	Candidates   int
	Accepted     int
	Duplicates   int
	Failed       int
	Cancelled    bool
	Elapsed      time.Duration
}

// Carver runs carving passes over memory images with a fixed format registry.
type Carver struct {
	reg  *format.Registry
	opts Options
}

// New creates a carver. The registry is narrowed to opts.Formats when set.
func New(reg *format.Registry, opts Options) (*Carver, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if len(opts.Formats) > 0 {
		sub, err := reg.Subset(opts.Formats)
		if err != nil {
			return nil, err
		}
		reg = sub
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Carver{reg: reg, opts: opts}, nil
}

func (c *Carver) progress(f float64) {
	if c.opts.Progress != nil {
		c.opts.Progress(f)
	}
}

// Run carves size bytes of r. Cancellation via ctx is not an error: the run
// stops, writes a manifest covering everything recovered so far, and returns
// a result with Cancelled set.
func (c *Carver) Run(ctx context.Context, r io.ReaderAt, size int64) (*Result, error) {
	start := time.Now()
	res := &Result{}

	matcher, err := sig.NewMatcher(c.reg.Signatures())
	if err != nil {
		return nil, fmt.Errorf("building signature matcher: %w", err)
	}
	boundary := format.NewBoundaryScanner(matcher, r, size)

	slog.Info("Scanning image", "size", size, "formats", len(c.reg.IDs()), "chunk_size", c.opts.ChunkSize)
	cands, err := c.scan(ctx, matcher, boundary, r, size, res)
	if err != nil {
		if ctx.Err() != nil {
			res.Cancelled = true
		} else {
			return nil, err
		}
	}

	accepted := resolve(cands, c.opts.MaxPerType)
	res.Accepted = len(accepted)
	slog.Info("Resolved candidates", "validated", len(cands), "accepted", len(accepted))

	entries, err := c.extract(ctx, r, accepted, res)
	if err != nil {
		if ctx.Err() == nil {
			return nil, err
		}
		res.Cancelled = true
	}
	res.Entries = entries
	res.Summary = summarize(entries)

	manifest := &Manifest{
		Created:    time.Now().UTC(),
		SourceSize: size,
		Cancelled:  res.Cancelled,
		Duplicates: res.Duplicates,
		Summary:    res.Summary,
		Entries:    entries,
	}
	res.ManifestPath = filepath.Join(c.opts.OutputDir, "manifest.json")
	if err := manifest.WriteFile(res.ManifestPath); err != nil {
		return nil, err
	}

	c.progress(1)
	res.Elapsed = time.Since(start)
	slog.Info("Carving finished",
		"extracted", len(entries),
		"duplicates", res.Duplicates,
		"failed", res.Failed,
		"cancelled", res.Cancelled,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// scan finds and validates candidates in one streaming pass. Scanning covers
// the first half of the progress range.
func (c *Carver) scan(ctx context.Context, matcher *sig.Matcher, boundary *format.BoundaryScanner, r io.ReaderAt, size int64, res *Result) ([]candidate, error) {
	var cands []candidate

	err := matcher.ScanReader(ctx, r, size, c.opts.ChunkSize, func(m sig.Match) error {
		f := c.reg.Lookup(m.SignatureID)
		remaining := size - m.Offset
		if remaining < f.MinSize {
			return nil
		}

		window := f.Window
		if window > remaining {
			window = remaining
		}
		buf := make([]byte, window)
		n, err := r.ReadAt(buf, m.Offset)
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading header window at offset 0x%X: %w", m.Offset, err)
		}

		in := &format.Input{
			Window:    buf[:n],
			Offset:    m.Offset,
			Remaining: remaining,
			NextBoundary: func(from, window int64, exclude string) int64 {
				hit := boundary.Next(m.Offset+from, window, exclude)
				if hit < 0 {
					return -1
				}
				return from + hit
			},
		}
		pr, ok := c.reg.Parse(m.SignatureID, in)
		if !ok {
			return nil
		}
		res.Candidates++

		carveSize := pr.EstimatedSize
		if carveSize > f.MaxSize {
			carveSize = f.MaxSize
		}
		partial := false
		if carveSize > remaining {
			carveSize = remaining
			partial = true
		}
		if carveSize < f.MinSize {
			return nil
		}

		cands = append(cands, candidate{
			format:  f,
			result:  pr,
			offset:  m.Offset,
			size:    carveSize,
			partial: partial,
		})
		return nil
	}, func(done, total int64) {
		c.progress(0.5 * float64(done) / float64(total))
	})
	return cands, err
}

// extract writes accepted regions to disk with bounded concurrency. Entry
// order follows resolution order regardless of which worker finishes first.
func (c *Carver) extract(ctx context.Context, r io.ReaderAt, accepted []candidate, res *Result) ([]Entry, error) {
	for _, id := range c.reg.IDs() {
		dir := filepath.Join(c.opts.OutputDir, c.reg.Lookup(id).Folder)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	// Per-type sequence numbers are assigned up front so filenames do not
	// depend on worker scheduling.
	seq := make([]int, len(accepted))
	perType := make(map[string]int)
	for i, cand := range accepted {
		perType[cand.result.Format]++
		seq[i] = perType[cand.result.Format]
	}

	slots := make([]*Entry, len(accepted))
	var (
		mu     sync.Mutex
		seen   = make(map[[32]byte]bool)
		done   atomic.Int64
		failed atomic.Int64
		dups   atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i := range accepted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cand := &accepted[i]

			buf := make([]byte, cand.size)
			n, err := r.ReadAt(buf, cand.offset)
			if err != nil && err != io.EOF {
				return fmt.Errorf("reading region at offset 0x%X: %w", cand.offset, err)
			}
			buf = buf[:n]

			data := buf
			ext := cand.format.Extension
			partial := cand.partial || int64(n) < cand.size
			converted := false
			if c.opts.Convert && cand.format.Convert != nil {
				out, cext, cpartial, err := cand.format.Convert(buf, c.opts.ConverterOptions)
				if err != nil {
					slog.Debug("Conversion failed, keeping raw carve",
						"type", cand.result.Format, "offset", fmt.Sprintf("0x%X", cand.offset), "error", err)
					failed.Add(1)
				} else {
					data, ext = out, cext
					partial = partial || cpartial
					converted = true
				}
			}

			hash := blake3.Sum256(data)
			mu.Lock()
			dup := seen[hash]
			if !dup {
				seen[hash] = true
			}
			mu.Unlock()
			if dup {
				dups.Add(1)
				c.stepProgress(&done, len(accepted))
				return nil
			}

			name := fmt.Sprintf("%s_%04d_off_%08X%s", cand.result.Format, seq[i], cand.offset, ext)
			path := filepath.Join(c.opts.OutputDir, cand.format.Folder, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			slog.Debug("Extracted file", "name", name, "size", len(data), "partial", partial)

			slots[i] = &Entry{
				Offset:     cand.offset,
				OffsetHex:  fmt.Sprintf("0x%X", cand.offset),
				SizeInDump: cand.size,
				FileType:   cand.result.Format,
				Filename:   filepath.Join(cand.format.Folder, name),
				IsPartial:  partial,
				Converted:  converted,
			}
			c.stepProgress(&done, len(accepted))
			return nil
		})
	}
	err := g.Wait()

	entries := make([]Entry, 0, len(slots))
	for _, e := range slots {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	res.Duplicates = int(dups.Load())
	res.Failed = int(failed.Load())
	return entries, err
}

func (c *Carver) stepProgress(done *atomic.Int64, total int) {
	if total == 0 {
		return
	}
	c.progress(0.5 + 0.5*float64(done.Add(1))/float64(total))
}
