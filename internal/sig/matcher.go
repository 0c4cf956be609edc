// Package sig implements multi-pattern signature scanning over memory dump
// buffers using an Aho-Corasick automaton. All registered format signatures
// are located in a single pass, either over a whole buffer or over a stream
// of fixed-size chunks with overlap.
package sig

import (
	"context"
	"fmt"
	"io"
)

// Signature is a fixed byte pattern recognizing the start of a known format.
type Signature struct {
	ID    string
	Magic []byte
}

// Match is a single signature hit at an absolute buffer offset.
type Match struct {
	SignatureID string
	Offset      int64
}

type node struct {
	next map[byte]int32
	fail int32
	// indexes into Matcher.sigs for every pattern ending at this state,
	// including patterns reachable through the failure chain
	out []int32
}

// Matcher is an immutable Aho-Corasick automaton over a set of signatures.
// It is safe for concurrent use once built.
type Matcher struct {
	sigs   []Signature
	nodes  []node
	maxLen int
}

// NewMatcher builds the automaton. Zero signatures is valid and matches
// nothing; a zero-length signature is rejected.
func NewMatcher(sigs []Signature) (*Matcher, error) {
	m := &Matcher{
		sigs:  make([]Signature, len(sigs)),
		nodes: []node{{next: make(map[byte]int32)}},
	}
	copy(m.sigs, sigs)

	for i, s := range m.sigs {
		if len(s.Magic) == 0 {
			return nil, fmt.Errorf("signature %q has empty magic", s.ID)
		}
		if len(s.Magic) > m.maxLen {
			m.maxLen = len(s.Magic)
		}
		cur := int32(0)
		for _, b := range s.Magic {
			nxt, ok := m.nodes[cur].next[b]
			if !ok {
				nxt = int32(len(m.nodes))
				m.nodes = append(m.nodes, node{next: make(map[byte]int32)})
				m.nodes[cur].next[b] = nxt
			}
			cur = nxt
		}
		m.nodes[cur].out = append(m.nodes[cur].out, int32(i))
	}

	m.buildFailureLinks()
	return m, nil
}

// buildFailureLinks computes longest-proper-suffix links breadth-first and
// merges output sets down the failure chain, so every state directly knows
// all patterns ending at it.
func (m *Matcher) buildFailureLinks() {
	queue := make([]int32, 0, len(m.nodes))
	for _, child := range m.nodes[0].next {
		m.nodes[child].fail = 0
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for b, child := range m.nodes[cur].next {
			queue = append(queue, child)

			f := m.nodes[cur].fail
			for {
				if nxt, ok := m.nodes[f].next[b]; ok {
					f = nxt
					break
				}
				if f == 0 {
					break
				}
				f = m.nodes[f].fail
			}
			m.nodes[child].fail = f
			m.nodes[child].out = append(m.nodes[child].out, m.nodes[f].out...)
		}
	}
}

// MaxPatternLen returns the length of the longest registered signature.
// Chunked scans need at least MaxPatternLen-1 bytes of overlap.
func (m *Matcher) MaxPatternLen() int {
	return m.maxLen
}

func (m *Matcher) step(state int32, b byte) int32 {
	for {
		if nxt, ok := m.nodes[state].next[b]; ok {
			return nxt
		}
		if state == 0 {
			return 0
		}
		state = m.nodes[state].fail
	}
}

// scan feeds data through the automaton, reporting every hit with an offset
// relative to base. Hits ending at or before minEnd (absolute) are
// suppressed; continuation chunks use this to deduplicate matches that fall
// entirely inside the overlap region.
func (m *Matcher) scan(data []byte, base int64, minEnd int64, emit func(Match) error) error {
	state := int32(0)
	for i, b := range data {
		state = m.step(state, b)
		for _, si := range m.nodes[state].out {
			pat := m.sigs[si]
			end := base + int64(i) + 1
			if end <= minEnd {
				continue
			}
			err := emit(Match{
				SignatureID: pat.ID,
				Offset:      end - int64(len(pat.Magic)),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Scan finds every signature occurrence in data in one pass.
func (m *Matcher) Scan(data []byte) []Match {
	var matches []Match
	_ = m.scan(data, 0, 0, func(mt Match) error {
		matches = append(matches, mt)
		return nil
	})
	return matches
}

// ErrStop aborts a streaming scan early without reporting an error.
var ErrStop = fmt.Errorf("scan stopped")

// ScanReader scans size bytes of r in chunks of chunkSize, keeping
// MaxPatternLen-1 bytes of overlap between chunks so the match set is
// identical to a whole-buffer scan, with no duplicates. progress, if
// non-nil, receives consumed and total byte counts after each chunk.
// Returning ErrStop from emit ends the scan cleanly.
func (m *Matcher) ScanReader(ctx context.Context, r io.ReaderAt, size int64, chunkSize int64, emit func(Match) error, progress func(done, total int64)) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	overlap := int64(m.maxLen - 1)
	if overlap < 0 {
		overlap = 0
	}

	buf := make([]byte, chunkSize+overlap)
	var pos int64
	for pos < size {
		if err := ctx.Err(); err != nil {
			return err
		}

		readStart := pos - overlap
		if readStart < 0 {
			readStart = 0
		}
		readLen := pos + chunkSize - readStart
		if readStart+readLen > size {
			readLen = size - readStart
		}

		n, err := r.ReadAt(buf[:readLen], readStart)
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading scan chunk at offset 0x%X: %w", readStart, err)
		}
		if n == 0 {
			break
		}

		// minEnd=pos suppresses matches already reported by the
		// previous chunk; a match straddling the boundary ends past
		// pos and is reported exactly once, here.
		if err := m.scan(buf[:n], readStart, pos, emit); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}

		pos += chunkSize
		if pos > size {
			pos = size
		}
		if progress != nil {
			progress(pos, size)
		}
	}
	return nil
}
