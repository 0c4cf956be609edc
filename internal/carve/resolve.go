package carve

import (
	"sort"

	"github.com/tessara/memcarve/internal/format"
)

// candidate is a validated signature hit waiting for overlap resolution.
type candidate struct {
	format  *format.Format
	result  *format.ParseResult
	offset  int64
	size    int64
	partial bool
}

func (c *candidate) end() int64 {
	return c.offset + c.size
}

// resolve drops overlapping candidates deterministically. Candidates are
// ordered by offset, then priority, then type, and one is accepted unless it
// overlaps an already accepted region of equal or better priority. A better
// priority candidate inside a worse priority region is kept; an embedded
// asset inside a compressed stream is worth extracting on its own. Losing
// candidates are dropped whole, never truncated. maxPerType caps accepted
// candidates per file type when positive.
func resolve(cands []candidate, maxPerType int) []candidate {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].offset != cands[j].offset {
			return cands[i].offset < cands[j].offset
		}
		if cands[i].format.Priority != cands[j].format.Priority {
			return cands[i].format.Priority < cands[j].format.Priority
		}
		return cands[i].result.Format < cands[j].result.Format
	})

	var accepted []candidate
	perType := make(map[string]int)
	for _, c := range cands {
		if maxPerType > 0 && perType[c.result.Format] >= maxPerType {
			continue
		}
		blocked := false
		for i := len(accepted) - 1; i >= 0; i-- {
			a := &accepted[i]
			if a.end() <= c.offset {
				// Accepted regions are offset-ordered, but an
				// earlier one can still reach past this point.
				continue
			}
			if a.format.Priority <= c.format.Priority {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		accepted = append(accepted, c)
		perType[c.result.Format]++
	}
	return accepted
}
