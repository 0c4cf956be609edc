package sig

import (
	"bytes"
	"context"
	"sort"
	"testing"
)

// naiveScan is the reference implementation: substring search per pattern.
func naiveScan(data []byte, sigs []Signature) []Match {
	var matches []Match
	for _, s := range sigs {
		pos := 0
		for {
			idx := bytes.Index(data[pos:], s.Magic)
			if idx < 0 {
				break
			}
			matches = append(matches, Match{SignatureID: s.ID, Offset: int64(pos + idx)})
			pos += idx + 1
		}
	}
	return matches
}

func sortMatches(ms []Match) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Offset != ms[j].Offset {
			return ms[i].Offset < ms[j].Offset
		}
		return ms[i].SignatureID < ms[j].SignatureID
	})
}

func assertSameMatches(t *testing.T, got, want []Match) {
	t.Helper()
	sortMatches(got)
	sortMatches(want)
	if len(got) != len(want) {
		t.Fatalf("match count = %d, want %d (got %v, want %v)", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMatcherEqualsNaiveSearch(t *testing.T) {
	sigs := []Signature{
		{ID: "dds", Magic: []byte("DDS ")},
		{ID: "riff", Magic: []byte("RIFF")},
		{ID: "png", Magic: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	}
	m, err := NewMatcher(sigs)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("xxDDS yyRIFFzzDDS RIFF")
	data = append(data, 0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n')
	data = append(data, []byte("DDS")...) // truncated magic, no match

	assertSameMatches(t, m.Scan(data), naiveScan(data, sigs))
}

func TestMatcherPrefixPatterns(t *testing.T) {
	// One pattern is a prefix of another: both must be reported at the
	// shared start offset.
	sigs := []Signature{
		{ID: "short", Magic: []byte("AB")},
		{ID: "long", Magic: []byte("ABCD")},
		{ID: "inner", Magic: []byte("BC")},
	}
	m, err := NewMatcher(sigs)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("zABCDzABz")
	assertSameMatches(t, m.Scan(data), naiveScan(data, sigs))
}

func TestMatcherOverlappingOccurrences(t *testing.T) {
	sigs := []Signature{{ID: "aa", Magic: []byte("aa")}}
	m, err := NewMatcher(sigs)
	if err != nil {
		t.Fatal(err)
	}

	// "aaaa" contains three overlapping occurrences.
	got := m.Scan([]byte("aaaa"))
	assertSameMatches(t, got, []Match{
		{SignatureID: "aa", Offset: 0},
		{SignatureID: "aa", Offset: 1},
		{SignatureID: "aa", Offset: 2},
	})
}

func TestMatcherZeroSignatures(t *testing.T) {
	m, err := NewMatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Scan([]byte("anything at all")); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestMatcherRejectsEmptySignature(t *testing.T) {
	_, err := NewMatcher([]Signature{{ID: "bad", Magic: nil}})
	if err == nil {
		t.Fatal("expected error for empty magic")
	}
}

func TestScanReaderMatchesWholeBufferScan(t *testing.T) {
	sigs := []Signature{
		{ID: "dds", Magic: []byte("DDS ")},
		{ID: "gamebryo", Magic: []byte("Gamebryo File Format")},
	}
	m, err := NewMatcher(sigs)
	if err != nil {
		t.Fatal(err)
	}

	// Build a buffer with matches placed to straddle chunk boundaries.
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 31)
	}
	place := func(off int, magic string) {
		copy(data[off:], magic)
	}
	place(0, "DDS ")
	place(1022, "DDS ")     // straddles the 1024 boundary
	place(2040, "Gamebryo File Format") // straddles 2048
	place(3070, "DDS ")
	place(4092, "DDS ")

	want := m.Scan(data)

	for _, chunkSize := range []int64{64, 1024, 4096, 100000} {
		var got []Match
		err := m.ScanReader(context.Background(), bytes.NewReader(data), int64(len(data)), chunkSize,
			func(mt Match) error {
				got = append(got, mt)
				return nil
			}, nil)
		if err != nil {
			t.Fatalf("chunk size %d: %v", chunkSize, err)
		}
		assertSameMatches(t, got, want)
	}
}

func TestScanReaderProgressAndCancel(t *testing.T) {
	m, err := NewMatcher([]Signature{{ID: "x", Magic: []byte("XX")}})
	if err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 1000)

	var reports int
	err = m.ScanReader(context.Background(), bytes.NewReader(data), 1000, 100,
		func(Match) error { return nil },
		func(done, total int64) {
			reports++
			if done > total {
				t.Errorf("done %d exceeds total %d", done, total)
			}
		})
	if err != nil {
		t.Fatal(err)
	}
	if reports != 10 {
		t.Errorf("progress reports = %d, want 10", reports)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.ScanReader(ctx, bytes.NewReader(data), 1000, 100, func(Match) error { return nil }, nil)
	if err == nil {
		t.Error("expected context error from cancelled scan")
	}
}
