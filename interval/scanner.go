package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/lrqc/artifact"
)

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// Length returns End - Start0.
func (e Entry) Length() int64 {
	return int64(e.End) - int64(e.Start0)
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved and the offset just past the last one.
// Any (group of) characters <= ' ' is treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) (int, int) {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		// These simple loops are better than any of the standard library
		// string-split functions when only the first few columns matter.
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx, posEnd
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens), posEnd
}

// Scanner reads intervals from a BED stream one record at a time.  It is
// single-pass; to reread the intervals, reopen the source.  Blank lines and
// lines starting with '#' are skipped.  Only the first three columns are
// interpreted; the remainder of the line is available through Rest.
type Scanner struct {
	scanner *bufio.Scanner
	tokens  [3][]byte
	entry   Entry
	rest    []byte
	lineIdx int
	err     error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 16<<20)
	return &Scanner{scanner: scanner}
}

// Scan advances to the next interval.  It returns false at the end of the
// input or on error; check Err.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		s.lineIdx++
		curLine := s.scanner.Bytes()
		nToken, posEnd := getTokens(s.tokens[:], curLine)
		if nToken == 0 || s.tokens[0][0] == '#' {
			continue
		}
		if nToken != 3 {
			s.err = fmt.Errorf("interval.Scanner: line %d has fewer tokens than expected", s.lineIdx)
			return false
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(s.tokens[1]))
		if err != nil {
			s.err = fmt.Errorf("interval.Scanner: line %d: %v", s.lineIdx, err)
			return false
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(s.tokens[2]))
		if err != nil {
			s.err = fmt.Errorf("interval.Scanner: line %d: %v", s.lineIdx, err)
			return false
		}
		if start < 0 || end < start || end >= PosTypeMax {
			s.err = fmt.Errorf("interval.Scanner: invalid coordinate pair on line %d", s.lineIdx)
			return false
		}
		// The chromosome name must be copied; the line buffer is reused.
		if s.entry.ChrName != gunsafe.BytesToString(s.tokens[0]) {
			s.entry.ChrName = string(s.tokens[0])
		}
		s.entry.Start0 = PosType(start)
		s.entry.End = PosType(end)
		s.rest = trimLeft(curLine[posEnd:])
		return true
	}
	s.err = s.scanner.Err()
	return false
}

func trimLeft(b []byte) []byte {
	for len(b) > 0 && b[0] <= ' ' {
		b = b[1:]
	}
	return b
}

// Entry returns the interval read by the last successful Scan.
func (s *Scanner) Entry() Entry {
	return s.entry
}

// Rest returns the columns after the third on the current line, with leading
// whitespace removed.  The slice is only valid until the next call to Scan.
func (s *Scanner) Rest() []byte {
	return s.rest
}

// Line returns the 1-based line number of the current record.
func (s *Scanner) Line() int {
	return s.lineIdx
}

// Err returns the first error encountered by Scan.
func (s *Scanner) Err() error {
	return s.err
}

// SumLength consumes s and returns the sum of End - Start0 over its records.
// Intervals are neither merged nor sorted: for a sorted disjoint stream this
// is the number of bases covered.
func SumLength(s *Scanner) (int64, error) {
	var total int64
	for s.Scan() {
		total += s.Entry().Length()
	}
	return total, s.Err()
}

// SumLengthPath opens the BED artifact at path and returns SumLength of its
// records.  Errors are reported as *artifact.FormatError.
func SumLengthPath(ctx context.Context, path string) (total int64, err error) {
	in, err := artifact.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	s := NewScanner(in)
	if total, err = SumLength(s); err != nil {
		return 0, &artifact.FormatError{Path: path, Line: s.Line(), Err: err}
	}
	return total, nil
}
