// Package reference reads the sequence names and lengths of a reference
// genome, from its samtools faidx index when one exists and from the FASTA
// itself otherwise, and checks them against an alignment header.
package reference

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// Sequence is a named reference sequence.
type Sequence struct {
	Name   string
	Length int64
}

// ReadIndex parses a .fai index.  Only the name and length columns are used.
// path is used in error messages.
func ReadIndex(r io.Reader, path string) ([]Sequence, error) {
	tr := artifact.NewTableReader(r, -1)
	var seqs []Sequence
	for {
		row, err := artifact.ReadRecord(tr, path, 2)
		if err != nil {
			if err == io.EOF {
				return seqs, nil
			}
			return nil, err
		}
		n, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil || n < 0 || row[0] == "" {
			return nil, artifact.TableError(tr, path, errors.E(errors.Invalid, "bad index entry", strconv.Quote(strings.Join(row, "\t"))))
		}
		seqs = append(seqs, Sequence{row[0], n})
	}
}

// ScanFASTA reads the sequence lengths of a FASTA stream.  A sequence's name
// is the header line up to the first space.
func ScanFASTA(r io.Reader, path string) ([]Sequence, error) {
	var (
		br   = bufio.NewReader(r)
		seqs []Sequence
		cur  = -1
		line int
		eof  bool
	)
	for !eof {
		text, err := br.ReadBytes('\n')
		if err == io.EOF {
			eof = true
		} else if err != nil {
			return nil, &artifact.FormatError{Path: path, Line: line + 1, Err: err}
		}
		line++
		text = bytes.TrimRight(text, "\r\n")
		if len(text) == 0 {
			continue
		}
		if text[0] == '>' {
			name := strings.SplitN(string(text[1:]), " ", 2)[0]
			if name == "" {
				return nil, &artifact.FormatError{Path: path, Line: line, Err: errors.E(errors.Invalid, "empty sequence name")}
			}
			seqs = append(seqs, Sequence{Name: name})
			cur = len(seqs) - 1
			continue
		}
		if cur < 0 {
			return nil, &artifact.FormatError{Path: path, Line: line, Err: errors.E(errors.Invalid, "sequence data before the first header")}
		}
		seqs[cur].Length += int64(len(text))
	}
	if len(seqs) == 0 {
		return nil, &artifact.FormatError{Path: path, Err: errors.E(errors.Invalid, "empty FASTA file")}
	}
	return seqs, nil
}

// Load returns the sequences of the FASTA file at path, reading path.fai if it
// exists.
func Load(ctx context.Context, path string) (seqs []Sequence, err error) {
	read, src := ScanFASTA, path
	if _, err := os.Stat(path + ".fai"); err == nil {
		read, src = ReadIndex, path+".fai"
	}
	in, err := artifact.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(src, cerr)
		}
	}()
	if seqs, err = read(in, src); err != nil {
		return nil, err
	}
	log.Printf("%s: %d sequence(s)", src, len(seqs))
	return seqs, nil
}

// Check verifies that every sequence the alignments refer to is in the
// reference with the same length.  The error has kind errors.Precondition and
// names the first mismatch.
func Check(ref, aligned []Sequence) error {
	lengths := make(map[string]int64, len(ref))
	for _, s := range ref {
		lengths[s.Name] = s.Length
	}
	for _, s := range aligned {
		n, ok := lengths[s.Name]
		switch {
		case !ok:
			return errors.E(errors.Precondition, fmt.Sprintf("sequence %s is not in the reference", s.Name))
		case n != s.Length:
			return errors.E(errors.Precondition,
				fmt.Sprintf("sequence %s has length %d in the alignments and %d in the reference", s.Name, s.Length, n))
		}
	}
	return nil
}
