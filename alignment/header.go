// Package alignment inspects the alignment file a report is produced for.
package alignment

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/lrqc/reference"
)

// Summary describes the header of an alignment file.
type Summary struct {
	// References is the number of reference sequences.
	References int
	// GenomeLength is the summed length of the reference sequences.
	GenomeLength int64
	// SortOrder is the @HD SO value, "unknown" if absent.
	SortOrder string
	// Sequences lists the reference sequences in header order.
	Sequences []reference.Sequence
}

// Summarize computes the summary of header.
func Summarize(header *sam.Header) Summary {
	s := Summary{SortOrder: header.SortOrder.String()}
	for _, ref := range header.Refs() {
		s.References++
		s.GenomeLength += int64(ref.Len())
		s.Sequences = append(s.Sequences, reference.Sequence{Name: ref.Name(), Length: int64(ref.Len())})
	}
	return s
}

// ReadHeader reads the header of a BAM stream.  name is used in error
// messages.
func ReadHeader(r io.Reader, name string) (*sam.Header, error) {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return nil, errors.E(errors.Invalid, name, "not a BAM file", err)
	}
	h := br.Header()
	if err := br.Close(); err != nil {
		return nil, err
	}
	return h, nil
}

// Inspect reads the header of the BAM file at path.  An input that isn't a
// BAM file fails with kind errors.Invalid.
func Inspect(ctx context.Context, path string) (s Summary, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return Summary{}, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	h, err := ReadHeader(f.Reader(ctx), path)
	if err != nil {
		return Summary{}, err
	}
	s = Summarize(h)
	log.Printf("%s: %d reference(s), %d bp, sort order %s", path, s.References, s.GenomeLength, s.SortOrder)
	if s.References == 0 {
		log.Printf("%s has no reference sequences; no read will align", path)
	}
	return s, nil
}
