package annotation

import (
	"context"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/lrqc/artifact"
)

// The annotation table has the read id, an unused column, the gene, the
// transcript and the match kind.  Later columns are ignored.
const (
	colReadID = iota
	_
	colGene
	colTranscript
	colKind
	numCols
)

// Scanner reads an annotation table one record at a time.
type Scanner struct {
	r    *tsv.Reader
	path string
	rec  Record
	err  error
}

// NewScanner creates a scanner over r.  path is used in error messages.
func NewScanner(r io.Reader, path string) *Scanner {
	return &Scanner{r: artifact.NewTableReader(r, -1), path: path}
}

// Scan reads the next record.  It returns false at the end of the input or on
// error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	row, err := artifact.ReadRecord(s.r, s.path, numCols)
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return false
	}
	s.rec = Record{
		ReadID:     row[colReadID],
		Gene:       row[colGene],
		Transcript: row[colTranscript],
		Kind:       ParseMatchKind(row[colKind]),
	}
	return true
}

// Record returns the record read by the last call to Scan.
func (s *Scanner) Record() Record { return s.rec }

// Err returns the error, if any, that stopped Scan.  It is a
// *artifact.FormatError.
func (s *Scanner) Err() error { return s.err }

// IngestScanner summarises all records of s.
func IngestScanner(s *Scanner) (*Ingested, error) {
	in := NewIngested()
	for s.Scan() {
		in.Add(s.Record())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

// Load reads and summarises the annotation table at path.
func Load(ctx context.Context, path string) (in *Ingested, err error) {
	f, err := artifact.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	if in, err = IngestScanner(NewScanner(f, path)); err != nil {
		return nil, err
	}
	log.Printf("annotation %s: %d record(s), %d gene(s) and %d transcript(s) annotated",
		path, in.Records, in.Genes.Len(), in.Transcripts.Len())
	return in, nil
}
