package artifact

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// NewTableReader returns a reader over a tab-separated artifact.  Lines
// starting with '#' are skipped.  If fields is positive every record must have
// exactly that many columns, so that Read can fill a struct of as many
// fields; otherwise records may vary in width and should be read with
// ReadRecord.
func NewTableReader(r io.Reader, fields int) *tsv.Reader {
	tr := tsv.NewReader(r)
	tr.Comment = '#'
	tr.LazyQuotes = true
	tr.FieldsPerRecord = fields
	if fields <= 0 {
		tr.FieldsPerRecord = -1
	}
	return tr
}

// ReadRecord reads the next record of tr and checks that it has at least min
// columns.  It returns io.EOF at the end of the input and a *FormatError naming
// path otherwise.
func ReadRecord(tr *tsv.Reader, path string, min int) ([]string, error) {
	row, err := tr.Reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, TableError(tr, path, err)
	}
	if len(row) < min {
		return nil, TableError(tr, path, errors.E(errors.Invalid,
			fmt.Sprintf("expect at least %d columns, got %d", min, len(row))))
	}
	return row, nil
}

// TableError wraps an error raised while reading tr into a *FormatError naming
// path.  Errors of kind *errors.Error are taken to be about the record tr read
// last, and are given its line.
func TableError(tr *tsv.Reader, path string, err error) error {
	if _, ok := err.(*FormatError); ok {
		return err
	}
	line := 0
	switch e := err.(type) {
	case *csv.ParseError:
		line = e.StartLine
	case *errors.Error:
		line, _ = tr.Reader.FieldPos(0)
	}
	return &FormatError{Path: path, Line: line, Err: err}
}
