package metrics

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/lrqc/artifact"
)

// BiasCounts is the evidence behind the transcript bias plot: the number of
// reference transcripts and of reads that contributed to it.
type BiasCounts struct {
	Transcripts int64 `tsv:"transcripts"`
	Reads       int64 `tsv:"reads"`
}

// ReadBiasCounts parses a bias counts file (transcripts<TAB>reads).  When the
// file has several lines the last one wins; an empty file is an error.
func ReadBiasCounts(r io.Reader, path string) (BiasCounts, error) {
	tr := artifact.NewTableReader(r, 2)
	var (
		result BiasCounts
		n      int
	)
	for {
		var row BiasCounts
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return BiasCounts{}, artifact.TableError(tr, path, err)
		}
		n++
		result = row
	}
	if n == 0 {
		return BiasCounts{}, &artifact.FormatError{Path: path, Err: errors.E(errors.Invalid, "no bias counts")}
	}
	return result, nil
}

// LoadBiasCounts opens and parses the bias counts file at path.
func LoadBiasCounts(ctx context.Context, path string) (c BiasCounts, err error) {
	in, err := artifact.Open(ctx, path)
	if err != nil {
		return BiasCounts{}, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	return ReadBiasCounts(in, path)
}
