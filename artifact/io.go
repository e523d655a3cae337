package artifact

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// FormatError reports an artifact that is missing, unreadable or malformed.
// Path names the offending file.
type FormatError struct {
	Path string
	// Line is the 1-based line number of the bad record, or 0 when the error
	// isn't tied to a line.
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("artifact %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("artifact %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// WrapError attaches path to err unless err already is a FormatError.
func WrapError(path string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*FormatError); ok {
		return err
	}
	return &FormatError{Path: path, Err: err}
}

type reader struct {
	io.Reader
	ctx context.Context
	f   file.File
	gz  *gzip.Reader
}

func (r *reader) Close() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
	}
	if cerr := r.f.Close(r.ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Open opens an artifact for reading, decompressing it if the path names a
// gzip file.  Failures are reported as *FormatError.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	r := &reader{Reader: f.Reader(ctx), ctx: ctx, f: f}
	if fileio.DetermineType(path) == fileio.Gzip {
		if r.gz, err = gzip.NewReader(r.Reader); err != nil {
			_ = f.Close(ctx)
			return nil, &FormatError{Path: path, Err: err}
		}
		r.Reader = r.gz
	}
	return r, nil
}

type writer struct {
	*bufio.Writer
	ctx context.Context
	f   file.File
	gz  *gzip.Writer
}

func (w *writer) Close() error {
	err := w.Flush()
	if w.gz != nil {
		if cerr := w.gz.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if cerr := w.f.Close(w.ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Create creates an artifact for writing, compressing it if the path names a
// gzip file.  The file isn't complete until Close returns without error.
func Create(ctx context.Context, path string) (io.WriteCloser, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	w := &writer{ctx: ctx, f: f}
	if fileio.DetermineType(path) == fileio.Gzip {
		w.gz = gzip.NewWriter(f.Writer(ctx))
		w.Writer = bufio.NewWriter(w.gz)
	} else {
		w.Writer = bufio.NewWriter(f.Writer(ctx))
	}
	return w, nil
}

// CountLines returns the number of non-empty lines in the artifact at path.
// It is used for artifacts whose record count is the statistic, e.g. the
// per-read lengths table and the loci BED.
func CountLines(ctx context.Context, path string) (n int64, err error) {
	in, err := Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = WrapError(path, cerr)
		}
	}()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), 16<<20)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			n++
		}
	}
	if err = scanner.Err(); err != nil {
		return 0, &FormatError{Path: path, Err: err}
	}
	return n, nil
}
