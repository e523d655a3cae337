package annotation

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/lrqc/artifact"
)

// Reference is the gene and transcript set of a genePred annotation.
type Reference struct {
	// Genes and Transcripts list unique ids in order of first appearance.
	Genes       []string
	Transcripts []string
	// GeneOf maps a transcript id to its gene id.
	GeneOf map[string]string
}

// ReadReference parses a genePred file.  Only the two leading name columns
// are used.  path is used in error messages.
func ReadReference(r io.Reader, path string) (*Reference, error) {
	tr := artifact.NewTableReader(r, -1)
	ref := &Reference{GeneOf: map[string]string{}}
	genes := map[string]struct{}{}
	for {
		row, err := artifact.ReadRecord(tr, path, 2)
		if err != nil {
			if err == io.EOF {
				return ref, nil
			}
			return nil, err
		}
		gene, tx := row[0], row[1]
		if gene == "" || tx == "" {
			return nil, artifact.TableError(tr, path, errors.E(errors.Invalid, "empty gene or transcript name"))
		}
		if _, ok := genes[gene]; !ok {
			genes[gene] = struct{}{}
			ref.Genes = append(ref.Genes, gene)
		}
		if _, ok := ref.GeneOf[tx]; !ok {
			ref.Transcripts = append(ref.Transcripts, tx)
		}
		ref.GeneOf[tx] = gene
	}
}

// LoadReference opens and parses the genePred file at path.
func LoadReference(ctx context.Context, path string) (ref *Reference, err error) {
	in, err := artifact.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	return ReadReference(in, path)
}
