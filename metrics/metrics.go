// Package metrics loads the name/value count tables written by the alignment
// and error analysis stages, and the bias evidence counts.
package metrics

import (
	"context"
	"io"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// Alignment statistics written to artifact.AlignmentStats.
const (
	TotalReads             = "TOTAL_READS"
	AlignedReads           = "ALIGNED_READS"
	UnalignedReads         = "UNALIGNED_READS"
	SingleAlignReads       = "SINGLE_ALIGN_READS"
	GappedAlignReads       = "GAPPED_ALIGN_READS"
	ChimeraAlignReads      = "CHIMERA_ALIGN_READS"
	TransChimeraAlignReads = "TRANSCHIMERA_ALIGN_READS"
	SelfChimeraAlignReads  = "SELFCHIMERA_ALIGN_READS"
	TotalBases             = "TOTAL_BASES"
	UnalignedBases         = "UNALIGNED_BASES"
	AlignedBases           = "ALIGNED_BASES"
	SingleAlignBases       = "SINGLE_ALIGN_BASES"
	GappedAlignBases       = "GAPPED_ALIGN_BASES"
)

// Error statistics written to artifact.ErrorStats.
const (
	AnyError             = "ANY_ERROR"
	AlignmentBases       = "ALIGNMENT_BASES"
	AlignmentCount       = "ALIGNMENT_COUNT"
	Mismatches           = "MISMATCHES"
	AnyDeletion          = "ANY_DELETION"
	CompleteDeletion     = "COMPLETE_DELETION"
	HomopolymerDeletion  = "HOMOPOLYMER_DELETION"
	AnyInsertion         = "ANY_INSERTION"
	CompleteInsertion    = "COMPLETE_INSERTION"
	HomopolymerInsertion = "HOMOPOLYMER_INSERTION"
)

// AlignmentNames lists the names the report reads from the alignment table.
var AlignmentNames = []string{
	TotalReads, AlignedReads, UnalignedReads, SingleAlignReads,
	GappedAlignReads, ChimeraAlignReads, TransChimeraAlignReads,
	SelfChimeraAlignReads, TotalBases, UnalignedBases, AlignedBases,
	SingleAlignBases, GappedAlignBases,
}

// ErrorNames lists the names the report reads from the error table.
var ErrorNames = []string{
	AnyError, AlignmentBases, AlignmentCount, Mismatches, AnyDeletion,
	CompleteDeletion, HomopolymerDeletion, AnyInsertion, CompleteInsertion,
	HomopolymerInsertion,
}

// Table is a read-only name to count mapping loaded from a two-column
// (name<TAB>value) file.
type Table struct {
	// Path is the file the table was read from.
	Path   string
	values map[string]int64
}

type tableRow struct {
	Name  string `tsv:"name"`
	Value int64  `tsv:"value"`
}

// NewTable creates a table from values.  It is mostly useful in tests.
func NewTable(path string, values map[string]int64) *Table {
	t := &Table{Path: path, values: make(map[string]int64, len(values))}
	for k, v := range values {
		t.values[k] = v
	}
	return t
}

// ReadTable parses a name/value table.  Repeated names keep the last value.
func ReadTable(r io.Reader, path string) (*Table, error) {
	t := &Table{Path: path, values: map[string]int64{}}
	tr := artifact.NewTableReader(r, 2)
	for {
		var row tableRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, artifact.TableError(tr, path, err)
		}
		if row.Name == "" {
			return nil, artifact.TableError(tr, path, errors.E(errors.Invalid, "empty metric name"))
		}
		t.values[row.Name] = row.Value
	}
	return t, nil
}

// LoadTable opens and parses the table at path.
func LoadTable(ctx context.Context, path string) (t *Table, err error) {
	in, err := artifact.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	if t, err = ReadTable(in, path); err != nil {
		return nil, err
	}
	log.Debug.Printf("metrics %s: %d value(s)", path, len(t.values))
	return t, nil
}

// Get returns the value of name.  A missing name is reported as a
// *artifact.FormatError naming the table's file.
func (t *Table) Get(name string) (int64, error) {
	v, ok := t.values[name]
	if !ok {
		return 0, &artifact.FormatError{Path: t.Path, Err: errors.E(errors.NotExist, "missing metric", name)}
	}
	return v, nil
}

// Require checks that every name is present, returning the first missing one
// as an error.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if _, err := t.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the names in the table, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.values) }
