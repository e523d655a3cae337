// Package coverage computes how much of the genome, and of each class of
// annotated genomic feature, is covered by aligned reads.
package coverage

import (
	"context"
	"io"
	"path/filepath"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/lrqc/interval"
)

// Category is a class of genomic positions.
type Category int

const (
	Genome Category = iota
	Exon
	Intron
	Intergenic
)

// Categories lists all categories in display order.
var Categories = []Category{Genome, Exon, Intron, Intergenic}

var categoryNames = [...]string{"Genome", "Exons", "Introns", "Intergenic"}

func (c Category) String() string { return categoryNames[c] }

// Stats holds the feature size and covered size of one category, in bases.
// CoveredBP <= TotalBP holds only if the input intervals are disjoint; this is
// not checked.
type Stats struct {
	Category  Category
	TotalBP   int64
	CoveredBP int64
}

// Fraction returns CoveredBP/TotalBP.  ok is false, and the fraction
// undefined, when TotalBP is zero.
func (s Stats) Fraction() (f float64, ok bool) {
	if s.TotalBP == 0 {
		return 0, false
	}
	return float64(s.CoveredBP) / float64(s.TotalBP), true
}

// Sources names the artifacts a category's statistics are read from.  Total
// is a BED of the category's features; for the genome it is instead the
// reference length table (name<TAB>length).  Covered is the depth BED
// restricted to the category.
type Sources struct {
	Total, Covered string
	// TotalIsLengths is set when Total is a reference length table.
	TotalIsLengths bool
}

// DefaultSources returns the artifact locations written by the pipeline in the
// workspace rooted at root.  Feature categories are only included when
// withFeatures is set (i.e. an annotation was supplied).
func DefaultSources(root string, withFeatures bool) map[Category]Sources {
	p := func(rel string) string { return filepath.Join(root, rel) }
	sources := map[Category]Sources{
		Genome: {Total: p(artifact.ChrLens), Covered: p(artifact.DepthBED), TotalIsLengths: true},
	}
	if withFeatures {
		sources[Exon] = Sources{Total: p(artifact.ExonBED), Covered: p(artifact.ExonDepth)}
		sources[Intron] = Sources{Total: p(artifact.IntronBED), Covered: p(artifact.IntronDepth)}
		sources[Intergenic] = Sources{Total: p(artifact.IntergenicBED), Covered: p(artifact.IntergenicDepth)}
	}
	return sources
}

// Compute reads the total and covered sizes of one category.
func Compute(ctx context.Context, c Category, src Sources) (Stats, error) {
	s := Stats{Category: c}
	var err error
	if src.TotalIsLengths {
		s.TotalBP, err = SumReferenceLengths(ctx, src.Total)
	} else {
		s.TotalBP, err = interval.SumLengthPath(ctx, src.Total)
	}
	if err != nil {
		return s, err
	}
	if s.CoveredBP, err = interval.SumLengthPath(ctx, src.Covered); err != nil {
		return s, err
	}
	return s, nil
}

// Collect computes the statistics of every category in sources, reading the
// artifacts in parallel.  The result is ordered as Categories.
func Collect(ctx context.Context, sources map[Category]Sources) ([]Stats, error) {
	var cats []Category
	for _, c := range Categories {
		if _, ok := sources[c]; ok {
			cats = append(cats, c)
		}
	}
	result := make([]Stats, len(cats))
	err := traverse.Each(len(cats), func(i int) error {
		var err error
		result[i], err = Compute(ctx, cats[i], sources[cats[i]])
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, s := range result {
		f, ok := s.Fraction()
		log.Debug.Printf("coverage %v: %d/%d bp (fraction %v, defined %v)", s.Category, s.CoveredBP, s.TotalBP, f, ok)
	}
	return result, nil
}

// SumReferenceLengths returns the sum of the second column of a reference
// length table (name<TAB>length per line).
func SumReferenceLengths(ctx context.Context, path string) (total int64, err error) {
	in, err := artifact.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(path, cerr)
		}
	}()
	tr := artifact.NewTableReader(in, -1)
	for {
		row, err := artifact.ReadRecord(tr, path, 2)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil || n < 0 {
			return 0, artifact.TableError(tr, path, errors.E(errors.Invalid, "bad reference length", strconv.Quote(row[1])))
		}
		total += n
	}
}
