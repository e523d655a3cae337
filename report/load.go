package report

import (
	"context"
	"path/filepath"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/annotation"
	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/lrqc/coverage"
	"github.com/grailbio/lrqc/metrics"
	"golang.org/x/sync/errgroup"
)

// LoadOpts describes the run whose workspace is being loaded.
type LoadOpts struct {
	// Input is the alignment file name shown in the report.
	Input string
	// Reference is set when the reference-dependent error stages ran.
	Reference bool
	// Annotation is the genePred annotation, if the annotation stages ran.
	Annotation string
	// Version and Generated are shown in the report header.
	Version   string
	Generated time.Time
}

// Aggregates holds every statistic the report shows.  Fields that depend on
// a reference or an annotation are nil when those were not supplied.
type Aggregates struct {
	Input     string
	Version   string
	Generated time.Time

	Alignment  *metrics.Table
	Errors     *metrics.Table
	Coverage   []coverage.Stats
	LocusCount int64
	ReadCount  int64

	Annotation *annotation.Ingested
	Reference  *annotation.Reference
	Bias       *metrics.BiasCounts
}

// Load reads the aggregates from the workspace rooted at root.  Artifacts are
// read concurrently.  Any failure is a *artifact.FormatError naming the
// artifact.
func Load(ctx context.Context, root string, opts LoadOpts) (*Aggregates, error) {
	var (
		agg = &Aggregates{Input: opts.Input, Version: opts.Version, Generated: opts.Generated}
		p   = func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := metrics.LoadTable(ctx, p(artifact.AlignmentStats))
		if err != nil {
			return err
		}
		if err := t.Require(metrics.AlignmentNames...); err != nil {
			return err
		}
		agg.Alignment = t
		return nil
	})
	g.Go(func() (err error) {
		agg.Coverage, err = coverage.Collect(ctx, coverage.DefaultSources(root, opts.Annotation != ""))
		return err
	})
	g.Go(func() (err error) {
		agg.LocusCount, err = artifact.CountLines(ctx, p(artifact.Loci))
		return err
	})
	g.Go(func() (err error) {
		agg.ReadCount, err = artifact.CountLines(ctx, p(artifact.Lengths))
		return err
	})
	if opts.Reference {
		g.Go(func() error {
			t, err := metrics.LoadTable(ctx, p(artifact.ErrorStats))
			if err != nil {
				return err
			}
			if err := t.Require(metrics.ErrorNames...); err != nil {
				return err
			}
			agg.Errors = t
			return nil
		})
	}
	if opts.Annotation != "" {
		g.Go(func() (err error) {
			agg.Annotation, err = annotation.Load(ctx, p(artifact.AnnotBest))
			return err
		})
		g.Go(func() (err error) {
			agg.Reference, err = annotation.LoadReference(ctx, opts.Annotation)
			return err
		})
		g.Go(func() error {
			c, err := metrics.LoadBiasCounts(ctx, p(artifact.BiasCounts))
			if err != nil {
				return err
			}
			agg.Bias = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("loaded report aggregates from %s: %d read(s), %d loci", root, agg.ReadCount, agg.LocusCount)
	return agg, nil
}
