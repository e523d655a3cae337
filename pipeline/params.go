package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

func formatScale(scale []float64) string {
	if len(scale) == 0 {
		return "None"
	}
	return strings.Join(scaleArgs(scale), " ")
}

// paramRows lists the run parameters as name/value pairs in a fixed order.
func paramRows(p *Params) [][2]string {
	str := func(s string) string {
		if s == "" {
			return "None"
		}
		return s
	}
	return [][2]string{
		{"input", str(p.Input)},
		{"output", str(p.Output)},
		{"portable_output", str(p.PortableOutput)},
		{"reference", str(p.Reference)},
		{"no_reference", strconv.FormatBool(p.NoReference)},
		{"annotation", str(p.Annotation)},
		{"threads", itoa(p.Threads)},
		{"tempdir", str(p.Root)},
		{"specific_tempdir", str(p.SpecificTempDir)},
		{"min_aligned_bases", itoa(p.MinAlignedBases)},
		{"max_query_overlap", itoa(p.MaxQueryOverlap)},
		{"max_target_overlap", itoa(p.MaxTargetOverlap)},
		{"max_query_gap", itoa(p.MaxQueryGap)},
		{"max_target_gap", itoa(p.MaxTargetGap)},
		{"required_fractional_improvement", ftoa(p.RequiredFractionalImprovement)},
		{"min_depth", ftoa(p.MinDepth)},
		{"min_coverage_at_depth", ftoa(p.MinCoverageAtDepth)},
		{"min_exon_count", itoa(p.MinExonCount)},
		{"alignment_error_scale", formatScale(p.AlignmentErrorScale)},
		{"alignment_error_max_length", itoa(p.AlignmentErrorMaxLength)},
		{"context_error_scale", formatScale(p.ContextErrorScale)},
		{"context_error_stopping_point", itoa(p.ContextErrorStoppingPoint)},
		{"read_count", strconv.FormatInt(p.ReadCount, 10)},
	}
}

// WriteParams records the run parameters, one name<TAB>value line each, at
// path.
func WriteParams(ctx context.Context, path string, p *Params) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	for _, row := range paramRows(p) {
		w.WriteString(row[0])
		w.WriteString(row[1])
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
