// bio-lr-report produces a quality report for long-read alignments.
//
// The run command drives the analysis scripts over a BAM file (or "-" for
// standard input), aggregates the artifacts they write and renders
// report.html.  For example:
//
//   bio-lr-report run -o out -r genome.fa -annotation genes.gpd \
//     -scripts-dir /opt/lrqc/scripts reads.bam
//
// depth-subset is an internal command the pipeline runs to restrict a depth
// BED file to a feature set.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/lrqc/interval"
	"github.com/grailbio/lrqc/pipeline"
	"v.io/x/lib/cmdline"
)

// version is shown in the report header.
const version = "1.0.0"

// scaleFlag is a list of six numbers, separated by commas or spaces.
type scaleFlag struct {
	scale *[]float64
}

func (f scaleFlag) String() string {
	if f.scale == nil {
		return ""
	}
	s := make([]string, len(*f.scale))
	for i, v := range *f.scale {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(s, ",")
}

func (f scaleFlag) Set(v string) error {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 6 {
		return fmt.Errorf("expect 6 values, got %q", v)
	}
	scale := make([]float64, len(fields))
	for i, field := range fields {
		x, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		scale[i] = x
	}
	*f.scale = scale
	return nil
}

// defaultScriptsDir returns the directory of the running binary, where the
// scripts are installed alongside it.
func defaultScriptsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "run",
		Short:    "Run the analysis and render the report",
		ArgsName: "input",
		ArgsLong: `input is a BAM file, or "-" to read it from the standard input.`,
	}
	opts := pipeline.DefaultOpts
	f := &cmd.Flags
	f.StringVar(&opts.Output, "o", "", "Directory the report and its data are written to. It must not exist.")
	f.StringVar(&opts.PortableOutput, "portable-output", "", "Path of a single-file copy of the report.")
	f.StringVar(&opts.Reference, "r", "", "Reference genome FASTA. Enables the error analysis.")
	f.BoolVar(&opts.NoReference, "no-reference", false, "Run without a reference genome.")
	f.StringVar(&opts.Annotation, "annotation", "", "Reference annotation in genePred format. Enables the annotation analysis.")
	f.IntVar(&opts.Threads, "threads", opts.Threads, "Number of threads the analysis scripts may use.")
	f.StringVar(&opts.TempDir, "tempdir", "", "Parent directory of the temporary workspace.")
	f.StringVar(&opts.SpecificTempDir, "specific-tempdir", "", "Workspace directory to create and keep after the run.")
	f.StringVar(&opts.ScriptsDir, "scripts-dir", defaultScriptsDir(),
		"Directory holding the analysis and plotting scripts. Defaults to the directory of this binary.")

	f.IntVar(&opts.MinAlignedBases, "min-aligned-bases", opts.MinAlignedBases, "Minimum aligned bases for a read to count as aligned.")
	f.IntVar(&opts.MaxQueryOverlap, "max-query-overlap", opts.MaxQueryOverlap, "Maximum query overlap between the alignments of a read.")
	f.IntVar(&opts.MaxTargetOverlap, "max-target-overlap", opts.MaxTargetOverlap, "Maximum target overlap between the alignments of a read.")
	f.IntVar(&opts.MaxQueryGap, "max-query-gap", opts.MaxQueryGap, "Maximum query gap of a gapped alignment; 0 means no limit.")
	f.IntVar(&opts.MaxTargetGap, "max-target-gap", opts.MaxTargetGap, "Maximum target gap of a gapped alignment.")
	f.Float64Var(&opts.RequiredFractionalImprovement, "required-fractional-improvement", opts.RequiredFractionalImprovement,
		"Fractional improvement in aligned bases a multi-alignment path needs over the best single alignment.")

	f.Float64Var(&opts.MinDepth, "min-depth", opts.MinDepth, "Minimum depth for a locus.")
	f.Float64Var(&opts.MinCoverageAtDepth, "min-coverage-at-depth", opts.MinCoverageAtDepth,
		"Minimum fraction of a locus covered at min-depth.")
	f.IntVar(&opts.MinExonCount, "min-exon-count", opts.MinExonCount, "Minimum exon count of a read used in the locus analysis.")

	f.Var(scaleFlag{&opts.AlignmentErrorScale}, "alignment-error-scale",
		"Plot scale of the alignment error rates: ins_min ins_max mismatch_min mismatch_max del_min del_max.")
	f.IntVar(&opts.AlignmentErrorMaxLength, "alignment-error-max-length", opts.AlignmentErrorMaxLength,
		"Maximum alignment length sampled in the alignment error analysis.")
	f.Var(scaleFlag{&opts.ContextErrorScale}, "context-error-scale",
		"Plot scale of the context error rates: ins_min ins_max mismatch_min mismatch_max del_min del_max.")
	f.IntVar(&opts.ContextErrorStoppingPoint, "context-error-stopping-point", opts.ContextErrorStoppingPoint,
		"Number of contexts sampled in the context error analysis.")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("run takes one input argument, but got %v", argv)
		}
		return run(context.Background(), opts, argv[0], env.Stdin)
	})
	return cmd
}

func newCmdDepthSubset() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "depth-subset",
		Short:    "Restrict a depth BED file to the regions of a feature BED file",
		ArgsName: "depth features output",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("depth-subset takes depth, features and output paths, but got %v", argv)
		}
		return interval.DepthSubset(context.Background(), argv[0], argv[1], argv[2])
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-lr-report",
			Short:    "Long-read alignment quality report",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdRun(),
				newCmdDepthSubset(),
			},
		})
}
