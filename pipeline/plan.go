package pipeline

import (
	"context"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// Rarefraction plot line colours.
const (
	anyColor  = "#FF000088"
	fullColor = "#0000FF88"
)

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func scaleArgs(scale []float64) []string {
	args := make([]string, len(scale))
	for i, v := range scale {
		args[i] = ftoa(v)
	}
	return args
}

// plotStages returns one Rscript stage per plot format.  args receives the
// absolute plot path and returns the script arguments.
func plotStages(name, script, plot string, inputs []string, args func(p *Params, out string) []string) []Stage {
	var stages []Stage
	for _, ext := range artifact.PlotFormats {
		ext := ext
		out := artifact.Plot(plot, ext)
		stages = append(stages, Stage{
			Name:    name + "_" + ext,
			Program: RscriptProgram,
			Args: func(p *Params) []string {
				return append([]string{p.Script(script)}, args(p, p.Path(out))...)
			},
			Inputs:  inputs,
			Outputs: []string{out},
		})
	}
	return stages
}

// countReads sets p.ReadCount from the per-read lengths table.
func countReads(ctx context.Context, p *Params) error {
	n, err := artifact.CountLines(ctx, p.Path(artifact.Lengths))
	if err != nil {
		return err
	}
	p.ReadCount = n
	log.Printf("%d read(s) in %s", n, p.Input)
	return nil
}

// Plan returns the analysis stages for opts.  The reference and annotation
// stages are included only when opts names a reference or an annotation.
func Plan(opts Opts) []Stage {
	stages := alignmentStages()
	if opts.Reference != "" {
		stages = append(stages, referenceStages()...)
	}
	if opts.Annotation != "" {
		stages = append(stages, annotationStages()...)
	}
	return stages
}

func alignmentStages() []Stage {
	traversalOutputs := []string{
		artifact.Lengths, artifact.BestGPD, artifact.GappedGPD, artifact.ChimeraGPD,
		artifact.TechnicalChimeraGPD, artifact.TechnicalAtypicalChimeraGPD, artifact.ChrLens,
	}
	stages := []Stage{
		{
			Name:    "bam_traversal",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				args := []string{p.Script("bam_traversal.py"), p.Input, "-o", p.Path(artifact.DataDir) + "/",
					"--threads", itoa(p.Threads)}
				if p.MinAlignedBases != 0 {
					args = append(args, "--min_aligned_bases", itoa(p.MinAlignedBases))
				}
				if p.MaxQueryOverlap != 0 {
					args = append(args, "--max_query_overlap", itoa(p.MaxQueryOverlap))
				}
				if p.MaxTargetOverlap != 0 {
					args = append(args, "--max_target_overlap", itoa(p.MaxTargetOverlap))
				}
				if p.MaxQueryGap != 0 {
					args = append(args, "--max_query_gap", itoa(p.MaxQueryGap))
				}
				if p.MaxTargetGap != 0 {
					args = append(args, "--max_target_gap", itoa(p.MaxTargetGap))
				}
				if p.RequiredFractionalImprovement != 0 {
					args = append(args, "--required_fractional_improvement", ftoa(p.RequiredFractionalImprovement))
				}
				return args
			},
			Outputs: traversalOutputs,
			After:   countReads,
		},
		{
			Name:    "gpd_to_depth",
			Program: "gpd_to_bed_depth.py",
			Args: func(p *Params) []string {
				return []string{p.Path(artifact.BestGPD), "-o", p.Path(artifact.DepthBED)}
			},
			Inputs:  []string{artifact.BestGPD},
			Outputs: []string{artifact.DepthBED},
		},
		{
			Name:    "gpd_to_loci",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				args := []string{p.Script("gpd_loci_analysis.py"), p.Path(artifact.BestGPD),
					"-o", p.Path(artifact.LociAll), "--output_loci", p.Path(artifact.Loci),
					"--threads", itoa(p.Threads)}
				if p.MinDepth != 0 {
					args = append(args, "--min_depth", ftoa(p.MinDepth))
				}
				if p.MinCoverageAtDepth != 0 {
					args = append(args, "--min_coverage_at_depth", ftoa(p.MinCoverageAtDepth))
				}
				if p.MinExonCount != 0 {
					args = append(args, "--min_exon_count", itoa(p.MinExonCount))
				}
				return args
			},
			Inputs:  []string{artifact.BestGPD},
			Outputs: []string{artifact.LociAll, artifact.Loci},
		},
		{
			Name:    "loci_rarefraction",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				return []string{p.Script("locus_bed_to_rarefraction.py"), p.Path(artifact.Loci),
					"-o", p.Path(artifact.LocusRarefraction),
					"--threads", itoa(p.Threads),
					"--original_read_count", strconv.FormatInt(p.ReadCount, 10)}
			},
			Inputs:  []string{artifact.Loci, artifact.Lengths},
			Outputs: []string{artifact.LocusRarefraction},
		},
	}
	stages = append(stages, plotStages("plot_locus_rarefraction", "plot_annotation_rarefractions.r",
		artifact.LocusRarefractionPlot, []string{artifact.LocusRarefraction},
		func(p *Params, out string) []string {
			return []string{out, "locus", p.Path(artifact.LocusRarefraction), anyColor}
		})...)

	stages = append(stages,
		Stage{
			Name:    "alignment_plot",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				return []string{p.Script("make_alignment_plot.py"), p.Path(artifact.Lengths),
					"--output_stats", p.Path(artifact.AlignmentStats),
					"--output",
					p.Path(artifact.Plot(artifact.AlignmentsPlot, "png")),
					p.Path(artifact.Plot(artifact.AlignmentsPlot, "pdf"))}
			},
			Inputs: []string{artifact.Lengths},
			Outputs: []string{artifact.AlignmentStats,
				artifact.Plot(artifact.AlignmentsPlot, "png"),
				artifact.Plot(artifact.AlignmentsPlot, "pdf")},
		},
		Stage{
			Name:    "depth_to_coverage",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				return []string{p.Script("depth_to_coverage_report.py"), p.Path(artifact.DepthBED),
					p.Path(artifact.ChrLens), "-o", p.Path(artifact.DataDir)}
			},
			Inputs:  []string{artifact.DepthBED, artifact.ChrLens},
			Outputs: []string{artifact.LinePlotTable, artifact.TotalDistroTable, artifact.ChrDistroTable},
		})

	coverageTables := []string{artifact.LinePlotTable, artifact.TotalDistroTable, artifact.ChrDistroTable}
	stages = append(stages, plotStages("covgraph", "plot_chr_depth.r", artifact.CoveragePlot, coverageTables,
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.LinePlotTable), p.Path(artifact.TotalDistroTable),
				p.Path(artifact.ChrDistroTable), out}
		})...)
	stages = append(stages, plotStages("perchr_depth", "plot_depthmap.r", artifact.PerChrDepthPlot,
		[]string{artifact.DepthBED, artifact.ChrLens},
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.DepthBED), p.Path(artifact.ChrLens), out}
		})...)

	stages = append(stages, Stage{
		Name:    "exon_size_distro",
		Program: PythonProgram,
		Args: func(p *Params) []string {
			return []string{p.Script("gpd_to_exon_distro.py"), p.Path(artifact.BestGPD),
				"-o", p.Path(artifact.ExonSizeDistro)}
		},
		Inputs:  []string{artifact.BestGPD},
		Outputs: []string{artifact.ExonSizeDistro},
	})
	stages = append(stages, plotStages("exon_size_distro", "plot_exon_distro.r", artifact.ExonSizeDistroPlot,
		[]string{artifact.ExonSizeDistro},
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.ExonSizeDistro), out}
		})...)
	return stages
}

func referenceStages() []Stage {
	contextPNG := artifact.Plot(artifact.ContextErrorPlot, "png")
	contextPDF := artifact.Plot(artifact.ContextErrorPlot, "pdf")
	errorPNG := artifact.Plot(artifact.AlignmentErrorPlot, "png")
	errorPDF := artifact.Plot(artifact.AlignmentErrorPlot, "pdf")
	return []Stage{
		{
			Name:    "context_error",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				args := []string{p.Script("bam_to_context_error_plot.py"), p.Input, "-r", p.Reference,
					"--target", "--output_raw", p.Path(artifact.ContextErrorData),
					"-o", p.Path(contextPNG), p.Path(contextPDF)}
				if len(p.ContextErrorScale) > 0 {
					args = append(append(args, "--scale"), scaleArgs(p.ContextErrorScale)...)
				}
				if p.ContextErrorStoppingPoint != 0 {
					args = append(args, "--stopping_point", itoa(p.ContextErrorStoppingPoint))
				}
				return args
			},
			Outputs: []string{artifact.ContextErrorData, contextPNG, contextPDF},
		},
		{
			Name:    "alignment_error",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				args := []string{p.Script("bam_to_alignment_error_plot.py"), p.Input, "-r", p.Reference,
					"--output_stats", p.Path(artifact.ErrorStats),
					"--output_raw", p.Path(artifact.ErrorData),
					"-o", p.Path(errorPNG), p.Path(errorPDF)}
				if len(p.AlignmentErrorScale) > 0 {
					args = append(append(args, "--scale"), scaleArgs(p.AlignmentErrorScale)...)
				}
				if p.AlignmentErrorMaxLength != 0 {
					args = append(args, "--max_length", itoa(p.AlignmentErrorMaxLength))
				}
				return args
			},
			Outputs: []string{artifact.ErrorStats, artifact.ErrorData, errorPNG, errorPDF},
		},
	}
}

// depthSubsetStage restricts the depth BED to one class of genomic features
// using this binary's depth-subset command.
func depthSubsetStage(name, features, out string) Stage {
	return Stage{
		Name:    name,
		Program: SelfProgram,
		Args: func(p *Params) []string {
			return []string{"depth-subset", p.Path(artifact.DepthBED), p.Path(features), p.Path(out)}
		},
		Inputs:  []string{artifact.DepthBED, features},
		Outputs: []string{out},
	}
}

func rarefractionStage(name, out string, full bool, feature string) Stage {
	return Stage{
		Name:    name,
		Program: PythonProgram,
		Args: func(p *Params) []string {
			args := []string{p.Script("gpd_annotation_to_rarefraction.py"), p.Path(artifact.AnnotBest),
				"--original_read_count", strconv.FormatInt(p.ReadCount, 10),
				"--threads", itoa(p.Threads)}
			if full {
				args = append(args, "--full")
			}
			return append(args, "--"+feature, "-o", p.Path(out))
		},
		Inputs:  []string{artifact.AnnotBest, artifact.Lengths},
		Outputs: []string{out},
	}
}

func annotationStages() []Stage {
	stages := []Stage{
		{
			Name:    "annotate_from_genomic_features",
			Program: PythonProgram,
			Args: func(p *Params) []string {
				return []string{p.Script("annotate_from_genomic_features.py"),
					"--output_beds", p.Path(artifact.FeatureBEDDir),
					p.Path(artifact.BestGPD), p.Annotation, p.Path(artifact.ChrLens),
					"-o", p.Path(artifact.ReadGenomicFeatures)}
			},
			Inputs: []string{artifact.BestGPD, artifact.ChrLens},
			Outputs: []string{artifact.ExonBED, artifact.IntronBED, artifact.IntergenicBED,
				artifact.ReadGenomicFeatures},
		},
		depthSubsetStage("exondepth", artifact.ExonBED, artifact.ExonDepth),
		depthSubsetStage("introndepth", artifact.IntronBED, artifact.IntronDepth),
		depthSubsetStage("intergenicdepth", artifact.IntergenicBED, artifact.IntergenicDepth),
	}
	depths := []string{artifact.DepthBED, artifact.ExonDepth, artifact.IntronDepth, artifact.IntergenicDepth}
	stages = append(stages, plotStages("featuredepth", "plot_feature_depth.r", artifact.FeatureDepthPlot, depths,
		func(p *Params, out string) []string {
			var args []string
			for _, d := range depths {
				args = append(args, p.Path(d))
			}
			return append(args, out)
		})...)
	stages = append(stages, plotStages("read_genomic_features", "plot_annotated_features.r",
		artifact.ReadGenomicFeaturesPlot, []string{artifact.ReadGenomicFeatures},
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.ReadGenomicFeatures), out}
		})...)

	stages = append(stages, Stage{
		Name:    "gpd_annotate",
		Program: "gpd_annotate.py",
		Args: func(p *Params) []string {
			return []string{p.Path(artifact.BestGPD), "-r", p.Annotation, "-o", p.Path(artifact.AnnotBest),
				"--threads", itoa(p.Threads)}
		},
		Inputs:  []string{artifact.BestGPD},
		Outputs: []string{artifact.AnnotBest},
	})
	stages = append(stages, plotStages("transcript_distro", "plot_transcript_lengths.r",
		artifact.TranscriptDistroPlot, []string{artifact.AnnotBest},
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.AnnotBest), out}
		})...)

	stages = append(stages, Stage{
		Name:    "annot_lengths",
		Program: PythonProgram,
		Args: func(p *Params) []string {
			return []string{p.Script("annotated_length_analysis.py"), p.Path(artifact.BestGPD),
				p.Path(artifact.AnnotBest), "-o", p.Path(artifact.AnnotLengths)}
		},
		Inputs:  []string{artifact.BestGPD, artifact.AnnotBest},
		Outputs: []string{artifact.AnnotLengths},
	})
	stages = append(stages, plotStages("annot_lengths", "plot_annotation_analysis.r",
		artifact.AnnotLengthsPlot, []string{artifact.AnnotLengths},
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.AnnotLengths), out}
		})...)

	stages = append(stages,
		rarefractionStage("gene_rarefraction", artifact.GeneRarefraction, false, "gene"),
		rarefractionStage("transcript_rarefraction", artifact.TranscriptRarefraction, false, "transcript"),
		rarefractionStage("gene_full_rarefraction", artifact.GeneFullRarefraction, true, "gene"),
		rarefractionStage("transcript_full_rarefraction", artifact.TranscriptFullRarefraction, true, "transcript"))

	for _, r := range []struct {
		feature, plot, any, full string
	}{
		{"gene", artifact.GeneRarefractionPlot, artifact.GeneRarefraction, artifact.GeneFullRarefraction},
		{"transcript", artifact.TranscriptRarefractionPlot, artifact.TranscriptRarefraction, artifact.TranscriptFullRarefraction},
	} {
		r := r
		stages = append(stages, plotStages("plot_"+r.feature+"_rarefraction", "plot_annotation_rarefractions.r",
			r.plot, []string{r.any, r.full},
			func(p *Params, out string) []string {
				return []string{out, r.feature, p.Path(r.any), anyColor, p.Path(r.full), fullColor}
			})...)
	}

	stages = append(stages, Stage{
		Name:    "bias_report",
		Program: PythonProgram,
		Args: func(p *Params) []string {
			return []string{p.Script("annotated_read_bias_analysis.py"), p.Path(artifact.BestGPD),
				p.Annotation, p.Path(artifact.AnnotBest),
				"-o", p.Path(artifact.BiasTable), "--output_counts", p.Path(artifact.BiasCounts)}
		},
		Inputs:  []string{artifact.BestGPD, artifact.AnnotBest},
		Outputs: []string{artifact.BiasTable, artifact.BiasCounts},
	})
	stages = append(stages, plotStages("bias", "plot_bias.r", artifact.BiasPlot, []string{artifact.BiasTable},
		func(p *Params, out string) []string {
			return []string{p.Path(artifact.BiasTable), out}
		})...)
	return stages
}

// FinishPlan returns the stages run after the report is rendered: the
// conversion of the report into a single self-contained file.
func FinishPlan(opts Opts) []Stage {
	return []Stage{{
		Name:    "make_solo_html",
		Program: PythonProgram,
		Args: func(p *Params) []string {
			return []string{p.Script("make_solo_html.py"), p.Path(artifact.Report)}
		},
		Inputs:  []string{artifact.Report, artifact.Style},
		Outputs: []string{artifact.Portable},
		Stdout:  artifact.Portable,
	}}
}
