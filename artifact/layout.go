// Package artifact defines the files exchanged between pipeline stages: their
// fixed workspace-relative paths, gzip-aware readers and writers, the error
// type reported for missing or malformed files, and the manifest the report
// links against.
package artifact

import "path"

// Workspace subdirectories.
const (
	DataDir  = "data"
	PlotsDir = "plots"
	LogsDir  = "logs"
	CSSDir   = "css"
)

// Workspace-relative artifact paths.  Every stage reads and writes these
// locations only; nothing is passed between stages in memory.
const (
	// Alignment traversal.
	Lengths                     = "data/lengths.txt.gz"
	BestGPD                     = "data/best.sorted.gpd.gz"
	GappedGPD                   = "data/gapped.gpd.gz"
	ChimeraGPD                  = "data/chimera.gpd.gz"
	TechnicalChimeraGPD         = "data/technical_chimeras.gpd.gz"
	TechnicalAtypicalChimeraGPD = "data/technical_atypical_chimeras.gpd.gz"
	ChrLens                     = "data/chrlens.txt"
	AlignmentStats              = "data/alignment_stats.txt"

	// Depth and loci.
	DepthBED          = "data/depth.sorted.bed.gz"
	LociAll           = "data/loci-all.bed.gz"
	Loci              = "data/loci.bed.gz"
	LocusRarefraction = "data/locus_rarefraction.txt"
	LinePlotTable     = "data/line_plot_table.txt.gz"
	TotalDistroTable  = "data/total_distro_table.txt.gz"
	ChrDistroTable    = "data/chr_distro_table.txt.gz"
	ExonSizeDistro    = "data/exon_size_distro.txt.gz"

	// Reference-dependent error analysis.
	ContextErrorData = "data/context_error_data.txt"
	ErrorStats       = "data/error_stats.txt"
	ErrorData        = "data/error_data.txt"

	// Annotation-dependent analysis.
	FeatureBEDDir              = "data/beds"
	ExonBED                    = "data/beds/exon.bed"
	IntronBED                  = "data/beds/intron.bed"
	IntergenicBED              = "data/beds/intergenic.bed"
	ReadGenomicFeatures        = "data/read_genomic_features.txt.gz"
	ExonDepth                  = "data/exondepth.bed.gz"
	IntronDepth                = "data/introndepth.bed.gz"
	IntergenicDepth            = "data/intergenicdepth.bed.gz"
	AnnotBest                  = "data/annotbest.txt.gz"
	AnnotLengths               = "data/annot_lengths.txt.gz"
	GeneRarefraction           = "data/gene_rarefraction.txt"
	GeneFullRarefraction       = "data/gene_full_rarefraction.txt"
	TranscriptRarefraction     = "data/transcript_rarefraction.txt"
	TranscriptFullRarefraction = "data/transcript_full_rarefraction.txt"
	BiasTable                  = "data/bias_table.txt.gz"
	BiasCounts                 = "data/bias_counts.txt"

	// Run outputs.
	Params     = "data/params.txt"
	Report     = "report.html"
	ReportJSON = "data/report.json"
	Portable   = "portable_report.html"
	Style      = "css/mystyle.css"
)

// Plot names.  Each plot is written once per format in PlotFormats.
const (
	AlignmentsPlot             = "alignments"
	LocusRarefractionPlot      = "locus_rarefraction"
	CoveragePlot               = "covgraph"
	PerChrDepthPlot            = "perchrdepth"
	ExonSizeDistroPlot         = "exon_size_distro"
	ContextErrorPlot           = "context_plot"
	AlignmentErrorPlot         = "alignment_error_plot"
	FeatureDepthPlot           = "feature_depth"
	ReadGenomicFeaturesPlot    = "read_genomic_features"
	TranscriptDistroPlot       = "transcript_distro"
	AnnotLengthsPlot           = "annot_lengths"
	GeneRarefractionPlot       = "gene_rarefraction"
	TranscriptRarefractionPlot = "transcript_rarefraction"
	BiasPlot                   = "bias"
)

// PlotFormats lists the formats every plot is rendered in.  The report embeds
// the png and links the pdf.
var PlotFormats = []string{"png", "pdf"}

// Plot returns the workspace-relative path of the named plot in format ext.
func Plot(name, ext string) string {
	return path.Join(PlotsDir, name+"."+ext)
}

// Log returns the workspace-relative path prefix of a stage's log files.
func Log(stage string) string {
	return path.Join(LogsDir, stage)
}
