package report

import (
	"strconv"

	"github.com/grailbio/lrqc/annotation"
	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/lrqc/coverage"
	"github.com/grailbio/lrqc/metrics"
	"github.com/grailbio/lrqc/stats"
)

// Title is the document title.
const Title = "Long Read Alignment and Error Report"

// TopCount is the number of genes and transcripts listed as most detected.
const TopCount = 5

// Highlight labels.
const (
	ReadsAlignedLabel  = "reads aligned"
	BasesAlignedLabel  = "bases aligned (of aligned reads)"
	GenomeCoveredLabel = "genome covered"
	GenesDetectedLabel = "genes detected"
	FullGenesLabel     = "full-length genes"
	ErrorRateLabel     = "error rate"
)

// rawData lists the artifacts linked from the raw data section.
var rawData = []Link{
	{"Read lengths", artifact.Lengths},
	{"Best genePred", artifact.BestGPD},
	{"Gapped genePred", artifact.GappedGPD},
	{"Trans-chimeric genePred", artifact.ChimeraGPD},
	{"Self-chimeric genePred", artifact.TechnicalChimeraGPD},
	{"Other-chimeric genePred", artifact.TechnicalAtypicalChimeraGPD},
	{"Reference sequence lengths", artifact.ChrLens},
	{"Coverage bed", artifact.DepthBED},
	{"Loci basics bed", artifact.Loci},
	{"Locus read data bed", artifact.LociAll},
	{"Locus rarefraction", artifact.LocusRarefraction},
	{"Read annotations", artifact.AnnotBest},
	{"Gene any match rarefraction", artifact.GeneRarefraction},
	{"Gene full-length rarefraction", artifact.GeneFullRarefraction},
	{"Transcript any match rarefraction", artifact.TranscriptRarefraction},
	{"Transcript full-length rarefraction", artifact.TranscriptFullRarefraction},
	{"Alignments stats raw report", artifact.AlignmentStats},
	{"Alignment errors data", artifact.ErrorData},
	{"Alignment error report", artifact.ErrorStats},
	{"Contextual errors data", artifact.ContextErrorData},
}

// renderer accumulates the first metric lookup failure so that section
// builders can read values inline.
type renderer struct {
	agg *Aggregates
	m   artifact.Manifest
	err error
}

func (r *renderer) get(t *metrics.Table, name string) int64 {
	v, err := t.Get(name)
	if err != nil && r.err == nil {
		r.err = err
	}
	return v
}

func (r *renderer) figure(title, plot string) (Figure, bool) {
	f := Figure{Title: title}
	if png := artifact.Plot(plot, "png"); r.m.Has(png) {
		f.PNG = png
	}
	if pdf := artifact.Plot(plot, "pdf"); r.m.Has(pdf) {
		f.PDF = pdf
	}
	return f, f.PNG != "" || f.PDF != ""
}

func (r *renderer) addFigure(s *Section, title, plot string) {
	if f, ok := r.figure(title, plot); ok {
		s.Figures = append(s.Figures, f)
	}
}

func count(v int64) string { return stats.GroupedInteger(v) }

func pct(num, den int64, decimals int) string {
	return stats.PercentOrUndefined(num, den, decimals)
}

// Render lays out the report.  It reads nothing but its arguments; figures
// and links are included only for artifacts present in m.  The error, if
// any, names a statistic missing from a metric table.
func Render(agg *Aggregates, m artifact.Manifest) (*Document, error) {
	r := &renderer{agg: agg, m: m}
	doc := &Document{
		Title: Title,
		Sections: []*Section{
			r.metadata(),
			r.alignment(),
			r.annotation(),
			r.coverage(),
			r.rarefraction(),
			r.errors(),
			r.rawData(),
		},
	}
	if r.err != nil {
		return nil, r.err
	}
	return doc, nil
}

func (r *renderer) metadata() *Section {
	s := &Section{ID: MetadataSection, Title: "Run", Available: true}
	s.Highlights = []Highlight{
		{"Generated on", r.agg.Generated.Format("2006-01-02")},
		{"Version", r.agg.Version},
		{"Report for", r.agg.Input},
	}
	if r.m.Has(artifact.Params) {
		s.Links = append(s.Links, Link{"Execution parameters", artifact.Params})
	}
	return s
}

func (r *renderer) alignment() *Section {
	s := &Section{ID: AlignmentSection, Title: "Alignment analysis", Available: true}
	a := r.agg.Alignment
	var (
		totalReads = r.get(a, metrics.TotalReads)
		totalBases = r.get(a, metrics.TotalBases)
	)
	s.Highlights = []Highlight{
		{ReadsAlignedLabel, pct(r.get(a, metrics.AlignedReads), totalReads, 1)},
		{BasesAlignedLabel, pct(r.get(a, metrics.AlignedBases), totalBases, 1)},
	}
	readRow := func(label, name string, decimals int) []string {
		v := r.get(a, name)
		return []string{label, count(v), pct(v, totalReads, decimals)}
	}
	baseRow := func(label, name string, decimals int) []string {
		v := r.get(a, name)
		return []string{label, count(v), pct(v, totalBases, decimals)}
	}
	s.Tables = []Table{
		{
			Title: "Read Stats",
			Rows: [][]string{
				{"Total reads", count(totalReads), ""},
				readRow("- Unaligned reads", metrics.UnalignedReads, 1),
				readRow("- Aligned reads", metrics.AlignedReads, 1),
				readRow("--- Single-align reads", metrics.SingleAlignReads, 1),
				readRow("--- Gapped-align reads", metrics.GappedAlignReads, 2),
				readRow("--- Chimeric reads", metrics.ChimeraAlignReads, 2),
				readRow("----- Trans-chimeric reads", metrics.TransChimeraAlignReads, 2),
				readRow("----- Self-chimeric reads", metrics.SelfChimeraAlignReads, 2),
			},
		},
		{
			Title: "Base Stats (of aligned reads)",
			Rows: [][]string{
				{"Total bases", count(totalBases), ""},
				baseRow("- Unaligned bases", metrics.UnalignedBases, 1),
				baseRow("- Aligned bases", metrics.AlignedBases, 1),
				baseRow("--- Single-aligned bases", metrics.SingleAlignBases, 1),
				baseRow("--- Other-aligned bases", metrics.GappedAlignBases, 2),
			},
		},
	}
	r.addFigure(s, "Summary", artifact.AlignmentsPlot)
	r.addFigure(s, "Exon counts of best alignments", artifact.ExonSizeDistroPlot)
	return s
}

func (r *renderer) annotation() *Section {
	s := &Section{ID: AnnotationSection, Title: "Annotation analysis"}
	in, ref := r.agg.Annotation, r.agg.Reference
	if in == nil || ref == nil {
		s.Note = "no annotation supplied"
		return s
	}
	s.Available = true
	r.addFigure(s, "Distribution of reads among genomic features", artifact.ReadGenomicFeaturesPlot)
	r.addFigure(s, "Distribution of annotated reads", artifact.AnnotLengthsPlot)
	r.addFigure(s, "Distribution of identified reference transcripts", artifact.TranscriptDistroPlot)

	counts := Table{
		Title:  "Annotation Counts",
		Header: []string{"Feature", "Evidence", "Reference", "Detected", "Percent"},
	}
	for _, c := range []struct {
		feature string
		ids     []string
		s       *annotation.Summaries
	}{
		{"Genes", ref.Genes, in.Genes},
		{"Transcripts", ref.Transcripts, in.Transcripts},
	} {
		d := annotation.DetectionCounts(c.ids, c.s)
		n := int64(d.Reference)
		counts.Rows = append(counts.Rows,
			[]string{c.feature, "Any match", count(n), count(int64(d.AnyMatch)), pct(int64(d.AnyMatch), n, 2)},
			[]string{c.feature, "Full-length", count(n), count(int64(d.FullLength)), pct(int64(d.FullLength), n, 2)})
	}

	genes := Table{Title: "Top Genes", Header: []string{"Gene", "Partial", "Full-length", "Total Reads"}}
	top := annotation.TopN(in.Genes, TopCount)
	for i := len(top) - 1; i >= 0; i-- {
		g := top[i]
		genes.Rows = append(genes.Rows, []string{g.ID, count(g.Partial), count(g.Full), count(g.Total())})
	}
	txs := Table{Title: "Top Transcripts", Header: []string{"Transcript", "Gene", "Partial", "Full-length", "Total Reads"}}
	top = annotation.TopN(in.Transcripts, TopCount)
	for i := len(top) - 1; i >= 0; i-- {
		t := top[i]
		gene := t.Gene
		if g, ok := ref.GeneOf[t.ID]; ok {
			gene = g
		}
		txs.Rows = append(txs.Rows, []string{t.ID, gene, count(t.Partial), count(t.Full), count(t.Total())})
	}
	s.Tables = []Table{counts, genes, txs}
	return s
}

func (r *renderer) coverage() *Section {
	s := &Section{ID: CoverageSection, Title: "Coverage analysis", Available: true}
	t := Table{
		Title:  "Coverage statistics",
		Header: []string{"Feature", "Feature (bp)", "Coverage (bp)", "Fraction"},
	}
	for _, c := range r.agg.Coverage {
		f, ok := c.Fraction()
		frac := stats.FormatFraction(f, ok, 2)
		if c.Category == coverage.Genome {
			s.Highlights = append(s.Highlights, Highlight{GenomeCoveredLabel, frac})
		}
		t.Rows = append(t.Rows, []string{c.Category.String(), count(c.TotalBP), count(c.CoveredBP), frac})
	}
	s.Tables = append(s.Tables, t)
	if b := r.agg.Bias; b != nil {
		s.Tables = append(s.Tables, Table{
			Title: "Bias evidence",
			Rows: [][]string{
				{"Total Transcripts", count(b.Transcripts)},
				{"Total reads", count(b.Reads)},
			},
		})
	}
	r.addFigure(s, "Coverage of reference sequences", artifact.CoveragePlot)
	r.addFigure(s, "Coverage distribution", artifact.PerChrDepthPlot)
	r.addFigure(s, "Annotated features coverage", artifact.FeatureDepthPlot)
	r.addFigure(s, "Bias in alignment to reference transcripts", artifact.BiasPlot)
	return s
}

func (r *renderer) rarefraction() *Section {
	s := &Section{ID: RarefractionSection, Title: "Rarefraction analysis", Available: true}
	t := Table{Title: "Rarefraction stats", Header: []string{"Feature", "Criteria", "Count"}}
	if in := r.agg.Annotation; in != nil {
		tally := in.Tally
		s.Highlights = []Highlight{
			{GenesDetectedLabel, count(int64(tally.GenesAny))},
			{FullGenesLabel, count(int64(tally.GenesFull))},
		}
		t.Rows = append(t.Rows,
			[]string{"Gene", "full-length", count(int64(tally.GenesFull))},
			[]string{"Gene", "any match", count(int64(tally.GenesAny))},
			[]string{"Transcript", "full-length", count(int64(tally.TranscriptsFull))},
			[]string{"Transcript", "any match", count(int64(tally.TranscriptsAny))})
		r.addFigure(s, "Gene detection rarefraction", artifact.GeneRarefractionPlot)
		r.addFigure(s, "Transcript detection rarefraction", artifact.TranscriptRarefractionPlot)
	}
	t.Rows = append(t.Rows, []string{"Locus", "", count(r.agg.LocusCount)})
	s.Tables = []Table{t}
	r.addFigure(s, "Locus detection rarefraction", artifact.LocusRarefractionPlot)
	return s
}

func (r *renderer) errors() *Section {
	s := &Section{ID: ErrorsSection, Title: "Error pattern analysis"}
	e := r.agg.Errors
	if e == nil {
		s.Note = "no reference supplied"
		return s
	}
	s.Available = true
	bases := r.get(e, metrics.AlignmentBases)
	anyError := r.get(e, metrics.AnyError)
	s.Highlights = []Highlight{{ErrorRateLabel, pct(anyError, bases, 3)}}
	row := func(label, name string) []string {
		v := r.get(e, name)
		return []string{label, count(v), pct(v, bases, 3)}
	}
	s.Tables = []Table{
		{
			Title: "Alignment stats",
			Rows: [][]string{
				{"Best alignments sampled", strconv.FormatInt(r.get(e, metrics.AlignmentCount), 10), ""},
			},
		},
		{
			Title: "Base stats",
			Rows: [][]string{
				{"Bases analyzed", count(bases), ""},
				{"- Correctly aligned bases", count(bases - anyError), pct(bases-anyError, bases, 1)},
				row("- Total error bases", metrics.AnyError),
				row("--- Mismatched bases", metrics.Mismatches),
				row("--- Deletion bases", metrics.AnyDeletion),
				row("----- Complete deletion bases", metrics.CompleteDeletion),
				row("----- Homopolymer deletion bases", metrics.HomopolymerDeletion),
				row("--- Insertion bases", metrics.AnyInsertion),
				row("----- Complete insertion bases", metrics.CompleteInsertion),
				row("----- Homopolymer insertion bases", metrics.HomopolymerInsertion),
			},
		},
	}
	r.addFigure(s, "Error rates, given a target sequence", artifact.ContextErrorPlot)
	r.addFigure(s, "Alignment-based error rates", artifact.AlignmentErrorPlot)
	return s
}

func (r *renderer) rawData() *Section {
	s := &Section{ID: RawDataSection, Title: "Raw data", Available: true}
	for _, l := range rawData {
		if r.m.Has(l.Href) {
			s.Links = append(s.Links, l)
		}
	}
	return s
}
