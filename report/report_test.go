package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/lrqc/coverage"
	"github.com/grailbio/lrqc/metrics"
	"github.com/grailbio/lrqc/stats"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alignmentStats = `TOTAL_READS	100
UNALIGNED_READS	10
ALIGNED_READS	90
SINGLE_ALIGN_READS	80
GAPPED_ALIGN_READS	6
CHIMERA_ALIGN_READS	4
TRANSCHIMERA_ALIGN_READS	3
SELFCHIMERA_ALIGN_READS	1
TOTAL_BASES	200000
UNALIGNED_BASES	20000
ALIGNED_BASES	180000
SINGLE_ALIGN_BASES	170000
GAPPED_ALIGN_BASES	10000
`

const errorStats = `ALIGNMENT_COUNT	50
ALIGNMENT_BASES	10000
ANY_ERROR	1234
MISMATCHES	400
ANY_DELETION	500
COMPLETE_DELETION	300
HOMOPOLYMER_DELETION	200
ANY_INSERTION	334
COMPLETE_INSERTION	300
HOMOPOLYMER_INSERTION	34
`

const annotBest = "r1\t.\tg1\tt1\tfull\n" +
	"r2\t.\tg1\tt1\tpartial\n" +
	"r3\t.\tg1\tt2\tfull\n" +
	"r4\t.\tg2\tt3\tpartial\n" +
	"r5\t.\tg3\tt4\tnone\n"

const annotationGPD = "g1\tt1\tchr1\t+\t0\t40\t0\t40\t1\t0,\t40,\n" +
	"g1\tt2\tchr1\t+\t0\t40\t0\t40\t1\t0,\t40,\n" +
	"g2\tt3\tchr1\t+\t250\t270\t250\t270\t1\t250,\t270,\n" +
	"g4\tt5\tchr2\t-\t10\t20\t10\t20\t1\t10,\t20,\n"

func writeArtifact(t *testing.T, root, rel, data string) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	w, err := artifact.Create(context.Background(), path)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

// newWorkspace writes the artifacts of an alignment-only run under root.
func newWorkspace(t *testing.T, root string) {
	writeArtifact(t, root, artifact.AlignmentStats, alignmentStats)
	writeArtifact(t, root, artifact.ChrLens, "chr1\t600\nchr2\t400\n")
	writeArtifact(t, root, artifact.DepthBED, "chr1\t0\t100\t2\nchr1\t200\t300\t1\nchr2\t0\t50\t4\n")
	writeArtifact(t, root, artifact.Loci, "chr1\t0\t100\nchr1\t200\t300\nchr2\t0\t50\n")
	writeArtifact(t, root, artifact.Lengths, "r1\t1\t1000\t1000\nr2\t1\t900\t900\nr3\t0\t0\t500\n")
	writeArtifact(t, root, artifact.Params, "threads\t1\n")
	writeArtifact(t, root, artifact.Plot(artifact.AlignmentsPlot, "png"), "png")
	writeArtifact(t, root, artifact.Plot(artifact.AlignmentsPlot, "pdf"), "pdf")
	writeArtifact(t, root, artifact.Plot(artifact.CoveragePlot, "png"), "png")
}

// addAnnotation writes the artifacts of the annotation stages under root and
// returns the path of the annotation.
func addAnnotation(t *testing.T, root string) string {
	writeArtifact(t, root, artifact.ExonBED, "chr1\t0\t40\nchr1\t250\t270\n")
	writeArtifact(t, root, artifact.ExonDepth, "chr1\t0\t40\t2\nchr1\t250\t270\t1\n")
	writeArtifact(t, root, artifact.IntronBED, "chr1\t40\t250\n")
	writeArtifact(t, root, artifact.IntronDepth, "chr1\t40\t100\t2\nchr1\t200\t250\t1\n")
	writeArtifact(t, root, artifact.IntergenicBED, "")
	writeArtifact(t, root, artifact.IntergenicDepth, "")
	writeArtifact(t, root, artifact.AnnotBest, annotBest)
	writeArtifact(t, root, artifact.BiasCounts, "3\t40\n4\t42\n")
	gpd := filepath.Join(root, "input", "annotation.gpd")
	writeArtifact(t, root, "input/annotation.gpd", annotationGPD)
	return gpd
}

func load(t *testing.T, root string, opts LoadOpts) (*Document, *Aggregates) {
	ctx := context.Background()
	opts.Input = "reads.bam"
	opts.Version = "1.0"
	opts.Generated = time.Date(2019, 7, 6, 0, 0, 0, 0, time.UTC)
	agg, err := Load(ctx, root, opts)
	require.NoError(t, err)
	m, err := artifact.ScanManifest(ctx, root)
	require.NoError(t, err)
	doc, err := Render(agg, m)
	require.NoError(t, err)
	return doc, agg
}

func TestAlignmentOnly(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	newWorkspace(t, root)

	doc, agg := load(t, root, LoadOpts{})
	expect.EQ(t, agg.ReadCount, int64(3))
	expect.EQ(t, agg.LocusCount, int64(3))
	expect.True(t, agg.Errors == nil)
	expect.True(t, agg.Annotation == nil)

	require.Len(t, doc.Sections, 7)
	expect.EQ(t, doc.Title, Title)

	align := doc.Section(AlignmentSection)
	v, ok := align.Highlight(ReadsAlignedLabel)
	expect.True(t, ok)
	expect.EQ(t, v, "90.0%")
	v, _ = align.Highlight(BasesAlignedLabel)
	expect.EQ(t, v, "90.0%")
	reads := align.Table("Read Stats")
	require.NotNil(t, reads)
	assert.Equal(t, []string{"Total reads", "100", ""}, reads.Rows[0])
	assert.Equal(t, []string{"--- Gapped-align reads", "6", "6.00%"}, reads.Rows[4])
	bases := align.Table("Base Stats (of aligned reads)")
	require.NotNil(t, bases)
	assert.Equal(t, []string{"Total bases", "200,000", ""}, bases.Rows[0])
	require.Len(t, align.Figures, 1)
	assert.Equal(t, Figure{Title: "Summary", PNG: "plots/alignments.png", PDF: "plots/alignments.pdf"}, align.Figures[0])

	cov := doc.Section(CoverageSection)
	v, ok = cov.Highlight(GenomeCoveredLabel)
	expect.True(t, ok)
	expect.EQ(t, v, "25.00%")
	require.Len(t, cov.Tables, 1)
	assert.Equal(t, [][]string{{"Genome", "1,000", "250", "25.00%"}}, cov.Tables[0].Rows)
	require.Len(t, cov.Figures, 1)
	expect.EQ(t, cov.Figures[0].PDF, "")

	ann := doc.Section(AnnotationSection)
	expect.False(t, ann.Available)
	expect.EQ(t, ann.Note, "no annotation supplied")
	errs := doc.Section(ErrorsSection)
	expect.False(t, errs.Available)
	expect.EQ(t, errs.Note, "no reference supplied")

	rare := doc.Section(RarefractionSection)
	assert.Equal(t, [][]string{{"Locus", "", "3"}}, rare.Tables[0].Rows)

	raw := doc.Section(RawDataSection)
	var hrefs []string
	for _, l := range raw.Links {
		hrefs = append(hrefs, l.Href)
	}
	assert.Equal(t, []string{artifact.Lengths, artifact.ChrLens, artifact.DepthBED, artifact.Loci, artifact.AlignmentStats}, hrefs)

	meta := doc.Section(MetadataSection)
	v, _ = meta.Highlight("Generated on")
	expect.EQ(t, v, "2019-07-06")
	require.Len(t, meta.Links, 1)
	expect.EQ(t, meta.Links[0].Href, artifact.Params)
}

func TestWithReferenceAndAnnotation(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	newWorkspace(t, root)
	writeArtifact(t, root, artifact.ErrorStats, errorStats)
	gpd := addAnnotation(t, root)

	doc, agg := load(t, root, LoadOpts{Reference: true, Annotation: gpd})
	require.Len(t, agg.Coverage, len(coverage.Categories))
	assert.Equal(t, metrics.BiasCounts{Transcripts: 4, Reads: 42}, *agg.Bias)

	errs := doc.Section(ErrorsSection)
	expect.True(t, errs.Available)
	v, _ := errs.Highlight(ErrorRateLabel)
	expect.EQ(t, v, "12.340%")
	base := errs.Table("Base stats")
	require.NotNil(t, base)
	assert.Equal(t, []string{"- Correctly aligned bases", "8,766", "87.7%"}, base.Rows[1])
	assert.Equal(t, []string{"--- Mismatched bases", "400", "4.000%"}, base.Rows[3])

	ann := doc.Section(AnnotationSection)
	expect.True(t, ann.Available)
	counts := ann.Table("Annotation Counts")
	require.NotNil(t, counts)
	assert.Equal(t, [][]string{
		{"Genes", "Any match", "3", "2", "66.67%"},
		{"Genes", "Full-length", "3", "1", "33.33%"},
		{"Transcripts", "Any match", "4", "3", "75.00%"},
		{"Transcripts", "Full-length", "4", "2", "50.00%"},
	}, counts.Rows)
	genes := ann.Table("Top Genes")
	assert.Equal(t, [][]string{
		{"g1", "1", "2", "3"},
		{"g2", "1", "0", "1"},
	}, genes.Rows)
	txs := ann.Table("Top Transcripts")
	require.Len(t, txs.Rows, 3)
	assert.Equal(t, []string{"t1", "g1", "1", "1", "2"}, txs.Rows[0])

	rare := doc.Section(RarefractionSection)
	v, _ = rare.Highlight(GenesDetectedLabel)
	expect.EQ(t, v, "3")
	v, _ = rare.Highlight(FullGenesLabel)
	expect.EQ(t, v, "1")
	assert.Equal(t, []string{"Transcript", "any match", "4"}, rare.Tables[0].Rows[3])

	cov := doc.Section(CoverageSection)
	assert.Equal(t, []string{"Intergenic", "0", "0", stats.Undefined}, cov.Tables[0].Rows[3])
	bias := cov.Table("Bias evidence")
	require.NotNil(t, bias)
	assert.Equal(t, [][]string{{"Total Transcripts", "4"}, {"Total reads", "42"}}, bias.Rows)
}

func TestLoadMissingArtifact(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	newWorkspace(t, root)

	_, err := Load(context.Background(), root, LoadOpts{Reference: true})
	ferr, ok := err.(*artifact.FormatError)
	require.True(t, ok, "error %v", err)
	expect.EQ(t, ferr.Path, filepath.Join(root, artifact.ErrorStats))
}

func TestRenderMissingMetric(t *testing.T) {
	agg := &Aggregates{
		Alignment: metrics.NewTable("alignment_stats.txt", map[string]int64{metrics.TotalReads: 0}),
	}
	_, err := Render(agg, artifact.NewManifest())
	ferr, ok := err.(*artifact.FormatError)
	require.True(t, ok, "error %v", err)
	expect.EQ(t, ferr.Path, "alignment_stats.txt")
}

func TestZeroDenominators(t *testing.T) {
	values := map[string]int64{}
	for _, name := range metrics.AlignmentNames {
		values[name] = 0
	}
	agg := &Aggregates{
		Alignment: metrics.NewTable("alignment_stats.txt", values),
		Coverage:  []coverage.Stats{{Category: coverage.Genome}},
	}
	doc, err := Render(agg, artifact.NewManifest())
	require.NoError(t, err)
	v, _ := doc.Section(AlignmentSection).Highlight(ReadsAlignedLabel)
	expect.EQ(t, v, stats.Undefined)
	v, _ = doc.Section(CoverageSection).Highlight(GenomeCoveredLabel)
	expect.EQ(t, v, stats.Undefined)
}

func TestWriteHTML(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	newWorkspace(t, root)
	doc, _ := load(t, root, LoadOpts{})
	doc.Section(MetadataSection).Highlights[2].Value = "<reads>.bam"

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, doc))
	html := buf.String()
	for _, want := range []string{
		Title,
		`href="css/mystyle.css"`,
		"90.0%",
		"25.00%",
		`<img src="plots/alignments.png">`,
		`<a href="plots/alignments.pdf">pdf</a>`,
		"Not available: no reference supplied",
		"&lt;reads&gt;.bam",
	} {
		assert.Contains(t, html, want)
	}
	assert.NotContains(t, html, `colspan="0"`)
}

func TestTableColumns(t *testing.T) {
	expect.EQ(t, Table{}.Columns(), 1)
	expect.EQ(t, Table{Rows: [][]string{{"a", "b"}, {"c", "d", "e"}}}.Columns(), 3)
	expect.EQ(t, Table{Header: []string{"a", "b"}, Rows: [][]string{{"c"}}}.Columns(), 2)
}

func TestWriteJSON(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	newWorkspace(t, root)
	doc, _ := load(t, root, LoadOpts{})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	var got Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, doc, &got)
}

func TestWriteStyle(t *testing.T) {
	root, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(root, "mystyle.css")
	require.NoError(t, WriteStyle(context.Background(), path))
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	expect.EQ(t, string(data), Style)
}
