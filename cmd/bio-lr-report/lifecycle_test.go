package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/lrqc/pipeline"
	"github.com/grailbio/lrqc/report"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/gosh"
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

// interpreter runs its first argument as a shell script, so the analysis
// scripts of a test are written in sh.
const interpreter = "#!/bin/sh\nexec /bin/sh \"$@\"\n"

// testEnv is a scripts directory and a PATH holding stand-ins for the
// interpreters and tools the analysis stages run.  Each script copies canned
// artifacts to the paths its stage declares.
type testEnv struct {
	dir     string
	scripts string
	input   string
}

func writeFile(t *testing.T, path, data string, mode os.FileMode) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, ioutil.WriteFile(path, []byte(data), mode))
}

func writeGzip(t *testing.T, path, data string) {
	w, err := artifact.Create(context.Background(), path)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func writeBAM(t *testing.T, path string) {
	chr1, err := sam.NewReference("chr1", "", "", 600, nil, nil)
	require.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 400, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	require.NoError(t, err)
	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, header, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	writeFile(t, path, buf.String(), 0644)
}

func newTestEnv(t *testing.T, sh *gosh.Shell) *testEnv {
	e := &testEnv{dir: sh.MakeTempDir()}
	e.scripts = filepath.Join(e.dir, "scripts")
	bin := filepath.Join(e.dir, "bin")
	fixtures := filepath.Join(e.dir, "fixtures")

	writeGzip(t, filepath.Join(fixtures, "lengths.gz"), "r1\t1\t1000\t1000\nr2\t1\t900\t900\nr3\t0\t0\t500\n")
	writeGzip(t, filepath.Join(fixtures, "depth.gz"), "chr1\t0\t100\t2\nchr1\t200\t300\t1\nchr2\t0\t50\t4\n")
	writeGzip(t, filepath.Join(fixtures, "loci.gz"), "chr1\t0\t100\nchr1\t200\t300\nchr2\t0\t50\n")
	writeGzip(t, filepath.Join(fixtures, "best.gz"), "")
	writeFile(t, filepath.Join(fixtures, "alignment_stats.txt"), alignmentStats, 0644)
	fix := func(name string) string { return filepath.Join(fixtures, name) }

	for _, name := range pipeline.Interpreters {
		writeFile(t, filepath.Join(bin, name), interpreter, 0755)
	}
	writeFile(t, filepath.Join(bin, "gpd_to_bed_depth.py"),
		fmt.Sprintf("#!/bin/sh\ncp %s \"$3\"\n", fix("depth.gz")), 0755)

	base := path.Base
	scripts := map[string]string{
		"bam_traversal.py": fmt.Sprintf(`d=$3
cp %s "$d%s"
cp %s "$d%s"
for f in %s %s %s %s; do : > "$d$f"; done
printf 'chr1\t600\nchr2\t400\n' > "$d%s"
`, fix("lengths.gz"), base(artifact.Lengths), fix("best.gz"), base(artifact.BestGPD),
			base(artifact.GappedGPD), base(artifact.ChimeraGPD), base(artifact.TechnicalChimeraGPD),
			base(artifact.TechnicalAtypicalChimeraGPD), base(artifact.ChrLens)),
		"gpd_loci_analysis.py":           fmt.Sprintf("cp %s \"$3\"\ncp %s \"$5\"\n", fix("loci.gz"), fix("loci.gz")),
		"locus_bed_to_rarefraction.py":   "printf '1\\t3\\n' > \"$3\"\n",
		"plot_annotation_rarefractions.r": ": > \"$1\"\n",
		"make_alignment_plot.py":         fmt.Sprintf("cp %s \"$3\"\n: > \"$5\"\n: > \"$6\"\n", fix("alignment_stats.txt")),
		"depth_to_coverage_report.py": fmt.Sprintf(": > \"$4/%s\"\n: > \"$4/%s\"\n: > \"$4/%s\"\n",
			base(artifact.LinePlotTable), base(artifact.TotalDistroTable), base(artifact.ChrDistroTable)),
		"plot_chr_depth.r":      ": > \"$4\"\n",
		"plot_depthmap.r":       ": > \"$3\"\n",
		"gpd_to_exon_distro.py": ": > \"$3\"\n",
		"plot_exon_distro.r":    ": > \"$2\"\n",
		"make_solo_html.py":     "cat \"$1\"\n",
	}
	for name, body := range scripts {
		writeFile(t, filepath.Join(e.scripts, name), body, 0644)
	}

	e.input = filepath.Join(e.dir, "reads.bam")
	writeBAM(t, e.input)

	oldPath := os.Getenv("PATH")
	require.NoError(t, os.Setenv("PATH", bin+string(os.PathListSeparator)+oldPath))
	sh.AddCleanupHandler(func() { os.Setenv("PATH", oldPath) }) // nolint: errcheck
	return e
}

func (e *testEnv) opts() pipeline.Opts {
	opts := pipeline.DefaultOpts
	opts.NoReference = true
	opts.ScriptsDir = e.scripts
	return opts
}

func readDocument(t *testing.T, path string) *report.Document {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	var doc report.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	return &doc
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRun(t *testing.T) {
	sh := gosh.NewShell(t)
	defer sh.Cleanup()
	e := newTestEnv(t, sh)
	ctx := context.Background()

	opts := e.opts()
	opts.Output = filepath.Join(e.dir, "out")
	opts.PortableOutput = filepath.Join(e.dir, "portable.html")
	opts.TempDir = filepath.Join(e.dir, "tmp")
	require.NoError(t, run(ctx, opts, e.input, nil))

	for _, rel := range []string{
		artifact.Report, artifact.Portable, artifact.ReportJSON, artifact.Params, artifact.Style,
		artifact.AlignmentStats, artifact.Plot(artifact.AlignmentsPlot, "png"),
		artifact.Log("bam_traversal") + ".err",
	} {
		expect.True(t, exists(filepath.Join(opts.Output, filepath.FromSlash(rel))), rel)
	}
	html, err := ioutil.ReadFile(filepath.Join(opts.Output, artifact.Report))
	require.NoError(t, err)
	portable, err := ioutil.ReadFile(opts.PortableOutput)
	require.NoError(t, err)
	expect.EQ(t, string(portable), string(html))
	assert.Contains(t, string(html), "90.0%")
	assert.Contains(t, string(html), "reads.bam")

	doc := readDocument(t, filepath.Join(opts.Output, filepath.FromSlash(artifact.ReportJSON)))
	v, ok := doc.Section(report.AlignmentSection).Highlight(report.ReadsAlignedLabel)
	expect.True(t, ok)
	expect.EQ(t, v, "90.0%")
	v, ok = doc.Section(report.CoverageSection).Highlight(report.GenomeCoveredLabel)
	expect.True(t, ok)
	expect.EQ(t, v, "25.00%")

	// The temporary workspace is gone.
	left, err := ioutil.ReadDir(opts.TempDir)
	require.NoError(t, err)
	expect.EQ(t, len(left), 0)
}

func TestRunStdinPinned(t *testing.T) {
	sh := gosh.NewShell(t)
	defer sh.Cleanup()
	e := newTestEnv(t, sh)
	ctx := context.Background()

	opts := e.opts()
	opts.Output = filepath.Join(e.dir, "out")
	opts.SpecificTempDir = filepath.Join(e.dir, "pinned")
	in, err := os.Open(e.input)
	require.NoError(t, err)
	defer in.Close() // nolint: errcheck
	require.NoError(t, run(ctx, opts, stdinName, in))

	for _, sub := range []string{artifact.DataDir, artifact.PlotsDir, artifact.LogsDir, spoolPath} {
		expect.True(t, exists(filepath.Join(opts.SpecificTempDir, filepath.FromSlash(sub))), sub)
	}
	expect.True(t, exists(filepath.Join(opts.Output, artifact.Portable)))
	expect.False(t, exists(filepath.Join(opts.Output, spoolDir)))

	doc := readDocument(t, filepath.Join(opts.Output, filepath.FromSlash(artifact.ReportJSON)))
	v, _ := doc.Section(report.MetadataSection).Highlight("Report for")
	expect.EQ(t, v, "stdin")
}

func TestRunStageFailure(t *testing.T) {
	sh := gosh.NewShell(t)
	defer sh.Cleanup()
	e := newTestEnv(t, sh)
	writeFile(t, filepath.Join(e.scripts, "gpd_loci_analysis.py"), "echo broken >&2\nexit 3\n", 0644)

	opts := e.opts()
	opts.Output = filepath.Join(e.dir, "out")
	opts.TempDir = filepath.Join(e.dir, "tmp")
	err := run(context.Background(), opts, e.input, nil)
	serr, ok := err.(*pipeline.StageError)
	require.True(t, ok, "%v", err)
	expect.EQ(t, serr.Stage, "gpd_to_loci")
	expect.EQ(t, serr.ExitCode, 3)
	expect.False(t, exists(opts.Output))
	left, err := ioutil.ReadDir(opts.TempDir)
	require.NoError(t, err)
	expect.EQ(t, len(left), 0)
}
