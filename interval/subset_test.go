package interval

import (
	"context"
	"io"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, path, data string) {
	w, err := artifact.Create(context.Background(), path)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readArtifact(t *testing.T, path string) string {
	r, err := artifact.Open(context.Background(), path)
	require.NoError(t, err)
	defer r.Close()
	data, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestDepthSubset(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	depthPath := filepath.Join(tempDir, "depth.sorted.bed.gz")
	writeArtifact(t, depthPath, "chr1\t0\t100\t3\nchr1\t100\t130\t2\nchr2\t10\t20\t7\nchr3\t0\t50\t1\n")
	exonPath := filepath.Join(tempDir, "exon.bed")
	writeArtifact(t, exonPath, "chr1\t50\t60\tg1\nchr1\t90\t120\tg1\nchr2\t0\t15\tg2\n")
	outPath := filepath.Join(tempDir, "exondepth.bed.gz")

	require.NoError(t, DepthSubset(ctx, depthPath, exonPath, outPath))
	assert.Equal(t,
		"chr1\t50\t60\t3\nchr1\t90\t100\t3\nchr1\t100\t120\t2\nchr2\t10\t15\t7\n",
		readArtifact(t, outPath))

	covered, err := SumLengthPath(ctx, outPath)
	require.NoError(t, err)
	assert.Equal(t, int64(45), covered)
}

func TestDepthSubsetMissingFeatures(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	depthPath := filepath.Join(tempDir, "depth.bed")
	writeArtifact(t, depthPath, "chr1\t0\t100\t3\n")
	err := DepthSubset(context.Background(), depthPath, filepath.Join(tempDir, "nope.bed"), filepath.Join(tempDir, "out.bed"))
	_, ok := err.(*artifact.FormatError)
	assert.True(t, ok, "%v", err)
}
