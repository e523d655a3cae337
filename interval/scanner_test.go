package interval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const depthBED = "chr1\t0\t100\t3\nchr1\t150\t175\t1\nchr2\t10\t20\t7\n"

func TestScanner(t *testing.T) {
	s := NewScanner(strings.NewReader("#header\n" + depthBED))
	var got []Entry
	var rest []string
	for s.Scan() {
		got = append(got, s.Entry())
		rest = append(rest, string(s.Rest()))
	}
	expect.NoError(t, s.Err())
	expect.EQ(t, got, []Entry{{"chr1", 0, 100}, {"chr1", 150, 175}, {"chr2", 10, 20}})
	expect.EQ(t, rest, []string{"3", "1", "7"})
	expect.False(t, s.Scan())
}

func TestScannerErrors(t *testing.T) {
	for _, bed := range []string{
		"chr1\t10\n",
		"chr1\tx\t20\n",
		"chr1\t30\t20\n",
		"chr1\t-1\t20\n",
	} {
		s := NewScanner(strings.NewReader(bed))
		for s.Scan() {
		}
		expect.True(t, s.Err() != nil, bed)
	}
}

// The sum must not depend on how the underlying reader delivers the bytes.
func TestSumLengthChunking(t *testing.T) {
	var buf bytes.Buffer
	var want int64
	for i := 0; i < 1000; i++ {
		start := i * 50
		end := start + 1 + i%37
		fmt.Fprintf(&buf, "chr%d\t%d\t%d\t%d\n", i/300, start, end, i%5)
		want += int64(end - start)
	}
	readers := map[string]func() io.Reader{
		"whole":    func() io.Reader { return bytes.NewReader(buf.Bytes()) },
		"onebyte":  func() io.Reader { return iotest.OneByteReader(bytes.NewReader(buf.Bytes())) },
		"halfread": func() io.Reader { return iotest.HalfReader(bytes.NewReader(buf.Bytes())) },
	}
	for name, r := range readers {
		got, err := SumLength(NewScanner(r()))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestSumLengthNoMerge(t *testing.T) {
	// Overlapping input is summed as-is.
	got, err := SumLength(NewScanner(strings.NewReader("chr1\t0\t10\nchr1\t5\t15\n")))
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)
}

func TestSumLengthPath(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	for _, name := range []string{"depth.bed", "depth.bed.gz"} {
		path := filepath.Join(tempDir, name)
		w, err := artifact.Create(ctx, path)
		require.NoError(t, err)
		_, err = io.WriteString(w, depthBED)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		total, err := SumLengthPath(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, int64(135), total)
	}

	_, err := SumLengthPath(ctx, filepath.Join(tempDir, "missing.bed"))
	_, ok := err.(*artifact.FormatError)
	assert.True(t, ok, "%v", err)

	bad := filepath.Join(tempDir, "bad.bed")
	w, err := artifact.Create(ctx, bad)
	require.NoError(t, err)
	_, err = io.WriteString(w, "chr1\t0\t10\nchr1\t5\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = SumLengthPath(ctx, bad)
	ferr, ok := err.(*artifact.FormatError)
	require.True(t, ok, "%v", err)
	assert.Equal(t, bad, ferr.Path)
	assert.Equal(t, 2, ferr.Line)
}
