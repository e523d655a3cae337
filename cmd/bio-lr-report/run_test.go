package main

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/lrqc/pipeline"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleFlag(t *testing.T) {
	var scale []float64
	f := scaleFlag{&scale}
	expect.EQ(t, f.String(), "")
	require.NoError(t, f.Set("0,0.1 0,0.2,0 0.5"))
	assert.Equal(t, []float64{0, 0.1, 0, 0.2, 0, 0.5}, scale)
	expect.EQ(t, f.String(), "0,0.1,0,0.2,0,0.5")

	assert.Error(t, f.Set("1,2,3"))
	assert.Error(t, f.Set("1,2,3,4,5,x"))
	expect.EQ(t, scaleFlag{}.String(), "")
}

func TestSpool(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, spoolPath)
	require.NoError(t, spool(context.Background(), path, strings.NewReader("BAM\x01")))
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	expect.EQ(t, string(data), "BAM\x01")
}

func TestDisplayName(t *testing.T) {
	expect.EQ(t, displayName("-"), "stdin")
	expect.EQ(t, displayName("/data/run1/reads.bam"), "reads.bam")
}

func TestRunStartupErrors(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	opts := pipeline.DefaultOpts
	opts.NoReference = true
	err := run(ctx, opts, "-", strings.NewReader(""))
	_, ok := err.(*pipeline.StartupError)
	expect.True(t, ok)

	opts.Output = dir
	err = run(ctx, opts, "-", strings.NewReader(""))
	_, ok = err.(*pipeline.StartupError)
	expect.True(t, ok)
	expect.True(t, errors.Is(errors.Exists, err.(*pipeline.StartupError).Err))

	opts.Output = filepath.Join(dir, "out")
	opts.ScriptsDir = dir
	err = run(ctx, opts, filepath.Join(dir, "missing.bam"), nil)
	_, ok = err.(*pipeline.StartupError)
	expect.True(t, ok)
	_, serr := os.Stat(opts.Output)
	expect.True(t, os.IsNotExist(serr))
}
