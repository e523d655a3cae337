package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/alignment"
	"github.com/grailbio/lrqc/artifact"
	"github.com/grailbio/lrqc/pipeline"
	"github.com/grailbio/lrqc/reference"
	"github.com/grailbio/lrqc/report"
	"github.com/grailbio/lrqc/workspace"
	"v.io/x/lib/envvar"
)

// stdinName is the input argument that selects the standard input.
const stdinName = "-"

// Standard input is copied to spoolPath, under spoolDir, so that several
// stages can read it.  spoolDir is not published.
const (
	spoolDir  = "input"
	spoolPath = "input/stdin.bam"
)

// run produces the report for input.
func run(ctx context.Context, opts pipeline.Opts, input string, stdin io.Reader) (err error) {
	if err = opts.Validate(); err != nil {
		return err
	}
	if err = opts.Absolute(); err != nil {
		return err
	}
	if input != stdinName {
		if _, err = os.Stat(input); err != nil {
			return &pipeline.StartupError{Err: errors.E(errors.NotExist, "input", input, err)}
		}
		if input, err = filepath.Abs(input); err != nil {
			return err
		}
	}
	if _, err = pipeline.CheckInterpreters(envvar.SliceToMap(os.Environ())); err != nil {
		return err
	}
	root, persistent := opts.TempDir, false
	if opts.SpecificTempDir != "" {
		root, persistent = opts.SpecificTempDir, true
	}
	ws, err := workspace.Acquire(root, persistent)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := ws.Release(); rerr != nil {
			if err == nil {
				err = rerr
			} else {
				log.Error.Printf("%v", rerr)
			}
		}
	}()

	p := &pipeline.Params{Opts: opts, Root: ws.Root, Input: input}
	var skip []string
	if input == stdinName {
		if err = spool(ctx, ws.Path(spoolPath), stdin); err != nil {
			return err
		}
		p.Input = ws.Path(spoolPath)
		skip = append(skip, spoolDir)
	}
	summary, err := alignment.Inspect(ctx, p.Input)
	if err != nil {
		return &pipeline.StartupError{Err: err}
	}
	if opts.Reference != "" {
		seqs, err := reference.Load(ctx, opts.Reference)
		if err != nil {
			return &pipeline.StartupError{Err: err}
		}
		if err := reference.Check(seqs, summary.Sequences); err != nil {
			return &pipeline.StartupError{Err: err}
		}
	}
	if p.Self, err = os.Executable(); err != nil {
		return err
	}
	runner := &pipeline.Runner{Params: p}
	if _, err = runner.Run(ctx, pipeline.Plan(opts)); err != nil {
		return err
	}
	if err = pipeline.WriteParams(ctx, ws.Path(artifact.Params), p); err != nil {
		return err
	}
	if err = report.WriteStyle(ctx, ws.Path(artifact.Style)); err != nil {
		return err
	}
	if err = render(ctx, ws.Root, opts, displayName(input)); err != nil {
		return err
	}
	if _, err = runner.Run(ctx, pipeline.FinishPlan(opts), artifact.Report, artifact.Style); err != nil {
		return err
	}
	if opts.PortableOutput != "" {
		if err = ws.CopyFile(artifact.Portable, opts.PortableOutput); err != nil {
			return err
		}
		log.Printf("wrote %s", opts.PortableOutput)
	}
	if opts.Output != "" {
		if err = ws.Publish(opts.Output, skip...); err != nil {
			return err
		}
	}
	return nil
}

// render aggregates the artifacts under root and writes the HTML and JSON
// reports.
func render(ctx context.Context, root string, opts pipeline.Opts, input string) error {
	m, err := artifact.ScanManifest(ctx, root)
	if err != nil {
		return err
	}
	agg, err := report.Load(ctx, root, report.LoadOpts{
		Input:      input,
		Reference:  opts.Reference != "",
		Annotation: opts.Annotation,
		Version:    version,
		Generated:  time.Now(),
	})
	if err != nil {
		return err
	}
	doc, err := report.Render(agg, m)
	if err != nil {
		return err
	}
	if err := writeDoc(ctx, filepath.Join(root, artifact.Report), doc, report.WriteHTML); err != nil {
		return err
	}
	return writeDoc(ctx, filepath.Join(root, filepath.FromSlash(artifact.ReportJSON)), doc, report.WriteJSON)
}

func writeDoc(ctx context.Context, path string, doc *report.Document,
	write func(io.Writer, *report.Document) error) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return write(out.Writer(ctx), doc)
}

// spool copies r to path.
func spool(ctx context.Context, path string, r io.Reader) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	n, err := io.Copy(out.Writer(ctx), r)
	if err != nil {
		return errors.E("spool standard input", err)
	}
	log.Printf("spooled %d bytes of standard input to %s", n, path)
	return nil
}

func displayName(input string) string {
	if input == stdinName {
		return "stdin"
	}
	return filepath.Base(input)
}
