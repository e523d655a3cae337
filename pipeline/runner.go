package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// StageError reports a stage that failed to start, exited with a nonzero
// status, or did not write its declared outputs.
type StageError struct {
	Stage string
	// ExitCode is the exit status, or -1 if the stage did not run to
	// completion.
	ExitCode int
	// LogPath is the stage's standard error log.
	LogPath string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (exit code %d, see %s): %v", e.Stage, e.ExitCode, e.LogPath, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result describes a completed stage.
type Result struct {
	Stage      string
	ExitCode   int
	StdoutPath string
	StderrPath string
	Duration   time.Duration
}

// Runner executes stages in a workspace.
type Runner struct {
	// Params is passed to every stage.  Params.Root is the workspace.
	Params *Params
	// Env is the environment of stage processes; nil means the current
	// process's environment.
	Env []string
}

// Run validates stages, then runs them one at a time in order.  available
// lists the artifacts present in the workspace before the run.  Run stops at
// the first failing stage and returns the results of the stages that
// succeeded along with a *StageError.
func (r *Runner) Run(ctx context.Context, stages []Stage, available ...string) ([]Result, error) {
	if err := Validate(stages, available...); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(stages))
	for i, s := range stages {
		log.Printf("stage %d/%d: %s", i+1, len(stages), s.Name)
		res, err := r.runStage(ctx, s)
		if err != nil {
			log.Error.Printf("%v", err)
			return results, err
		}
		log.Printf("stage %s done in %v", s.Name, res.Duration)
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runStage(ctx context.Context, s Stage) (res Result, err error) {
	p := r.Params
	res = Result{
		Stage:      s.Name,
		ExitCode:   -1,
		StdoutPath: p.Path(artifact.Log(s.Name) + ".out"),
		StderrPath: p.Path(artifact.Log(s.Name) + ".err"),
	}
	if s.Stdout != "" {
		res.StdoutPath = p.Path(s.Stdout)
	}
	stageErr := func(err error) error {
		return &StageError{Stage: s.Name, ExitCode: res.ExitCode, LogPath: res.StderrPath, Err: err}
	}

	program := s.Program
	if program == SelfProgram {
		program = p.Self
	}
	args := s.Args(p)
	log.Printf("%s %s", program, strings.Join(args, " "))

	stdout, err := file.Create(ctx, res.StdoutPath)
	if err != nil {
		return res, stageErr(err)
	}
	stderr, err := file.Create(ctx, res.StderrPath)
	if err != nil {
		_ = stdout.Close(ctx)
		return res, stageErr(err)
	}
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = p.Root
	cmd.Env = r.Env
	cmd.Stdout = stdout.Writer(ctx)
	cmd.Stderr = stderr.Writer(ctx)

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)

	var closeErr errorreporter.T
	closeErr.Set(stdout.Close(ctx))
	closeErr.Set(stderr.Close(ctx))

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, stageErr(runErr)
	}
	res.ExitCode = 0
	if err := closeErr.Err(); err != nil {
		return res, stageErr(err)
	}
	for _, out := range s.Outputs {
		if _, err := os.Stat(p.Path(out)); err != nil {
			return res, stageErr(errors.E(errors.NotExist, "missing output", out))
		}
	}
	if s.After != nil {
		if err := s.After(ctx, p); err != nil {
			return res, stageErr(err)
		}
	}
	return res, nil
}
