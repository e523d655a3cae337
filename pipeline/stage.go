// Package pipeline runs the external analysis stages that populate a report
// workspace.  Stages run one at a time in declaration order; they exchange
// data only through files in the workspace, so each stage declares the
// artifacts it reads and writes, and the runner checks the declarations before
// starting and the outputs after every stage.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/errors"
)

// Programs a stage may run.
const (
	RscriptProgram = "Rscript"
	PythonProgram  = "python"
	// SelfProgram runs this binary; see Params.Self.
	SelfProgram = "@self"
)

// Params holds the per-run values stages are built from.  A single Params
// value is threaded through the run; stages may update it from their After
// hook for the benefit of later stages.
type Params struct {
	Opts
	// Root is the workspace root.
	Root string
	// Input is the alignment file to analyse.
	Input string
	// Self is the path of the running binary.
	Self string
	// ReadCount is the number of reads in the input.  It is set once the
	// per-read lengths table exists.
	ReadCount int64
}

// Path returns the absolute path of workspace artifact rel.
func (p *Params) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Script returns the path of the named analysis script.
func (p *Params) Script(name string) string {
	return filepath.Join(p.ScriptsDir, name)
}

// Stage is one external command.
type Stage struct {
	// Name identifies the stage.  Its logs are written to logs/<Name>.out and
	// logs/<Name>.err.
	Name string
	// Program is the command to run: an interpreter, a tool on PATH, or
	// SelfProgram.
	Program string
	// Args computes the command arguments.  It is called right before the
	// stage runs, so it sees updates made by earlier stages.
	Args func(p *Params) []string
	// Inputs and Outputs are workspace-relative artifact paths.
	Inputs  []string
	Outputs []string
	// Stdout, if set, is the artifact the stage's standard output is
	// written to instead of its log.  It must also be listed in Outputs.
	Stdout string
	// After, if set, runs after the stage succeeds.
	After func(ctx context.Context, p *Params) error
}

// Validate checks a stage list: names are unique, no artifact is produced
// twice, and every input is either available before the run or produced by
// an earlier stage.
func Validate(stages []Stage, available ...string) error {
	var (
		names    = map[string]bool{}
		produced = map[string]string{}
	)
	for _, a := range available {
		produced[a] = ""
	}
	for _, s := range stages {
		if s.Name == "" {
			return errors.E(errors.Invalid, "stage with empty name")
		}
		if names[s.Name] {
			return errors.E(errors.Invalid, "duplicate stage", s.Name)
		}
		names[s.Name] = true
		if s.Args == nil {
			return errors.E(errors.Invalid, "stage", s.Name, "has no arguments")
		}
		for _, in := range s.Inputs {
			if _, ok := produced[in]; !ok {
				return errors.E(errors.Precondition, fmt.Sprintf("stage %s reads %s before it is produced", s.Name, in))
			}
		}
		stdout := s.Stdout == ""
		for _, out := range s.Outputs {
			if by, ok := produced[out]; ok {
				if by == "" {
					return errors.E(errors.Exists, fmt.Sprintf("stage %s overwrites existing artifact %s", s.Name, out))
				}
				return errors.E(errors.Exists, fmt.Sprintf("stage %s overwrites %s produced by %s", s.Name, out, by))
			}
			produced[out] = s.Name
			if out == s.Stdout {
				stdout = true
			}
		}
		if !stdout {
			return errors.E(errors.Invalid, fmt.Sprintf("stage %s: stdout artifact %s is not an output", s.Name, s.Stdout))
		}
	}
	return nil
}
