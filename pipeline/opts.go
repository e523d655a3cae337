package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"v.io/x/lib/lookpath"
)

// Opts configures a report run.
type Opts struct {
	// Output is the directory the report and its artifacts are published
	// to.  It must not exist.
	Output string
	// PortableOutput is the path of the single-file report.
	PortableOutput string
	// Reference is the reference FASTA.  Exactly one of Reference and
	// NoReference must be set.
	Reference   string
	NoReference bool
	// Annotation is an optional genePred reference annotation.
	Annotation string
	// Threads is passed to the stages that support it.
	Threads int
	// TempDir is the parent of a workspace that is removed after the run.
	// SpecificTempDir is a workspace kept after the run.  At most one may
	// be set; the system temp directory is used if neither is.
	TempDir         string
	SpecificTempDir string
	// ScriptsDir holds the analysis and plotting scripts.
	ScriptsDir string

	// Alignment classification.
	MinAlignedBases               int
	MaxQueryOverlap               int
	MaxTargetOverlap              int
	MaxQueryGap                   int
	MaxTargetGap                  int
	RequiredFractionalImprovement float64

	// Locus analysis.
	MinDepth           float64
	MinCoverageAtDepth float64
	MinExonCount       int

	// Error analysis.  The scales are either empty or hold six values:
	// ins_min ins_max mismatch_min mismatch_max del_min del_max.
	AlignmentErrorScale       []float64
	AlignmentErrorMaxLength   int
	ContextErrorScale         []float64
	ContextErrorStoppingPoint int
}

// DefaultOpts are the default report options.
var DefaultOpts = Opts{
	Threads:                       1,
	MinAlignedBases:               50,
	MaxQueryOverlap:               10,
	MaxTargetOverlap:              10,
	MaxTargetGap:                  500000,
	RequiredFractionalImprovement: 0.2,
	MinDepth:                      1.5,
	MinCoverageAtDepth:            0.8,
	MinExonCount:                  2,
	AlignmentErrorMaxLength:       100000,
	ContextErrorStoppingPoint:     1000,
}

// StartupError reports a run that cannot start: conflicting or missing
// options, an existing output directory, or a missing interpreter.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup: %v", e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

func startupError(kind errors.Kind, args ...interface{}) error {
	return &StartupError{Err: errors.E(append([]interface{}{kind}, args...)...)}
}

// Validate checks the options for consistency.  Errors are *StartupError.
func (o *Opts) Validate() error {
	if o.Output == "" && o.PortableOutput == "" {
		return startupError(errors.Invalid, "an output directory or a portable output file is required")
	}
	if (o.Reference == "") == !o.NoReference {
		return startupError(errors.Invalid, "exactly one of a reference or no-reference is required")
	}
	if o.TempDir != "" && o.SpecificTempDir != "" {
		return startupError(errors.Invalid, "tempdir and specific-tempdir are mutually exclusive")
	}
	if o.Threads < 1 {
		return startupError(errors.Invalid, fmt.Sprintf("threads must be positive, got %d", o.Threads))
	}
	for name, scale := range map[string][]float64{
		"alignment error scale": o.AlignmentErrorScale,
		"context error scale":   o.ContextErrorScale,
	} {
		if len(scale) != 0 && len(scale) != 6 {
			return startupError(errors.Invalid, fmt.Sprintf("%s needs 6 values, got %d", name, len(scale)))
		}
	}
	for _, path := range []string{o.Output, o.PortableOutput} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return startupError(errors.Exists, "output already exists:", path)
		}
	}
	if o.ScriptsDir == "" {
		return startupError(errors.Invalid, "a scripts directory is required")
	}
	if info, err := os.Stat(o.ScriptsDir); err != nil {
		return startupError(errors.NotExist, "scripts directory", o.ScriptsDir, err)
	} else if !info.IsDir() {
		return startupError(errors.Invalid, "scripts directory", o.ScriptsDir, "is not a directory")
	}
	for _, path := range []string{o.Reference, o.Annotation} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return startupError(errors.NotExist, "input", path, err)
		}
	}
	return nil
}

// Absolute rewrites the paths in o as absolute paths.  Stages run in the
// workspace, so relative paths would not resolve there.
func (o *Opts) Absolute() error {
	for _, path := range []*string{&o.Output, &o.PortableOutput, &o.Reference, &o.Annotation, &o.ScriptsDir} {
		if *path == "" {
			continue
		}
		abs, err := filepath.Abs(*path)
		if err != nil {
			return errors.E(err, "resolve", *path)
		}
		*path = abs
	}
	return nil
}

// Interpreters are the programs the analysis scripts run under.
var Interpreters = []string{RscriptProgram, PythonProgram}

// CheckInterpreters resolves Interpreters on the PATH of env.  The result
// maps each interpreter to its path.  Errors are *StartupError.
func CheckInterpreters(env map[string]string) (map[string]string, error) {
	paths := map[string]string{}
	for _, name := range Interpreters {
		path, err := lookpath.Look(env, name)
		if err != nil {
			return nil, startupError(errors.NotExist, "interpreter not found:", name, err)
		}
		log.Printf("using %s: %s", name, path)
		paths[name] = path
	}
	return paths, nil
}
