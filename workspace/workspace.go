// Package workspace manages the directory tree a report run writes its
// artifacts to.  A workspace is either temporary, removed when released, or
// pinned, kept for inspection after the run.
package workspace

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// Subdirs lists the directories created in every workspace.
var Subdirs = []string{artifact.DataDir, artifact.PlotsDir, artifact.LogsDir, artifact.CSSDir}

// Error reports a failure to create, populate or remove a workspace.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Workspace is a directory tree with the fixed subdirectories in Subdirs.
type Workspace struct {
	// Root is the absolute path of the tree.
	Root string
	// Persistent workspaces are kept by Release.
	Persistent bool

	released bool
}

// Acquire creates a workspace.  If persistent is false, a fresh directory is
// created under root (the system temp directory if root is empty) and is
// removed by Release.  Otherwise root itself becomes the workspace; it must
// not exist yet and is kept by Release.
func Acquire(root string, persistent bool) (*Workspace, error) {
	var (
		dir string
		err error
	)
	if persistent {
		if root == "" {
			return nil, &Error{Path: root, Err: errors.E(errors.Invalid, "pinned workspace needs a path")}
		}
		if dir, err = filepath.Abs(root); err != nil {
			return nil, &Error{Path: root, Err: err}
		}
		if _, err = os.Stat(dir); err == nil {
			return nil, &Error{Path: dir, Err: errors.E(errors.Exists, "directory already exists")}
		} else if !os.IsNotExist(err) {
			return nil, &Error{Path: dir, Err: err}
		}
		if err = os.MkdirAll(dir, 0755); err != nil {
			return nil, &Error{Path: dir, Err: err}
		}
	} else {
		if root != "" {
			if err = os.MkdirAll(root, 0755); err != nil {
				return nil, &Error{Path: root, Err: err}
			}
		}
		if dir, err = ioutil.TempDir(root, "lrqc"); err != nil {
			return nil, &Error{Path: root, Err: err}
		}
		if dir, err = filepath.Abs(dir); err != nil {
			return nil, &Error{Path: dir, Err: err}
		}
	}
	ws := &Workspace{Root: dir, Persistent: persistent}
	for _, sub := range Subdirs {
		if err := os.MkdirAll(ws.Path(sub), 0755); err != nil {
			if rerr := ws.Release(); rerr != nil {
				log.Error.Printf("release %s: %v", dir, rerr)
			}
			return nil, &Error{Path: dir, Err: err}
		}
	}
	log.Printf("workspace %s (persistent=%v)", dir, persistent)
	return ws, nil
}

// Path returns the absolute path of the workspace-relative path rel.
func (ws *Workspace) Path(rel string) string {
	return filepath.Join(ws.Root, filepath.FromSlash(rel))
}

// Release removes a non-persistent workspace.  It may be called any number of
// times; only the first call has an effect.
func (ws *Workspace) Release() error {
	if ws == nil || ws.released {
		return nil
	}
	ws.released = true
	if ws.Persistent {
		log.Printf("keeping workspace %s", ws.Root)
		return nil
	}
	if err := os.RemoveAll(ws.Root); err != nil {
		return &Error{Path: ws.Root, Err: err}
	}
	log.Debug.Printf("removed workspace %s", ws.Root)
	return nil
}

// Publish copies the report and the Subdirs trees into dest, which must not
// exist.  Paths listed in skip (workspace-relative) are not copied.
func (ws *Workspace) Publish(dest string, skip ...string) error {
	if _, err := os.Stat(dest); err == nil {
		return &Error{Path: dest, Err: errors.E(errors.Exists, "output directory already exists")}
	} else if !os.IsNotExist(err) {
		return &Error{Path: dest, Err: err}
	}
	skipped := map[string]bool{}
	for _, s := range skip {
		skipped[filepath.Clean(ws.Path(s))] = true
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &Error{Path: dest, Err: err}
	}
	var n int
	err := filepath.Walk(ws.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if skipped[path] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(ws.Root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		n++
		return copyFile(path, target, info.Mode())
	})
	if err != nil {
		return &Error{Path: dest, Err: err}
	}
	log.Printf("published %d file(s) from %s to %s", n, ws.Root, dest)
	return nil
}

// CopyFile copies the workspace file rel to dest, which must not exist.
func (ws *Workspace) CopyFile(rel, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return &Error{Path: dest, Err: errors.E(errors.Exists, "output file already exists")}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return &Error{Path: dest, Err: err}
	}
	if err := copyFile(ws.Path(rel), dest, 0644); err != nil {
		return &Error{Path: dest, Err: err}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode.Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close() // nolint: errcheck
		return err
	}
	return out.Close()
}
