package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Entry describes one artifact present in a workspace.
type Entry struct {
	// Path is relative to the workspace root, slash-separated.
	Path string `json:"path"`
	Size int64  `json:"size"`
	// Checksum is the hex seahash of the file contents.
	Checksum string `json:"checksum"`
}

// Manifest is the set of artifacts the report may reference.  Entries are
// kept sorted by path.
type Manifest struct {
	entries []Entry
	index   map[string]int
}

// NewManifest builds a manifest from entries.  Later duplicates of a path
// replace earlier ones.
func NewManifest(entries ...Entry) Manifest {
	byPath := map[string]Entry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}
	m := Manifest{index: make(map[string]int, len(byPath))}
	for _, e := range byPath {
		m.entries = append(m.entries, e)
	}
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].Path < m.entries[j].Path })
	for i, e := range m.entries {
		m.index[e.Path] = i
	}
	return m
}

// Has reports whether the artifact at rel is present.
func (m Manifest) Has(rel string) bool {
	_, ok := m.index[rel]
	return ok
}

// Get returns the entry for rel.
func (m Manifest) Get(rel string) (Entry, bool) {
	i, ok := m.index[rel]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Entries returns all entries sorted by path.
func (m Manifest) Entries() []Entry {
	return m.entries
}

// Len returns the number of artifacts.
func (m Manifest) Len() int { return len(m.entries) }

// ScanManifest lists the files under the data and plots directories of the
// workspace rooted at root and checksums each of them.
func ScanManifest(ctx context.Context, root string) (Manifest, error) {
	var entries []Entry
	for _, dir := range []string{DataDir, PlotsDir} {
		walkRoot := filepath.Join(root, dir)
		err := filepath.Walk(walkRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == walkRoot {
					return filepath.SkipDir
				}
				return &FormatError{Path: path, Err: err}
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			sum, err := checksum(ctx, path)
			if err != nil {
				return &FormatError{Path: path, Err: err}
			}
			entries = append(entries, Entry{
				Path:     filepath.ToSlash(rel),
				Size:     info.Size(),
				Checksum: sum,
			})
			return nil
		})
		if err != nil {
			return Manifest{}, WrapError(walkRoot, err)
		}
	}
	log.Debug.Printf("manifest: %d artifact(s) under %s", len(entries), root)
	return NewManifest(entries...), nil
}

func checksum(ctx context.Context, path string) (sum string, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	h := seahash.New()
	if _, err = io.Copy(h, in.Reader(ctx)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
