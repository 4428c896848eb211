// SPDX-License-Identifier: MPL-2.0

// Package locate finds a named geometry file inside an extracted archive
// tree, whose internal layout varies from one release to the next.
package locate

import (
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// Walk yields the paths of regular files under root, depth-first and
// pre-order. Entries of a directory are visited in lexical order with files
// and subdirectories interleaved by name. Symbolic links are not followed
// and unreadable directories are skipped. Traversal stops as soon as the
// consumer stops ranging.
func Walk(fsys afero.Fs, root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		walk(fsys, root, yield)
	}
}

func walk(fsys afero.Fs, dir string, yield func(string) bool) bool {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		slog.Debug("skipping unreadable directory", "dir", dir, "error", err)
		return true
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch mode := entry.Mode(); {
		case mode&fs.ModeSymlink != 0:
			continue
		case mode.IsDir():
			if !walk(fsys, path, yield) {
				return false
			}
		case mode.IsRegular():
			if !yield(path) {
				return false
			}
		}
	}
	return true
}

// Find returns the first regular file under root whose base name equals
// name exactly. ok is false when no such file exists; Find never fails.
func Find(fsys afero.Fs, root, name string) (path string, ok bool) {
	for p := range Walk(fsys, root) {
		if filepath.Base(p) == name {
			return p, true
		}
	}
	return "", false
}
