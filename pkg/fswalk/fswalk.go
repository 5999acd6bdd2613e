// Package fswalk lists the regular files below a directory.
//
// It backs both source discovery for the declaration compiler and the
// discovery of generated declaration output. Results are absolute paths in
// lexical order so downstream output (merged declarations, manifests) is
// deterministic across runs.
package fswalk

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// Walk returns the absolute path of every non-directory entry below dir.
//
// A missing or unreadable dir yields an empty list and a FILESYSTEM error.
// Unreadable subdirectories are skipped; their errors are joined into the
// returned error while the rest of the tree is still listed, so callers can
// log the error and keep the partial result.
//
// Symbolic links are not followed. A link pointing at a directory is
// skipped, which keeps recursion bounded on cyclic links.
func Walk(dir string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return []string{}, errors.Wrap(errors.ErrCodeFileSystem, err, "resolve %s", dir)
	}
	info, err := os.Stat(root)
	if err != nil {
		return []string{}, errors.Wrap(errors.ErrCodeFileSystem, err, "read directory %s", dir)
	}
	if !info.IsDir() {
		return []string{}, errors.New(errors.ErrCodeFileSystem, "%s is not a directory", dir)
	}

	files := []string{}
	var errs []error
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			errs = append(errs, errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", path))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if target, statErr := os.Stat(path); statErr == nil && target.IsDir() {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return []string{}, errors.Wrap(errors.ErrCodeFileSystem, walkErr, "read directory %s", dir)
	}
	return files, stderrors.Join(errs...)
}

// WalkExt is like [Walk] but keeps only files for which keep returns true.
func WalkExt(dir string, keep func(path string) bool) ([]string, error) {
	files, err := Walk(dir)
	out := files[:0]
	for _, f := range files {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out, err
}
