// Package archive packs a declaration tree into an uncompressed tar file
// and unpacks it on the consumer side.
//
// Entry names are slash separated and relative to the producer's root
// directory, so a pack of <rootDir>/@types unpacks into
// <installDir>/@types on the consumer.
package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// DefaultFile is the archive file name below the public directory.
const DefaultFile = "types.tar"

// Pack writes every regular file below <root>/<dir> into a tar archive at
// target. Entry names are relative to root. It returns the packed entry
// names in walk order.
func Pack(root, dir, target string) (entries []string, err error) {
	src := filepath.Join(root, dir)
	info, err := os.Stat(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", src)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeFileSystem, "%s is not a directory", src)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", filepath.Dir(target))
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", target)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeFileSystem, closeErr, "close %s", target)
		}
		if err != nil {
			_ = os.Remove(target)
		}
	}()

	absTarget, _ := filepath.Abs(target)
	tw := tar.NewWriter(f)
	walkErr := filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(p); abs == absTarget {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if err := addFile(tw, p, name); err != nil {
			return err
		}
		entries = append(entries, name)
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, walkErr, "pack %s", src)
	}
	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "finish %s", target)
	}
	return entries, nil
}

func addFile(tw *tar.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// Unpack extracts the tar stream r into dest and returns the written
// entry names. Entries that are absolute or climb out of dest are rejected
// with an INVALID_PATH error before anything below them is written.
// Only regular files and directories are extracted.
func Unpack(r io.Reader, dest string) ([]string, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "resolve %s", dest)
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", absDest)
	}

	var written []string
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, errors.Wrap(errors.ErrCodeSerialization, err, "read archive")
		}

		name := strings.TrimPrefix(path.Clean(strings.ReplaceAll(hdr.Name, "\\", "/")), "./")
		if err := errors.ValidateRelativePath(name); err != nil {
			return written, errors.Wrap(errors.ErrCodeInvalidPath, err, "archive entry %q", hdr.Name)
		}
		target := filepath.Join(absDest, filepath.FromSlash(name))
		if rel, err := filepath.Rel(absDest, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return written, errors.New(errors.ErrCodeInvalidPath, "archive entry %q escapes %s", hdr.Name, dest)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", target)
			}
		case tar.TypeReg:
			if err := extractFile(tr, target); err != nil {
				return written, err
			}
			written = append(written, name)
		}
	}
}

// UnpackFile extracts the archive at src into dest.
func UnpackFile(src, dest string) ([]string, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "open %s", src)
	}
	defer f.Close()
	return Unpack(f, dest)
}

func extractFile(r io.Reader, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", filepath.Dir(target))
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", target)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeFileSystem, closeErr, "write %s", target)
		}
	}()
	if _, err := io.Copy(f, r); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", target)
	}
	return nil
}
