// Package manifest reads and writes the declaration manifest.
//
// A manifest is a JSON array of slash separated paths, relative to the
// published root directory, naming every declaration file a consumer has
// to download. The merged index.d.ts is listed first:
//
//	["@types/shop/index.d.ts", "@types/shop/Button/index.d.ts"]
//
// [Write] enforces that every listed file exists at write time. [Decode]
// rejects entries that would escape the install directory of a consumer.
package manifest

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// DefaultFile is the manifest file name below the root directory.
const DefaultFile = "@types.json"

// Manifest is the ordered list of root-relative declaration paths.
type Manifest []string

// Build converts absolute file paths into root-relative slash paths,
// keeping their order. Files that do not exist or lie outside root are
// not listed; each one is reported in the returned error.
func Build(root string, files []string) (Manifest, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "resolve %s", root)
	}

	m := make(Manifest, 0, len(files))
	var missing []string
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			missing = append(missing, f)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			missing = append(missing, f)
			continue
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil {
			return m, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s is not below %s", f, root)
		}
		entry := filepath.ToSlash(rel)
		if err := errors.ValidateRelativePath(entry); err != nil {
			return m, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s is not below %s", f, root)
		}
		if seen[entry] {
			continue
		}
		seen[entry] = true
		m = append(m, entry)
	}
	if len(missing) > 0 {
		return m, errors.New(errors.ErrCodeFileSystem, "%d manifest file(s) missing: %s",
			len(missing), strings.Join(missing, ", "))
	}
	return m, nil
}

// Write builds the manifest for files and writes it to target, replacing
// any previous manifest. Missing files are left out and reported through
// the returned error after the remaining entries have been written.
func Write(root, target string, files []string) (Manifest, error) {
	m, buildErr := Build(root, files)
	if m == nil {
		return nil, buildErr
	}
	data, err := m.Encode()
	if err != nil {
		return m, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return m, errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", filepath.Dir(target))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return m, errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", target)
	}
	return m, buildErr
}

// Encode serializes m as an indented JSON array.
func (m Manifest) Encode() ([]byte, error) {
	if m == nil {
		m = Manifest{}
	}
	data, err := json.MarshalIndent([]string(m), "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "encode manifest")
	}
	return append(data, '\n'), nil
}

// Decode parses a manifest document. A body that is not a JSON array of
// strings is a SERIALIZATION error; an entry that is absolute or climbs
// out of the root is an INVALID_PATH error.
func Decode(data []byte) (Manifest, error) {
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "malformed manifest")
	}
	m := make(Manifest, 0, len(entries))
	for _, e := range entries {
		if err := errors.ValidateRelativePath(e); err != nil {
			return nil, err
		}
		m = append(m, path.Clean(e))
	}
	return m, nil
}

// Read loads and decodes the manifest at file.
func Read(file string) (Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "manifest %s", file)
		}
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", file)
	}
	return Decode(data)
}

// Diff returns the entries of prev that are not listed in m.
func (m Manifest) Diff(prev Manifest) []string {
	current := make(map[string]bool, len(m))
	for _, e := range m {
		current[e] = true
	}
	var gone []string
	for _, e := range prev {
		if !current[e] {
			gone = append(gone, e)
		}
	}
	return gone
}
