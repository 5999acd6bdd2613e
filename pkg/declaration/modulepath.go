package declaration

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// ModulePath is the ordered list of directory segments identifying a
// federated module below the declaration output root.
type ModulePath []string

// DeriveModulePath strips root from file and then the file's own name.
// file must be located below root.
func DeriveModulePath(root, file string) (ModulePath, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s is not below %s", file, root)
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	if slices.Contains(segments, "..") || rel == "." {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not below %s", file, root)
	}
	return ModulePath(segments[:len(segments)-1]), nil
}

// ParseModulePath splits a slash separated module name into segments,
// ignoring a leading "./" and empty segments.
func ParseModulePath(name string) ModulePath {
	name = strings.TrimPrefix(strings.TrimSpace(name), "./")
	var p ModulePath
	for _, seg := range strings.Split(filepath.ToSlash(name), "/") {
		if seg != "" && seg != "." {
			p = append(p, seg)
		}
	}
	return p
}

// String joins the segments with "/".
func (p ModulePath) String() string {
	return strings.Join(p, "/")
}

// IsRoot reports whether p addresses the output root itself.
func (p ModulePath) IsRoot() bool {
	return len(p) == 0
}

// Dir returns the directory for p below root.
func (p ModulePath) Dir(root string) string {
	return filepath.Join(append([]string{root}, p...)...)
}

// Equal reports whether p and other have the same segments.
func (p ModulePath) Equal(other ModulePath) bool {
	return slices.Equal(p, other)
}
