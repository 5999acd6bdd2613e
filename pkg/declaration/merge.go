package declaration

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/fswalk"
)

// IndexFile is the name of the merged declaration file.
const IndexFile = "index.d.ts"

// Module is one merged ambient module block.
type Module struct {
	Path     ModulePath
	Files    []string // absolute paths of the contributing declaration files
	Contents []string // file contents, parallel to Files
}

// MergeResult describes a completed merge.
type MergeResult struct {
	// IndexPath is the absolute path of the written index.d.ts.
	IndexPath string

	// Modules lists the emitted module paths in output order.
	Modules []string

	// Warnings holds recovered failures (unreadable directories or files).
	Warnings []error
}

// Merger builds the merged index.d.ts for one application's output tree.
type Merger struct {
	// Root is the application's declaration output directory,
	// <rootDir>/<typesDir>/<appName>.
	Root string

	// AppName is the producing application. A module path equal to it is
	// never emitted.
	AppName string

	Logger *log.Logger
}

// NewMerger creates a Merger for root, made absolute when possible. If
// logger is nil, log.Default() is used.
func NewMerger(root, appName string, logger *log.Logger) *Merger {
	if logger == nil {
		logger = log.Default()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Merger{Root: root, AppName: appName, Logger: logger}
}

// Merge groups the declaration files below Root by module path and writes
// Root/index.d.ts. Per-file read failures are logged and recorded as
// warnings; the file contributes empty text. Only failing to write the
// merged file is returned as an error.
func (m *Merger) Merge() (*MergeResult, error) {
	result := &MergeResult{IndexPath: filepath.Join(m.Root, IndexFile)}

	modules, warnings := m.Collect()
	result.Warnings = append(result.Warnings, warnings...)

	for _, mod := range modules {
		result.Modules = append(result.Modules, mod.Path.String())
	}

	if err := os.WriteFile(result.IndexPath, []byte(Render(modules)), 0o644); err != nil {
		return result, errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", result.IndexPath)
	}
	m.Logger.Debug("merged declarations", "file", result.IndexPath, "modules", len(modules))
	return result, nil
}

// Collect walks Root and reads every declaration file, grouped by module
// path in order of first appearance. The root module and a module named
// after the application are skipped.
func (m *Merger) Collect() ([]Module, []error) {
	var warnings []error

	// Walk returns absolute paths, so Rel needs an absolute root.
	root, err := filepath.Abs(m.Root)
	if err != nil {
		return nil, []error{errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", m.Root)}
	}

	files, err := fswalk.Walk(root)
	if err != nil {
		m.Logger.Warn("declaration output not fully readable", "dir", root, "err", err)
		warnings = append(warnings, err)
	}

	self := ParseModulePath(m.AppName)
	index := make(map[string]int)
	var modules []Module

	for _, file := range files {
		if !isDeclaration(file) {
			continue
		}
		mp, err := DeriveModulePath(root, file)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if mp.IsRoot() || mp.Equal(self) {
			continue
		}

		key := mp.String()
		i, seen := index[key]
		if !seen {
			i = len(modules)
			index[key] = i
			modules = append(modules, Module{Path: mp})
		}

		data, err := os.ReadFile(file)
		if err != nil {
			werr := errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", file)
			m.Logger.Warn("declaration file skipped", "file", file, "err", err)
			warnings = append(warnings, werr)
		}
		modules[i].Files = append(modules[i].Files, file)
		modules[i].Contents = append(modules[i].Contents, string(data))
	}
	return modules, warnings
}

// Render formats modules as ambient module blocks separated by a blank
// line.
func Render(modules []Module) string {
	blocks := make([]string, 0, len(modules))
	for _, mod := range modules {
		var b strings.Builder
		b.WriteString("declare module '")
		b.WriteString(mod.Path.String())
		b.WriteString("' {\n")
		for _, c := range mod.Contents {
			b.WriteString(strings.TrimRight(c, "\n"))
			b.WriteString("\n")
		}
		b.WriteString("};")
		blocks = append(blocks, b.String())
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// declarationSuffixes are the outputs tsc writes for .ts/.tsx, .mts and
// .cts sources.
var declarationSuffixes = []string{".d.ts", ".d.mts", ".d.cts"}

func isDeclaration(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range declarationSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
