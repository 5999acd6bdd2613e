// Package compiler turns exposed TypeScript sources into declaration files.
//
// The compiler itself is a black box behind the [Compiler] interface:
// given source files and an output directory it writes ".d.ts" files that
// mirror the source layout. [TSC] is the default implementation and shells
// out to the TypeScript compiler in declaration-only mode.
//
// [CollectSources] resolves an exposed entry (a file, an extension-less
// module path or a directory) into the list of files to compile.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/fswalk"
)

// Compiler emits declaration files for files into outDir.
type Compiler interface {
	Compile(ctx context.Context, files []string, outDir string) error
}

// SourceExtensions lists the extensions treated as compilable TypeScript.
var SourceExtensions = []string{".ts", ".tsx", ".mts", ".cts"}

// resolveOrder is tried, in order, for entries given without an extension.
var resolveOrder = []string{".ts", ".tsx", "/index.ts", "/index.tsx"}

// IsSource reports whether path has a recognized TypeScript source
// extension. Declaration files are not sources.
func IsSource(path string) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".d.ts") || strings.HasSuffix(lower, ".d.mts") || strings.HasSuffix(lower, ".d.cts") {
		return false
	}
	ext := filepath.Ext(lower)
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// CollectSources resolves entry into absolute source file paths.
//
// A directory is walked recursively. A regular file is used as is. A path
// that does not exist is retried with the extensions in resolve order
// (".ts", ".tsx", "/index.ts", "/index.tsx"). Files without a recognized
// source extension are dropped and reported in skipped.
func CollectSources(entry string) (sources, skipped []string, err error) {
	path, info, err := resolveEntry(entry)
	if err != nil {
		return nil, nil, err
	}

	var candidates []string
	if info.IsDir() {
		candidates, err = fswalk.Walk(path)
		if err != nil && len(candidates) == 0 {
			return nil, nil, err
		}
	} else {
		candidates = []string{path}
	}

	for _, c := range candidates {
		if IsSource(c) {
			sources = append(sources, c)
		} else {
			skipped = append(skipped, c)
		}
	}
	return sources, skipped, err
}

func resolveEntry(entry string) (string, os.FileInfo, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeFileSystem, err, "resolve %s", entry)
	}
	if info, err := os.Stat(abs); err == nil {
		return abs, info, nil
	}
	for _, suffix := range resolveOrder {
		candidate := abs + filepath.FromSlash(suffix)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, info, nil
		}
	}
	return "", nil, errors.New(errors.ErrCodeFileSystem, "exposed entry %s not found", entry)
}

// CommonDir returns the deepest directory containing every file.
func CommonDir(files []string) string {
	if len(files) == 0 {
		return ""
	}
	common := filepath.Dir(files[0])
	for _, f := range files[1:] {
		dir := filepath.Dir(f)
		for !within(dir, common) {
			parent := filepath.Dir(common)
			if parent == common {
				return common
			}
			common = parent
		}
	}
	return common
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// TSC runs the TypeScript compiler as an external process.
type TSC struct {
	// Command is the compiler executable and any leading arguments,
	// e.g. ["tsc"] or ["npx", "tsc"]. Defaults to ["tsc"].
	Command []string

	// Args are extra compiler flags appended after the declaration flags,
	// e.g. ["--jsx", "react-jsx"].
	Args []string

	// Dir is the working directory for the compiler process.
	Dir string
}

// NewTSC creates a TSC compiler. An empty command defaults to "tsc".
func NewTSC(command []string, args []string) *TSC {
	if len(command) == 0 {
		command = []string{"tsc"}
	}
	return &TSC{Command: command, Args: args}
}

// Compile runs the compiler in declaration-only mode. Declaration output
// mirrors the layout of files below their common directory.
func (c *TSC) Compile(ctx context.Context, files []string, outDir string) error {
	if len(files) == 0 {
		return nil
	}
	cmd := c.command(ctx, files, outDir)

	var stderr, stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(stdout.String() + "\n" + stderr.String())
		return errors.Wrap(errors.ErrCodeCompile, err, "%s failed: %s", c.Command[0], out)
	}
	return nil
}

func (c *TSC) command(ctx context.Context, files []string, outDir string) *exec.Cmd {
	command := c.Command
	if len(command) == 0 {
		command = []string{"tsc"}
	}
	args := append([]string{}, command[1:]...)
	args = append(args,
		"--declaration",
		"--emitDeclarationOnly",
		"--skipLibCheck",
		"--rootDir", CommonDir(files),
		"--outDir", outDir,
	)
	args = append(args, c.Args...)
	args = append(args, files...)

	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Dir = c.Dir
	return cmd
}

// String describes the compiler invocation for logs.
func (c *TSC) String() string {
	return fmt.Sprintf("%s --declaration --emitDeclarationOnly", strings.Join(c.Command, " "))
}

var _ Compiler = (*TSC)(nil)
