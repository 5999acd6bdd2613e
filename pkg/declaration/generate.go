package declaration

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mftypes/pkg/compiler"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/fswalk"
	"github.com/matzehuels/mftypes/pkg/observability"
)

// Options configures one generation run.
type Options struct {
	RootDir  string            // Root of the published tree (manifest paths are relative to it)
	TypesDir string            // Declaration directory below RootDir, e.g. "@types"
	AppName  string            // Producing application name
	Exposes  map[string]string // Exposed module name → entry source path
}

// OutDir returns <RootDir>/<TypesDir>/<AppName>.
func (o Options) OutDir() string {
	return filepath.Join(o.RootDir, o.TypesDir, o.AppName)
}

// Result describes the declarations produced by a run.
type Result struct {
	OutDir    string   // Absolute application output directory
	IndexPath string   // Merged index.d.ts
	Files     []string // Merged index first, then every generated declaration file
	Modules   []string // Module paths emitted into the merged index
	Compiled  []string // Exposed names compiled without error
	Warnings  []error  // Recovered per-component and per-file failures
	Duration  time.Duration
}

// Generator runs the compile and merge steps for exposed components.
type Generator struct {
	Compiler compiler.Compiler
	Logger   *log.Logger
}

// NewGenerator creates a Generator. If logger is nil, log.Default() is used.
func NewGenerator(c compiler.Compiler, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{Compiler: c, Logger: logger}
}

// Generate compiles every exposed component into its own directory below
// the application output directory, merges the result into index.d.ts and
// returns the list of generated files.
//
// The output directory is recreated on every run. A component that cannot
// be resolved or compiled is recorded as a warning and skipped; only
// failures that leave no usable output directory are returned as errors.
func (g *Generator) Generate(ctx context.Context, opts Options) (result *Result, err error) {
	start := time.Now()
	if err := errors.ValidateAppName(opts.AppName); err != nil {
		return nil, err
	}
	outDir, err := filepath.Abs(opts.OutDir())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", opts.OutDir())
	}
	result = &Result{OutDir: outDir}

	observability.Pipeline().OnEmitStart(ctx, opts.AppName, len(opts.Exposes))
	defer func() {
		result.Duration = time.Since(start)
		observability.Pipeline().OnEmitComplete(ctx, opts.AppName, len(result.Modules), result.Duration, err)
	}()

	if err := os.RemoveAll(outDir); err != nil {
		return result, errors.Wrap(errors.ErrCodeFileSystem, err, "clean %s", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", outDir)
	}

	names := make([]string, 0, len(opts.Exposes))
	for name := range opts.Exposes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := g.compileExposed(ctx, outDir, name, opts.Exposes[name]); err != nil {
			g.Logger.Warn("exposed component skipped", "name", name, "err", err)
			result.Warnings = append(result.Warnings, err)
			continue
		}
		result.Compiled = append(result.Compiled, name)
	}

	merged, err := NewMerger(outDir, opts.AppName, g.Logger).Merge()
	if merged != nil {
		result.IndexPath = merged.IndexPath
		result.Modules = merged.Modules
		result.Warnings = append(result.Warnings, merged.Warnings...)
	}
	if err != nil {
		return result, err
	}

	generated, err := fswalk.WalkExt(outDir, isDeclaration)
	if err != nil {
		result.Warnings = append(result.Warnings, err)
	}
	result.Files = append(result.Files, result.IndexPath)
	for _, f := range generated {
		if f != result.IndexPath {
			result.Files = append(result.Files, f)
		}
	}

	g.Logger.Info("generated declarations",
		"app", opts.AppName,
		"modules", len(result.Modules),
		"files", len(result.Files))
	return result, nil
}

func (g *Generator) compileExposed(ctx context.Context, outDir, name, entry string) error {
	mp := ParseModulePath(name)
	if mp.IsRoot() {
		return errors.New(errors.ErrCodeInvalidConfig, "exposed name %q is empty", name)
	}
	if err := errors.ValidateRelativePath(mp.String()); err != nil {
		return err
	}

	sources, skipped, err := compiler.CollectSources(entry)
	if err != nil && len(sources) == 0 {
		return err
	}
	for _, s := range skipped {
		g.Logger.Debug("not a typescript source", "file", s)
	}
	if len(sources) == 0 {
		return errors.New(errors.ErrCodeFileSystem, "exposed %q has no typescript sources at %s", name, entry)
	}

	dir := mp.Dir(outDir)
	g.Logger.Debug("compiling", "module", mp.String(), "sources", len(sources), "out", dir)
	return g.Compiler.Compile(ctx, sources, dir)
}
