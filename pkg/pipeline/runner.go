package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mftypes/pkg/archive"
	"github.com/matzehuels/mftypes/pkg/buildinfo"
	"github.com/matzehuels/mftypes/pkg/cache"
	"github.com/matzehuels/mftypes/pkg/compiler"
	"github.com/matzehuels/mftypes/pkg/config"
	"github.com/matzehuels/mftypes/pkg/declaration"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/httputil"
	"github.com/matzehuels/mftypes/pkg/manifest"
	"github.com/matzehuels/mftypes/pkg/typesync"
)

// Runner executes pipeline stages.
//
// The Runner holds no per-run state; the same Runner may execute several
// configurations in sequence.
type Runner struct {
	Compiler compiler.Compiler
	Syncer   *typesync.Syncer
	Logger   *log.Logger

	closers []func() error
}

// NewRunner wires a Runner from cfg: a tsc compiler, an HTTP client with
// the configured timeout, retries and TLS policy, a syncer with an in-memory
// manifest memo, and the configured install state backend.
func NewRunner(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Compiler: compiler.NewTSC(cfg.Compiler.Command, cfg.Compiler.Args),
		Logger:   logger,
	}

	client := httputil.NewClient(
		httputil.NewHTTPClient(cfg.Timeout, cfg.InsecureTLS),
		httputil.WithRetries(cfg.Retries),
		httputil.WithHeaders(map[string]string{"User-Agent": buildinfo.UserAgent()}),
	)
	syncer, err := typesync.NewSyncer(client, cfg.Installer, logger)
	if err != nil {
		return nil, err
	}

	memo, err := cache.NewLRUCache(DefaultManifestCacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create manifest memo")
	}
	syncer.Manifests = cache.Observed(memo, "manifest")
	r.closers = append(r.closers, memo.Close)

	if cfg.IsConsumer() {
		store, err := cache.Open(ctx, cfg.State.Backend, cfg.State.Dir, cfg.State.RedisURL)
		if err != nil {
			return nil, err
		}
		syncer.State = typesync.NewState(cache.Observed(store, "state"), syncer.Keyer)
		r.closers = append(r.closers, store.Close)
	}
	r.Syncer = syncer
	return r, nil
}

// Close releases the runner's caches.
func (r *Runner) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Execute runs the producer stage when cfg exposes components and the
// consumer stage when cfg lists remotes. Stage problems are recorded on the
// Result; the returned error is reserved for configurations that enable
// neither role.
func (r *Runner) Execute(ctx context.Context, cfg *config.Config) (*Result, error) {
	if !cfg.IsProducer() && !cfg.IsConsumer() {
		return nil, errors.New(errors.ErrCodeConfigMissing, "nothing to do: configure exposes or remotes")
	}
	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", result.RunID[:8])

	if cfg.IsProducer() {
		r.produce(ctx, logger, cfg, result)
	}
	if cfg.IsConsumer() {
		r.consume(ctx, cfg, result)
	}
	return result, nil
}

// Emit runs only the producer stage.
func (r *Runner) Emit(ctx context.Context, cfg *config.Config) (*Result, error) {
	if !cfg.IsProducer() {
		return nil, errors.New(errors.ErrCodeConfigMissing, "no exposed components configured")
	}
	result := &Result{RunID: uuid.NewString()}
	r.produce(ctx, r.Logger.With("run", result.RunID[:8]), cfg, result)
	return result, nil
}

// Sync runs only the consumer stage.
func (r *Runner) Sync(ctx context.Context, cfg *config.Config) (*Result, error) {
	if !cfg.IsConsumer() {
		return nil, errors.New(errors.ErrCodeConfigMissing, "no remotes configured")
	}
	result := &Result{RunID: uuid.NewString()}
	r.consume(ctx, cfg, result)
	return result, nil
}

func (r *Runner) produce(ctx context.Context, logger *log.Logger, cfg *config.Config, result *Result) {
	// Stage 1: Emit
	start := time.Now()
	gen := declaration.NewGenerator(r.Compiler, logger)
	produced, err := gen.Generate(ctx, declaration.Options{
		RootDir:  cfg.RootDir,
		TypesDir: cfg.TypesDir,
		AppName:  cfg.AppName,
		Exposes:  cfg.Exposes,
	})
	result.Producer = produced
	result.Stats.EmitTime = time.Since(start)
	if err != nil {
		logger.Error("declaration generation failed", "err", err)
		result.ProducerErr = err
		return
	}
	result.Stats.Modules = len(produced.Modules)
	logger.Debug("emit stage done", "duration", result.Stats.EmitTime.Round(time.Millisecond))

	// Stage 2: Manifest
	start = time.Now()
	m, err := manifest.Write(cfg.RootDir, cfg.ManifestPath(), produced.Files)
	result.Manifest = m
	result.Stats.Files = len(m)
	result.Stats.ManifestTime = time.Since(start)
	if err != nil {
		logger.Error("manifest incomplete", "path", cfg.ManifestPath(), "err", err)
		result.ProducerErr = err
		return
	}
	logger.Info("wrote manifest", "path", cfg.ManifestPath(), "files", len(m))

	// Stage 3: Pack
	if cfg.Transport != typesync.TransportArchive {
		return
	}
	start = time.Now()
	entries, err := archive.Pack(cfg.RootDir, cfg.TypesDir, cfg.ArchivePath())
	result.Archive = entries
	result.Stats.PackTime = time.Since(start)
	if err != nil {
		logger.Error("archive failed", "path", cfg.ArchivePath(), "err", err)
		result.ProducerErr = err
		return
	}
	logger.Info("packed archive", "path", cfg.ArchivePath(), "files", len(entries))
}

func (r *Runner) consume(ctx context.Context, cfg *config.Config, result *Result) {
	start := time.Now()
	result.Sync = r.Syncer.Sync(ctx, SyncOptions(cfg))
	result.Stats.SyncTime = time.Since(start)
}

// SyncOptions maps cfg onto the consumer stage options.
func SyncOptions(cfg *config.Config) typesync.Options {
	return typesync.Options{
		Remotes:     cfg.Remotes,
		InstallDir:  cfg.InstallDir,
		TypesFile:   cfg.TypesFile,
		ArchiveFile: cfg.ArchiveFile,
		Transport:   cfg.Transport,
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
		Prune:       cfg.Prune,
	}
}
