package typesync

import (
	"context"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mftypes/pkg/archive"
	"github.com/matzehuels/mftypes/pkg/cache"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/manifest"
	"github.com/matzehuels/mftypes/pkg/observability"
	"github.com/matzehuels/mftypes/pkg/specifier"
)

// Transports accepted by configuration.
const (
	TransportManifest = "manifest"
	TransportArchive  = "archive"
)

// DefaultConcurrency bounds parallel remotes and parallel files per remote.
const DefaultConcurrency = 8

// Options configures one sync run.
type Options struct {
	Remotes     map[string]string // remote name → "<name>@<entry url>"
	InstallDir  string
	TypesFile   string // manifest name below a remote's base URL
	ArchiveFile string // archive name below a remote's base URL
	Transport   string // TransportManifest (default) or TransportArchive
	Concurrency int
	Timeout     time.Duration // zero means no limit
	Prune       bool
}

func (o Options) withDefaults() Options {
	if o.TypesFile == "" {
		o.TypesFile = manifest.DefaultFile
	}
	if o.ArchiveFile == "" {
		o.ArchiveFile = archive.DefaultFile
	}
	if o.Transport == "" {
		o.Transport = TransportManifest
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Syncer installs remote declarations.
type Syncer struct {
	Fetcher    Fetcher    // manifest fetches
	Downloader Downloader // archive downloads
	Installer  Installer  // per-file installs

	// Manifests memoizes fetched manifests by base URL. Optional.
	Manifests cache.Cache
	Keyer     cache.Keyer

	// State records what each remote installed. Optional; required for
	// pruning.
	State *State

	Logger *log.Logger
}

// NewSyncer creates a Syncer whose installer is chosen by kind
// (InstallerDownload or InstallerDirect). client must implement both
// Fetcher and Downloader, as *httputil.Client does.
func NewSyncer(client interface {
	Fetcher
	Downloader
}, kind string, logger *log.Logger) (*Syncer, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Syncer{
		Fetcher:    client,
		Downloader: client,
		Keyer:      cache.NewDefaultKeyer(),
		Logger:     logger,
	}
	switch kind {
	case InstallerDownload, "":
		s.Installer = &DownloadInstaller{Downloader: client}
	case InstallerDirect:
		s.Installer = &DirectInstaller{Fetcher: client}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown installer %q", kind)
	}
	return s, nil
}

// Sync installs the declarations of every remote in opts. It waits for all
// fetches to finish (or for the timeout) and never fails: every problem is
// recorded in the returned Report.
func (s *Syncer) Sync(ctx context.Context, opts Options) *Report {
	opts = opts.withDefaults()
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := s.logger().With("run", report.RunID[:8])

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	names := slices.Sorted(maps.Keys(opts.Remotes))
	observability.Pipeline().OnSyncStart(ctx, len(names))

	var state *InstallState
	if s.State != nil {
		var err error
		if state, err = s.State.Load(ctx, opts.InstallDir); err != nil {
			logger.Warn("install state unreadable, starting fresh", "err", err)
			report.StateErr = err
		}
	}

	report.Remotes = make([]*RemoteReport, len(names))
	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			report.Remotes[i] = s.syncRemote(ctx, logger, opts, name, opts.Remotes[name])
			return nil
		})
	}
	_ = g.Wait()

	if state != nil {
		s.recordState(ctx, logger, opts, state, report)
	}

	report.sort()
	report.Duration = time.Since(start)
	observability.Pipeline().OnSyncComplete(ctx, len(names), report.failedRemotes(), report.Duration)

	if report.Failed() > 0 {
		logger.Warn("sync incomplete", "summary", report.Summary())
	} else {
		logger.Info("sync complete", "summary", report.Summary(), "duration", report.Duration.Round(time.Millisecond))
	}
	return report
}

func (s *Syncer) syncRemote(ctx context.Context, logger *log.Logger, opts Options, name, spec string) (rr *RemoteReport) {
	start := time.Now()
	rr = &RemoteReport{Name: name}
	logger = logger.With("remote", name)
	defer func() {
		rr.Duration = time.Since(start)
		observability.Pipeline().OnRemoteComplete(ctx, name, rr.Installed(), rr.Failed(), rr.Duration, rr.Err)
	}()

	sp, err := specifier.Parse(spec)
	if err != nil {
		rr.Err = err
		logger.Warn("remote skipped", "spec", spec, "err", err)
		return rr
	}
	rr.BaseURL = sp.BaseURL()

	if opts.Transport == TransportArchive {
		s.syncArchive(ctx, logger, opts, rr)
		return rr
	}

	m, err := s.fetchManifest(ctx, rr.BaseURL, opts.TypesFile)
	if err != nil {
		rr.Err = err
		logger.Warn("manifest unavailable", "url", joinURL(rr.BaseURL, opts.TypesFile), "err", err)
		return rr
	}
	rr.Manifest = m
	logger.Debug("manifest fetched", "files", len(m))

	rr.Files = make([]Outcome, len(m))
	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)
	for i, entry := range m {
		g.Go(func() error {
			rr.Files[i] = s.installFile(ctx, logger, opts.InstallDir, name, rr.BaseURL, entry)
			return nil
		})
	}
	_ = g.Wait()
	return rr
}

func (s *Syncer) installFile(ctx context.Context, logger *log.Logger, installDir, remote, base, entry string) Outcome {
	o := Outcome{Remote: remote, Entry: entry, URL: joinURL(base, entry)}
	if err := ctx.Err(); err != nil {
		o.Status, o.Err = StatusFailed, errors.Wrap(errors.ErrCodeTimeout, err, "sync cancelled")
		return o
	}
	written, err := s.Installer.Install(ctx, o.URL, installDir, entry)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		logger.Warn("file not installed", "entry", entry, "err", err)
		return o
	}
	o.Path, o.Status = written, StatusInstalled
	logger.Debug("installed", "entry", entry)
	return o
}

func (s *Syncer) fetchManifest(ctx context.Context, base, typesFile string) (manifest.Manifest, error) {
	key := s.keyer().ManifestKey(base, typesFile)
	if s.Manifests != nil {
		if data, ok, _ := s.Manifests.Get(ctx, key); ok {
			if m, err := manifest.Decode(data); err == nil {
				return m, nil
			}
		}
	}

	data, err := s.Fetcher.Fetch(ctx, joinURL(base, typesFile))
	if err != nil {
		return nil, err
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil, err
	}
	if s.Manifests != nil {
		_ = s.Manifests.Set(ctx, key, data, cache.TTLManifest)
	}
	return m, nil
}

func (s *Syncer) syncArchive(ctx context.Context, logger *log.Logger, opts Options, rr *RemoteReport) {
	url := joinURL(rr.BaseURL, opts.ArchiveFile)

	tmp, err := os.MkdirTemp("", "mftypes-archive-*")
	if err != nil {
		rr.Err = errors.Wrap(errors.ErrCodeFileSystem, err, "create temp dir")
		return
	}
	defer os.RemoveAll(tmp)

	path, err := s.Downloader.Download(ctx, url, tmp)
	if err != nil {
		rr.Err = err
		logger.Warn("archive unavailable", "url", url, "err", err)
		return
	}
	entries, err := archive.UnpackFile(path, opts.InstallDir)
	for _, e := range entries {
		rr.Files = append(rr.Files, Outcome{
			Remote: rr.Name, Entry: e, URL: url, Status: StatusInstalled,
			Path: joinPath(opts.InstallDir, e),
		})
	}
	if err != nil {
		rr.Err = err
		logger.Warn("archive not fully unpacked", "url", url, "err", err)
		return
	}
	rr.Manifest = entries
	logger.Debug("archive unpacked", "files", len(entries))
}

// recordState prunes stale entries and stores the new manifests. Remotes
// whose manifest could not be fetched keep their previous record.
func (s *Syncer) recordState(ctx context.Context, logger *log.Logger, opts Options, state *InstallState, report *Report) {
	now := time.Now().UTC()
	previous := make(map[string]RemoteState, len(state.Remotes))
	maps.Copy(previous, state.Remotes)

	for _, rr := range report.Remotes {
		if rr.Err != nil || rr.Manifest == nil {
			continue
		}
		state.Remotes[rr.Name] = RemoteState{
			BaseURL:  rr.BaseURL,
			Files:    rr.Manifest,
			RunID:    report.RunID,
			SyncedAt: now,
		}
	}

	if opts.Prune {
		owners := state.Owners()
		for _, rr := range report.Remotes {
			prev, ok := previous[rr.Name]
			if !ok || rr.Err != nil || rr.Manifest == nil {
				continue
			}
			for _, entry := range rr.Manifest.Diff(prev.Files) {
				if len(owners[entry]) > 0 {
					continue
				}
				o := Outcome{Remote: rr.Name, Entry: entry, Status: StatusPruned}
				o.Path, o.Err = removeEntry(opts.InstallDir, entry)
				if o.Err != nil {
					o.Status = StatusFailed
					logger.Warn("stale file not removed", "remote", rr.Name, "entry", entry, "err", o.Err)
				} else {
					logger.Debug("pruned", "remote", rr.Name, "entry", entry)
				}
				rr.Files = append(rr.Files, o)
			}
		}
	}

	if err := s.State.Save(ctx, state); err != nil {
		logger.Warn("install state not saved", "err", err)
		report.StateErr = err
	}
}

func (s *Syncer) keyer() cache.Keyer {
	if s.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return s.Keyer
}

func (s *Syncer) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func joinURL(base, entry string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(entry, "/")
}
