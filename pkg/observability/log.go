package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level and counts cache
// hits and misses. It implements all three hook interfaces.
type LogHooks struct {
	Logger *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLogHooks creates LogHooks. If logger is nil, log.Default() is used.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger.WithPrefix("hooks")}
}

// CacheStats returns the cache hits and misses seen so far.
func (h *LogHooks) CacheStats() (hits, misses int64) {
	return h.hits.Load(), h.misses.Load()
}

func (h *LogHooks) OnEmitStart(_ context.Context, app string, exposed int) {
	h.Logger.Debug("emit started", "app", app, "exposed", exposed)
}

func (h *LogHooks) OnEmitComplete(_ context.Context, app string, modules int, d time.Duration, err error) {
	h.Logger.Debug("emit finished", "app", app, "modules", modules, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnSyncStart(_ context.Context, remotes int) {
	h.Logger.Debug("sync started", "remotes", remotes)
}

func (h *LogHooks) OnSyncComplete(_ context.Context, remotes, failed int, d time.Duration) {
	h.Logger.Debug("sync finished", "remotes", remotes, "failed", failed, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRemoteComplete(_ context.Context, remote string, files, failed int, d time.Duration, err error) {
	h.Logger.Debug("remote finished", "remote", remote, "files", files, "failed", failed, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.hits.Add(1)
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.misses.Add(1)
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
