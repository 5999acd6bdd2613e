// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries report events through the hooks returned by [Pipeline], [Cache]
// and [HTTP]. Until something is registered those are no-ops, so no
// library depends on an observability backend. The CLI registers
// [LogHooks] under --verbose; other programs may register adapters for
// OpenTelemetry, Prometheus and the like.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetPipelineHooks(myHooks)
//	observability.SetCacheHooks(myHooks)
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnEmitStart(ctx, app, len(exposes))
//	// ... compile and merge ...
//	observability.Pipeline().OnEmitComplete(ctx, app, moduleCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the producer and consumer paths.
type PipelineHooks interface {
	// Emit events (declaration generation and merge)
	OnEmitStart(ctx context.Context, app string, exposed int)
	OnEmitComplete(ctx context.Context, app string, modules int, duration time.Duration, err error)

	// Sync events (one run across all remotes)
	OnSyncStart(ctx context.Context, remotes int)
	OnSyncComplete(ctx context.Context, remotes, failed int, duration time.Duration)

	// OnRemoteComplete fires once per remote within a sync run.
	OnRemoteComplete(ctx context.Context, remote string, files, failed int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations. keyType is "manifest"
// or "state".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from remote fetches.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a transport failure (no response at all).
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnEmitStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnEmitComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnSyncStart(context.Context, int)                                  {}
func (NoopPipelineHooks) OnSyncComplete(context.Context, int, int, time.Duration)           {}
func (NoopPipelineHooks) OnRemoteComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// registry holds the active hooks.
type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipeline = NoopPipelineHooks{}
	r.cache = NoopCacheHooks{}
	r.http = NoopHTTPHooks{}
}

var hooks = func() *registry {
	r := &registry{}
	r.reset()
	return r
}()

// SetPipelineHooks registers pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.pipeline = h
	hooks.mu.Unlock()
}

// SetCacheHooks registers cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.cache = h
	hooks.mu.Unlock()
}

// SetHTTPHooks registers HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.http = h
	hooks.mu.Unlock()
}

// Register installs h for every hook category it implements.
func Register(h any) {
	if p, ok := h.(PipelineHooks); ok {
		SetPipelineHooks(p)
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.pipeline
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.http
}

// Reset restores the no-op hooks.
func Reset() { hooks.reset() }
