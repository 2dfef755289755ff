// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about sketch transforms, session actions, batch conversion
// and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the library packages
// stay free of any particular metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSketchHooks(&mySketchHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Sketch().OnTransformStart(ctx, w, h, kernel)
//	// ... run the transform ...
//	observability.Sketch().OnTransformComplete(ctx, w, h, kernel, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Sketch Hooks
// =============================================================================

// SketchHooks receives events around each sketch transform.
type SketchHooks interface {
	OnTransformStart(ctx context.Context, width, height, kernel int)
	OnTransformComplete(ctx context.Context, width, height, kernel int, duration time.Duration)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from the interactive session.
type SessionHooks interface {
	// OnLoad records an image load attempt.
	OnLoad(ctx context.Context, sessionID, path string, err error)

	// OnIntensity records an intensity change.
	OnIntensity(ctx context.Context, sessionID string, intensity int)

	// OnSave records a save attempt.
	OnSave(ctx context.Context, sessionID, path string, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the batch conversion pipeline.
type PipelineHooks interface {
	OnConvertStart(ctx context.Context, input string)
	OnConvertComplete(ctx context.Context, input string, cached bool, duration time.Duration, err error)
	OnBatchComplete(ctx context.Context, files int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSketchHooks is a no-op implementation of SketchHooks.
type NoopSketchHooks struct{}

func (NoopSketchHooks) OnTransformStart(context.Context, int, int, int)                   {}
func (NoopSketchHooks) OnTransformComplete(context.Context, int, int, int, time.Duration) {}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnLoad(context.Context, string, string, error) {}
func (NoopSessionHooks) OnIntensity(context.Context, string, int)      {}
func (NoopSessionHooks) OnSave(context.Context, string, string, error) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnConvertStart(context.Context, string) {}
func (NoopPipelineHooks) OnConvertComplete(context.Context, string, bool, time.Duration, error) {
}
func (NoopPipelineHooks) OnBatchComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sketchHooks   SketchHooks   = NoopSketchHooks{}
	sessionHooks  SessionHooks  = NoopSessionHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetSketchHooks registers custom sketch hooks.
// This should be called once at application startup.
func SetSketchHooks(h SketchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sketchHooks = h
	}
}

// SetSessionHooks registers custom session hooks.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Sketch returns the registered sketch hooks.
func Sketch() SketchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sketchHooks
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sketchHooks = NoopSketchHooks{}
	sessionHooks = NoopSessionHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
