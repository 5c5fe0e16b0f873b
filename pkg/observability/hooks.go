// Package observability carries analysis events to whoever registers for
// them: the CLI's progress spinner, a metrics exporter, a test.
//
// Hooks are process-wide and default to no-ops, so the analysis packages emit
// events unconditionally:
//
//	observability.Pipeline().OnSimulationRun(ctx, run, runs, time.Since(start))
//
// and a caller opts in once:
//
//	observability.SetPipelineHooks(progressHooks{})
//	defer observability.Reset()
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the analysis pipeline.
type PipelineHooks interface {
	// Observed histogram events
	OnObservedComplete(ctx context.Context, cells, seeds int, duration time.Duration)

	// Simulation events. OnSimulationRun may be called concurrently from
	// several workers; run is 1-based and completion order is not run order.
	OnSimulationStart(ctx context.Context, runs int)
	OnSimulationRun(ctx context.Context, run, runs int, duration time.Duration)
	OnSimulationComplete(ctx context.Context, runs int, duration time.Duration, err error)

	// Correction events
	OnCorrectionComplete(ctx context.Context, bins, defined int)
}

// CacheHooks receives baseline cache lookups and writes. keyType names the
// kind of entry, such as "baseline".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// StoreHooks receives events from the run history store.
type StoreHooks interface {
	OnRunSaved(ctx context.Context, runID string, duration time.Duration, err error)
}

// NoopPipelineHooks ignores every event. Embed it to implement only some
// of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnObservedComplete(context.Context, int, int, time.Duration)     {}
func (NoopPipelineHooks) OnSimulationStart(context.Context, int)                          {}
func (NoopPipelineHooks) OnSimulationRun(context.Context, int, int, time.Duration)        {}
func (NoopPipelineHooks) OnSimulationComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnCorrectionComplete(context.Context, int, int)                  {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopStoreHooks struct{}

func (NoopStoreHooks) OnRunSaved(context.Context, string, time.Duration, error) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks replaces the pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	storeHooks = NoopStoreHooks{}
}
