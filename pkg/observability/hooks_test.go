package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingHooks struct {
	NoopPipelineHooks
	runs atomic.Int32
}

func (h *countingHooks) OnSimulationRun(context.Context, int, int, time.Duration) {
	h.runs.Add(1)
}

type countingCache struct {
	NoopCacheHooks
	hits, misses int
}

func (h *countingCache) OnCacheHit(context.Context, string)  { h.hits++ }
func (h *countingCache) OnCacheMiss(context.Context, string) { h.misses++ }

type savedRuns struct {
	NoopStoreHooks
	ids []string
}

func (h *savedRuns) OnRunSaved(_ context.Context, id string, _ time.Duration, _ error) {
	h.ids = append(h.ids, id)
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	Pipeline().OnObservedComplete(ctx, 2500, 900, time.Second)
	Pipeline().OnSimulationStart(ctx, 200)
	Pipeline().OnSimulationComplete(ctx, 200, time.Minute, nil)
	Pipeline().OnCorrectionComplete(ctx, 101, 100)
	Cache().OnCacheSet(ctx, "baseline", 1024)
	Store().OnRunSaved(ctx, "run", time.Millisecond, nil)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T", Cache())
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Errorf("Store() = %T", Store())
	}
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	t.Cleanup(Reset)
	ctx := context.Background()

	p, c, s := &countingHooks{}, &countingCache{}, &savedRuns{}
	SetPipelineHooks(p)
	SetCacheHooks(c)
	SetStoreHooks(s)

	var wg sync.WaitGroup
	for run := 1; run <= 20; run++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Pipeline().OnSimulationRun(ctx, run, 20, time.Millisecond)
		}()
	}
	wg.Wait()
	Cache().OnCacheMiss(ctx, "baseline")
	Cache().OnCacheHit(ctx, "baseline")
	Store().OnRunSaved(ctx, "3f2a", time.Millisecond, nil)

	if got := p.runs.Load(); got != 20 {
		t.Errorf("runs = %d, want 20", got)
	}
	if c.hits != 1 || c.misses != 1 {
		t.Errorf("hits, misses = %d, %d", c.hits, c.misses)
	}
	if len(s.ids) != 1 || s.ids[0] != "3f2a" {
		t.Errorf("saved = %v", s.ids)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingHooks{}
	SetPipelineHooks(h)
	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetStoreHooks(nil)

	if Pipeline() != h {
		t.Error("SetPipelineHooks(nil) should keep the registered hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the defaults")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}
