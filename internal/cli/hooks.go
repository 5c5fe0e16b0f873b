package cli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/cellcluster/pkg/observability"
)

// spinnerHooks reports pipeline progress on a spinner. Simulation runs
// finish out of order across workers, so the counter tracks completions.
type spinnerHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner

	mu   sync.Mutex // orders counter updates with the message they produce
	done atomic.Int64
}

func newSpinnerHooks(s *Spinner) *spinnerHooks {
	return &spinnerHooks{spinner: s}
}

func (h *spinnerHooks) OnObservedComplete(_ context.Context, cells, seeds int, _ time.Duration) {
	h.spinner.SetMessage(fmt.Sprintf("Observed %d seeds among %d cells", seeds, cells))
}

func (h *spinnerHooks) OnSimulationStart(_ context.Context, runs int) {
	h.done.Store(0)
	h.spinner.SetMessage(fmt.Sprintf("Simulating run 0/%d", runs))
}

func (h *spinnerHooks) OnSimulationRun(_ context.Context, _, runs int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.done.Add(1)
	h.spinner.SetMessage(fmt.Sprintf("Simulating run %d/%d", n, runs))
}

func (h *spinnerHooks) OnCorrectionComplete(context.Context, int, int) {
	h.spinner.SetMessage("Rendering outputs")
}

// withProgress registers hooks that drive s for the duration of fn.
func withProgress(s *Spinner, fn func() error) error {
	observability.SetPipelineHooks(newSpinnerHooks(s))
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})
	return fn()
}
