// Package cli implements the cellcluster command line.
//
//	cellcluster analyze cells.tsv --cell1 1 --cell2 3 -f xlsx,svg
//	cellcluster config init analysis.toml
//	cellcluster history show 3f2a1b4c -f tsv
//	cellcluster cache clear
//
// Status lines go to stdout; log records go to stderr through
// charmbracelet/log and reach helpers through the command context.
// --verbose adds debug records, one per simulation run.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// progress logs a step's completion with its elapsed time, as in
// "Loaded 1200 cells (12ms)". Not for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
