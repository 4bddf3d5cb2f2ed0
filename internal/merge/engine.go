// Package merge consolidates files from several source trees into one
// destination directory.
package merge

import (
	"context"
	"os"

	"mergemaster/internal/config"
	serr "mergemaster/internal/errors"
	"mergemaster/internal/log"
	"mergemaster/pkg/types"

	"github.com/google/uuid"
)

// Engine runs merges: it collects every selected file up front, then copies
// the tasks one at a time while reporting to a Progress sink.
type Engine struct {
	opts     config.Options
	selector *Selector
	copier   *Copier
	progress Progress
	lockDir  string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithProgress sets the sink that receives run events.
func WithProgress(p Progress) Option {
	return func(e *Engine) {
		if p != nil {
			e.progress = p
		}
	}
}

// WithLockDir sets where destination lock files are kept (default: the
// system temp dir).
func WithLockDir(dir string) Option {
	return func(e *Engine) {
		e.lockDir = dir
	}
}

// New creates an Engine for opts, resolving categories against table.
func New(opts config.Options, table types.CategoryTable, options ...Option) (*Engine, error) {
	sel, err := NewSelector(opts, table)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		opts:     opts,
		selector: sel,
		copier:   NewCopier(opts),
		progress: NopProgress{},
		lockDir:  os.TempDir(),
	}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

// Options returns the options the engine was built with.
func (e *Engine) Options() config.Options {
	return e.opts
}

// Selector returns the engine's file selector.
func (e *Engine) Selector() *Selector {
	return e.selector
}

// IsDryRun returns whether the engine only plans copies
func (e *Engine) IsDryRun() bool {
	return e.opts.DryRun()
}

// Collect returns the copy tasks for the configured sources.
func (e *Engine) Collect() ([]types.CopyTask, error) {
	return Collect(e.opts, e.selector)
}

// CopyTask copies (or, in dry-run mode, plans) a single task.
func (e *Engine) CopyTask(task types.CopyTask) (types.CopyResult, error) {
	if e.opts.DryRun() {
		return e.copier.Plan(task)
	}
	return e.copier.Copy(task)
}

// Lock takes the destination lock for the lifetime of a caller that issues
// several CopyTask calls. Run takes it by itself.
func (e *Engine) Lock() (func(), error) {
	if e.opts.DryRun() {
		return func() {}, nil
	}
	return lockDestination(e.lockDir, e.opts.Destination())
}

// Run performs a full merge. Any filesystem error aborts the run; the
// returned summary then describes the tasks completed so far. ctx is
// checked between tasks.
func (e *Engine) Run(ctx context.Context) (types.Summary, error) {
	summary := types.Summary{
		RunID:  uuid.NewString(),
		DryRun: e.opts.DryRun(),
	}
	logger := log.LogWithFields(log.F("run_id", summary.RunID))

	unlock, err := e.Lock()
	if err != nil {
		e.progress.Finish(summary, err)
		return summary, err
	}
	defer unlock()

	summary, err = e.run(ctx, summary, logger)
	e.progress.Finish(summary, err)
	if err != nil {
		logger.With(log.F("copied", summary.Copied), log.F("error", err)).Error("Merge aborted")
		return summary, err
	}

	logger.With(log.F("total", summary.Total), log.F("copied", summary.Copied), log.F("dry_run", summary.DryRun)).
		Info("Merge finished")
	return summary, nil
}

func (e *Engine) run(ctx context.Context, summary types.Summary, logger *log.Logger) (types.Summary, error) {
	if !e.opts.DryRun() {
		dest := e.opts.Destination()
		if err := os.MkdirAll(dest, 0755); err != nil {
			return summary, serr.NewFileError("failed to create destination directory", dest, serr.FileKind(err, serr.FileCreateFailed), err)
		}
	}

	tasks, err := e.Collect()
	if err != nil {
		return summary, err
	}
	summary.Total = len(tasks)
	logger.With(log.F("sources", len(e.opts.Sources())), log.F("files", len(tasks))).Info("Collected files")

	e.progress.Start(len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return summary, serr.Wrap(err, "merge cancelled")
		}

		result, err := e.CopyTask(task)
		if err != nil {
			return summary, err
		}
		if result.Copied {
			summary.Copied++
		}
		summary.Results = append(summary.Results, result)
		e.progress.Advance(result)
	}

	return summary, nil
}
