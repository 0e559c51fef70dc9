package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/remote"
)

// transformEngine renders tasks through a fixed pool of workers. Tasks that
// need the same staging file share one request.
type transformEngine struct {
	p *Pipeline
	r *Run

	flight   singleflight.Group
	mu       sync.Mutex
	produced map[string]error

	calls    atomic.Int64
	failures atomic.Int64
}

// transform drains the active tasks through at most Concurrency
// outstanding requests.
func (p *Pipeline) transform(ctx context.Context, r *Run) error {
	tasks := r.active()
	if len(tasks) == 0 {
		return nil
	}
	if err := os.MkdirAll(r.StagingDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create staging directory", err)
	}

	e := &transformEngine{p: p, r: r, produced: make(map[string]error)}

	bar := Progress(noProgress{})
	if p.NewProgress != nil {
		bar = p.NewProgress(len(tasks))
	}

	workers := min(r.Options.Concurrency, len(tasks))
	queue := make(chan *Task, len(tasks))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				bar.Increment(e.run(ctx, t))
			}
		}()
	}

	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	wg.Wait()
	bar.Finish()

	if err := ctx.Err(); err != nil {
		return err
	}

	calls, failures := e.calls.Load(), e.failures.Load()
	r.logger.Debug("transform stage finished", "requests", calls, "failures", failures)
	if calls > 0 && failures == calls {
		return errors.New(errors.ErrCodeTransformAllFailed,
			fmt.Sprintf("all %d transform requests failed", calls)).
			WithSuggestions(
				"Check the diagnostics for the image service response",
				"Retry later or point --api at another image service",
			)
	}
	return nil
}

// run resolves one task and reports whether it has a staged image.
func (e *transformEngine) run(ctx context.Context, t *Task) bool {
	if ctx.Err() != nil {
		markSkipped(t, OutcomeFailed)
		return false
	}

	src := t.Source
	if !src.Covers(t.Spec.Width, t.Spec.Height) {
		e.r.skip(t, OutcomeSkipped, DiagTooSmall, tooSmall(src, t))
		return false
	}

	staging := filepath.Join(e.r.StagingDir, fmt.Sprintf("%s-%dx%d.png", src.Fingerprint, t.Spec.Width, t.Spec.Height))
	if err := e.produce(ctx, t, staging); err != nil {
		if ctx.Err() != nil {
			markSkipped(t, OutcomeFailed)
			return false
		}
		e.r.skip(t, OutcomeFailed, DiagTransformFailed,
			errors.Wrap(errors.ErrCodeTransformFailed, "transform failed", err))
		return false
	}

	t.StagingPath = staging
	return true
}

func (e *transformEngine) result(staging string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	err, ok := e.produced[staging]
	return ok, err
}

// produce makes sure the staging file exists, issuing at most one request
// per staging path per run.
func (e *transformEngine) produce(ctx context.Context, t *Task, staging string) error {
	if ok, err := e.result(staging); ok {
		return err
	}

	_, err, _ := e.flight.Do(staging, func() (any, error) {
		if ok, err := e.result(staging); ok {
			return nil, err
		}
		err := e.fetch(ctx, t, staging)
		e.mu.Lock()
		e.produced[staging] = err
		e.mu.Unlock()
		return nil, err
	})
	return err
}

// fetch streams one transform response into the staging file. A failed
// request leaves no staging file behind.
func (e *transformEngine) fetch(ctx context.Context, t *Task, staging string) error {
	f, err := os.Create(staging)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}

	req := remote.TransformRequest{
		ImageID:  t.Source.Fingerprint,
		Name:     t.Spec.Name,
		Platform: t.Spec.Platform,
		Category: string(t.Spec.Category),
		Width:    t.Spec.Width,
		Height:   t.Spec.Height,
	}

	start := time.Now()
	e.calls.Add(1)
	err = e.p.Service.Transform(ctx, req, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("write staging file: %w", closeErr)
	}
	e.p.Metrics.RecordTransform(t.Spec.Platform, err == nil, time.Since(start))

	if err != nil {
		e.failures.Add(1)
		os.Remove(staging)
		return err
	}
	return nil
}
