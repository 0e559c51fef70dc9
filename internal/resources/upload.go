package resources

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/fingerprint"
	"github.com/felixgeelhaar/resgen/internal/metrics"
	"github.com/felixgeelhaar/resgen/internal/remote"
)

// checkCache fills in dimensions recorded by earlier runs. A cached source
// was uploaded before and needs no upload now.
func (p *Pipeline) checkCache(r *Run) {
	for _, src := range r.sources() {
		entry, ok := p.Cache.Lookup(src.Fingerprint)
		p.Metrics.RecordCacheLookup(ok)
		if !ok {
			src.UploadRequired = true
			continue
		}
		src.apply(entry)
		p.Metrics.RecordUpload(metrics.OutcomeCached)
	}
	r.skipUncovered()
}

func (s *SourceImage) apply(entry fingerprint.Entry) {
	s.Width = entry.Width
	s.Height = entry.Height
	s.Vector = entry.Vector
	s.Known = true
	s.UploadRequired = false
}

// skipUncovered skips every active task whose known source is too small.
func (r *Run) skipUncovered() {
	for _, t := range r.active() {
		src := t.Source
		if src == nil || !src.Known || src.Covers(t.Spec.Width, t.Spec.Height) {
			continue
		}
		r.skip(t, OutcomeSkipped, DiagTooSmall, tooSmall(src, t))
	}
}

func tooSmall(src *SourceImage, t *Task) *errors.ResgenError {
	return errors.New(errors.ErrCodeSourceTooSmall, fmt.Sprintf("source %s is %dx%d, too small for %dx%d",
		filepath.Base(src.Path), src.Width, src.Height, t.Spec.Width, t.Spec.Height)).
		WithSuggestion("Provide larger source artwork or a vector (svg, ai) source")
}

// upload sends every source that needs it, once per distinct fingerprint.
// Per-file failures skip the dependent tasks. If every upload failed because
// the service was unreachable the run fails.
func (p *Pipeline) upload(ctx context.Context, r *Run) error {
	groups := make(map[string][]*SourceImage)
	var order []string
	for _, src := range r.sources() {
		if !src.UploadRequired {
			continue
		}
		if _, ok := groups[src.Fingerprint]; !ok {
			order = append(order, src.Fingerprint)
		}
		groups[src.Fingerprint] = append(groups[src.Fingerprint], src)
	}
	if len(order) == 0 {
		return nil
	}

	results := make([]error, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for i, token := range order {
		g.Go(func() error {
			srcs := groups[token]
			r.logger.DebugContext(gctx, "uploading source", "path", srcs[0].Path, "fingerprint", token)

			info, err := p.Service.Upload(gctx, token, srcs[0].Path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = err
				p.Metrics.RecordUpload(metrics.OutcomeError)
				return nil
			}
			p.Metrics.RecordUpload(metrics.OutcomeSuccess)

			entry := fingerprint.Entry{Width: info.Width, Height: info.Height, Vector: info.Vector}
			if err := p.Cache.Store(token, entry); err != nil {
				r.logger.WarnContext(gctx, "failed to cache source dimensions", "fingerprint", token, "error", err)
			}
			for _, src := range srcs {
				src.apply(entry)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	unreachable := 0
	var firstErr error
	for i, err := range results {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if stderrors.Is(err, remote.ErrUnreachable) {
			unreachable++
		}
		r.uploadFailed(groups[order[i]], err)
	}
	if unreachable == len(order) {
		return errors.NewNetworkUnreachableError(p.APIURL, firstErr)
	}

	r.skipUncovered()
	return nil
}

// uploadFailed skips every task depending on the failed sources, each with
// its own diagnostic.
func (r *Run) uploadFailed(srcs []*SourceImage, err error) {
	failed := make(map[*SourceImage]bool, len(srcs))
	for _, src := range srcs {
		failed[src] = true
	}

	for _, t := range r.active() {
		if !failed[t.Source] {
			continue
		}
		coded := errors.Wrap(errors.ErrCodeUploadFailed,
			fmt.Sprintf("failed to upload %s", filepath.Base(t.Source.Path)), err)
		r.skip(t, OutcomeFailed, DiagUploadFailed, coded)
	}
}
