package resources

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/resgen/internal/appconfig"
	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/fingerprint"
	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/metrics"
	"github.com/felixgeelhaar/resgen/internal/remote"
)

// ImageService measures and renders artwork. *remote.Client implements it.
type ImageService interface {
	Upload(ctx context.Context, imageID, path string) (*remote.ImageInfo, error)
	Transform(ctx context.Context, req remote.TransformRequest, w io.Writer) error
}

// Progress receives one call per resolved transform task.
type Progress interface {
	Increment(success bool)
	Finish()
}

type noProgress struct{}

func (noProgress) Increment(bool) {}
func (noProgress) Finish()        {}

// Pipeline runs generations against an image service.
type Pipeline struct {
	Service ImageService
	Cache   *fingerprint.Cache
	Metrics *metrics.Metrics
	Logger  *log.Logger
	// APIURL is only used in error messages.
	APIURL string
	// NewProgress, when set, is called with the number of transform tasks.
	NewProgress func(total int) Progress
}

func (p *Pipeline) init() {
	if p.Cache == nil {
		p.Cache = fingerprint.NewCache("")
	}
	if p.Metrics == nil {
		_, p.Metrics = metrics.NewRegistry()
	}
	if p.Logger == nil {
		p.Logger = log.Discard()
	}
}

// Run performs one generation and reports what it did. The report is
// returned even when err is non-nil, unless the run failed before any task
// was built.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	p.init()
	start := time.Now()

	r := NewRun(opts, p.Logger)
	r.logger.InfoContext(ctx, "starting resource generation",
		"project", r.Options.ProjectDir,
		"resources", r.Options.ResourceRoot(),
		"concurrency", r.Options.Concurrency,
	)

	report, stage, err := p.execute(ctx, r)
	if report != nil {
		report.Duration = time.Since(start).Round(time.Millisecond).String()
	}

	p.Metrics.RecordRun(err == nil, time.Since(start))
	if err != nil {
		code := string(errors.CodeOf(err))
		if code == "" {
			code = "unknown"
		}
		p.Metrics.RecordError(code, stage)
		r.logger.WithError(err).ErrorContext(ctx, "resource generation failed", "stage", stage)
	} else {
		r.logger.InfoContext(ctx, "resource generation finished",
			"generated", report.Generated,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"duration", report.Duration,
		)
	}
	return report, err
}

// execute runs the stages in order and returns the name of the stage that
// failed, if any.
func (p *Pipeline) execute(ctx context.Context, r *Run) (*Report, string, error) {
	configPath := filepath.Join(r.Options.ProjectDir, appconfig.FileName)
	doc, err := loadConfig(configPath)
	if err != nil {
		return nil, "config", err
	}

	if err := r.resolvePlatforms(); err != nil {
		return nil, "build", err
	}
	if err := r.buildTasks(doc.Orientation()); err != nil {
		return nil, "build", err
	}

	r.resolveSources()
	p.checkCache(r)
	if r.logger.Enabled(ctx, log.LevelDebug) {
		for _, src := range r.sources() {
			r.logger.DebugContext(ctx, "resolved source",
				"path", src.Path,
				"fingerprint", src.Fingerprint,
				"cached", src.Known,
			)
		}
	}

	if err := p.upload(ctx, r); err != nil {
		return p.report(r, configPath, nil), "upload", err
	}

	stagingRoot := r.Options.StagingRoot
	if stagingRoot == "" {
		stagingRoot = os.TempDir()
	}
	r.StagingDir = filepath.Join(stagingRoot, "resgen-"+r.ID)
	defer func() {
		if err := os.RemoveAll(r.StagingDir); err != nil {
			r.logger.Warn("failed to remove staging directory", "dir", r.StagingDir, "error", err)
		}
	}()

	if err := p.transform(ctx, r); err != nil {
		return p.report(r, configPath, nil), "transform", err
	}

	r.commit()

	if len(r.valid()) == 0 {
		return p.report(r, configPath, nil), "merge", errors.NewNoOutputError()
	}

	merged, err := p.merge(r, configPath)
	if err != nil {
		return p.report(r, configPath, nil), "merge", err
	}
	return p.report(r, configPath, merged), "", nil
}

// loadConfig reads config.xml, mapping failures to coded errors.
func loadConfig(path string) (*appconfig.Document, error) {
	doc, err := appconfig.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigNotFoundError(path, err)
		}
		return nil, errors.NewConfigInvalidError(path, err)
	}
	return doc, nil
}
