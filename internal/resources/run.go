// Package resources generates platform icon and splash images from source
// artwork and declares them in the project's config.xml.
//
// A generation is a sequence of stages over one Run: build tasks, resolve
// sources, upload, transform, commit, merge. Each stage finishes before the
// next starts.
package resources

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/fingerprint"
	"github.com/felixgeelhaar/resgen/internal/log"
)

// DefaultConcurrency is the default limit of outstanding transform requests.
const DefaultConcurrency = 4

// DefaultResourcesDir is the resource root relative to the project.
const DefaultResourcesDir = "resources"

// Options selects what a run generates.
type Options struct {
	// ProjectDir holds config.xml and the platforms/ directory.
	ProjectDir string
	// ResourcesDir is the resource root, relative to ProjectDir unless absolute.
	ResourcesDir string
	// Platforms restricts generation. Empty means every installed platform.
	Platforms []string
	// Icon and Splash select categories. Neither set means both.
	Icon   bool
	Splash bool
	// Landscape and Portrait select splash orientations. Neither set defers
	// to the Orientation preference in config.xml.
	Landscape bool
	Portrait  bool
	// Concurrency caps outstanding transform requests.
	Concurrency int
	// StagingRoot is where the per-run staging directory is created.
	// Defaults to the OS temp directory.
	StagingRoot string
}

func (o Options) withDefaults() Options {
	if o.ProjectDir == "" {
		o.ProjectDir = "."
	}
	if o.ResourcesDir == "" {
		o.ResourcesDir = DefaultResourcesDir
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// ResourceRoot returns the absolute-or-project-relative resource root.
func (o Options) ResourceRoot() string {
	if filepath.IsAbs(o.ResourcesDir) {
		return o.ResourcesDir
	}
	return filepath.Join(o.ProjectDir, o.ResourcesDir)
}

// Categories returns the selected categories in catalog order.
func (o Options) Categories() []catalog.Category {
	if o.Icon == o.Splash {
		return catalog.Categories
	}
	if o.Icon {
		return []catalog.Category{catalog.Icon}
	}
	return []catalog.Category{catalog.Splash}
}

// Outcome is the final state of a task.
type Outcome string

const (
	OutcomePending   Outcome = ""
	OutcomeGenerated Outcome = "generated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeFiltered  Outcome = "filtered"
)

// Task is one required output image.
type Task struct {
	Spec catalog.ImageSpec
	// OutputPath is where the image is written on disk.
	OutputPath string
	// Src is the project-relative, slash separated path written to config.xml.
	Src         string
	Source      *SourceImage
	StagingPath string
	Skip        bool
	Valid       bool
	Outcome     Outcome
}

// SourceImage is one source artwork file, shared by the tasks it produces.
type SourceImage struct {
	Path        string
	Fingerprint string
	Width       int
	Height      int
	Vector      bool
	// Known is set once dimensions came from the cache or an upload.
	Known          bool
	UploadRequired bool
}

// Covers reports whether the source can produce an output of the given size.
func (s *SourceImage) Covers(width, height int) bool {
	return fingerprint.Entry{Width: s.Width, Height: s.Height, Vector: s.Vector}.Covers(width, height)
}

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	DiagMissingSource   DiagnosticKind = "missing-source"
	DiagSourceRead      DiagnosticKind = "source-read"
	DiagTooSmall        DiagnosticKind = "too-small"
	DiagUploadFailed    DiagnosticKind = "upload-failed"
	DiagTransformFailed DiagnosticKind = "transform-failed"
	DiagCommitFailed    DiagnosticKind = "commit-failed"
	DiagUnknownPlatform DiagnosticKind = "unknown-platform"
)

// Diagnostic is a readable note about something a run could not do.
type Diagnostic struct {
	Kind     DiagnosticKind   `json:"kind" yaml:"kind"`
	Code     errors.ErrorCode `json:"code,omitempty" yaml:"code,omitempty"`
	Platform string           `json:"platform,omitempty" yaml:"platform,omitempty"`
	Category string           `json:"category,omitempty" yaml:"category,omitempty"`
	File     string           `json:"file,omitempty" yaml:"file,omitempty"`
	Width    int              `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int              `json:"height,omitempty" yaml:"height,omitempty"`
	Message  string           `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.File != "":
		return fmt.Sprintf("%s %s %s (%dx%d): %s", d.Platform, d.Category, d.File, d.Width, d.Height, d.Message)
	case d.Category != "":
		return fmt.Sprintf("%s %s: %s", d.Platform, d.Category, d.Message)
	case d.Platform != "":
		return fmt.Sprintf("%s: %s", d.Platform, d.Message)
	default:
		return d.Message
	}
}

// Run is the state of one generation. Nothing in it outlives the run.
type Run struct {
	ID          string
	Options     Options
	Platforms   []string
	Tasks       []*Task
	Sources     map[string]*SourceImage
	StagingDir  string
	Diagnostics []Diagnostic

	logger *log.Logger
	mu     sync.Mutex
}

// NewRun creates a run with a fresh ID.
func NewRun(opts Options, logger *log.Logger) *Run {
	if logger == nil {
		logger = log.Discard()
	}
	id := uuid.NewString()
	return &Run{
		ID:      id,
		Options: opts.withDefaults(),
		Sources: make(map[string]*SourceImage),
		logger:  logger.With("run_id", id),
	}
}

// diagnose records a diagnostic and logs it with its cause.
func (r *Run) diagnose(d Diagnostic, cause error) {
	r.mu.Lock()
	r.Diagnostics = append(r.Diagnostics, d)
	r.mu.Unlock()

	r.logger.WithError(cause).Warn(d.Message,
		"kind", string(d.Kind),
		"platform", d.Platform,
		"category", d.Category,
		"file", d.File,
		"width", d.Width,
		"height", d.Height,
	)
}

// skip marks t as not produced and records err as the reason.
func (r *Run) skip(t *Task, outcome Outcome, kind DiagnosticKind, err *errors.ResgenError) {
	markSkipped(t, outcome)

	msg := err.Message
	if err.Cause != nil {
		msg += ": " + err.Cause.Error()
	}
	r.diagnose(Diagnostic{
		Kind:     kind,
		Code:     err.Code,
		Platform: t.Spec.Platform,
		Category: string(t.Spec.Category),
		File:     t.Spec.Name,
		Width:    t.Spec.Width,
		Height:   t.Spec.Height,
		Message:  msg,
	}, err)
}

// active returns the tasks still eligible for generation.
func (r *Run) active() []*Task {
	var out []*Task
	for _, t := range r.Tasks {
		if !t.Skip {
			out = append(out, t)
		}
	}
	return out
}

// valid returns the tasks whose images were committed.
func (r *Run) valid() []*Task {
	var out []*Task
	for _, t := range r.Tasks {
		if t.Valid && !t.Skip {
			out = append(out, t)
		}
	}
	return out
}
