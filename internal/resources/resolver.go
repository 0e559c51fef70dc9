package resources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/fingerprint"
)

// SourceExtensions are the accepted source artwork extensions, by priority.
var SourceExtensions = []string{"png", "psd", "ai", "svg"}

// SourceCandidates lists the files searched for a platform's category
// source, in order: the platform directory first, then the resource root.
func SourceCandidates(root, platform string, category catalog.Category) []string {
	dirs := []string{filepath.Join(root, platform), root}
	var out []string
	for _, dir := range dirs {
		for _, ext := range SourceExtensions {
			out = append(out, filepath.Join(dir, string(category)+"."+ext))
		}
	}
	return out
}

type platformCategory struct {
	platform string
	category catalog.Category
}

// resolveSources binds every active task to its source artwork. Tasks
// without a source are skipped with one diagnostic per platform and category.
func (r *Run) resolveSources() {
	root := r.Options.ResourceRoot()
	groups := make(map[platformCategory][]*Task)
	var order []platformCategory

	for _, t := range r.active() {
		key := platformCategory{t.Spec.Platform, t.Spec.Category}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	for _, key := range order {
		tasks := groups[key]
		path, ok := findSource(SourceCandidates(root, key.platform, key.category))
		if !ok {
			r.missingSource(root, key, tasks)
			continue
		}

		src, err := r.source(path)
		if err != nil {
			coded := errors.Wrap(errors.ErrCodeSourceRead, fmt.Sprintf("failed to read source %s", path), err)
			for _, t := range tasks {
				r.skip(t, OutcomeFailed, DiagSourceRead, coded)
			}
			continue
		}
		for _, t := range tasks {
			t.Source = src
		}
	}
}

func findSource(candidates []string) (string, bool) {
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// source returns the shared SourceImage for path, fingerprinting it once.
func (r *Run) source(path string) (*SourceImage, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if src, ok := r.Sources[path]; ok {
		return src, nil
	}

	token, err := fingerprint.File(path)
	if err != nil {
		return nil, err
	}
	src := &SourceImage{Path: path, Fingerprint: token}
	r.Sources[path] = src
	return src, nil
}

func (r *Run) missingSource(root string, key platformCategory, tasks []*Task) {
	for _, t := range tasks {
		markSkipped(t, OutcomeSkipped)
	}

	dirs := []string{filepath.Join(root, key.platform), root}
	names := make([]string, len(SourceExtensions))
	for i, ext := range SourceExtensions {
		names[i] = string(key.category) + "." + ext
	}

	err := errors.NewSourceNotFoundError(key.platform, string(key.category), dirs, names)
	r.diagnose(Diagnostic{
		Kind:     DiagMissingSource,
		Code:     err.Code,
		Platform: key.platform,
		Category: string(key.category),
		Message:  fmt.Sprintf("%s (looked for %v in %v)", err.Message, names, dirs),
	}, err)
}

// markSkipped drops a task without a diagnostic of its own.
func markSkipped(t *Task, outcome Outcome) {
	t.Skip = true
	t.Valid = false
	t.Outcome = outcome
}

// sources returns the distinct sources still used by active tasks, in
// first-use order.
func (r *Run) sources() []*SourceImage {
	seen := make(map[*SourceImage]bool)
	var out []*SourceImage
	for _, t := range r.active() {
		if t.Source != nil && !seen[t.Source] {
			seen[t.Source] = true
			out = append(out, t.Source)
		}
	}
	return out
}
