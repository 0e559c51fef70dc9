package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
)

// PlatformsDir is the directory of installed native platforms.
const PlatformsDir = "platforms"

// resolvePlatforms picks the platforms to generate for: the requested ones
// the catalog knows, or every known platform installed in the project.
func (r *Run) resolvePlatforms() error {
	var platforms []string

	if len(r.Options.Platforms) > 0 {
		seen := make(map[string]bool)
		for _, name := range r.Options.Platforms {
			name = strings.ToLower(strings.TrimSpace(name))
			if seen[name] {
				continue
			}
			seen[name] = true
			if !catalog.Supported(name) {
				r.diagnose(Diagnostic{
					Kind:     DiagUnknownPlatform,
					Platform: name,
					Message:  fmt.Sprintf("no resources are defined for platform %q", name),
				}, nil)
				continue
			}
			platforms = append(platforms, name)
		}
	} else {
		dir := filepath.Join(r.Options.ProjectDir, PlatformsDir)
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read platforms directory", err)
		}
		installed := make(map[string]bool)
		for _, e := range entries {
			if e.IsDir() {
				installed[e.Name()] = true
			}
		}
		for _, name := range catalog.Platforms() {
			if installed[name] {
				platforms = append(platforms, name)
			}
		}
	}

	if len(platforms) == 0 {
		return errors.NewNoPlatformsError(filepath.Join(r.Options.ProjectDir, PlatformsDir))
	}
	sort.SliceStable(platforms, func(i, j int) bool {
		return platformRank(platforms[i]) < platformRank(platforms[j])
	})
	r.Platforms = platforms
	return nil
}

func platformRank(name string) int {
	for i, p := range catalog.Platforms() {
		if p == name {
			return i
		}
	}
	return len(catalog.Platforms())
}

// orientations returns which splash orientations to generate. Explicit
// options win, then the config.xml preference, then both.
func (o Options) orientations(preference string) (landscape, portrait bool) {
	if o.Landscape || o.Portrait {
		return o.Landscape, o.Portrait
	}
	switch strings.ToLower(preference) {
	case "landscape":
		return true, false
	case "portrait":
		return false, true
	default:
		return true, true
	}
}

// buildTasks expands the catalog into tasks and creates the resource
// directories they write into.
func (r *Run) buildTasks(orientationPref string) error {
	landscape, portrait := r.Options.orientations(orientationPref)
	root := r.Options.ResourceRoot()

	for _, platform := range r.Platforms {
		for _, category := range r.Options.Categories() {
			dir := filepath.Join(root, platform, string(category))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create resource directory", err).
					WithSuggestion(fmt.Sprintf("Check permissions on %s", root))
			}

			for _, spec := range catalog.SpecsFor(platform, category) {
				t := &Task{
					Spec:       spec,
					OutputPath: filepath.Join(dir, spec.Name),
					Src:        r.src(platform, category, spec.Name),
				}
				if category == catalog.Splash && !(landscape && spec.Landscape() || portrait && spec.Portrait()) {
					t.Skip = true
					t.Outcome = OutcomeFiltered
				}
				r.Tasks = append(r.Tasks, t)
			}
		}
	}
	return nil
}

// src is the path config.xml uses for an output: relative to the project,
// slash separated.
func (r *Run) src(platform string, category catalog.Category, name string) string {
	resDir := r.Options.ResourcesDir
	if filepath.IsAbs(resDir) {
		if rel, err := filepath.Rel(r.Options.ProjectDir, resDir); err == nil {
			resDir = rel
		}
	}
	return filepath.ToSlash(filepath.Join(resDir, platform, string(category), name))
}
