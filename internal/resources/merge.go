package resources

import (
	"path"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/resgen/internal/appconfig"
	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
)

// DefaultIconCeiling is the widest icon eligible as the top-level default.
const DefaultIconCeiling = 96

// Splash preference values written when Android splash images exist.
const (
	SplashScreenValue      = "screen"
	SplashScreenDelayValue = "3000"
)

type mergeResult struct {
	defaultIcon string
	changed     bool
}

// merge declares the committed images in config.xml. The document is read
// again so edits made during the run are kept.
func (p *Pipeline) merge(r *Run, configPath string) (*mergeResult, error) {
	doc, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	valid := r.valid()
	mergeInto(doc, r, valid)

	result := &mergeResult{}
	if icon := SelectDefaultIcon(valid); icon != nil {
		result.defaultIcon = icon.Src
	}

	changed, err := doc.Save(configPath)
	if err != nil {
		return nil, errors.NewConfigWriteError(configPath, err)
	}
	result.changed = changed
	p.Metrics.RecordConfigWrite(changed)
	r.logger.Info("merged resources into config.xml", "path", configPath, "images", len(valid), "changed", changed)
	return result, nil
}

// mergeInto applies the valid tasks to doc.
func mergeInto(doc *appconfig.Document, r *Run, valid []*Task) {
	var touched []platformCategory
	seen := make(map[platformCategory]bool)
	for _, t := range valid {
		key := platformCategory{t.Spec.Platform, t.Spec.Category}
		if !seen[key] {
			seen[key] = true
			touched = append(touched, key)
		}
	}

	for _, key := range touched {
		el := doc.EnsurePlatform(key.platform)
		prefix := r.src(key.platform, key.category, "")
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		names := catalog.Names(key.platform, key.category)
		removed := doc.RemoveImageNodes(el, nodeName(key), func(src string) bool {
			return strings.HasPrefix(src, prefix) && !names[path.Base(src)]
		})
		if removed > 0 {
			r.logger.Debug("removed stale declarations", "platform", key.platform, "category", string(key.category), "count", removed)
		}
	}

	androidSplash := false
	for _, t := range valid {
		el := doc.EnsurePlatform(t.Spec.Platform)
		doc.EnsureImageNode(el, t.Spec.NodeName, t.Src, attributes(t))
		if t.Spec.Platform == "android" && t.Spec.Category == catalog.Splash {
			androidSplash = true
		}
	}

	if icon := SelectDefaultIcon(valid); icon != nil {
		doc.SetDefaultIcon(icon.Src)
	}

	if androidSplash {
		doc.EnsurePreference(appconfig.PrefSplashScreen, SplashScreenValue)
		doc.EnsurePreference(appconfig.PrefSplashScreenDelay, SplashScreenDelayValue)
	}
}

func nodeName(key platformCategory) string {
	if specs := catalog.SpecsFor(key.platform, key.category); len(specs) > 0 {
		return specs[0].NodeName
	}
	return string(key.category)
}

// attributes renders the config.xml attributes declaring t.
func attributes(t *Task) []appconfig.Attr {
	attrs := make([]appconfig.Attr, 0, len(t.Spec.Attributes))
	for _, name := range t.Spec.Attributes {
		switch name {
		case catalog.AttrSrc:
			attrs = append(attrs, appconfig.Attr{Key: name, Value: t.Src})
		case catalog.AttrWidth:
			attrs = append(attrs, appconfig.Attr{Key: name, Value: strconv.Itoa(t.Spec.Width)})
		case catalog.AttrHeight:
			attrs = append(attrs, appconfig.Attr{Key: name, Value: strconv.Itoa(t.Spec.Height)})
		case catalog.AttrDensity:
			attrs = append(attrs, appconfig.Attr{Key: name, Value: t.Spec.Density})
		}
	}
	return attrs
}

// SelectDefaultIcon picks the widest icon not wider than
// DefaultIconCeiling. The first of equally wide icons wins.
func SelectDefaultIcon(tasks []*Task) *Task {
	var best *Task
	for _, t := range tasks {
		if t.Spec.Category != catalog.Icon || t.Spec.Width > DefaultIconCeiling {
			continue
		}
		if best == nil || t.Spec.Width > best.Spec.Width {
			best = t
		}
	}
	return best
}
