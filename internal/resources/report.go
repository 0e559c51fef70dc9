package resources

// Output is one generated image.
type Output struct {
	Platform string `json:"platform" yaml:"platform"`
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
}

// Report summarizes a run.
type Report struct {
	RunID         string       `json:"run_id" yaml:"run_id"`
	Platforms     []string     `json:"platforms" yaml:"platforms"`
	Generated     int          `json:"generated" yaml:"generated"`
	Skipped       int          `json:"skipped" yaml:"skipped"`
	Failed        int          `json:"failed" yaml:"failed"`
	Filtered      int          `json:"filtered" yaml:"filtered"`
	Outputs       []Output     `json:"outputs" yaml:"outputs"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	DefaultIcon   string       `json:"default_icon,omitempty" yaml:"default_icon,omitempty"`
	ConfigPath    string       `json:"config_path" yaml:"config_path"`
	ConfigChanged bool         `json:"config_changed" yaml:"config_changed"`
	Duration      string       `json:"duration" yaml:"duration"`
}

func (p *Pipeline) report(r *Run, configPath string, merged *mergeResult) *Report {
	rep := &Report{
		RunID:       r.ID,
		Platforms:   r.Platforms,
		Outputs:     []Output{},
		Diagnostics: r.Diagnostics,
		ConfigPath:  configPath,
	}
	if merged != nil {
		rep.DefaultIcon = merged.defaultIcon
		rep.ConfigChanged = merged.changed
	}

	for _, t := range r.Tasks {
		if t.Outcome == OutcomePending {
			// Tasks left pending by an aborted stage never ran.
			t.Outcome = OutcomeSkipped
		}
		if t.Outcome != OutcomeFiltered {
			p.Metrics.RecordTask(t.Spec.Platform, string(t.Spec.Category), string(t.Outcome))
		}

		switch t.Outcome {
		case OutcomeGenerated:
			rep.Generated++
			rep.Outputs = append(rep.Outputs, Output{
				Platform: t.Spec.Platform,
				Category: string(t.Spec.Category),
				Name:     t.Spec.Name,
				Path:     t.Src,
				Width:    t.Spec.Width,
				Height:   t.Spec.Height,
			})
		case OutcomeSkipped:
			rep.Skipped++
		case OutcomeFailed:
			rep.Failed++
		case OutcomeFiltered:
			rep.Filtered++
		}
	}
	return rep
}
