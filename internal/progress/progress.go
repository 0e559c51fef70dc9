// Package progress renders transform progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// BarIndicator draws a single-line progress bar for image transforms.
type BarIndicator struct {
	writer    io.Writer
	label     string
	total     int
	completed int
	failed    int
	startTime time.Time
	finished  bool
	mu        sync.Mutex
}

// NewBarIndicator creates a simple progress bar
func NewBarIndicator(w io.Writer, total int) *BarIndicator {
	if w == nil {
		w = os.Stderr
	}
	return &BarIndicator{
		writer:    w,
		label:     "Generating",
		total:     total,
		startTime: time.Now(),
	}
}

// WithLabel sets the text shown before the bar.
func (b *BarIndicator) WithLabel(label string) *BarIndicator {
	b.label = label
	return b
}

// Increment records one resolved image
func (b *BarIndicator) Increment(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.completed++
	} else {
		b.failed++
	}

	b.render()
}

// render draws the progress bar
func (b *BarIndicator) render() {
	progress := 1.0
	if b.total > 0 {
		progress = min(float64(b.completed+b.failed)/float64(b.total), 1)
	}
	barWidth := 40
	filled := int(float64(barWidth) * progress)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	elapsed := time.Since(b.startTime)

	fmt.Fprintf(b.writer, "\r%s [%s] %.0f%% | %d/%d | ✓ %d | ✗ %d | %s",
		b.label,
		bar,
		progress*100,
		b.completed+b.failed,
		b.total,
		b.completed,
		b.failed,
		formatDuration(elapsed),
	)
}

// Finish completes the progress bar. Calling it more than once is a no-op.
func (b *BarIndicator) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return
	}
	b.finished = true
	fmt.Fprintln(b.writer)
}
