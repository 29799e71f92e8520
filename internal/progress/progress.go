// Package progress renders load progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/dusk-indust/vardeps/internal/loader"
)

// Tracker wraps a progress bar for file extraction. It is sized by the
// loader's discovery event and ticks once per finished file.
type Tracker struct {
	w     io.Writer
	label string

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	failed int
}

// NewTracker returns a tracker that draws to w once the file count is known.
func NewTracker(w io.Writer, label string) *Tracker {
	return &Tracker{w: w, label: label}
}

// Observe is a loader.Options.OnProgress callback. Safe for concurrent use.
func (t *Tracker) Observe(ev loader.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Status {
	case loader.ProgressDiscovered:
		t.bar = newBar(t.w, t.label, ev.Total)
	case loader.ProgressFailed:
		t.failed++
		fallthrough
	case loader.ProgressComplete:
		if t.bar != nil {
			t.bar.Add(1)
		}
	}
}

// Finish clears the bar and prints a one-line summary of failures, if any.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil {
		t.bar.Finish()
		t.bar.Clear()
	}
	if t.failed > 0 {
		fmt.Fprintf(t.w, "  %s: %d file(s) skipped\n", t.label, t.failed)
	}
}

func newBar(w io.Writer, label string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
