package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing. A nil Tracker or one
// made by Disabled ignores every call.
type Tracker struct {
	bar *progressbar.ProgressBar
}

// NewTracker creates a progress bar with the given label and total count,
// drawn on w.
func NewTracker(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
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
	return &Tracker{bar: bar}
}

// Disabled returns a tracker that draws nothing.
func Disabled() *Tracker {
	return &Tracker{}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t == nil || t.bar == nil {
		return
	}
	_ = t.bar.Add(1)
}

// Current returns the number of ticks so far.
func (t *Tracker) Current() int64 {
	if t == nil || t.bar == nil {
		return 0
	}
	return t.bar.State().CurrentNum
}

// Finish clears the bar.
func (t *Tracker) Finish() {
	if t == nil || t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}
