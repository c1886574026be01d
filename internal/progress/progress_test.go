package progress

import (
	"bytes"
	"sync"
	"testing"
)

func TestTrackerTick(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "Detecting clones...", 10)

	for range 4 {
		tracker.Tick()
	}
	if got := tracker.Current(); got != 4 {
		t.Errorf("Current() = %d, want 4", got)
	}
	tracker.Finish()

	if buf.Len() == 0 {
		t.Error("tracker should draw to its writer")
	}
}

func TestTrackerTickConcurrent(t *testing.T) {
	tracker := NewTracker(&bytes.Buffer{}, "Detecting clones...", 100)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				tracker.Tick()
			}
		}()
	}
	wg.Wait()

	if got := tracker.Current(); got != 100 {
		t.Errorf("Current() = %d, want 100", got)
	}
	tracker.Finish()
}

func TestTrackerDisabled(t *testing.T) {
	for _, tracker := range []*Tracker{Disabled(), nil} {
		tracker.Tick()
		tracker.Finish()
		if got := tracker.Current(); got != 0 {
			t.Errorf("Current() = %d, want 0", got)
		}
	}
}
