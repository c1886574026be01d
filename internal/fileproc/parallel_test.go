package fileproc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMapFilesWithResource(t *testing.T) {
	files := []string{"a/file1.go", "b/file2.go", "c/file3.go"}

	results, errs := MapFilesWithResource(context.Background(), files, 2,
		func() string { return "res" },
		nil,
		func(_ context.Context, res string, path string) (string, error) {
			return res + ":" + filepath.Base(path), nil
		},
		nil,
	)

	if errs != nil {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	want := []string{"res:file1.go", "res:file2.go", "res:file3.go"}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %q, want %q", i, results[i], want[i])
		}
	}
}

func TestMapFilesWithResource_Empty(t *testing.T) {
	results, errs := MapFilesWithResource(context.Background(), nil, 0,
		func() int { return 0 }, nil,
		func(context.Context, int, string) (int, error) { return 1, nil },
		nil,
	)
	if results != nil || errs != nil {
		t.Errorf("Expected nil results and errors, got %v, %v", results, errs)
	}
}

func TestMapFilesWithResource_Errors(t *testing.T) {
	files := []string{"ok.go", "bad.go", "ok2.go"}
	errBad := errors.New("bad file")

	results, errs := MapFilesWithResource(context.Background(), files, 0,
		func() struct{} { return struct{}{} }, nil,
		func(_ context.Context, _ struct{}, path string) (int, error) {
			if path == "bad.go" {
				return 0, errBad
			}
			return 1, nil
		},
		nil,
	)

	if errs == nil || len(errs.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	if errs.Errors[0].Path != "bad.go" {
		t.Errorf("Error path = %q, want bad.go", errs.Errors[0].Path)
	}
	if !errors.Is(errs, errBad) {
		t.Error("errors.Is should find the file error")
	}
	if results[0] != 1 || results[1] != 0 || results[2] != 1 {
		t.Errorf("Unexpected results %v", results)
	}
}

func TestMapFilesWithResource_ResourcesPerWorker(t *testing.T) {
	files := make([]string, 40)
	for i := range files {
		files[i] = fmt.Sprintf("file%d.go", i)
	}

	var created, closed atomic.Int32
	var mu sync.Mutex
	inUse := make(map[*int]bool)

	_, errs := MapFilesWithResource(context.Background(), files, 4,
		func() *int {
			created.Add(1)
			return new(int)
		},
		func(*int) { closed.Add(1) },
		func(_ context.Context, res *int, _ string) (int, error) {
			mu.Lock()
			if inUse[res] {
				mu.Unlock()
				return 0, errors.New("resource shared between workers")
			}
			inUse[res] = true
			mu.Unlock()

			runtime.Gosched()

			mu.Lock()
			delete(inUse, res)
			mu.Unlock()
			return 0, nil
		},
		nil,
	)

	if errs != nil {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if created.Load() > 4 {
		t.Errorf("Created %d resources, want at most 4", created.Load())
	}
	if closed.Load() != created.Load() {
		t.Errorf("Closed %d of %d resources", closed.Load(), created.Load())
	}
}

func TestMapFilesWithResource_Progress(t *testing.T) {
	files := []string{"a.go", "b.go", "c.go", "d.go"}
	var ticks atomic.Int32

	_, _ = MapFilesWithResource(context.Background(), files, 2,
		func() int { return 0 }, nil,
		func(_ context.Context, _ int, path string) (int, error) {
			if path == "b.go" {
				return 0, errors.New("fail")
			}
			return 1, nil
		},
		func() { ticks.Add(1) },
	)

	if ticks.Load() != int32(len(files)) {
		t.Errorf("Progress called %d times, want %d", ticks.Load(), len(files))
	}
}

func TestMapFilesWithResource_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []string{"a.go", "b.go"}
	_, errs := MapFilesWithResource(ctx, files, 1,
		func() int { return 0 }, nil,
		func(context.Context, int, string) (int, error) { return 1, nil },
		nil,
	)

	if errs == nil || len(errs.Errors) != len(files) {
		t.Fatalf("Expected every file to be skipped, got %v", errs)
	}
	if !errors.Is(errs, ErrSkipped) || !errors.Is(errs, context.Canceled) {
		t.Errorf("Expected skipped and canceled errors, got %v", errs)
	}
}

func TestWorkers(t *testing.T) {
	if got := Workers(3); got != 3 {
		t.Errorf("Workers(3) = %d, want 3", got)
	}
	if got := Workers(0); got != runtime.NumCPU()*DefaultWorkerMultiplier {
		t.Errorf("Workers(0) = %d, want %d", got, runtime.NumCPU()*DefaultWorkerMultiplier)
	}
}

func TestProcessingError(t *testing.T) {
	err := ProcessingError{Path: "/path/to/file.go", Err: fmt.Errorf("parse failed")}
	expected := "/path/to/file.go: parse failed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestProcessingErrors(t *testing.T) {
	errs := &ProcessingErrors{}

	if errs.HasErrors() {
		t.Error("Empty ProcessingErrors should not have errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Empty error message = %q, want 'no errors'", errs.Error())
	}

	errs.Add("/file2.go", fmt.Errorf("error2"))
	if errs.Error() != "/file2.go: error2" {
		t.Errorf("Single error message = %q", errs.Error())
	}

	errs.Add("/file1.go", fmt.Errorf("error1"))
	if errMsg := errs.Error(); errMsg != "2 files failed to process (first: /file2.go: error2)" {
		t.Errorf("Multiple error message = %q", errMsg)
	}

	sorted := errs.Sorted()
	if sorted[0].Path != "/file1.go" || sorted[1].Path != "/file2.go" {
		t.Errorf("Sorted() = %v", sorted)
	}
}

func TestProcessingErrors_ThreadSafe(t *testing.T) {
	errs := &ProcessingErrors{}
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs.Add(fmt.Sprintf("/file%d.go", n), fmt.Errorf("error %d", n))
		}(i)
	}
	wg.Wait()

	if len(errs.Errors) != 100 {
		t.Errorf("Expected 100 errors, got %d", len(errs.Errors))
	}
}
