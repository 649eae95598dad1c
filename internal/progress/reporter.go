// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/filmscan/scantag/internal/logger"
)

// Failure records one image that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Reporter tracks and reports batch progress, collecting per-image failures
// for the end-of-run summary.
type Reporter struct {
	mu             sync.Mutex
	total          int
	completed      int
	skipped        int
	failures       []Failure
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
	}
}

// Start initializes the progress reporter with the total number of files
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.completed = 0
	r.skipped = 0
	r.failures = nil
	r.startTime = time.Now()
	r.lastUpdateTime = time.Now()

	logger.Info("Processing %d files", total)
}

// Complete marks a file as successfully processed
func (r *Reporter) Complete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	r.updateProgress()
}

// Skip marks a file as skipped
func (r *Reporter) Skip(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.skipped++
	r.updateProgress()
}

// Error records a per-image failure
func (r *Reporter) Error(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, Failure{Path: path, Err: err})
	r.updateProgress()
}

// Failures returns the collected per-image failures in arrival order.
func (r *Reporter) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Completed returns the number of successfully processed files.
func (r *Reporter) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Finish completes the progress reporting and prints the failure summary.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := time.Since(r.startTime)

	logger.Info("Done: %d/%d files processed, %d skipped, %d failed in %s",
		r.completed, r.total, r.skipped, len(r.failures), duration.Round(time.Second))

	if r.completed == 0 && len(r.failures) == 0 {
		logger.Warn("No files were processed")
	}
	for _, f := range r.failures {
		logger.Error("%s: %v", f.Path, f.Err)
	}
}

// updateProgress updates and displays the progress
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)
	processed := r.completed + r.skipped + len(r.failures)

	if processed == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	var eta string
	if r.completed > 0 {
		timePerFile := duration / time.Duration(processed)
		remaining := timePerFile * time.Duration(r.total-processed)
		eta = remaining.Round(time.Second).String()
	} else {
		eta = "unknown"
	}

	logger.Info("Progress: %.1f%% (%d/%d, %d completed, %d skipped, %d failed) ETA: %s",
		percentage, processed, r.total, r.completed, r.skipped, len(r.failures), eta)
}
