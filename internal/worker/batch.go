package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileHandler processes one file of a batch
type FileHandler func(ctx context.Context, path string) (interface{}, error)

// FileJob runs a handler on one file
type FileJob struct {
	index   int
	Path    string
	Handle  FileHandler
	limiter *Limiter
	key     string
}

// Execute waits for the limiter, then runs the handler
func (j *FileJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &FileResult{index: j.index, Path: j.Path, Error: err}
	}
	if j.limiter != nil {
		if err := j.limiter.Wait(ctx, j.key); err != nil {
			return &FileResult{index: j.index, Path: j.Path, Error: err}
		}
	}

	value, err := j.Handle(ctx, j.Path)
	return &FileResult{
		index: j.index,
		Path:  j.Path,
		Value: value,
		Error: err,
	}
}

// FileResult represents the result of a file job
type FileResult struct {
	index int
	Path  string
	Value interface{}
	Error error
}

// Index returns the submission position of the job
func (r *FileResult) Index() int {
	return r.index
}

// GetError returns the error from the file job
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor processes files concurrently, optionally rate limited
type BatchProcessor struct {
	concurrency int
	limiter     *Limiter
	limitKey    string
}

// NewBatchProcessor creates a new batch processor. A nil limiter disables rate limiting.
func NewBatchProcessor(concurrency int, limiter *Limiter, limitKey string) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		concurrency: concurrency,
		limiter:     limiter,
		limitKey:    limitKey,
	}
}

// ProcessFiles runs handle on every path and returns one result per path,
// in input order. Jobs not run because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string, handle FileHandler) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		job := &FileJob{
			index:   i,
			Path:    path,
			Handle:  handle,
			limiter: b.limiter,
			key:     b.limitKey,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*FileResult, len(paths))
	for _, r := range results {
		fr := r.(*FileResult)
		out[fr.index] = fr
	}
	for i := range out {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &FileResult{index: i, Path: paths[i], Error: err}
		}
	}

	return out
}

// ListFiles returns the regular files directly inside dir, sorted by name.
// Subdirectories and other non-regular entries are skipped.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}
