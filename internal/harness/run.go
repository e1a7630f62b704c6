package harness

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/provscan/internal/util"
	"github.com/ppiankov/provscan/internal/worker"
)

// Options configures a harness run
type Options struct {
	Concurrency       int     // parallel uploads, default 1
	RequestsPerSecond float64 // per endpoint host, 0 for unlimited
}

// Harness uploads a directory of files and scores the endpoint's verdicts
type Harness struct {
	client *Client
	opts   Options
	log    *logrus.Logger
}

// New creates a harness
func New(client *Client, opts Options) *Harness {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Harness{
		client: client,
		opts:   opts,
		log:    util.Log,
	}
}

// Run uploads every regular file in dir, sorted by name, and aggregates the
// results in that order. Per-file failures are recorded as fails; an
// unreadable directory yields an empty report.
func (h *Harness) Run(ctx context.Context, dir string, expected int) (*EvalReport, error) {
	files, err := worker.ListFiles(dir)
	if err != nil {
		h.log.WithError(err).WithField("dir", dir).Warn("cannot read directory")
		return NewEvalReport(nil), nil
	}

	total := len(files)
	h.log.Infof("Analyzing %d files", total)

	var limiter *worker.Limiter
	var key string
	if h.opts.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(h.opts.RequestsPerSecond, 1)
		key, _ = worker.HostKey(h.client.Endpoint())
	}

	processor := worker.NewBatchProcessor(h.opts.Concurrency, limiter, key)
	fileResults := processor.ProcessFiles(ctx, files, func(ctx context.Context, path string) (interface{}, error) {
		return h.client.Upload(ctx, path)
	})

	results := make([]EvalResult, 0, total)
	for i, fr := range fileResults {
		name := filepath.Base(fr.Path)
		entry := h.log.WithFields(logrus.Fields{"file": name, "n": i + 1, "of": total})

		actual := LabelFail
		if fr.Error != nil {
			entry.WithError(fr.Error).Warn("analysis failed")
		} else if label, ok := fr.Value.(int); ok {
			actual = label
			entry.Infof("analysis returned %d, expected %d", actual, expected)
		}

		results = append(results, EvalResult{
			ExpectedResult: expected,
			ActualResult:   actual,
			FileName:       name,
		})
	}

	if err := ctx.Err(); err != nil {
		return NewEvalReport(results), err
	}
	return NewEvalReport(results), nil
}
