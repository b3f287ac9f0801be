// Package batch parses many files concurrently through a parser.Factory.
package batch

import (
	"context"
	"time"

	"github.com/chess99/BookDistill/internal/parser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a non-positive limit is given
const DefaultConcurrency = 4

// Outcome is the result of parsing one file. Exactly one of Result and Err is set.
type Outcome struct {
	Name     string
	Result   *parser.Result
	Err      error
	Duration time.Duration
}

// Runner parses files with bounded concurrency
type Runner struct {
	factory parser.Factory
	limit   int
	log     *zap.Logger
}

// NewRunner creates a runner. A nil logger disables logging.
func NewRunner(factory parser.Factory, limit int, log *zap.Logger) *Runner {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{factory: factory, limit: limit, log: log}
}

// ParseAll parses every file and returns outcomes in input order. A failing
// file does not stop the others; cancelling ctx does.
func (r *Runner) ParseAll(ctx context.Context, files []parser.File) []Outcome {
	outcomes := make([]Outcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for i, file := range files {
		i, file := i, file
		outcomes[i].Name = file.Name()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}

			start := time.Now()
			result, err := r.factory.ParseFile(gctx, file)
			outcomes[i].Duration = time.Since(start)
			if err != nil {
				outcomes[i].Err = err
				r.log.Debug("batch parse failed", zap.String("file", file.Name()), zap.Error(err))
				return nil
			}
			outcomes[i].Result = result
			r.log.Debug("batch parse done",
				zap.String("file", file.Name()),
				zap.Duration("took", outcomes[i].Duration))
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// Failed counts outcomes that carry an error
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
