// Package batch runs a job over many inputs with bounded concurrency and a
// progress bar.
package batch

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Result is the outcome of one input. Results keep the order of the inputs.
type Result[T any] struct {
	Input string
	Value T
	Err   error
}

type Runner struct {
	maxConcurrent int
	output        io.Writer
	message       string
}

// NewRunner returns a runner doing at most maxConcurrent jobs at once. A nil
// output disables the progress bar.
func NewRunner(maxConcurrent int, output io.Writer) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{maxConcurrent: maxConcurrent, output: output, message: "Processing"}
}

func (r *Runner) SetMessage(message string) *Runner {
	r.message = message
	return r
}

func (r *Runner) progress(ctx context.Context, total int) (*mpb.Progress, *mpb.Bar) {
	if r.output == nil || total < 2 {
		return nil, nil
	}
	p := mpb.NewWithContext(ctx, mpb.WithOutput(r.output))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(r.message, decor.WC{W: len(r.message) + 1}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Name(" | "),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	return p, bar
}

// Run calls job for every input. A failed job does not stop the others; a
// cancelled ctx skips the jobs not started yet.
func Run[T any](ctx context.Context, r *Runner, inputs []string, job func(ctx context.Context, input string) (T, error)) []Result[T] {
	results := make([]Result[T], len(inputs))
	p, bar := r.progress(ctx, len(inputs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.maxConcurrent)

	for i, input := range inputs {
		results[i].Input = input
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if bar != nil {
					bar.Increment()
				}
			}()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			slog.Debug("Batch job started", "input", input)
			value, err := job(ctx, input)
			if err != nil {
				slog.Debug("Batch job failed", "input", input, "error", err)
			}
			results[i].Value, results[i].Err = value, err
		}()
	}

	wg.Wait()
	if p != nil {
		p.Wait()
	}
	return results
}

// FirstError returns the first failure of results, in input order.
func FirstError[T any](results []Result[T]) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}
