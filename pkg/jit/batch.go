package jit

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/execmem"
	"bpfjit/pkg/helpers"
)

// Result is the outcome of one compilation in a batch. Exactly one of Program and Err is set.
type Result struct {
	Program *CompiledProgram
	Err     error
}

// CompileAll compiles progs concurrently, at most opts.Jobs at a time. Each program gets
// its own Compiler; alloc and h must be safe for concurrent use. A failing program does not
// stop the others, its error is reported in its Result. The returned error is non-nil only
// when ctx was cancelled, in which case programs that had not started carry ctx's error.
func CompileAll(ctx context.Context, progs []bpf.Program, h helpers.Resolver, alloc execmem.Allocator, opts Options) ([]Result, error) {
	results := make([]Result, len(progs))
	if len(progs) == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(progs)))
	for i, prog := range progs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i].Err = gctx.Err()
				return gctx.Err()
			default:
			}
			p, err := NewCompiler(h, alloc, opts).Compile(prog)
			results[i] = Result{Program: p, Err: err}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		for i := range results {
			if results[i].Program == nil && results[i].Err == nil {
				results[i].Err = err
			}
		}
	}
	return results, err
}
