// Package batch executes schema generation for multiple input documents,
// isolating per-document failures: one broken spec never aborts its siblings.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/CeriosTesting/openapi-to-zod/internal/emitter/fetchclient"
	"github.com/CeriosTesting/openapi-to-zod/internal/emitter/k6client"
	"github.com/CeriosTesting/openapi-to-zod/internal/emitter/pwclient"
	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

// Client names the optional typed-client emitter attached to a job.
type Client string

const (
	ClientNone       Client = ""
	ClientFetch      Client = "fetch"
	ClientK6         Client = "k6"
	ClientPlaywright Client = "playwright"
)

// ParseClient validates a client name from config or flags.
func ParseClient(s string) (Client, error) {
	switch Client(strings.TrimSpace(strings.ToLower(s))) {
	case ClientNone, Client("none"):
		return ClientNone, nil
	case ClientFetch:
		return ClientFetch, nil
	case ClientK6:
		return ClientK6, nil
	case ClientPlaywright:
		return ClientPlaywright, nil
	default:
		return ClientNone, spec.NewError(spec.ConfigurationError, "batch: unknown client %q (want none, fetch, k6, or playwright)", s)
	}
}

// Job is one schema-generation unit: a generator option set plus an optional
// client emission.
type Job struct {
	Options      zodgen.Options
	Client       Client
	ClientOutput string
}

// Result records one job's outcome. Warnings are carried even on failure so
// the CLI can print everything it collected before the fatal error.
type Result struct {
	Input    string
	Output   string
	Err      error
	Warnings []string
}

// Run executes jobs with at most parallel workers (parallel < 1 runs them
// sequentially). Every job runs to completion; the returned error is an
// aggregate naming each failed input, nil when all jobs succeeded.
func Run(ctx context.Context, jobs []Job, parallel int) ([]Result, error) {
	results := make([]Result, len(jobs))
	if parallel < 1 {
		parallel = 1
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res := runOne(ctx, job)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			// Job failures are recorded, never propagated: propagation would
			// cancel the sibling jobs.
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Input)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return results, spec.NewError(spec.SchemaGenerationError,
			"batch: %d of %d inputs failed: %s", len(failed), len(jobs), strings.Join(failed, ", "))
	}
	return results, nil
}

func runOne(ctx context.Context, job Job) Result {
	res := Result{Input: job.Options.Input, Output: job.Options.Output}

	g, err := zodgen.New(ctx, job.Options)
	if err != nil {
		res.Err = err
		return res
	}
	if err := g.WriteFile(); err != nil {
		res.Warnings = g.Warnings()
		res.Err = err
		return res
	}
	res.Warnings = g.Warnings()

	if job.Client != ClientNone {
		if err := emitClient(ctx, g, job); err != nil {
			res.Err = err
		}
	}
	return res
}

func emitClient(ctx context.Context, g *zodgen.Generator, job Job) error {
	out := strings.TrimSpace(job.ClientOutput)
	if out == "" {
		return spec.NewError(spec.ConfigurationError, "batch: client %q requires a client output path for %s", job.Client, job.Options.Input)
	}
	doc, opts := g.Document(), g.Options()
	switch job.Client {
	case ClientFetch:
		_, err := fetchclient.Emit(ctx, doc, opts, fetchclient.Options{OutFile: out})
		return err
	case ClientK6:
		_, err := k6client.Emit(ctx, doc, opts, k6client.Options{OutFile: out})
		return err
	case ClientPlaywright:
		_, err := pwclient.Emit(ctx, doc, opts, pwclient.Options{OutFile: out})
		return err
	default:
		return fmt.Errorf("batch: unhandled client %q", job.Client)
	}
}
