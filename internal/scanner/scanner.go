// Package scanner walks a directory tree, inspects candidate JPEGs in
// parallel, and aggregates the results. A file that cannot be inspected is
// logged and counted; it never stops the scan.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BrunoKrugel/jpegcheck/internal/inspector"
	"github.com/BrunoKrugel/jpegcheck/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Patterns        []string
	IgnoreExtension bool
	Threshold       int
	Workers         int
	// Settle is how long a watched file must stay unchanged before it is
	// inspected.
	Settle time.Duration
}

type Scanner struct {
	opts   Options
	filter *Filter
	log    zerolog.Logger
}

// minSettleTick bounds how often pending watched files are checked.
const minSettleTick = 10 * time.Millisecond

func New(opts Options, log zerolog.Logger) (*Scanner, error) {
	if opts.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative, got %d", inspector.ErrInvalidInput, opts.Threshold)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Threshold == 0 {
		opts.Threshold = inspector.DefaultThreshold
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}

	filter, err := NewFilter(opts.Patterns)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		opts:   opts,
		filter: filter,
		log:    log,
	}, nil
}

func (s *Scanner) settleTick() time.Duration {
	return max(s.opts.Settle/2, minSettleTick)
}

// Inspect runs the inspector on one file and flattens the outcome.
func (s *Scanner) Inspect(path string) model.Result {
	opts := []inspector.Option{inspector.WithThreshold(s.opts.Threshold)}
	if s.opts.IgnoreExtension {
		opts = append(opts, inspector.IgnoreExtension())
	}

	in, err := inspector.Open(path, opts...)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("inspection failed")
		return model.Result{Path: path, Error: err.Error()}
	}

	res := in.Result()
	s.log.Debug().
		Str("path", path).
		Bool("signature", res.SignatureValid).
		Bool("terminator", res.TerminatorPresent).
		Bool("corrupt", res.Corrupt).
		Msg("inspected")

	return model.Result{
		Path:              path,
		Size:              in.Size(),
		SignatureValid:    res.SignatureValid,
		TerminatorPresent: res.TerminatorPresent,
		Corrupt:           res.Corrupt,
	}
}

// Scan inspects every candidate under root.
func (s *Scanner) Scan(ctx context.Context, root string) (*model.Summary, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w: not a directory", root, inspector.ErrInvalidInput)
	}

	candidates, err := s.candidates(ctx, root)
	if err != nil {
		return nil, err
	}

	results := make([]model.Result, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, path := range candidates {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Inspect(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := summarize(results)
	summary.ID = uuid.NewString()
	summary.Root = root
	summary.Elapsed = time.Since(start)

	s.log.Info().
		Str("scan_id", summary.ID).
		Str("root", root).
		Int("scanned", summary.Scanned).
		Int("corrupt", summary.Corrupt).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("scan finished")

	return summary, nil
}

func (s *Scanner) candidates(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			// An unreadable subdirectory is skipped, not fatal.
			s.log.Warn().Err(err).Str("path", path).Msg("walk failed")
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if s.filter.Match(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func summarize(results []model.Result) *model.Summary {
	summary := &model.Summary{
		Results:      results,
		CorruptUnits: []string{},
	}

	units := make(map[string]struct{})
	for _, r := range results {
		summary.Scanned++
		switch {
		case r.Failed():
			summary.Failed++
		case r.Corrupt:
			summary.Corrupt++
			units[r.Unit()] = struct{}{}
		}
	}

	for u := range units {
		summary.CorruptUnits = append(summary.CorruptUnits, u)
	}
	sort.Strings(summary.CorruptUnits)

	return summary
}
