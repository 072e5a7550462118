// Package batch slices every C# file under an input directory with bounded
// parallelism, a per-file deadline and a resumable checkpoint.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/apislice/internal/discover"
	"github.com/phobologic/apislice/internal/journal"
	"github.com/phobologic/apislice/internal/model"
	"github.com/phobologic/apislice/internal/ranking"
)

// Slicer slices the source of one file. *slicer.Slicer implements it.
type Slicer interface {
	SliceFile(ctx context.Context, source []byte) (*model.FileResult, error)
}

// Options configure one run.
type Options struct {
	Input   string
	Out     string
	Workers int
	Timeout time.Duration
	// Only restricts the run to identities containing this substring.
	Only   string
	Logger *zap.Logger
}

// Runner processes a directory of files.
type Runner struct {
	slicer  Slicer
	journal *journal.Journal
	opts    Options
	log     *zap.Logger
}

// New returns a Runner. Workers below 1 run one file at a time.
func New(s Slicer, j *journal.Journal, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{slicer: s, journal: j, opts: opts, log: log}
}

// Run processes every file not yet in the checkpoint. Each processed file
// ends with exactly one outcome. The error is non-nil only when the input
// cannot be listed or ctx is cancelled; the report then covers the files
// finished so far.
func (r *Runner) Run(ctx context.Context) (*model.RunReport, error) {
	report := &model.RunReport{
		RunID:   uuid.NewString(),
		Input:   r.opts.Input,
		Started: time.Now(),
	}
	log := r.log.With(zap.String("run", report.RunID))

	files, err := discover.Files(r.opts.Input)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	files = filterFiles(files, r.opts.Only)

	done, err := r.journal.Checkpoint()
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	var pending []discover.FileEntry
	for _, f := range files {
		if done[f.Identity] {
			report.Skipped++
			continue
		}
		pending = append(pending, f)
	}
	log.Info("run start",
		zap.String("input", r.opts.Input),
		zap.Int("files", len(pending)),
		zap.Int("skipped", report.Skipped),
		zap.Int("workers", r.opts.Workers))

	results := make([]*model.FileReport, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, f := range pending {
		i, f := i, f
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rep := r.processFile(gctx, log, f)
			results[i] = &rep
			return nil
		})
	}
	_ = g.Wait()

	for _, rep := range results {
		if rep != nil {
			report.Files = append(report.Files, *rep)
		}
	}
	report.Elapsed = time.Since(report.Started)
	log.Info("run end",
		zap.Int("written", report.Count(model.Written)),
		zap.Int("empty", report.Count(model.Empty)),
		zap.Int("error", report.Count(model.Failed)),
		zap.Int("timeout", report.Count(model.TimedOut)),
		zap.Duration("elapsed", report.Elapsed))
	return report, ctx.Err()
}

func filterFiles(files []discover.FileEntry, only string) []discover.FileEntry {
	if only == "" {
		return files
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.Identity
	}
	keep := make(map[string]bool)
	for _, id := range ranking.FilterByFile(ids, only) {
		keep[id] = true
	}
	var out []discover.FileEntry
	for _, f := range files {
		if keep[f.Identity] {
			out = append(out, f)
		}
	}
	return out
}

// processFile slices one file and records its outcome. A file interrupted
// by the run's own cancellation is not checkpointed, so a resumed run
// retries it.
func (r *Runner) processFile(ctx context.Context, runLog *zap.Logger, f discover.FileEntry) (rep model.FileReport) {
	start := time.Now()
	log := runLog.With(zap.String("file", f.Identity))
	rep.Identity = f.Identity

	defer func() {
		if p := recover(); p != nil {
			log.Error("file panic", zap.Any("panic", p))
			rep.Outcome = model.Failed
			rep.Reason = fmt.Sprintf("panic: %v", p)
			r.record(log, r.journal.Failure(rep.Reason, f.Identity))
		}
		rep.Duration = time.Since(start)
		if ctx.Err() == nil {
			r.record(log, r.journal.Append(journal.Finished, f.Identity))
		}
		log.Info("file done",
			zap.String("outcome", string(rep.Outcome)),
			zap.Int("slices", rep.Slices),
			zap.Duration("duration", rep.Duration))
	}()

	source, err := os.ReadFile(filepath.Join(r.opts.Input, f.Path))
	if err != nil {
		return r.fail(log, rep, "read error", err)
	}

	fctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	res, err := r.slicer.SliceFile(fctx, source)
	switch {
	case err != nil && ctx.Err() != nil:
		rep.Outcome = model.Failed
		rep.Reason = "interrupted"
		return rep
	case errors.Is(err, context.DeadlineExceeded):
		return r.timedOut(log, rep)
	case err != nil:
		return r.fail(log, rep, "parse error", err)
	}

	rep.Diagnostics = len(res.Diagnostics)
	rep.Fallbacks = res.Fallbacks()
	r.recordDiagnostics(log, f.Identity, res)

	if len(res.Slices) == 0 {
		rep.Outcome = model.Empty
		r.record(log, r.journal.Append(journal.Empty, f.Identity))
		return rep
	}

	artifacts, werr := r.writeSlices(fctx, f.Identity, res.Slices)
	if fctx.Err() != nil {
		// Deadline fired mid-write: nothing of this file may remain.
		r.record(log, removeAll(artifacts))
		if ctx.Err() != nil {
			rep.Outcome = model.Failed
			rep.Reason = "interrupted"
			return rep
		}
		return r.timedOut(log, rep)
	}
	if werr != nil {
		log.Warn("writing slices", zap.Error(werr))
	}
	if len(artifacts) == 0 {
		return r.fail(log, rep, "write error", werr)
	}

	rep.Outcome = model.Written
	rep.Slices = len(artifacts)
	rep.Artifacts = artifacts
	return rep
}

func (r *Runner) fail(log *zap.Logger, rep model.FileReport, reason string, err error) model.FileReport {
	log.Warn(reason, zap.Error(err))
	rep.Outcome = model.Failed
	rep.Reason = reason
	r.record(log, r.journal.Failure(reason, rep.Identity))
	return rep
}

func (r *Runner) timedOut(log *zap.Logger, rep model.FileReport) model.FileReport {
	log.Warn("file timed out", zap.Duration("timeout", r.opts.Timeout))
	rep.Outcome = model.TimedOut
	rep.Reason = "timeout"
	r.record(log, r.journal.Append(journal.Timeout, rep.Identity))
	return rep
}

// recordDiagnostics turns the file's diagnostics into journal lines:
// namespace-not-found once per file, and one error line per dropped slice.
func (r *Runner) recordDiagnostics(log *zap.Logger, identity string, res *model.FileResult) {
	if res.Has(model.NamespaceNotFound) {
		r.record(log, r.journal.Append(journal.NamespaceNotFound, identity))
	}
	for _, d := range res.Diagnostics {
		switch d.Kind {
		case model.SliceTooLarge:
			r.record(log, r.journal.Failure("slice too large", identity))
		case model.ReconstructFailed, model.CollectFailed:
			r.record(log, r.journal.Failure("missing slice", identity))
		case model.Unresolved, model.UnexpectedSymbol:
			log.Debug("diagnostic", zap.String("kind", string(d.Kind)), zap.String("message", d.Message), zap.Int("line", d.Line))
		}
	}
}

func (r *Runner) record(log *zap.Logger, err error) {
	if err != nil {
		log.Warn("journal write failed", zap.Error(err))
	}
}

// writeSlices writes one artifact per slice, named by identity and ordinal.
// It returns the paths written; failed writes are collected into the error.
func (r *Runner) writeSlices(ctx context.Context, identity string, slices []model.Slice) ([]string, error) {
	var (
		written []string
		errs    error
	)
	for n, s := range slices {
		if ctx.Err() != nil {
			break
		}
		path := ArtifactPath(r.opts.Out, identity, n)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := os.WriteFile(path, []byte(s.Text), 0o644); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written = append(written, path)
	}
	return written, errs
}

// ArtifactPath returns where slice n of identity is written.
func ArtifactPath(out, identity string, n int) string {
	return filepath.Join(out, filepath.FromSlash(identity)+"_"+strconv.Itoa(n)+".cs")
}

func removeAll(paths []string) error {
	var errs error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
