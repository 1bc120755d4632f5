// Package cleaner finds and removes stale temporary and cache files.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

type Options struct {
	// Workers bounds how many targets are walked at once.
	Workers int
	Logger  *slog.Logger
}

type Cleaner struct {
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

func New(opts Options) *Cleaner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cleaner{workers: opts.Workers, logger: opts.Logger, now: time.Now}
}

// File is a removal candidate.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// TargetResult is what a scan found for one target.
type TargetResult struct {
	Target Target
	Files  []File
	Bytes  int64
	// Skipped counts entries that could not be read.
	Skipped int
}

type ScanResult struct {
	Targets    []TargetResult
	TotalFiles int
	TotalBytes int64
}

func (r ScanResult) String() string {
	return fmt.Sprintf("%d files, %s", r.TotalFiles, humanize.IBytes(uint64(r.TotalBytes)))
}

type CleanResult struct {
	DryRun       bool
	FilesDeleted int
	BytesFreed   int64
	Failed       int
	Errors       []error
}

func (r CleanResult) String() string {
	verb := "freed"
	if r.DryRun {
		verb = "would free"
	}
	s := fmt.Sprintf("%d files, %s %s", r.FilesDeleted, verb, humanize.IBytes(uint64(r.BytesFreed)))
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d failed", r.Failed)
	}
	return s
}

// Scan walks every target concurrently. Missing directories yield empty
// results; unreadable entries are counted and skipped. Only cancellation
// aborts the scan.
func (c *Cleaner) Scan(ctx context.Context, targets []Target) (ScanResult, error) {
	results := make([]TargetResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, t := range targets {
		g.Go(func() error {
			res, err := c.scanTarget(gctx, t)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, fmt.Errorf("cleaner: scan: %w", err)
	}

	out := ScanResult{Targets: results}
	for _, r := range results {
		out.TotalFiles += len(r.Files)
		out.TotalBytes += r.Bytes
	}
	return out, nil
}

func (c *Cleaner) scanTarget(ctx context.Context, t Target) (TargetResult, error) {
	res := TargetResult{Target: t}
	cutoff := c.now().Add(-t.MinAge)

	for _, root := range t.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipAll
				}
				res.Skipped++
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				res.Skipped++
				return nil
			}
			if info.ModTime().After(cutoff) {
				return nil
			}
			if t.OwnedOnly && !ownedByCurrentUser(info) {
				return nil
			}
			res.Files = append(res.Files, File{Path: path, Size: info.Size(), ModTime: info.ModTime()})
			res.Bytes += info.Size()
			return nil
		})
		if err != nil {
			return res, err
		}
	}
	c.logger.Debug("cleaner: scanned target", "target", t.Name, "files", len(res.Files), "bytes", res.Bytes)
	return res, nil
}

// Clean removes the files found by a scan. Files that vanished in the meantime
// are ignored; other failures are collected and do not stop the run. With
// dryRun nothing is deleted and the result reports what would have been.
func (c *Cleaner) Clean(ctx context.Context, scan ScanResult, dryRun bool) (CleanResult, error) {
	out := CleanResult{DryRun: dryRun}
	for _, tr := range scan.Targets {
		for _, f := range tr.Files {
			if err := ctx.Err(); err != nil {
				return out, fmt.Errorf("cleaner: clean: %w", err)
			}
			if dryRun {
				out.FilesDeleted++
				out.BytesFreed += f.Size
				continue
			}
			if err := os.Remove(f.Path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				out.Failed++
				out.Errors = append(out.Errors, err)
				c.logger.Warn("cleaner: remove failed", "path", f.Path, "error", err)
				continue
			}
			out.FilesDeleted++
			out.BytesFreed += f.Size
		}
	}
	return out, nil
}
