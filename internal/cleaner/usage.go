package cleaner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLargeFileThreshold = 10 << 20
	defaultMaxLargeFiles      = 20
	defaultTopExtensions      = 10
)

// sizeBuckets are the upper bounds of the file size distribution; the last
// bucket is open-ended.
var sizeBuckets = []struct {
	label string
	limit int64
}{
	{"< 1 MiB", 1 << 20},
	{"1-10 MiB", 10 << 20},
	{"10-100 MiB", 100 << 20},
	{"100 MiB-1 GiB", 1 << 30},
	{">= 1 GiB", -1},
}

type UsageOptions struct {
	// LargeFileThreshold is the size from which a file is listed on its own.
	LargeFileThreshold int64
	MaxLargeFiles      int
	TopExtensions      int
}

// UsageEntry is one immediate child of the scanned root.
type UsageEntry struct {
	Path    string  `json:"path"`
	Dir     bool    `json:"dir"`
	Bytes   int64   `json:"bytes"`
	Files   int     `json:"files"`
	Dirs    int     `json:"dirs"`
	Percent float64 `json:"percent"`
}

type ExtensionUsage struct {
	Ext   string `json:"ext"`
	Bytes int64  `json:"bytes"`
	Files int    `json:"files"`
}

type SizeBucket struct {
	Label string `json:"label"`
	Files int    `json:"files"`
}

// UsageReport is the result of DiskUsage.
type UsageReport struct {
	Root       string           `json:"root"`
	TotalBytes int64            `json:"total_bytes"`
	TotalFiles int              `json:"total_files"`
	TotalDirs  int              `json:"total_dirs"`
	Skipped    int              `json:"skipped"`
	Duration   time.Duration    `json:"duration"`
	Entries    []UsageEntry     `json:"entries"`
	LargeFiles []File           `json:"large_files"`
	Extensions []ExtensionUsage `json:"extensions"`
	Buckets    []SizeBucket     `json:"buckets"`
}

func (r UsageReport) String() string {
	return fmt.Sprintf("%s in %d files and %d directories", humanize.IBytes(uint64(r.TotalBytes)), r.TotalFiles, r.TotalDirs)
}

// usageTally is what one worker accumulates for one subtree.
type usageTally struct {
	bytes   int64
	files   int
	dirs    int
	skipped int
	large   []File
	exts    map[string]*ExtensionUsage
	buckets []int
}

func newUsageTally() *usageTally {
	return &usageTally{exts: make(map[string]*ExtensionUsage), buckets: make([]int, len(sizeBuckets))}
}

func (t *usageTally) addFile(path string, info fs.FileInfo, threshold int64) {
	size := info.Size()
	t.bytes += size
	t.files++

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = "(none)"
	}
	e, ok := t.exts[ext]
	if !ok {
		e = &ExtensionUsage{Ext: ext}
		t.exts[ext] = e
	}
	e.Bytes += size
	e.Files++

	for i, b := range sizeBuckets {
		if b.limit < 0 || size < b.limit {
			t.buckets[i]++
			break
		}
	}
	if size >= threshold {
		t.large = append(t.large, File{Path: path, Size: size, ModTime: info.ModTime()})
	}
}

func (t *usageTally) merge(o *usageTally) {
	t.bytes += o.bytes
	t.files += o.files
	t.dirs += o.dirs
	t.skipped += o.skipped
	t.large = append(t.large, o.large...)
	for ext, e := range o.exts {
		if cur, ok := t.exts[ext]; ok {
			cur.Bytes += e.Bytes
			cur.Files += e.Files
		} else {
			t.exts[ext] = e
		}
	}
	for i, n := range o.buckets {
		t.buckets[i] += n
	}
}

// DiskUsage measures root: the size of each immediate child, the largest
// files, the extensions using the most space and the file size distribution.
// Child directories are walked concurrently. Symbolic links are not followed
// and unreadable entries are counted as skipped.
func (c *Cleaner) DiskUsage(ctx context.Context, root string, opts UsageOptions) (UsageReport, error) {
	if opts.LargeFileThreshold <= 0 {
		opts.LargeFileThreshold = DefaultLargeFileThreshold
	}
	if opts.MaxLargeFiles <= 0 {
		opts.MaxLargeFiles = defaultMaxLargeFiles
	}
	if opts.TopExtensions <= 0 {
		opts.TopExtensions = defaultTopExtensions
	}
	start := c.now()

	info, err := os.Stat(root)
	if err != nil {
		return UsageReport{}, fmt.Errorf("cleaner: disk usage: %w", err)
	}
	if !info.IsDir() {
		t := newUsageTally()
		t.addFile(root, info, opts.LargeFileThreshold)
		entries := []UsageEntry{{Path: root, Bytes: info.Size(), Files: 1}}
		return c.usageReport(root, t, entries, opts, start), nil
	}

	children, err := os.ReadDir(root)
	if err != nil {
		return UsageReport{}, fmt.Errorf("cleaner: disk usage: %w", err)
	}

	entries := make([]UsageEntry, len(children))
	tallies := make([]*usageTally, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, d := range children {
		path := filepath.Join(root, d.Name())
		entries[i] = UsageEntry{Path: path, Dir: d.IsDir()}
		g.Go(func() error {
			t, err := c.walkUsage(gctx, path, opts.LargeFileThreshold)
			if err != nil {
				return err
			}
			tallies[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UsageReport{}, fmt.Errorf("cleaner: disk usage: %w", err)
	}

	total := newUsageTally()
	for i, t := range tallies {
		entries[i].Bytes, entries[i].Files = t.bytes, t.files
		if entries[i].Dir {
			// the child itself is counted by its own walk
			entries[i].Dirs = max(0, t.dirs-1)
		}
		total.merge(t)
	}
	return c.usageReport(root, total, entries, opts, start), nil
}

func (c *Cleaner) walkUsage(ctx context.Context, root string, threshold int64) (*usageTally, error) {
	t := newUsageTally()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			t.skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			t.dirs++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			t.skipped++
			return nil
		}
		t.addFile(path, info, threshold)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Cleaner) usageReport(root string, t *usageTally, entries []UsageEntry, opts UsageOptions, start time.Time) UsageReport {
	slices.SortFunc(entries, func(a, b UsageEntry) int {
		return cmp.Or(cmp.Compare(b.Bytes, a.Bytes), strings.Compare(a.Path, b.Path))
	})
	for i := range entries {
		if t.bytes > 0 {
			entries[i].Percent = float64(entries[i].Bytes) / float64(t.bytes) * 100
		}
	}

	slices.SortFunc(t.large, func(a, b File) int {
		return cmp.Or(cmp.Compare(b.Size, a.Size), strings.Compare(a.Path, b.Path))
	})
	if len(t.large) > opts.MaxLargeFiles {
		t.large = t.large[:opts.MaxLargeFiles]
	}

	exts := make([]ExtensionUsage, 0, len(t.exts))
	for _, e := range t.exts {
		exts = append(exts, *e)
	}
	slices.SortFunc(exts, func(a, b ExtensionUsage) int {
		return cmp.Or(cmp.Compare(b.Bytes, a.Bytes), strings.Compare(a.Ext, b.Ext))
	})
	if len(exts) > opts.TopExtensions {
		exts = exts[:opts.TopExtensions]
	}

	buckets := make([]SizeBucket, len(sizeBuckets))
	for i, b := range sizeBuckets {
		buckets[i] = SizeBucket{Label: b.label, Files: t.buckets[i]}
	}

	r := UsageReport{
		Root:       root,
		TotalBytes: t.bytes,
		TotalFiles: t.files,
		TotalDirs:  t.dirs,
		Skipped:    t.skipped,
		Duration:   c.now().Sub(start),
		Entries:    entries,
		LargeFiles: t.large,
		Extensions: exts,
		Buckets:    buckets,
	}
	c.logger.Debug("cleaner: measured disk usage", "root", root, "files", r.TotalFiles, "bytes", r.TotalBytes, "skipped", r.Skipped)
	return r
}
