package cleaner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDiskUsage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "videos", "a.MP4"), 3<<20, time.Hour)
	writeFile(t, filepath.Join(root, "videos", "old", "b.mp4"), 1<<20, time.Hour)
	writeFile(t, filepath.Join(root, "docs", "notes.txt"), 100, time.Hour)
	writeFile(t, filepath.Join(root, "README"), 10, time.Hour)
	if err := os.Symlink(filepath.Join(root, "videos"), filepath.Join(root, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	c := New(Options{Workers: 2})
	rep, err := c.DiskUsage(context.Background(), root, UsageOptions{LargeFileThreshold: 2 << 20})
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}

	wantBytes := int64(3<<20 + 1<<20 + 100 + 10)
	if rep.TotalBytes != wantBytes || rep.TotalFiles != 4 || rep.TotalDirs != 3 {
		t.Errorf("totals = %d bytes, %d files, %d dirs", rep.TotalBytes, rep.TotalFiles, rep.TotalDirs)
	}

	type entry struct {
		Name  string
		Bytes int64
		Files int
		Dirs  int
	}
	var got []entry
	for _, e := range rep.Entries {
		got = append(got, entry{filepath.Base(e.Path), e.Bytes, e.Files, e.Dirs})
	}
	want := []entry{
		{"videos", 4 << 20, 2, 1},
		{"docs", 100, 1, 0},
		{"README", 10, 1, 0},
		{"link", 0, 0, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if p := rep.Entries[0].Percent; p < 99 || p > 100 {
		t.Errorf("videos percent = %v", p)
	}

	if len(rep.LargeFiles) != 1 || filepath.Base(rep.LargeFiles[0].Path) != "a.MP4" {
		t.Errorf("large files = %+v", rep.LargeFiles)
	}
	if rep.Extensions[0].Ext != "mp4" || rep.Extensions[0].Files != 2 {
		t.Errorf("top extension = %+v", rep.Extensions[0])
	}
	var buckets []int
	for _, b := range rep.Buckets {
		buckets = append(buckets, b.Files)
	}
	if diff := cmp.Diff([]int{2, 2, 0, 0, 0}, buckets); diff != "" {
		t.Errorf("size buckets (-want +got):\n%s", diff)
	}
}

func TestDiskUsage_Limits(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.bin", "b.iso", "c.img"} {
		writeFile(t, filepath.Join(root, name), 11<<20, time.Hour)
	}
	rep, err := New(Options{}).DiskUsage(context.Background(), root, UsageOptions{MaxLargeFiles: 2, TopExtensions: 1})
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if len(rep.LargeFiles) != 2 || len(rep.Extensions) != 1 {
		t.Errorf("limits ignored: %d large files, %d extensions", len(rep.LargeFiles), len(rep.Extensions))
	}
}

func TestDiskUsage_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.log")
	writeFile(t, path, 42, time.Hour)
	rep, err := New(Options{}).DiskUsage(context.Background(), path, UsageOptions{})
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if rep.TotalBytes != 42 || len(rep.Entries) != 1 || rep.Entries[0].Percent != 100 {
		t.Errorf("report = %+v", rep)
	}
}

func TestDiskUsage_Errors(t *testing.T) {
	c := New(Options{})
	if _, err := c.DiskUsage(context.Background(), filepath.Join(t.TempDir(), "missing"), UsageOptions{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing root error = %v", err)
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "f"), 1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.DiskUsage(ctx, root, UsageOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled scan error = %v", err)
	}
}
