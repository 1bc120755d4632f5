package cleaner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/prabalesh/perftop/internal/config"
)

func writeFile(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	sort.Strings(out)
	return out
}

func TestScan_FindsOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldA := filepath.Join(dir, "a", "old.tmp")
	oldB := filepath.Join(dir, "b", "nested", "old.log")
	writeFile(t, oldA, 100, 48*time.Hour)
	writeFile(t, oldB, 50, 48*time.Hour)
	writeFile(t, filepath.Join(dir, "a", "fresh.tmp"), 10, time.Minute)

	targets := []Target{
		{Name: "a", Paths: []string{filepath.Join(dir, "a")}, MinAge: 24 * time.Hour},
		{Name: "b", Paths: []string{filepath.Join(dir, "b")}, MinAge: 24 * time.Hour},
		{Name: "missing", Paths: []string{filepath.Join(dir, "nope")}},
	}

	res, err := New(Options{Workers: 2}).Scan(context.Background(), targets)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.TotalFiles != 2 || res.TotalBytes != 150 {
		t.Errorf("totals = %d files / %d bytes, want 2 / 150", res.TotalFiles, res.TotalBytes)
	}
	if len(res.Targets) != 3 {
		t.Fatalf("got %d target results, want 3", len(res.Targets))
	}
	if diff := cmp.Diff([]string{oldA}, paths(res.Targets[0].Files)); diff != "" {
		t.Errorf("target a mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{oldB}, paths(res.Targets[1].Files)); diff != "" {
		t.Errorf("target b mismatch (-want +got):\n%s", diff)
	}
	if len(res.Targets[2].Files) != 0 {
		t.Errorf("missing directory produced files")
	}
}

func TestScan_OwnedOnlyKeepsOwnFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mine"), 1, time.Hour)

	res, err := New(Options{}).Scan(context.Background(), []Target{{Name: "tmp", Paths: []string{dir}, OwnedOnly: true}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", res.TotalFiles)
	}
}

func TestScan_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x"), 1, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Scan(ctx, []Target{{Name: "x", Paths: []string{dir}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old")
	writeFile(t, old, 64, 48*time.Hour)
	c := New(Options{})
	targets := []Target{{Name: "dir", Paths: []string{dir}, MinAge: time.Hour}}

	scan, err := c.Scan(context.Background(), targets)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	dry, err := c.Clean(context.Background(), scan, true)
	if err != nil {
		t.Fatalf("Clean dry run: %v", err)
	}
	if dry.FilesDeleted != 1 || dry.BytesFreed != 64 || !dry.DryRun {
		t.Errorf("dry run = %+v", dry)
	}
	if _, err := os.Stat(old); err != nil {
		t.Fatalf("dry run removed the file: %v", err)
	}

	got, err := c.Clean(context.Background(), scan, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got.FilesDeleted != 1 || got.BytesFreed != 64 || got.Failed != 0 {
		t.Errorf("clean = %+v", got)
	}
	if _, err := os.Stat(old); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file still present: %v", err)
	}

	// a second pass finds the file gone and skips it quietly
	again, err := c.Clean(context.Background(), scan, false)
	if err != nil || again.FilesDeleted != 0 || again.Failed != 0 {
		t.Errorf("second clean = %+v, %v", again, err)
	}
}

func TestResultStrings(t *testing.T) {
	if got := (ScanResult{TotalFiles: 3, TotalBytes: 2048}).String(); got != "3 files, 2.0 KiB" {
		t.Errorf("ScanResult.String() = %q", got)
	}
	got := CleanResult{DryRun: true, FilesDeleted: 1, BytesFreed: 1024, Failed: 2}.String()
	if got != "1 files, would free 1.0 KiB, 2 failed" {
		t.Errorf("CleanResult.String() = %q", got)
	}
}

func TestTargetsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := TargetsFromConfig(cfg); len(got) == 0 || got[0].Name != "temp" || got[0].MinAge != 24*time.Hour {
		t.Errorf("default targets = %+v", got)
	}

	cfg.Cleaner.Targets = []config.CleanerTarget{{Name: "builds", Path: "/srv/builds", MinAge: "2h"}}
	want := []Target{{Name: "builds", Paths: []string{"/srv/builds"}, MinAge: 2 * time.Hour, Risk: RiskLow}}
	if diff := cmp.Diff(want, TargetsFromConfig(cfg)); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestTargetsFromConfig_UnknownHome(t *testing.T) {
	t.Setenv("HOME", "")
	cfg := config.DefaultConfig()

	var names []string
	for _, target := range TargetsFromConfig(cfg) {
		names = append(names, target.Name)
		for _, p := range target.Paths {
			if !filepath.IsAbs(p) {
				t.Errorf("target %s has relative path %q", target.Name, p)
			}
		}
	}
	if diff := cmp.Diff([]string{"temp"}, names); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultTargets_RelativeRoots(t *testing.T) {
	if got := DefaultTargets("", "tmp", time.Hour); len(got) != 0 {
		t.Errorf("relative roots produced targets: %+v", got)
	}
	got := DefaultTargets("/home/u", "/tmp", time.Hour)
	if len(got) != 5 || got[2].Name != "trash" || got[2].Paths[0] != "/home/u/.local/share/Trash/files" {
		t.Errorf("default targets = %+v", got)
	}
}

func TestTargetsFromConfig_SkipsRelativePaths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cleaner.Targets = []config.CleanerTarget{
		{Name: "rel", Path: "build"},
		{Name: "abs", Path: "/srv/build"},
	}
	got := TargetsFromConfig(cfg)
	if len(got) != 1 || got[0].Name != "abs" {
		t.Errorf("targets = %+v", got)
	}
}
