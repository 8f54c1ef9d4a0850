package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"squeeze/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestCollect_Ready(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	report := Collect(context.Background(), cfg)
	if len(report.Directories) != 3 {
		t.Fatalf("expected 3 directory checks, got %d", len(report.Directories))
	}
	if len(report.Binaries) != 2 {
		t.Fatalf("expected 2 binary checks, got %d", len(report.Binaries))
	}
	if !report.Ready() {
		t.Fatalf("expected ready report, got %v", report.Err())
	}
}

func TestCollect_MissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.FFmpeg.FFmpegBinary = "squeeze-missing-ffmpeg"

	report := Collect(context.Background(), cfg)
	err := report.Err()
	if err == nil {
		t.Fatal("expected failure for missing ffmpeg")
	}
	if !strings.Contains(err.Error(), "FFmpeg") {
		t.Fatalf("error should name the binary: %v", err)
	}
}

func TestCollect_MissingDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := os.RemoveAll(cfg.Paths.OutputDir); err != nil {
		t.Fatal(err)
	}

	report := Collect(context.Background(), cfg)
	if report.Ready() {
		t.Fatal("expected missing output dir to fail")
	}
	if !strings.Contains(report.Err().Error(), "Output directory") {
		t.Fatalf("unexpected error %v", report.Err())
	}
}
