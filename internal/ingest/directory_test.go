package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) string {
	root := t.TempDir()
	for _, p := range []string{
		"b.pdf",
		"a.PNG",
		"notes.txt",
		"sub/c.tiff",
		".hidden/d.pdf",
		".e.jpg",
	} {
		touch(t, filepath.Join(root, p))
	}
	return root
}

func TestScanDirectory(t *testing.T) {
	root := fixture(t)

	tests := []struct {
		name       string
		skipHidden bool
		want       []string
	}{
		{name: "skip hidden", skipHidden: true, want: []string{"a.PNG", "b.pdf", "sub/c.tiff"}},
		{name: "include hidden", skipHidden: false, want: []string{".e.jpg", ".hidden/d.pdf", "a.PNG", "b.pdf", "sub/c.tiff"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats, err := ScanDirectory(root, tt.skipHidden)
			if err != nil {
				t.Fatalf("ScanDirectory() error = %v", err)
			}
			rel := make([]string, 0, len(got))
			for _, p := range got {
				r, _ := filepath.Rel(root, p)
				rel = append(rel, filepath.ToSlash(r))
			}
			if !reflect.DeepEqual(rel, tt.want) {
				t.Errorf("ScanDirectory() = %v, want %v", rel, tt.want)
			}
			if int(stats.Matched) != len(tt.want) {
				t.Errorf("Matched = %d, want %d", stats.Matched, len(tt.want))
			}
		})
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	if _, _, err := ScanDirectory("  ", true); err == nil {
		t.Error("ScanDirectory(blank) error = nil")
	}
	if _, _, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), true); err == nil {
		t.Error("ScanDirectory(missing) error = nil")
	}
}

type recordingSubmitter struct {
	paths []string
	fail  string
}

func (r *recordingSubmitter) Submit(_ context.Context, path string) (uuid.UUID, error) {
	if filepath.Base(path) == r.fail {
		return uuid.Nil, errors.New("queue is shutting down")
	}
	r.paths = append(r.paths, path)
	return uuid.New(), nil
}

func TestSubmitDirectory(t *testing.T) {
	root := fixture(t)
	s := &recordingSubmitter{fail: "b.pdf"}

	results, stats, err := SubmitDirectory(context.Background(), s, root, true, nil)
	if err != nil {
		t.Fatalf("SubmitDirectory() error = %v", err)
	}
	if len(results) != 3 || stats.Submitted != 2 || stats.Failed != 1 {
		t.Errorf("results = %d, stats = %+v", len(results), stats)
	}
	for _, r := range results {
		if filepath.Base(r.Path) == "b.pdf" && r.Err == "" {
			t.Error("failed submit has no error")
		}
		if filepath.Base(r.Path) != "b.pdf" && r.JobID == uuid.Nil {
			t.Errorf("%s has no job id", r.Path)
		}
	}
}

func TestAllowedExt(t *testing.T) {
	for ext, want := range map[string]bool{".pdf": true, "JPEG": true, ".heic": true, ".txt": false, "": false} {
		if got := AllowedExt(ext); got != want {
			t.Errorf("AllowedExt(%q) = %v, want %v", ext, got, want)
		}
	}
}
