package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/core"
	"github.com/joseph-ayodele/docintel/internal/repository"
)

func TestService_ExportJobsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "export.db")}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	jobs := repository.NewJobRepository(db, nil)

	done, err := jobs.Start(ctx, "/in/invoice.pdf", constants.ProfileFast)
	if err != nil {
		t.Fatal(err)
	}
	if err := jobs.Finish(ctx, done.ID, core.DocumentResult{
		DocumentType:   "invoice",
		TotalPages:     5,
		ProcessedPages: 3,
		Confidence:     0.9,
		Outcome:        constants.OutcomeComplete,
		Note:           "Fast mode - first 3 pages only",
	}); err != nil {
		t.Fatal(err)
	}
	failed, err := jobs.Start(ctx, "/in/broken.pdf", constants.ProfileFast)
	if err != nil {
		t.Fatal(err)
	}
	if err := jobs.Fail(ctx, failed.ID, "pdftoppm: exit status 1"); err != nil {
		t.Fatal(err)
	}

	b, err := NewService(jobs, nil).ExportJobsXLSX(ctx, 0)
	if err != nil {
		t.Fatalf("ExportJobsXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Job ID" || rows[0][4] != "Document Type" {
		t.Errorf("header = %v", rows[0])
	}

	byPath := map[string][]string{}
	for _, r := range rows[1:] {
		byPath[r[1]] = r
	}
	inv := byPath["/in/invoice.pdf"]
	if len(inv) < 10 || inv[3] != "DONE" || inv[4] != "invoice" || inv[5] != "5" || inv[6] != "3" || inv[7] != "0.9" {
		t.Errorf("invoice row = %v", inv)
	}
	bad := byPath["/in/broken.pdf"]
	if len(bad) < 11 || bad[3] != "FAILED" || bad[10] != "pdftoppm: exit status 1" {
		t.Errorf("failed row = %v", bad)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 4, "abc…"},
		{"ééééé", 3, "éé…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
