package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
)

func TestNewPipeline_Profiles(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := NewPipeline(context.Background(), cfg, logger)
	if len(p.Processors) != 2 {
		t.Fatalf("len(Processors) = %d, want 2", len(p.Processors))
	}
	for _, profile := range []constants.Profile{constants.ProfileFast, constants.ProfileThorough} {
		if got := p.Processor(profile).Profile(); got != profile {
			t.Errorf("Processor(%q).Profile() = %q", profile, got)
		}
	}
	if got := p.Processor("turbo").Profile(); got != constants.ProfileFast {
		t.Errorf("Processor(unknown).Profile() = %q, want fast", got)
	}
}

func TestInitDatabase_InMemory(t *testing.T) {
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := InitDatabase(ctx, cfg, true, logger)
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer store.Close()

	job, err := store.Jobs.Start(ctx, "/docs/a.pdf", constants.ProfileFast)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got, err := store.Jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SourcePath != "/docs/a.pdf" || got.Status != constants.JobStatusRunning {
		t.Errorf("Get() = %+v", got)
	}
	if _, err := store.Export.ExportJobsXLSX(ctx, 10); err != nil {
		t.Errorf("ExportJobsXLSX() error = %v", err)
	}
}
