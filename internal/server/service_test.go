package server

import (
	"context"
	"encoding/base64"
	"net"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/core"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/repository"
)

type stubProcessor struct {
	profile constants.Profile
}

func (s stubProcessor) ProcessFile(_ context.Context, path string) (core.DocumentResult, error) {
	if path == "/in/missing.pdf" {
		return core.DocumentResult{}, common.WrapError(common.ErrUnsupportedFormat, "load /in/missing.pdf")
	}
	return core.DocumentResult{
		DocumentType:   "invoice",
		TotalPages:     1,
		ProcessedPages: 1,
		Confidence:     0.9,
		Status:         constants.ResultStatusSuccess,
		Outcome:        constants.OutcomeComplete,
		Profile:        s.profile,
	}, nil
}

func startServer(t *testing.T) *ExtractionClient {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "server.db")}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(db.Close)
	jobs := repository.NewJobRepository(db, nil)

	procs := map[constants.Profile]FileProcessor{
		constants.ProfileFast:     stubProcessor{profile: constants.ProfileFast},
		constants.ProfileThorough: stubProcessor{profile: constants.ProfileThorough},
	}
	svc := NewExtractionServer(procs, constants.ProfileFast, jobs, export.NewService(jobs, nil), time.Minute, nil)

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterExtractionServiceServer(s, svc)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewExtractionClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExtractionServer_ExtractThenGet(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	out, err := c.ExtractDocument(ctx, mustStruct(t, map[string]any{"path": "/in/invoice.pdf", "profile": "thorough"}))
	if err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}
	res := out.GetFields()["result"].GetStructValue().AsMap()
	if res["document_type"] != "invoice" || res["confidence"] != 0.9 || res["profile"] != "thorough" {
		t.Errorf("ExtractDocument() result = %v", res)
	}
	id := out.GetFields()["job_id"].GetStringValue()

	job, err := c.GetJob(ctx, mustStruct(t, map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	m := job.AsMap()
	if m["status"] != string(constants.JobStatusDone) || m["source_path"] != "/in/invoice.pdf" {
		t.Errorf("GetJob() = %v", m)
	}
	if r, _ := m["result"].(map[string]any); r["document_type"] != "invoice" {
		t.Errorf("GetJob() result = %v", m["result"])
	}
}

func TestExtractionServer_Errors(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	tests := []struct {
		name     string
		call     func() error
		wantCode codes.Code
	}{
		{
			name: "missing path",
			call: func() error {
				_, err := c.ExtractDocument(ctx, mustStruct(t, map[string]any{}))
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "bad profile",
			call: func() error {
				_, err := c.ExtractDocument(ctx, mustStruct(t, map[string]any{"path": "/x.pdf", "profile": "turbo"}))
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "load failure",
			call: func() error {
				_, err := c.ExtractDocument(ctx, mustStruct(t, map[string]any{"path": "/in/missing.pdf"}))
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "job id not uuid",
			call: func() error {
				_, err := c.GetJob(ctx, mustStruct(t, map[string]any{"id": "nope"}))
				return err
			},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "job not found",
			call: func() error {
				_, err := c.GetJob(ctx, mustStruct(t, map[string]any{"id": "5f1f7f39-8c34-4a3c-9a55-0f1b2d6c9e11"}))
				return err
			},
			wantCode: codes.NotFound,
		},
		{
			name: "negative limit",
			call: func() error {
				_, err := c.ExportJobs(ctx, mustStruct(t, map[string]any{"limit": -1}))
				return err
			},
			wantCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("call succeeded, want error")
			}
			if got := status.Code(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v (%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestExtractionServer_ExportJobs(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	if _, err := c.ExtractDocument(ctx, mustStruct(t, map[string]any{"path": "/in/a.pdf"})); err != nil {
		t.Fatal(err)
	}
	out, err := c.ExportJobs(ctx, mustStruct(t, map[string]any{"limit": 10}))
	if err != nil {
		t.Fatalf("ExportJobs() error = %v", err)
	}
	b, err := base64.StdEncoding.DecodeString(out.GetFields()["xlsx_base64"].GetStringValue())
	if err != nil {
		t.Fatalf("xlsx_base64 is not base64: %v", err)
	}
	// xlsx is a zip archive
	if len(b) < 4 || string(b[:2]) != "PK" {
		t.Errorf("export is not an xlsx archive")
	}
}

func TestToValue(t *testing.T) {
	v, err := toValue(core.DocumentResult{DocumentType: "form"})
	if err != nil {
		t.Fatalf("toValue() error = %v", err)
	}
	if got := v.GetStructValue().GetFields()["document_type"].GetStringValue(); got != "form" {
		t.Errorf("document_type = %q, want form", got)
	}
	if _, err := toValue(func() {}); err == nil {
		t.Error("toValue(func) error = nil")
	}
}
