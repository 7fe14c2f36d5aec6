package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/core"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/repository"
)

// FileProcessor runs the pipeline for one profile.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (core.DocumentResult, error)
}

type ExtractionServer struct {
	processors     map[constants.Profile]FileProcessor
	defaultProfile constants.Profile
	jobs           repository.JobRepository
	export         *export.Service
	timeout        time.Duration
	logger         *slog.Logger
}

func NewExtractionServer(
	processors map[constants.Profile]FileProcessor,
	defaultProfile constants.Profile,
	jobs repository.JobRepository,
	exportSvc *export.Service,
	timeout time.Duration,
	logger *slog.Logger,
) *ExtractionServer {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultProfile == "" {
		defaultProfile = constants.ProfileFast
	}
	return &ExtractionServer{
		processors:     processors,
		defaultProfile: defaultProfile,
		jobs:           jobs,
		export:         exportSvc,
		timeout:        timeout,
		logger:         logger,
	}
}

// ExtractDocument runs the pipeline synchronously: {path, profile} -> {job_id, result}.
func (s *ExtractionServer) ExtractDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := strings.TrimSpace(stringField(req, "path"))
	profileStr := stringField(req, "profile")

	v := common.NewValidator().
		Field("path", path, common.Required).
		Field("profile", profileStr, common.OneOf(string(constants.ProfileFast), string(constants.ProfileThorough)))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	profile := s.defaultProfile
	if profileStr != "" {
		profile, _ = constants.ParseProfile(profileStr)
	}
	proc, ok := s.processors[profile]
	if !ok {
		return nil, common.InvalidArgumentErrorf("profile %q is not configured", profile)
	}

	ctx, reqID := common.EnsureRequestID(ctx)
	job, err := s.jobs.Start(ctx, path, profile)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	s.logger.Info("extract.document.request", "request_id", reqID, "job_id", job.ID, "path", path, "profile", profile)

	pctx, cancel := common.WithTimeout(common.WithJobID(ctx, job.ID.String()), s.timeout)
	defer cancel()
	res, err := proc.ProcessFile(pctx, path)
	if err != nil {
		if ferr := s.jobs.Fail(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			s.logger.Error("extract.document.record_failed", "job_id", job.ID, "error", ferr)
		}
		return nil, common.ToStatus(err)
	}
	if err := s.jobs.Finish(context.WithoutCancel(ctx), job.ID, res); err != nil {
		return nil, common.ToStatus(err)
	}

	result, err := toValue(res)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"job_id": structpb.NewStringValue(job.ID.String()),
		"result": result,
	}}, nil
}

// GetJob returns a stored job: {id} -> job.
func (s *ExtractionServer) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(stringField(req, "id"))
	v := common.NewValidator().Field("id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	job, err := s.jobs.Get(ctx, uuid.MustParse(id))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out, err := jobToStruct(job)
	if err != nil {
		return nil, common.InternalErrorf("encode job: %v", err)
	}
	return out, nil
}

// ExportJobs returns an XLSX summary: {limit} -> {xlsx_base64, content_type}.
func (s *ExtractionServer) ExportJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := 0
	if f, ok := req.GetFields()["limit"]; ok {
		n := f.GetNumberValue()
		if n < 0 || n != float64(int(n)) {
			return nil, common.InvalidArgumentError("limit must be a non-negative integer")
		}
		limit = int(n)
	}
	xlsx, err := s.export.ExportJobsXLSX(ctx, limit)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"xlsx_base64":  structpb.NewStringValue(base64.StdEncoding.EncodeToString(xlsx)),
		"content_type": structpb.NewStringValue("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
	}}, nil
}

func stringField(s *structpb.Struct, key string) string {
	if f, ok := s.GetFields()[key]; ok {
		return f.GetStringValue()
	}
	return ""
}

// toValue converts any JSON-serializable value into a structpb.Value.
func toValue(v any) (*structpb.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}

func jobToStruct(job repository.Job) (*structpb.Struct, error) {
	m := map[string]any{
		"id":          job.ID.String(),
		"source_path": job.SourcePath,
		"profile":     string(job.Profile),
		"status":      string(job.Status),
		"created_at":  job.CreatedAt.Format(time.RFC3339Nano),
	}
	if job.Error != "" {
		m["error"] = job.Error
	}
	if job.StartedAt != nil {
		m["started_at"] = job.StartedAt.Format(time.RFC3339Nano)
	}
	if job.FinishedAt != nil {
		m["finished_at"] = job.FinishedAt.Format(time.RFC3339Nano)
	}
	if job.Result != nil {
		rv, err := toValue(job.Result)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		m["result"] = rv.AsInterface()
	}
	return structpb.NewStruct(m)
}
