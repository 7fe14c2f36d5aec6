package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/core"
)

// Job is one extraction run over one document.
type Job struct {
	ID         uuid.UUID
	SourcePath string
	Profile    constants.Profile
	Status     constants.JobStatus
	Result     *core.DocumentResult
	Error      string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

type JobRepository interface {
	// Queue records a job that has not started yet.
	Queue(ctx context.Context, path string, profile constants.Profile) (Job, error)
	// Start records a job that is running now.
	Start(ctx context.Context, path string, profile constants.Profile) (Job, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Finish(ctx context.Context, id uuid.UUID, res core.DocumentResult) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Get(ctx context.Context, id uuid.UUID) (Job, error)
	// List returns the newest jobs first; limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Job, error)
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewJobRepository(db *DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *jobRepo) Queue(ctx context.Context, path string, profile constants.Profile) (Job, error) {
	return r.insert(ctx, path, profile, constants.JobStatusQueued)
}

func (r *jobRepo) Start(ctx context.Context, path string, profile constants.Profile) (Job, error) {
	return r.insert(ctx, path, profile, constants.JobStatusRunning)
}

func (r *jobRepo) insert(ctx context.Context, path string, profile constants.Profile, status constants.JobStatus) (Job, error) {
	now := r.now()
	job := Job{
		ID:         uuid.New(),
		SourcePath: path,
		Profile:    profile,
		Status:     status,
		CreatedAt:  now,
	}
	var started any
	if status == constants.JobStatusRunning {
		job.StartedAt = &now
		started = formatTime(now)
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO extract_jobs (id, source_path, profile, status, created_at, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		job.ID.String(), path, string(profile), string(status), formatTime(now), started,
	)
	if err != nil {
		r.log.Error("extract_job insert failed", "path", path, "err", err)
		return Job{}, fmt.Errorf("%w: insert job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job created", "job_id", job.ID, "path", path, "status", status)
	return job, nil
}

func (r *jobRepo) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id,
		`UPDATE extract_jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(constants.JobStatusRunning), formatTime(r.now()), id.String(),
	)
}

func (r *jobRepo) Finish(ctx context.Context, id uuid.UUID, res core.DocumentResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	err = r.update(ctx, id,
		`UPDATE extract_jobs SET status = ?, document_type = ?, total_pages = ?, processed_pages = ?,
			confidence = ?, outcome = ?, note = ?, result_json = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusDone), res.DocumentType, res.TotalPages, res.ProcessedPages,
		res.Confidence, string(res.Outcome), res.Note, string(b), formatTime(r.now()), id.String(),
	)
	if err != nil {
		return err
	}
	r.log.Info("extract_job finished (DONE)", "job_id", id, "type", res.DocumentType, "outcome", res.Outcome)
	return nil
}

func (r *jobRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	err := r.update(ctx, id,
		`UPDATE extract_jobs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusFailed), message, formatTime(r.now()), id.String(),
	)
	if err != nil {
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", id, "error", message)
	return nil
}

func (r *jobRepo) update(ctx context.Context, id uuid.UUID, q string, args ...any) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		r.log.Error("extract_job update failed", "job_id", id, "err", err)
		return fmt.Errorf("%w: update job: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return nil
}

const jobColumns = `id, source_path, profile, status, result_json, error_message, created_at, started_at, finished_at`

func (r *jobRepo) Get(ctx context.Context, id uuid.UUID) (Job, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.Rebind(
		`SELECT `+jobColumns+` FROM extract_jobs WHERE id = ?`), id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("%w: get job: %v", common.ErrDatabase, err)
	}
	return job, nil
}

func (r *jobRepo) List(ctx context.Context, limit int) ([]Job, error) {
	q := `SELECT ` + jobColumns + ` FROM extract_jobs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan job: %v", common.ErrDatabase, err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (Job, error) {
	var (
		id, path, profile, status, errMsg, created string
		result, started, finished                 sql.NullString
	)
	if err := s.Scan(&id, &path, &profile, &status, &result, &errMsg, &created, &started, &finished); err != nil {
		return Job{}, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return Job{}, fmt.Errorf("bad job id %q: %w", id, err)
	}
	job := Job{
		ID:         uid,
		SourcePath: path,
		Profile:    constants.Profile(profile),
		Status:     constants.JobStatus(status),
		Error:      errMsg,
		CreatedAt:  parseTime(created),
		StartedAt:  parseNullTime(started),
		FinishedAt: parseNullTime(finished),
	}
	if result.Valid && result.String != "" {
		var res core.DocumentResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return Job{}, fmt.Errorf("decode result for %s: %w", id, err)
		}
		job.Result = &res
	}
	return job, nil
}

// timestamps are stored as RFC3339 text so both dialects sort and scan them alike
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
