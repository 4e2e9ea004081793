package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/config"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Credential jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, sourcePhotoKey, preset string, options json.RawMessage) (*models.CredentialJob, error) {
	if options == nil {
		options = json.RawMessage("{}")
	}
	job := &models.CredentialJob{
		ID:             uuid.New(),
		SourcePhotoKey: sourcePhotoKey,
		Preset:         preset,
		Options:        options,
		Status:         models.JobStatusQueued,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO credential_jobs (id, source_photo_key, preset, options, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		job.ID, job.SourcePhotoKey, job.Preset, job.Options, job.Status,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.CredentialJob, error) {
	job := &models.CredentialJob{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, source_photo_key, preset, options, status, result_key, error_message, created_at, updated_at
		 FROM credential_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.SourcePhotoKey, &job.Preset, &job.Options, &job.Status,
		&job.ResultKey, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, status *models.JobStatus, limit, offset int) ([]models.CredentialJob, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	where := ""
	args := []interface{}{}
	argIdx := 1
	if status != nil {
		where = fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, *status)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM credential_jobs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, source_photo_key, preset, options, status, result_key, error_message, created_at, updated_at
		 FROM credential_jobs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.CredentialJob
	for rows.Next() {
		var job models.CredentialJob
		if err := rows.Scan(&job.ID, &job.SourcePhotoKey, &job.Preset, &job.Options, &job.Status,
			&job.ResultKey, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, total, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, resultKey, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE credential_jobs SET status = $1, result_key = $2, error_message = $3, updated_at = now() WHERE id = $4`,
		status, resultKey, errMsg, id)
	return err
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM credential_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job not found")
	}
	return nil
}

// --- Credential results ---

func (s *PostgresStore) CreateResult(ctx context.Context, r *models.CredentialResult) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO credential_results
		 (id, job_id, result_key, mime_type, width, height, applied_rotation, primary_face_confidence, actual_rate, actual_size_bytes, compliance_severity, warnings, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.JobID, r.ResultKey, r.MIMEType, r.Width, r.Height,
		r.AppliedRotation, r.PrimaryFaceConfidence, r.ActualRate, r.ActualSizeBytes,
		r.ComplianceSeverity, r.Warnings, r.CreatedAt)
	return err
}

func (s *PostgresStore) GetResultByJobID(ctx context.Context, jobID uuid.UUID) (*models.CredentialResult, error) {
	r := &models.CredentialResult{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_id, result_key, mime_type, width, height, applied_rotation, primary_face_confidence, actual_rate, actual_size_bytes, compliance_severity, warnings, created_at
		 FROM credential_results WHERE job_id = $1`, jobID,
	).Scan(&r.ID, &r.JobID, &r.ResultKey, &r.MIMEType, &r.Width, &r.Height,
		&r.AppliedRotation, &r.PrimaryFaceConfidence, &r.ActualRate, &r.ActualSizeBytes,
		&r.ComplianceSeverity, &r.Warnings, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}
