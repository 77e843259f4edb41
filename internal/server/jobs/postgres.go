package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/dbx"
)

var withTx = dbx.WithTx

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Start(ctx context.Context, job *Job) error {
	query :=
		`INSERT INTO analysis_jobs (request_id, provider, bucket, path, file_name, source_type, status, attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		 ON CONFLICT (request_id) DO UPDATE
		 SET status = EXCLUDED.status,
		     failed_stage = NULL,
		     code = NULL,
		     backend_status = NULL,
		     compensated = FALSE,
		     attempts = analysis_jobs.attempts + 1,
		     updated_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query,
		job.RequestID, job.Provider, job.Bucket, job.Path, job.FileName, job.SourceType, string(StatusRunning))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Finish(ctx context.Context, requestID string, out Outcome) error {
	return withTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		update :=
			`UPDATE analysis_jobs
			 SET status = $2, failed_stage = $3, code = $4, backend_status = $5,
			     sha256 = COALESCE($6, sha256), compensated = $7, updated_at = now()
			 WHERE request_id = $1
			 `

		res, err := tx.ExecContext(ctx, update,
			requestID, string(out.Status), nullString(out.FailedStage), nullString(out.Code),
			nullInt(out.BackendStatus), nullString(out.SHA256), out.Compensated)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected error: %w", err)
		}
		if n == 0 {
			return common.ErrorNotFound
		}

		event :=
			`INSERT INTO analysis_job_events (request_id, status, stage, code)
			 VALUES ($1, $2, $3, $4)
			 `

		if _, err := tx.ExecContext(ctx, event,
			requestID, string(out.Status), nullString(out.FailedStage), nullString(out.Code)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return nil
	})
}

func (r *PostgresRepository) Get(ctx context.Context, requestID string) (*Job, error) {
	query :=
		`SELECT request_id, provider, bucket, path, file_name, source_type, status,
		        failed_stage, code, backend_status, sha256, compensated, attempts,
		        created_at, updated_at
		 FROM analysis_jobs
		 WHERE request_id = $1
		 `

	var (
		job                 Job
		status              string
		stage, code, digest sql.NullString
		backendStatus       sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&job.RequestID, &job.Provider, &job.Bucket, &job.Path, &job.FileName, &job.SourceType, &status,
		&stage, &code, &backendStatus, &digest, &job.Compensated, &job.Attempts,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	job.Status = Status(status)
	job.FailedStage = stage.String
	job.Code = code.String
	job.SHA256 = digest.String
	job.BackendStatus = int(backendStatus.Int64)

	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
