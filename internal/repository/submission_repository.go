package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

type SubmissionRepository interface {
	SaveCompleted(ctx context.Context, submission *models.Submission, variants []models.GeneratedVariant) error
	SaveFailed(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetVariants(ctx context.Context, submissionID string) ([]models.GeneratedVariant, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Submission, int, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// SaveCompleted пишет запись submission и все три варианта в одной транзакции:
// конкурентный get либо видит все четыре строки, либо ни одной.
func (r *submissionRepository) SaveCompleted(ctx context.Context, submission *models.Submission, variants []models.GeneratedVariant) error {
	if len(variants) != len(models.AllLevels()) {
		return fmt.Errorf("expected %d variants, got %d", len(models.AllLevels()), len(variants))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO submissions (id, owner_id, source_kind, sanitized_content, status, title, excerpt, read_time, tags, created_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, query,
		submission.ID,
		submission.OwnerID,
		submission.SourceKind,
		submission.SanitizedContent,
		submission.Status,
		submission.Title,
		submission.Excerpt,
		submission.ReadTime,
		pq.Array(submission.Tags),
		submission.CreatedAt,
		submission.CompletedAt,
		submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	variantQuery := `
		INSERT INTO generated_variants (submission_id, level, content, generated_at)
		VALUES ($1, $2, $3, $4)
	`

	for _, v := range variants {
		if _, err := tx.ExecContext(ctx, variantQuery, v.SubmissionID, v.Level, v.Content, v.GeneratedAt); err != nil {
			return fmt.Errorf("failed to insert variant %s: %w", v.Level, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *submissionRepository) SaveFailed(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, owner_id, source_kind, sanitized_content, status, error_code, error_message, created_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.OwnerID,
		submission.SourceKind,
		submission.SanitizedContent,
		submission.Status,
		submission.ErrorCode,
		submission.ErrorMessage,
		submission.CreatedAt,
		submission.CompletedAt,
		submission.UpdatedAt,
	)

	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `
		SELECT id, owner_id, source_kind, sanitized_content, status, title, excerpt, read_time, tags, error_code, error_message, created_at, completed_at, updated_at
		FROM submissions
		WHERE id = $1
	`

	submission := &models.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&submission.ID,
		&submission.OwnerID,
		&submission.SourceKind,
		&submission.SanitizedContent,
		&submission.Status,
		&submission.Title,
		&submission.Excerpt,
		&submission.ReadTime,
		pq.Array(&submission.Tags),
		&submission.ErrorCode,
		&submission.ErrorMessage,
		&submission.CreatedAt,
		&submission.CompletedAt,
		&submission.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return submission, err
}

func (r *submissionRepository) GetVariants(ctx context.Context, submissionID string) ([]models.GeneratedVariant, error) {
	query := `
		SELECT submission_id, level, content, generated_at
		FROM generated_variants
		WHERE submission_id = $1
		ORDER BY CASE level WHEN 'beginner' THEN 0 WHEN 'intermediate' THEN 1 ELSE 2 END
	`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []models.GeneratedVariant
	for rows.Next() {
		var v models.GeneratedVariant
		if err := rows.Scan(&v.SubmissionID, &v.Level, &v.Content, &v.GeneratedAt); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	return variants, rows.Err()
}

func (r *submissionRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Submission, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, owner_id, source_kind, status, title, excerpt, read_time, tags, error_code, error_message, created_at, completed_at, updated_at
		FROM submissions
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.SourceKind,
			&s.Status,
			&s.Title,
			&s.Excerpt,
			&s.ReadTime,
			pq.Array(&s.Tags),
			&s.ErrorCode,
			&s.ErrorMessage,
			&s.CreatedAt,
			&s.CompletedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, s)
	}

	return submissions, total, rows.Err()
}

func (r *submissionRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
