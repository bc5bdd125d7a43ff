package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
)

type submissionMarkerRepositoryImpl struct {
	db *database.DB
}

func NewSubmissionMarkerRepository(db *database.DB) leave.SubmissionMarkerRepository {
	return &submissionMarkerRepositoryImpl{db: db}
}

// Claim implements leave.SubmissionMarkerRepository. An expired marker is
// taken over in the same statement.
func (r *submissionMarkerRepositoryImpl) Claim(ctx context.Context, key string, expiresAt time.Time) (bool, error) {
	query := `
		INSERT INTO leave_submission_markers (key, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE leave_submission_markers.expires_at <= NOW()
	`
	tag, err := r.db.Exec(ctx, query, key, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to claim submission marker: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release implements leave.SubmissionMarkerRepository.
func (r *submissionMarkerRepositoryImpl) Release(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM leave_submission_markers WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to release submission marker: %w", err)
	}
	return nil
}

// PurgeExpired implements leave.SubmissionMarkerRepository.
func (r *submissionMarkerRepositoryImpl) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM leave_submission_markers WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge submission markers: %w", err)
	}
	return tag.RowsAffected(), nil
}
