package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nuber/nuber/internal/model"
)

// ErrVerificationNotFound is returned when no pending verification matches.
var ErrVerificationNotFound = errors.New("verification not found")

// ReplaceVerification stores v and drops any earlier unverified record for
// the same target and payload.
func (r *Repository) ReplaceVerification(ctx context.Context, v *model.Verification) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM verifications
		WHERE target = $1 AND payload = $2 AND verified = FALSE
	`, string(v.Target), v.Payload)
	if err != nil {
		return fmt.Errorf("failed to clear old verifications: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO verifications (id, target, payload, key, user_id, verified, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`, v.ID, string(v.Target), v.Payload, v.Key, v.UserID, v.Verified, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}
	return nil
}

// FindVerification looks up an unverified record by target, payload and key.
func (r *Repository) FindVerification(ctx context.Context, target model.VerificationTarget, payload, key string) (*model.Verification, error) {
	query := `
		SELECT id, target, payload, key, COALESCE(user_id, ''), verified, created_at
		FROM verifications
		WHERE target = $1 AND payload = $2 AND key = $3 AND verified = FALSE
	`

	var v model.Verification
	var scannedTarget string
	err := r.pool.QueryRow(ctx, query, string(target), payload, key).Scan(
		&v.ID,
		&scannedTarget,
		&v.Payload,
		&v.Key,
		&v.UserID,
		&v.Verified,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("failed to find verification: %w", err)
	}

	v.Target = model.VerificationTarget(scannedTarget)
	return &v, nil
}

// CompleteVerification marks the verification used and the user's email
// verified in one transaction.
func (r *Repository) CompleteVerification(ctx context.Context, verificationID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `UPDATE verifications SET verified = TRUE WHERE id = $1 AND verified = FALSE`, verificationID)
	if err != nil {
		return fmt.Errorf("failed to mark verification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrVerificationNotFound
	}

	result, err = tx.Exec(ctx, `UPDATE users SET verified_email = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}
	return nil
}
