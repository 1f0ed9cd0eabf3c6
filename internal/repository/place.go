package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nuber/nuber/internal/model"
)

// ErrPlaceNotFound is returned when no place has the requested id.
var ErrPlaceNotFound = errors.New("place not found")

const placeColumns = `id, user_id, name, address, lat, lng, is_fav, created_at, updated_at`

// psql builds Postgres-flavoured statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CreatePlace inserts a new place into the database.
func (r *Repository) CreatePlace(ctx context.Context, place *model.Place) error {
	query := `
		INSERT INTO places (` + placeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		place.ID,
		place.UserID,
		place.Name,
		place.Address,
		place.Lat,
		place.Lng,
		place.IsFav,
		place.CreatedAt,
		place.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}

	return nil
}

// GetPlaceByID retrieves a place by its ID.
func (r *Repository) GetPlaceByID(ctx context.Context, id string) (*model.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE id = $1`

	place, err := scanPlace(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("failed to get place by ID: %w", err)
	}

	return place, nil
}

// ListPlacesByUser returns the user's places, newest first.
func (r *Repository) ListPlacesByUser(ctx context.Context, userID string) ([]*model.Place, error) {
	query := `
		SELECT ` + placeColumns + `
		FROM places
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	places := make([]*model.Place, 0)
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, place)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating places: %w", err)
	}

	return places, nil
}

// UpdatePlace writes the non-nil fields of patch to the place.
// The owner column is never part of the update.
func (r *Repository) UpdatePlace(ctx context.Context, id string, patch model.PlacePatch) error {
	query, args, err := buildPlaceUpdate(id, patch, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to build place update: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlaceNotFound
	}

	return nil
}

// DeletePlace removes a place permanently.
func (r *Repository) DeletePlace(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlaceNotFound
	}
	return nil
}

func buildPlaceUpdate(id string, patch model.PlacePatch, now time.Time) (string, []interface{}, error) {
	b := psql.Update("places")
	if patch.Name != nil {
		b = b.Set("name", *patch.Name)
	}
	if patch.Address != nil {
		b = b.Set("address", *patch.Address)
	}
	if patch.Lat != nil {
		b = b.Set("lat", *patch.Lat)
	}
	if patch.Lng != nil {
		b = b.Set("lng", *patch.Lng)
	}
	if patch.IsFav != nil {
		b = b.Set("is_fav", *patch.IsFav)
	}
	return b.Set("updated_at", now).Where(sq.Eq{"id": id}).ToSql()
}

func scanPlace(row pgx.Row) (*model.Place, error) {
	var place model.Place
	err := row.Scan(
		&place.ID,
		&place.UserID,
		&place.Name,
		&place.Address,
		&place.Lat,
		&place.Lng,
		&place.IsFav,
		&place.CreatedAt,
		&place.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &place, nil
}
