// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/nuber/nuber/internal/metrics"
	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/repository"
)

const maxPlaceNameLen = 255

// Place errors. The messages are shown to API clients as-is.
var (
	ErrPlaceNotFound      = errors.New("Place not found")
	ErrNotAuthorized      = errors.New("Not authorized")
	ErrInvalidPlaceName   = errors.New("Place name must be 1 to 255 characters")
	ErrInvalidCoordinates = errors.New("Coordinates out of range")
)

// PlaceStore is the persistence a PlaceService needs.
type PlaceStore interface {
	CreatePlace(ctx context.Context, place *model.Place) error
	GetPlaceByID(ctx context.Context, id string) (*model.Place, error)
	ListPlacesByUser(ctx context.Context, userID string) ([]*model.Place, error)
	UpdatePlace(ctx context.Context, id string, patch model.PlacePatch) error
	DeletePlace(ctx context.Context, id string) error
}

// PlaceService handles place business logic.
type PlaceService struct {
	store   PlaceStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(store PlaceStore, logger *slog.Logger, recorder metrics.Recorder) *PlaceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaceService{
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// AddPlaceInput defines input for creating a place.
type AddPlaceInput struct {
	UserID  string
	Name    string
	Address string
	Lat     float64
	Lng     float64
	IsFav   bool
}

// AddPlace creates a place owned by input.UserID.
func (s *PlaceService) AddPlace(ctx context.Context, input AddPlaceInput) (*model.Place, error) {
	if !validName(input.Name) {
		return nil, ErrInvalidPlaceName
	}
	if !validCoordinates(input.Lat, input.Lng) {
		return nil, ErrInvalidCoordinates
	}

	now := time.Now().UTC()
	place := &model.Place{
		ID:        ulid.Make().String(),
		UserID:    input.UserID,
		Name:      input.Name,
		Address:   input.Address,
		Lat:       input.Lat,
		Lng:       input.Lng,
		IsFav:     input.IsFav,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePlace(ctx, place); err != nil {
		return nil, err
	}

	s.metrics.IncPlaceCreated()
	s.logger.Info("place_created", "place_id", place.ID, "user_id", place.UserID)

	return place, nil
}

// ListPlaces returns the places owned by userID.
func (s *PlaceService) ListPlaces(ctx context.Context, userID string) ([]*model.Place, error) {
	return s.store.ListPlacesByUser(ctx, userID)
}

// EditPlace applies patch to a place the caller owns. An empty patch
// succeeds without touching the store.
func (s *PlaceService) EditPlace(ctx context.Context, callerID, placeID string, patch model.PlacePatch) error {
	if _, err := s.ownedPlace(ctx, callerID, placeID); err != nil {
		return err
	}

	if patch.IsEmpty() {
		return nil
	}
	if patch.Name != nil && !validName(*patch.Name) {
		return ErrInvalidPlaceName
	}
	if (patch.Lat != nil && !validLat(*patch.Lat)) || (patch.Lng != nil && !validLng(*patch.Lng)) {
		return ErrInvalidCoordinates
	}

	if err := s.store.UpdatePlace(ctx, placeID, patch); err != nil {
		if errors.Is(err, repository.ErrPlaceNotFound) {
			return ErrPlaceNotFound
		}
		return err
	}

	s.metrics.IncPlaceUpdated()
	s.logger.Info("place_edited", "place_id", placeID, "user_id", callerID)

	return nil
}

// DeletePlace permanently removes a place the caller owns.
func (s *PlaceService) DeletePlace(ctx context.Context, callerID, placeID string) error {
	if _, err := s.ownedPlace(ctx, callerID, placeID); err != nil {
		return err
	}

	if err := s.store.DeletePlace(ctx, placeID); err != nil {
		if errors.Is(err, repository.ErrPlaceNotFound) {
			return ErrPlaceNotFound
		}
		return err
	}

	s.metrics.IncPlaceDeleted()
	s.logger.Info("place_deleted", "place_id", placeID, "user_id", callerID)

	return nil
}

// ownedPlace loads a place and checks that callerID owns it.
func (s *PlaceService) ownedPlace(ctx context.Context, callerID, placeID string) (*model.Place, error) {
	place, err := s.store.GetPlaceByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaceNotFound) {
			s.metrics.IncPlaceMutationRejected("not_found")
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("load place: %w", err)
	}

	if !place.IsOwnedBy(callerID) {
		s.metrics.IncPlaceMutationRejected("not_authorized")
		s.logger.Warn("place_access_denied", "place_id", placeID, "user_id", callerID)
		return nil, ErrNotAuthorized
	}

	return place, nil
}

// validName matches the places.name VARCHAR(255) column.
func validName(name string) bool {
	return strings.TrimSpace(name) != "" && utf8.RuneCountInString(name) <= maxPlaceNameLen
}

func validCoordinates(lat, lng float64) bool {
	return validLat(lat) && validLng(lng)
}

func validLat(lat float64) bool { return lat >= -90 && lat <= 90 }

func validLng(lng float64) bool { return lng >= -180 && lng <= 180 }
