package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/graph-gophers/graphql-go"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/middleware"
	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/service"
)

// PlaceService is the place logic the resolvers call.
type PlaceService interface {
	AddPlace(ctx context.Context, input service.AddPlaceInput) (*model.Place, error)
	ListPlaces(ctx context.Context, userID string) ([]*model.Place, error)
	EditPlace(ctx context.Context, callerID, placeID string, patch model.PlacePatch) error
	DeletePlace(ctx context.Context, callerID, placeID string) error
}

// VerificationService is the email verification logic the resolvers call.
type VerificationService interface {
	RequestEmailVerification(ctx context.Context, userID string) error
	CompleteEmailVerification(ctx context.Context, userID, key string) error
}

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	places        PlaceService
	verifications VerificationService
	logger        *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(places PlaceService, verifications VerificationService, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{places: places, verifications: verifications, logger: logger}
}

// domainErrors are reported to clients verbatim and are not logged.
var domainErrors = []error{
	service.ErrPlaceNotFound,
	service.ErrNotAuthorized,
	service.ErrInvalidPlaceName,
	service.ErrInvalidCoordinates,
	service.ErrUserNotFound,
	service.ErrNoEmail,
	service.ErrAlreadyVerified,
	service.ErrVerificationKeyInvalid,
	service.ErrTooManyVerifications,
}

// internalErrorMessage replaces unexpected failures in responses; the detail
// goes to the log under the same request id.
const internalErrorMessage = "Something went wrong"

// result shapes a service outcome into {ok, error}. Failures never escape as
// GraphQL errors.
func (r *Resolver) result(ctx context.Context, op string, err error) *mutationResponse {
	if err == nil {
		return okResponse()
	}
	if isDomainError(err) {
		return failResponse(err.Error())
	}

	requestID := middleware.GetRequestID(ctx)
	r.logger.ErrorContext(ctx, "resolver failed",
		"operation", op,
		"request_id", requestID,
		"error", err,
	)
	if requestID == "" {
		return failResponse(internalErrorMessage)
	}
	return failResponse(internalErrorMessage + " (request " + requestID + ")")
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ============================================================================
// Query
// ============================================================================

// SayHello answers Query.sayHello.
func (r *Resolver) SayHello() *greetingResolver {
	return &greetingResolver{}
}

// GetMyPlaces answers Query.GetMyPlaces.
func (r *Resolver) GetMyPlaces(ctx context.Context) (*getMyPlacesResponse, error) {
	caller, err := auth.RequireScope(ctx, model.ScopeRead)
	if err != nil {
		return nil, err
	}

	places, err := r.places.ListPlaces(ctx, caller.UserID)
	if err != nil {
		return &getMyPlacesResponse{mutationResponse: *r.result(ctx, "GetMyPlaces", err)}, nil
	}

	out := make([]*placeResolver, len(places))
	for i, p := range places {
		out[i] = &placeResolver{p: p}
	}
	return &getMyPlacesResponse{mutationResponse: *okResponse(), places: &out}, nil
}

// ============================================================================
// Mutation
// ============================================================================

type addPlaceArgs struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
	IsFav   bool
}

// AddPlace answers Mutation.AddPlace.
func (r *Resolver) AddPlace(ctx context.Context, args addPlaceArgs) (*mutationResponse, error) {
	caller, err := auth.RequireScope(ctx, model.ScopeWrite)
	if err != nil {
		return nil, err
	}

	_, err = r.places.AddPlace(ctx, service.AddPlaceInput{
		UserID:  caller.UserID,
		Name:    args.Name,
		Address: args.Address,
		Lat:     args.Lat,
		Lng:     args.Lng,
		IsFav:   args.IsFav,
	})
	return r.result(ctx, "AddPlace", err), nil
}

type editPlaceArgs struct {
	PlaceID graphql.ID
	Name    *string
	Address *string
	Lat     *float64
	Lng     *float64
	IsFav   *bool
}

// EditPlace answers Mutation.EditPlace. Null arguments are dropped before
// the update.
func (r *Resolver) EditPlace(ctx context.Context, args editPlaceArgs) (*mutationResponse, error) {
	caller, err := auth.RequireScope(ctx, model.ScopeWrite)
	if err != nil {
		return nil, err
	}

	patch := model.PlacePatch{
		Name:    args.Name,
		Address: args.Address,
		Lat:     args.Lat,
		Lng:     args.Lng,
		IsFav:   args.IsFav,
	}
	err = r.places.EditPlace(ctx, caller.UserID, string(args.PlaceID), patch)
	return r.result(ctx, "EditPlace", err), nil
}

// DeletePlace answers Mutation.DeletePlace.
func (r *Resolver) DeletePlace(ctx context.Context, args struct{ PlaceID graphql.ID }) (*mutationResponse, error) {
	caller, err := auth.RequireScope(ctx, model.ScopeWrite)
	if err != nil {
		return nil, err
	}

	err = r.places.DeletePlace(ctx, caller.UserID, string(args.PlaceID))
	return r.result(ctx, "DeletePlace", err), nil
}

// RequestEmailVerification answers Mutation.RequestEmailVerification.
func (r *Resolver) RequestEmailVerification(ctx context.Context) (*mutationResponse, error) {
	caller, err := auth.RequireScope(ctx, model.ScopeWrite)
	if err != nil {
		return nil, err
	}

	err = r.verifications.RequestEmailVerification(ctx, caller.UserID)
	return r.result(ctx, "RequestEmailVerification", err), nil
}

// CompleteEmailVerification answers Mutation.CompleteEmailVerification.
func (r *Resolver) CompleteEmailVerification(ctx context.Context, args struct{ Key string }) (*mutationResponse, error) {
	caller, err := auth.RequireScope(ctx, model.ScopeWrite)
	if err != nil {
		return nil, err
	}

	err = r.verifications.CompleteEmailVerification(ctx, caller.UserID, args.Key)
	return r.result(ctx, "CompleteEmailVerification", err), nil
}
