package graph

import (
	"time"

	"github.com/graph-gophers/graphql-go"

	"github.com/nuber/nuber/internal/model"
)

const greetingText = "Hey hello how are ya"

type greetingResolver struct{}

func (*greetingResolver) Text() string { return greetingText }
func (*greetingResolver) Error() bool  { return false }

// mutationResponse is the {ok, error} result every mutation returns.
type mutationResponse struct {
	ok  bool
	err *string
}

func (r *mutationResponse) Ok() bool { return r.ok }

func (r *mutationResponse) Error() *string { return r.err }

func okResponse() *mutationResponse {
	return &mutationResponse{ok: true}
}

func failResponse(msg string) *mutationResponse {
	return &mutationResponse{ok: false, err: &msg}
}

type getMyPlacesResponse struct {
	mutationResponse
	places *[]*placeResolver
}

func (r *getMyPlacesResponse) Places() *[]*placeResolver { return r.places }

type placeResolver struct {
	p *model.Place
}

func (r *placeResolver) ID() graphql.ID     { return graphql.ID(r.p.ID) }
func (r *placeResolver) Name() string       { return r.p.Name }
func (r *placeResolver) Address() string    { return r.p.Address }
func (r *placeResolver) Lat() float64       { return r.p.Lat }
func (r *placeResolver) Lng() float64       { return r.p.Lng }
func (r *placeResolver) IsFav() bool        { return r.p.IsFav }
func (r *placeResolver) UserID() graphql.ID { return graphql.ID(r.p.UserID) }
func (r *placeResolver) CreatedAt() string  { return r.p.CreatedAt.UTC().Format(time.RFC3339) }
func (r *placeResolver) UpdatedAt() string  { return r.p.UpdatedAt.UTC().Format(time.RFC3339) }
