// Package graph exposes the application over GraphQL.
package graph

import (
	_ "embed"
	"fmt"

	"github.com/graph-gophers/graphql-go"
)

// SDL is the GraphQL schema served by the API.
//
//go:embed schema.graphql
var SDL string

// DefaultMaxDepth bounds query nesting when no limit is configured.
const DefaultMaxDepth = 10

// NewSchema parses SDL and binds it to r.
func NewSchema(r *Resolver, maxDepth int) (*graphql.Schema, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	schema, err := graphql.ParseSchema(SDL, r,
		graphql.UseStringDescriptions(),
		graphql.MaxDepth(maxDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}
