// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Verification send outcomes.
const (
	SendSuccess     = "success"
	SendFailed      = "failed"
	SendRateLimited = "rate_limited"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// GraphQL execution
	ObserveGraphQLRequest(duration time.Duration, hasErrors bool)

	// Place mutations
	IncPlaceCreated()
	IncPlaceUpdated()
	IncPlaceDeleted()
	IncPlaceMutationRejected(reason string) // reason: "not_found" or "not_authorized"

	// Verification emails
	IncVerificationSent(status string)
	IncVerificationCompleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
