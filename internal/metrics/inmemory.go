package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GraphQLRequests        uint64
	GraphQLErrors          uint64
	GraphQLDurationTotalNs int64

	PlacesCreated       uint64
	PlacesUpdated       uint64
	PlacesDeleted       uint64
	PlacesNotFound      uint64
	PlacesNotAuthorized uint64

	VerificationsSent        uint64
	VerificationsFailed      uint64
	VerificationsRateLimited uint64
	VerificationsCompleted   uint64
}

// InMemoryRecorder stores metrics in memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	graphqlRequests        atomic.Uint64
	graphqlErrors          atomic.Uint64
	graphqlDurationTotalNs atomic.Int64

	placesCreated       atomic.Uint64
	placesUpdated       atomic.Uint64
	placesDeleted       atomic.Uint64
	placesNotFound      atomic.Uint64
	placesNotAuthorized atomic.Uint64

	verificationsSent        atomic.Uint64
	verificationsFailed      atomic.Uint64
	verificationsRateLimited atomic.Uint64
	verificationsCompleted   atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		GraphQLRequests:          m.graphqlRequests.Load(),
		GraphQLErrors:            m.graphqlErrors.Load(),
		GraphQLDurationTotalNs:   m.graphqlDurationTotalNs.Load(),
		PlacesCreated:            m.placesCreated.Load(),
		PlacesUpdated:            m.placesUpdated.Load(),
		PlacesDeleted:            m.placesDeleted.Load(),
		PlacesNotFound:           m.placesNotFound.Load(),
		PlacesNotAuthorized:      m.placesNotAuthorized.Load(),
		VerificationsSent:        m.verificationsSent.Load(),
		VerificationsFailed:      m.verificationsFailed.Load(),
		VerificationsRateLimited: m.verificationsRateLimited.Load(),
		VerificationsCompleted:   m.verificationsCompleted.Load(),
	}
}

// ObserveGraphQLRequest records one executed GraphQL document.
func (m *InMemoryRecorder) ObserveGraphQLRequest(duration time.Duration, hasErrors bool) {
	m.graphqlRequests.Add(1)
	m.graphqlDurationTotalNs.Add(duration.Nanoseconds())
	if hasErrors {
		m.graphqlErrors.Add(1)
	}
}

// IncPlaceCreated increments the place created counter.
func (m *InMemoryRecorder) IncPlaceCreated() {
	m.placesCreated.Add(1)
}

// IncPlaceUpdated increments the place updated counter.
func (m *InMemoryRecorder) IncPlaceUpdated() {
	m.placesUpdated.Add(1)
}

// IncPlaceDeleted increments the place deleted counter.
func (m *InMemoryRecorder) IncPlaceDeleted() {
	m.placesDeleted.Add(1)
}

// IncPlaceMutationRejected counts an edit or delete refused by the ownership check.
func (m *InMemoryRecorder) IncPlaceMutationRejected(reason string) {
	switch reason {
	case "not_found":
		m.placesNotFound.Add(1)
	case "not_authorized":
		m.placesNotAuthorized.Add(1)
	}
}

// IncVerificationSent counts a verification email attempt by outcome.
func (m *InMemoryRecorder) IncVerificationSent(status string) {
	switch status {
	case SendSuccess:
		m.verificationsSent.Add(1)
	case SendFailed:
		m.verificationsFailed.Add(1)
	case SendRateLimited:
		m.verificationsRateLimited.Add(1)
	}
}

// IncVerificationCompleted counts a consumed verification key.
func (m *InMemoryRecorder) IncVerificationCompleted() {
	m.verificationsCompleted.Add(1)
}
