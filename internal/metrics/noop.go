package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveGraphQLRequest(time.Duration, bool) {}
func (n *NoopRecorder) IncPlaceCreated() {}
func (n *NoopRecorder) IncPlaceUpdated() {}
func (n *NoopRecorder) IncPlaceDeleted() {}
func (n *NoopRecorder) IncPlaceMutationRejected(string) {}
func (n *NoopRecorder) IncVerificationSent(string) {}
func (n *NoopRecorder) IncVerificationCompleted() {}
