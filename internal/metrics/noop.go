package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncCodeGenerated() {}

func (n *NoopRecorder) IncCodeValidation(outcome string) {}

func (n *NoopRecorder) AddCodesCleaned(count int64) {}

func (n *NoopRecorder) IncHouseholdCreated() {}

func (n *NoopRecorder) IncMemberLeft(outcome string) {}

func (n *NoopRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {}
