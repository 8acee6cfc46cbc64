package recorder

import "TokenCouncil/internal/event"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Handle(_ event.Event) {}
func (n *NoopRecorder) Close() error         { return nil }
