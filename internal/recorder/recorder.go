package recorder

import "TokenCouncil/internal/event"

// Recorder persists the council's event stream for later analysis. It plugs
// into the event bus as a sink; delivery failures are logged, never
// propagated back into the engine.
type Recorder interface {
	event.Sink
	Close() error
}
