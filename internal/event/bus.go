package event

import (
	"log"
	"sync"
	"time"

	"TokenCouncil/internal/model"
)

// Type identifies a session-lifecycle event.
type Type string

const (
	TypeTokenSpotted       Type = "token_spotted"
	TypeSessionStarted     Type = "session_started"
	TypePhaseChanged       Type = "phase_changed"
	TypeOpinionStated      Type = "opinion_stated"
	TypeOpinionRevised     Type = "opinion_revised"
	TypeVoteCast           Type = "vote_cast"
	TypeVerdictReached     Type = "verdict_reached"
	TypeTradeOutcome       Type = "trade_outcome"
	TypeSessionInterrupted Type = "session_interrupted"
	TypeSessionClosed      Type = "session_closed"
)

// Event is one observable step of the engine. Downstream consumers can
// reconstruct a full session from the event stream alone.
type Event struct {
	Type         Type
	SessionID    string
	TokenAddress string
	TokenSymbol  string
	Persona      string
	Text         string
	Opinion      model.Opinion
	Phase        model.Phase
	Round        int
	Verdict      *model.Verdict
	Trade        *model.TradeResult
	Timestamp    time.Time
}

// Sink consumes events. Implementations must be fast or buffer internally;
// the bus dispatch loop is shared.
type Sink interface {
	Handle(evt Event)
}

// Bus fans engine events out to sinks. Publish never blocks the engine:
// when the buffer is full the event is dropped with a warning.
type Bus struct {
	ch    chan Event
	sinks []Sink
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewBus starts a bus with the given buffer size delivering to the sinks in
// registration order.
func NewBus(buffer int, sinks ...Sink) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{
		ch:    make(chan Event, buffer),
		sinks: sinks,
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for evt := range b.ch {
		for _, s := range b.sinks {
			s.Handle(evt)
		}
	}
}

// Publish enqueues an event without blocking. A zero timestamp is stamped
// with the current time.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	select {
	case b.ch <- evt:
	default:
		log.Printf("[WARN] event bus full, dropping %s event for session %s", evt.Type, evt.SessionID)
	}
	b.mu.Unlock()
}

// Close drains remaining events and stops the dispatch loop.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()
	b.wg.Wait()
}
