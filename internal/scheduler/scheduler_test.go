package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenCouncil/internal/debate"
	"TokenCouncil/internal/event"
	"TokenCouncil/internal/marketdata"
	"TokenCouncil/internal/model"
	"TokenCouncil/internal/opinion"
	"TokenCouncil/internal/trade"
)

// captureSink records every event delivered by the bus.
type captureSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *captureSink) Handle(evt event.Event) {
	c.mu.Lock()
	c.events = append(c.events, evt)
	c.mu.Unlock()
}

func (c *captureSink) byType(t event.Type) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// blockingGenerator stalls debate narration for one token address until the
// session context is cancelled, so interruption can land mid-debate.
type blockingGenerator struct {
	blockAddress string
}

func (g *blockingGenerator) Speak(ctx context.Context, req debate.Request) (string, error) {
	if req.Session != nil && req.Session.Token != nil && req.Session.Token.Address == g.blockAddress {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "quick take", nil
}

func (g *blockingGenerator) Reconsider(_ context.Context, _ debate.Request) (debate.Revision, error) {
	return debate.Revision{}, nil
}

func newTestScheduler(t *testing.T, gen debate.Generator) (*Scheduler, *captureSink, *event.Bus) {
	t.Helper()
	sink := &captureSink{}
	bus := event.NewBus(1024, sink)

	personas := opinion.DefaultCouncil()
	council := debate.NewCoordinator(personas, gen, rand.New(rand.NewSource(1)), bus, 2)

	ledger, err := trade.NewPaperLedger("", []string{"Blaze", "Vector", "Whale", "Warden", "Drift"})
	require.NoError(t, err)
	trader := trade.NewCoordinator(ledger, ledger, bus, trade.Limits{})

	provider := &marketdata.MockProvider{
		Candles: marketdata.GenerateMockCandles(1.0, 30),
		Swaps:   marketdata.GenerateMockSwaps(40, 3.0),
	}
	s := NewScheduler(context.Background(), provider, council, trader, bus, Filters{})
	return s, sink, bus
}

func TestRequestAnalysis_FullSessionProducesTrades(t *testing.T) {
	s, sink, bus := newTestScheduler(t, nil)

	require.NoError(t, s.RequestAnalysis("0xstrong"))
	assert.False(t, s.Busy(), "slot must be released after the session")
	bus.Close()

	started := sink.byType(event.TypeSessionStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "0xstrong", started[0].TokenAddress)

	verdicts := sink.byType(event.TypeVerdictReached)
	require.Len(t, verdicts, 1)
	require.NotNil(t, verdicts[0].Verdict)
	// The mock token is strong enough for a unanimous buy.
	assert.Equal(t, model.DecisionBuy, verdicts[0].Verdict.Decision)

	trades := sink.byType(event.TypeTradeOutcome)
	assert.Len(t, trades, verdicts[0].Verdict.BullishCount)

	closed := sink.byType(event.TypeSessionClosed)
	assert.Len(t, closed, 1)
}

func TestRequestAnalysis_SameTokenIsNoOp(t *testing.T) {
	s, _, bus := newTestScheduler(t, &blockingGenerator{blockAddress: "0xaaa"})
	defer bus.Close()

	results := make(chan error, 1)
	go func() { results <- s.RequestAnalysis("0xaaa") }()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond, "session must acquire the slot")

	err := s.RequestAnalysis("0xaaa")
	assert.ErrorIs(t, err, ErrAlreadyAnalyzing)

	// Unblock the first session by displacing it.
	require.NoError(t, s.RequestAnalysis("0xbbb"))
	require.NoError(t, <-results)
}

func TestRequestAnalysis_PriorityInterruptsActiveSession(t *testing.T) {
	s, sink, bus := newTestScheduler(t, &blockingGenerator{blockAddress: "0xaaa"})

	first := make(chan error, 1)
	go func() { first <- s.RequestAnalysis("0xaaa") }()
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	// The priority request must cancel the stalled session and then run
	// its own to completion.
	require.NoError(t, s.RequestAnalysis("0xbbb"))
	require.NoError(t, <-first)
	assert.False(t, s.Busy())
	bus.Close()

	interrupted := sink.byType(event.TypeSessionInterrupted)
	require.Len(t, interrupted, 1)
	assert.Equal(t, "0xaaa", interrupted[0].TokenAddress)

	// The displaced session must not reach a verdict or trade.
	interruptedID := interrupted[0].SessionID
	for _, evt := range sink.byType(event.TypeVerdictReached) {
		assert.NotEqual(t, interruptedID, evt.SessionID)
	}
	for _, evt := range sink.byType(event.TypeTradeOutcome) {
		assert.NotEqual(t, interruptedID, evt.SessionID)
	}

	closed := sink.byType(event.TypeSessionClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, "0xbbb", closed[0].TokenAddress)
}

func TestScanTask_SkipsWhileBusy(t *testing.T) {
	s, _, bus := newTestScheduler(t, &blockingGenerator{blockAddress: "0xaaa"})

	done := make(chan error, 1)
	go func() { done <- s.RequestAnalysis("0xaaa") }()
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	// A scan during an active session must not start a second one.
	s.scanTask()
	assert.Equal(t, "0xaaa", func() string {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.current
	}())

	require.NoError(t, s.RequestAnalysis("0xbbb"))
	require.NoError(t, <-done)
	bus.Close()
}

func TestScanTask_FiltersCandidates(t *testing.T) {
	sink := &captureSink{}
	bus := event.NewBus(1024, sink)

	personas := opinion.DefaultCouncil()
	council := debate.NewCoordinator(personas, nil, rand.New(rand.NewSource(1)), bus, 2)
	ledger, err := trade.NewPaperLedger("", []string{"Blaze"})
	require.NoError(t, err)
	trader := trade.NewCoordinator(ledger, ledger, bus, trade.Limits{})

	thin := marketdata.GenerateMockToken("0xthin")
	thin.Liquidity = 500 // below the floor
	small := marketdata.GenerateMockToken("0xsmall")
	small.Holders = 5
	good := marketdata.GenerateMockToken("0xgood")

	provider := &marketdata.MockProvider{
		Trending: []*model.Token{thin, small, good},
		Candles:  marketdata.GenerateMockCandles(1.0, 30),
		Swaps:    marketdata.GenerateMockSwaps(40, 3.0),
	}
	s := NewScheduler(context.Background(), provider, council, trader, bus, Filters{})

	s.scanTask()
	require.Eventually(t, func() bool { return !s.Busy() }, 2*time.Second, 5*time.Millisecond,
		"the scan-started session must finish")
	bus.Close()

	spotted := sink.byType(event.TypeTokenSpotted)
	require.Len(t, spotted, 1, "only the qualifying token is spotted")
	assert.Equal(t, "0xgood", spotted[0].TokenAddress)

	started := sink.byType(event.TypeSessionStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "0xgood", started[0].TokenAddress)
}

func TestRequestAnalysis_ProviderErrorReleasesSlot(t *testing.T) {
	s, sink, bus := newTestScheduler(t, nil)
	provider := &marketdata.MockProvider{Err: errors.New("upstream down")}
	s.provider = provider

	require.NoError(t, s.RequestAnalysis("0xdead"))
	assert.False(t, s.Busy(), "a failed fetch must still release the slot")
	bus.Close()
	assert.Empty(t, sink.byType(event.TypeSessionStarted))
}
