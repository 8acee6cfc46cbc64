package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"TokenCouncil/internal/debate"
	"TokenCouncil/internal/event"
	"TokenCouncil/internal/marketdata"
	"TokenCouncil/internal/model"
	"TokenCouncil/internal/risk"
	"TokenCouncil/internal/technical"
	"TokenCouncil/internal/trade"
)

var (
	// ErrAlreadyAnalyzing is returned when a priority request names the
	// token currently under analysis. Not an interruption.
	ErrAlreadyAnalyzing = errors.New("token already being analyzed")
	// ErrInterrupted is the cancellation cause carried into a session
	// that was displaced by a priority request.
	ErrInterrupted = errors.New("analysis interrupted by priority request")
	// ErrBusy is returned when a priority request loses the session slot
	// to a concurrent priority request.
	ErrBusy = errors.New("another analysis holds the session slot")
)

// Filters gate which scanned tokens become candidates.
type Filters struct {
	MinLiquidity  float64
	MinHolders    int
	Cooldown      time.Duration // per-token re-analysis spacing
	TrendingLimit int
	SwapLimit     int
	CandleLimit   int
}

func (f *Filters) applyDefaults() {
	if f.MinLiquidity <= 0 {
		f.MinLiquidity = 10_000
	}
	if f.MinHolders <= 0 {
		f.MinHolders = 50
	}
	if f.Cooldown <= 0 {
		f.Cooldown = time.Hour
	}
	if f.TrendingLimit <= 0 {
		f.TrendingLimit = 20
	}
	if f.SwapLimit <= 0 {
		f.SwapLimit = 50
	}
	if f.CandleLimit <= 0 {
		f.CandleLimit = 60
	}
}

// Scheduler runs the top-level analysis loop: it discovers candidates on a
// cron tick, enforces one session at a time through the busy slot, and
// supports priority interruption for externally requested tokens. The busy
// slot is the engine's only mutable shared state and is released on every
// exit path, panics included.
type Scheduler struct {
	cron     *cron.Cron
	provider marketdata.Provider
	debate   *debate.Coordinator
	trader   *trade.Coordinator
	bus      *event.Bus
	filters  Filters
	rootCtx  context.Context

	mu         sync.Mutex
	busy       bool
	current    string
	sessionCtx context.Context
	cancel     context.CancelCauseFunc
	done       chan struct{}
	pending    int // outstanding priority requests; passive scans hold off
	seen       map[string]time.Time
}

// NewScheduler wires the scheduler. The provider is expected to be the
// cache-wrapped one; nothing here bypasses its rate limit.
func NewScheduler(ctx context.Context, provider marketdata.Provider, dc *debate.Coordinator, tc *trade.Coordinator, bus *event.Bus, filters Filters) *Scheduler {
	filters.applyDefaults()
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		provider: provider,
		debate:   dc,
		trader:   tc,
		bus:      bus,
		filters:  filters,
		rootCtx:  ctx,
		seen:     make(map[string]time.Time),
	}
}

// RegisterScan schedules the passive discovery task.
func (s *Scheduler) RegisterScan(scanCron string) error {
	if _, err := s.cron.AddFunc(scanCron, s.scanTask); err != nil {
		return err
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// Busy reports whether a session currently holds the slot.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// RequestAnalysis runs a priority analysis of the given token, interrupting
// any active session first. It blocks until the requested session finishes
// (callers wanting async behavior run it in a goroutine). Requesting the
// token already under analysis is a no-op reported as ErrAlreadyAnalyzing.
func (s *Scheduler) RequestAnalysis(address string) error {
	s.mu.Lock()
	if s.busy && s.current == address {
		s.mu.Unlock()
		return ErrAlreadyAnalyzing
	}
	s.pending++
	var active chan struct{}
	if s.busy {
		log.Printf("[INFO] interrupting session on %s for priority request %s", s.current, address)
		s.cancel(ErrInterrupted)
		active = s.done
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	if active != nil {
		<-active
	}
	if !s.acquire(address) {
		return ErrBusy
	}
	s.runSession(address)
	return nil
}

// scanTask is the passive discovery path. Resource contention is not an
// error: when a session is active the scan simply skips until the next tick.
func (s *Scheduler) scanTask() {
	s.mu.Lock()
	skip := s.busy || s.pending > 0
	s.mu.Unlock()
	if skip {
		log.Println("[INFO] scan skipped: session slot occupied")
		return
	}

	ctx, cancel := context.WithTimeout(s.rootCtx, 30*time.Second)
	tokens, err := s.provider.FetchTrending(ctx, s.filters.TrendingLimit)
	cancel()
	if err != nil {
		log.Printf("[WARN] trending fetch failed: %v", err)
		return
	}

	for _, t := range tokens {
		if !s.candidate(t) {
			continue
		}
		s.publish(event.Event{
			Type:         event.TypeTokenSpotted,
			TokenAddress: t.Address,
			TokenSymbol:  t.Symbol,
		})
		if !s.acquire(t.Address) {
			return // lost the slot meanwhile; passive path yields
		}
		go s.runSession(t.Address)
		return
	}
}

// candidate applies the discovery filters.
func (s *Scheduler) candidate(t *model.Token) bool {
	if t.Liquidity < s.filters.MinLiquidity || t.Holders < s.filters.MinHolders {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.seen[t.Address]; ok && time.Since(last) < s.filters.Cooldown {
		return false
	}
	return true
}

// acquire takes the busy slot. Returns false if a session is active.
func (s *Scheduler) acquire(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	ctx, cancel := context.WithCancelCause(s.rootCtx)
	s.busy = true
	s.current = address
	s.sessionCtx = ctx
	s.cancel = cancel
	s.done = make(chan struct{})
	s.seen[address] = time.Now()
	return true
}

// release clears the busy slot and wakes waiters.
func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.current = ""
	if s.cancel != nil {
		s.cancel(nil)
		s.cancel = nil
	}
	close(s.done)
}

// runSession executes the full pipeline for one token. The busy slot is
// released on every exit path so a crashed session can never wedge the
// scheduler.
func (s *Scheduler) runSession(address string) {
	s.mu.Lock()
	ctx := s.sessionCtx
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] session panic on %s: %v", address, r)
		}
		s.release()
	}()

	token, err := s.provider.FetchToken(ctx, address)
	if err != nil {
		log.Printf("[ERROR] fetch token %s: %v", address, err)
		return
	}

	swaps, err := s.provider.FetchSwapHistory(ctx, address, s.filters.SwapLimit)
	if err != nil {
		log.Printf("[WARN] swap history unavailable for %s: %v", token.Symbol, err)
		swaps = nil
	}
	candles, err := s.provider.FetchCandles(ctx, address, s.filters.CandleLimit)
	if err != nil {
		log.Printf("[WARN] candles unavailable for %s: %v", token.Symbol, err)
		candles = nil
	}

	ind, err := technical.Analyze(candles, swaps)
	if err != nil {
		// Insufficient data skips technical commentary; scoring falls
		// back to the neutral midpoint for the technical component.
		log.Printf("[WARN] technical analysis skipped for %s: %v", token.Symbol, err)
		ind = nil
	}
	assessment := risk.Score(token, swaps, time.Now())

	session := model.NewDebateSession(token, ind, assessment, s.debate.Personas())
	s.publish(event.Event{
		Type:      event.TypeSessionStarted,
		SessionID: session.ID, TokenAddress: token.Address, TokenSymbol: token.Symbol,
		Phase: session.Phase,
	})
	log.Printf("[INFO] session %s started: %s (%s) risk=%.0f", session.ID, token.Symbol, token.Address, assessment.Score)

	verdict, err := s.debate.Run(ctx, session)
	if err != nil {
		// Interrupted or cancelled: no verdict, zero trade intents.
		log.Printf("[INFO] session %s ended early: %v", session.ID, err)
		return
	}

	results := s.trader.Execute(ctx, session, verdict)

	s.publish(event.Event{
		Type:      event.TypeSessionClosed,
		SessionID: session.ID, TokenAddress: token.Address, TokenSymbol: token.Symbol,
		Phase: session.Phase, Verdict: verdict,
	})
	log.Printf("[INFO] session %s closed: %s verdict=%s bulls=%d trades=%d",
		session.ID, token.Symbol, verdict.Decision, verdict.BullishCount, len(results))
}

func (s *Scheduler) publish(evt event.Event) {
	if s.bus != nil {
		s.bus.Publish(evt)
	}
}
