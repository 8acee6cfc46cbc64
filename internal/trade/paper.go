package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Paper-trading policy defaults.
const (
	paperStartingBalance = 10.0
	paperCooldown        = 10 * time.Minute
	paperDailyCap        = 20.0
	paperFillRate        = 1000.0 // tokens received per MON, simulated
)

// paperState is the persisted ledger snapshot.
type paperState struct {
	Balances   map[string]float64   `json:"balances"`
	LastTrade  map[string]time.Time `json:"last_trade"`
	SpentToday map[string]float64   `json:"spent_today"`
	Day        string               `json:"day"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// PaperLedger is a development implementation of both Executor and
// BalanceGate: it simulates fills against per-persona MON balances with a
// cooldown and a daily exposure cap, optionally persisting state to disk.
type PaperLedger struct {
	mu       sync.Mutex
	state    *paperState
	filePath string // empty disables persistence
}

// NewPaperLedger loads or initializes a ledger for the given personas.
func NewPaperLedger(filePath string, personas []string) (*PaperLedger, error) {
	state, err := loadPaperState(filePath)
	if err != nil {
		return nil, err
	}
	for _, name := range personas {
		if _, ok := state.Balances[name]; !ok {
			state.Balances[name] = paperStartingBalance
		}
	}
	l := &PaperLedger{state: state, filePath: filePath}
	if err := l.save(); err != nil {
		return nil, err
	}
	return l, nil
}

// CanTrade enforces the cooldown and daily exposure cap.
func (l *PaperLedger) CanTrade(_ context.Context, persona string) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay()

	if last, ok := l.state.LastTrade[persona]; ok && time.Since(last) < paperCooldown {
		return false, fmt.Sprintf("cooldown active (%.0fs remaining)", (paperCooldown - time.Since(last)).Seconds()), nil
	}
	if l.state.SpentToday[persona] >= paperDailyCap {
		return false, fmt.Sprintf("daily exposure cap reached (%.1f MON)", paperDailyCap), nil
	}
	return true, "", nil
}

// Balance returns the persona's current MON balance.
func (l *PaperLedger) Balance(_ context.Context, persona string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balances[persona], nil
}

// Buy simulates a fill, debiting the persona's balance.
func (l *PaperLedger) Buy(_ context.Context, persona, tokenAddress string, amountIn float64) (float64, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDay()

	balance := l.state.Balances[persona]
	if amountIn > balance {
		return 0, "", fmt.Errorf("insufficient balance: have %.2f, need %.2f", balance, amountIn)
	}

	l.state.Balances[persona] = balance - amountIn
	l.state.LastTrade[persona] = time.Now()
	l.state.SpentToday[persona] += amountIn

	if err := l.save(); err != nil {
		log.Printf("[ERROR] failed to save paper ledger: %v", err)
	}

	txID := "paper-" + uuid.NewString()
	return amountIn * paperFillRate, txID, nil
}

// rollDay resets daily spend counters when the date changes. Caller holds mu.
func (l *PaperLedger) rollDay() {
	today := time.Now().Format("2006-01-02")
	if l.state.Day != today {
		l.state.Day = today
		l.state.SpentToday = make(map[string]float64)
	}
}

func (l *PaperLedger) save() error {
	if l.filePath == "" {
		return nil
	}
	l.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(l.filePath, data, 0o644)
}

// loadPaperState reads ledger state from a JSON file, returning a fresh
// state if the file doesn't exist or no path is configured.
func loadPaperState(filePath string) (*paperState, error) {
	fresh := &paperState{
		Balances:   make(map[string]float64),
		LastTrade:  make(map[string]time.Time),
		SpentToday: make(map[string]float64),
		Day:        time.Now().Format("2006-01-02"),
	}
	if filePath == "" {
		return fresh, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fresh, nil
		}
		return nil, err
	}
	state := fresh
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse paper ledger state: %w", err)
	}
	if state.Balances == nil {
		state.Balances = make(map[string]float64)
	}
	if state.LastTrade == nil {
		state.LastTrade = make(map[string]time.Time)
	}
	if state.SpentToday == nil {
		state.SpentToday = make(map[string]float64)
	}
	return state, nil
}
