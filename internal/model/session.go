package model

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a lifecycle state of a debate session.
type Phase string

const (
	PhaseScoring     Phase = "SCORING"
	PhaseOpening     Phase = "OPENING"
	PhaseExchange    Phase = "EXCHANGE"
	PhaseVoting      Phase = "VOTING"
	PhaseClosed      Phase = "CLOSED"
	PhaseInterrupted Phase = "INTERRUPTED"
)

// Exchange is one transcript entry: what a persona said and its stance at
// the time of the utterance.
type Exchange struct {
	Round     int
	Persona   string
	Text      string
	Opinion   Opinion
	Timestamp time.Time
}

// DebateSession is the unit of work evaluating exactly one token, from
// scoring through trade coordination. At most one session is active
// system-wide at any instant.
type DebateSession struct {
	ID         string
	Token      *Token
	Indicators *TechnicalIndicators // nil when candle data was insufficient
	Risk       *RiskAssessment
	Scores     SubScores // shared across personas; only weights differ
	Opinions   map[string]Opinion
	Transcript []Exchange
	Round      int
	Phase      Phase
	StartedAt  time.Time
}

// NewDebateSession creates a session in the Scoring phase for one token
// snapshot. Opinions default to neutral for every persona.
func NewDebateSession(token *Token, ind *TechnicalIndicators, risk *RiskAssessment, personas []PersonaProfile) *DebateSession {
	opinions := make(map[string]Opinion, len(personas))
	for _, p := range personas {
		opinions[p.Name] = OpinionNeutral
	}
	return &DebateSession{
		ID:         uuid.NewString(),
		Token:      token,
		Indicators: ind,
		Risk:       risk,
		Opinions:   opinions,
		Phase:      PhaseScoring,
		StartedAt:  time.Now(),
	}
}

// Say appends a transcript entry carrying the persona's current stance.
func (s *DebateSession) Say(persona, text string) {
	s.Transcript = append(s.Transcript, Exchange{
		Round:     s.Round,
		Persona:   persona,
		Text:      text,
		Opinion:   s.Opinions[persona],
		Timestamp: time.Now(),
	})
}

// Decision is the final call of a completed session.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionPass Decision = "PASS"
)

// Verdict is the immutable outcome of tallying a session's final opinions.
type Verdict struct {
	Decision      Decision
	FinalOpinions map[string]Opinion
	BullishCount  int
	Confidence    float64 // 0-1, aggregate conviction of the bullish camp
}
