package debate

import (
	"context"

	"TokenCouncil/internal/model"
)

// Stage identifies what kind of utterance is being requested.
type Stage string

const (
	StageOpening   Stage = "opening"
	StageChallenge Stage = "challenge"
	StageDefense   Stage = "defense"
	StageRevision  Stage = "revision"
)

// Request carries everything a narrative backend needs to voice one persona.
type Request struct {
	Stage    Stage
	Profile  model.PersonaProfile
	Opinion  model.Opinion
	Scores   model.SubScores
	Opponent string // persona being addressed; challenge/defense only
	Session  *model.DebateSession
}

// Revision is the outcome of an explicit opinion-revision check. This is
// the only path through which narrative output may change an opinion.
type Revision struct {
	Changed    bool
	NewOpinion model.Opinion
	Text       string
}

// Generator produces persona-voiced commentary. Implementations may fail at
// any time; the coordinator substitutes deterministic fallback lines and a
// narrative failure never blocks scoring, voting, or trading.
type Generator interface {
	Speak(ctx context.Context, req Request) (string, error)
	Reconsider(ctx context.Context, req Request) (Revision, error)
}
