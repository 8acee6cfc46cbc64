package debate

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/samber/lo"

	"TokenCouncil/internal/consensus"
	"TokenCouncil/internal/event"
	"TokenCouncil/internal/model"
	"TokenCouncil/internal/opinion"
)

const (
	// DefaultMaxRounds bounds the Exchange phase.
	DefaultMaxRounds = 3
	// RevisionProbability is the chance that one committed (non-neutral)
	// persona is offered a revision check after an exchange round.
	// Neutral personas are always offered one.
	RevisionProbability = 0.30
	// OpeningSpeakers is how many personas present their scores in the
	// Opening phase, in profile order.
	OpeningSpeakers = 3
)

// Coordinator drives one session through the phase machine
// Scoring -> Opening -> Exchange(1..max) -> Voting -> Closed.
// The RNG is injected so debates replay deterministically under test.
type Coordinator struct {
	personas  []model.PersonaProfile
	gen       Generator // nil means fallback lines only
	rng       *rand.Rand
	bus       *event.Bus
	maxRounds int
}

// NewCoordinator wires a coordinator for the given council.
func NewCoordinator(personas []model.PersonaProfile, gen Generator, rng *rand.Rand, bus *event.Bus, maxRounds int) *Coordinator {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Coordinator{
		personas:  personas,
		gen:       gen,
		rng:       rng,
		bus:       bus,
		maxRounds: maxRounds,
	}
}

// Personas returns the council profiles in speaking order.
func (c *Coordinator) Personas() []model.PersonaProfile { return c.personas }

// Run executes the debate for one session and returns the verdict. A
// cancelled context interrupts the session: the phase machine stops, an
// interrupted event is emitted, and no verdict is produced.
func (c *Coordinator) Run(ctx context.Context, s *model.DebateSession) (*model.Verdict, error) {
	// Scoring: the deterministic engine is the sole source of truth for
	// opinions; the debate only narrates its result.
	s.Scores = opinion.ScoreToken(s.Token, s.Indicators, s.Risk)
	for _, p := range c.personas {
		s.Opinions[p.Name] = opinion.Decide(p, s.Scores)
	}

	if err := c.interrupted(ctx, s); err != nil {
		return nil, err
	}
	c.setPhase(s, model.PhaseOpening)
	openers := c.personas
	if len(openers) > OpeningSpeakers {
		openers = openers[:OpeningSpeakers]
	}
	for _, p := range openers {
		if err := c.interrupted(ctx, s); err != nil {
			return nil, err
		}
		c.state(s, p, c.speak(ctx, StageOpening, p, s, ""))
	}

	c.setPhase(s, model.PhaseExchange)
	for round := 1; round <= c.maxRounds; round++ {
		if err := c.interrupted(ctx, s); err != nil {
			return nil, err
		}
		s.Round = round

		bulls, bears, neutrals := c.split(s)
		if len(bulls) == len(c.personas) || len(bears) == len(c.personas) {
			log.Printf("[INFO] council unanimous on %s, ending debate at round %d", s.Token.Symbol, round)
			break
		}

		if len(bulls) > 0 && len(bears) > 0 {
			bull := bulls[c.rng.Intn(len(bulls))]
			bear := bears[c.rng.Intn(len(bears))]
			c.state(s, bear, c.speak(ctx, StageChallenge, bear, s, bull.Name))
			if err := c.interrupted(ctx, s); err != nil {
				return nil, err
			}
			c.state(s, bull, c.speak(ctx, StageDefense, bull, s, bear.Name))
		}

		// Revision checks: every neutral persona, plus one committed
		// persona with fixed probability.
		candidates := neutrals
		committed := append(append([]model.PersonaProfile{}, bulls...), bears...)
		if len(committed) > 0 && c.rng.Float64() < RevisionProbability {
			candidates = append(candidates, committed[c.rng.Intn(len(committed))])
		}
		for _, p := range candidates {
			if err := c.interrupted(ctx, s); err != nil {
				return nil, err
			}
			c.reconsider(ctx, p, s)
		}
	}

	if err := c.interrupted(ctx, s); err != nil {
		return nil, err
	}

	// Voting: opinions are frozen; no mutation is observable after this.
	c.setPhase(s, model.PhaseVoting)
	final := make(map[string]model.Opinion, len(s.Opinions))
	for name, op := range s.Opinions {
		final[name] = op
	}
	for _, p := range c.personas {
		c.publish(event.Event{
			Type:      event.TypeVoteCast,
			SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
			Persona: p.Name, Opinion: final[p.Name], Round: s.Round,
		})
	}

	verdict := consensus.Tally(final)
	verdict.Confidence = consensus.Confidence(c.personas, s.Scores, final)
	c.publish(event.Event{
		Type:      event.TypeVerdictReached,
		SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
		Verdict: &verdict,
	})

	c.setPhase(s, model.PhaseClosed)
	return &verdict, nil
}

// interrupted transitions the session to its terminal interrupted state
// when the context has been cancelled.
func (c *Coordinator) interrupted(ctx context.Context, s *model.DebateSession) error {
	if ctx.Err() == nil {
		return nil
	}
	s.Phase = model.PhaseInterrupted
	c.publish(event.Event{
		Type:      event.TypeSessionInterrupted,
		SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
		Round: s.Round,
	})
	return context.Cause(ctx)
}

func (c *Coordinator) setPhase(s *model.DebateSession, phase model.Phase) {
	s.Phase = phase
	c.publish(event.Event{
		Type:      event.TypePhaseChanged,
		SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
		Phase: phase, Round: s.Round,
	})
}

// state logs an utterance in the transcript and announces it.
func (c *Coordinator) state(s *model.DebateSession, p model.PersonaProfile, text string) {
	s.Say(p.Name, text)
	c.publish(event.Event{
		Type:      event.TypeOpinionStated,
		SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
		Persona: p.Name, Text: text, Opinion: s.Opinions[p.Name], Round: s.Round,
	})
}

// speak requests a persona-voiced line, falling back to a canned one when
// the generator is missing or unavailable.
func (c *Coordinator) speak(ctx context.Context, stage Stage, p model.PersonaProfile, s *model.DebateSession, opponent string) string {
	req := Request{
		Stage:    stage,
		Profile:  p,
		Opinion:  s.Opinions[p.Name],
		Scores:   s.Scores,
		Opponent: opponent,
		Session:  s,
	}
	if c.gen != nil {
		text, err := c.gen.Speak(ctx, req)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			log.Printf("[WARN] narrative generator failed for %s (%s): %v, using fallback", p.Name, stage, err)
		}
	}
	return fallbackLine(req)
}

// reconsider runs the explicit revision check for one persona. The
// transcript entry is appended whether or not the opinion changed; a
// revision is accepted only when the returned opinion differs from the
// current one.
func (c *Coordinator) reconsider(ctx context.Context, p model.PersonaProfile, s *model.DebateSession) {
	req := Request{
		Stage:   StageRevision,
		Profile: p,
		Opinion: s.Opinions[p.Name],
		Scores:  s.Scores,
		Session: s,
	}
	current := s.Opinions[p.Name]

	rev := fallbackVote(req)
	if c.gen != nil {
		got, err := c.gen.Reconsider(ctx, req)
		if err != nil {
			log.Printf("[WARN] revision check failed for %s: %v, keeping %s", p.Name, err, current)
		} else {
			rev = got
			if rev.Text == "" {
				rev.Text = fallbackLine(req)
			}
		}
	}

	s.Say(p.Name, rev.Text)

	if rev.Changed && rev.NewOpinion.Valid() && rev.NewOpinion != current {
		s.Opinions[p.Name] = rev.NewOpinion
		c.publish(event.Event{
			Type:      event.TypeOpinionRevised,
			SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
			Persona: p.Name, Text: rev.Text, Opinion: rev.NewOpinion, Round: s.Round,
		})
		return
	}
	c.publish(event.Event{
		Type:      event.TypeOpinionStated,
		SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
		Persona: p.Name, Text: rev.Text, Opinion: current, Round: s.Round,
	})
}

func (c *Coordinator) split(s *model.DebateSession) (bulls, bears, neutrals []model.PersonaProfile) {
	bulls = lo.Filter(c.personas, func(p model.PersonaProfile, _ int) bool {
		return s.Opinions[p.Name] == model.OpinionBullish
	})
	bears = lo.Filter(c.personas, func(p model.PersonaProfile, _ int) bool {
		return s.Opinions[p.Name] == model.OpinionBearish
	})
	neutrals = lo.Filter(c.personas, func(p model.PersonaProfile, _ int) bool {
		return s.Opinions[p.Name] == model.OpinionNeutral
	})
	return bulls, bears, neutrals
}

func (c *Coordinator) publish(evt event.Event) {
	if c.bus != nil {
		c.bus.Publish(evt)
	}
}
