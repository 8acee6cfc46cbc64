package debate

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenCouncil/internal/model"
	"TokenCouncil/internal/opinion"
)

// scriptedGenerator returns fixed lines and per-persona revision results.
type scriptedGenerator struct {
	revisions map[string]Revision
	speakErr  error
	speakLog  []Stage
}

func (g *scriptedGenerator) Speak(_ context.Context, req Request) (string, error) {
	g.speakLog = append(g.speakLog, req.Stage)
	if g.speakErr != nil {
		return "", g.speakErr
	}
	return string(req.Profile.Name[0]) + ": scripted line", nil
}

func (g *scriptedGenerator) Reconsider(_ context.Context, req Request) (Revision, error) {
	if rev, ok := g.revisions[req.Profile.Name]; ok {
		return rev, nil
	}
	return Revision{Changed: false, Text: "holding position"}, nil
}

func strongToken() *model.Token {
	return &model.Token{
		Address:        "0xstrong",
		Symbol:         "PUMP",
		MarketCap:      5_000_000,
		Liquidity:      1_000_000,
		Holders:        25_000,
		PriceChange24h: 22,
		CreatedAt:      time.Now().Add(-10 * 24 * time.Hour),
	}
}

func strongIndicators() *model.TechnicalIndicators {
	return &model.TechnicalIndicators{
		RSI:          62,
		Trend:        model.TrendStrongUp,
		VolumeSpike:  true,
		BuySellRatio: 2.5,
	}
}

func newTestSession(personas []model.PersonaProfile) *model.DebateSession {
	return model.NewDebateSession(strongToken(), strongIndicators(), &model.RiskAssessment{Score: 40}, personas)
}

// splitCouncil builds five personas whose thresholds straddle the weighted
// score of a strong token, producing two bulls, one bear and two neutrals.
func splitCouncil() []model.PersonaProfile {
	even := model.ScoreWeights{Holder: 0.25, Technical: 0.25, Liquidity: 0.25, Momentum: 0.25}
	// Even weights on the strong token give a weighted score of 81.25.
	return []model.PersonaProfile{
		{Name: "BullA", Weights: even, BullishThreshold: 60, BearishThreshold: 40},
		{Name: "BullB", Weights: even, BullishThreshold: 70, BearishThreshold: 45},
		{Name: "Bear", Weights: even, BullishThreshold: 95, BearishThreshold: 90},
		{Name: "NeutralA", Weights: even, BullishThreshold: 90, BearishThreshold: 40},
		{Name: "NeutralB", Weights: even, BullishThreshold: 92, BearishThreshold: 42},
	}
}

func TestRun_UnanimousShortCircuit(t *testing.T) {
	personas := opinion.DefaultCouncil()
	s := newTestSession(personas)
	c := NewCoordinator(personas, nil, rand.New(rand.NewSource(1)), nil, 3)

	verdict, err := c.Run(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, verdict)

	// The strong token makes the whole council bullish, so the exchange
	// ends in round one and the verdict is a buy.
	assert.Equal(t, model.DecisionBuy, verdict.Decision)
	assert.Equal(t, 5, verdict.BullishCount)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, model.PhaseClosed, s.Phase)
	assert.NotEmpty(t, s.Transcript, "openers must speak even in a short debate")
	assert.Greater(t, verdict.Confidence, 0.5)
}

func TestRun_RevisionsFlipNeutralsToQuorum(t *testing.T) {
	personas := splitCouncil()
	s := newTestSession(personas)
	gen := &scriptedGenerator{
		revisions: map[string]Revision{
			"NeutralA": {Changed: true, NewOpinion: model.OpinionBullish, Text: "the bulls convinced me"},
			"NeutralB": {Changed: true, NewOpinion: model.OpinionBullish, Text: "momentum is real"},
		},
	}
	c := NewCoordinator(personas, gen, rand.New(rand.NewSource(7)), nil, 3)

	verdict, err := c.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, model.DecisionBuy, verdict.Decision)
	assert.Equal(t, 4, verdict.BullishCount)
	assert.Equal(t, model.OpinionBullish, verdict.FinalOpinions["NeutralA"])
	assert.Equal(t, model.OpinionBullish, verdict.FinalOpinions["NeutralB"])
	assert.Equal(t, model.OpinionBearish, verdict.FinalOpinions["Bear"])
	assert.Contains(t, gen.speakLog, StageChallenge, "a split council must produce a challenge")
	assert.Contains(t, gen.speakLog, StageDefense)
}

func TestRun_GeneratorFailureFallsBack(t *testing.T) {
	personas := splitCouncil()
	s := newTestSession(personas)
	gen := &scriptedGenerator{speakErr: errors.New("model overloaded")}
	c := NewCoordinator(personas, gen, rand.New(rand.NewSource(3)), nil, 2)

	verdict, err := c.Run(context.Background(), s)
	require.NoError(t, err, "narrative failure must not block the debate")
	require.NotNil(t, verdict)

	for _, ex := range s.Transcript {
		assert.NotEmpty(t, ex.Text, "fallback lines must fill the transcript")
	}
}

func TestRun_InterruptedSessionHasNoVerdict(t *testing.T) {
	personas := opinion.DefaultCouncil()
	s := newTestSession(personas)
	c := NewCoordinator(personas, nil, rand.New(rand.NewSource(1)), nil, 3)

	cause := errors.New("displaced by a priority request")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	verdict, err := c.Run(ctx, s)
	assert.Nil(t, verdict)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, model.PhaseInterrupted, s.Phase)
}

func TestRun_DeterministicWithSeed(t *testing.T) {
	personas := splitCouncil()

	run := func() []model.Exchange {
		s := newTestSession(personas)
		c := NewCoordinator(personas, nil, rand.New(rand.NewSource(42)), nil, 3)
		_, err := c.Run(context.Background(), s)
		require.NoError(t, err)
		return s.Transcript
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Persona, second[i].Persona)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestRun_InvalidRevisionIsRejected(t *testing.T) {
	personas := splitCouncil()
	s := newTestSession(personas)
	gen := &scriptedGenerator{
		revisions: map[string]Revision{
			"NeutralA": {Changed: true, NewOpinion: model.Opinion("mooning"), Text: "lol"},
		},
	}
	c := NewCoordinator(personas, gen, rand.New(rand.NewSource(5)), nil, 1)

	verdict, err := c.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, model.OpinionNeutral, verdict.FinalOpinions["NeutralA"],
		"an unknown opinion value must not be accepted")
}
