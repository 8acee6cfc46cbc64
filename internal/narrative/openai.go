package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/samber/lo"

	"TokenCouncil/internal/debate"
	"TokenCouncil/internal/model"
	"TokenCouncil/internal/opinion"
)

const (
	defaultTemperature = 0.8
	maxAttempts        = 2
	retryBackoff       = time.Second
	transcriptTail     = 8 // most recent exchanges included in the prompt
)

// OpenAIGenerator voices personas through an OpenAI-compatible
// chat-completions endpoint.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIGenerator creates a generator against the given endpoint.
func NewOpenAIGenerator(baseURL, apiKey, modelName string) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       modelName,
		temperature: defaultTemperature,
	}
}

// Speak produces one persona-voiced line of commentary.
func (g *OpenAIGenerator) Speak(ctx context.Context, req debate.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(speakPrompt(req)),
		},
		Temperature: openai.Float(g.temperature),
	}
	text, err := g.completeWithRetry(ctx, params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// revisionResult is the JSON-object shape the revision check asks for.
type revisionResult struct {
	Changed    bool   `json:"changed"`
	NewOpinion string `json:"new_opinion"`
	Text       string `json:"text"`
}

// Reconsider runs the explicit yes/no opinion-revision check.
func (g *OpenAIGenerator) Reconsider(ctx context.Context, req debate.Request) (debate.Revision, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(revisionPrompt(req)),
		},
		Temperature: openai.Float(g.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: lo.ToPtr(shared.NewResponseFormatJSONObjectParam()),
		},
	}
	raw, err := g.completeWithRetry(ctx, params)
	if err != nil {
		return debate.Revision{}, err
	}

	var result revisionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return debate.Revision{}, fmt.Errorf("parse revision response: %w", err)
	}
	newOpinion := model.Opinion(strings.ToLower(result.NewOpinion))
	if result.Changed && !newOpinion.Valid() {
		return debate.Revision{}, fmt.Errorf("revision returned unknown opinion %q", result.NewOpinion)
	}
	return debate.Revision{
		Changed:    result.Changed,
		NewOpinion: newOpinion,
		Text:       strings.TrimSpace(result.Text),
	}, nil
}

// completeWithRetry issues the completion, retrying once on transient
// failure with a short backoff.
func (g *OpenAIGenerator) completeWithRetry(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		completion, err := g.client.Chat.Completions.New(ctx, params)
		if err == nil {
			if len(completion.Choices) == 0 {
				return "", fmt.Errorf("empty completion")
			}
			return completion.Choices[0].Message.Content, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", maxAttempts, lastErr)
}

func systemPrompt(req debate.Request) string {
	return fmt.Sprintf(
		"You are %s, a crypto trading council member: %s. "+
			"Reply with a single short in-character line (max 2 sentences). "+
			"Ground every claim in the structured data you are given; never invent numbers.",
		req.Profile.Name, req.Profile.Style)
}

func speakPrompt(req debate.Request) string {
	var b strings.Builder
	writeContext(&b, req)
	switch req.Stage {
	case debate.StageOpening:
		b.WriteString("Present your opening read on this token based on your scores.\n")
	case debate.StageChallenge:
		fmt.Fprintf(&b, "Challenge %s's position. You disagree with them.\n", req.Opponent)
	case debate.StageDefense:
		fmt.Fprintf(&b, "Defend your position against %s's challenge.\n", req.Opponent)
	default:
		b.WriteString("Comment on the debate so far.\n")
	}
	return b.String()
}

func revisionPrompt(req debate.Request) string {
	var b strings.Builder
	writeContext(&b, req)
	b.WriteString("Given the arguments exchanged so far, decide whether you change your stance. ")
	b.WriteString(`Respond with a JSON object: {"changed": bool, "new_opinion": "bullish"|"bearish"|"neutral", "text": "one in-character line explaining your decision"}. `)
	b.WriteString("Set changed to true only if your stance genuinely differs from your current one.\n")
	return b.String()
}

func writeContext(b *strings.Builder, req debate.Request) {
	s := req.Session
	if s != nil && s.Token != nil {
		fmt.Fprintf(b, "Token: %s (%s) price=%.6g mcap=%.0f liquidity=%.0f holders=%d change24h=%+.1f%%\n",
			s.Token.Symbol, s.Token.Address, s.Token.Price, s.Token.MarketCap,
			s.Token.Liquidity, s.Token.Holders, s.Token.PriceChange24h)
	}
	fmt.Fprintf(b, "Your sub-scores: holder=%.0f technical=%.0f liquidity=%.0f momentum=%.0f (weighted=%.0f)\n",
		req.Scores.Holder, req.Scores.Technical, req.Scores.Liquidity, req.Scores.Momentum,
		opinion.Weighted(req.Profile, req.Scores))
	fmt.Fprintf(b, "Your current stance: %s\n", req.Opinion)
	if s != nil && s.Risk != nil && len(s.Risk.Flags) > 0 {
		fmt.Fprintf(b, "Risk: %.0f/100, flags: %s\n", s.Risk.Score, strings.Join(s.Risk.Flags, "; "))
	}
	if s != nil && len(s.Transcript) > 0 {
		b.WriteString("Recent debate:\n")
		tail := s.Transcript
		if len(tail) > transcriptTail {
			tail = tail[len(tail)-transcriptTail:]
		}
		for _, ex := range tail {
			fmt.Fprintf(b, "  [%s] %s\n", ex.Persona, ex.Text)
		}
	}
}
