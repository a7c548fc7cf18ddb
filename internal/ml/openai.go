package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	apperrors "options-insight/internal/errors"
	"options-insight/internal/models"
)

// OpenAIScorer scores a snapshot through an OpenAI chat model. Any API
// failure surfaces as an error and the layer degrades; the request is
// never failed by the model being unreachable.
type OpenAIScorer struct {
	client *openai.Client
	model  string
}

// NewOpenAIScorer creates an OpenAI-backed scorer.
func NewOpenAIScorer(apiKey, model string) *OpenAIScorer {
	return &OpenAIScorer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (s *OpenAIScorer) Name() string { return "openai:" + s.model }

const scorerSystemPrompt = `You are an options market analyst. Given an option chain summary,
estimate the probability of upward movement in the underlying before expiry.
Respond with only a JSON object: {"probability_up": <0..1>, "direction": "BULLISH"|"BEARISH"|"NEUTRAL"}`

// scorerResponse is the JSON shape the model is asked to return.
type scorerResponse struct {
	ProbabilityUp float64 `json:"probability_up"`
	Direction     string  `json:"direction"`
}

func (s *OpenAIScorer) Score(ctx context.Context, snap *models.MarketSnapshot, a *models.ChainAnalytics) (models.MLSignal, error) {
	prompt := buildPrompt(snap, a)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scorerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return models.MLSignal{}, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.MLSignal{}, apperrors.ErrModelUnavailable
	}

	return s.parse(resp.Choices[0].Message.Content)
}

func (s *OpenAIScorer) parse(content string) (models.MLSignal, error) {
	// Models occasionally wrap JSON in a code fence.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var r scorerResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		return models.MLSignal{}, fmt.Errorf("unparseable scorer response: %w", err)
	}
	if r.ProbabilityUp < 0 || r.ProbabilityUp > 1 {
		return models.MLSignal{}, fmt.Errorf("probability out of range: %f", r.ProbabilityUp)
	}

	sig := models.MLSignal{Model: s.Name()}
	switch models.Direction(strings.ToUpper(r.Direction)) {
	case models.Bullish:
		sig.Direction = models.Bullish
		sig.Confidence = r.ProbabilityUp
	case models.Bearish:
		sig.Direction = models.Bearish
		sig.Confidence = 1 - r.ProbabilityUp
	case models.Neutral:
		sig.Direction = models.Neutral
		sig.Confidence = 0.5
	default:
		return models.MLSignal{}, fmt.Errorf("unknown direction: %q", r.Direction)
	}

	return sig, nil
}

func buildPrompt(snap *models.MarketSnapshot, a *models.ChainAnalytics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\nSpot: %.2f\n", snap.Symbol, snap.SpotPrice)
	if a.PCRDefined {
		fmt.Fprintf(&b, "PCR: %.2f\n", a.PCR)
	} else {
		b.WriteString("PCR: undefined (no call OI)\n")
	}
	fmt.Fprintf(&b, "Max pain: %.2f\n", a.MaxPainStrike)
	if a.HasSupport {
		fmt.Fprintf(&b, "Support (put OI): %.2f\n", a.Support)
	}
	if a.HasResistance {
		fmt.Fprintf(&b, "Resistance (call OI): %.2f\n", a.Resistance)
	}
	fmt.Fprintf(&b, "Total call OI: %d, total put OI: %d\n", a.TotalCallOI, a.TotalPutOI)
	return b.String()
}
