// Package ml provides the ML confidence layer: an independent directional
// scorer over the same snapshot the rule engine sees. The layer never
// fails a request — when no usable model is available it returns a
// degraded, well-formed signal so fusion always has both inputs.
package ml

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"options-insight/internal/models"
)

// Scorer produces a directional probability for one snapshot.
type Scorer interface {
	Name() string
	Score(ctx context.Context, snap *models.MarketSnapshot, analytics *models.ChainAnalytics) (models.MLSignal, error)
}

// Layer wraps a Scorer with the degraded-mode and timeout semantics the
// fusion stage relies on.
type Layer struct {
	scorer  Scorer
	enabled bool
	timeout time.Duration
	logger  zerolog.Logger
}

// NewLayer creates an ML layer. A nil scorer or enabled=false yields
// degraded signals for every request.
func NewLayer(scorer Scorer, enabled bool, timeout time.Duration, logger zerolog.Logger) *Layer {
	return &Layer{
		scorer:  scorer,
		enabled: enabled,
		timeout: timeout,
		logger:  logger,
	}
}

// Degraded returns the fallback signal: neutral, uninformative, flagged.
func Degraded() models.MLSignal {
	return models.MLSignal{
		Direction:  models.Neutral,
		Confidence: 0.5,
		Model:      "none",
		Degraded:   true,
	}
}

// Score runs the scorer bounded by the configured timeout. Any error,
// timeout, or disabled state degrades to the neutral fallback; Score
// never returns an error.
func (l *Layer) Score(ctx context.Context, snap *models.MarketSnapshot, analytics *models.ChainAnalytics) models.MLSignal {
	if !l.enabled || l.scorer == nil {
		return Degraded()
	}

	scoreCtx := ctx
	var cancel context.CancelFunc
	if l.timeout > 0 {
		scoreCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	type result struct {
		sig models.MLSignal
		err error
	}
	done := make(chan result, 1)

	go func() {
		sig, err := l.scorer.Score(scoreCtx, snap, analytics)
		done <- result{sig, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			l.logger.Warn().Err(r.err).Str("scorer", l.scorer.Name()).Msg("ML scorer failed, degrading")
			return Degraded()
		}
		return r.sig
	case <-scoreCtx.Done():
		l.logger.Warn().Str("scorer", l.scorer.Name()).Msg("ML scoring timed out, degrading")
		return Degraded()
	}
}
