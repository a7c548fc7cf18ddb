// Package engine orchestrates one analysis request: validation, chain
// analytics, concurrent rule and ML evaluation, fusion, and idea
// generation. The engine is stateless between invocations; concurrent
// requests for different symbols share no mutable state.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"options-insight/internal/analytics"
	"options-insight/internal/fusion"
	"options-insight/internal/ideas"
	"options-insight/internal/ml"
	"options-insight/internal/models"
	"options-insight/internal/rules"
)

// AnalysisRequest carries everything one invocation needs. Prior is the
// previous snapshot for the same symbol when the caller has one; without
// it the OI-buildup rule abstains.
type AnalysisRequest struct {
	Snapshot  *models.MarketSnapshot
	Prior     *models.MarketSnapshot
	IdeaCount int
}

// Result is the full structured output of one analysis: the analytics the
// signals were derived from, both raw signals, the fused signal, and the
// ranked ideas. Formatting belongs to the presentation layer.
type Result struct {
	Analytics *models.ChainAnalytics
	Rule      models.RuleSignal
	ML        models.MLSignal
	Fused     models.FusedSignal
	Ideas     []models.TradeIdea
}

// Engine wires the pipeline stages together.
type Engine struct {
	evaluator *rules.Evaluator
	mlLayer   *ml.Layer
	generator *ideas.Generator
	weights   fusion.Weights
	logger    zerolog.Logger
}

// Options configures an Engine.
type Options struct {
	Evaluator *rules.Evaluator
	MLLayer   *ml.Layer
	Generator *ideas.Generator
	Weights   fusion.Weights
	Logger    zerolog.Logger
}

// New creates an engine. Nil components fall back to defaults; a nil ML
// layer scores every request as degraded.
func New(opts Options) *Engine {
	if opts.Evaluator == nil {
		opts.Evaluator = rules.NewEvaluator()
	}
	if opts.Generator == nil {
		opts.Generator = ideas.NewGenerator(ideas.DefaultParams())
	}
	if opts.MLLayer == nil {
		opts.MLLayer = ml.NewLayer(nil, false, 0, opts.Logger)
	}
	if opts.Weights == (fusion.Weights{}) {
		opts.Weights = fusion.DefaultWeights()
	}
	return &Engine{
		evaluator: opts.Evaluator,
		mlLayer:   opts.MLLayer,
		generator: opts.Generator,
		weights:   opts.Weights,
		logger:    opts.Logger,
	}
}

// Analyze runs the full pipeline for one snapshot. Validation failures
// halt immediately; degraded ML flows through as data. Cancelling ctx
// simply discards the partial result — nothing is persisted mid-pipeline.
func (e *Engine) Analyze(ctx context.Context, req AnalysisRequest) (*Result, error) {
	chain, err := analytics.Compute(req.Snapshot)
	if err != nil {
		return nil, err
	}

	// Rules and ML take the same inputs and are independent; score them
	// concurrently. Each goroutine writes its own field, so no lock.
	var ruleSig models.RuleSignal
	var mlSig models.MLSignal

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ruleSig = e.evaluator.Evaluate(req.Snapshot, chain, req.Prior)
	}()
	go func() {
		defer wg.Done()
		mlSig = e.mlLayer.Score(ctx, req.Snapshot, chain)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fused := fusion.Fuse(ruleSig, mlSig, e.weights)

	e.logger.Debug().
		Str("symbol", req.Snapshot.Symbol).
		Str("rule", string(ruleSig.Direction)).
		Str("ml", string(mlSig.Direction)).
		Bool("ml_degraded", mlSig.Degraded).
		Str("fused", string(fused.Direction)).
		Float64("confidence", fused.Confidence).
		Msg("Signals fused")

	result := &Result{
		Analytics: chain,
		Rule:      ruleSig,
		ML:        mlSig,
		Fused:     fused,
		Ideas:     e.generator.Generate(fused, chain, req.Snapshot, req.IdeaCount),
	}

	return result, nil
}
