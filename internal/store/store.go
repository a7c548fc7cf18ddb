// Package store provides persistence for snapshots and analysis history.
package store

import (
	"context"
	"time"

	"options-insight/internal/models"
)

// AnalysisRecord is one persisted analysis run: the analytics summary and
// all three signals, flattened for querying.
type AnalysisRecord struct {
	ID        int64
	Symbol    string
	Timestamp time.Time

	PCR           float64
	PCRDefined    bool
	MaxPainStrike float64
	SpotPrice     float64

	RuleDirection  models.Direction
	RuleConfidence float64
	MLDirection    models.Direction
	MLConfidence   float64
	MLDegraded     bool

	FusedDirection  models.Direction
	FusedConfidence float64
	Explanation     []string
}

// AnalysisFilter narrows GetAnalyses queries. Zero values mean no filter.
type AnalysisFilter struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Direction models.Direction
	Limit     int
}

// Store defines the persistence interface: a snapshot journal feeding the
// OI-buildup comparison, and an analysis history with the ideas each run
// produced.
type Store interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, snap *models.MarketSnapshot) (int64, error)
	// GetPriorSnapshot returns the most recent snapshot for symbol strictly
	// before the given time, or nil when none exists.
	GetPriorSnapshot(ctx context.Context, symbol string, before time.Time) (*models.MarketSnapshot, error)

	// Analysis history
	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) (int64, error)
	GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisRecord, error)
	SaveIdeas(ctx context.Context, analysisID int64, ideas []models.TradeIdea) error
	GetIdeas(ctx context.Context, analysisID int64) ([]models.TradeIdea, error)

	// Lifecycle
	Close() error
}
