package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "options-insight/internal/errors"
	"options-insight/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Snapshot journal; legs stored as JSON since the chain is read back
	-- whole, never queried per leg
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		spot_price REAL NOT NULL,
		source TEXT NOT NULL,
		legs TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Analysis history
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		spot_price REAL NOT NULL,
		pcr REAL NOT NULL,
		pcr_defined INTEGER NOT NULL,
		max_pain_strike REAL NOT NULL,
		rule_direction TEXT NOT NULL,
		rule_confidence REAL NOT NULL,
		ml_direction TEXT NOT NULL,
		ml_confidence REAL NOT NULL,
		ml_degraded INTEGER NOT NULL,
		fused_direction TEXT NOT NULL,
		fused_confidence REAL NOT NULL,
		explanation TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Trade ideas per analysis run
	CREATE TABLE IF NOT EXISTS ideas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		strike REAL NOT NULL,
		option_type TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry REAL NOT NULL,
		target REAL NOT NULL,
		stop_loss REAL NOT NULL,
		risk_reward REAL NOT NULL,
		oi INTEGER NOT NULL,
		rationale TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (analysis_id) REFERENCES analyses(id)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_timestamp ON snapshots(symbol, timestamp);
	CREATE INDEX IF NOT EXISTS idx_analyses_symbol ON analyses(symbol);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
	CREATE INDEX IF NOT EXISTS idx_ideas_analysis ON ideas(analysis_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot journals a snapshot and returns its row id.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *models.MarketSnapshot) (int64, error) {
	legs, err := json.Marshal(snap.Legs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal legs: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (symbol, timestamp, spot_price, source, legs)
		VALUES (?, ?, ?, ?, ?)
	`, snap.Symbol, snap.Timestamp, snap.SpotPrice, snap.Source, string(legs))
	if err != nil {
		return 0, apperrors.NewDataError("snapshot", snap.Symbol, "insert failed", err)
	}

	return res.LastInsertId()
}

// GetPriorSnapshot returns the latest snapshot for symbol strictly before
// the given time. A missing prior is not an error; callers treat nil as
// "no history".
func (s *SQLiteStore) GetPriorSnapshot(ctx context.Context, symbol string, before time.Time) (*models.MarketSnapshot, error) {
	var snap models.MarketSnapshot
	var legsJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, timestamp, spot_price, source, legs
		FROM snapshots
		WHERE symbol = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, symbol, before).Scan(&snap.Symbol, &snap.Timestamp, &snap.SpotPrice, &snap.Source, &legsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDataError("snapshot", symbol, "prior lookup failed", err)
	}

	if err := json.Unmarshal([]byte(legsJSON), &snap.Legs); err != nil {
		return nil, apperrors.NewDataError("snapshot", symbol, "legs unmarshal failed", err)
	}

	return &snap, nil
}

// SaveAnalysis persists one analysis run and returns its row id.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) (int64, error) {
	explanation, err := json.Marshal(rec.Explanation)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal explanation: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (symbol, timestamp, spot_price, pcr, pcr_defined, max_pain_strike,
			rule_direction, rule_confidence, ml_direction, ml_confidence, ml_degraded,
			fused_direction, fused_confidence, explanation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Symbol, rec.Timestamp, rec.SpotPrice, rec.PCR, boolToInt(rec.PCRDefined), rec.MaxPainStrike,
		rec.RuleDirection, rec.RuleConfidence, rec.MLDirection, rec.MLConfidence, boolToInt(rec.MLDegraded),
		rec.FusedDirection, rec.FusedConfidence, string(explanation))
	if err != nil {
		return 0, apperrors.NewDataError("analysis", rec.Symbol, "insert failed", err)
	}

	return res.LastInsertId()
}

// GetAnalyses retrieves analysis history matching the filter, newest first.
func (s *SQLiteStore) GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisRecord, error) {
	query := `SELECT id, symbol, timestamp, spot_price, pcr, pcr_defined, max_pain_strike,
		rule_direction, rule_confidence, ml_direction, ml_confidence, ml_degraded,
		fused_direction, fused_confidence, explanation
		FROM analyses WHERE 1=1`
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.StartDate.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndDate)
	}
	if filter.Direction != "" {
		query += " AND fused_direction = ?"
		args = append(args, filter.Direction)
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDataError("analysis", filter.Symbol, "query failed", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var pcrDefined, mlDegraded int
		var explanationJSON sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Timestamp, &rec.SpotPrice, &rec.PCR, &pcrDefined, &rec.MaxPainStrike,
			&rec.RuleDirection, &rec.RuleConfidence, &rec.MLDirection, &rec.MLConfidence, &mlDegraded,
			&rec.FusedDirection, &rec.FusedConfidence, &explanationJSON); err != nil {
			return nil, apperrors.NewDataError("analysis", filter.Symbol, "scan failed", err)
		}

		rec.PCRDefined = pcrDefined == 1
		rec.MLDegraded = mlDegraded == 1
		if explanationJSON.Valid {
			json.Unmarshal([]byte(explanationJSON.String), &rec.Explanation)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// SaveIdeas persists the ideas of one analysis run.
func (s *SQLiteStore) SaveIdeas(ctx context.Context, analysisID int64, ideas []models.TradeIdea) error {
	if len(ideas) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ideas (analysis_id, rank, symbol, strike, option_type, direction, entry, target, stop_loss, risk_reward, oi, rationale)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, idea := range ideas {
		_, err := stmt.ExecContext(ctx, analysisID, idea.Rank, idea.Symbol, idea.Strike, idea.Type, idea.Direction,
			idea.Entry, idea.Target, idea.StopLoss, idea.RiskReward, idea.OI, idea.Rationale)
		if err != nil {
			return fmt.Errorf("failed to insert idea: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetIdeas retrieves the ideas of one analysis run in rank order.
func (s *SQLiteStore) GetIdeas(ctx context.Context, analysisID int64) ([]models.TradeIdea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, symbol, strike, option_type, direction, entry, target, stop_loss, risk_reward, oi, rationale
		FROM ideas
		WHERE analysis_id = ?
		ORDER BY rank ASC
	`, analysisID)
	if err != nil {
		return nil, apperrors.NewDataError("idea", "", "query failed", err)
	}
	defer rows.Close()

	var ideas []models.TradeIdea
	for rows.Next() {
		var idea models.TradeIdea
		if err := rows.Scan(&idea.Rank, &idea.Symbol, &idea.Strike, &idea.Type, &idea.Direction,
			&idea.Entry, &idea.Target, &idea.StopLoss, &idea.RiskReward, &idea.OI, &idea.Rationale); err != nil {
			return nil, apperrors.NewDataError("idea", "", "scan failed", err)
		}
		ideas = append(ideas, idea)
	}

	return ideas, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
