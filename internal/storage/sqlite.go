// Package storage provides SQLite-based persistence for the leaderboard
// and finished match results. Games themselves are never stored.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry is one leaderboard record.
type ScoreEntry struct {
	ID         int64
	Name       string
	Mode       config.Mode
	PieceSet   string
	StartLevel int
	Score      int
	Lines      int
	Level      int
	MatchID    string // empty for local games
	CreatedAt  time.Time
}

// MatchRecord is a stored match result.
type MatchRecord struct {
	ID        int64
	MatchID   string
	Code      string
	Seed      string
	Mode      config.Mode
	Reason    string
	Winner    string // winner name, empty if none
	Duration  time.Duration
	Players   []multiplayer.PlayerScore
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Match results are saved from their own goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			mode TEXT NOT NULL,
			piece_set TEXT NOT NULL,
			start_level INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL,
			lines INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 0,
			match_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(mode, score DESC);

		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			code TEXT NOT NULL,
			seed TEXT NOT NULL,
			mode TEXT NOT NULL,
			end_reason TEXT NOT NULL,
			winner TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS match_players (
			match_id TEXT NOT NULL REFERENCES matches(match_id),
			seat TEXT NOT NULL,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			level INTEGER NOT NULL,
			left_match INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (match_id, seat)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScore records a leaderboard entry and returns its ID.
func (s *Store) SaveScore(e ScoreEntry) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO scores (name, mode, piece_set, start_level, score, lines, level, match_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, string(e.Mode), e.PieceSet, e.StartLevel, e.Score, e.Lines, e.Level, e.MatchID,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// TopScores returns the best scores of a mode, highest first.
// An empty mode returns the best scores of every mode.
func (s *Store) TopScores(mode config.Mode, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, name, mode, piece_set, start_level, score, lines, level, match_id, created_at
		 FROM scores
		 WHERE ? = '' OR mode = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		string(mode), string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var mode string
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Name, &mode, &e.PieceSet, &e.StartLevel,
			&e.Score, &e.Lines, &e.Level, &e.MatchID, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Mode = config.Mode(mode)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// HighScore returns the highest score of a mode, or 0.
func (s *Store) HighScore(mode config.Mode) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE mode = ?",
		string(mode),
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}
	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// ClearScores deletes the leaderboard of a mode.
func (s *Store) ClearScores(mode config.Mode) error {
	if _, err := s.db.Exec("DELETE FROM scores WHERE mode = ?", string(mode)); err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveMatchResult stores a finished match and adds every player's final
// score to the leaderboard. Cancelled matches are stored without scores.
func (s *Store) SaveMatchResult(r multiplayer.MatchResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(
		`INSERT INTO matches (match_id, code, seed, mode, end_reason, winner, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(r.MatchID), r.Code, r.Seed, string(r.Mode), r.Reason.String(),
		r.WinnerName(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save match: %w", err)
	}

	for _, p := range r.Scores {
		_, err := tx.Exec(
			`INSERT INTO match_players (match_id, seat, name, score, lines, level, left_match)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(r.MatchID), string(p.ID), p.Name, p.Score, p.Lines, p.Level, p.Left,
		)
		if err != nil {
			return fmt.Errorf("storage: cannot save match player: %w", err)
		}
		if r.Reason == multiplayer.MatchEndReasonCancelled {
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO scores (name, mode, piece_set, start_level, score, lines, level, match_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, string(r.Mode), r.Settings.PieceSet, r.Settings.StartLevel,
			p.Score, p.Lines, p.Level, string(r.MatchID),
		)
		if err != nil {
			return fmt.Errorf("storage: cannot save score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return nil
}

var _ multiplayer.MatchResultSaver = (*Store)(nil)

// MatchByID returns a stored match, or nil if there is none.
func (s *Store) MatchByID(matchID string) (*MatchRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, match_id, code, seed, mode, end_reason, winner, duration_ms, created_at
		 FROM matches WHERE match_id = ?`,
		matchID,
	)
	rec, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	if err := s.loadPlayers(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecentMatches returns the latest stored matches, newest first.
func (s *Store) RecentMatches(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, match_id, code, seed, mode, end_reason, winner, duration_ms, created_at
		 FROM matches
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	for i := range records {
		if err := s.loadPlayers(&records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (*MatchRecord, error) {
	var rec MatchRecord
	var mode string
	var durationMs int64
	var createdAt any
	if err := row.Scan(&rec.ID, &rec.MatchID, &rec.Code, &rec.Seed, &mode,
		&rec.Reason, &rec.Winner, &durationMs, &createdAt); err != nil {
		return nil, err
	}
	rec.Mode = config.Mode(mode)
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

func (s *Store) loadPlayers(rec *MatchRecord) error {
	rows, err := s.db.Query(
		`SELECT seat, name, score, lines, level, left_match
		 FROM match_players WHERE match_id = ?
		 ORDER BY seat`,
		rec.MatchID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot query match players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p multiplayer.PlayerScore
		var seat string
		if err := rows.Scan(&seat, &p.Name, &p.Score, &p.Lines, &p.Level, &p.Left); err != nil {
			return fmt.Errorf("storage: cannot scan match player: %w", err)
		}
		p.ID = multiplayer.PlayerID(seat)
		rec.Players = append(rec.Players, p)
	}
	return rows.Err()
}

// ModeStats contains aggregated leaderboard statistics for a mode.
type ModeStats struct {
	Mode       config.Mode
	GamesCount int
	HighScore  int
	AvgScore   float64
	TotalLines int64
	LastPlayed time.Time
}

// Stats returns aggregated statistics for every mode that has scores.
func (s *Store) Stats() (map[config.Mode]*ModeStats, error) {
	rows, err := s.db.Query(
		`SELECT mode, COUNT(*), MAX(score), AVG(score), SUM(lines), MAX(created_at)
		 FROM scores
		 GROUP BY mode`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[config.Mode]*ModeStats)
	for rows.Next() {
		var st ModeStats
		var mode string
		var lastPlayed any
		if err := rows.Scan(&mode, &st.GamesCount, &st.HighScore, &st.AvgScore, &st.TotalLines, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.Mode = config.Mode(mode)
		st.LastPlayed = parseTime(lastPlayed)
		stats[st.Mode] = &st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// parseTime handles the driver returning either time.Time or text.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
