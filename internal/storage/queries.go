package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ch-lum/rl-analysis/internal/model"
)

// ReplayExists returns true if a replay with the given hash is already stored.
func (db *DB) ReplayExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM replays WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertReplay inserts a replay record. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertReplay(s model.ReplaySummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO replays(hash, path, analyzed_at, frame_count, epoch_count, team0_goals, team1_goals)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ReplayHash, s.Path, s.AnalyzedAt, s.FrameCount, s.EpochCount,
		s.Team0Goals, s.Team1Goals,
	)
	return err
}

// InsertGoals bulk-inserts detected goals in a transaction.
func (db *DB) InsertGoals(hash string, goals []model.Goal) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO goals(replay_hash, frame, team) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range goals {
		if _, err := stmt.Exec(hash, g.Frame, g.Team); err != nil {
			return fmt.Errorf("insert goal at frame %d: %w", g.Frame, err)
		}
	}
	return tx.Commit()
}

// InsertKickoffs bulk-inserts kickoff frames in a transaction.
func (db *DB) InsertKickoffs(hash string, kickoffs []model.Kickoff) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO kickoffs(replay_hash, goal_frame, kickoff_frame) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, k := range kickoffs {
		if _, err := stmt.Exec(hash, k.GoalFrame, k.Frame); err != nil {
			return fmt.Errorf("insert kickoff for goal %d: %w", k.GoalFrame, err)
		}
	}
	return tx.Commit()
}

// InsertIntervals bulk-inserts possession intervals in a transaction.
func (db *DB) InsertIntervals(hash string, intervals []model.Interval) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO possession_intervals(replay_hash, start_frame, goal_frame) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, iv := range intervals {
		if _, err := stmt.Exec(hash, iv.Start, iv.GoalFrame); err != nil {
			return fmt.Errorf("insert interval for goal %d: %w", iv.GoalFrame, err)
		}
	}
	return tx.Commit()
}

// InsertFeatures bulk-inserts dataset rows in a transaction. The physics
// columns are stored as a JSON array per row.
func (db *DB) InsertFeatures(rows []model.FeatureRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO features(replay_hash, frame, scores_next, vector) VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		vec, err := json.Marshal(r.Values)
		if err != nil {
			return fmt.Errorf("encode feature at frame %d: %w", r.Frame, err)
		}
		if _, err := stmt.Exec(r.ReplayHash, r.Frame, r.ScoresNext, string(vec)); err != nil {
			return fmt.Errorf("insert feature at frame %d: %w", r.Frame, err)
		}
	}
	return tx.Commit()
}

// ListReplays returns all stored replay summaries ordered by analysis time desc.
func (db *DB) ListReplays() ([]model.ReplaySummary, error) {
	rows, err := db.conn.Query(`
		SELECT hash, path, analyzed_at, frame_count, epoch_count, team0_goals, team1_goals
		FROM replays ORDER BY analyzed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReplaySummary
	for rows.Next() {
		var s model.ReplaySummary
		if err := rows.Scan(&s.ReplayHash, &s.Path, &s.AnalyzedAt,
			&s.FrameCount, &s.EpochCount, &s.Team0Goals, &s.Team1Goals); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetReplayByPrefix finds the first replay whose hash starts with the given prefix.
func (db *DB) GetReplayByPrefix(prefix string) (*model.ReplaySummary, error) {
	var s model.ReplaySummary
	err := db.conn.QueryRow(`
		SELECT hash, path, analyzed_at, frame_count, epoch_count, team0_goals, team1_goals
		FROM replays WHERE hash LIKE ? LIMIT 1`, prefix+"%").
		Scan(&s.ReplayHash, &s.Path, &s.AnalyzedAt,
			&s.FrameCount, &s.EpochCount, &s.Team0Goals, &s.Team1Goals)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetGoals returns the stored goals for a replay, ordered by frame.
func (db *DB) GetGoals(hash string) ([]model.Goal, error) {
	rows, err := db.conn.Query(`
		SELECT frame, team FROM goals WHERE replay_hash = ? ORDER BY frame`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Goal
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(&g.Frame, &g.Team); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetKickoffs returns the stored kickoffs for a replay, ordered by goal frame.
func (db *DB) GetKickoffs(hash string) ([]model.Kickoff, error) {
	rows, err := db.conn.Query(`
		SELECT goal_frame, kickoff_frame FROM kickoffs WHERE replay_hash = ? ORDER BY goal_frame`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Kickoff
	for rows.Next() {
		var k model.Kickoff
		if err := rows.Scan(&k.GoalFrame, &k.Frame); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// GetIntervals returns the stored possession intervals for a replay,
// ordered by goal frame.
func (db *DB) GetIntervals(hash string) ([]model.Interval, error) {
	rows, err := db.conn.Query(`
		SELECT start_frame, goal_frame FROM possession_intervals
		WHERE replay_hash = ? ORDER BY goal_frame`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Interval
	for rows.Next() {
		var iv model.Interval
		if err := rows.Scan(&iv.Start, &iv.GoalFrame); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// GetFeatures returns stored dataset rows. An empty hash selects rows
// from every replay, ordered by replay then frame.
func (db *DB) GetFeatures(hash string) ([]model.FeatureRow, error) {
	query := `SELECT replay_hash, frame, scores_next, vector FROM features
		ORDER BY replay_hash, frame`
	args := []any{}
	if hash != "" {
		query = `SELECT replay_hash, frame, scores_next, vector FROM features
			WHERE replay_hash = ? ORDER BY frame`
		args = append(args, hash)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeatureRow
	for rows.Next() {
		var r model.FeatureRow
		var vec string
		if err := rows.Scan(&r.ReplayHash, &r.Frame, &r.ScoresNext, &vec); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vec), &r.Values); err != nil {
			return nil, fmt.Errorf("decode feature at frame %d: %w", r.Frame, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names plus rows of
// stringified values, for the sql command.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range raw {
			switch t := v.(type) {
			case nil:
				rec[i] = "NULL"
			case []byte:
				rec[i] = string(t)
			default:
				rec[i] = fmt.Sprintf("%v", t)
			}
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}
