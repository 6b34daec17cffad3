// Package recorder persists flattened pose streams to sqlite so recorded
// teleoperation sessions can be replayed through analysis tooling later.
package recorder

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/mocap.bridge/internal/bridge"
)

// PoseStore provides persistence for recording sessions and their flattened
// pose records.
type PoseStore struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at path and runs any pending
// schema migrations.
func Open(path string) (*PoseStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open pose database: %w", err)
	}
	s := &PoseStore{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *PoseStore) Close() error { return s.db.Close() }

// Session is one recording run.
type Session struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	StartedAt int64  `json:"started_at"` // unix ns
}

// CreateSession inserts a new session row and returns its generated ID.
func (s *PoseStore) CreateSession(source string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, source, started_at) VALUES (?, ?, ?)`,
		id, source, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Sessions returns all sessions, newest first.
func (s *PoseStore) Sessions() ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, source, started_at FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.SessionID, &sess.Source, &sess.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// LatestSession returns the most recently started session, or an error when
// none exist.
func (s *PoseStore) LatestSession() (Session, error) {
	var sess Session
	err := s.db.QueryRow(
		`SELECT session_id, source, started_at FROM sessions ORDER BY started_at DESC LIMIT 1`,
	).Scan(&sess.SessionID, &sess.Source, &sess.StartedAt)
	if err != nil {
		return Session{}, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}

// RecordPoll persists the records of one successful poll in a single
// transaction. Empty polls are not recorded.
func (s *PoseStore) RecordPoll(sessionID string, pollSeq uint64, publishTime time.Time, recs []bridge.FlatPoseRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin record poll: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(`
		INSERT INTO poses (
			session_id, poll_seq, glove_id, node_id, side,
			px, py, pz, qx, qy, qz, qw,
			publish_time_ns, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pose insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for _, r := range recs {
		if _, err := stmt.Exec(
			sessionID, pollSeq, r.GloveID, r.NodeID, r.Side,
			r.Position.X, r.Position.Y, r.Position.Z,
			r.Orientation.X, r.Orientation.Y, r.Orientation.Z, r.Orientation.W,
			publishTime.UnixNano(), now,
		); err != nil {
			return fmt.Errorf("insert pose: %w", err)
		}
	}
	return tx.Commit()
}

// PoseRow is one persisted pose record.
type PoseRow struct {
	PollSeq       uint64  `json:"poll_seq"`
	GloveID       uint32  `json:"glove_id"`
	NodeID        uint32  `json:"node_id"`
	Side          uint32  `json:"side"`
	PX, PY, PZ    float64 `json:"-"`
	QX, QY, QZ    float64 `json:"-"`
	QW            float64 `json:"-"`
	PublishTimeNs int64   `json:"publish_time_ns"`
}

// Poses returns all pose rows for a session in poll order.
func (s *PoseStore) Poses(sessionID string) ([]PoseRow, error) {
	rows, err := s.db.Query(`
		SELECT poll_seq, glove_id, node_id, side,
		       px, py, pz, qx, qy, qz, qw, publish_time_ns
		FROM poses
		WHERE session_id = ?
		ORDER BY poll_seq, glove_id, node_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query poses: %w", err)
	}
	defer rows.Close()

	var out []PoseRow
	for rows.Next() {
		var p PoseRow
		if err := rows.Scan(&p.PollSeq, &p.GloveID, &p.NodeID, &p.Side,
			&p.PX, &p.PY, &p.PZ, &p.QX, &p.QY, &p.QZ, &p.QW, &p.PublishTimeNs); err != nil {
			return nil, fmt.Errorf("scan pose: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPoses returns the number of persisted records for a session.
func (s *PoseStore) CountPoses(sessionID string) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM poses WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count poses: %w", err)
	}
	return n, nil
}
