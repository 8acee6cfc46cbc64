package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"TokenCouncil/internal/event"
)

// SQLiteRecorder persists council history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read
	// while the bot writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id            TEXT PRIMARY KEY,
			token_address TEXT NOT NULL,
			symbol        TEXT,
			phase         TEXT,
			verdict       TEXT,
			bullish_count INTEGER,
			confidence    REAL,
			started_at    INTEGER NOT NULL,
			closed_at     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token_address)`,

		`CREATE TABLE IF NOT EXISTS transcript (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			round      INTEGER,
			persona    TEXT,
			opinion    TEXT,
			text       TEXT,
			revised    INTEGER NOT NULL DEFAULT 0,
			timestamp  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id)`,

		`CREATE TABLE IF NOT EXISTS votes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			persona    TEXT,
			opinion    TEXT,
			timestamp  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_session ON votes(session_id)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id    TEXT NOT NULL,
			persona       TEXT,
			token_address TEXT,
			status        TEXT,
			amount_in     REAL,
			amount_out    REAL,
			tx_id         TEXT,
			reason        TEXT,
			timestamp     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Handle persists one engine event. Errors are logged and swallowed so a
// storage hiccup never disturbs the session.
func (r *SQLiteRecorder) Handle(evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	ts := evt.Timestamp.Unix()

	switch evt.Type {
	case event.TypeSessionStarted:
		_, err = r.db.Exec(
			`INSERT OR IGNORE INTO sessions (id, token_address, symbol, phase, started_at) VALUES (?, ?, ?, ?, ?)`,
			evt.SessionID, evt.TokenAddress, evt.TokenSymbol, string(evt.Phase), ts)

	case event.TypePhaseChanged:
		_, err = r.db.Exec(`UPDATE sessions SET phase = ? WHERE id = ?`, string(evt.Phase), evt.SessionID)

	case event.TypeOpinionStated, event.TypeOpinionRevised:
		revised := 0
		if evt.Type == event.TypeOpinionRevised {
			revised = 1
		}
		_, err = r.db.Exec(
			`INSERT INTO transcript (session_id, round, persona, opinion, text, revised, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			evt.SessionID, evt.Round, evt.Persona, string(evt.Opinion), evt.Text, revised, ts)

	case event.TypeVoteCast:
		_, err = r.db.Exec(
			`INSERT INTO votes (session_id, persona, opinion, timestamp) VALUES (?, ?, ?, ?)`,
			evt.SessionID, evt.Persona, string(evt.Opinion), ts)

	case event.TypeVerdictReached:
		if evt.Verdict != nil {
			_, err = r.db.Exec(
				`UPDATE sessions SET verdict = ?, bullish_count = ?, confidence = ? WHERE id = ?`,
				string(evt.Verdict.Decision), evt.Verdict.BullishCount, evt.Verdict.Confidence, evt.SessionID)
		}

	case event.TypeTradeOutcome:
		if evt.Trade != nil {
			t := evt.Trade
			_, err = r.db.Exec(
				`INSERT INTO trades (session_id, persona, token_address, status, amount_in, amount_out, tx_id, reason, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				evt.SessionID, t.Persona, t.TokenAddress, string(t.Status), t.AmountIn, t.AmountOut, t.TxID, t.Reason, ts)
		}

	case event.TypeSessionInterrupted:
		_, err = r.db.Exec(
			`UPDATE sessions SET phase = ?, closed_at = ? WHERE id = ?`,
			"INTERRUPTED", ts, evt.SessionID)

	case event.TypeSessionClosed:
		_, err = r.db.Exec(`UPDATE sessions SET closed_at = ? WHERE id = ?`, ts, evt.SessionID)
	}

	if err != nil {
		log.Printf("[ERROR] record %s event: %v", evt.Type, err)
	}
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
