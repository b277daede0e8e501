// Package postgres reads captured sessions from the relational session store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"github.com/jmoiron/sqlx"

	"worldmodel_server/core/domain"
	"worldmodel_server/core/port/out"
)

// NewDB opens a pgx-backed sqlx handle and verifies connectivity.
func NewDB(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// =============================================================================
// Session Source Adapter
// =============================================================================

// SessionAdapter implements out.SessionSource over the capture backend's
// schema. The schema is owned by the capture side; this adapter only reads
// and flips the processed flag.
type SessionAdapter struct {
	db *sqlx.DB
}

// NewSessionAdapter creates a new session source adapter.
func NewSessionAdapter(db *sqlx.DB) *SessionAdapter {
	return &SessionAdapter{db: db}
}

var _ out.SessionSource = (*SessionAdapter)(nil)

// sessionRow represents the sessions table row.
type sessionRow struct {
	ID         string         `db:"id"`
	Context    sql.NullString `db:"context"` // JSONB session summary
	CapturedAt time.Time      `db:"captured_at"`
}

// interactionRow represents the interactions table row. The capture layer
// stores each logical group as its own JSONB column.
type interactionRow struct {
	ID          string         `db:"id"`
	SessionID   string         `db:"session_id"`
	Sequence    int            `db:"sequence"`
	Selectors   sql.NullString `db:"selectors"`
	Visual      sql.NullString `db:"visual"`
	Element     sql.NullString `db:"element"`
	Context     sql.NullString `db:"context"`
	State       sql.NullString `db:"state"`
	Interaction sql.NullString `db:"interaction"`
}

func (r *interactionRow) toEntity() (*domain.InteractionRecord, error) {
	rec := &domain.InteractionRecord{
		ID:        r.ID,
		SessionID: r.SessionID,
	}
	groups := []struct {
		raw  sql.NullString
		dest any
	}{
		{r.Selectors, &rec.Selectors},
		{r.Visual, &rec.Visual},
		{r.Element, &rec.Element},
		{r.Context, &rec.Context},
		{r.State, &rec.State},
		{r.Interaction, &rec.Interaction},
	}
	for _, g := range groups {
		if !g.raw.Valid || g.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(g.raw.String), g.dest); err != nil {
			return nil, fmt.Errorf("failed to decode interaction group: %w", err)
		}
	}
	return rec, nil
}

// NextSessions returns up to limit unprocessed sessions in capture order,
// each with its ordered interaction list materialized.
func (a *SessionAdapter) NextSessions(ctx context.Context, limit int) ([]*domain.CapturedSession, error) {
	var rows []sessionRow
	query := `SELECT id, context, captured_at FROM captured_sessions
	          WHERE processed = FALSE ORDER BY captured_at LIMIT $1`

	if err := a.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domain.CapturedSession, 0, len(rows))
	for _, row := range rows {
		session := &domain.CapturedSession{
			ID:         row.ID,
			CapturedAt: row.CapturedAt,
		}
		if row.Context.Valid && row.Context.String != "" {
			if err := json.Unmarshal([]byte(row.Context.String), &session.Context); err != nil {
				return nil, fmt.Errorf("failed to decode session context: %w", err)
			}
		}

		interactions, err := a.listInteractions(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		session.Interactions = interactions
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (a *SessionAdapter) listInteractions(ctx context.Context, sessionID string) ([]*domain.InteractionRecord, error) {
	var rows []interactionRow
	query := `SELECT id, session_id, sequence, selectors, visual, element, context, state, interaction
	          FROM captured_interactions WHERE session_id = $1 ORDER BY sequence`

	if err := a.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	records := make([]*domain.InteractionRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// MarkProcessed flags a session so it is not returned again.
func (a *SessionAdapter) MarkProcessed(ctx context.Context, sessionID string) error {
	query := `UPDATE captured_sessions SET processed = TRUE, processed_at = NOW() WHERE id = $1`

	if _, err := a.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to mark session processed: %w", err)
	}
	return nil
}
