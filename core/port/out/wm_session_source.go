package out

import (
	"context"

	"worldmodel_server/core/domain"
)

// SessionSource reads captured sessions from the relational session store.
// The store itself (schema, migrations, retention) is owned by the capture
// backend; this port is read-only plus a processed marker.
type SessionSource interface {
	// NextSessions returns up to limit unprocessed sessions in capture order,
	// each with its full ordered interaction list materialized.
	NextSessions(ctx context.Context, limit int) ([]*domain.CapturedSession, error)

	// MarkProcessed flags a session so it is not returned again.
	MarkProcessed(ctx context.Context, sessionID string) error
}
