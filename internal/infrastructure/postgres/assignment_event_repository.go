package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.AssignmentEventRepository = (*AssignmentEventRepo)(nil)

// AssignmentEventRepo historial append-only en asset_events.
type AssignmentEventRepo struct {
	q Querier
}

// NewAssignmentEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssignmentEventRepository(q Querier) *AssignmentEventRepo {
	return &AssignmentEventRepo{q: q}
}

// Append inserta el evento. Nunca se actualiza ni se borra.
func (r *AssignmentEventRepo) Append(ctx context.Context, e *entity.AssignmentEvent) error {
	query := `
		INSERT INTO asset_events (id, asset_id, action, previous_state, new_state, previous_user_id, new_user_id, actor, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.AssetID, e.Action, nullIfEmpty(string(e.PreviousState)), string(e.NewState),
		nullIfEmpty(e.PreviousUserID), nullIfEmpty(e.NewUserID), e.Actor, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset event: %w", err)
	}
	return nil
}

// ListByAsset devuelve el historial en orden de registro. limit <= 0 = sin límite.
func (r *AssignmentEventRepo) ListByAsset(ctx context.Context, assetID string, limit, offset int) ([]*entity.AssignmentEvent, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT id, asset_id, action, previous_state, new_state, previous_user_id, new_user_id, actor, occurred_at
		FROM asset_events WHERE asset_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, assetID, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("list asset events: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.AssignmentEvent, 0)
	for rows.Next() {
		var (
			e                 entity.AssignmentEvent
			prevState         *string
			newState          string
			prevUser, newUser *string
		)
		if err := rows.Scan(&e.ID, &e.AssetID, &e.Action, &prevState, &newState, &prevUser, &newUser, &e.Actor, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan asset event: %w", err)
		}
		e.PreviousState = entity.AssetState(deref(prevState))
		e.NewState = entity.AssetState(newState)
		e.PreviousUserID = deref(prevUser)
		e.NewUserID = deref(newUser)
		out = append(out, &e)
	}
	return out, rows.Err()
}
