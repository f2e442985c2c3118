// Package lifecycle implementa el motor de transiciones de estado del activo (servicio de dominio puro).
//
// Aristas legales:
//
//	HOLDING     -> AVAILABLE
//	AVAILABLE   -> BUILDING, SIGNED_OUT
//	BUILDING    -> READY_TO_GO, AVAILABLE
//	READY_TO_GO -> ISSUED, AVAILABLE
//	SIGNED_OUT  -> AVAILABLE
//	ISSUED      -> AVAILABLE
package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// transitions tabla de aristas legales (origen -> destinos).
var transitions = map[entity.AssetState][]entity.AssetState{
	entity.StateHolding:   {entity.StateAvailable},
	entity.StateAvailable: {entity.StateBuilding, entity.StateSignedOut},
	entity.StateBuilding:  {entity.StateReadyToGo, entity.StateAvailable},
	entity.StateReadyToGo: {entity.StateIssued, entity.StateAvailable},
	entity.StateSignedOut: {entity.StateAvailable},
	entity.StateIssued:    {entity.StateAvailable},
}

// CanTransition indica si from -> to es una arista de la tabla.
func CanTransition(from, to entity.AssetState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTargets devuelve una copia de los destinos legales desde from.
func AllowedTargets(from entity.AssetState) []entity.AssetState {
	out := make([]entity.AssetState, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// Change resultado validado de una transición, listo para aplicarse.
type Change struct {
	Action         string
	From           entity.AssetState
	To             entity.AssetState
	PreviousUserID string
	NewUserID      string
}

// Plan valida la transición del activo hacia target y calcula el cambio.
// assigneeID es obligatorio para ISSUED/SIGNED_OUT y prohibido para el resto;
// al salir de un estado asignado el usuario se libera automáticamente.
// No modifica el activo.
func Plan(a *entity.Asset, target entity.AssetState, assigneeID string) (Change, error) {
	if a == nil {
		return Change{}, domain.ErrNotFound
	}
	if !target.Valid() {
		return Change{}, domain.ErrInvalidInput
	}
	if a.IsArchived {
		return Change{}, domain.ErrAssetArchived
	}
	if !CanTransition(a.State, target) {
		return Change{}, &domain.TransitionError{From: string(a.State), To: string(target)}
	}
	if target.IsAssigned() && assigneeID == "" {
		return Change{}, domain.ErrMissingAssignee
	}
	if !target.IsAssigned() && assigneeID != "" {
		return Change{}, domain.ErrAssigneeNotCleared
	}

	ch := Change{
		Action:         entity.ActionTransition,
		From:           a.State,
		To:             target,
		PreviousUserID: a.AssignedUserID,
		NewUserID:      assigneeID,
	}
	switch {
	case target.IsAssigned():
		ch.Action = entity.ActionAssign
	case a.State.IsAssigned():
		ch.Action = entity.ActionUnassign
	}
	return ch, nil
}

// Apply aplica el cambio al activo (estado, usuario y auditoría) y devuelve el evento a registrar.
// El activo y el evento deben persistirse en la misma transacción.
func Apply(a *entity.Asset, ch Change, actor string, at time.Time) entity.AssignmentEvent {
	a.State = ch.To
	a.AssignedUserID = ch.NewUserID
	a.UpdatedAt = at
	a.UpdatedBy = actor
	return entity.AssignmentEvent{
		ID:             uuid.New().String(),
		AssetID:        a.ID,
		Action:         ch.Action,
		PreviousState:  ch.From,
		NewState:       ch.To,
		PreviousUserID: ch.PreviousUserID,
		NewUserID:      ch.NewUserID,
		Actor:          actor,
		OccurredAt:     at,
	}
}

// CheckConsistency verifica el invariante estado/usuario asignado.
func CheckConsistency(a *entity.Asset) error {
	if !a.State.Valid() {
		return domain.ErrInvalidInput
	}
	if a.State.IsAssigned() && a.AssignedUserID == "" {
		return domain.ErrMissingAssignee
	}
	if !a.State.IsAssigned() && a.AssignedUserID != "" {
		return domain.ErrAssigneeNotCleared
	}
	return nil
}
