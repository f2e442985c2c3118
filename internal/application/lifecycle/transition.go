package lifecycle

import (
	"context"
	"time"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	domainlc "github.com/jhoicas/Activos-api/internal/domain/lifecycle"
)

// TransitionInput cambio de estado solicitado por un operador.
// AssigneeID solo se informa cuando Target es ISSUED o SIGNED_OUT.
type TransitionInput struct {
	AssetID    string
	Target     entity.AssetState
	AssigneeID string
	Actor      string
}

// TransitionState mueve el activo al estado destino validando la tabla de aristas.
// Al salir de un estado asignado el usuario se libera en la misma escritura.
func (uc *UseCase) TransitionState(ctx context.Context, in TransitionInput) (*entity.Asset, error) {
	if in.AssetID == "" || in.Actor == "" || !in.Target.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if in.Target.IsAssigned() && in.AssigneeID != "" {
		if err := uc.rejectArchived(ctx, in.AssetID); err != nil {
			return nil, err
		}
		if err := uc.ensureActiveUser(ctx, in.AssigneeID); err != nil {
			return nil, err
		}
	}
	return uc.mutate(ctx, in.AssetID, in.Actor, func(a *entity.Asset, at time.Time) (entity.AssignmentEvent, error) {
		if !a.IsArchived && in.Target.IsAssigned() && a.State.IsAssigned() &&
			in.AssigneeID != "" && a.AssignedUserID != in.AssigneeID {
			return entity.AssignmentEvent{}, domain.ErrAlreadyAssigned
		}
		ch, err := domainlc.Plan(a, in.Target, in.AssigneeID)
		if err != nil {
			return entity.AssignmentEvent{}, err
		}
		return domainlc.Apply(a, ch, in.Actor, at), nil
	})
}
