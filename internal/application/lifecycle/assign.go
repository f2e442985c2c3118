package lifecycle

import (
	"context"
	"time"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	domainlc "github.com/jhoicas/Activos-api/internal/domain/lifecycle"
)

// Assign vincula el activo al usuario. Desde AVAILABLE queda SIGNED_OUT (préstamo directo);
// desde READY_TO_GO queda ISSUED (equipo preparado).
//
// Con dos solicitudes simultáneas sobre el mismo activo, la que llega segunda encuentra el
// activo ya vinculado a otro usuario y falla con domain.ErrAlreadyAssigned. Un activo que
// nunca estuvo disponible falla con domain.ErrAssetNotAvailable.
func (uc *UseCase) Assign(ctx context.Context, assetID, userID, actor string) (*entity.Asset, error) {
	if assetID == "" || userID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.rejectArchived(ctx, assetID); err != nil {
		return nil, err
	}
	if err := uc.ensureActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	return uc.assignChecked(ctx, assetID, userID, actor)
}

// assignChecked asigna sin volver a consultar el directorio (usuario ya verificado).
func (uc *UseCase) assignChecked(ctx context.Context, assetID, userID, actor string) (*entity.Asset, error) {
	return uc.mutate(ctx, assetID, actor, func(a *entity.Asset, at time.Time) (entity.AssignmentEvent, error) {
		target, err := assignTarget(a, userID)
		if err != nil {
			return entity.AssignmentEvent{}, err
		}
		ch, err := domainlc.Plan(a, target, userID)
		if err != nil {
			return entity.AssignmentEvent{}, err
		}
		return domainlc.Apply(a, ch, actor, at), nil
	})
}

// assignTarget decide el estado asignado de destino o el motivo de rechazo.
func assignTarget(a *entity.Asset, userID string) (entity.AssetState, error) {
	if a.IsArchived {
		return "", domain.ErrAssetArchived
	}
	if a.State.IsAssigned() {
		if a.AssignedUserID != userID {
			return "", domain.ErrAlreadyAssigned
		}
		return "", domain.ErrAssetNotAvailable
	}
	switch a.State {
	case entity.StateAvailable:
		return entity.StateSignedOut, nil
	case entity.StateReadyToGo:
		return entity.StateIssued, nil
	default:
		return "", domain.ErrAssetNotAvailable
	}
}

// Unassign devuelve el activo: ISSUED/SIGNED_OUT -> AVAILABLE, sin usuario.
func (uc *UseCase) Unassign(ctx context.Context, assetID, actor string) (*entity.Asset, error) {
	return uc.mutate(ctx, assetID, actor, func(a *entity.Asset, at time.Time) (entity.AssignmentEvent, error) {
		if a.IsArchived {
			return entity.AssignmentEvent{}, domain.ErrAssetArchived
		}
		if !a.State.IsAssigned() {
			return entity.AssignmentEvent{}, domain.ErrNotAssigned
		}
		ch, err := domainlc.Plan(a, entity.StateAvailable, "")
		if err != nil {
			return entity.AssignmentEvent{}, err
		}
		return domainlc.Apply(a, ch, actor, at), nil
	})
}
