package lifecycle

import (
	"context"
	"errors"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// BulkAssignInput selección de activos a entregar a un mismo usuario.
// Type filtra la lista de disponibles que se devuelve al terminar.
type BulkAssignInput struct {
	AssetIDs []string
	UserID   string
	Actor    string
	Type     *entity.AssetType
}

// BulkFailure activo que no pudo asignarse y su código estable.
type BulkFailure struct {
	AssetID string
	Code    string
	Message string
}

// BulkAssignResult resultado parcial del lote. Available es la lista de asignables
// consultada de nuevo tras el lote (nil si la consulta falló).
type BulkAssignResult struct {
	Succeeded []*entity.Asset
	Failed    []BulkFailure
	Available []*entity.Asset
}

// BulkAssign asigna los activos uno a uno en el orden recibido. Un fallo no detiene el lote
// y las asignaciones ya aplicadas se conservan aunque el contexto se cancele a mitad.
// Reenviar la misma selección deja los ya asignados en Failed con ASSET_NOT_AVAILABLE.
func (uc *UseCase) BulkAssign(ctx context.Context, in BulkAssignInput) (*BulkAssignResult, error) {
	if in.UserID == "" || in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	res := &BulkAssignResult{
		Succeeded: make([]*entity.Asset, 0, len(in.AssetIDs)),
		Failed:    make([]BulkFailure, 0),
	}

	userErr := uc.ensureActiveUser(ctx, in.UserID)
	if userErr != nil && !errors.Is(userErr, domain.ErrUserNotFound) {
		return nil, userErr
	}

	for _, id := range in.AssetIDs {
		if userErr != nil {
			if err := uc.rejectArchived(ctx, id); err != nil {
				res.fail(id, err)
				continue
			}
			res.fail(id, userErr)
			continue
		}
		if err := ctx.Err(); err != nil {
			res.fail(id, err)
			continue
		}
		var (
			a   *entity.Asset
			err error
		)
		if id == "" {
			err = domain.ErrInvalidInput
		} else {
			a, err = uc.assignChecked(ctx, id, in.UserID, in.Actor)
		}
		if err != nil {
			res.fail(id, err)
			continue
		}
		res.Succeeded = append(res.Succeeded, a)
	}

	available, err := uc.ListAvailable(context.WithoutCancel(ctx), in.Type)
	if err != nil {
		uc.log.Error().Err(err).Msg("consultar disponibles tras asignación masiva")
	} else {
		res.Available = available
	}

	uc.log.Info().
		Str("user_id", in.UserID).
		Str("actor", in.Actor).
		Int("requested", len(in.AssetIDs)).
		Int("succeeded", len(res.Succeeded)).
		Int("failed", len(res.Failed)).
		Msg("asignación masiva")
	return res, nil
}

func (r *BulkAssignResult) fail(assetID string, err error) {
	r.Failed = append(r.Failed, BulkFailure{
		AssetID: assetID,
		Code:    domain.Code(err),
		Message: err.Error(),
	})
}
