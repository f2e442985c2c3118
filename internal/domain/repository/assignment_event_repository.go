package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// AssignmentEventRepository historial append-only de cada activo. No existe Update ni Delete.
type AssignmentEventRepository interface {
	Append(ctx context.Context, event *entity.AssignmentEvent) error
	// ListByAsset devuelve los eventos del activo del más antiguo al más reciente.
	ListByAsset(ctx context.Context, assetID string, limit, offset int) ([]*entity.AssignmentEvent, error)
}
