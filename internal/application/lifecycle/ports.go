package lifecycle

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que estado, asignación y evento de auditoría se escriban como una sola unidad.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		assetRepo repository.AssetRepository,
		eventRepo repository.AssignmentEventRepository,
	) error) error
}

// AssetLocker serializa las operaciones sobre un mismo activo (clave = ID del activo).
// Operaciones sobre activos distintos no se bloquean entre sí.
type AssetLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventPublisher entrega los eventos de asignación al sink externo de auditoría.
// Se invoca después del commit; un error no revierte la operación.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.AssignmentEvent) error
}

// NopPublisher descarta los eventos (sin broker configurado).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, entity.AssignmentEvent) error { return nil }
