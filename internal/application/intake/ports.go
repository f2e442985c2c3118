package intake

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner transacción por fila: el activo y su evento INTAKE se escriben juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		assetRepo repository.AssetRepository,
		eventRepo repository.AssignmentEventRepository,
	) error) error
}

// EventPublisher sink externo de eventos (best effort, después del commit).
type EventPublisher interface {
	Publish(ctx context.Context, event entity.AssignmentEvent) error
}
