package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// AssetRepository define el puerto de persistencia para Asset (DIP).
// GetByID/GetForUpdate/GetByAssetNumber devuelven (nil, nil) si no existe.
type AssetRepository interface {
	// Create persiste un activo nuevo. Devuelve domain.ErrDuplicate si el número de activo ya existe.
	Create(ctx context.Context, asset *entity.Asset) error
	GetByID(ctx context.Context, id string) (*entity.Asset, error)
	// GetForUpdate obtiene el activo y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Asset, error)
	GetByAssetNumber(ctx context.Context, assetNumber string) (*entity.Asset, error)
	// Update persiste estado, asignación, archivado y auditoría.
	Update(ctx context.Context, asset *entity.Asset) error
	// List devuelve activos según filtro, ordenados por número de activo.
	List(ctx context.Context, filter entity.AssetFilter) ([]*entity.Asset, error)
	// NextSequence reserva el siguiente valor de la secuencia del prefijo (por tipo).
	NextSequence(ctx context.Context, prefix string) (int64, error)
}
