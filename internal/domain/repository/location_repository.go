package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// LocationRepository puerto de solo lectura al directorio de sedes.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	// GetByName busca por nombre sin distinguir mayúsculas.
	GetByName(ctx context.Context, name string) (*entity.Location, error)
}
