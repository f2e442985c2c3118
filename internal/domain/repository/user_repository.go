package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// UserRepository puerto de solo lectura al directorio de usuarios (propiedad externa).
type UserRepository interface {
	// GetByID devuelve (nil, nil) si el usuario no existe.
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
