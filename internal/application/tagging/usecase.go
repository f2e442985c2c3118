// Package tagging arma la hoja de etiquetas (QR + número de activo) para el etiquetado físico.
package tagging

import (
	"context"
	"fmt"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Label datos impresos en una etiqueta.
type Label struct {
	AssetNumber  string
	Type         string
	SerialNumber string
	Location     string
}

// SheetGenerator renderiza las etiquetas en un documento imprimible.
type SheetGenerator interface {
	GenerateTagSheet(ctx context.Context, title string, labels []Label) ([]byte, error)
}

// TagSheetInput activos a etiquetar. Vacío = todos los HOLDING pendientes de verificación.
type TagSheetInput struct {
	AssetIDs []string
}

// UseCase generación de hojas de etiquetas.
type UseCase struct {
	assets    repository.AssetRepository
	locations repository.LocationRepository
	generator SheetGenerator
}

// NewUseCase construye el caso de uso.
func NewUseCase(assets repository.AssetRepository, locations repository.LocationRepository, gen SheetGenerator) *UseCase {
	return &UseCase{assets: assets, locations: locations, generator: gen}
}

// TagSheet devuelve el PDF de etiquetas. domain.ErrNotFound si un ID no existe o no hay nada que etiquetar.
func (uc *UseCase) TagSheet(ctx context.Context, in TagSheetInput) ([]byte, error) {
	assets, err := uc.selectAssets(ctx, in.AssetIDs)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, domain.ErrNotFound
	}

	names := make(map[string]string)
	labels := make([]Label, 0, len(assets))
	for _, a := range assets {
		name, ok := names[a.LocationID]
		if !ok {
			name = a.LocationID
			loc, err := uc.locations.GetByID(ctx, a.LocationID)
			if err != nil {
				return nil, fmt.Errorf("obtener sede: %w", err)
			}
			if loc != nil {
				name = loc.Name
			}
			names[a.LocationID] = name
		}
		labels = append(labels, Label{
			AssetNumber:  a.AssetNumber,
			Type:         string(a.Type),
			SerialNumber: a.SerialNumber,
			Location:     name,
		})
	}
	return uc.generator.GenerateTagSheet(ctx, "Etiquetas de activos", labels)
}

func (uc *UseCase) selectAssets(ctx context.Context, ids []string) ([]*entity.Asset, error) {
	if len(ids) == 0 {
		return uc.assets.List(ctx, entity.AssetFilter{States: []entity.AssetState{entity.StateHolding}})
	}
	out := make([]*entity.Asset, 0, len(ids))
	for _, id := range ids {
		a, err := uc.assets.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("activo %s: %w", id, domain.ErrNotFound)
		}
		out = append(out, a)
	}
	return out, nil
}
