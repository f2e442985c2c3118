package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset representa un activo físico de TI (portátil, teléfono, monitor...).
// AssignedUserID no vacío si y solo si State es ISSUED o SIGNED_OUT.
type Asset struct {
	ID             string
	AssetNumber    string // único, <PREFIJO>-NNNNN
	Type           AssetType
	State          AssetState
	AssignedUserID string
	LocationID     string
	SerialNumber   string
	Description    string
	PurchasePrice  decimal.Decimal
	IsArchived     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UpdatedBy      string
}

// Clone devuelve una copia independiente (los stores no deben compartir punteros con el caller).
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// AssetFilter criterios de listado.
type AssetFilter struct {
	States          []AssetState
	Type            *AssetType
	LocationID      string
	AssignedUserID  string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Matches evalúa el filtro en memoria (usado por el store en memoria).
func (f AssetFilter) Matches(a *Asset) bool {
	if a.IsArchived && !f.IncludeArchived {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.LocationID != "" && a.LocationID != f.LocationID {
		return false
	}
	if f.AssignedUserID != "" && a.AssignedUserID != f.AssignedUserID {
		return false
	}
	if len(f.States) > 0 {
		for _, s := range f.States {
			if a.State == s {
				return true
			}
		}
		return false
	}
	return true
}
