package entity

import "strings"

// AssetState estado del ciclo de vida de un activo.
type AssetState string

// Estados del ciclo de vida.
const (
	StateHolding   AssetState = "HOLDING"     // importado, pendiente de verificación física
	StateAvailable AssetState = "AVAILABLE"   // en stock, sin asignar
	StateBuilding  AssetState = "BUILDING"    // en preparación (imagen, accesorios)
	StateReadyToGo AssetState = "READY_TO_GO" // preparado, listo para entregar
	StateIssued    AssetState = "ISSUED"      // entregado tras preparación completa
	StateSignedOut AssetState = "SIGNED_OUT"  // prestado sin preparación completa
)

// AssetStates devuelve todos los estados en el orden del ciclo de vida.
func AssetStates() []AssetState {
	return []AssetState{StateHolding, StateAvailable, StateBuilding, StateReadyToGo, StateIssued, StateSignedOut}
}

// ParseAssetState interpreta un estado sin distinguir mayúsculas ("ready_to_go", "Ready-To-Go").
func ParseAssetState(s string) (AssetState, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	st := AssetState(norm)
	return st, st.Valid()
}

// Valid indica si el estado existe.
func (s AssetState) Valid() bool {
	switch s {
	case StateHolding, StateAvailable, StateBuilding, StateReadyToGo, StateIssued, StateSignedOut:
		return true
	}
	return false
}

// IsAssigned es verdadero solo para los estados que llevan usuario asignado.
func (s AssetState) IsAssigned() bool {
	return s == StateIssued || s == StateSignedOut
}

// IsAssignable es verdadero para los estados desde los que se puede asignar.
func (s AssetState) IsAssignable() bool {
	return s == StateAvailable || s == StateReadyToGo
}
