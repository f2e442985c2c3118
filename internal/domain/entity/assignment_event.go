package entity

import "time"

// Acciones registradas en el historial del activo.
const (
	ActionCreate     = "CREATE"     // alta manual
	ActionIntake     = "INTAKE"     // alta por importación masiva
	ActionTransition = "TRANSITION" // cambio de estado sin asignación
	ActionAssign     = "ASSIGN"
	ActionUnassign   = "UNASSIGN"
	ActionArchive    = "ARCHIVE"
)

// AssignmentEvent registro inmutable de auditoría. Se crea en cada mutación exitosa y nunca se modifica.
// PreviousState vacío en altas.
type AssignmentEvent struct {
	ID             string
	AssetID        string
	Action         string
	PreviousState  AssetState
	NewState       AssetState
	PreviousUserID string // usuario desvinculado (si aplica)
	NewUserID      string // usuario vinculado (si aplica)
	Actor          string
	OccurredAt     time.Time
}
