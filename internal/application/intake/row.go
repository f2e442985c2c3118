package intake

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// RowRecord fila de importación ya leída por el parser. Todos los campos llegan como texto.
// Row es el número de línea de origen (para reportar rechazos).
type RowRecord struct {
	Row           int    `json:"row"`
	AssetNumber   string `json:"asset_number"`
	Type          string `json:"type"`
	SerialNumber  string `json:"serial_number"`
	Description   string `json:"description"`
	PurchasePrice string `json:"purchase_price"`
	Location      string `json:"location"`
	State         string `json:"state"`       // informativo: todo entra en HOLDING
	AssignedTo    string `json:"assigned_to"` // informativo: nunca crea asignación
}

// Nombres de campo usados en los rechazos.
const (
	FieldAssetNumber   = "asset_number"
	FieldType          = "type"
	FieldSerialNumber  = "serial_number"
	FieldPurchasePrice = "purchase_price"
	FieldLocation      = "location"
)

// Motivos de rechazo por fila.
const (
	ReasonMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ReasonDuplicateAssetNumber = "DUPLICATE_ASSET_NUMBER"
	ReasonUnknownAssetType     = "UNKNOWN_ASSET_TYPE"
	ReasonInvalidField         = "INVALID_FIELD"
	ReasonUnknownLocation      = "UNKNOWN_LOCATION"
)

// Rejection fila rechazada.
type Rejection struct {
	Row     int    `json:"row"`
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Notice observación sobre una fila aceptada (estado o asignado declarados que se ignoraron).
type Notice struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// IntakeReport resultado de la importación. Created en el orden de las filas.
type IntakeReport struct {
	Created  []*entity.Asset
	Rejected []Rejection
	Notices  []Notice
}
