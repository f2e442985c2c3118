package dto

import "github.com/jhoicas/Activos-api/internal/application/intake"

// IntakeRequest filas ya parseadas por el cliente.
type IntakeRequest struct {
	Rows []intake.RowRecord `json:"rows"`
}

// IntakeResponse reporte de importación.
type IntakeResponse struct {
	CreatedCount  int                `json:"created_count"`
	RejectedCount int                `json:"rejected_count"`
	Created       []AssetResponse    `json:"created"`
	Rejected      []intake.Rejection `json:"rejected"`
	Notices       []intake.Notice    `json:"notices"`
}

// NewIntakeResponse mapea el reporte.
func NewIntakeResponse(r *intake.IntakeReport) IntakeResponse {
	return IntakeResponse{
		CreatedCount:  len(r.Created),
		RejectedCount: len(r.Rejected),
		Created:       NewAssetResponses(r.Created),
		Rejected:      r.Rejected,
		Notices:       r.Notices,
	}
}
