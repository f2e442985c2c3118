package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// CreateAssetRequest alta manual. asset_number vacío = se genera por tipo.
type CreateAssetRequest struct {
	AssetNumber   string          `json:"asset_number"`
	Type          string          `json:"type"`
	SerialNumber  string          `json:"serial_number"`
	Description   string          `json:"description"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	LocationID    string          `json:"location_id"`
}

// TransitionRequest cambio de estado. assignee_id solo para ISSUED/SIGNED_OUT.
type TransitionRequest struct {
	TargetState string `json:"target_state"`
	AssigneeID  string `json:"assignee_id"`
}

// AssignRequest asignación a un usuario.
type AssignRequest struct {
	UserID string `json:"user_id"`
}

// BulkAssignRequest asignación masiva. type filtra la lista de disponibles devuelta.
type BulkAssignRequest struct {
	AssetIDs []string `json:"asset_ids"`
	UserID   string   `json:"user_id"`
	Type     string   `json:"type"`
}

// AssetResponse salida de un activo.
type AssetResponse struct {
	ID             string          `json:"id"`
	AssetNumber    string          `json:"asset_number"`
	Type           string          `json:"type"`
	State          string          `json:"state"`
	AssignedUserID string          `json:"assigned_user_id,omitempty"`
	LocationID     string          `json:"location_id"`
	SerialNumber   string          `json:"serial_number"`
	Description    string          `json:"description"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	IsArchived     bool            `json:"is_archived"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	UpdatedBy      string          `json:"updated_by"`
}

// AssetListResponse lista de activos.
type AssetListResponse struct {
	Items []AssetResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AssignmentEventResponse entrada del historial.
type AssignmentEventResponse struct {
	ID             string    `json:"id"`
	AssetID        string    `json:"asset_id"`
	Action         string    `json:"action"`
	PreviousState  string    `json:"previous_state,omitempty"`
	NewState       string    `json:"new_state"`
	PreviousUserID string    `json:"previous_user_id,omitempty"`
	NewUserID      string    `json:"new_user_id,omitempty"`
	Actor          string    `json:"actor"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// AssignmentEventListResponse historial paginado.
type AssignmentEventListResponse struct {
	Items []AssignmentEventResponse `json:"items"`
	Page  PageResponse              `json:"page"`
}

// BulkFailureResponse activo no asignado en el lote.
type BulkFailureResponse struct {
	AssetID string `json:"asset_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkAssignResponse resultado parcial del lote y disponibles actualizados.
type BulkAssignResponse struct {
	Succeeded []AssetResponse       `json:"succeeded"`
	Failed    []BulkFailureResponse `json:"failed"`
	Available []AssetResponse       `json:"available"`
}

// NewAssetResponse mapea la entidad.
func NewAssetResponse(a *entity.Asset) AssetResponse {
	return AssetResponse{
		ID:             a.ID,
		AssetNumber:    a.AssetNumber,
		Type:           string(a.Type),
		State:          string(a.State),
		AssignedUserID: a.AssignedUserID,
		LocationID:     a.LocationID,
		SerialNumber:   a.SerialNumber,
		Description:    a.Description,
		PurchasePrice:  a.PurchasePrice,
		IsArchived:     a.IsArchived,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		UpdatedBy:      a.UpdatedBy,
	}
}

// NewAssetResponses mapea una lista (nunca devuelve nil).
func NewAssetResponses(list []*entity.Asset) []AssetResponse {
	out := make([]AssetResponse, len(list))
	for i, a := range list {
		out[i] = NewAssetResponse(a)
	}
	return out
}

// NewAssignmentEventResponses mapea el historial.
func NewAssignmentEventResponses(list []*entity.AssignmentEvent) []AssignmentEventResponse {
	out := make([]AssignmentEventResponse, len(list))
	for i, e := range list {
		out[i] = AssignmentEventResponse{
			ID:             e.ID,
			AssetID:        e.AssetID,
			Action:         e.Action,
			PreviousState:  string(e.PreviousState),
			NewState:       string(e.NewState),
			PreviousUserID: e.PreviousUserID,
			NewUserID:      e.NewUserID,
			Actor:          e.Actor,
			OccurredAt:     e.OccurredAt,
		}
	}
	return out
}

// NewBulkAssignResponse mapea el resultado del lote.
func NewBulkAssignResponse(r *lifecycle.BulkAssignResult) BulkAssignResponse {
	failed := make([]BulkFailureResponse, len(r.Failed))
	for i, f := range r.Failed {
		failed[i] = BulkFailureResponse{AssetID: f.AssetID, Code: f.Code, Message: f.Message}
	}
	return BulkAssignResponse{
		Succeeded: NewAssetResponses(r.Succeeded),
		Failed:    failed,
		Available: NewAssetResponses(r.Available),
	}
}
