package intake_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/application/intake"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const actor = "importador@empresa.co"

func newIntake(t *testing.T) (*intake.UseCase, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	s.PutLocation(entity.Location{ID: "intake", Name: "Recepción"})
	s.PutLocation(entity.Location{ID: "bog", Name: "Bogotá"})
	uc := intake.NewUseCase(intake.Deps{
		TxRunner:          memory.NewTxRunner(s),
		Locations:         s.Locations(),
		DefaultLocationID: "intake",
		Now:               func() time.Time { return time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC) },
	})
	return uc, s
}

func row(n int, typ, serial string) intake.RowRecord {
	return intake.RowRecord{Row: n, Type: typ, SerialNumber: serial}
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación por fila
// ──────────────────────────────────────────────────────────────────────────────

func TestIntake_FilaSinCampoRequerido(t *testing.T) {
	uc, s := newIntake(t)
	rows := []intake.RowRecord{
		row(1, "laptop", "SN1"),
		row(2, "laptop", "SN2"),
		row(3, "laptop", ""),
		row(4, "phone", "SN4"),
		row(5, "monitor", "SN5"),
	}

	rep, err := uc.Intake(context.Background(), actor, rows)
	require.NoError(t, err)

	require.Len(t, rep.Created, 4)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, 3, rep.Rejected[0].Row)
	assert.Equal(t, intake.ReasonMissingRequiredField, rep.Rejected[0].Reason)
	assert.Equal(t, intake.FieldSerialNumber, rep.Rejected[0].Field)

	for _, a := range rep.Created {
		stored, err := s.Assets().GetByID(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateHolding, stored.State)
		assert.Empty(t, stored.AssignedUserID)
		assert.Equal(t, "intake", stored.LocationID)

		evs, _ := s.Events().ListByAsset(context.Background(), a.ID, 0, 0)
		require.Len(t, evs, 1)
		assert.Equal(t, entity.ActionIntake, evs[0].Action)
	}
	assert.Equal(t, "LAP-00001", rep.Created[0].AssetNumber)
	assert.Equal(t, "LAP-00002", rep.Created[1].AssetNumber)
	assert.Equal(t, "PHN-00001", rep.Created[2].AssetNumber)
}

func TestIntake_EstadoDeclaradoQuedaEnHolding(t *testing.T) {
	uc, _ := newIntake(t)
	r := row(7, "laptop", "SN7")
	r.State = "Active"
	r.AssignedTo = "ana@empresa.co"

	rep, err := uc.Intake(context.Background(), actor, []intake.RowRecord{r})
	require.NoError(t, err)
	require.Len(t, rep.Created, 1)
	assert.Equal(t, entity.StateHolding, rep.Created[0].State)
	assert.Empty(t, rep.Created[0].AssignedUserID)
	require.Len(t, rep.Notices, 2)
	assert.Equal(t, 7, rep.Notices[0].Row)
	assert.Contains(t, rep.Notices[0].Message, "Active")
	assert.Contains(t, rep.Notices[1].Message, "ana@empresa.co")
}

func TestIntake_EstadoHoldingSinAviso(t *testing.T) {
	uc, _ := newIntake(t)
	r := row(1, "laptop", "SN1")
	r.State = "holding"

	rep, err := uc.Intake(context.Background(), actor, []intake.RowRecord{r})
	require.NoError(t, err)
	assert.Empty(t, rep.Notices)
}

func TestIntake_Rechazos(t *testing.T) {
	uc, s := newIntake(t)
	ctx := context.Background()
	require.NoError(t, s.Assets().Create(ctx, &entity.Asset{
		ID: "x", AssetNumber: "LAP-00050", Type: entity.AssetTypeLaptop, State: entity.StateAvailable, LocationID: "bog",
	}))

	tests := []struct {
		name   string
		row    intake.RowRecord
		reason string
		field  string
	}{
		{"sin tipo", intake.RowRecord{Row: 1, SerialNumber: "S"}, intake.ReasonMissingRequiredField, intake.FieldType},
		{"tipo desconocido", row(2, "toaster", "S"), intake.ReasonUnknownAssetType, intake.FieldType},
		{"precio inválido", intake.RowRecord{Row: 3, Type: "laptop", SerialNumber: "S", PurchasePrice: "mil"}, intake.ReasonInvalidField, intake.FieldPurchasePrice},
		{"precio negativo", intake.RowRecord{Row: 4, Type: "laptop", SerialNumber: "S", PurchasePrice: "-5"}, intake.ReasonInvalidField, intake.FieldPurchasePrice},
		{"número con otro prefijo", intake.RowRecord{Row: 5, Type: "laptop", SerialNumber: "S", AssetNumber: "PHN-00001"}, intake.ReasonInvalidField, intake.FieldAssetNumber},
		{"número existente", intake.RowRecord{Row: 6, Type: "laptop", SerialNumber: "S", AssetNumber: "LAP-00050"}, intake.ReasonDuplicateAssetNumber, intake.FieldAssetNumber},
		{"sede desconocida", intake.RowRecord{Row: 7, Type: "laptop", SerialNumber: "S", Location: "Marte"}, intake.ReasonUnknownLocation, intake.FieldLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := uc.Intake(ctx, actor, []intake.RowRecord{tt.row})
			require.NoError(t, err)
			assert.Empty(t, rep.Created)
			require.Len(t, rep.Rejected, 1)
			assert.Equal(t, tt.row.Row, rep.Rejected[0].Row)
			assert.Equal(t, tt.reason, rep.Rejected[0].Reason)
			assert.Equal(t, tt.field, rep.Rejected[0].Field)
		})
	}
}

func TestIntake_DuplicadoDentroDelLote(t *testing.T) {
	uc, _ := newIntake(t)
	rows := []intake.RowRecord{
		{Row: 2, Type: "laptop", SerialNumber: "A", AssetNumber: "LAP-00010"},
		{Row: 3, Type: "laptop", SerialNumber: "B", AssetNumber: "lap-00010"},
		{Row: 4, Type: "laptop", SerialNumber: "C"},
	}
	rep, err := uc.Intake(context.Background(), actor, rows)
	require.NoError(t, err)
	require.Len(t, rep.Created, 2)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, 3, rep.Rejected[0].Row)
	assert.Equal(t, intake.ReasonDuplicateAssetNumber, rep.Rejected[0].Reason)
	assert.Equal(t, "LAP-00001", rep.Created[1].AssetNumber)
}

func TestIntake_CamposOpcionales(t *testing.T) {
	uc, _ := newIntake(t)
	r := intake.RowRecord{
		Row: 2, Type: " Monitor ", SerialNumber: " MN-77 ", Description: "27 pulgadas",
		PurchasePrice: "$ 1,250,000.50", Location: "bogotá",
	}
	rep, err := uc.Intake(context.Background(), actor, []intake.RowRecord{r})
	require.NoError(t, err)
	require.Len(t, rep.Created, 1)
	a := rep.Created[0]
	assert.Equal(t, entity.AssetTypeMonitor, a.Type)
	assert.Equal(t, "MN-77", a.SerialNumber)
	assert.Equal(t, "bog", a.LocationID)
	assert.True(t, decimal.RequireFromString("1250000.50").Equal(a.PurchasePrice))
	assert.Equal(t, actor, a.UpdatedBy)
}

func TestIntake_SinActor(t *testing.T) {
	uc, _ := newIntake(t)
	_, err := uc.Intake(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIntake_ContextoCancelado(t *testing.T) {
	uc, _ := newIntake(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := uc.Intake(ctx, actor, []intake.RowRecord{row(1, "laptop", "S")})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Empty(t, rep.Created)
}
