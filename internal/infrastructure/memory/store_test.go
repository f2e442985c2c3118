package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

func newAsset(id, number string, state entity.AssetState) *entity.Asset {
	return &entity.Asset{ID: id, AssetNumber: number, Type: entity.AssetTypeLaptop, State: state, LocationID: "hq"}
}

// ─── Activos ───────────────────────────────────────────────────────────────────

func TestAssetRepo_CreateDuplicado(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Assets().Create(ctx, newAsset("a1", "LAP-00001", entity.StateAvailable)))

	err := s.Assets().Create(ctx, newAsset("a2", "LAP-00001", entity.StateAvailable))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestAssetRepo_DevuelveCopias(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Assets().Create(ctx, newAsset("a1", "LAP-00001", entity.StateAvailable)))

	a, err := s.Assets().GetByID(ctx, "a1")
	require.NoError(t, err)
	a.State = entity.StateBuilding

	again, _ := s.Assets().GetByID(ctx, "a1")
	assert.Equal(t, entity.StateAvailable, again.State)

	missing, err := s.Assets().GetByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAssetRepo_ListOrdenaYFiltra(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Assets().Create(ctx, newAsset("a3", "LAP-00003", entity.StateReadyToGo)))
	require.NoError(t, s.Assets().Create(ctx, newAsset("a1", "LAP-00001", entity.StateAvailable)))
	require.NoError(t, s.Assets().Create(ctx, newAsset("a2", "LAP-00002", entity.StateHolding)))
	archived := newAsset("a4", "LAP-00004", entity.StateAvailable)
	archived.IsArchived = true
	require.NoError(t, s.Assets().Create(ctx, archived))

	list, err := s.Assets().List(ctx, entity.AssetFilter{
		States: []entity.AssetState{entity.StateAvailable, entity.StateReadyToGo},
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "LAP-00001", list[0].AssetNumber)
	assert.Equal(t, "LAP-00003", list[1].AssetNumber)

	page, _ := s.Assets().List(ctx, entity.AssetFilter{IncludeArchived: true, Limit: 2, Offset: 2})
	require.Len(t, page, 2)
	assert.Equal(t, "LAP-00003", page[0].AssetNumber)
}

func TestAssetRepo_NextSequencePorPrefijo(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	n1, _ := s.Assets().NextSequence(ctx, "LAP")
	n2, _ := s.Assets().NextSequence(ctx, "LAP")
	m1, _ := s.Assets().NextSequence(ctx, "PHN")
	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
	assert.Equal(t, int64(1), m1)
}

// ─── Transacciones ─────────────────────────────────────────────────────────────

func TestTxRunner_RollbackDeshaceEscrituras(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Assets().Create(ctx, newAsset("a1", "LAP-00001", entity.StateAvailable)))

	boom := errors.New("boom")
	err := NewTxRunner(s).Run(ctx, func(assets repository.AssetRepository, events repository.AssignmentEventRepository) error {
		a, _ := assets.GetForUpdate(ctx, "a1")
		a.State = entity.StateBuilding
		require.NoError(t, assets.Update(ctx, a))
		require.NoError(t, assets.Create(ctx, newAsset("a2", "LAP-00002", entity.StateHolding)))
		require.NoError(t, events.Append(ctx, &entity.AssignmentEvent{ID: "e1", AssetID: "a1", Action: entity.ActionTransition}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	a, _ := s.Assets().GetByID(ctx, "a1")
	assert.Equal(t, entity.StateAvailable, a.State)
	missing, _ := s.Assets().GetByAssetNumber(ctx, "LAP-00002")
	assert.Nil(t, missing)
	evs, _ := s.Events().ListByAsset(ctx, "a1", 0, 0)
	assert.Empty(t, evs)
}

func TestTxRunner_CommitConservaEscrituras(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	err := NewTxRunner(s).Run(ctx, func(assets repository.AssetRepository, events repository.AssignmentEventRepository) error {
		if err := assets.Create(ctx, newAsset("a1", "LAP-00001", entity.StateHolding)); err != nil {
			return err
		}
		return events.Append(ctx, &entity.AssignmentEvent{ID: "e1", AssetID: "a1", Action: entity.ActionIntake})
	})
	require.NoError(t, err)

	evs, _ := s.Events().ListByAsset(ctx, "a1", 0, 0)
	require.Len(t, evs, 1)
	assert.Equal(t, entity.ActionIntake, evs[0].Action)
}

func TestTxRunner_LecturasExternasSoloVenLoConfirmado(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Assets().Create(ctx, newAsset("a1", "LAP-00001", entity.StateAvailable)))

	err := NewTxRunner(s).Run(ctx, func(assets repository.AssetRepository, events repository.AssignmentEventRepository) error {
		a, _ := assets.GetForUpdate(ctx, "a1")
		a.State = entity.StateSignedOut
		a.AssignedUserID = "u1"
		require.NoError(t, assets.Update(ctx, a))
		require.NoError(t, assets.Create(ctx, newAsset("a2", "LAP-00002", entity.StateHolding)))
		require.NoError(t, events.Append(ctx, &entity.AssignmentEvent{ID: "e1", AssetID: "a1", Action: entity.ActionAssign}))

		// la transacción ve sus propias escrituras
		own, _ := assets.GetByID(ctx, "a1")
		assert.Equal(t, entity.StateSignedOut, own.State)
		dup := assets.Create(ctx, newAsset("a3", "LAP-00002", entity.StateHolding))
		assert.ErrorIs(t, dup, domain.ErrDuplicate)
		evs, _ := events.ListByAsset(ctx, "a1", 0, 0)
		assert.Len(t, evs, 1)

		// fuera de la transacción nada cambió todavía
		avail, _ := s.Assets().List(ctx, entity.AssetFilter{States: []entity.AssetState{entity.StateAvailable}})
		require.Len(t, avail, 1)
		assert.Equal(t, "a1", avail[0].ID)
		pending, _ := s.Assets().GetByID(ctx, "a2")
		assert.Nil(t, pending)
		committedEvs, _ := s.Events().ListByAsset(ctx, "a1", 0, 0)
		assert.Empty(t, committedEvs)

		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	a, _ := s.Assets().GetByID(context.Background(), "a1")
	assert.Equal(t, entity.StateAvailable, a.State)
	missing, _ := s.Assets().GetByID(context.Background(), "a2")
	assert.Nil(t, missing)
}

func TestTxRunner_CommitDetectaNumeroTomado(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	err := NewTxRunner(s).Run(ctx, func(assets repository.AssetRepository, _ repository.AssignmentEventRepository) error {
		require.NoError(t, assets.Create(ctx, newAsset("a1", "LAP-00001", entity.StateHolding)))
		// otra escritura confirma el mismo número mientras la transacción sigue abierta
		require.NoError(t, s.Assets().Create(ctx, newAsset("b1", "LAP-00001", entity.StateHolding)))
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, _ := s.Assets().GetByAssetNumber(ctx, "LAP-00001")
	require.NotNil(t, got)
	assert.Equal(t, "b1", got.ID)
}

// ─── Directorios ───────────────────────────────────────────────────────────────

func TestDirectorios(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.PutUser(entity.User{ID: "u1", Name: "Ana", Role: entity.RoleUser, Active: true})
	s.PutLocation(entity.Location{ID: "hq", Name: "Sede Central"})

	u, err := s.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	none, _ := s.Users().GetByID(ctx, "u2")
	assert.Nil(t, none)

	l, _ := s.Locations().GetByName(ctx, "sede central")
	require.NotNil(t, l)
	assert.Equal(t, "hq", l.ID)
}
