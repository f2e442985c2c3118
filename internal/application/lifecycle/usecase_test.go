package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	actor    = "admin@empresa.co"
	userAna  = "user-ana"
	userLuis = "user-luis"
	userOff  = "user-inactivo"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.AssignmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e entity.AssignmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	store *memory.Store
	uc    *lifecycle.UseCase
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	s.PutLocation(entity.Location{ID: "hq", Name: "Sede Central"})
	s.PutUser(entity.User{ID: userAna, Name: "Ana", Role: entity.RoleUser, Active: true})
	s.PutUser(entity.User{ID: userLuis, Name: "Luis", Role: entity.RoleUser, Active: true})
	s.PutUser(entity.User{ID: userOff, Name: "Retirado", Role: entity.RoleUser, Active: false})

	pub := &recordingPublisher{}
	uc := lifecycle.NewUseCase(lifecycle.Deps{
		TxRunner:          memory.NewTxRunner(s),
		Assets:            s.Assets(),
		Events:            s.Events(),
		Users:             s.Users(),
		Locations:         s.Locations(),
		Publisher:         pub,
		DefaultLocationID: "hq",
		Now:               func() time.Time { return fixedNow },
	})
	return &fixture{store: s, uc: uc, pub: pub}
}

// seed inserta un activo directamente en el store con el estado indicado.
func (f *fixture) seed(t *testing.T, id, number string, state entity.AssetState, assignee string) *entity.Asset {
	t.Helper()
	a := &entity.Asset{
		ID:             id,
		AssetNumber:    number,
		Type:           entity.AssetTypeLaptop,
		State:          state,
		AssignedUserID: assignee,
		LocationID:     "hq",
		SerialNumber:   "SN-" + id,
		Description:    "Portátil 14\"",
		PurchasePrice:  decimal.RequireFromString("3500000.00"),
		CreatedAt:      fixedNow.Add(-time.Hour),
		UpdatedAt:      fixedNow.Add(-time.Hour),
		UpdatedBy:      "seed",
	}
	require.NoError(t, f.store.Assets().Create(context.Background(), a))
	return a
}

func (f *fixture) get(t *testing.T, id string) *entity.Asset {
	t.Helper()
	a, err := f.store.Assets().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func (f *fixture) history(t *testing.T, id string) []*entity.AssignmentEvent {
	t.Helper()
	evs, err := f.store.Events().ListByAsset(context.Background(), id, 0, 0)
	require.NoError(t, err)
	return evs
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta manual
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_GeneraNumeroPorTipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a1, err := f.uc.Create(ctx, lifecycle.CreateAssetInput{Type: "Laptop", SerialNumber: "X1", Actor: actor})
	require.NoError(t, err)
	a2, err := f.uc.Create(ctx, lifecycle.CreateAssetInput{Type: "laptop", SerialNumber: "X2", Actor: actor})
	require.NoError(t, err)
	p1, err := f.uc.Create(ctx, lifecycle.CreateAssetInput{Type: "phone", SerialNumber: "P1", Actor: actor})
	require.NoError(t, err)

	assert.Equal(t, "LAP-00001", a1.AssetNumber)
	assert.Equal(t, "LAP-00002", a2.AssetNumber)
	assert.Equal(t, "PHN-00001", p1.AssetNumber)
	assert.Equal(t, entity.StateAvailable, a1.State)
	assert.Empty(t, a1.AssignedUserID)
	assert.Equal(t, "hq", a1.LocationID)

	evs := f.history(t, a1.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, entity.ActionCreate, evs[0].Action)
	assert.Equal(t, 3, f.pub.count())
}

func TestCreate_SaltaNumerosTomadosManualmente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, lifecycle.CreateAssetInput{AssetNumber: "lap-00001", Type: "laptop", Actor: actor})
	require.NoError(t, err)
	a, err := f.uc.Create(ctx, lifecycle.CreateAssetInput{Type: "laptop", Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, "LAP-00002", a.AssetNumber)
}

func TestCreate_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Create(ctx, lifecycle.CreateAssetInput{AssetNumber: "LAP-00007", Type: "laptop", Actor: actor})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   lifecycle.CreateAssetInput
		want error
	}{
		{"tipo desconocido", lifecycle.CreateAssetInput{Type: "toaster", Actor: actor}, domain.ErrUnknownAssetType},
		{"sin actor", lifecycle.CreateAssetInput{Type: "laptop"}, domain.ErrInvalidInput},
		{"prefijo incorrecto", lifecycle.CreateAssetInput{AssetNumber: "PHN-00001", Type: "laptop", Actor: actor}, domain.ErrInvalidInput},
		{"precio negativo", lifecycle.CreateAssetInput{Type: "laptop", PurchasePrice: decimal.NewFromInt(-1), Actor: actor}, domain.ErrInvalidInput},
		{"sede inexistente", lifecycle.CreateAssetInput{Type: "laptop", LocationID: "bodega-9", Actor: actor}, domain.ErrNotFound},
		{"número duplicado", lifecycle.CreateAssetInput{AssetNumber: "LAP-00007", Type: "laptop", Actor: actor}, domain.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransitionState_CaminoDePreparacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "a1", "LAP-00001", entity.StateHolding, "")

	steps := []entity.AssetState{entity.StateAvailable, entity.StateBuilding, entity.StateReadyToGo}
	for _, target := range steps {
		a, err := f.uc.TransitionState(ctx, lifecycle.TransitionInput{AssetID: "a1", Target: target, Actor: actor})
		require.NoError(t, err, "transición a %s", target)
		assert.Equal(t, target, a.State)
	}
	a, err := f.uc.TransitionState(ctx, lifecycle.TransitionInput{AssetID: "a1", Target: entity.StateIssued, AssigneeID: userAna, Actor: actor})
	require.NoError(t, err)
	assert.Equal(t, userAna, a.AssignedUserID)

	a, err = f.uc.TransitionState(ctx, lifecycle.TransitionInput{AssetID: "a1", Target: entity.StateAvailable, Actor: actor})
	require.NoError(t, err)
	assert.Empty(t, a.AssignedUserID, "al salir de ISSUED se libera el usuario")

	evs := f.history(t, "a1")
	require.Len(t, evs, 5)
	assert.Equal(t, entity.ActionAssign, evs[3].Action)
	assert.Equal(t, entity.ActionUnassign, evs[4].Action)
	assert.Equal(t, userAna, evs[4].PreviousUserID)
}

func TestTransitionState_AristaIlegalNoModifica(t *testing.T) {
	f := newFixture(t)
	before := f.seed(t, "a1", "LAP-00001", entity.StateHolding, "")

	_, err := f.uc.TransitionState(context.Background(), lifecycle.TransitionInput{AssetID: "a1", Target: entity.StateIssued, AssigneeID: userAna, Actor: actor})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "HOLDING", te.From)
	assert.Equal(t, "ISSUED", te.To)

	assert.Equal(t, before, f.get(t, "a1"))
	assert.Empty(t, f.history(t, "a1"))
	assert.Equal(t, 0, f.pub.count())
}

func TestTransitionState_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "avail", "LAP-00001", entity.StateAvailable, "")
	f.seed(t, "ready", "LAP-00002", entity.StateReadyToGo, "")
	f.seed(t, "out", "LAP-00003", entity.StateSignedOut, userLuis)

	tests := []struct {
		name string
		in   lifecycle.TransitionInput
		want error
	}{
		{"sin asignado", lifecycle.TransitionInput{AssetID: "avail", Target: entity.StateSignedOut, Actor: actor}, domain.ErrMissingAssignee},
		{"asignado en estado libre", lifecycle.TransitionInput{AssetID: "ready", Target: entity.StateAvailable, AssigneeID: userAna, Actor: actor}, domain.ErrAssigneeNotCleared},
		{"no existe", lifecycle.TransitionInput{AssetID: "nope", Target: entity.StateAvailable, Actor: actor}, domain.ErrNotFound},
		{"estado inválido", lifecycle.TransitionInput{AssetID: "avail", Target: "LOST", Actor: actor}, domain.ErrInvalidInput},
		{"usuario inactivo", lifecycle.TransitionInput{AssetID: "avail", Target: entity.StateSignedOut, AssigneeID: userOff, Actor: actor}, domain.ErrUserNotFound},
		{"ya asignado a otro", lifecycle.TransitionInput{AssetID: "out", Target: entity.StateSignedOut, AssigneeID: userAna, Actor: actor}, domain.ErrAlreadyAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.TransitionState(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación
// ──────────────────────────────────────────────────────────────────────────────

func TestAssign_Unassign_VuelveAlEstadoOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.seed(t, "a1", "LAP-00001", entity.StateAvailable, "")

	a, err := f.uc.Assign(ctx, "a1", userAna, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.StateSignedOut, a.State)
	assert.Equal(t, userAna, a.AssignedUserID)

	a, err = f.uc.Unassign(ctx, "a1", actor)
	require.NoError(t, err)
	assert.Equal(t, entity.StateAvailable, a.State)
	assert.Empty(t, a.AssignedUserID)

	// Todo igual salvo la auditoría.
	after := f.get(t, "a1")
	before.UpdatedAt, before.UpdatedBy = after.UpdatedAt, after.UpdatedBy
	assert.Equal(t, before, after)
	assert.Equal(t, fixedNow, after.UpdatedAt)
	assert.Equal(t, actor, after.UpdatedBy)

	evs := f.history(t, "a1")
	require.Len(t, evs, 2)
	assert.Equal(t, entity.ActionAssign, evs[0].Action)
	assert.Equal(t, userAna, evs[0].NewUserID)
	assert.Equal(t, entity.ActionUnassign, evs[1].Action)
	assert.Equal(t, userAna, evs[1].PreviousUserID)
	assert.Equal(t, 2, f.pub.count())
}

func TestAssign_DesdeReadyToGoQuedaIssued(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a1", "LAP-00001", entity.StateReadyToGo, "")

	a, err := f.uc.Assign(context.Background(), "a1", userAna, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.StateIssued, a.State)
}

func TestAssign_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "avail", "LAP-00001", entity.StateAvailable, "")
	f.seed(t, "holding", "LAP-00002", entity.StateHolding, "")
	f.seed(t, "building", "LAP-00003", entity.StateBuilding, "")
	f.seed(t, "luis", "LAP-00004", entity.StateSignedOut, userLuis)
	f.seed(t, "ana", "LAP-00005", entity.StateIssued, userAna)
	archived := f.seed(t, "archived", "LAP-00006", entity.StateAvailable, "")
	archived.IsArchived = true
	require.NoError(t, f.store.Assets().Update(ctx, archived))

	tests := []struct {
		name    string
		assetID string
		userID  string
		want    error
	}{
		{"holding", "holding", userAna, domain.ErrAssetNotAvailable},
		{"building", "building", userAna, domain.ErrAssetNotAvailable},
		{"asignado a otro", "luis", userAna, domain.ErrAlreadyAssigned},
		{"ya asignado al mismo", "ana", userAna, domain.ErrAssetNotAvailable},
		{"archivado", "archived", userAna, domain.ErrAssetArchived},
		{"usuario inexistente", "avail", "ghost", domain.ErrUserNotFound},
		{"usuario inactivo", "avail", userOff, domain.ErrUserNotFound},
		{"activo inexistente", "nope", userAna, domain.ErrNotFound},
		{"sin usuario", "avail", "", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Assign(ctx, tt.assetID, tt.userID, actor)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, entity.StateAvailable, f.get(t, "avail").State)
}

func TestAssign_ConcurrenteUnSoloGanador(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		f.seed(t, "a1", "LAP-00001", entity.StateAvailable, "")

		var (
			wg   sync.WaitGroup
			errs = make([]error, 2)
			ids  = []string{userAna, userLuis}
		)
		start := make(chan struct{})
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = f.uc.Assign(context.Background(), "a1", ids[i], actor)
			}(i)
		}
		close(start)
		wg.Wait()

		var ok, lost int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrAlreadyAssigned):
				lost++
			default:
				t.Fatalf("error inesperado: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, lost)

		a := f.get(t, "a1")
		assert.Equal(t, entity.StateSignedOut, a.State)
		assert.Contains(t, ids, a.AssignedUserID)
		assert.Len(t, f.history(t, "a1"), 1)
	}
}

func TestUnassign_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "avail", "LAP-00001", entity.StateAvailable, "")

	_, err := f.uc.Unassign(ctx, "avail", actor)
	assert.ErrorIs(t, err, domain.ErrNotAssigned)
	_, err = f.uc.Unassign(ctx, "nope", actor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublicacionFallidaNoRevierte(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker caído")
	f.seed(t, "a1", "LAP-00001", entity.StateAvailable, "")

	_, err := f.uc.Assign(context.Background(), "a1", userAna, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.StateSignedOut, f.get(t, "a1").State)
}

// stallingPublisher se queda esperando en los eventos de un activo hasta que venza el contexto.
type stallingPublisher struct {
	assetID string
	entered chan struct{}
}

func (p *stallingPublisher) Publish(ctx context.Context, e entity.AssignmentEvent) error {
	if e.AssetID != p.assetID {
		return nil
	}
	close(p.entered)
	<-ctx.Done()
	return ctx.Err()
}

func TestPublicacionBloqueadaNoDemoraOtroActivo(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a1", "LAP-00001", entity.StateAvailable, "")
	f.seed(t, "a2", "LAP-00002", entity.StateAvailable, "")
	pub := &stallingPublisher{assetID: "a1", entered: make(chan struct{})}
	uc := lifecycle.NewUseCase(lifecycle.Deps{
		TxRunner:          memory.NewTxRunner(f.store),
		Assets:            f.store.Assets(),
		Events:            f.store.Events(),
		Users:             f.store.Users(),
		Locations:         f.store.Locations(),
		Publisher:         pub,
		DefaultLocationID: "hq",
		PublishTimeout:    300 * time.Millisecond,
	})
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := uc.Assign(ctx, "a1", userAna, actor)
		firstDone <- err
	}()
	<-pub.entered

	start := time.Now()
	_, err := uc.Assign(ctx, "a2", userLuis, actor)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	select {
	case <-firstDone:
		t.Fatal("la publicación de a1 debía seguir bloqueada")
	default:
	}

	// la espera del sink está acotada y la asignación de a1 queda confirmada
	select {
	case err := <-firstDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("la publicación no respetó el tope de espera")
	}
	assert.Equal(t, entity.StateSignedOut, f.get(t, "a1").State)
}

// ──────────────────────────────────────────────────────────────────────────────
// Archivado
// ──────────────────────────────────────────────────────────────────────────────

func TestArchive_BloqueaMutaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "a1", "LAP-00001", entity.StateAvailable, "")

	a, err := f.uc.Archive(ctx, "a1", actor)
	require.NoError(t, err)
	assert.True(t, a.IsArchived)

	_, err = f.uc.TransitionState(ctx, lifecycle.TransitionInput{AssetID: "a1", Target: entity.StateBuilding, Actor: actor})
	assert.ErrorIs(t, err, domain.ErrAssetArchived)
	_, err = f.uc.Assign(ctx, "a1", userAna, actor)
	assert.ErrorIs(t, err, domain.ErrAssetArchived)
	_, err = f.uc.Unassign(ctx, "a1", actor)
	assert.ErrorIs(t, err, domain.ErrAssetArchived)
	_, err = f.uc.Archive(ctx, "a1", actor)
	assert.ErrorIs(t, err, domain.ErrAssetArchived)

	// el archivado se informa antes que un usuario inexistente o inactivo
	for _, user := range []string{"ghost", userOff} {
		_, err = f.uc.Assign(ctx, "a1", user, actor)
		assert.ErrorIs(t, err, domain.ErrAssetArchived, user)
		_, err = f.uc.TransitionState(ctx, lifecycle.TransitionInput{
			AssetID: "a1", Target: entity.StateSignedOut, AssigneeID: user, Actor: actor,
		})
		assert.ErrorIs(t, err, domain.ErrAssetArchived, user)
	}
	assert.Len(t, f.history(t, "a1"), 1)

	avail, err := f.uc.ListAvailable(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, avail)
}

func TestArchive_ActivoAsignado(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a1", "LAP-00001", entity.StateIssued, userAna)

	_, err := f.uc.Archive(context.Background(), "a1", actor)
	assert.ErrorIs(t, err, domain.ErrAssetInUse)
	assert.False(t, f.get(t, "a1").IsArchived)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListAvailable_FiltraPorTipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "a2", "LAP-00002", entity.StateReadyToGo, "")
	f.seed(t, "a1", "LAP-00001", entity.StateAvailable, "")
	f.seed(t, "a3", "LAP-00003", entity.StateBuilding, "")
	phone := &entity.Asset{ID: "p1", AssetNumber: "PHN-00001", Type: entity.AssetTypePhone, State: entity.StateAvailable, LocationID: "hq"}
	require.NoError(t, f.store.Assets().Create(ctx, phone))

	all, err := f.uc.ListAvailable(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LAP-00001", "LAP-00002", "PHN-00001"}, numbers(all))

	laptop := entity.AssetTypeLaptop
	laptops, err := f.uc.ListAvailable(ctx, &laptop)
	require.NoError(t, err)
	assert.Equal(t, []string{"LAP-00001", "LAP-00002"}, numbers(laptops))
}

func TestHistory_ActivoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.History(context.Background(), "nope", 0, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func numbers(list []*entity.Asset) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.AssetNumber
	}
	return out
}
