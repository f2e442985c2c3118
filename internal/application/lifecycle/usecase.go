// Package lifecycle orquesta el ciclo de vida de los activos: alta manual, transiciones de estado,
// asignación/devolución, archivado y asignación masiva. Cada mutación se serializa por activo
// (AssetLocker + SELECT FOR UPDATE) y escribe activo y evento en la misma transacción.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	domainlc "github.com/jhoicas/Activos-api/internal/domain/lifecycle"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

const (
	// maxNumberAttempts límite de saltos de secuencia cuando un número generado ya fue usado manualmente.
	maxNumberAttempts = 1000
	// defaultPublishTimeout tope de espera del sink de eventos mientras se sostiene el candado del activo.
	defaultPublishTimeout = 2 * time.Second
)

// Deps dependencias del caso de uso.
type Deps struct {
	TxRunner          TxRunner
	Assets            repository.AssetRepository
	Events            repository.AssignmentEventRepository
	Users             repository.UserRepository
	Locations         repository.LocationRepository
	Locker            AssetLocker
	Publisher         EventPublisher
	Logger            *logger.Logger
	DefaultLocationID string
	PublishTimeout    time.Duration
	Now               func() time.Time
}

// UseCase casos de uso del ciclo de vida y asignación de activos.
type UseCase struct {
	tx                TxRunner
	assets            repository.AssetRepository
	events            repository.AssignmentEventRepository
	users             repository.UserRepository
	locations         repository.LocationRepository
	locker            AssetLocker
	publisher         EventPublisher
	log               *logger.Logger
	defaultLocationID string
	publishTimeout    time.Duration
	now               func() time.Time
}

// NewUseCase construye el caso de uso. Locker, Publisher, Logger, PublishTimeout y Now tienen valores por defecto.
func NewUseCase(d Deps) *UseCase {
	uc := &UseCase{
		tx:                d.TxRunner,
		assets:            d.Assets,
		events:            d.Events,
		users:             d.Users,
		locations:         d.Locations,
		locker:            d.Locker,
		publisher:         d.Publisher,
		log:               d.Logger,
		defaultLocationID: d.DefaultLocationID,
		publishTimeout:    d.PublishTimeout,
		now:               d.Now,
	}
	if uc.locker == nil {
		uc.locker = NewKeyedMutex()
	}
	if uc.publisher == nil {
		uc.publisher = NopPublisher{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.publishTimeout <= 0 {
		uc.publishTimeout = defaultPublishTimeout
	}
	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}
	uc.log = uc.log.Component("lifecycle")
	return uc
}

// CreateAssetInput alta manual de un activo (entra en AVAILABLE).
type CreateAssetInput struct {
	AssetNumber   string // opcional: vacío = se genera por tipo
	Type          string
	SerialNumber  string
	Description   string
	PurchasePrice decimal.Decimal
	LocationID    string // opcional: vacío = sede por defecto
	Actor         string
}

// Create registra un activo ingresado por un operador. Estado inicial AVAILABLE, sin asignación.
func (uc *UseCase) Create(ctx context.Context, in CreateAssetInput) (*entity.Asset, error) {
	if in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	typ, ok := entity.ParseAssetType(in.Type)
	if !ok {
		return nil, domain.ErrUnknownAssetType
	}
	if in.PurchasePrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	number := entity.NormalizeAssetNumber(in.AssetNumber)
	if number != "" && !entity.ValidAssetNumber(typ, number) {
		return nil, domain.ErrInvalidInput
	}
	locationID := in.LocationID
	if locationID == "" {
		locationID = uc.defaultLocationID
	}
	loc, err := uc.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("obtener sede: %w", err)
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	asset := &entity.Asset{
		ID:            uuid.New().String(),
		AssetNumber:   number,
		Type:          typ,
		State:         entity.StateAvailable,
		LocationID:    loc.ID,
		SerialNumber:  in.SerialNumber,
		Description:   in.Description,
		PurchasePrice: in.PurchasePrice,
		CreatedAt:     now,
		UpdatedAt:     now,
		UpdatedBy:     in.Actor,
	}
	event := entity.AssignmentEvent{
		ID:         uuid.New().String(),
		AssetID:    asset.ID,
		Action:     entity.ActionCreate,
		NewState:   entity.StateAvailable,
		Actor:      in.Actor,
		OccurredAt: now,
	}

	err = uc.tx.Run(ctx, func(assetRepo repository.AssetRepository, eventRepo repository.AssignmentEventRepository) error {
		if asset.AssetNumber == "" {
			n, err := AllocateAssetNumber(ctx, assetRepo, typ)
			if err != nil {
				return err
			}
			asset.AssetNumber = n
		} else {
			existing, err := assetRepo.GetByAssetNumber(ctx, asset.AssetNumber)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrDuplicate
			}
		}
		if err := assetRepo.Create(ctx, asset); err != nil {
			return err
		}
		return eventRepo.Append(ctx, &event)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, event)
	return asset, nil
}

// AllocateAssetNumber reserva el siguiente número libre del tipo (<PREFIJO>-NNNNN).
// Salta valores ya tomados por números ingresados manualmente. Debe llamarse dentro de la transacción.
func AllocateAssetNumber(ctx context.Context, repo repository.AssetRepository, t entity.AssetType) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		seq, err := repo.NextSequence(ctx, t.Prefix())
		if err != nil {
			return "", fmt.Errorf("secuencia %s: %w", t.Prefix(), err)
		}
		number := entity.FormatAssetNumber(t, seq)
		existing, err := repo.GetByAssetNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return number, nil
		}
	}
	return "", fmt.Errorf("secuencia %s: sin números libres tras %d intentos", t.Prefix(), maxNumberAttempts)
}

// Get obtiene un activo por ID. domain.ErrNotFound si no existe.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Asset, error) {
	a, err := uc.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// List lista activos según filtro.
func (uc *UseCase) List(ctx context.Context, filter entity.AssetFilter) ([]*entity.Asset, error) {
	return uc.assets.List(ctx, filter)
}

// ListAvailable devuelve los activos asignables (AVAILABLE y READY_TO_GO, no archivados),
// opcionalmente filtrados por tipo. Siempre lee del store: tras un lote se vuelve a consultar.
func (uc *UseCase) ListAvailable(ctx context.Context, t *entity.AssetType) ([]*entity.Asset, error) {
	return uc.assets.List(ctx, entity.AssetFilter{
		States: []entity.AssetState{entity.StateAvailable, entity.StateReadyToGo},
		Type:   t,
	})
}

// History devuelve el historial de eventos del activo (del más antiguo al más reciente).
func (uc *UseCase) History(ctx context.Context, assetID string, limit, offset int) ([]*entity.AssignmentEvent, error) {
	if _, err := uc.Get(ctx, assetID); err != nil {
		return nil, err
	}
	return uc.events.ListByAsset(ctx, assetID, limit, offset)
}

// Archive marca el activo como archivado (baja lógica terminal). Un activo asignado debe devolverse antes.
func (uc *UseCase) Archive(ctx context.Context, assetID, actor string) (*entity.Asset, error) {
	return uc.mutate(ctx, assetID, actor, func(a *entity.Asset, at time.Time) (entity.AssignmentEvent, error) {
		if a.IsArchived {
			return entity.AssignmentEvent{}, domain.ErrAssetArchived
		}
		if a.State.IsAssigned() {
			return entity.AssignmentEvent{}, domain.ErrAssetInUse
		}
		a.IsArchived = true
		a.UpdatedAt = at
		a.UpdatedBy = actor
		return entity.AssignmentEvent{
			ID:            uuid.New().String(),
			AssetID:       a.ID,
			Action:        entity.ActionArchive,
			PreviousState: a.State,
			NewState:      a.State,
			Actor:         actor,
			OccurredAt:    at,
		}, nil
	})
}

// mutateFunc decide y aplica el cambio sobre el activo bloqueado y devuelve el evento a registrar.
type mutateFunc func(a *entity.Asset, at time.Time) (entity.AssignmentEvent, error)

// mutate es el punto de serialización de toda mutación sobre un activo:
// candado por ID -> transacción -> SELECT FOR UPDATE -> decisión -> Update + Append -> commit.
// El evento se publica antes de soltar el candado para conservar el orden por activo.
func (uc *UseCase) mutate(ctx context.Context, assetID, actor string, fn mutateFunc) (*entity.Asset, error) {
	if assetID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	unlock, err := uc.locker.Lock(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("bloquear activo %s: %w", assetID, err)
	}
	defer unlock()

	var (
		updated *entity.Asset
		event   entity.AssignmentEvent
	)
	err = uc.tx.Run(ctx, func(assetRepo repository.AssetRepository, eventRepo repository.AssignmentEventRepository) error {
		a, err := assetRepo.GetForUpdate(ctx, assetID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.ErrNotFound
		}
		event, err = fn(a, uc.now())
		if err != nil {
			return err
		}
		if err := domainlc.CheckConsistency(a); err != nil {
			return fmt.Errorf("activo %s inconsistente: %w", a.ID, err)
		}
		if err := assetRepo.Update(ctx, a); err != nil {
			return err
		}
		if err := eventRepo.Append(ctx, &event); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, event)
	return updated, nil
}

// publish entrega el evento al sink externo. Es best effort: el evento ya quedó en asset_events.
// La espera se acota con publishTimeout y no depende de la cancelación de la petición.
func (uc *UseCase) publish(ctx context.Context, event entity.AssignmentEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTimeout)
	defer cancel()
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.log.Warn().Err(err).
			Str("asset_id", event.AssetID).
			Str("event_id", event.ID).
			Str("action", event.Action).
			Msg("publicar evento de activo")
	}
}

// rejectArchived consulta el activo antes de validar al usuario: un activo archivado responde
// domain.ErrAssetArchived aunque el usuario no exista. El archivado es terminal.
// Un activo inexistente no se rechaza aquí; mutate devuelve domain.ErrNotFound.
func (uc *UseCase) rejectArchived(ctx context.Context, assetID string) error {
	a, err := uc.assets.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if a != nil && a.IsArchived {
		return domain.ErrAssetArchived
	}
	return nil
}

// ensureActiveUser verifica que el usuario exista y esté activo en el directorio.
func (uc *UseCase) ensureActiveUser(ctx context.Context, userID string) error {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("directorio de usuarios: %w", err)
	}
	if u == nil || !u.Active {
		return domain.ErrUserNotFound
	}
	return nil
}
