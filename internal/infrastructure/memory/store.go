// Package memory implementa los puertos de persistencia en memoria (STORE_DRIVER=memory y tests).
// Cada operación es atómica. Dentro de una transacción las escrituras quedan en un área propia y
// se aplican juntas al confirmar: fuera de ella solo se lee lo confirmado.
// El bloqueo de fila lo aporta el AssetLocker del caso de uso.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Store datos compartidos por los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	assets    map[string]*entity.Asset
	byNumber  map[string]string
	events    map[string][]*entity.AssignmentEvent
	sequences map[string]int64
	users     map[string]*entity.User
	locations map[string]*entity.Location
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		assets:    make(map[string]*entity.Asset),
		byNumber:  make(map[string]string),
		events:    make(map[string][]*entity.AssignmentEvent),
		sequences: make(map[string]int64),
		users:     make(map[string]*entity.User),
		locations: make(map[string]*entity.Location),
	}
}

// PutUser registra o reemplaza un usuario del directorio.
func (s *Store) PutUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// PutLocation registra o reemplaza una sede.
func (s *Store) PutLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = &l
}

// Assets repositorio de activos fuera de transacción.
func (s *Store) Assets() *AssetRepo { return &AssetRepo{s: s} }

// Events repositorio de eventos fuera de transacción.
func (s *Store) Events() *EventRepo { return &EventRepo{s: s} }

// Users directorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Locations directorio de sedes.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// ─── Activos ───────────────────────────────────────────────────────────────────

var _ repository.AssetRepository = (*AssetRepo)(nil)

// AssetRepo repositorio de activos en memoria. Con tx != nil las escrituras se difieren.
type AssetRepo struct {
	s  *Store
	tx *txState
}

// Create persiste un activo nuevo.
func (r *AssetRepo) Create(_ context.Context, asset *entity.Asset) error {
	if asset == nil || asset.ID == "" || asset.AssetNumber == "" {
		return domain.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		if r.tx.lookup(r.s, asset.ID) != nil || r.tx.idByNumber(r.s, asset.AssetNumber) != "" {
			return domain.ErrDuplicate
		}
		r.tx.stage(asset)
		return nil
	}
	if _, ok := r.s.assets[asset.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.s.byNumber[asset.AssetNumber]; ok {
		return domain.ErrDuplicate
	}
	r.s.assets[asset.ID] = asset.Clone()
	r.s.byNumber[asset.AssetNumber] = asset.ID
	return nil
}

// GetByID obtiene una copia del activo; (nil, nil) si no existe.
func (r *AssetRepo) GetByID(_ context.Context, id string) (*entity.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.tx != nil {
		return r.tx.lookup(r.s, id).Clone(), nil
	}
	return r.s.assets[id].Clone(), nil
}

// GetForUpdate igual que GetByID: la exclusión por activo la garantiza el AssetLocker.
func (r *AssetRepo) GetForUpdate(ctx context.Context, id string) (*entity.Asset, error) {
	return r.GetByID(ctx, id)
}

// GetByAssetNumber busca por número de activo exacto.
func (r *AssetRepo) GetByAssetNumber(_ context.Context, assetNumber string) (*entity.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.tx != nil {
		id := r.tx.idByNumber(r.s, assetNumber)
		if id == "" {
			return nil, nil
		}
		return r.tx.lookup(r.s, id).Clone(), nil
	}
	id, ok := r.s.byNumber[assetNumber]
	if !ok {
		return nil, nil
	}
	return r.s.assets[id].Clone(), nil
}

// Update reemplaza el activo persistido.
func (r *AssetRepo) Update(_ context.Context, asset *entity.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		prev := r.tx.lookup(r.s, asset.ID)
		if prev == nil {
			return domain.ErrNotFound
		}
		if prev.AssetNumber != asset.AssetNumber && r.tx.idByNumber(r.s, asset.AssetNumber) != "" {
			return domain.ErrDuplicate
		}
		r.tx.stage(asset)
		return nil
	}
	prev, ok := r.s.assets[asset.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if prev.AssetNumber != asset.AssetNumber {
		if _, taken := r.s.byNumber[asset.AssetNumber]; taken {
			return domain.ErrDuplicate
		}
		delete(r.s.byNumber, prev.AssetNumber)
		r.s.byNumber[asset.AssetNumber] = asset.ID
	}
	r.s.assets[asset.ID] = asset.Clone()
	return nil
}

// List filtra y ordena por número de activo. Dentro de una transacción incluye lo pendiente.
func (r *AssetRepo) List(_ context.Context, filter entity.AssetFilter) ([]*entity.Asset, error) {
	r.s.mu.RLock()
	out := make([]*entity.Asset, 0)
	for id, a := range r.s.assets {
		if r.tx != nil {
			if staged, ok := r.tx.assets[id]; ok {
				a = staged
			}
		}
		if filter.Matches(a) {
			out = append(out, a.Clone())
		}
	}
	if r.tx != nil {
		for id, a := range r.tx.assets {
			if _, committed := r.s.assets[id]; !committed && filter.Matches(a) {
				out = append(out, a.Clone())
			}
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AssetNumber < out[j].AssetNumber })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*entity.Asset{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// NextSequence incrementa la secuencia del prefijo. No se revierte con la transacción
// (igual que una secuencia de base de datos, puede dejar huecos).
func (r *AssetRepo) NextSequence(_ context.Context, prefix string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sequences[prefix]++
	return r.s.sequences[prefix], nil
}

// ─── Eventos ───────────────────────────────────────────────────────────────────

var _ repository.AssignmentEventRepository = (*EventRepo)(nil)

// EventRepo historial append-only en memoria.
type EventRepo struct {
	s  *Store
	tx *txState
}

// Append agrega el evento al historial del activo.
func (r *EventRepo) Append(_ context.Context, event *entity.AssignmentEvent) error {
	if event == nil || event.ID == "" || event.AssetID == "" {
		return domain.ErrInvalidInput
	}
	e := *event
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		r.tx.events = append(r.tx.events, &e)
		return nil
	}
	r.s.events[e.AssetID] = append(r.s.events[e.AssetID], &e)
	return nil
}

// ListByAsset devuelve los eventos en orden de registro. limit <= 0 = todos.
func (r *EventRepo) ListByAsset(_ context.Context, assetID string, limit, offset int) ([]*entity.AssignmentEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := r.s.events[assetID]
	if r.tx != nil {
		list = append(list[:len(list):len(list)], r.tx.eventsOf(assetID)...)
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []*entity.AssignmentEvent{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	out := make([]*entity.AssignmentEvent, len(list))
	for i, e := range list {
		c := *e
		out[i] = &c
	}
	return out, nil
}

// ─── Directorios ───────────────────────────────────────────────────────────────

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo directorio de usuarios en memoria.
type UserRepo struct{ s *Store }

// GetByID devuelve (nil, nil) si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo directorio de sedes en memoria.
type LocationRepo struct{ s *Store }

// GetByID devuelve (nil, nil) si no existe.
func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

// GetByName busca sin distinguir mayúsculas.
func (r *LocationRepo) GetByName(_ context.Context, name string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.locations {
		if strings.EqualFold(l.Name, strings.TrimSpace(name)) {
			c := *l
			return &c, nil
		}
	}
	return nil, nil
}
