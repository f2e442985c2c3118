package memory

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner ejecuta callbacks con repositorios que acumulan sus escrituras y las aplican
// de una vez si la función termina sin error.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos de activos y eventos atados a la transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	assetRepo repository.AssetRepository,
	eventRepo repository.AssignmentEventRepository,
) error) error {
	tx := &txState{assets: make(map[string]*entity.Asset)}
	if err := fn(&AssetRepo{s: r.s, tx: tx}, &EventRepo{s: r.s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit(r.s)
}

// txState escrituras pendientes de una transacción. Los métodos asumen s.mu tomado.
type txState struct {
	assets map[string]*entity.Asset
	events []*entity.AssignmentEvent
}

func (t *txState) stage(a *entity.Asset) {
	t.assets[a.ID] = a.Clone()
}

// lookup devuelve la versión pendiente del activo o la confirmada.
func (t *txState) lookup(s *Store, id string) *entity.Asset {
	if a, ok := t.assets[id]; ok {
		return a
	}
	return s.assets[id]
}

// idByNumber resuelve el número de activo viendo primero lo pendiente.
func (t *txState) idByNumber(s *Store, number string) string {
	for id, a := range t.assets {
		if a.AssetNumber == number {
			return id
		}
	}
	id, ok := s.byNumber[number]
	if !ok {
		return ""
	}
	if staged, ok := t.assets[id]; ok && staged.AssetNumber != number {
		return ""
	}
	return id
}

func (t *txState) eventsOf(assetID string) []*entity.AssignmentEvent {
	var out []*entity.AssignmentEvent
	for _, e := range t.events {
		if e.AssetID == assetID {
			out = append(out, e)
		}
	}
	return out
}

// commit valida los números contra lo confirmado por otras transacciones y aplica todo junto.
func (t *txState) commit(s *Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range t.assets {
		owner, taken := s.byNumber[a.AssetNumber]
		if !taken || owner == id {
			continue
		}
		if moved, ok := t.assets[owner]; ok && moved.AssetNumber != a.AssetNumber {
			continue
		}
		return domain.ErrDuplicate
	}
	for id, a := range t.assets {
		if prev, ok := s.assets[id]; ok && prev.AssetNumber != a.AssetNumber {
			delete(s.byNumber, prev.AssetNumber)
		}
	}
	for id, a := range t.assets {
		s.assets[id] = a
		s.byNumber[a.AssetNumber] = id
	}
	for _, e := range t.events {
		s.events[e.AssetID] = append(s.events[e.AssetID], e)
	}
	return nil
}
