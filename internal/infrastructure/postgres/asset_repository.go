package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.AssetRepository = (*AssetRepo)(nil)

const assetColumns = `id, asset_number, type, state, assigned_user_id, location_id, serial_number,
		description, purchase_price, is_archived, created_at, updated_at, updated_by`

// AssetRepo implementación del puerto AssetRepository sobre PostgreSQL (usable con pool o tx).
type AssetRepo struct {
	q Querier
}

// NewAssetRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssetRepository(q Querier) *AssetRepo {
	return &AssetRepo{q: q}
}

// Create persiste un activo nuevo.
func (r *AssetRepo) Create(ctx context.Context, a *entity.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.AssetNumber, string(a.Type), string(a.State), nullIfEmpty(a.AssignedUserID), a.LocationID,
		a.SerialNumber, a.Description, a.PurchasePrice, a.IsArchived, a.CreatedAt, a.UpdatedAt, a.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetByID obtiene un activo por ID.
func (r *AssetRepo) GetByID(ctx context.Context, id string) (*entity.Asset, error) {
	return r.getOne(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
}

// GetForUpdate obtiene el activo y bloquea la fila (SELECT FOR UPDATE). Usar dentro de una transacción.
func (r *AssetRepo) GetForUpdate(ctx context.Context, id string) (*entity.Asset, error) {
	return r.getOne(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1 FOR UPDATE`, id)
}

// GetByAssetNumber obtiene un activo por número.
func (r *AssetRepo) GetByAssetNumber(ctx context.Context, assetNumber string) (*entity.Asset, error) {
	return r.getOne(ctx, `SELECT `+assetColumns+` FROM assets WHERE asset_number = $1`, assetNumber)
}

func (r *AssetRepo) getOne(ctx context.Context, query string, arg string) (*entity.Asset, error) {
	a, err := scanAsset(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// Update persiste estado, asignación, archivado y auditoría.
func (r *AssetRepo) Update(ctx context.Context, a *entity.Asset) error {
	query := `
		UPDATE assets
		SET state = $2, assigned_user_id = $3, location_id = $4, serial_number = $5, description = $6,
		    purchase_price = $7, is_archived = $8, updated_at = $9, updated_by = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		a.ID, string(a.State), nullIfEmpty(a.AssignedUserID), a.LocationID, a.SerialNumber, a.Description,
		a.PurchasePrice, a.IsArchived, a.UpdatedAt, a.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra con WHERE dinámico y ordena por número de activo.
func (r *AssetRepo) List(ctx context.Context, f entity.AssetFilter) ([]*entity.Asset, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.IncludeArchived {
		where = append(where, "is_archived = FALSE")
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		where = append(where, "state = ANY("+arg(states)+")")
	}
	if f.Type != nil {
		where = append(where, "type = "+arg(string(*f.Type)))
	}
	if f.LocationID != "" {
		where = append(where, "location_id = "+arg(f.LocationID))
	}
	if f.AssignedUserID != "" {
		where = append(where, "assigned_user_id = "+arg(f.AssignedUserID))
	}

	query := `SELECT ` + assetColumns + ` FROM assets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY asset_number"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// NextSequence incrementa la secuencia del prefijo (crea la fila en el primer uso).
func (r *AssetRepo) NextSequence(ctx context.Context, prefix string) (int64, error) {
	query := `
		INSERT INTO asset_sequences (prefix, last_value) VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET last_value = asset_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, prefix).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", prefix, err)
	}
	return n, nil
}

func scanAsset(row pgx.Row) (*entity.Asset, error) {
	var (
		a            entity.Asset
		typ, state   string
		assignedUser *string
	)
	err := row.Scan(
		&a.ID, &a.AssetNumber, &typ, &state, &assignedUser, &a.LocationID, &a.SerialNumber,
		&a.Description, &a.PurchasePrice, &a.IsArchived, &a.CreatedAt, &a.UpdatedAt, &a.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	a.Type = entity.AssetType(typ)
	a.State = entity.AssetState(state)
	a.AssignedUserID = deref(assignedUser)
	return &a, nil
}
