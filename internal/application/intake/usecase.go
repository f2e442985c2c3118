// Package intake convierte filas importadas en activos nuevos en estado HOLDING.
// Cada fila se valida y persiste por separado; una fila inválida no afecta al resto.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

// Deps dependencias del caso de uso de importación.
type Deps struct {
	TxRunner          TxRunner
	Locations         repository.LocationRepository
	Publisher         EventPublisher
	Logger            *logger.Logger
	DefaultLocationID string // sede de recepción
	Now               func() time.Time
}

// UseCase importación masiva de activos.
type UseCase struct {
	tx                TxRunner
	locations         repository.LocationRepository
	publisher         EventPublisher
	log               *logger.Logger
	defaultLocationID string
	now               func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	uc := &UseCase{
		tx:                d.TxRunner,
		locations:         d.Locations,
		publisher:         d.Publisher,
		log:               d.Logger,
		defaultLocationID: d.DefaultLocationID,
		now:               d.Now,
	}
	if uc.publisher == nil {
		uc.publisher = lifecycle.NopPublisher{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}
	uc.log = uc.log.Component("intake")
	return uc
}

// rowError rechazo de una fila.
type rowError struct {
	reason  string
	field   string
	message string
}

func (e *rowError) Error() string { return e.message }

func reject(reason, field, format string, args ...any) *rowError {
	return &rowError{reason: reason, field: field, message: fmt.Sprintf(format, args...)}
}

// Intake crea un activo HOLDING por cada fila válida, en la sede de recepción salvo que la fila
// indique otra. Solo devuelve error ante fallas del store o cancelación; en ese caso el reporte
// contiene lo procesado hasta ese punto.
func (uc *UseCase) Intake(ctx context.Context, actor string, rows []RowRecord) (*IntakeReport, error) {
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	report := &IntakeReport{
		Created:  make([]*entity.Asset, 0, len(rows)),
		Rejected: make([]Rejection, 0),
		Notices:  make([]Notice, 0),
	}
	seen := make(map[string]int, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		asset, rerr, err := uc.intakeRow(ctx, actor, row, seen)
		if err != nil {
			uc.log.Error().Err(err).Int("row", row.Row).Msg("importación interrumpida")
			return report, err
		}
		if rerr != nil {
			report.Rejected = append(report.Rejected, Rejection{
				Row: row.Row, Reason: rerr.reason, Field: rerr.field, Message: rerr.message,
			})
			continue
		}
		report.Created = append(report.Created, asset)
		report.Notices = append(report.Notices, notices(row)...)
	}

	uc.log.Info().
		Str("actor", actor).
		Int("rows", len(rows)).
		Int("created", len(report.Created)).
		Int("rejected", len(report.Rejected)).
		Msg("importación de activos")
	return report, nil
}

// intakeRow valida y persiste una fila. Devuelve rechazo (rowError) o falla inesperada (error).
func (uc *UseCase) intakeRow(ctx context.Context, actor string, row RowRecord, seen map[string]int) (*entity.Asset, *rowError, error) {
	typeText := strings.TrimSpace(row.Type)
	serial := strings.TrimSpace(row.SerialNumber)
	switch {
	case typeText == "":
		return nil, reject(ReasonMissingRequiredField, FieldType, "fila %d: falta el campo %s", row.Row, FieldType), nil
	case serial == "":
		return nil, reject(ReasonMissingRequiredField, FieldSerialNumber, "fila %d: falta el campo %s", row.Row, FieldSerialNumber), nil
	}

	typ, ok := entity.ParseAssetType(typeText)
	if !ok {
		return nil, reject(ReasonUnknownAssetType, FieldType, "fila %d: tipo de activo desconocido %q", row.Row, typeText), nil
	}

	price := decimal.Zero
	if p := strings.TrimSpace(row.PurchasePrice); p != "" {
		parsed, err := parsePrice(p)
		if err != nil || parsed.IsNegative() {
			return nil, reject(ReasonInvalidField, FieldPurchasePrice, "fila %d: precio de compra inválido %q", row.Row, p), nil
		}
		price = parsed
	}

	number := entity.NormalizeAssetNumber(row.AssetNumber)
	if number != "" {
		if !entity.ValidAssetNumber(typ, number) {
			return nil, reject(ReasonInvalidField, FieldAssetNumber, "fila %d: número de activo %q no corresponde al formato %s-NNNNN", row.Row, number, typ.Prefix()), nil
		}
		if first, dup := seen[number]; dup {
			return nil, reject(ReasonDuplicateAssetNumber, FieldAssetNumber, "fila %d: número de activo %s repetido (fila %d)", row.Row, number, first), nil
		}
	}

	loc, err := uc.resolveLocation(ctx, row.Location)
	if err != nil {
		return nil, nil, err
	}
	if loc == nil {
		return nil, reject(ReasonUnknownLocation, FieldLocation, "fila %d: sede desconocida %q", row.Row, strings.TrimSpace(row.Location)), nil
	}

	now := uc.now()
	asset := &entity.Asset{
		ID:            uuid.New().String(),
		AssetNumber:   number,
		Type:          typ,
		State:         entity.StateHolding,
		LocationID:    loc.ID,
		SerialNumber:  serial,
		Description:   strings.TrimSpace(row.Description),
		PurchasePrice: price,
		CreatedAt:     now,
		UpdatedAt:     now,
		UpdatedBy:     actor,
	}
	event := entity.AssignmentEvent{
		ID:         uuid.New().String(),
		AssetID:    asset.ID,
		Action:     entity.ActionIntake,
		NewState:   entity.StateHolding,
		Actor:      actor,
		OccurredAt: now,
	}

	err = uc.tx.Run(ctx, func(assetRepo repository.AssetRepository, eventRepo repository.AssignmentEventRepository) error {
		if asset.AssetNumber == "" {
			n, err := lifecycle.AllocateAssetNumber(ctx, assetRepo, typ)
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
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, reject(ReasonDuplicateAssetNumber, FieldAssetNumber, "fila %d: el número de activo %s ya existe", row.Row, asset.AssetNumber), nil
	}
	if err != nil {
		return nil, nil, err
	}
	seen[asset.AssetNumber] = row.Row

	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("publicar evento de importación")
	}
	return asset, nil, nil
}

// resolveLocation busca la sede por ID y luego por nombre. Vacío = sede de recepción.
func (uc *UseCase) resolveLocation(ctx context.Context, ref string) (*entity.Location, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = uc.defaultLocationID
	}
	loc, err := uc.locations.GetByID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("obtener sede: %w", err)
	}
	if loc != nil {
		return loc, nil
	}
	loc, err = uc.locations.GetByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("obtener sede por nombre: %w", err)
	}
	return loc, nil
}

// parsePrice acepta "1500000", "1,500,000.50" o "$ 1500000".
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", " ", "", ",", "").Replace(s)
	return decimal.NewFromString(s)
}

// notices explica lo que se ignoró de la fila: todo entra en HOLDING y sin asignación.
func notices(row RowRecord) []Notice {
	var out []Notice
	if declared := strings.TrimSpace(row.State); declared != "" && !isHolding(declared) {
		out = append(out, Notice{
			Row:     row.Row,
			Message: fmt.Sprintf("estado declarado %q reemplazado por %s", declared, entity.StateHolding),
		})
	}
	if assignee := strings.TrimSpace(row.AssignedTo); assignee != "" {
		out = append(out, Notice{
			Row:     row.Row,
			Message: fmt.Sprintf("asignado declarado %q es informativo; el activo queda sin asignar", assignee),
		})
	}
	return out
}

// isHolding compara sin distinguir mayúsculas (plegado Unicode).
func isHolding(declared string) bool {
	c := cases.Fold()
	return c.String(declared) == c.String(string(entity.StateHolding))
}
