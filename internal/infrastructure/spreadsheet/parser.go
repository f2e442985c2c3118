// Package spreadsheet lee planillas xlsx de recepción de activos y las convierte en filas de importación.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Activos-api/internal/application/intake"
)

// ErrNoHeader la hoja no tiene una fila de encabezado con columnas reconocidas.
var ErrNoHeader = errors.New("spreadsheet: encabezado sin columnas reconocidas")

// columnAliases encabezados aceptados (ya normalizados) por campo de RowRecord.
var columnAliases = map[string][]string{
	intake.FieldAssetNumber:   {"asset_number", "asset_no", "asset_tag", "asset", "tag", "numero_de_activo", "numero_activo", "placa"},
	intake.FieldType:          {"type", "asset_type", "tipo", "tipo_de_activo"},
	intake.FieldSerialNumber:  {"serial_number", "serial_no", "serial", "sn", "s_n", "numero_de_serie", "serie"},
	"description":             {"description", "model", "descripcion", "modelo"},
	intake.FieldPurchasePrice: {"purchase_price", "price", "cost", "precio", "precio_de_compra", "costo", "valor"},
	intake.FieldLocation:      {"location", "site", "sede", "ubicacion"},
	"state":                   {"state", "status", "estado"},
	"assigned_to":             {"assigned_to", "assignee", "user", "asignado", "asignado_a", "usuario"},
}

var aliasToField = func() map[string]string {
	m := make(map[string]string)
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			m[a] = field
		}
	}
	return m
}()

// NormalizeHeader pasa a minúsculas, quita tildes y une palabras con "_": "Número de Serie" -> "numero_de_serie".
func NormalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	return b.String()
}

// Parse lee la primera hoja. La primera fila no vacía es el encabezado; columnas desconocidas
// se ignoran y las filas vacías se saltan. RowRecord.Row es el número de línea en la hoja.
func Parse(r io.Reader) ([]intake.RowRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: abrir archivo: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet: el archivo no tiene hojas")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: leer filas: %w", err)
	}

	return records(rows)
}

// records convierte filas crudas en RowRecord usando la primera fila no vacía como encabezado.
func records(rows [][]string) ([]intake.RowRecord, error) {
	headerIdx := -1
	for i, row := range rows {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return []intake.RowRecord{}, nil
	}

	columns := make(map[int]string)
	for i, h := range rows[headerIdx] {
		if field, ok := aliasToField[NormalizeHeader(h)]; ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoHeader
	}

	out := make([]intake.RowRecord, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		rec := intake.RowRecord{Row: i + 1}
		for idx, field := range columns {
			if idx >= len(row) {
				continue
			}
			setField(&rec, field, strings.TrimSpace(row[idx]))
		}
		out = append(out, rec)
	}
	return out, nil
}

func setField(rec *intake.RowRecord, field, value string) {
	switch field {
	case intake.FieldAssetNumber:
		rec.AssetNumber = value
	case intake.FieldType:
		rec.Type = value
	case intake.FieldSerialNumber:
		rec.SerialNumber = value
	case "description":
		rec.Description = value
	case intake.FieldPurchasePrice:
		rec.PurchasePrice = value
	case intake.FieldLocation:
		rec.Location = value
	case "state":
		rec.State = value
	case "assigned_to":
		rec.AssignedTo = value
	}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
