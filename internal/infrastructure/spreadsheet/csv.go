package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Activos-api/internal/application/intake"
)

// CSVOptions formato de exportaciones CSV de inventario.
type CSVOptions struct {
	Comma  rune // 0 = detecta ',' o ';' en el encabezado
	Latin1 bool // archivo en ISO-8859-1 (exportaciones de Excel en español)
}

// ParseCSV lee un CSV con las mismas reglas de encabezado y filas que Parse.
func ParseCSV(r io.Reader, opts CSVOptions) ([]intake.RowRecord, error) {
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: leer csv: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = opts.Comma
	if cr.Comma == 0 {
		cr.Comma = detectComma(text)
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: csv inválido: %w", err)
	}
	return records(rows)
}

// detectComma elige ';' si la primera línea tiene más ';' que ','.
func detectComma(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}
