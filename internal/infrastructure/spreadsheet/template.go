package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

const templateSheet = "Activos"

// TemplateHeader columnas de la plantilla de importación.
var TemplateHeader = []string{
	"Asset Number",
	"Type",
	"Serial Number",
	"Description",
	"Purchase Price",
	"Location",
	"State",
	"Assigned To",
}

var templateWidths = []float64{16, 14, 22, 30, 16, 18, 14, 24}

// ImportTemplate genera la plantilla xlsx vacía, con lista desplegable de tipos en la columna Type.
func ImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(templateSheet); err != nil {
		return nil, fmt.Errorf("spreadsheet: crear hoja: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("spreadsheet: eliminar hoja por defecto: %w", err)
	}
	index, err := f.GetSheetIndex(templateSheet)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: índice de hoja: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: estilo de encabezado: %w", err)
	}

	for i, h := range TemplateHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(templateSheet, cell, h); err != nil {
			return nil, fmt.Errorf("spreadsheet: encabezado %s: %w", cell, err)
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("spreadsheet: estilo %s: %w", cell, err)
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(templateSheet, colName, colName, templateWidths[i]); err != nil {
			return nil, fmt.Errorf("spreadsheet: ancho de columna: %w", err)
		}
	}

	types := entity.AssetTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	dv := excelize.NewDataValidation(true)
	dv.Sqref = "B2:B5000"
	if err := dv.SetDropList(names); err != nil {
		return nil, fmt.Errorf("spreadsheet: lista de tipos: %w", err)
	}
	if err := f.AddDataValidation(templateSheet, dv); err != nil {
		return nil, fmt.Errorf("spreadsheet: validación de tipos: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: escribir plantilla: %w", err)
	}
	return buf.Bytes(), nil
}
