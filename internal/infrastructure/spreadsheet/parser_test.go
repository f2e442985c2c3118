package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Activos-api/internal/application/intake"
)

// workbook arma un xlsx en memoria con las filas indicadas en la hoja por defecto.
func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Número de Serie":  "numero_de_serie",
		"  Asset  Number ": "asset_number",
		"S/N":              "s_n",
		"UBICACIÓN":        "ubicacion",
		"Purchase-Price":   "purchase_price",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestParse_EncabezadosEnEspanolYFilasVacias(t *testing.T) {
	buf := workbook(t,
		[]any{"Tipo", "Número de Serie", "Descripción", "Precio", "Sede", "Estado", "Asignado a", "Notas"},
		[]any{"laptop", "SN-1", "ThinkPad", "3500000", "Bogotá", "Active", "ana"},
		[]any{"", "", ""},
		[]any{"phone", "SN-2"},
	)

	rows, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, intake.RowRecord{
		Row: 2, Type: "laptop", SerialNumber: "SN-1", Description: "ThinkPad",
		PurchasePrice: "3500000", Location: "Bogotá", State: "Active", AssignedTo: "ana",
	}, rows[0])
	assert.Equal(t, 4, rows[1].Row)
	assert.Equal(t, "phone", rows[1].Type)
	assert.Empty(t, rows[1].Location)
}

func TestParse_SinColumnasReconocidas(t *testing.T) {
	buf := workbook(t, []any{"foo", "bar"}, []any{"1", "2"})
	_, err := Parse(buf)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParse_ArchivoInvalido(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("no es un xlsx")))
	assert.Error(t, err)
}

func TestImportTemplate_SeLeeSinFilas(t *testing.T) {
	data, err := ImportTemplate()
	require.NoError(t, err)

	rows, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, rows)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, templateSheet, f.GetSheetName(0))
	header, err := f.GetRows(templateSheet)
	require.NoError(t, err)
	require.NotEmpty(t, header)
	for _, h := range header[0] {
		_, ok := aliasToField[NormalizeHeader(h)]
		assert.True(t, ok, "encabezado %q reconocido", h)
	}
}
