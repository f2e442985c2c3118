// Package pdf genera la hoja de etiquetas de activos con Maroto v2.
//
// Layout A4, tres etiquetas por fila:
//
//	┌──────────────────┬──────────────────┬──────────────────┐
//	│ QR │ LAP-00042   │ QR │ LAP-00043   │ QR │ PHN-00007   │
//	│    │ laptop      │    │ laptop      │    │ phone       │
//	│    │ S/N · sede  │    │ S/N · sede  │    │ S/N · sede  │
//	└──────────────────┴──────────────────┴──────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Activos-api/internal/application/tagging"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const labelsPerRow = 3

var _ tagging.SheetGenerator = (*TagSheetGenerator)(nil)

// TagSheetGenerator implementa tagging.SheetGenerator usando Maroto v2.
type TagSheetGenerator struct{}

// NewTagSheetGenerator construye el generador.
func NewTagSheetGenerator() *TagSheetGenerator { return &TagSheetGenerator{} }

// GenerateTagSheet genera el PDF y devuelve sus bytes.
func (g *TagSheetGenerator) GenerateTagSheet(_ context.Context, title string, labels []tagging.Label) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(titleRow(title, len(labels)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	for i := 0; i < len(labels); i += labelsPerRow {
		end := i + labelsPerRow
		if end > len(labels) {
			end = len(labels)
		}
		m.AddRows(labelRow(labels[i:end]))
		m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.1}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de etiquetas: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func titleRow(title string, n int) core.Row {
	return row.New(12).Add(
		col.New(8).Add(text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 2,
		})),
		col.New(4).Add(text.New(fmt.Sprintf("%d etiquetas", n), props.Text{
			Size: 9, Align: align.Right, Color: colorGray, Top: 4,
		})),
	)
}

// labelRow: por etiqueta, QR (2 columnas) + textos (2 columnas).
func labelRow(labels []tagging.Label) core.Row {
	cols := make([]core.Col, 0, labelsPerRow*2)
	for _, l := range labels {
		cols = append(cols,
			col.New(2).Add(code.NewQr(l.AssetNumber, props.Rect{Percent: 90, Center: true})),
			col.New(2).Add(
				text.New(l.AssetNumber, props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}),
				text.New(l.Type, props.Text{Size: 8, Top: 10, Color: colorGray}),
				text.New("S/N: "+nonEmpty(l.SerialNumber, "—"), props.Text{Size: 7, Top: 16}),
				text.New(nonEmpty(l.Location, "—"), props.Text{Size: 7, Top: 21, Color: colorGray}),
			),
		)
	}
	for len(cols) < labelsPerRow*2 {
		cols = append(cols, col.New(2))
	}
	return row.New(32).Add(cols...)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
