// Package pdf genera la representación gráfica de una cotización.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + NIT       │  N° Cotización + Fechas      │
//	│  EMPRESA: Dirección / Tel / Email                           │
//	│  CLIENTE: Nombre + NIT/CC + contacto                        │
//	│  TABLA: Cant | Descripción | P.Unit | Desc% | IVA% | Total  │
//	│  TOTALES: Subtotal / Descuento / Impuestos / TOTAL          │
//	│  NOTAS + QR al enlace público + pie de marca                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"
	"strings"

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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/pkg/money"
)

var _ quoting.PDFRenderer = (*QuotationPDF)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	defaultPrimary = props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray      = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var statusLabel = map[entity.QuotationStatus]string{
	entity.QuotationStatusDraft:     "BORRADOR",
	entity.QuotationStatusSent:      "ENVIADA",
	entity.QuotationStatusViewed:    "VISTA",
	entity.QuotationStatusAccepted:  "ACEPTADA",
	entity.QuotationStatusRejected:  "RECHAZADA",
	entity.QuotationStatusExpired:   "VENCIDA",
	entity.QuotationStatusCancelled: "ANULADA",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// QuotationPDF implementa quoting.PDFRenderer con Maroto v2.
type QuotationPDF struct {
	money         *money.Formatter
	publicBaseURL string
}

// NewQuotationPDF construye el generador. publicBaseURL vacío omite el QR.
func NewQuotationPDF(fmtr *money.Formatter, publicBaseURL string) *QuotationPDF {
	return &QuotationPDF{money: fmtr, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// RenderQuotation genera el PDF y devuelve sus bytes.
func (g *QuotationPDF) RenderQuotation(doc quoting.Document) ([]byte, error) {
	if doc.Quotation == nil || doc.Company == nil {
		return nil, fmt.Errorf("pdf: documento incompleto")
	}
	primary := parseHexColor(brandingColor(doc.Branding))
	s := sheet{g: g, doc: doc, primary: &primary, scale: scaleOf(doc.Settings)}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Cotización "+doc.Quotation.Number, true).
		WithAuthor(doc.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(s.header())
	m.AddRows(line.NewRow(1, props.Line{Color: s.primary, Thickness: 0.5}))
	m.AddRows(s.companyRow())
	m.AddRows(s.customerRow())
	m.AddRows(line.NewRow(1, props.Line{Color: s.primary, Thickness: 0.3}))

	m.AddRows(s.tableHeader())
	m.AddRows(s.itemRows()...)

	m.AddRows(line.NewRow(1, props.Line{Color: s.primary, Thickness: 0.3}))
	m.AddRows(s.totals())

	m.AddRows(line.NewRow(3))
	m.AddRows(s.footer()...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

type sheet struct {
	g       *QuotationPDF
	doc     quoting.Document
	primary *props.Color
	scale   int32
}

func (s sheet) amount(d decimal.Decimal) string {
	return s.g.money.Format(d, s.doc.Quotation.Currency, s.scale)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (s sheet) header() core.Row {
	q := s.doc.Quotation
	return row.New(22).Add(
		col.New(7).Add(
			text.New(s.doc.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: s.primary, Top: 1,
			}),
			text.New("NIT: "+nonEmpty(s.doc.Company.NIT, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COTIZACIÓN · "+statusLabel[q.Status], props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: s.primary, Top: 1,
			}),
			text.New(q.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Fecha: "+q.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
			text.New("Válida hasta: "+q.ValidUntil.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 17, Color: colorGray,
			}),
		),
	)
}

func (s sheet) companyRow() core.Row {
	c := s.doc.Company
	return row.New(12).Add(
		col.New(12).Add(
			text.New("EMPRESA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: s.primary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(c.Address, "-"),
				nonEmpty(c.Phone, "-"),
				nonEmpty(c.Email, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func (s sheet) customerRow() core.Row {
	cu := s.doc.Customer
	if cu == nil {
		cu = &entity.Customer{Name: "-"}
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: s.primary, Top: 1,
			}),
			text.New(cu.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Contacto: %s   |   Email: %s",
				nonEmpty(cu.TaxID, "-"),
				nonEmpty(cu.ContactName, "-"),
				nonEmpty(cu.Email, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func (s sheet) tableHeader() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: s.primary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Desc.", 1, align.Center),
		h("IVA", 1, align.Center),
		h("Total", 3, align.Right),
	)
}

func (s sheet) itemRows() []core.Row {
	q := s.doc.Quotation
	lines := s.doc.Totals.Lines
	out := make([]core.Row, 0, len(q.Items))
	for i, it := range q.Items {
		discount, tax, total := "-", "-", "-"
		if it.DiscountPercent != nil && !it.DiscountPercent.IsZero() {
			discount = s.g.money.Percent(*it.DiscountPercent)
		}
		if i < len(lines) {
			if !lines[i].TaxRate.IsZero() {
				tax = s.g.money.Percent(lines[i].TaxRate)
			}
			total = s.amount(lines[i].Total)
		}
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(strconv.FormatInt(it.Quantity, 10),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(it.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(s.amount(it.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(discount,
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(tax,
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(total,
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

// totals usa los montos guardados en el agregado: son los que vio el cliente.
func (s sheet) totals() core.Row {
	q := s.doc.Quotation
	label := func(v string, top float64) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(v string, top float64) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(v string, top float64) core.Component {
		return text.New(v, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: s.primary, Right: 1, Top: top,
		})
	}
	return row.New(26).Add(
		col.New(4),
		col.New(4).Add(
			label("Subtotal:", 0),
			label("Descuento:", 5),
			label("Impuestos:", 10),
			label("TOTAL:", 16),
		),
		col.New(4).Add(
			value(s.amount(q.Subtotal), 0),
			value("-"+s.amount(q.DiscountAmount), 5),
			value(s.amount(q.TaxAmount), 10),
			grand(s.amount(q.GrandTotal), 16),
		),
	)
}

func (s sheet) footer() []core.Row {
	q := s.doc.Quotation
	var rows []core.Row

	if q.Notes != "" {
		rows = append(rows, row.New(14).Add(col.New(12).Add(
			text.New("NOTAS", props.Text{Style: fontstyle.Bold, Size: 8, Color: s.primary, Top: 1}),
			text.New(q.Notes, props.Text{Size: 8, Top: 6, Color: colorGray}),
		)))
	}
	if q.Status == entity.QuotationStatusRejected && q.RejectionReason != "" {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("Motivo de rechazo: "+q.RejectionReason, props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}

	if link := s.publicLink(); link != "" {
		rows = append(rows, row.New(40).Add(
			col.New(3).Add(code.NewQr(link, props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(
				text.New("Consulte, acepte o rechace esta cotización en línea:", props.Text{
					Size: 8, Top: 6, Left: 3, Color: colorGray,
				}),
				text.New(link, props.Text{Size: 7, Top: 12, Left: 3, Color: s.primary}),
			),
		))
	}

	if s.doc.Branding != nil && s.doc.Branding.FooterText != "" {
		rows = append(rows,
			line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}),
			row.New(8).Add(col.New(12).Add(
				text.New(s.doc.Branding.FooterText, props.Text{Size: 6.5, Color: colorGray, Top: 2, Align: align.Center}),
			)),
		)
	}
	return rows
}

func (s sheet) publicLink() string {
	q := s.doc.Quotation
	if s.g.publicBaseURL == "" || q.PublicToken == "" || q.IsDraft() {
		return ""
	}
	return s.g.publicBaseURL + "/" + q.PublicToken
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func scaleOf(settings *entity.CompanySettings) int32 {
	if settings == nil || settings.MinorUnits < 0 {
		return 2
	}
	return settings.MinorUnits
}

func brandingColor(b *entity.CompanyBranding) string {
	if b == nil {
		return ""
	}
	return b.PrimaryColor
}

// parseHexColor acepta "#RRGGBB" o "RRGGBB"; cualquier otra cosa da el color por defecto.
func parseHexColor(hex string) props.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return defaultPrimary
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return defaultPrimary
	}
	return props.Color{Red: int(v >> 16 & 0xff), Green: int(v >> 8 & 0xff), Blue: int(v & 0xff)}
}
