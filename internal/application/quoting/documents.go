package quoting

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
)

// RenderPDF genera el PDF de la cotización. Los borradores también se pueden previsualizar.
func (uc *QuotationUseCase) RenderPDF(ctx context.Context, companyID, id string) ([]byte, string, error) {
	doc, err := uc.document(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	b, err := uc.pdf.RenderQuotation(doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf %s: %w", doc.Quotation.Number, err)
	}
	return b, doc.Quotation.Number + ".pdf", nil
}

// ExportUBL genera el XML UBL de una cotización emitida junto con su digest.
func (uc *QuotationUseCase) ExportUBL(ctx context.Context, companyID, id string) ([]byte, string, string, error) {
	doc, err := uc.document(ctx, companyID, id)
	if err != nil {
		return nil, "", "", err
	}
	if doc.Quotation.IsDraft() {
		return nil, "", "", fmt.Errorf("%w: un borrador no se exporta", domain.ErrConflict)
	}
	xml, digest, err := uc.ubl.ExportQuotation(doc)
	if err != nil {
		return nil, "", "", fmt.Errorf("ubl %s: %w", doc.Quotation.Number, err)
	}
	return xml, doc.Quotation.Number + ".xml", digest, nil
}

func (uc *QuotationUseCase) document(ctx context.Context, companyID, id string) (Document, error) {
	q, err := uc.mustGet(ctx, companyID, id)
	if err != nil {
		return Document{}, err
	}
	settings, err := uc.loadSettings(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	policy := quotation.PolicyOf(q)
	totals, err := quotation.ComputeTotals(q.Items, policy)
	if err != nil {
		return Document{}, err
	}
	// el documento se imprime con la escala con la que se calcularon los montos
	frozen := *settings
	frozen.MinorUnits = policy.Scale
	frozen.DefaultTaxRatePercent = policy.DefaultTaxRatePercent
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	if company == nil {
		return Document{}, domain.ErrNotFound
	}
	branding, err := uc.settings.GetBranding(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	customer, err := uc.customers.GetByID(ctx, companyID, q.CustomerID)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Quotation: q,
		Totals:    totals,
		Company:   company,
		Settings:  &frozen,
		Branding:  branding,
		Customer:  customer,
	}, nil
}
