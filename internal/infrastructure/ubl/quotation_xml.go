// Package ubl exporta cotizaciones como documentos UBL 2.1 Quotation.
package ubl

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/pkg/taxid"
)

var _ quoting.UBLExporter = (*QuotationExporter)(nil)

// Namespaces UBL 2.1.
const (
	NsQuotation = "urn:oasis:names:specification:ubl:schema:xsd:Quotation-2"
	NsCac       = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc       = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	unitCode = "EA" // unidad genérica UN/ECE rec 20
)

// QuotationExporter construye el XML y su digest SHA-256 sobre la forma canónica (C14N 1.0).
type QuotationExporter struct{}

// NewQuotationExporter crea el exportador.
func NewQuotationExporter() *QuotationExporter { return &QuotationExporter{} }

// ExportQuotation devuelve el XML indentado y el digest en base64.
func (e *QuotationExporter) ExportQuotation(doc quoting.Document) ([]byte, string, error) {
	if doc.Quotation == nil || doc.Company == nil || doc.Customer == nil {
		return nil, "", fmt.Errorf("ubl: faltan cotización, empresa o cliente")
	}
	if len(doc.Totals.Lines) != len(doc.Quotation.Items) {
		return nil, "", fmt.Errorf("ubl: totales sin calcular para %s", doc.Quotation.Number)
	}

	x := etree.NewDocument()
	buildQuotation(x, doc)
	x.Indent(2)
	body, err := x.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("ubl: serializar: %w", err)
	}
	// el digest cubre solo el elemento raíz; la declaración no es parte de la forma canónica
	digest, err := Digest(body)
	if err != nil {
		return nil, "", err
	}
	return append([]byte(xml.Header), body...), digest, nil
}

// Digest SHA-256 en base64 de la forma canónica del XML.
func Digest(xmlBytes []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("ubl: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func buildQuotation(x *etree.Document, doc quoting.Document) {
	q := doc.Quotation
	cur := q.Currency
	scale := int32(2)
	if doc.Settings != nil && doc.Settings.MinorUnits >= 0 {
		scale = doc.Settings.MinorUnits
	}
	amount := func(parent *etree.Element, tag string, d decimal.Decimal) {
		el := parent.CreateElement("cbc:" + tag)
		el.CreateAttr("currencyID", cur)
		el.SetText(d.StringFixed(scale))
	}

	root := x.CreateElement("Quotation")
	root.CreateAttr("xmlns", NsQuotation)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)

	issued := q.CreatedAt
	if q.SentAt != nil {
		issued = *q.SentAt
	}
	cbc(root, "UBLVersionID", "2.1")
	cbc(root, "ID", q.Number)
	cbc(root, "UUID", q.ID)
	cbc(root, "IssueDate", issued.UTC().Format("2006-01-02"))
	cbc(root, "IssueTime", issued.UTC().Format("15:04:05Z"))
	if q.Notes != "" {
		cbc(root, "Note", q.Notes)
	}
	cbc(root, "PricingCurrencyCode", cur)
	cbc(root, "LineCountNumeric", strconv.Itoa(len(q.Items)))

	period := root.CreateElement("cac:ValidityPeriod")
	cbc(period, "EndDate", q.ValidUntil.UTC().Format("2006-01-02"))

	writeParty(root.CreateElement("cac:SellerSupplierParty"), doc.Company.Name, doc.Company.NIT, doc.Company.Address, doc.Company.Email)
	writeParty(root.CreateElement("cac:BuyerCustomerParty"), doc.Customer.Name, doc.Customer.TaxID, doc.Customer.Address, doc.Customer.Email)

	tax := root.CreateElement("cac:TaxTotal")
	amount(tax, "TaxAmount", q.TaxAmount)

	total := root.CreateElement("cac:QuotedMonetaryTotal")
	amount(total, "LineExtensionAmount", q.Subtotal)
	amount(total, "TaxExclusiveAmount", q.Subtotal.Sub(q.DiscountAmount))
	amount(total, "TaxInclusiveAmount", q.GrandTotal)
	amount(total, "AllowanceTotalAmount", q.DiscountAmount)
	amount(total, "PayableAmount", q.GrandTotal)

	for i, it := range q.Items {
		lt := doc.Totals.Lines[i]
		line := root.CreateElement("cac:QuotationLine").CreateElement("cac:LineItem")
		cbc(line, "ID", strconv.Itoa(i+1))
		qty := line.CreateElement("cbc:Quantity")
		qty.CreateAttr("unitCode", unitCode)
		qty.SetText(strconv.FormatInt(it.Quantity, 10))
		amount(line, "LineExtensionAmount", lt.AfterDiscount)

		if !lt.Discount.IsZero() && it.DiscountPercent != nil {
			ac := line.CreateElement("cac:AllowanceCharge")
			cbc(ac, "ChargeIndicator", "false")
			cbc(ac, "MultiplierFactorNumeric", it.DiscountPercent.Div(decimal.NewFromInt(100)).String())
			amount(ac, "Amount", lt.Discount)
			amount(ac, "BaseAmount", lt.LineTotal)
		}

		lineTax := line.CreateElement("cac:TaxTotal")
		amount(lineTax, "TaxAmount", lt.Tax)
		sub := lineTax.CreateElement("cac:TaxSubtotal")
		amount(sub, "TaxableAmount", lt.AfterDiscount)
		amount(sub, "TaxAmount", lt.Tax)
		cat := sub.CreateElement("cac:TaxCategory")
		cbc(cat, "Percent", lt.TaxRate.String())

		price := line.CreateElement("cac:Price")
		amount(price, "PriceAmount", it.UnitPrice)

		item := line.CreateElement("cac:Item")
		cbc(item, "Description", it.Description)
		if it.ProductID != "" {
			cbc(item.CreateElement("cac:SellersItemIdentification"), "ID", it.ProductID)
		}
	}
}

func writeParty(parent *etree.Element, name, taxID, address, email string) {
	party := parent.CreateElement("cac:Party")
	cbc(party.CreateElement("cac:PartyName"), "Name", name)
	if address != "" {
		cbc(party.CreateElement("cac:PostalAddress"), "StreetName", address)
	}
	if taxID != "" {
		scheme := party.CreateElement("cac:PartyTaxScheme")
		cbc(scheme, "RegistrationName", name)
		id := cbc(scheme, "CompanyID", taxID)
		if base, dv, ok, err := taxid.SplitNIT(taxID); ok && err == nil {
			id.SetText(base)
			id.CreateAttr("schemeID", string(dv))
			id.CreateAttr("schemeName", taxid.SchemeNIT)
		}
	}
	if email != "" {
		cbc(party.CreateElement("cac:Contact"), "ElectronicMail", email)
	}
}

func cbc(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + tag)
	el.SetText(value)
	return el
}
