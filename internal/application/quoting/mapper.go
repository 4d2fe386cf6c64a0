package quoting

import (
	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
)

// actionByTarget nombre de la acción HTTP que lleva a cada estado. viewed solo ocurre
// desde el enlace público y no se ofrece al vendedor.
var actionByTarget = map[entity.QuotationStatus]string{
	entity.QuotationStatusSent:      "send",
	entity.QuotationStatusAccepted:  "accept",
	entity.QuotationStatusRejected:  "reject",
	entity.QuotationStatusExpired:   "expire",
	entity.QuotationStatusCancelled: "cancel",
}

func allowedActions(q *entity.Quotation) []string {
	out := make([]string, 0, 4)
	if q.IsDraft() {
		out = append(out, "edit")
	}
	for _, to := range quotation.AllowedTargets(q.Status) {
		if a, ok := actionByTarget[to]; ok {
			out = append(out, a)
		}
	}
	if !q.IsDraft() {
		out = append(out, "revise")
	}
	return out
}

// toQuotationResponse mapea el agregado. Con totals nil no se incluye el desglose de líneas.
func toQuotationResponse(q *entity.Quotation, totals *quotation.Totals) *dto.QuotationResponse {
	resp := &dto.QuotationResponse{
		ID:              q.ID,
		Number:          q.Number,
		CustomerID:      q.CustomerID,
		OwnerID:         q.OwnerID,
		Status:          string(q.Status),
		AllowedActions:  allowedActions(q),
		Currency:        q.Currency,
		ValidUntil:      q.ValidUntil,
		Subtotal:        q.Subtotal,
		DiscountAmount:  q.DiscountAmount,
		TaxAmount:       q.TaxAmount,
		GrandTotal:      q.GrandTotal,
		Notes:           q.Notes,
		RejectionReason: q.RejectionReason,
		PublicToken:     q.PublicToken,
		RevisionOf:      q.RevisionOf,
		Version:         q.Version,
		SentAt:          q.SentAt,
		ViewedAt:        q.ViewedAt,
		DecidedAt:       q.DecidedAt,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
	if totals == nil || len(totals.Lines) != len(q.Items) {
		return resp
	}
	resp.Items = make([]dto.LineItemResponse, 0, len(q.Items))
	for i, it := range q.Items {
		lt := totals.Lines[i]
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TaxRatePercent:  it.TaxRatePercent,
			LineTotal:       lt.LineTotal,
			DiscountAmount:  lt.Discount,
			TaxAmount:       lt.Tax,
			Total:           lt.Total,
		})
	}
	return resp
}

// toPublicResponse vista del cliente: sin datos internos del vendedor.
func toPublicResponse(r *dto.QuotationResponse) *dto.QuotationResponse {
	out := *r
	out.OwnerID = ""
	out.PublicToken = ""
	out.RevisionOf = ""
	out.AllowedActions = nil
	if entity.QuotationStatus(r.Status) == entity.QuotationStatusViewed {
		out.AllowedActions = []string{"accept", "reject"}
	}
	return &out
}
