package quoting

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/Cotizador-api/internal/application/dto"
	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/domain"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/quotation"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
)

// loader relee la cotización en cada intento.
type loader func(ctx context.Context) (*entity.Quotation, error)

func (uc *QuotationUseCase) byID(companyID, id string) loader {
	return func(ctx context.Context) (*entity.Quotation, error) {
		return uc.mustGet(ctx, companyID, id)
	}
}

func (uc *QuotationUseCase) byToken(token string) loader {
	return func(ctx context.Context) (*entity.Quotation, error) {
		q, err := uc.quotes.GetByPublicToken(ctx, token)
		if err != nil {
			return nil, err
		}
		// un borrador nunca es visible para el cliente
		if q == nil || q.IsDraft() {
			return nil, domain.ErrNotFound
		}
		return q, nil
	}
}

// Send valida y emite la cotización al cliente.
func (uc *QuotationUseCase) Send(ctx context.Context, companyID, id string) (*dto.TransitionResponse, error) {
	return uc.transition(ctx, uc.byID(companyID, id), entity.QuotationStatusSent, "")
}

// Accept registra la aceptación por parte del vendedor (en nombre del cliente).
func (uc *QuotationUseCase) Accept(ctx context.Context, companyID, id string) (*dto.TransitionResponse, error) {
	return uc.transition(ctx, uc.byID(companyID, id), entity.QuotationStatusAccepted, "")
}

// Reject registra el rechazo con su motivo.
func (uc *QuotationUseCase) Reject(ctx context.Context, companyID, id, reason string) (*dto.TransitionResponse, error) {
	return uc.transition(ctx, uc.byID(companyID, id), entity.QuotationStatusRejected, reason)
}

// Cancel anula la cotización. Desde sent/viewed se avisa al cliente.
func (uc *QuotationUseCase) Cancel(ctx context.Context, companyID, id, reason string) (*dto.TransitionResponse, error) {
	return uc.transition(ctx, uc.byID(companyID, id), entity.QuotationStatusCancelled, reason)
}

// Expire vence una cotización cuya vigencia ya pasó.
func (uc *QuotationUseCase) Expire(ctx context.Context, companyID, id string) (*dto.TransitionResponse, error) {
	return uc.transition(ctx, uc.byID(companyID, id), entity.QuotationStatusExpired, "")
}

// ViewPublic devuelve la cotización al cliente por su token. La primera apertura
// de una cotización enviada la pasa a viewed; las siguientes solo la leen.
func (uc *QuotationUseCase) ViewPublic(ctx context.Context, token string) (*dto.QuotationResponse, error) {
	load := uc.byToken(token)
	q, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if q.Status == entity.QuotationStatusSent {
		res, err := uc.transition(ctx, load, entity.QuotationStatusViewed, "")
		switch {
		case err == nil:
			return toPublicResponse(&res.Quotation), nil
		case errors.Is(err, quotation.ErrIllegalTransition), errors.Is(err, quotation.ErrTerminalState):
			// otra petición la marcó primero o ya cambió de estado
			if q, err = load(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	return toPublicResponse(uc.respond(q)), nil
}

// AcceptPublic aceptación hecha por el cliente desde el enlace público.
func (uc *QuotationUseCase) AcceptPublic(ctx context.Context, token string) (*dto.QuotationResponse, error) {
	res, err := uc.transition(ctx, uc.byToken(token), entity.QuotationStatusAccepted, "")
	if err != nil {
		return nil, err
	}
	return toPublicResponse(&res.Quotation), nil
}

// RejectPublic rechazo hecho por el cliente desde el enlace público.
func (uc *QuotationUseCase) RejectPublic(ctx context.Context, token, reason string) (*dto.QuotationResponse, error) {
	res, err := uc.transition(ctx, uc.byToken(token), entity.QuotationStatusRejected, reason)
	if err != nil {
		return nil, err
	}
	return toPublicResponse(&res.Quotation), nil
}

// ExpireOverdue vence las cotizaciones sent/viewed fuera de vigencia, leyendo lotes de
// limit. Las que fallan quedan fuera de los lotes siguientes, así no tapan a las demás;
// las que otra operación movió entre la lectura y la escritura se omiten.
func (uc *QuotationUseCase) ExpireOverdue(ctx context.Context, limit int) (*dto.ExpireSweepResponse, error) {
	if limit <= 0 {
		limit = 100
	}
	out := &dto.ExpireSweepResponse{}
	var seen []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		overdue, err := uc.quotes.ListOverdue(ctx, uc.now(), limit, seen)
		if err != nil {
			return nil, err
		}
		if len(overdue) == 0 {
			return out, nil
		}
		out.Checked += len(overdue)
		for _, q := range overdue {
			seen = append(seen, q.ID)
			_, err := uc.Expire(ctx, q.CompanyID, q.ID)
			switch {
			case err == nil:
				out.Expired++
			case errors.Is(err, quotation.ErrIllegalTransition), errors.Is(err, quotation.ErrTerminalState):
				uc.log.Debug().Str("quotation_id", q.ID).Msg("expiración omitida: la cotización ya cambió de estado")
			default:
				uc.log.Error().Err(err).Str("quotation_id", q.ID).Msg("no se pudo vencer la cotización")
				out.Failed = append(out.Failed, q.ID)
			}
		}
	}
}

// transition ejecuta el cambio de estado con reintento ante conflicto de versión:
// cada intento relee, vuelve a validar y vuelve a calcular los efectos.
func (uc *QuotationUseCase) transition(ctx context.Context, load loader, target entity.QuotationStatus, reason string) (*dto.TransitionResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.cfg.MaxRetries; attempt++ {
		resp, err := uc.tryTransition(ctx, load, target, reason)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		uc.log.Warn().Int("attempt", attempt).Str("target", string(target)).Msg("conflicto de versión, reintentando")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (uc *QuotationUseCase) tryTransition(ctx context.Context, load loader, target entity.QuotationStatus, reason string) (*dto.TransitionResponse, error) {
	q, err := load(ctx)
	if err != nil {
		return nil, err
	}
	// un borrador se valida con la política vigente; fuera de borrador manda la guardada
	policy := quotation.PolicyOf(q)
	if q.IsDraft() {
		settings, err := uc.loadSettings(ctx, q.CompanyID)
		if err != nil {
			return nil, err
		}
		policy = quotation.PolicyFromSettings(settings)
	}
	customer, err := uc.customers.GetByID(ctx, q.CompanyID, q.CustomerID)
	if err != nil {
		return nil, err
	}
	company, err := uc.companies.GetByID(ctx, q.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("empresa %s: %w", q.CompanyID, domain.ErrNotFound)
	}
	cfg, err := uc.notify.ConfigFor(ctx, q, customer)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	res, err := quotation.Apply(q, quotation.Request{Target: target, Reason: reason, Now: now}, policy, cfg)
	if err != nil {
		return nil, err
	}
	policy = quotation.PolicyOf(q)
	snap := notification.Snapshot{CompanyName: company.Name, Scale: policy.Scale}
	if customer != nil {
		snap.CustomerName = customer.Name
	}
	msgs, err := notification.BuildOutbox(q, res, snap, now)
	if err != nil {
		return nil, err
	}
	if target == entity.QuotationStatusSent && len(res.SideEffects) == 0 {
		// sin email del cliente y con push apagado nadie recibe el enlace
		uc.log.Warn().Str("quotation_id", q.ID).Str("number", q.Number).
			Msg("cotización enviada sin canales hacia el cliente; compartir el enlace público a mano")
	}

	err = uc.tx.RunQuotation(ctx, func(quoteRepo repository.QuotationRepository, outboxRepo repository.OutboxRepository) error {
		if err := quoteRepo.Update(ctx, q); err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		return outboxRepo.Enqueue(ctx, msgs)
	})
	if err != nil {
		return nil, err
	}

	var totals *quotation.Totals
	if t, err := quotation.ComputeTotals(q.Items, policy); err == nil {
		totals = &t
	}
	return &dto.TransitionResponse{
		Quotation:      *toQuotationResponse(q, totals),
		From:           string(res.From),
		To:             string(res.To),
		QueuedMessages: len(msgs),
	}, nil
}
