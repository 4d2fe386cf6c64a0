package quotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// transitions origen -> destinos permitidos. Los estados terminales no tienen entrada.
var transitions = map[entity.QuotationStatus][]entity.QuotationStatus{
	entity.QuotationStatusDraft: {
		entity.QuotationStatusSent,
		entity.QuotationStatusCancelled,
	},
	entity.QuotationStatusSent: {
		entity.QuotationStatusViewed,
		entity.QuotationStatusExpired,
		entity.QuotationStatusCancelled,
	},
	entity.QuotationStatusViewed: {
		entity.QuotationStatusAccepted,
		entity.QuotationStatusRejected,
		entity.QuotationStatusExpired,
		entity.QuotationStatusCancelled,
	},
}

// CanTransition indica si from -> to está en la tabla.
func CanTransition(from, to entity.QuotationStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// AllowedTargets destinos posibles desde from (vacío para estados terminales).
func AllowedTargets(from entity.QuotationStatus) []entity.QuotationStatus {
	out := make([]entity.QuotationStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// Request solicitud de cambio de estado.
type Request struct {
	Target entity.QuotationStatus
	Reason string
	Now    time.Time
}

// RecipientKind a quién va dirigido un efecto.
type RecipientKind string

const (
	RecipientClient RecipientKind = "client"
	RecipientOwner  RecipientKind = "owner"
)

// Contact datos de contacto de un destinatario.
type Contact struct {
	ID    string
	Name  string
	Email string
}

// NotifyConfig canales activos por tipo de destinatario y sus contactos.
// Se arma por llamada; el motor no lee configuración global.
type NotifyConfig struct {
	ClientChannels []entity.Channel
	OwnerChannels  []entity.Channel
	Client         Contact
	Owner          Contact
}

// Recipient destinatario concreto de un efecto.
type Recipient struct {
	Kind    RecipientKind
	ID      string
	Name    string
	Address string
}

// SideEffectNotify único tipo de efecto que emite el motor.
const SideEffectNotify = "notify"

// SideEffect describe una notificación a entregar; el motor nunca la entrega.
type SideEffect struct {
	Kind           string
	Event          string
	Channel        entity.Channel
	Recipient      Recipient
	QuotationID    string
	IdempotencyKey string
}

// TransitionResult nuevo estado y efectos a despachar, en orden.
type TransitionResult struct {
	From        entity.QuotationStatus
	To          entity.QuotationStatus
	At          time.Time
	Reason      string
	SideEffects []SideEffect
}

// IdempotencyKey clave de entrega derivada de la cotización, el estado destino,
// el canal y el tipo de destinatario.
func IdempotencyKey(quotationID string, to entity.QuotationStatus, ch entity.Channel, kind RecipientKind) string {
	return fmt.Sprintf("quotation:%s:%s:%s:%s", quotationID, to, ch, kind)
}

// Transition decide si q puede pasar a req.Target. No modifica q.
func Transition(q *entity.Quotation, req Request, p Policy, cfg NotifyConfig) (TransitionResult, error) {
	from, to := q.Status, req.Target

	if from.IsTerminal() {
		return TransitionResult{}, &TransitionError{From: from, To: to, Kind: ErrTerminalState}
	}
	if !CanTransition(from, to) {
		return TransitionResult{}, &TransitionError{From: from, To: to, Kind: ErrIllegalTransition}
	}

	reason := strings.TrimSpace(req.Reason)
	switch to {
	case entity.QuotationStatusSent:
		if res := Validate(q, p); !res.Valid {
			return TransitionResult{}, &ValidationError{From: from, To: to, Errors: res.Errors}
		}
	case entity.QuotationStatusExpired:
		if !req.Now.After(q.ValidUntil) {
			return TransitionResult{}, &TransitionError{From: from, To: to, Kind: ErrNotYetExpired}
		}
	case entity.QuotationStatusRejected:
		if reason == "" {
			return TransitionResult{}, &TransitionError{From: from, To: to, Kind: ErrMissingReason}
		}
	}

	return TransitionResult{
		From:        from,
		To:          to,
		At:          req.Now,
		Reason:      reason,
		SideEffects: sideEffects(q.ID, from, to, cfg),
	}, nil
}

// Apply ejecuta Transition y, solo si tiene éxito, actualiza estado, marcas de tiempo y motivo.
func Apply(q *entity.Quotation, req Request, p Policy, cfg NotifyConfig) (TransitionResult, error) {
	res, err := Transition(q, req, p, cfg)
	if err != nil {
		return TransitionResult{}, err
	}
	at := res.At
	q.Status = res.To
	q.UpdatedAt = at
	switch res.To {
	case entity.QuotationStatusSent:
		q.SentAt = &at
		// la política validada queda congelada con los totales
		p.stamp(q)
	case entity.QuotationStatusViewed:
		q.ViewedAt = &at
	case entity.QuotationStatusRejected:
		q.RejectionReason = res.Reason
		q.DecidedAt = &at
	case entity.QuotationStatusAccepted, entity.QuotationStatusExpired, entity.QuotationStatusCancelled:
		q.DecidedAt = &at
	}
	return res, nil
}

func sideEffects(quotationID string, from, to entity.QuotationStatus, cfg NotifyConfig) []SideEffect {
	switch to {
	case entity.QuotationStatusSent:
		return notifyAll(quotationID, to, entity.EventQuotationSent, RecipientClient, cfg.Client, cfg.ClientChannels)
	case entity.QuotationStatusViewed:
		return notifyAll(quotationID, to, entity.EventQuotationViewed, RecipientOwner, cfg.Owner, cfg.OwnerChannels)
	case entity.QuotationStatusAccepted:
		return notifyAll(quotationID, to, entity.EventQuotationAccepted, RecipientOwner, cfg.Owner, cfg.OwnerChannels)
	case entity.QuotationStatusRejected:
		return notifyAll(quotationID, to, entity.EventQuotationRejected, RecipientOwner, cfg.Owner, cfg.OwnerChannels)
	case entity.QuotationStatusCancelled:
		// el cliente nunca vio un borrador
		if from == entity.QuotationStatusDraft {
			return nil
		}
		return notifyAll(quotationID, to, entity.EventQuotationCancelled, RecipientClient, cfg.Client, cfg.ClientChannels)
	}
	// expired es silencioso
	return nil
}

func notifyAll(quotationID string, to entity.QuotationStatus, event string, kind RecipientKind, c Contact, channels []entity.Channel) []SideEffect {
	if len(channels) == 0 {
		return nil
	}
	out := make([]SideEffect, 0, len(channels))
	for _, ch := range channels {
		addr := c.ID
		if ch == entity.ChannelEmail {
			addr = c.Email
			if addr == "" {
				continue
			}
		}
		out = append(out, SideEffect{
			Kind:           SideEffectNotify,
			Event:          event,
			Channel:        ch,
			Recipient:      Recipient{Kind: kind, ID: c.ID, Name: c.Name, Address: addr},
			QuotationID:    quotationID,
			IdempotencyKey: IdempotencyKey(quotationID, to, ch, kind),
		})
	}
	return out
}
