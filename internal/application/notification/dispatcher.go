package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/domain/repository"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// DispatcherConfig parámetros de sondeo y reintento.
type DispatcherConfig struct {
	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration // processing más viejo que esto se reclama
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	ReserveTTL     time.Duration // duración de la reserva mientras se entrega
	DeliveredTTL   time.Duration // cuánto se recuerda una clave entregada
}

// DefaultDispatcherConfig valores por defecto.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		BatchSize:      50,
		PollInterval:   time.Second,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    10,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
		ReserveTTL:     2 * time.Minute,
		DeliveredTTL:   7 * 24 * time.Hour,
	}
}

// Dispatcher consume el outbox y entrega cada mensaje con su Sender.
// Entrega al menos una vez; la clave de idempotencia evita duplicados visibles.
type Dispatcher struct {
	outbox    repository.OutboxRepository
	idem      IdempotencyStore
	templates *Templates
	senders   map[entity.Channel]Sender
	cfg       DispatcherConfig
	workerID  string
	log       *logger.Logger
	now       func() time.Time
}

// NewDispatcher construye el dispatcher. Un canal sin Sender deja sus mensajes en dead.
func NewDispatcher(
	outbox repository.OutboxRepository,
	idem IdempotencyStore,
	templates *Templates,
	cfg DispatcherConfig,
	log *logger.Logger,
	senders ...Sender,
) *Dispatcher {
	byChannel := make(map[entity.Channel]Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &Dispatcher{
		outbox:    outbox,
		idem:      idem,
		templates: templates,
		senders:   byChannel,
		cfg:       cfg,
		workerID:  uuid.New().String(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sondea hasta que ctx se cancele.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info().Str("worker_id", d.workerID).Dur("poll_interval", d.cfg.PollInterval).Msg("dispatcher de notificaciones iniciado")
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("worker_id", d.workerID).Msg("dispatcher de notificaciones detenido")
			return
		default:
		}
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.log.Error().Err(err).Msg("dispatcher: lote fallido")
		}
		select {
		case <-ctx.Done():
			d.log.Info().Str("worker_id", d.workerID).Msg("dispatcher de notificaciones detenido")
			return
		case <-time.After(d.cfg.PollInterval):
		}
	}
}

// DispatchOnce reclama y procesa un lote. Devuelve cuántos mensajes se reclamaron.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.now()
	claimed, err := d.outbox.Claim(ctx, d.workerID, d.cfg.BatchSize, now, now.Add(-d.cfg.LockTimeout))
	if err != nil {
		return 0, err
	}
	for _, m := range claimed {
		d.process(ctx, m)
	}
	return len(claimed), nil
}

func (d *Dispatcher) process(ctx context.Context, rec *entity.OutboxMessage) {
	msg, err := DecodeMessage(rec)
	if err != nil {
		d.fail(ctx, rec, fmt.Errorf("%w: %v", ErrPermanent, err))
		return
	}

	ok, err := d.idem.Reserve(ctx, rec.IdempotencyKey, d.workerID, d.cfg.ReserveTTL)
	if err != nil {
		d.fail(ctx, rec, fmt.Errorf("reservar clave: %w", err))
		return
	}
	if !ok {
		delivered, err := d.idem.Delivered(ctx, rec.IdempotencyKey)
		if err == nil && delivered {
			d.log.Debug().Str("outbox_id", rec.ID).Str("idempotency_key", rec.IdempotencyKey).Msg("mensaje ya entregado, se omite")
			d.markSent(ctx, rec)
			return
		}
		d.fail(ctx, rec, errors.New("entrega en curso en otro worker"))
		return
	}

	if err := d.deliver(ctx, msg); err != nil {
		if relErr := d.idem.Release(ctx, rec.IdempotencyKey, d.workerID); relErr != nil {
			d.log.Warn().Err(relErr).Str("outbox_id", rec.ID).Msg("no se pudo liberar la clave de idempotencia")
		}
		d.fail(ctx, rec, err)
		return
	}
	if err := d.idem.Complete(ctx, rec.IdempotencyKey, d.cfg.DeliveredTTL); err != nil {
		d.log.Warn().Err(err).Str("outbox_id", rec.ID).Msg("no se pudo confirmar la clave de idempotencia")
	}
	d.markSent(ctx, rec)
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	sender, ok := d.senders[msg.Channel]
	if !ok {
		return fmt.Errorf("%w: canal %q sin sender", ErrPermanent, msg.Channel)
	}
	content, err := d.templates.Render(msg)
	if err != nil {
		return err
	}
	return sender.Send(ctx, msg, content)
}

func (d *Dispatcher) markSent(ctx context.Context, rec *entity.OutboxMessage) {
	if err := d.outbox.MarkSent(ctx, rec.ID, d.now()); err != nil {
		d.log.Error().Err(err).Str("outbox_id", rec.ID).Msg("dispatcher: no se pudo marcar como enviado")
		return
	}
	d.log.Info().Str("outbox_id", rec.ID).Str("quotation_id", rec.QuotationID).Int("attempt", rec.Attempts).Msg("notificación entregada")
}

// fail agenda un reintento o deja el mensaje en dead.
func (d *Dispatcher) fail(ctx context.Context, rec *entity.OutboxMessage, cause error) {
	var next *time.Time
	dead := errors.Is(cause, ErrPermanent) || (d.cfg.MaxAttempts > 0 && rec.Attempts >= d.cfg.MaxAttempts)
	if !dead {
		t := d.now().Add(d.Backoff(rec.Attempts))
		next = &t
	}
	if err := d.outbox.MarkFailed(ctx, rec.ID, cause.Error(), next, d.now()); err != nil {
		d.log.Error().Err(err).Str("outbox_id", rec.ID).Msg("dispatcher: no se pudo registrar el fallo")
		return
	}
	ev := d.log.Warn()
	if dead {
		ev = d.log.Error()
	}
	ev.Err(cause).
		Str("outbox_id", rec.ID).
		Str("quotation_id", rec.QuotationID).
		Int("attempt", rec.Attempts).
		Bool("dead", dead).
		Msg("entrega de notificación fallida")
}

// Backoff InitialBackoff * 2^(attempt-1), con tope MaxBackoff.
func (d *Dispatcher) Backoff(attempt int) time.Duration {
	b := d.cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		b *= 2
		if d.cfg.MaxBackoff > 0 && b >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return b
}
