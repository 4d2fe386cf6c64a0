// Package delivery implementa los Sender de cada canal de notificación.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/textproto"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/pkg/config"
)

// mailDialer lo que EmailSender necesita de gomail; los tests lo reemplazan.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender envía por SMTP.
type EmailSender struct {
	dialer   mailDialer
	from     string
	fromName string
}

// NewEmailSender construye el sender desde la configuración SMTP.
func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &EmailSender{dialer: d, from: cfg.From, fromName: cfg.FromName}
}

func (s *EmailSender) Channel() entity.Channel { return entity.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, m notification.Message, c notification.Content) error {
	if _, err := mail.ParseAddress(m.Address); err != nil {
		return fmt.Errorf("%w: dirección %q inválida", notification.ErrPermanent, m.Address)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	if s.fromName != "" {
		msg.SetAddressHeader("From", s.from, s.fromName)
	} else {
		msg.SetHeader("From", s.from)
	}
	if m.RecipientName != "" {
		msg.SetAddressHeader("To", m.Address, m.RecipientName)
	} else {
		msg.SetHeader("To", m.Address)
	}
	msg.SetHeader("Subject", c.Subject)
	msg.SetHeader("X-Idempotency-Key", m.IdempotencyKey)
	msg.SetBody("text/plain", c.Body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		// 5xx del servidor: el destinatario no existe o fue rechazado
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) && tpErr.Code >= 500 {
			return fmt.Errorf("%w: smtp %d %s", notification.ErrPermanent, tpErr.Code, tpErr.Msg)
		}
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}
