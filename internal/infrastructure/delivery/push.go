package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/pkg/config"
)

type pushPayload struct {
	IdempotencyKey string `json:"idempotency_key"`
	Event          string `json:"event"`
	RecipientKind  string `json:"recipient_kind"`
	RecipientID    string `json:"recipient_id"`
	CompanyID      string `json:"company_id"`
	QuotationID    string `json:"quotation_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
}

// PushSender publica la notificación en un webhook JSON (pasarela de push).
type PushSender struct {
	url    string
	token  string
	client *http.Client
}

// NewPushSender construye el sender.
func NewPushSender(cfg config.PushConfig) *PushSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushSender{url: cfg.WebhookURL, token: cfg.Token, client: &http.Client{Timeout: timeout}}
}

func (s *PushSender) Channel() entity.Channel { return entity.ChannelPush }

func (s *PushSender) Send(ctx context.Context, m notification.Message, c notification.Content) error {
	body, err := json.Marshal(pushPayload{
		IdempotencyKey: m.IdempotencyKey,
		Event:          m.Event,
		RecipientKind:  m.RecipientKind,
		RecipientID:    m.RecipientID,
		CompanyID:      m.CompanyID,
		QuotationID:    m.QuotationID,
		Title:          c.Subject,
		Body:           c.Body,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", m.IdempotencyKey)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("push: status %d: %s", resp.StatusCode, snippet)
	default:
		return fmt.Errorf("%w: push status %d: %s", notification.ErrPermanent, resp.StatusCode, snippet)
	}
}
