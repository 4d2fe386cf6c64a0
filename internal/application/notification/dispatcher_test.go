package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
	"github.com/jhoicas/Cotizador-api/pkg/money"
)

type failure struct {
	errMsg string
	next   *time.Time
}

// fakeOutbox entrega en Claim lo encolado y registra el resultado de cada mensaje.
type fakeOutbox struct {
	mu      sync.Mutex
	queue   []*entity.OutboxMessage
	sent    []string
	failed  map[string]failure
	claimed int
}

func (f *fakeOutbox) Enqueue(_ context.Context, msgs []*entity.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, msgs...)
	return nil
}

func (f *fakeOutbox) Claim(_ context.Context, _ string, limit int, _, _ time.Time) ([]*entity.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.queue)
	if n > limit {
		n = limit
	}
	out := f.queue[:n]
	f.queue = f.queue[n:]
	for _, m := range out {
		m.Attempts++
		m.Status = entity.OutboxStatusProcessing
	}
	f.claimed += n
	return out, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id, errMsg string, next *time.Time, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = map[string]failure{}
	}
	f.failed[id] = failure{errMsg: errMsg, next: next}
	return nil
}

// memIdem almacén de idempotencia en memoria (sin TTL).
type memIdem struct {
	mu        sync.Mutex
	reserved  map[string]string
	delivered map[string]bool
}

func newMemIdem() *memIdem {
	return &memIdem{reserved: map[string]string{}, delivered: map[string]bool{}}
}

func (m *memIdem) Reserve(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delivered[key] {
		return false, nil
	}
	if _, taken := m.reserved[key]; taken {
		return false, nil
	}
	m.reserved[key] = owner
	return true, nil
}

func (m *memIdem) Complete(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, key)
	m.delivered[key] = true
	return nil
}

func (m *memIdem) Release(_ context.Context, key, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserved[key] == owner {
		delete(m.reserved, key)
	}
	return nil
}

func (m *memIdem) Delivered(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delivered[key], nil
}

type recordingSender struct {
	channel entity.Channel
	err     error
	got     []Content
}

func (s *recordingSender) Channel() entity.Channel { return s.channel }

func (s *recordingSender) Send(_ context.Context, _ Message, c Content) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, c)
	return nil
}

var dispatchNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func outboxRecord(t *testing.T, id string, ch entity.Channel, attempts int) *entity.OutboxMessage {
	t.Helper()
	m := Message{
		IdempotencyKey: "quotation:q-1:sent:" + string(ch) + ":client",
		Event:          entity.EventQuotationSent,
		Channel:        ch,
		RecipientKind:  "client",
		RecipientName:  "ACME",
		Address:        "compras@acme.test",
		CompanyName:    "Cotizador SAS",
		QuotationID:    "q-1",
		Number:         "COT-2026-000001",
		GrandTotal:     decimal.RequireFromString("108"),
		Currency:       "USD",
		Scale:          2,
		ValidUntil:     dispatchNow.AddDate(0, 0, 30),
		PublicToken:    "tok123",
	}
	payload, err := json.Marshal(m)
	require.NoError(t, err)
	return &entity.OutboxMessage{
		ID:             id,
		QuotationID:    "q-1",
		IdempotencyKey: m.IdempotencyKey,
		Payload:        payload,
		Status:         entity.OutboxStatusPending,
		Attempts:       attempts,
	}
}

func newTestDispatcher(t *testing.T, outbox *fakeOutbox, idem IdempotencyStore, cfg DispatcherConfig, senders ...Sender) *Dispatcher {
	t.Helper()
	tpl, err := NewTemplates("https://cotizador.test/q", money.NewFormatter("es"), nil)
	require.NoError(t, err)
	d := NewDispatcher(outbox, idem, tpl, cfg, logger.Nop(), senders...)
	d.now = func() time.Time { return dispatchNow }
	return d
}

func TestDispatcher_EntregaUnaSolaVez(t *testing.T) {
	outbox := &fakeOutbox{}
	email := &recordingSender{channel: entity.ChannelEmail}
	d := newTestDispatcher(t, outbox, newMemIdem(), DefaultDispatcherConfig(), email)

	first := outboxRecord(t, "m-1", entity.ChannelEmail, 0)
	// misma clave reclamada otra vez (por ejemplo, tras caída antes de MarkSent)
	dup := outboxRecord(t, "m-1", entity.ChannelEmail, 1)
	require.NoError(t, outbox.Enqueue(context.Background(), []*entity.OutboxMessage{first, dup}))

	n, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, email.got, 1)
	assert.Contains(t, email.got[0].Subject, "COT-2026-000001")
	assert.Contains(t, email.got[0].Body, "https://cotizador.test/q/tok123")
	assert.Equal(t, []string{"m-1", "m-1"}, outbox.sent)
	assert.Empty(t, outbox.failed)
}

func TestDispatcher_FalloTransitorioReagenda(t *testing.T) {
	outbox := &fakeOutbox{}
	idem := newMemIdem()
	push := &recordingSender{channel: entity.ChannelPush, err: errors.New("503 del proveedor")}
	d := newTestDispatcher(t, outbox, idem, DefaultDispatcherConfig(), push)

	require.NoError(t, outbox.Enqueue(context.Background(), []*entity.OutboxMessage{outboxRecord(t, "m-2", entity.ChannelPush, 1)}))
	_, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)

	f, ok := outbox.failed["m-2"]
	require.True(t, ok)
	require.NotNil(t, f.next)
	// segundo intento: 5s * 2
	assert.Equal(t, dispatchNow.Add(10*time.Second), *f.next)
	assert.Contains(t, f.errMsg, "503")

	// la reserva se liberó para el próximo intento
	reserved, err := idem.Reserve(context.Background(), "quotation:q-1:sent:push:client", "otro", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestDispatcher_DeadPorIntentosOCanalDesconocido(t *testing.T) {
	outbox := &fakeOutbox{}
	cfg := DefaultDispatcherConfig()
	cfg.MaxAttempts = 3
	push := &recordingSender{channel: entity.ChannelPush, err: errors.New("timeout")}
	d := newTestDispatcher(t, outbox, newMemIdem(), cfg, push)

	require.NoError(t, outbox.Enqueue(context.Background(), []*entity.OutboxMessage{
		outboxRecord(t, "agotado", entity.ChannelPush, 2),
		outboxRecord(t, "sin-sender", entity.ChannelEmail, 0),
	}))
	_, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)

	require.Contains(t, outbox.failed, "agotado")
	assert.Nil(t, outbox.failed["agotado"].next)
	require.Contains(t, outbox.failed, "sin-sender")
	assert.Nil(t, outbox.failed["sin-sender"].next)
}

func TestDispatcher_Backoff(t *testing.T) {
	d := &Dispatcher{cfg: DispatcherConfig{InitialBackoff: 5 * time.Second, MaxBackoff: time.Minute}}
	assert.Equal(t, 5*time.Second, d.Backoff(1))
	assert.Equal(t, 10*time.Second, d.Backoff(2))
	assert.Equal(t, 40*time.Second, d.Backoff(4))
	assert.Equal(t, time.Minute, d.Backoff(5))
	assert.Equal(t, time.Minute, d.Backoff(30))
}

func TestDispatcher_RunTerminaConElContexto(t *testing.T) {
	cfg := DefaultDispatcherConfig()
	cfg.PollInterval = 10 * time.Millisecond
	d := newTestDispatcher(t, &fakeOutbox{}, newMemIdem(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}
