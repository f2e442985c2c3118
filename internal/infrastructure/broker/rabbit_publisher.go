// Package broker publica los eventos de asignación en RabbitMQ (sink externo de auditoría).
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

var _ lifecycle.EventPublisher = (*RabbitPublisher)(nil)

// EventMessage cuerpo JSON publicado por cada evento.
type EventMessage struct {
	EventID        string    `json:"event_id"`
	AssetID        string    `json:"asset_id"`
	Action         string    `json:"action"`
	PreviousState  string    `json:"previous_state,omitempty"`
	NewState       string    `json:"new_state"`
	PreviousUserID string    `json:"previous_user_id,omitempty"`
	NewUserID      string    `json:"new_user_id,omitempty"`
	Actor          string    `json:"actor"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewEventMessage arma el mensaje a partir del evento de dominio.
func NewEventMessage(e entity.AssignmentEvent) EventMessage {
	return EventMessage{
		EventID:        e.ID,
		AssetID:        e.AssetID,
		Action:         e.Action,
		PreviousState:  string(e.PreviousState),
		NewState:       string(e.NewState),
		PreviousUserID: e.PreviousUserID,
		NewUserID:      e.NewUserID,
		Actor:          e.Actor,
		OccurredAt:     e.OccurredAt.UTC(),
	}
}

// RoutingKey clave de ruteo por acción: asset.assign, asset.unassign, ...
func RoutingKey(action string) string {
	return "asset." + strings.ToLower(action)
}

// dialTimeout tope de conexión TCP y handshake AMQP.
const dialTimeout = 5 * time.Second

// ErrNotConnected la conexión con RabbitMQ está caída; se reintenta en segundo plano.
var ErrNotConnected = errors.New("rabbitmq: sin conexión, reconexión en curso")

// RabbitPublisher publica en un exchange topic durable. mu protege solo el puntero a la
// conexión: Publish nunca espera un Dial. Con la conexión caída falla de inmediato y lanza
// una única reconexión en segundo plano.
type RabbitPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
	closed   bool
	log      *logger.Logger

	reconnecting atomic.Bool
}

// NewRabbitPublisher conecta y declara el exchange.
func NewRabbitPublisher(url, exchange string, log *logger.Logger) (*RabbitPublisher, error) {
	p := newPublisher(url, exchange, log)
	conn, ch, err := p.connect()
	if err != nil {
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return p, nil
}

func newPublisher(url, exchange string, log *logger.Logger) *RabbitPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &RabbitPublisher{url: url, exchange: exchange, log: log.Component("broker")}
}

func (p *RabbitPublisher) connect() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: declarar exchange %s: %w", p.exchange, err)
	}
	return conn, ch, nil
}

// channel devuelve el canal vigente o nil si la conexión está caída.
func (p *RabbitPublisher) channel() *amqp.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	return p.ch
}

// reconnect lanza una reconexión en segundo plano si no hay otra en curso.
func (p *RabbitPublisher) reconnect() {
	if !p.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.reconnecting.Store(false)
		conn, ch, err := p.connect()
		if err != nil {
			p.log.Warn().Err(err).Str("exchange", p.exchange).Msg("reconexión a rabbitmq")
			return
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = ch.Close()
			_ = conn.Close()
			return
		}
		p.closeLocked()
		p.conn, p.ch = conn, ch
		p.mu.Unlock()
		p.log.Info().Str("exchange", p.exchange).Msg("reconectado a rabbitmq")
	}()
}

// Publish envía el evento como mensaje persistente. El canal AMQP serializa internamente
// el envío de frames, así que publicaciones de activos distintos no se esperan entre sí.
func (p *RabbitPublisher) Publish(ctx context.Context, event entity.AssignmentEvent) error {
	body, err := json.Marshal(NewEventMessage(event))
	if err != nil {
		return fmt.Errorf("rabbitmq: serializar evento: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt.UTC(),
		Body:         body,
	}

	ch := p.channel()
	if ch == nil {
		p.reconnect()
		return ErrNotConnected
	}
	if err := ch.PublishWithContext(ctx, p.exchange, RoutingKey(event.Action), false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publicar %s: %w", event.ID, err)
	}
	return nil
}

// Close cierra canal y conexión. Una reconexión en curso se descarta.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeLocked()
}

func (p *RabbitPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
