package nats

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/ownr-go/core/notify"
	"github.com/codewandler/ownr-go/core/resource"
	"github.com/codewandler/ownr-go/internal/codec"
)

const DefaultStatusSubject = "ownr.status"

var ErrPublisherClosed = errors.New("status publisher closed")

// StatusSource is anything status updates can be subscribed to, such as an
// *app.App or a *notify.Notifier[resource.StatusRecord].
type StatusSource interface {
	Subscribe(fn func(resource.StatusRecord)) *notify.Subscription[resource.StatusRecord]
}

type PublisherConfig struct {
	Connect Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)
	Subject string       // Subject status records are published to. Defaults to DefaultStatusSubject.
	Codec   codec.Codec  // Codec for the payload. Defaults to JSON.
}

// StatusPublisher forwards status broadcasts to a NATS subject. Publishing
// happens on the broadcasting goroutine; nats.go buffers the write, so the
// executor is not held up by the network.
type StatusPublisher struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	subject string
	codec   codec.Codec

	mu   sync.Mutex
	subs []*notify.Subscription[resource.StatusRecord]

	published atomic.Uint64
	closed    atomic.Bool
}

func NewStatusPublisher(cfg PublisherConfig) (*StatusPublisher, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	if cfg.Subject == "" {
		cfg.Subject = DefaultStatusSubject
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.JSONCodec{}
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &StatusPublisher{
		nc:      nc,
		closeNc: closeNc,
		log:     log.With(slog.String("subject", cfg.Subject)),
		subject: cfg.Subject,
		codec:   cfg.Codec,
	}, nil
}

// Subject returns the subject records are published to.
func (p *StatusPublisher) Subject() string { return p.subject }

// Published returns the number of records handed to the connection.
func (p *StatusPublisher) Published() uint64 { return p.published.Load() }

// Attach subscribes the publisher to src. Every status broadcast by src is
// published until the publisher is closed.
func (p *StatusPublisher) Attach(src StatusSource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	sub := src.Subscribe(func(s resource.StatusRecord) {
		if err := p.Publish(s); err != nil {
			p.log.Warn("publish status failed", slog.Any("error", err))
		}
	})
	p.subs = append(p.subs, sub)
	return nil
}

// Publish sends one record.
func (p *StatusPublisher) Publish(s resource.StatusRecord) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	data, err := p.codec.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	msg := natsgo.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("Content-Type", p.codec.ContentType())
	msg.Header.Set("Ownr-Timestamp", s.Timestamp.Format(time.RFC3339Nano))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	p.published.Add(1)
	return nil
}

// Close detaches from every source, flushes pending messages and releases the
// connection. It is safe to call more than once.
func (p *StatusPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	for _, sub := range p.subs {
		sub.Unsubscribe()
	}
	p.subs = nil
	p.mu.Unlock()

	err := p.nc.FlushTimeout(2 * time.Second)
	p.closeNc()
	p.log.Debug("status publisher closed", slog.Uint64("published", p.published.Load()))
	if err != nil && !errors.Is(err, natsgo.ErrConnectionClosed) {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// SubscribeStatus decodes records published on subject and hands them to fn.
func SubscribeStatus(nc *natsgo.Conn, subject string, c codec.Codec, fn func(resource.StatusRecord)) (*natsgo.Subscription, error) {
	if c == nil {
		c = codec.JSONCodec{}
	}
	return nc.Subscribe(subject, func(msg *natsgo.Msg) {
		var s resource.StatusRecord
		if err := c.Unmarshal(msg.Data, &s); err != nil {
			slog.Default().Warn("discarding undecodable status", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		fn(s)
	})
}
