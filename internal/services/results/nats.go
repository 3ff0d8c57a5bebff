package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix é o prefixo padrão; o assunto final é <prefix>.<gameMode>.
const DefaultSubjectPrefix = "pong.results"

// Conn é o subconjunto de *nats.Conn usado aqui.
type Conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

// NATSPublisher publica cada resultado como JSON num assunto NATS.
type NATSPublisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

// ConnectNATS conecta ao servidor com reconexão infinita.
func ConnectNATS(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("[Results] nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("[Results] nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

func NewNATSPublisher(conn Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject devolve o assunto usado para o modo de jogo.
func (p *NATSPublisher) Subject(r Result) string {
	return p.prefix + "." + string(r.GameMode)
}

func (p *NATSPublisher) Publish(ctx context.Context, r Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	subject := p.Subject(r)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Info("[Results] result published", "subject", subject, "match_id", r.MatchID)
	return nil
}

// Check é usado pelo /health.
func (p *NATSPublisher) Check(context.Context) error {
	if !p.conn.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

// Close drena a conexão, entregando o que estiver pendente.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
