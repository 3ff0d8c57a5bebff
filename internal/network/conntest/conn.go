// Package conntest oferece uma conexão em memória que grava tudo o que recebe.
package conntest

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"pongmatch/internal/game"
	"pongmatch/internal/network"
)

var seq atomic.Int64

// Conn implementa network.Conn guardando as mensagens entregues.
type Conn struct {
	id       string
	identity game.Identity

	mu     sync.Mutex
	msgs   []network.Message
	closed bool
}

// New cria uma conexão para o usuário, com um connID único.
func New(userID string) *Conn {
	return &Conn{
		id:       fmt.Sprintf("conn-%s-%d", userID, seq.Add(1)),
		identity: game.Identity{UserID: userID, Username: "user-" + userID},
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Identity() game.Identity { return c.identity }

func (c *Conn) Deliver(msg network.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.msgs = append(c.msgs, msg)
	return true
}

// Player devolve o jogador desta conexão.
func (c *Conn) Player() game.Player {
	return game.Player{UserID: c.identity.UserID, ConnID: c.id, Username: c.identity.Username}
}

// Close faz Deliver passar a descartar mensagens.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Conn) Messages() []network.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]network.Message(nil), c.msgs...)
}

// Events devolve as mensagens do tipo informado, em ordem.
func (c *Conn) Events(msgType string) []network.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []network.Message
	for _, m := range c.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (c *Conn) Count(msgType string) int {
	return len(c.Events(msgType))
}

// Last devolve a última mensagem do tipo informado.
func (c *Conn) Last(msgType string) (network.Message, bool) {
	evts := c.Events(msgType)
	if len(evts) == 0 {
		return network.Message{}, false
	}
	return evts[len(evts)-1], true
}

// Types lista os tipos recebidos, em ordem.
func (c *Conn) Types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, m.Type)
	}
	return out
}

func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

// Decode decodifica o payload da mensagem, falhando o teste em caso de erro.
func Decode[T any](tb testing.TB, msg network.Message) T {
	tb.Helper()
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		tb.Fatalf("decode %s payload: %v", msg.Type, err)
	}
	return v
}

// MustLast é Last + Decode; falha se o tipo nunca chegou.
func MustLast[T any](tb testing.TB, c *Conn, msgType string) T {
	tb.Helper()
	msg, ok := c.Last(msgType)
	if !ok {
		tb.Fatalf("no %s message delivered to %s (got %v)", msgType, c.ID(), c.Types())
	}
	return Decode[T](tb, msg)
}
