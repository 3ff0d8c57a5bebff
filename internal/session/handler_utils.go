package session

import (
	"context"

	"pongmatch/internal/game"
	"pongmatch/internal/network"
	"pongmatch/internal/session/message"
)

// decode lê o payload do pedido. Falhas viram INVALID_PAYLOAD.
func decode(msg network.Message, dst any) error {
	if err := msg.Decode(dst); err != nil {
		return game.Errorf(game.CodeInvalidPayload, "invalid payload for %s", msg.Type)
	}
	return nil
}

// playerOf monta o jogador a partir da conexão verificada.
func playerOf(c network.Conn) game.Player {
	id := c.Identity()
	return game.Player{UserID: id.UserID, ConnID: c.ID(), Username: id.Username}
}

// respond envia a resposta de um pedido no mesmo evento, ecoando o id.
func respond(c network.Conn, msg network.Message, payload any) {
	c.Deliver(message.CreateResponse(msg.Type, msg.ID, payload))
}

// respondIfAsked só responde quando o cliente mandou um id. Usado nos eventos de alta
// frequência, que não esperam confirmação.
func respondIfAsked(c network.Conn, msg network.Message) {
	if msg.ID == "" {
		return
	}
	respond(c, msg, message.StatusResponse{Status: message.StatusSuccess})
}

func (h *GameHandler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, requestTimeout)
}
