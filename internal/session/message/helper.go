package message

import (
	"pongmatch/internal/network"
)

// MessageSender é qualquer destino capaz de receber uma mensagem.
// network.Conn satisfaz esta interface.
type MessageSender interface {
	Deliver(msg network.Message) bool
}

// SendEvent empurra um evento tipado para o destino.
func SendEvent(sender MessageSender, evt Event) bool {
	return sender.Deliver(Encode(evt))
}

// SendSuccess responde com {status:"OK", message}.
func SendSuccess(sender MessageSender, event, id, msg string) bool {
	return sender.Deliver(CreateResponse(event, id, StatusResponse{Status: StatusSuccess, Message: msg}))
}

// SendError responde com o erro no mesmo evento. Eventos de pedido/resposta
// sempre respondem assim; os demais só quando há id, e sem id o erro vai
// como evento "error".
func SendError(sender MessageSender, event, id string, err error) bool {
	if id == "" && !IsRequestEvent(event) {
		return sender.Deliver(CreateErrorEvent(event, err))
	}
	return sender.Deliver(CreateErrorResponse(event, id, err))
}

// IsRequestEvent diz se o evento sempre recebe resposta, com ou sem id.
func IsRequestEvent(event string) bool {
	switch event {
	case EventJoinQueue, EventLeaveQueue, EventAcceptMatch, EventJoinGameRoom:
		return true
	default:
		return false
	}
}
