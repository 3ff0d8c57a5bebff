package message

import (
	"encoding/json"
	"errors"

	"pongmatch/internal/game"
	"pongmatch/internal/network"
)

// StatusResponse é a resposta genérica de um pedido: sucesso ou erro codificado.
type StatusResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	Code    game.Code `json:"code,omitempty"`
}

type JoinQueueResponse struct {
	Status   string    `json:"status"`
	GameMode game.Mode `json:"gameMode"`
	Time     int64     `json:"time"`
	Pos      int       `json:"pos"`
}

type JoinRoomResponse struct {
	Status  string    `json:"status"`
	Role    game.Role `json:"role"`
	Message string    `json:"message"`
}

// Encode transforma um evento tipado no envelope de rede.
func Encode(evt Event) network.Message {
	return encode(evt.EventName(), "", evt)
}

// CreateResponse responde a um pedido no mesmo nome de evento, ecoando o id.
func CreateResponse(event, id string, payload any) network.Message {
	return encode(event, id, payload)
}

// CreateErrorResponse monta a resposta de erro {status:"ERROR", message, code}.
// Erros que não são *game.Error viram INTERNAL sem vazar detalhes.
func CreateErrorResponse(event, id string, err error) network.Message {
	return encode(event, id, errorStatus(err))
}

// CreateErrorEvent monta o evento "error" usado quando o pedido não tem id.
func CreateErrorEvent(event string, err error) network.Message {
	st := errorStatus(err)
	return Encode(ErrorEvent{Message: st.Message, Code: st.Code, Event: event})
}

func errorStatus(err error) StatusResponse {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		return StatusResponse{Status: StatusError, Message: gameErr.Message, Code: gameErr.Code}
	}
	return StatusResponse{Status: StatusError, Message: "internal error", Code: game.CodeInternal}
}

func encode(event, id string, payload any) network.Message {
	// Todos os payloads são structs nossos; falha de marshal é bug de programação.
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(StatusResponse{Status: StatusError, Message: "encode failure", Code: game.CodeInternal})
	}
	return network.Message{Type: event, ID: id, Payload: data}
}
