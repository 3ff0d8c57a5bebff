package network

import (
	"encoding/json"
	"fmt"
)

// Message é o envelope padrão para toda a comunicação.
// Type roteia o evento, ID (opcional) correlaciona a resposta de um pedido
// e Payload carrega os dados específicos, decodificados depois pelo handler.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MaxMessageSize limita o tamanho de uma mensagem de entrada.
const MaxMessageSize = 64 * 1024

// NewMessage serializa o payload e monta o envelope.
func NewMessage(msgType, id string, payload any) (Message, error) {
	msg := Message{Type: msgType, ID: id}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal payload for %s: %w", msgType, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode decodifica o payload no destino informado.
func (m Message) Decode(dst any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", m.Type)
	}
	if err := json.Unmarshal(m.Payload, dst); err != nil {
		return fmt.Errorf("decode payload for %s: %w", m.Type, err)
	}
	return nil
}
