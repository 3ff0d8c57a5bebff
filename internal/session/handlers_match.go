package session

import (
	"pongmatch/internal/network"
	"pongmatch/internal/session/message"
)

func (h *GameHandler) registerMatchHandlers() {
	h.register(message.EventAcceptMatch, handleAcceptMatch)
}

func handleAcceptMatch(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.AcceptMatchRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := h.matches.Accept(req.MatchID, c.Identity().UserID); err != nil {
		return err
	}
	respond(c, msg, message.StatusResponse{Status: message.StatusSuccess, Message: "Match accepted."})
	return nil
}
