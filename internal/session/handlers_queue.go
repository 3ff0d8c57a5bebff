package session

import (
	"pongmatch/internal/network"
	"pongmatch/internal/session/message"
)

func (h *GameHandler) registerQueueHandlers() {
	h.register(message.EventJoinQueue, handleJoinQueue)
	h.register(message.EventLeaveQueue, handleLeaveQueue)
}

func handleJoinQueue(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.JoinQueueRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	mode, err := req.Mode()
	if err != nil {
		return err
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	res, err := h.queue.Join(ctx, playerOf(c), mode)
	if err != nil {
		return err
	}
	respond(c, msg, message.JoinQueueResponse{
		Status:   message.StatusSuccess,
		GameMode: res.Mode,
		Time:     res.JoinedAt.UnixMilli(),
		Pos:      res.Position,
	})

	// Só depois da resposta: o jogador vê a posição antes do match_found.
	if _, err := h.queue.TryPair(ctx, mode); err != nil {
		h.logger.Warn("[Session] pairing failed", "mode", mode, "error", err)
	}
	return nil
}

func handleLeaveQueue(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.LeaveQueueRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	mode, err := req.Mode()
	if err != nil {
		return err
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	if err := h.queue.Leave(ctx, c.Identity().UserID, mode); err != nil {
		return err
	}
	respond(c, msg, message.StatusResponse{Status: message.StatusSuccess, Message: "Left queue."})
	return nil
}
