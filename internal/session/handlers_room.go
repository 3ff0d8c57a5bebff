package session

import (
	"pongmatch/internal/network"
	"pongmatch/internal/session/message"
)

func (h *GameHandler) registerRoomHandlers() {
	h.register(message.EventJoinGameRoom, handleJoinGameRoom)
	h.register(message.EventMovePaddle, handleMovePaddle)
	h.register(message.EventBallFromPeer, handleBallUpdate)
	h.register(message.EventScorePoint, handleScorePoint)
}

func handleJoinGameRoom(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.JoinGameRoomRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	mode, err := req.Validate()
	if err != nil {
		return err
	}

	res, err := h.rooms.JoinRoom(req.MatchID, mode, playerOf(c))
	if err != nil {
		return err
	}
	text := "Joined room successfully."
	if res.AlreadyInRoom {
		text = "Already in room."
	}
	respond(c, msg, message.JoinRoomResponse{Status: message.StatusSuccess, Role: res.Role, Message: text})
	return nil
}

func handleMovePaddle(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.MovePaddleRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := h.rooms.MovePaddle(req.MatchID, c.ID(), *req.Y); err != nil {
		return err
	}
	respondIfAsked(c, msg)
	return nil
}

func handleBallUpdate(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.BallUpdateRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := h.rooms.ReportBall(req.MatchID, c.ID(), req.Ball()); err != nil {
		return err
	}
	respondIfAsked(c, msg)
	return nil
}

func handleScorePoint(h *GameHandler, c network.Conn, msg network.Message) error {
	var req message.ScorePointRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	role, err := req.Validate()
	if err != nil {
		return err
	}
	if err := h.rooms.ScorePoint(req.MatchID, c.ID(), role); err != nil {
		return err
	}
	respondIfAsked(c, msg)
	return nil
}
