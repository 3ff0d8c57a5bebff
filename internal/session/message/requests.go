package message

import (
	"strings"

	"pongmatch/internal/game"
)

// Pedidos cliente -> servidor. Cada um sabe se validar; o handler só decodifica e chama Validate.

type JoinQueueRequest struct {
	GameMode string `json:"gameMode"`
}

func (r JoinQueueRequest) Mode() (game.Mode, error) {
	return game.ParseMode(r.GameMode)
}

type LeaveQueueRequest struct {
	GameMode string `json:"gameMode"`
}

func (r LeaveQueueRequest) Mode() (game.Mode, error) {
	return game.ParseMode(r.GameMode)
}

type AcceptMatchRequest struct {
	MatchID string `json:"matchId"`
}

func (r AcceptMatchRequest) Validate() error {
	return requireMatchID(r.MatchID)
}

type JoinGameRoomRequest struct {
	MatchID  string `json:"matchId"`
	GameMode string `json:"gameMode"`
}

func (r JoinGameRoomRequest) Validate() (game.Mode, error) {
	if err := requireMatchID(r.MatchID); err != nil {
		return "", err
	}
	return game.ParseMode(r.GameMode)
}

type MovePaddleRequest struct {
	MatchID string   `json:"matchId"`
	Y       *float64 `json:"y"`
}

func (r MovePaddleRequest) Validate() error {
	if err := requireMatchID(r.MatchID); err != nil {
		return err
	}
	if r.Y == nil {
		return game.Errorf(game.CodeInvalidPayload, "y is required")
	}
	return nil
}

type ScorePointRequest struct {
	MatchID     string `json:"matchId"`
	ScoringRole string `json:"scoringRole"`
}

func (r ScorePointRequest) Validate() (game.Role, error) {
	if err := requireMatchID(r.MatchID); err != nil {
		return "", err
	}
	return game.ParseRole(r.ScoringRole)
}

// BallUpdateRequest chega achatado: {matchId, x, y, vx, vy}.
type BallUpdateRequest struct {
	MatchID string  `json:"matchId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
}

func (r BallUpdateRequest) Validate() error {
	return requireMatchID(r.MatchID)
}

func (r BallUpdateRequest) Ball() game.Ball {
	return game.Ball{X: r.X, Y: r.Y, VX: r.VX, VY: r.VY}
}

func requireMatchID(id string) error {
	if strings.TrimSpace(id) == "" {
		return game.Errorf(game.CodeInvalidPayload, "matchId is required")
	}
	return nil
}
