package gameroom

import (
	"pongmatch/internal/game"
	"pongmatch/internal/services/results"
	"pongmatch/internal/session/message"
)

// ============================================================================
// Lógica da partida
// ============================================================================

// movePaddle grava a posição da raquete do papel da conexão e repassa ao oponente.
func (gr *GameRoom) movePaddle(connID string, y float64) error {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	p, err := gr.participantLocked(connID)
	if err != nil {
		return err
	}
	gr.state.Paddles[p.role] = game.Paddle{Y: y}
	gr.broadcastLocked(message.PaddleUpdate{MatchID: gr.ID, Role: p.role, Y: y}, connID)
	return nil
}

// reportBall aceita o estado da bola apenas do papel autoritativo.
func (gr *GameRoom) reportBall(connID string, ball game.Ball) error {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	p, err := gr.participantLocked(connID)
	if err != nil {
		return err
	}
	if p.role != game.AuthoritativeRole {
		return game.Errorf(game.CodeNotAuthorized, "only %s reports the ball", game.AuthoritativeRole)
	}
	gr.state.Ball = ball
	gr.broadcastLocked(message.BallUpdate{MatchID: gr.ID, Ball: ball}, connID)
	return nil
}

// scorePoint soma um ponto para scoringRole. Ao atingir o placar de vitória,
// a sala vai para FINISHED e o resultado é devolvido; isso acontece uma única vez.
func (gr *GameRoom) scorePoint(connID string, scoringRole game.Role) (*results.Result, error) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if _, err := gr.participantLocked(connID); err != nil {
		return nil, err
	}
	if gr.lifecycle != LifecycleActive {
		return nil, game.Errorf(game.CodeGameNotActive, "match %s is not active", gr.ID)
	}

	gr.state.Scores[scoringRole]++
	scores := gr.state.CloneScores()
	gr.broadcastLocked(message.ScoreUpdate{MatchID: gr.ID, Scores: scores}, "")

	if scores[scoringRole] < gr.winningScore {
		return nil, nil
	}

	gr.lifecycle = LifecycleFinished
	gr.disarmAbandonLocked()
	gr.logger.Info("[GameRoom] game over", "winner_role", scoringRole, "scores", scores)
	gr.broadcastLocked(message.GameOver{MatchID: gr.ID, WinnerRole: scoringRole, Scores: scores}, "")
	res := gr.resultLocked(scoringRole)
	return &res, nil
}
