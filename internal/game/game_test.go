package game_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongmatch/internal/game"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := game.Errorf(game.CodeRoomFull, "room %s is full", "m1")

	assert.True(t, errors.Is(err, game.ErrRoomFull))
	assert.False(t, errors.Is(err, game.ErrNotFound))
	assert.Equal(t, "ROOM_FULL: room m1 is full", err.Error())

	wrapped := fmt.Errorf("join: %w", err)
	assert.True(t, errors.Is(wrapped, game.ErrRoomFull))
	assert.Equal(t, game.CodeRoomFull, game.CodeOf(wrapped))
}

func TestCodeOf_UnknownErrorIsInternal(t *testing.T) {
	assert.Equal(t, game.CodeInternal, game.CodeOf(errors.New("boom")))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    game.Mode
		wantErr bool
	}{
		{raw: "pong_1v1", want: game.ModeClassic},
		{raw: "bong_1v1", want: game.ModeModified},
		{raw: "", wantErr: true},
		{raw: "pong_2v2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := game.ParseMode(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, game.ErrInvalidGameMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := game.ParseRole("player2")
	require.NoError(t, err)
	assert.Equal(t, game.RolePlayer2, r)

	_, err = game.ParseRole("player3")
	assert.ErrorIs(t, err, game.ErrInvalidPayload)
}

func TestNewState_CentredBallAndZeroScores(t *testing.T) {
	s := game.NewState()

	assert.Equal(t, game.Ball{X: 576, Y: 432}, s.Ball)
	assert.Equal(t, map[game.Role]int{game.RolePlayer1: 0, game.RolePlayer2: 0}, s.Scores)
	assert.Equal(t, game.Paddle{}, s.Paddles[game.RolePlayer1])
	assert.Equal(t, game.Paddle{}, s.Paddles[game.RolePlayer2])
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := game.NewState()
	c := s.Clone()
	c.Scores[game.RolePlayer1] = 3
	c.Paddles[game.RolePlayer2] = game.Paddle{Y: 10}

	assert.Equal(t, 0, s.Scores[game.RolePlayer1])
	assert.Equal(t, 0.0, s.Paddles[game.RolePlayer2].Y)

	scores := s.CloneScores()
	scores[game.RolePlayer2] = 9
	assert.Equal(t, 0, s.Scores[game.RolePlayer2])
}
