package message_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongmatch/internal/game"
	"pongmatch/internal/network/conntest"
	"pongmatch/internal/session/message"
)

func TestEncode_UsesEventName(t *testing.T) {
	msg := message.Encode(message.AutoRequeued{GameMode: game.ModeClassic, Pos: 3})
	assert.Equal(t, message.EventAutoRequeued, msg.Type)
	assert.Empty(t, msg.ID)
	assert.JSONEq(t, `{"gameMode":"pong_1v1","pos":3}`, string(msg.Payload))
}

func TestCreateErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "game error keeps code and message",
			err:  game.Errorf(game.CodeRoomFull, "room m1 is full"),
			want: `{"status":"ERROR","message":"room m1 is full","code":"ROOM_FULL"}`,
		},
		{
			name: "wrapped game error",
			err:  fmt.Errorf("join: %w", game.ErrNotQueued),
			want: `{"status":"ERROR","message":"not in queue","code":"NOT_QUEUED"}`,
		},
		{
			name: "unknown error becomes internal",
			err:  errors.New("boom: db password leaked"),
			want: `{"status":"ERROR","message":"internal error","code":"INTERNAL"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := message.CreateErrorResponse(message.EventJoinGameRoom, "42", tt.err)
			assert.Equal(t, message.EventJoinGameRoom, msg.Type)
			assert.Equal(t, "42", msg.ID)
			assert.JSONEq(t, tt.want, string(msg.Payload))
		})
	}
}

func TestSendError_WithoutIDSendsErrorEvent(t *testing.T) {
	c := conntest.New("a")

	require.True(t, message.SendError(c, message.EventMovePaddle, "", game.ErrNotParticipant))
	evt := conntest.MustLast[message.ErrorEvent](t, c, message.EventError)
	assert.Equal(t, game.CodeNotParticipant, evt.Code)
	assert.Equal(t, message.EventMovePaddle, evt.Event)

	require.True(t, message.SendError(c, message.EventMovePaddle, "7", game.ErrNotParticipant))
	last, ok := c.Last(message.EventMovePaddle)
	require.True(t, ok)
	assert.Equal(t, "7", last.ID)
	assert.Equal(t, 1, c.Count(message.EventError))
}

func TestSendError_RequestEventsAlwaysAnswerOnOwnName(t *testing.T) {
	for _, event := range []string{
		message.EventJoinQueue,
		message.EventLeaveQueue,
		message.EventAcceptMatch,
		message.EventJoinGameRoom,
	} {
		t.Run(event, func(t *testing.T) {
			c := conntest.New("a")
			require.True(t, message.SendError(c, event, "", game.ErrAlreadyQueued))

			assert.Equal(t, []string{event}, c.Types())
			resp := conntest.MustLast[message.StatusResponse](t, c, event)
			assert.Equal(t, "ERROR", resp.Status)
			assert.Equal(t, game.CodeAlreadyQueued, resp.Code)
		})
	}

	assert.False(t, message.IsRequestEvent(message.EventScorePoint))
	assert.False(t, message.IsRequestEvent("fly_to_moon"))
}

func TestSendSuccess(t *testing.T) {
	c := conntest.New("a")
	message.SendSuccess(c, message.EventLeaveQueue, "1", "Left queue.")

	resp := conntest.MustLast[message.StatusResponse](t, c, message.EventLeaveQueue)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "Left queue.", resp.Message)
	assert.Empty(t, resp.Code)
}

func TestRequestValidation(t *testing.T) {
	y := 10.0

	_, err := message.JoinQueueRequest{GameMode: "chess"}.Mode()
	assert.ErrorIs(t, err, game.ErrInvalidGameMode)

	assert.ErrorIs(t, message.AcceptMatchRequest{MatchID: "  "}.Validate(), game.ErrInvalidPayload)
	assert.NoError(t, message.AcceptMatchRequest{MatchID: "m1"}.Validate())

	_, err = message.JoinGameRoomRequest{GameMode: "pong_1v1"}.Validate()
	assert.ErrorIs(t, err, game.ErrInvalidPayload)
	mode, err := message.JoinGameRoomRequest{MatchID: "m1", GameMode: "bong_1v1"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, game.ModeModified, mode)

	assert.ErrorIs(t, message.MovePaddleRequest{MatchID: "m1"}.Validate(), game.ErrInvalidPayload)
	assert.NoError(t, message.MovePaddleRequest{MatchID: "m1", Y: &y}.Validate())

	_, err = message.ScorePointRequest{MatchID: "m1", ScoringRole: "player3"}.Validate()
	assert.ErrorIs(t, err, game.ErrInvalidPayload)

	ball := message.BallUpdateRequest{MatchID: "m1", X: 1, Y: 2, VX: 3, VY: 4}.Ball()
	assert.Equal(t, game.Ball{X: 1, Y: 2, VX: 3, VY: 4}, ball)
}
