package results_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongmatch/internal/game"
	"pongmatch/internal/services/results"
)

type fakeConn struct {
	subjects  []string
	payloads  [][]byte
	connected bool
	failWith  error
	drained   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) IsConnected() bool { return f.connected }

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func sampleResult() results.Result {
	return results.Result{
		MatchID:     "m1",
		GameMode:    game.ModeClassic,
		WinnerID:    "a",
		WinnerScore: 5,
		LoserID:     "b",
		LoserScore:  2,
		Scores:      map[game.Role]int{game.RolePlayer1: 5, game.RolePlayer2: 2},
		FinishedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNATSPublisher_PublishesJSONPerMode(t *testing.T) {
	conn := &fakeConn{connected: true}
	pub := results.NewNATSPublisher(conn, "", nil)

	require.NoError(t, pub.Publish(context.Background(), sampleResult()))
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "pong.results.pong_1v1", conn.subjects[0])

	var got map[string]any
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, "m1", got["matchId"])
	assert.Equal(t, "a", got["winnerId"])
	assert.EqualValues(t, 5, got["winnerScore"])
	assert.Equal(t, "b", got["loserId"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["finishedAt"])
}

func TestNATSPublisher_CustomPrefix(t *testing.T) {
	pub := results.NewNATSPublisher(&fakeConn{}, "games.done", nil)
	r := sampleResult()
	r.GameMode = game.ModeModified
	assert.Equal(t, "games.done.bong_1v1", pub.Subject(r))
}

func TestNATSPublisher_Errors(t *testing.T) {
	conn := &fakeConn{failWith: errors.New("connection closed")}
	pub := results.NewNATSPublisher(conn, "", nil)

	err := pub.Publish(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pong.results.pong_1v1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Publish(ctx, sampleResult()), context.Canceled)
}

func TestNATSPublisher_CheckAndClose(t *testing.T) {
	conn := &fakeConn{}
	pub := results.NewNATSPublisher(conn, "", nil)

	assert.Error(t, pub.Check(context.Background()))
	conn.connected = true
	assert.NoError(t, pub.Check(context.Background()))

	require.NoError(t, pub.Close())
	assert.True(t, conn.drained)
}

func TestLogPublisher(t *testing.T) {
	var pub results.Publisher = results.NewLogPublisher(nil)
	assert.NoError(t, pub.Publish(context.Background(), sampleResult()))
}
