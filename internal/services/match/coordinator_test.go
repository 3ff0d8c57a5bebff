package match_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongmatch/internal/game"
	"pongmatch/internal/network/conntest"
	"pongmatch/internal/services/match"
	"pongmatch/internal/session/message"
	"pongmatch/internal/session/registry"
)

type fixture struct {
	reg    *registry.Registry
	a, b   *conntest.Conn
	coord  *match.Coordinator
	starts atomic.Int32

	mu       sync.Mutex
	canceled [][]game.Player
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	f := &fixture{reg: registry.New(nil), a: conntest.New("a"), b: conntest.New("b")}
	f.reg.Register("a", f.a)
	f.reg.Register("b", f.b)
	f.coord = match.NewCoordinator(f.reg, match.Options{
		AcceptTimeout: timeout,
		OnStart:       func(match.PendingMatch) { f.starts.Add(1) },
		OnCancel: func(_ match.PendingMatch, accepted []game.Player) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.canceled = append(f.canceled, accepted)
		},
	})
	t.Cleanup(f.coord.Close)
	return f
}

func (f *fixture) propose() *match.PendingMatch {
	return f.coord.ProposeMatch(game.ModeClassic, []game.Player{f.a.Player(), f.b.Player()})
}

func (f *fixture) cancels() [][]game.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]game.Player(nil), f.canceled...)
}

func TestCoordinator_ProposeNotifiesBothPlayers(t *testing.T) {
	f := newFixture(t, 15*time.Second)
	pm := f.propose()

	for _, c := range []*conntest.Conn{f.a, f.b} {
		evt := conntest.MustLast[message.MatchFound](t, c, message.EventMatchFound)
		assert.Equal(t, pm.ID, evt.MatchID)
		assert.Equal(t, game.ModeClassic, evt.GameMode)
		assert.Equal(t, 15, evt.AcceptTimeoutInSeconds)
		assert.Equal(t, message.StatusPending, evt.Status)
		require.Len(t, evt.Players, 2)
		assert.Equal(t, "a", evt.Players[0].UserID)
		assert.Equal(t, "b", evt.Players[1].UserID)
	}
	assert.True(t, f.coord.IsPending("a"))
	assert.True(t, f.coord.IsPending("b"))
	assert.Equal(t, 1, f.coord.Len())
}

func TestCoordinator_AllAcceptStartsOnce(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	pm := f.propose()

	require.NoError(t, f.coord.Accept(pm.ID, "a"))
	assert.Equal(t, 0, f.a.Count(message.EventMatchStart))

	// Aceitar de novo não muda nada.
	require.NoError(t, f.coord.Accept(pm.ID, "a"))

	require.NoError(t, f.coord.Accept(pm.ID, "b"))
	for _, c := range []*conntest.Conn{f.a, f.b} {
		assert.Equal(t, 1, c.Count(message.EventMatchStart))
		evt := conntest.MustLast[message.MatchStart](t, c, message.EventMatchStart)
		assert.Equal(t, pm.ID, evt.MatchID)
		assert.Equal(t, message.StatusStarting, evt.Status)
	}
	assert.EqualValues(t, 1, f.starts.Load())
	assert.False(t, f.coord.IsPending("a"))

	err := f.coord.Accept(pm.ID, "b")
	assert.ErrorIs(t, err, game.ErrNotFound)

	// O timer já foi parado: nenhum cancelamento depois da janela.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.a.Count(message.EventMatchCanceled))
	assert.Empty(t, f.cancels())
}

func TestCoordinator_TimeoutCancelsWithAcceptedPlayers(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	pm := f.propose()
	require.NoError(t, f.coord.Accept(pm.ID, "a"))

	require.Eventually(t, func() bool { return len(f.cancels()) == 1 }, time.Second, 5*time.Millisecond)

	for _, c := range []*conntest.Conn{f.a, f.b} {
		evt := conntest.MustLast[message.MatchCanceled](t, c, message.EventMatchCanceled)
		assert.Equal(t, pm.ID, evt.MatchID)
		assert.Equal(t, match.ReasonTimeout, evt.Reason)
		assert.Equal(t, message.StatusCanceled, evt.Status)
	}
	accepted := f.cancels()[0]
	require.Len(t, accepted, 1)
	assert.Equal(t, "a", accepted[0].UserID)

	assert.ErrorIs(t, f.coord.Accept(pm.ID, "b"), game.ErrNotFound)
	assert.EqualValues(t, 0, f.starts.Load())
	assert.False(t, f.coord.IsPending("a"))
}

func TestCoordinator_AcceptErrors(t *testing.T) {
	f := newFixture(t, time.Second)
	pm := f.propose()

	assert.ErrorIs(t, f.coord.Accept("missing", "a"), game.ErrNotFound)
	assert.ErrorIs(t, f.coord.Accept(pm.ID, "stranger"), game.ErrNotParticipant)
}

func TestCoordinator_WithdrawCancelsForOthers(t *testing.T) {
	f := newFixture(t, time.Second)
	pm := f.propose()
	require.NoError(t, f.coord.Accept(pm.ID, "b"))

	assert.True(t, f.coord.Withdraw("a"))
	assert.False(t, f.coord.Withdraw("a"))

	assert.Equal(t, 0, f.a.Count(message.EventMatchCanceled))
	evt := conntest.MustLast[message.MatchCanceled](t, f.b, message.EventMatchCanceled)
	assert.Equal(t, match.ReasonDisconnected, evt.Reason)

	cancels := f.cancels()
	require.Len(t, cancels, 1)
	require.Len(t, cancels[0], 1)
	assert.Equal(t, "b", cancels[0][0].UserID)
	assert.Equal(t, 0, f.coord.Len())
}

func TestCoordinator_GetReturnsCopy(t *testing.T) {
	f := newFixture(t, time.Second)
	pm := f.propose()
	require.NoError(t, f.coord.Accept(pm.ID, "a"))

	snap, ok := f.coord.Get(pm.ID)
	require.True(t, ok)
	assert.True(t, snap.Accepted["a"])
	snap.Accepted["b"] = true

	again, _ := f.coord.Get(pm.ID)
	assert.False(t, again.Accepted["b"])
}

func TestCoordinator_AcceptRacingTimeoutResolvesOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t, time.Millisecond)
		pm := f.propose()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _ = f.coord.Accept(pm.ID, "a") }()
		go func() { defer wg.Done(); _ = f.coord.Accept(pm.ID, "b") }()
		wg.Wait()

		require.Eventually(t, func() bool {
			return f.starts.Load()+int32(len(f.cancels())) >= 1
		}, time.Second, time.Millisecond)
		time.Sleep(5 * time.Millisecond)

		total := int(f.starts.Load()) + len(f.cancels())
		assert.Equal(t, 1, total, "match %d resolved %d times", i, total)
		assert.Equal(t, 1, f.a.Count(message.EventMatchStart)+f.a.Count(message.EventMatchCanceled))
	}
}
