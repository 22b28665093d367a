package rocketbot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("requires config and handler", func(t *testing.T) {
		_, err := New(nil, &recordingHandler{})
		assert.ErrorIs(t, err, ErrMissingConfig)

		_, err = New(testConfig(), nil)
		assert.ErrorIs(t, err, ErrMissingConfig)
	})

	t.Run("heartbeat enabled needs a heartbeat function", func(t *testing.T) {
		config := testConfig()
		config.HeartbeatEnabled = true

		_, err := New(config, &recordingHandler{})
		require.ErrorIs(t, err, ErrInvalidConfig)

		var confErr *ConfigError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, KeyHeartbeatEnabled, confErr.Key)

		_, err = New(config, &recordingHandler{},
			WithHeartbeat(func(*Bot) {}))
		assert.NoError(t, err)
	})

	t.Run("exposes the bot identity", func(t *testing.T) {
		bot, err := New(testConfig(), &recordingHandler{})
		require.NoError(t, err)

		assert.Equal(t, "bot", bot.Identity().Username())
		assert.False(t, bot.Connected())
	})
}

func TestBotServe(t *testing.T) {
	t.Run("serve once with an injected transport", func(t *testing.T) {
		tr := newFakeTransport()
		tr.closeAfterSub = true

		handler := &recordingHandler{}
		metrics := NewMemoryMetrics()

		bot, err := New(testConfig(), handler,
			WithMetrics(metrics),
			WithLogger(NewNoOpLogger()),
			WithTransportFactory(func(string) (Transport, error) {
				return tr, nil
			}))
		require.NoError(t, err)

		require.NoError(t, bot.ServeOnce(context.Background()))

		connected, disconnected, _ := handler.snapshot()
		assert.Equal(t, 1, connected)
		assert.Equal(t, 1, disconnected)
		assert.Equal(t, float64(1), metrics.Counter(MetricSessionsSettled, nil).Value())
	})

	t.Run("send works while a session is live", func(t *testing.T) {
		tr := newFakeTransport()

		bot, err := New(testConfig(), &recordingHandler{},
			WithLogger(NewNoOpLogger()),
			WithBackoff(time.Millisecond, time.Millisecond),
			WithTransportFactory(func(string) (Transport, error) {
				return tr, nil
			}))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- bot.ServeForever(ctx) }()

		require.Eventually(t, bot.Connected, time.Second, time.Millisecond)

		reply := inboundFrom("alice", "R1")
		require.NoError(t, bot.Send(NewUser("alice"), "hi", reply))
		require.NoError(t, bot.SendCard(&Card{Parent: reply, Body: "card", Title: "T"}))

		assert.Len(t, tr.callsFor(methodSendMessage), 2)

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("serve did not stop")
		}

		assert.False(t, bot.Connected())
		assert.ErrorIs(t, bot.Send(NewUser("alice"), "late", reply), ErrNotConnected)
	})

	t.Run("serve forever stops when reconnect is disabled", func(t *testing.T) {
		config := testConfig()
		config.ReconnectEnabled = false

		tr := newFakeTransport()
		tr.closeAfterSub = true

		bot, err := New(config, &recordingHandler{},
			WithLogger(NewNoOpLogger()),
			WithTransportFactory(func(string) (Transport, error) {
				return tr, nil
			}))
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- bot.ServeForever(context.Background()) }()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("serve did not stop after the single attempt")
		}
	})
}
