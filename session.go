package rocketbot

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Parameters for the room-messages stream subscription: all messages
// from rooms the bot account has joined.
var streamRoomMessagesParams = []any{"__my_messages__", false}

// Session owns one connection attempt end-to-end: it builds a fresh
// transport, binds callbacks, waits for the stream subscription to
// settle, runs the heartbeat loop, waits for closure, and guarantees
// cleanup on every exit path. A Session is used for exactly one Run.
//
// Two goroutines touch session state: the one calling Run, which
// blocks, and the transport's callback goroutine, where the
// connect/login/subscribe chain and stream events execute. The settled
// and closed latches carry all cross-goroutine signaling.
type Session struct {
	config   *Config
	handler  Handler
	logger   Logger
	metrics  *BotMetrics
	factory  TransportFactory
	relay    *MessageRelay
	presence *presenceNotifier
	identity *User

	// heartbeat is invoked while the transport reports itself
	// connected; nil disables the loop even when config enables it.
	heartbeat func()

	// onSettled is invoked when the subscription settles successfully,
	// letting the supervisor reset its backoff counter.
	onSettled func()

	transport Transport

	// settled is set when the subscription either succeeded and message
	// handling has started, or failed and the transport has been asked
	// to close. The transport's connected flag is only meaningful to the
	// heartbeat loop after this point.
	settled *latch

	// closed is set only by the transport's closed callback, the single
	// authority on teardown.
	closed *latch
}

func newSession(config *Config, handler Handler, logger Logger, metrics *BotMetrics,
	factory TransportFactory, relay *MessageRelay, presence *presenceNotifier,
	identity *User, heartbeat func(), onSettled func()) *Session {
	return &Session{
		config:    config,
		handler:   handler,
		logger:    logger,
		metrics:   metrics,
		factory:   factory,
		relay:     relay,
		presence:  presence,
		identity:  identity,
		heartbeat: heartbeat,
		onSettled: onSettled,
		settled:   newLatch(),
		closed:    newLatch(),
	}
}

// Run performs one connection attempt. It returns nil when the session
// fully closed, whether cleanly or after a login/subscribe failure, and
// returns an error when connect initiation failed or when the wait
// phase was interrupted. Cleanup has always completed by the time Run
// returns.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Debug("session starting", LogFields{
		LogFieldServerURI: s.config.ServerURI,
	})
	s.metrics.AttemptStarted()

	t, err := s.factory(s.config.ServerURI)
	if err != nil {
		s.metrics.AttemptFailed("connect")
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	s.transport = t

	t.Bind(s.events(t))
	s.settled.Reset()
	s.closed.Reset()

	if err := t.Connect(); err != nil {
		// Failed before any callback could fire: unhook, release the
		// handle, and report the attempt without entering the wait
		// phase. The latches stay unset.
		s.release()
		s.settled.Reset()
		s.closed.Reset()
		s.metrics.AttemptFailed("connect")
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	started := time.Now()
	defer s.cleanup(started)

	if err := s.wait(ctx, s.settled); err != nil {
		return s.abort(err)
	}

	if s.config.HeartbeatEnabled && s.heartbeat != nil {
		if err := s.runHeartbeat(ctx, t); err != nil {
			return s.abort(err)
		}
	}

	if err := s.wait(ctx, s.closed); err != nil {
		return s.abort(err)
	}

	return nil
}

// release unhooks the held transport's callbacks and drops the handle.
// Only the goroutine running Run touches the handle field.
func (s *Session) release() {
	if t := s.transport; t != nil {
		t.RemoveAllListeners()
	}
	s.transport = nil
}

// wait blocks until the latch is set or the context ends.
func (s *Session) wait(ctx context.Context, l *latch) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.Wait():
		return nil
	}
}

// abort requests closure of the held transport, waits for the closed
// callback to settle, and propagates the original error. Close is
// idempotent, so racing the callback chain's own close requests is
// safe.
func (s *Session) abort(err error) error {
	if t := s.transport; t != nil {
		t.Close()
	}
	<-s.closed.Wait()
	return err
}

// runHeartbeat invokes the heartbeat while the transport reports itself
// connected, sleeping the configured interval between invocations. The
// connected flag is re-checked at every iteration boundary; the loop is
// never interrupted mid-sleep except by context cancellation.
func (s *Session) runHeartbeat(ctx context.Context, t Transport) error {
	interval := s.config.HeartbeatInterval

	for t.Connected() {
		s.heartbeat()
		s.metrics.Heartbeat()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}

// cleanup runs on every exit path after a successful connect
// initiation: unhook callbacks, release the handle, unbind the relay,
// emit the offline presence transition, notify the handler so it drops
// per-session state, and reset both latches.
func (s *Session) cleanup(started time.Time) {
	s.release()

	s.relay.unbind()
	s.presence.offline()
	s.handler.OnSessionDisconnected()

	s.settled.Reset()
	s.closed.Reset()

	s.metrics.SessionEnded(time.Since(started))
	s.logger.Debug("session finished", LogFields{
		LogFieldServerURI: s.config.ServerURI,
	})
}

// events builds the callback set for one attempt. Every closure
// captures the attempt's own transport handle so that callbacks never
// observe a later session's state.
func (s *Session) events(t Transport) *TransportEvents {
	return &TransportEvents{
		Connected:   func() { s.connected(t) },
		Changed:     s.changed,
		Added:       s.added,
		Removed:     s.removed,
		Failed:      s.failed,
		Reconnected: s.reconnected,
		Closed:      s.transportClosed,
	}
}

// connected starts the asynchronous login once the realtime handshake
// completes.
func (s *Session) connected(t Transport) {
	s.logger.Debug("transport connected, logging in", LogFields{
		LogFieldUser: s.config.LoginUsername,
	})

	t.Login(s.config.LoginUsername, s.config.LoginPassword, func(err error) {
		s.loginDone(t, err)
	})
}

// loginDone subscribes to the room-messages stream on success and
// closes the transport on failure. Closing drives the closed callback,
// which settles both latches.
func (s *Session) loginDone(t Transport, err error) {
	if err != nil {
		s.logger.Error("login failed", LogFields{
			LogFieldUser:  s.config.LoginUsername,
			LogFieldError: err,
		})
		s.metrics.AttemptFailed("login")
		t.Close()
		return
	}

	s.logger.Debug("login succeeded, subscribing", LogFields{
		LogFieldCollection: streamRoomMessages,
	})

	t.Subscribe(streamRoomMessages, streamRoomMessagesParams, func(err error) {
		s.subscribeDone(t, err)
	})
}

// subscribeDone marks the session live: the handler loads its
// per-session state, presence goes online, the relay binds to the
// transport, the supervisor's backoff resets, and the settled latch is
// signaled so Run can proceed to the wait phase.
func (s *Session) subscribeDone(t Transport, err error) {
	if err != nil {
		s.logger.Error("subscribe failed", LogFields{
			LogFieldCollection: streamRoomMessages,
			LogFieldError:      err,
		})
		s.metrics.AttemptFailed("subscribe")
		t.Close()
		return
	}

	s.logger.Info("session live", LogFields{
		LogFieldUser: s.config.LoginUsername,
	})

	// Runs on the transport's callback goroutine: the handler must not
	// assume it is loaded from the goroutine that called Run.
	s.handler.OnSessionConnected()
	s.presence.online()
	s.relay.bind(t)

	if s.onSettled != nil {
		s.onSettled()
	}
	s.metrics.SessionSettled()
	s.settled.Set()
}

// changed dispatches room-message stream events to the handler. Records
// with an empty body or sent by the bot's own account are skipped. A
// record missing the sender fields is a defect worth surfacing, since
// dispatch depends on them; it is logged at error level and skipped
// rather than crashing the callback goroutine.
func (s *Session) changed(collection, id string, fields map[string]any, cleared []string) {
	if collection != streamRoomMessages {
		return
	}

	args, ok := fields["args"].([]any)
	if !ok {
		return
	}

	for _, item := range args {
		record, ok := item.(map[string]any)
		if !ok {
			s.logger.Error("stream record is not an object", LogFields{
				LogFieldCollection: collection,
			})
			continue
		}

		body, _ := record["msg"].(string)
		if body == "" {
			continue
		}

		sender, ok := record["u"].(map[string]any)
		if !ok {
			s.logger.Error("stream record has no sender", LogFields{
				LogFieldCollection: collection,
			})
			continue
		}

		username, ok := sender["username"].(string)
		if !ok || username == "" {
			s.logger.Error("stream record has no sender username", LogFields{
				LogFieldCollection: collection,
			})
			continue
		}

		if username == s.config.LoginUsername {
			continue
		}

		msg := &InboundMessage{
			Body:   body,
			From:   NewUser(username),
			To:     s.identity,
			Extras: record,
		}

		s.metrics.MessageReceived(collection)
		s.handler.DispatchInboundMessage(msg)
	}
}

func (s *Session) added(collection, id string, fields map[string]any) {
	s.logger.Debug("item added", LogFields{LogFieldCollection: collection})
}

func (s *Session) removed(collection, id string) {
	s.logger.Debug("item removed", LogFields{LogFieldCollection: collection})
}

func (s *Session) failed(reason string) {
	s.logger.Warn("realtime handshake rejected", LogFields{
		LogFieldCloseReason: reason,
	})
}

func (s *Session) reconnected() {
	s.logger.Debug("transport-level reconnect", nil)
}

// transportClosed is the single place the closed latch is set. Setting
// the settled latch first covers closure before the subscription ever
// completed, so Run's wait phase cannot deadlock.
func (s *Session) transportClosed(code int, reason string) {
	s.logger.Info("transport closed", LogFields{
		LogFieldCloseCode:   code,
		LogFieldCloseReason: reason,
	})

	s.settled.Set()
	s.closed.Set()
}

// errIsCanceled reports whether err is a context cancellation, which
// the supervisor treats as an operator stop rather than a failure.
func errIsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
