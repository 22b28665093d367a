package rocketbot

import (
	"context"
	"sync"
	"time"
)

// ReconnectSupervisor drives session attempts in a loop. After a
// session ends it waits the current backoff delay and starts a fresh
// attempt; the backoff doubles per failed attempt up to the maximum and
// resets once a session's subscription settles. With reconnect disabled
// it runs exactly one attempt.
type ReconnectSupervisor struct {
	config  *Config
	logger  Logger
	handler Handler

	newSession func(onSettled func()) *Session

	initialBackoff time.Duration
	maxBackoff     time.Duration
	strategy       BackoffStrategy

	mu      sync.Mutex
	attempt int
	backoff time.Duration
}

func newReconnectSupervisor(config *Config, logger Logger, handler Handler,
	factory func(onSettled func()) *Session, opts *botOptions) *ReconnectSupervisor {
	return &ReconnectSupervisor{
		config:         config,
		logger:         logger,
		handler:        handler,
		newSession:     factory,
		initialBackoff: opts.reconnectBackoff,
		maxBackoff:     opts.maxBackoff,
		strategy:       opts.backoffStrategy,
		backoff:        opts.reconnectBackoff,
	}
}

// Serve runs session attempts until the context ends or, with reconnect
// disabled, until the single attempt's session closes. When the handler
// implements ShutdownHandler its Shutdown hook runs once before Serve
// returns.
func (sv *ReconnectSupervisor) Serve(ctx context.Context) error {
	defer sv.shutdown()

	for {
		attempt := sv.nextAttempt()
		session := sv.newSession(sv.resetBackoff)

		err := session.Run(ctx)

		switch {
		case err == nil:
			sv.logger.Info("session ended", LogFields{
				LogFieldAttempt: attempt,
			})
		case errIsCanceled(err):
			sv.logger.Info("stopping", LogFields{
				LogFieldAttempt: attempt,
			})
			return nil
		default:
			sv.logger.Warn("session attempt failed", LogFields{
				LogFieldAttempt: attempt,
				LogFieldError:   err,
			})
		}

		if !sv.config.ReconnectEnabled {
			return err
		}

		delay := sv.nextDelay(attempt, err)
		sv.logger.Info("reconnecting", LogFields{
			LogFieldAttempt: attempt,
			LogFieldDelay:   delay,
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// nextAttempt increments and returns the attempt counter since the last
// settled session.
func (sv *ReconnectSupervisor) nextAttempt() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	sv.attempt++
	return sv.attempt
}

// resetBackoff restores the initial delay and zeroes the attempt
// counter. Wired into the session as its onSettled hook, so it runs on
// the transport's callback goroutine.
func (sv *ReconnectSupervisor) resetBackoff() {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	sv.attempt = 0
	sv.backoff = sv.initialBackoff
}

// nextDelay returns the delay to wait before the next attempt and
// advances the stored backoff. The default doubles the delay up to the
// maximum; a custom strategy replaces the doubling but is still capped.
func (sv *ReconnectSupervisor) nextDelay(attempt int, err error) time.Duration {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	delay := sv.backoff

	if sv.strategy != nil {
		next := sv.strategy(attempt, sv.backoff, err)
		if next > 0 {
			delay = next
		}
	}

	if delay > sv.maxBackoff {
		delay = sv.maxBackoff
	}

	next := delay * 2
	if next > sv.maxBackoff {
		next = sv.maxBackoff
	}
	sv.backoff = next

	return delay
}

// shutdown gives the handler one final hook after the last session has
// been cleaned up.
func (sv *ReconnectSupervisor) shutdown() {
	if h, ok := sv.handler.(ShutdownHandler); ok {
		sv.logger.Debug("running shutdown hook", nil)
		h.Shutdown()
	}
}
