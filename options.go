package rocketbot

import (
	"time"

	"golang.org/x/time/rate"
)

// BackoffStrategy computes the next reconnect delay. It receives the
// attempt number since the last settled session (1-based), the previous
// delay, and the error from the last attempt (nil when the session
// ended without a propagated error). Return the duration to wait before
// the next attempt.
type BackoffStrategy func(attempt int, currentBackoff time.Duration, err error) time.Duration

// HeartbeatFunc is the application heartbeat, invoked with the bot
// while a session reports itself connected.
type HeartbeatFunc func(bot *Bot)

// botOptions holds configuration supplied through Option values.
type botOptions struct {
	logger  Logger
	metrics Metrics

	heartbeatFunc HeartbeatFunc

	transportFactory TransportFactory

	// Reconnect backoff
	reconnectBackoff time.Duration
	maxBackoff       time.Duration
	backoffStrategy  BackoffStrategy

	// Outbound send rate limiting
	sendLimit rate.Limit
	sendBurst int
}

// defaultBotOptions returns options with sensible defaults.
func defaultBotOptions() *botOptions {
	return &botOptions{
		reconnectBackoff: 1 * time.Second,
		maxBackoff:       60 * time.Second,
		sendLimit:        rate.Inf,
		sendBurst:        1,
	}
}

// Option configures a Bot.
type Option func(*botOptions)

// WithLogger sets the logger. When unset, a StdLogger at the configured
// LOG_LEVEL writing to stderr is used.
func WithLogger(logger Logger) Option {
	return func(o *botOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(o *botOptions) {
		o.metrics = m
	}
}

// WithHeartbeat sets the heartbeat function. Required when the
// HEARTBEAT_ENABLED config key is true.
func WithHeartbeat(fn HeartbeatFunc) Option {
	return func(o *botOptions) {
		o.heartbeatFunc = fn
	}
}

// WithTransportFactory replaces the default DDP transport factory. Each
// session attempt builds a fresh transport through the factory.
func WithTransportFactory(factory TransportFactory) Option {
	return func(o *botOptions) {
		o.transportFactory = factory
	}
}

// WithBackoff sets the initial and maximum reconnect delays.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(o *botOptions) {
		if initial > 0 {
			o.reconnectBackoff = initial
		}
		if maxDelay > 0 {
			o.maxBackoff = maxDelay
		}
	}
}

// WithBackoffStrategy sets a custom reconnect backoff strategy. The
// default doubles the delay on every failed attempt up to the maximum.
func WithBackoffStrategy(strategy BackoffStrategy) Option {
	return func(o *botOptions) {
		o.backoffStrategy = strategy
	}
}

// WithSendRateLimit bounds outbound message sends. Sends above the
// limit are delayed off the caller's goroutine; the caller never
// blocks.
func WithSendRateLimit(limit rate.Limit, burst int) Option {
	return func(o *botOptions) {
		o.sendLimit = limit
		if burst > 0 {
			o.sendBurst = burst
		}
	}
}

// applyOptions builds botOptions from defaults and the given options.
func applyOptions(opts ...Option) *botOptions {
	options := defaultBotOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
