package rocketbot

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/time/rate"
)

// Bot is the backend entry point. It owns the configuration, the
// reconnect supervisor, and the outbound message relay. Construct one
// with New and drive it with ServeForever; Send and SendCard work from
// any goroutine while a session is live.
type Bot struct {
	config   *Config
	handler  Handler
	logger   Logger
	metrics  *BotMetrics
	identity *User

	relay      *MessageRelay
	presence   *presenceNotifier
	supervisor *ReconnectSupervisor
}

// New builds a Bot from a resolved configuration and a message handler.
// Construction fails on contradictory configuration, such as the
// heartbeat being enabled without a heartbeat function.
func New(config *Config, handler Handler, opts ...Option) (*Bot, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config", ErrMissingConfig)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler", ErrMissingConfig)
	}

	options := applyOptions(opts...)

	if config.HeartbeatEnabled && options.heartbeatFunc == nil {
		return nil, NewInvalidConfigError(KeyHeartbeatEnabled, "no heartbeat function supplied")
	}

	logger := options.logger
	if logger == nil {
		logger = NewStdLogger(os.Stderr, config.LogLevel)
	}

	metrics := NewBotMetrics(options.metrics)
	identity := NewUser(config.LoginUsername)

	var limiter *rate.Limiter
	if options.sendLimit != rate.Inf {
		limiter = rate.NewLimiter(options.sendLimit, options.sendBurst)
	}

	bot := &Bot{
		config:   config,
		handler:  handler,
		logger:   logger,
		metrics:  metrics,
		identity: identity,
		relay:    newMessageRelay(logger, metrics, limiter),
		presence: newPresenceNotifier(handler, identity, logger),
	}

	factory := options.transportFactory
	if factory == nil {
		factory = func(serverURI string) (Transport, error) {
			return NewDDPClient(serverURI,
				WithDDPLogger(logger),
				WithDDPCollectionMerge(config.PatchCollectionMerge),
			)
		}
	}

	var heartbeat func()
	if options.heartbeatFunc != nil {
		fn := options.heartbeatFunc
		heartbeat = func() { fn(bot) }
	}

	sessionFactory := func(onSettled func()) *Session {
		return newSession(config, handler, logger, metrics, factory,
			bot.relay, bot.presence, identity, heartbeat, onSettled)
	}

	bot.supervisor = newReconnectSupervisor(config, logger, handler, sessionFactory, options)

	return bot, nil
}

// ServeForever runs the session loop until the context is canceled or,
// with reconnect disabled, until the single session ends. Cancellation
// is an operator stop and returns nil.
func (b *Bot) ServeForever(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	b.logger.Info("serving", LogFields{
		LogFieldServerURI: b.config.ServerURI,
		LogFieldUser:      b.config.LoginUsername,
	})

	return b.supervisor.Serve(ctx)
}

// ServeOnce runs exactly one session attempt regardless of the
// reconnect setting. It returns nil when the session fully closed.
func (b *Bot) ServeOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	session := b.supervisor.newSession(b.supervisor.resetBackoff)
	err := session.Run(ctx)
	if errIsCanceled(err) {
		return nil
	}
	return err
}

// Send delivers text to the given user. With a reply context the target
// room comes from the replied-to message; without one a direct-message
// room is resolved first. Delivery is fire-and-forget.
func (b *Bot) Send(to *User, text string, replyTo *InboundMessage) error {
	return b.relay.Send(to, text, replyTo)
}

// SendCard delivers a rich message to the room of the card's parent
// message.
func (b *Bot) SendCard(card *Card) error {
	return b.relay.SendCard(card)
}

// Identity returns the bot's own account identity.
func (b *Bot) Identity() *User {
	return b.identity
}

// Connected reports whether a session is live, meaning its stream
// subscription has settled and cleanup has not yet run.
func (b *Bot) Connected() bool {
	return b.relay.Connected()
}
