package rocketbot

// presenceNotifier emits presence transitions for the bot account to
// the handler.
type presenceNotifier struct {
	handler  Handler
	identity *User
	logger   Logger
}

func newPresenceNotifier(handler Handler, identity *User, logger Logger) *presenceNotifier {
	return &presenceNotifier{handler: handler, identity: identity, logger: logger}
}

// online reports the bot as online. Called once per session after the
// stream subscription settles.
func (p *presenceNotifier) online() {
	p.logger.Debug("presence online", LogFields{LogFieldUser: p.identity.Username()})
	p.handler.NotifyPresence(p.identity, PresenceOnline)
}

// offline reports the bot as offline. Called once per session during
// cleanup, whatever the exit path.
func (p *presenceNotifier) offline() {
	p.logger.Debug("presence offline", LogFields{LogFieldUser: p.identity.Username()})
	p.handler.NotifyPresence(p.identity, PresenceOffline)
}
