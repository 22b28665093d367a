package rocketbot

// PresenceStatus is an online/offline presence state.
type PresenceStatus string

const (
	// PresenceOnline is emitted after the stream subscription settles.
	PresenceOnline PresenceStatus = "online"

	// PresenceOffline is emitted during session cleanup.
	PresenceOffline PresenceStatus = "offline"
)

// Handler is the message-handling collaborator. The session drives it
// from the transport's callback goroutine: implementations must not
// assume calls arrive on the goroutine that started the bot.
type Handler interface {
	// DispatchInboundMessage delivers a message from the stream.
	DispatchInboundMessage(msg *InboundMessage)

	// NotifyPresence reports a presence transition for the bot account.
	NotifyPresence(user *User, status PresenceStatus)

	// OnSessionConnected is invoked once per session after the stream
	// subscription succeeds, before any message is dispatched.
	OnSessionConnected()

	// OnSessionDisconnected is invoked once per session during cleanup,
	// regardless of how the session ended. Per-session state held by the
	// handler should be released here.
	OnSessionDisconnected()
}

// ShutdownHandler is optionally implemented by handlers that hold state
// beyond a single session. Shutdown is called once when the supervisor
// exits for any reason.
type ShutdownHandler interface {
	Shutdown()
}
