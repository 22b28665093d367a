package rocketbot

// LoginCallback reports the outcome of an asynchronous login. A nil
// error means the login succeeded.
type LoginCallback func(err error)

// SubscribeCallback reports the outcome of an asynchronous topic
// subscription. A nil error means the subscription is ready.
type SubscribeCallback func(err error)

// CallCallback reports the outcome of an asynchronous method call with
// the raw result payload.
type CallCallback func(err error, result any)

// TransportEvents holds one session's callbacks. The session binds a
// fresh set per attempt and the transport discards them wholesale on
// RemoveAllListeners, so callbacks never outlive the session that owns
// them. Nil callbacks are skipped.
type TransportEvents struct {
	// Connected fires when the realtime handshake completes.
	Connected func()

	// Changed fires when an item in a stream collection changes.
	Changed func(collection, id string, fields map[string]any, cleared []string)

	// Added fires when an item is added to a collection.
	Added func(collection, id string, fields map[string]any)

	// Removed fires when an item is removed from a collection.
	Removed func(collection, id string)

	// Failed fires when the handshake is rejected.
	Failed func(reason string)

	// Reconnected fires on transport-level reconnects. Informational
	// only: session-level reconnection is the supervisor's job.
	Reconnected func()

	// Closed fires exactly once when the transport is fully torn down.
	Closed func(code int, reason string)
}

// Transport is the realtime connection to the server. Connect initiates
// the connection; all subsequent progress (handshake, login, subscribe
// outcomes, stream events, closure) is reported through callbacks on
// the transport's own goroutine. Close is idempotent and safe from any
// goroutine; the Closed event is the single authority on teardown.
type Transport interface {
	// Connect initiates the connection. An error means the attempt
	// failed before any callback could fire.
	Connect() error

	// Bind registers the session's event callbacks. Must be called
	// before Connect.
	Bind(events *TransportEvents)

	// RemoveAllListeners discards the bound callbacks.
	RemoveAllListeners()

	// Login authenticates asynchronously with the given credentials.
	Login(username string, password []byte, cb LoginCallback)

	// Subscribe subscribes to a named stream topic asynchronously.
	Subscribe(name string, params []any, cb SubscribeCallback)

	// Call invokes a remote method. cb may be nil for fire-and-forget
	// calls. The returned error covers only local submission failures.
	Call(method string, params []any, cb CallCallback) error

	// Close requests teardown. Idempotent.
	Close()

	// Connected reports whether the realtime handshake is established.
	Connected() bool
}

// TransportFactory builds a fresh transport for one session attempt.
type TransportFactory func(serverURI string) (Transport, error)
