package rocketbot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
)

// DDP protocol message types handled by the client.
const (
	ddpMsgConnect   = "connect"
	ddpMsgConnected = "connected"
	ddpMsgFailed    = "failed"
	ddpMsgPing      = "ping"
	ddpMsgPong      = "pong"
	ddpMsgMethod    = "method"
	ddpMsgResult    = "result"
	ddpMsgSub       = "sub"
	ddpMsgReady     = "ready"
	ddpMsgNosub     = "nosub"
	ddpMsgChanged   = "changed"
	ddpMsgAdded     = "added"
	ddpMsgRemoved   = "removed"
)

const (
	ddpVersion = "1"

	// methodLogin is the realtime login method; the password travels as
	// a SHA-256 digest, never in the clear.
	methodLogin = "login"
)

// ddpOptions holds configuration supplied through DDPOption values.
type ddpOptions struct {
	logger           Logger
	dialer           *websocket.Dialer
	proxyURL         string
	handshakeTimeout time.Duration
	patchedMerge     bool
}

// DDPOption configures a DDPClient.
type DDPOption func(*ddpOptions)

// WithDDPLogger sets the client logger.
func WithDDPLogger(logger Logger) DDPOption {
	return func(o *ddpOptions) {
		o.logger = logger
	}
}

// WithDDPDialer replaces the default websocket dialer.
func WithDDPDialer(dialer *websocket.Dialer) DDPOption {
	return func(o *ddpOptions) {
		o.dialer = dialer
	}
}

// WithDDPProxy routes the connection through a SOCKS5 proxy. The URL
// takes the form socks5://[user:password@]host:port.
func WithDDPProxy(proxyURL string) DDPOption {
	return func(o *ddpOptions) {
		o.proxyURL = proxyURL
	}
}

// WithDDPHandshakeTimeout bounds the websocket handshake.
func WithDDPHandshakeTimeout(timeout time.Duration) DDPOption {
	return func(o *ddpOptions) {
		if timeout > 0 {
			o.handshakeTimeout = timeout
		}
	}
}

// WithDDPCollectionMerge selects the corrected collection merge, which
// creates missing collection and item entries on changed events. When
// false, changed events for unknown items are dropped with a warning.
func WithDDPCollectionMerge(patched bool) DDPOption {
	return func(o *ddpOptions) {
		o.patchedMerge = patched
	}
}

// DDPClient is a Transport over a DDP websocket connection. All server
// progress is delivered through the bound TransportEvents on the
// client's read goroutine; writes may come from any goroutine and are
// serialized internally.
type DDPClient struct {
	serverURI string
	logger    Logger
	dialer    *websocket.Dialer
	store     *CollectionStore

	writeMu sync.Mutex
	conn    *websocket.Conn

	eventsMu sync.RWMutex
	events   *TransportEvents

	callMu  sync.Mutex
	pending map[string]pendingCall
	subs    map[string]SubscribeCallback

	connected  atomic.Bool
	closeOnce  sync.Once
	closedOnce sync.Once
}

// NewDDPClient builds a client for the given server URI, which must use
// the ws or wss scheme. The connection is not opened until Connect.
func NewDDPClient(serverURI string, opts ...DDPOption) (*DDPClient, error) {
	options := &ddpOptions{
		handshakeTimeout: 30 * time.Second,
		patchedMerge:     true,
	}
	for _, opt := range opts {
		opt(options)
	}

	u, err := url.Parse(serverURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}

	logger := options.logger
	if logger == nil {
		logger = NewNoOpLogger()
	}

	dialer := options.dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout: options.handshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		}
	}

	if options.proxyURL != "" {
		netDial, err := socks5DialContext(options.proxyURL)
		if err != nil {
			return nil, err
		}
		dialer.NetDialContext = netDial
	}

	return &DDPClient{
		serverURI: serverURI,
		logger:    logger,
		dialer:    dialer,
		store:     newCollectionStore(options.patchedMerge, logger),
		pending:   make(map[string]pendingCall),
		subs:      make(map[string]SubscribeCallback),
	}, nil
}

// socks5DialContext builds a NetDialContext routed through the given
// SOCKS5 proxy URL.
func socks5DialContext(proxyURL string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: proxy url: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, fmt.Errorf("%w: unsupported proxy scheme %q", ErrInvalidConfig, u.Scheme)
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}

	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, &net.Dialer{})
	if err != nil {
		return nil, fmt.Errorf("%w: socks5 dialer: %v", ErrInvalidConfig, err)
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}, nil
}

// Bind registers the event callbacks. Must be called before Connect.
func (c *DDPClient) Bind(events *TransportEvents) {
	c.eventsMu.Lock()
	c.events = events
	c.eventsMu.Unlock()
}

// RemoveAllListeners discards the bound callbacks.
func (c *DDPClient) RemoveAllListeners() {
	c.eventsMu.Lock()
	c.events = nil
	c.eventsMu.Unlock()
}

// currentEvents returns the bound callback set, or nil.
func (c *DDPClient) currentEvents() *TransportEvents {
	c.eventsMu.RLock()
	defer c.eventsMu.RUnlock()

	return c.events
}

// Connect dials the server, sends the DDP session handshake, and starts
// the read goroutine. An error means nothing was established and no
// callback will fire.
func (c *DDPClient) Connect() error {
	conn, _, err := c.dialer.Dial(c.serverURI, http.Header{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	handshake := map[string]any{
		"msg":     ddpMsgConnect,
		"version": ddpVersion,
		"support": []string{ddpVersion},
	}
	if err := c.writeJSON(handshake); err != nil {
		conn.Close()
		c.writeMu.Lock()
		c.conn = nil
		c.writeMu.Unlock()
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	c.logger.Debug("ddp connection opened", LogFields{
		LogFieldServerURI: c.serverURI,
	})

	go c.readLoop(conn)

	return nil
}

// Connected reports whether the DDP session handshake is established.
func (c *DDPClient) Connected() bool {
	return c.connected.Load()
}

// Login authenticates through the realtime login method. The password
// travels as a SHA-256 hex digest.
func (c *DDPClient) Login(username string, password []byte, cb LoginCallback) {
	digest := sha256.Sum256(password)

	params := []any{map[string]any{
		"user": map[string]any{"username": username},
		"password": map[string]any{
			"digest":    hex.EncodeToString(digest[:]),
			"algorithm": "sha-256",
		},
	}}

	err := c.Call(methodLogin, params, func(err error, result any) {
		if cb == nil {
			return
		}
		if err != nil {
			payload, _ := result.(map[string]any)
			cb(NewLoginError(payload))
			return
		}
		cb(nil)
	})
	if err != nil && cb != nil {
		cb(NewLoginError(map[string]any{"message": err.Error()}))
	}
}

// Subscribe subscribes to a named stream topic. The callback fires when
// the server reports the subscription ready or rejects it.
func (c *DDPClient) Subscribe(name string, params []any, cb SubscribeCallback) {
	id := uuid.NewString()

	c.callMu.Lock()
	c.subs[id] = cb
	c.callMu.Unlock()

	msg := map[string]any{
		"msg":    ddpMsgSub,
		"id":     id,
		"name":   name,
		"params": params,
	}
	if err := c.writeJSON(msg); err != nil {
		c.callMu.Lock()
		delete(c.subs, id)
		c.callMu.Unlock()
		if cb != nil {
			cb(NewSubscribeError(name, map[string]any{"message": err.Error()}))
		}
	}
}

// Call invokes a remote method. cb may be nil for fire-and-forget
// calls; the returned error covers only local submission failures.
func (c *DDPClient) Call(method string, params []any, cb CallCallback) error {
	id := uuid.NewString()

	if cb != nil {
		c.callMu.Lock()
		c.pending[id] = pendingCall{method: method, cb: cb}
		c.callMu.Unlock()
	}

	msg := map[string]any{
		"msg":    ddpMsgMethod,
		"id":     id,
		"method": method,
		"params": params,
	}
	if err := c.writeJSON(msg); err != nil {
		if cb != nil {
			c.callMu.Lock()
			delete(c.pending, id)
			c.callMu.Unlock()
		}
		return fmt.Errorf("%w: %s: %v", ErrCallFailed, method, err)
	}

	c.logger.Debug("method call sent", LogFields{
		LogFieldMethod: method,
	})

	return nil
}

// Close requests teardown. Idempotent; the Closed event fires from the
// read goroutine once the connection is fully torn down.
func (c *DDPClient) Close() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		conn := c.conn
		c.writeMu.Unlock()

		if conn == nil {
			return
		}

		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, deadline)
		conn.Close()
	})
}

// Collections exposes the client's collection store.
func (c *DDPClient) Collections() *CollectionStore {
	return c.store
}

// writeJSON serializes and writes one message, holding the write lock.
func (c *DDPClient) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	return c.conn.WriteJSON(v)
}

// readLoop reads and dispatches server messages until the connection
// fails or closes, then tears the client down.
func (c *DDPClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.teardown(err)
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("undecodable server message", LogFields{
				LogFieldError: err,
			})
			continue
		}

		c.dispatch(msg)
	}
}

// dispatch routes one decoded server message.
func (c *DDPClient) dispatch(msg map[string]any) {
	msgType, _ := msg["msg"].(string)

	switch msgType {
	case ddpMsgConnected:
		c.connected.Store(true)
		if ev := c.currentEvents(); ev != nil && ev.Connected != nil {
			ev.Connected()
		}

	case ddpMsgFailed:
		version, _ := msg["version"].(string)
		if ev := c.currentEvents(); ev != nil && ev.Failed != nil {
			ev.Failed(fmt.Sprintf("unsupported protocol version, server offered %q", version))
		}

	case ddpMsgPing:
		pong := map[string]any{"msg": ddpMsgPong}
		if id, ok := msg["id"].(string); ok {
			pong["id"] = id
		}
		if err := c.writeJSON(pong); err != nil {
			c.logger.Warn("pong failed", LogFields{LogFieldError: err})
		}

	case ddpMsgResult:
		c.handleResult(msg)

	case ddpMsgReady:
		c.handleReady(msg)

	case ddpMsgNosub:
		c.handleNosub(msg)

	case ddpMsgChanged:
		c.handleChanged(msg)

	case ddpMsgAdded:
		c.handleAdded(msg)

	case ddpMsgRemoved:
		c.handleRemoved(msg)
	}
}

// pendingCall is an in-flight method call awaiting its result.
type pendingCall struct {
	method string
	cb     CallCallback
}

// handleResult resolves a pending method call.
func (c *DDPClient) handleResult(msg map[string]any) {
	id, _ := msg["id"].(string)

	c.callMu.Lock()
	pc, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.callMu.Unlock()

	if !ok || pc.cb == nil {
		return
	}

	if errPayload, ok := msg["error"].(map[string]any); ok {
		pc.cb(NewCallError(pc.method, errPayload), errPayload)
		return
	}

	pc.cb(nil, msg["result"])
}

// handleReady resolves subscriptions the server reports ready.
func (c *DDPClient) handleReady(msg map[string]any) {
	ids, ok := msg["subs"].([]any)
	if !ok {
		return
	}

	for _, raw := range ids {
		id, ok := raw.(string)
		if !ok {
			continue
		}

		c.callMu.Lock()
		cb, found := c.subs[id]
		if found {
			delete(c.subs, id)
		}
		c.callMu.Unlock()

		if found && cb != nil {
			cb(nil)
		}
	}
}

// handleNosub resolves a rejected subscription.
func (c *DDPClient) handleNosub(msg map[string]any) {
	id, _ := msg["id"].(string)

	c.callMu.Lock()
	cb, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	c.callMu.Unlock()

	if !ok || cb == nil {
		return
	}

	payload, _ := msg["error"].(map[string]any)
	cb(NewSubscribeError(id, payload))
}

func (c *DDPClient) handleChanged(msg map[string]any) {
	collection, _ := msg["collection"].(string)
	id, _ := msg["id"].(string)
	fields, _ := msg["fields"].(map[string]any)

	var cleared []string
	if raw, ok := msg["cleared"].([]any); ok {
		for _, item := range raw {
			if name, ok := item.(string); ok {
				cleared = append(cleared, name)
			}
		}
	}

	c.store.Changed(collection, id, fields, cleared)

	if ev := c.currentEvents(); ev != nil && ev.Changed != nil {
		ev.Changed(collection, id, fields, cleared)
	}
}

func (c *DDPClient) handleAdded(msg map[string]any) {
	collection, _ := msg["collection"].(string)
	id, _ := msg["id"].(string)
	fields, _ := msg["fields"].(map[string]any)

	c.store.Added(collection, id, fields)

	if ev := c.currentEvents(); ev != nil && ev.Added != nil {
		ev.Added(collection, id, fields)
	}
}

func (c *DDPClient) handleRemoved(msg map[string]any) {
	collection, _ := msg["collection"].(string)
	id, _ := msg["id"].(string)

	c.store.Removed(collection, id)

	if ev := c.currentEvents(); ev != nil && ev.Removed != nil {
		ev.Removed(collection, id)
	}
}

// teardown runs once when the read loop exits: mark disconnected, fail
// every in-flight call and subscription, and emit the Closed event with
// the websocket close code when one was received.
func (c *DDPClient) teardown(err error) {
	c.closedOnce.Do(func() {
		c.connected.Store(false)

		c.callMu.Lock()
		pending := c.pending
		subs := c.subs
		c.pending = make(map[string]pendingCall)
		c.subs = make(map[string]SubscribeCallback)
		c.callMu.Unlock()

		for _, pc := range pending {
			if pc.cb != nil {
				pc.cb(ErrTransportClosed, nil)
			}
		}
		for _, cb := range subs {
			if cb != nil {
				cb(ErrTransportClosed)
			}
		}

		code := websocket.CloseAbnormalClosure
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		if closeErr, ok := err.(*websocket.CloseError); ok {
			code = closeErr.Code
			reason = closeErr.Text
		}

		c.logger.Debug("ddp connection torn down", LogFields{
			LogFieldCloseCode:   code,
			LogFieldCloseReason: reason,
		})

		if ev := c.currentEvents(); ev != nil && ev.Closed != nil {
			ev.Closed(code, reason)
		}
	})
}
