package rocketbot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Remote methods used by the relay.
const (
	methodSendMessage         = "sendMessage"
	methodCreateDirectMessage = "createDirectMessage"
)

// pendingSend is an outbound message waiting for a direct-message room
// to be resolved. The resolution callback dispatches it at most once.
type pendingSend struct {
	to   *User
	body string
	once sync.Once
}

// MessageRelay translates outbound send requests into transport method
// calls. It is bound to the active session's transport once the stream
// subscription settles and unbound during cleanup; sends outside that
// window fail with ErrNotConnected.
//
// Delivery is fire-and-forget: once a room id is known, exactly one
// sendMessage call is issued per logical send, and no delivery
// confirmation is tracked.
type MessageRelay struct {
	logger  Logger
	metrics *BotMetrics
	limiter *rate.Limiter

	mu        sync.RWMutex
	transport Transport
}

func newMessageRelay(logger Logger, metrics *BotMetrics, limiter *rate.Limiter) *MessageRelay {
	return &MessageRelay{
		logger:  logger,
		metrics: metrics,
		limiter: limiter,
	}
}

// bind attaches the relay to the active session's transport.
func (r *MessageRelay) bind(t Transport) {
	r.mu.Lock()
	r.transport = t
	r.mu.Unlock()
}

// unbind detaches the relay during session cleanup.
func (r *MessageRelay) unbind() {
	r.mu.Lock()
	r.transport = nil
	r.mu.Unlock()
}

// current returns the bound transport, or nil outside a live session.
func (r *MessageRelay) current() Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.transport
}

// Connected reports whether the relay is bound to a live session.
func (r *MessageRelay) Connected() bool {
	return r.current() != nil
}

// Send delivers text to the given user. With a reply context the target
// room comes from the replied-to message and a single sendMessage call
// is issued. Without one, the direct-message room is resolved first via
// createDirectMessage and the send is queued until the resolution
// callback returns the room id.
func (r *MessageRelay) Send(to *User, text string, replyTo *InboundMessage) error {
	if to == nil {
		return ErrMalformedRecord
	}

	t := r.current()
	if t == nil {
		return ErrNotConnected
	}

	if replyTo != nil {
		roomID, err := replyTo.RoomID()
		if err != nil {
			return err
		}
		return r.dispatch(t, roomID, text, nil)
	}

	return r.resolveDirect(t, &pendingSend{to: to, body: text})
}

// SendCard delivers a rich message as a structured attachment to the
// room of the card's parent message.
func (r *MessageRelay) SendCard(card *Card) error {
	if card == nil || card.Parent == nil {
		return ErrMalformedRecord
	}

	t := r.current()
	if t == nil {
		return ErrNotConnected
	}

	roomID, err := card.Parent.RoomID()
	if err != nil {
		return err
	}

	return r.dispatch(t, roomID, card.Body, []map[string]any{card.attachment()})
}

// resolveDirect issues the direct-message room resolution call and
// queues the pending send for its callback. The callback dispatches the
// queued send exactly once.
func (r *MessageRelay) resolveDirect(t Transport, ps *pendingSend) error {
	r.logger.Debug("resolving direct message room", LogFields{
		LogFieldUser:   ps.to.Username(),
		LogFieldMethod: methodCreateDirectMessage,
	})

	return t.Call(methodCreateDirectMessage, []any{ps.to.Username()}, func(err error, result any) {
		if err != nil {
			r.logger.Error("direct message room resolution failed", LogFields{
				LogFieldUser:  ps.to.Username(),
				LogFieldError: err,
			})
			r.metrics.MessageDropped()
			return
		}

		record, ok := result.(map[string]any)
		if !ok {
			r.logger.Error("direct message room result is malformed", LogFields{
				LogFieldUser: ps.to.Username(),
			})
			r.metrics.MessageDropped()
			return
		}

		roomID, ok := record["rid"].(string)
		if !ok || roomID == "" {
			r.logger.Error("direct message room result has no room id", LogFields{
				LogFieldUser: ps.to.Username(),
			})
			r.metrics.MessageDropped()
			return
		}

		ps.once.Do(func() {
			if err := r.dispatch(t, roomID, ps.body, nil); err != nil {
				r.logger.Error("queued send failed", LogFields{
					LogFieldRoomID: roomID,
					LogFieldError:  err,
				})
			}
		})
	})
}

// dispatch issues the single sendMessage call for a send whose room is
// known. When a rate limit is configured, a send above the limit is
// delayed off the caller's goroutine.
func (r *MessageRelay) dispatch(t Transport, roomID, body string, attachments []map[string]any) error {
	msg := map[string]any{
		"rid": roomID,
		"msg": body,
	}
	if len(attachments) > 0 {
		msg["attachments"] = attachments
	}

	if r.limiter != nil && r.limiter.Limit() != rate.Inf {
		reservation := r.limiter.Reserve()
		if !reservation.OK() {
			r.metrics.MessageDropped()
			return ErrCallFailed
		}
		if delay := reservation.Delay(); delay > 0 {
			go func() {
				time.Sleep(delay)
				if err := r.call(t, roomID, msg); err != nil {
					r.logger.Error("delayed send failed", LogFields{
						LogFieldRoomID: roomID,
						LogFieldError:  err,
					})
				}
			}()
			return nil
		}
	}

	return r.call(t, roomID, msg)
}

func (r *MessageRelay) call(t Transport, roomID string, msg map[string]any) error {
	r.logger.Debug("sending message", LogFields{
		LogFieldRoomID: roomID,
		LogFieldMethod: methodSendMessage,
	})

	if err := t.Call(methodSendMessage, []any{msg}, nil); err != nil {
		r.metrics.MessageDropped()
		return err
	}

	r.metrics.MessageSent(methodSendMessage)
	return nil
}
