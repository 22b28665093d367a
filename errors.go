package rocketbot

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration - check with errors.Is().
var (
	// ErrMissingConfig is returned when a required config key is absent.
	ErrMissingConfig = errors.New("missing required config")

	// ErrInvalidConfig is returned when a config value cannot be coerced.
	ErrInvalidConfig = errors.New("invalid config")
)

// Sentinel errors for the session lifecycle - check with errors.Is().
var (
	// ErrConnectFailed is returned when the transport connect call fails.
	ErrConnectFailed = errors.New("connect failed")

	// ErrLoginFailed is reported when the login callback carries an error.
	ErrLoginFailed = errors.New("login failed")

	// ErrSubscribeFailed is reported when the subscribe callback carries
	// an error.
	ErrSubscribeFailed = errors.New("subscribe failed")

	// ErrNotConnected is returned when a send requires a live session.
	ErrNotConnected = errors.New("not connected")

	// ErrTransportClosed is returned when an operation is attempted on a
	// closed transport.
	ErrTransportClosed = errors.New("transport closed")

	// ErrCallFailed is returned when a remote method call reports an error.
	ErrCallFailed = errors.New("method call failed")

	// ErrMalformedRecord is returned when a stream record is missing
	// fields that message dispatch depends on.
	ErrMalformedRecord = errors.New("malformed message record")
)

// ConfigError describes a missing or invalid configuration key.
// Extract with errors.As().
type ConfigError struct {
	err    error
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.err.Error())
}

func (e *ConfigError) Unwrap() error { return e.err }

// NewConfigError creates a ConfigError for a missing required key.
func NewConfigError(key string) *ConfigError {
	return &ConfigError{err: ErrMissingConfig, Key: key}
}

// NewInvalidConfigError creates a ConfigError for a value that failed
// coercion.
func NewInvalidConfigError(key, reason string) *ConfigError {
	return &ConfigError{err: ErrInvalidConfig, Key: key, Reason: reason}
}

// LoginError carries the raw error payload from a failed login.
// Extract with errors.As().
type LoginError struct {
	err     error
	Payload map[string]any
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: %v", e.Payload)
}

func (e *LoginError) Unwrap() error { return e.err }

// NewLoginError creates a LoginError from a raw error payload.
func NewLoginError(payload map[string]any) *LoginError {
	return &LoginError{err: ErrLoginFailed, Payload: payload}
}

// SubscribeError carries the raw error payload from a failed topic
// subscription. Extract with errors.As().
type SubscribeError struct {
	err     error
	Topic   string
	Payload map[string]any
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("subscribe %s failed: %v", e.Topic, e.Payload)
}

func (e *SubscribeError) Unwrap() error { return e.err }

// NewSubscribeError creates a SubscribeError from a raw error payload.
func NewSubscribeError(topic string, payload map[string]any) *SubscribeError {
	return &SubscribeError{err: ErrSubscribeFailed, Topic: topic, Payload: payload}
}

// CallError carries the raw error payload from a failed remote method
// call. Extract with errors.As().
type CallError struct {
	err     error
	Method  string
	Payload map[string]any
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s failed: %v", e.Method, e.Payload)
}

func (e *CallError) Unwrap() error { return e.err }

// NewCallError creates a CallError from a raw error payload.
func NewCallError(method string, payload map[string]any) *CallError {
	return &CallError{err: ErrCallFailed, Method: method, Payload: payload}
}
