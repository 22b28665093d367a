package rocketbot

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Prefix used when mapping a config key to its environment variable,
// e.g. SERVER_URI reads ROCKETBOT_SERVER_URI.
const envPrefix = "ROCKETBOT_"

// Config keys. Each key resolves from the environment first, then the
// Settings object, then the schema default.
const (
	// KeyServerURI is the realtime server URI, e.g.
	// "ws://127.0.0.1:3000/websocket". Required.
	KeyServerURI = "SERVER_URI"

	// KeyLoginUsername is the bot account username. Required.
	KeyLoginUsername = "LOGIN_USERNAME"

	// KeyLoginPassword is the bot account password. Required.
	KeyLoginPassword = "LOGIN_PASSWORD"

	// KeyPatchCollectionMerge selects the corrected collection merge in
	// the transport. Default true.
	KeyPatchCollectionMerge = "PATCH_COLLECTION_MERGE"

	// KeyReconnectEnabled controls whether the supervisor retries after
	// a session ends. Default true.
	KeyReconnectEnabled = "RECONNECT_ENABLED"

	// KeyHeartbeatEnabled controls the per-session heartbeat loop.
	// Default false. A heartbeat function must be supplied with
	// WithHeartbeat when enabled.
	KeyHeartbeatEnabled = "HEARTBEAT_ENABLED"

	// KeyHeartbeatInterval is the heartbeat interval in seconds,
	// fractional values allowed. Default 10.
	KeyHeartbeatInterval = "HEARTBEAT_INTERVAL"

	// KeyLogLevel is the logging verbosity. Default INFO.
	KeyLogLevel = "LOG_LEVEL"
)

// configEntry is one row of the configuration schema: the key, its
// default, and whether the key must resolve to a non-empty value.
type configEntry struct {
	key      string
	def      string
	required bool
}

var configSchema = []configEntry{
	{key: KeyServerURI, required: true},
	{key: KeyLoginUsername, required: true},
	{key: KeyLoginPassword, required: true},
	{key: KeyPatchCollectionMerge, def: "true"},
	{key: KeyReconnectEnabled, def: "true"},
	{key: KeyHeartbeatEnabled, def: "false"},
	{key: KeyHeartbeatInterval, def: "10"},
	{key: KeyLogLevel, def: "INFO"},
}

// Settings is the config-object layer: values keyed by config key.
// Environment variables override individual keys.
type Settings map[string]string

// Config is the resolved, validated configuration.
type Config struct {
	ServerURI            string
	LoginUsername        string
	LoginPassword        []byte
	PatchCollectionMerge bool
	ReconnectEnabled     bool
	HeartbeatEnabled     bool
	HeartbeatInterval    time.Duration
	LogLevel             LogLevel
}

// ParseBool interprets a config value as a boolean. Empty, "0", "false"
// and "no" (case-insensitive) are false; any other value is true. A key
// explicitly set to an empty value therefore disables the feature;
// defaults for absent keys come from the schema, not from here.
func ParseBool(value string) bool {
	switch strings.ToLower(value) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

// LoadConfig resolves the configuration schema against the process
// environment and the given settings object. A nil settings map is
// allowed.
func LoadConfig(settings Settings) (*Config, error) {
	return loadConfig(os.LookupEnv, settings)
}

// loadConfig is the injectable core of LoadConfig.
func loadConfig(lookupEnv func(string) (string, bool), settings Settings) (*Config, error) {
	resolved := make(map[string]string, len(configSchema))

	for _, entry := range configSchema {
		value, ok := lookupEnv(envPrefix + entry.key)
		if !ok {
			if v, found := settings[entry.key]; found {
				value = v
			} else {
				value = entry.def
			}
		}

		if entry.required && value == "" {
			return nil, NewConfigError(entry.key)
		}

		resolved[entry.key] = value
	}

	interval, err := strconv.ParseFloat(resolved[KeyHeartbeatInterval], 64)
	if err != nil || interval <= 0 {
		return nil, NewInvalidConfigError(KeyHeartbeatInterval, resolved[KeyHeartbeatInterval])
	}

	level, err := ParseLogLevel(resolved[KeyLogLevel])
	if err != nil {
		return nil, NewInvalidConfigError(KeyLogLevel, resolved[KeyLogLevel])
	}

	return &Config{
		ServerURI:            resolved[KeyServerURI],
		LoginUsername:        resolved[KeyLoginUsername],
		LoginPassword:        []byte(resolved[KeyLoginPassword]),
		PatchCollectionMerge: ParseBool(resolved[KeyPatchCollectionMerge]),
		ReconnectEnabled:     ParseBool(resolved[KeyReconnectEnabled]),
		HeartbeatEnabled:     ParseBool(resolved[KeyHeartbeatEnabled]),
		HeartbeatInterval:    time.Duration(interval * float64(time.Second)),
		LogLevel:             level,
	}, nil
}
