package rocketbot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"FALSE", false},
		{"False", false},
		{"no", false},
		{"No", false},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBool(tt.value))
		})
	}
}

// envMap builds a lookupEnv function over a fixed map.
func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func requiredSettings() Settings {
	return Settings{
		KeyServerURI:     "ws://localhost:3000/websocket",
		KeyLoginUsername: "bot",
		KeyLoginPassword: "secret",
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := loadConfig(envMap(nil), requiredSettings())
		require.NoError(t, err)

		assert.Equal(t, "ws://localhost:3000/websocket", config.ServerURI)
		assert.Equal(t, "bot", config.LoginUsername)
		assert.Equal(t, []byte("secret"), config.LoginPassword)
		assert.True(t, config.PatchCollectionMerge)
		assert.True(t, config.ReconnectEnabled)
		assert.False(t, config.HeartbeatEnabled)
		assert.Equal(t, 10*time.Second, config.HeartbeatInterval)
		assert.Equal(t, LogLevelInfo, config.LogLevel)
	})

	t.Run("environment overrides settings", func(t *testing.T) {
		env := envMap(map[string]string{
			"ROCKETBOT_LOGIN_USERNAME":    "envbot",
			"ROCKETBOT_RECONNECT_ENABLED": "no",
		})

		settings := requiredSettings()
		settings[KeyReconnectEnabled] = "yes"

		config, err := loadConfig(env, settings)
		require.NoError(t, err)

		assert.Equal(t, "envbot", config.LoginUsername)
		assert.False(t, config.ReconnectEnabled)
	})

	t.Run("explicitly empty boolean disables the feature", func(t *testing.T) {
		env := envMap(map[string]string{
			"ROCKETBOT_RECONNECT_ENABLED": "",
		})

		config, err := loadConfig(env, requiredSettings())
		require.NoError(t, err)

		// The key is set, so the schema default (true) does not apply.
		assert.False(t, config.ReconnectEnabled)
	})

	t.Run("explicitly empty boolean in settings disables the feature", func(t *testing.T) {
		settings := requiredSettings()
		settings[KeyPatchCollectionMerge] = ""

		config, err := loadConfig(envMap(nil), settings)
		require.NoError(t, err)

		assert.False(t, config.PatchCollectionMerge)
	})

	t.Run("missing required key", func(t *testing.T) {
		settings := requiredSettings()
		delete(settings, KeyLoginPassword)

		_, err := loadConfig(envMap(nil), settings)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingConfig)

		var confErr *ConfigError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, KeyLoginPassword, confErr.Key)
	})

	t.Run("nil settings still fails on required keys", func(t *testing.T) {
		_, err := loadConfig(envMap(nil), nil)
		assert.ErrorIs(t, err, ErrMissingConfig)
	})

	t.Run("fractional heartbeat interval", func(t *testing.T) {
		settings := requiredSettings()
		settings[KeyHeartbeatInterval] = "0.5"

		config, err := loadConfig(envMap(nil), settings)
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, config.HeartbeatInterval)
	})

	t.Run("invalid heartbeat interval", func(t *testing.T) {
		for _, value := range []string{"abc", "0", "-1"} {
			settings := requiredSettings()
			settings[KeyHeartbeatInterval] = value

			_, err := loadConfig(envMap(nil), settings)
			assert.ErrorIs(t, err, ErrInvalidConfig, "interval %q", value)
		}
	})

	t.Run("log level parsing", func(t *testing.T) {
		settings := requiredSettings()
		settings[KeyLogLevel] = "debug"

		config, err := loadConfig(envMap(nil), settings)
		require.NoError(t, err)
		assert.Equal(t, LogLevelDebug, config.LogLevel)

		settings[KeyLogLevel] = "verbose"
		_, err = loadConfig(envMap(nil), settings)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"Warn", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"none", LogLevelNone},
		{" info ", LogLevelInfo},
	}

	for _, tt := range tests {
		level, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, level, tt.in)
	}

	_, err := ParseLogLevel("chatty")
	assert.Error(t, err)
}
