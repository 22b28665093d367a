// Package rocketbot provides a bot backend for Rocket.Chat-style
// servers over the DDP realtime protocol.
//
// The package manages the full session lifecycle: connecting, logging
// in, subscribing to the room-messages stream, dispatching inbound
// messages to an application handler, and reconnecting with exponential
// backoff when the session ends.
//
// # Configuration
//
// Configuration resolves from environment variables first (prefixed
// with ROCKETBOT_), then a Settings object, then schema defaults:
//
//	config, err := rocketbot.LoadConfig(rocketbot.Settings{
//	    rocketbot.KeyServerURI:     "ws://localhost:3000/websocket",
//	    rocketbot.KeyLoginUsername: "bot",
//	    rocketbot.KeyLoginPassword: "secret",
//	})
//
// # Running a bot
//
// Implement the Handler interface and drive the bot with ServeForever:
//
//	bot, err := rocketbot.New(config, handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bot.ServeForever(ctx)
//
// ServeForever retries failed sessions with exponential backoff until
// the context is canceled. With the RECONNECT_ENABLED key set to false
// it runs a single session; ServeOnce does the same regardless of the
// setting.
//
// # Sending messages
//
// Send and SendCard work from any goroutine while a session is live.
// Delivery is fire-and-forget:
//
//	// Reply in the room the message arrived from.
//	bot.Send(msg.From, "hello", msg)
//
//	// Open (or reuse) a direct-message room first.
//	bot.Send(rocketbot.NewUser("alice"), "hello", nil)
//
//	// Rich message with a structured attachment.
//	bot.SendCard(&rocketbot.Card{Parent: msg, Title: "Build", Color: "green"})
//
// # Options
//
// Functional options configure logging, metrics, the heartbeat, the
// reconnect backoff, outbound rate limiting, and the transport factory:
//
//	bot, err := rocketbot.New(config, handler,
//	    rocketbot.WithLogger(rocketbot.NewStdLogger(os.Stderr, rocketbot.LogLevelDebug)),
//	    rocketbot.WithMetrics(rocketbot.NewMemoryMetrics()),
//	    rocketbot.WithBackoff(time.Second, time.Minute),
//	    rocketbot.WithSendRateLimit(rate.Limit(5), 10),
//	)
//
// # Transport
//
// The default transport is DDPClient, a DDP client over a websocket
// connection, with optional SOCKS5 proxying. Tests and alternative
// protocols inject their own transport with WithTransportFactory.
package rocketbot
