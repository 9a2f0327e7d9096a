// Package notifications alerts the operator when a vision synthesis finishes.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Messages carry
// the generated title and the session id only; answers never leave the
// server through this channel.
package notifications
