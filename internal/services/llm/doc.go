// Package llm provides an OpenRouter chat client shared by the response
// analyzer, the adaptive question generator and the synthesis worker.
//
// # Entry Points
//
// NewClient: construct client from Config (FromConfig adapts resolved
// per-role settings).
// Client.CompleteJSON: send system/user prompts, receive a JSON object.
// Client.CompleteText: send system/user prompts, receive free text.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant decoding of fenced or prose-wrapped JSON.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies and network
// timeouts with exponential backoff (base 1s, max 10s, up to 3 attempts by
// default). Context cancellation aborts retries immediately.
//
// Callers decide what a failure means: the analyzer degrades to a neutral
// analysis, question generation surfaces a provider-unavailable error.
package llm
