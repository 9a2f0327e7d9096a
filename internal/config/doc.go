// Package config loads, normalizes, and validates envision configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and ENVISION_API_TOKEN. Per-role LLM sections fall back to
// the shared [llm] block so the analyzer, question generator and summarizer
// can be pointed at different models without repeating credentials.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
