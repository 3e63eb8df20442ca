// Package config loads, normalizes, and validates studio configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STUDIO_TTS_API_KEY and GEMINI_API_KEY. The Config type centralizes every knob
// the daemon and CLI need, so upstream credentials, batch pacing, and the
// project root are discovered in one pass.
//
// Older installs kept their credentials in an env.yaml file next to the
// server; ImportLegacyEnv merges those values into a Config.
package config
