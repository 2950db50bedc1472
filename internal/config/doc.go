// Package config loads detector tuning from JSON.
//
// The canonical defaults live in config/tuning.defaults.json at the
// repository root. A user file may set any subset of fields; unset fields
// keep their defaults. Environment variables (SPEEDSIGN_EXEMPLARS,
// SPEEDSIGN_LOG_LEVEL, SPEEDSIGN_WORKERS) are applied on top of the file,
// and command-line flags on top of both.
package config
