// Package richcord embeds the commented default configuration written to
// the data directory on first run.
package richcord

import _ "embed"

// DefaultConfigTOML is config.default.toml, regenerated by go generate in
// internal/config.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
