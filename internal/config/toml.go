package config

import "github.com/pelletier/go-toml/v2"

// marshalTOML renders cfg with the struct `toml` tags declared on
// Config, using go-toml/v2 directly rather than round-tripping through
// viper (which only reads TOML, it doesn't write it).
func marshalTOML(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
