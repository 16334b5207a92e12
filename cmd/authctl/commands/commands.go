// Package commands implements the authctl subcommands.
package commands

import (
	"fmt"

	"github.com/benvon/authgate/internal/config"
	"github.com/benvon/authgate/internal/credentials"
	"github.com/benvon/authgate/internal/tokens"
)

// ConfigLoader returns the configuration the commands operate on.
type ConfigLoader func() (*config.Config, error)

type components struct {
	cfg   *config.Config
	codec *tokens.Codec
	creds *credentials.Verifier
}

func build(load ConfigLoader) (*components, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	codec := tokens.NewCodec(&cfg.Auth, nil)
	return &components{
		cfg:   cfg,
		codec: codec,
		creds: credentials.NewVerifier(&cfg.Auth, codec, nil),
	}, nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
