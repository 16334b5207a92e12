package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/benvon/authgate/internal/config"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
)

// Scopes requested from Google.
var Scopes = []string{"openid", "email", "profile"}

// ErrMissingIDToken is returned when the token response has no id_token.
var ErrMissingIDToken = errors.New("token response has no id_token")

// Client wraps OAuth2 client functionality
type Client struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewClient creates a new OAuth2 client for the configured Google application.
// httpClient carries the exchange timeout.
func NewClient(cfg *config.AuthConfig, httpClient *http.Client) *Client {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.GoogleAuthURL,
			TokenURL: cfg.GoogleTokenURL,
			// Google accepts credentials in the form body; avoids a probing round trip.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &Client{config: oauthCfg, httpClient: httpClient}
}

// AuthCodeURL returns the authorization URL. response_type=code is always set
// by oauth2; offline access and a forced consent prompt are requested explicitly.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode exchanges an authorization code for tokens and returns the raw ID token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx, span := tracer().Start(ctx, "oidc.exchange_code")
	defer span.End()

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		span.SetStatus(codes.Error, "exchange failed")
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", ErrMissingIDToken
	}
	return rawIDToken, nil
}
