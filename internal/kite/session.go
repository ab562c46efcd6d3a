package kite

import (
	"fmt"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// LoginURL returns the browser URL a user visits to authorize the app
// and obtain a request token.
func LoginURL(apiKey string) string {
	return kiteconnect.New(apiKey).GetLoginURL()
}

// ExchangeToken trades a one-time request token for a long-lived
// access token. Run once per trading day; the token goes into the
// ZERODHA_ACCESS_TOKEN environment variable.
func ExchangeToken(apiKey, apiSecret, requestToken string) (string, error) {
	kc := kiteconnect.New(apiKey)
	session, err := kc.GenerateSession(requestToken, apiSecret)
	if err != nil {
		return "", fmt.Errorf("generate session: %w", err)
	}
	return session.AccessToken, nil
}
