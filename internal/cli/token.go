package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/stockgpt/stockgpt/config"
	"github.com/stockgpt/stockgpt/internal/kite"
)

// runTokenFlow walks the daily Zerodha login: print the login URL,
// collect the request token from the redirect, exchange it, and show
// the .env line to persist.
func runTokenFlow(cfg *config.Config) error {
	if cfg.KiteAPIKey == "" || cfg.KiteAPISecret == "" {
		return fmt.Errorf("ZERODHA_API_KEY and ZERODHA_API_SECRET must be set before generating a token")
	}

	fmt.Println(titleStyle.Render("Zerodha Access Token"))
	fmt.Println(boxStyle.Render(strings.Join([]string{
		"1. Open the login URL below in a browser and sign in.",
		"2. After the redirect, copy the request_token query parameter.",
		"3. Paste it here to receive an access token.",
		"",
		"Login URL: " + kite.LoginURL(cfg.KiteAPIKey),
	}, "\n")))

	requestToken, err := askRequestToken()
	if err != nil {
		return err
	}

	accessToken, err := kite.ExchangeToken(cfg.KiteAPIKey, cfg.KiteAPISecret, requestToken)
	if err != nil {
		fmt.Println(errorStyle.Render("Token exchange failed: " + err.Error()))
		return err
	}

	fmt.Println(successStyle.Render("Access token generated"))
	fmt.Println(boxStyle.Render(strings.Join([]string{
		"Add this line to your .env file:",
		"",
		"ZERODHA_ACCESS_TOKEN=" + accessToken,
		"",
		"Tokens expire daily; rerun this command each trading day.",
	}, "\n")))

	return nil
}

func askRequestToken() (string, error) {
	var token string
	prompt := &survey.Input{
		Message: "Request token:",
		Help:    "The request_token parameter from the post-login redirect URL",
	}

	err := survey.AskOne(prompt, &token, survey.WithValidator(func(val interface{}) error {
		str, ok := val.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return fmt.Errorf("request token cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(token), nil
}
