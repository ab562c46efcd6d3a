package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stockgpt/stockgpt/config"
	"github.com/stockgpt/stockgpt/internal/cache"
	"github.com/stockgpt/stockgpt/internal/chat"
	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/kite"
	"github.com/stockgpt/stockgpt/internal/market"
	"github.com/stockgpt/stockgpt/internal/server"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "stockgpt",
		Short: "StockGPT - Indian stock market API with an AI advisor",
		Long: `StockGPT is the backend for the StockGPT dashboard. It relays Indian
market data from Zerodha Kite Connect and public sources, and proxies
chat messages to an LLM speaking as Mr. Warren, a value investor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start the API server
			return runServe(cfg)
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newTokenCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the StockGPT API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().Int("port", 0, "Listen port (overrides PORT)")

	return cmd
}

// runServe wires the resolver, brokerage client and chat relay into the
// HTTP server. Missing credentials disable the corresponding endpoints
// rather than failing startup.
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	quoteCache := cache.NewQuoteCache(cfg.CacheTTL, cfg.CacheEnabled)
	yahoo := dataflows.NewYahooClient()
	// Yahoo serves both tiers; NSE is quote-only.
	resolver := market.NewResolver(quoteCache, yahoo, yahoo, dataflows.NewNSEClient())

	var broker server.Broker
	if kc, err := kite.NewClient(cfg); err != nil {
		log.Printf("[serve] brokerage disabled: %v", err)
	} else {
		broker = kc
	}

	var relay server.ChatRelay
	if cm, err := chat.NewChatModel(ctx, cfg); err != nil {
		log.Printf("[serve] chat disabled: %v", err)
	} else {
		relay = chat.NewRelay(cm)
	}

	srv := server.NewServer(cfg, resolver, relay, broker)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[serve] StockGPT API listening on %s", addr)
	return httpServer.ListenAndServe()
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate a Zerodha access token",
		Long: `Walk through the daily Zerodha login flow: open the login URL, paste
the request token from the redirect, and receive an access token for
the ZERODHA_ACCESS_TOKEN environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenFlow(cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("StockGPT v1.0.0")
			fmt.Println("Indian stock market API with an AI advisor")
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

func showConfig(cfg *config.Config) {
	fmt.Println(titleStyle.Render("StockGPT Configuration"))

	lines := []string{
		fmt.Sprintf("Port:            %d", cfg.Port),
		fmt.Sprintf("Allowed origins: %s", strings.Join(cfg.AllowedOrigins, ", ")),
		fmt.Sprintf("LLM provider:    %s", cfg.LLMProvider),
		fmt.Sprintf("Chat model:      %s", cfg.ChatModel),
		fmt.Sprintf("Cache TTL:       %s (enabled: %v)", cfg.CacheTTL, cfg.CacheEnabled),
		fmt.Sprintf("Debug:           %v", cfg.Debug),
		fmt.Sprintf("Chat:            %s", configuredLabel(cfg.ChatConfigured())),
		fmt.Sprintf("Zerodha:         %s", configuredLabel(cfg.KiteConfigured())),
	}
	fmt.Println(boxStyle.Render(strings.Join(lines, "\n")))
}

func configuredLabel(ok bool) string {
	if ok {
		return successStyle.Render("configured")
	}
	return warnStyle.Render("not configured")
}

func validateConfig(cfg *config.Config) error {
	problems := 0

	if !cfg.ChatConfigured() {
		fmt.Println(warnStyle.Render("chat: no API key for provider " + cfg.LLMProvider + ", /api/chat will return an error"))
		problems++
	} else {
		fmt.Println(successStyle.Render("chat: configured (" + cfg.LLMProvider + ")"))
	}

	if !cfg.KiteConfigured() {
		fmt.Println(warnStyle.Render("zerodha: credentials missing, brokerage endpoints will report not configured"))
		problems++
	} else {
		fmt.Println(successStyle.Render("zerodha: configured"))
	}

	if problems > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("%d integration(s) disabled, the server will still start", problems)))
	}
	return nil
}
