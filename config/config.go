package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`

	LLMProvider    string `json:"llm_provider"`
	ChatModel      string `json:"chat_model"`
	OpenAIAPIKey   string `json:"openai_api_key"`
	OpenAIBaseURL  string `json:"openai_base_url"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`

	// Zerodha Kite Connect credentials. All three must be present for
	// the brokerage endpoints to be enabled.
	KiteAPIKey      string `json:"kite_api_key"`
	KiteAPISecret   string `json:"kite_api_secret"`
	KiteAccessToken string `json:"kite_access_token"`

	CacheTTL     time.Duration `json:"cache_ttl"`
	CacheEnabled bool          `json:"cache_enabled"`
	Debug        bool          `json:"debug"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Port: 8000,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},

		LLMProvider:   "openai",
		ChatModel:     "gpt-5.2",
		OpenAIBaseURL: "https://api.openai.com/v1",

		CacheTTL:     30 * time.Second,
		CacheEnabled: true,
		Debug:        false,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(val, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			c.AllowedOrigins = origins
		}
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("CHAT_MODEL"); val != "" {
		c.ChatModel = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}

	if val := os.Getenv("ZERODHA_API_KEY"); val != "" {
		c.KiteAPIKey = val
	}
	if val := os.Getenv("ZERODHA_API_SECRET"); val != "" {
		c.KiteAPISecret = val
	}
	if val := os.Getenv("ZERODHA_ACCESS_TOKEN"); val != "" {
		c.KiteAccessToken = val
	}

	if val := os.Getenv("CACHE_TTL_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			c.CacheTTL = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("STOCKGPT_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// KiteConfigured reports whether all brokerage credentials are present.
func (c *Config) KiteConfigured() bool {
	return c.KiteAPIKey != "" && c.KiteAPISecret != "" && c.KiteAccessToken != ""
}

// ChatConfigured reports whether the configured LLM provider has a credential.
func (c *Config) ChatConfigured() bool {
	switch c.LLMProvider {
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	default:
		return c.OpenAIAPIKey != ""
	}
}
