package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stockgpt/stockgpt/config"
	"github.com/stockgpt/stockgpt/internal/dataflows"
	"github.com/stockgpt/stockgpt/internal/kite"
	"github.com/stockgpt/stockgpt/internal/models"
)

// QuoteResolver serves public-data quotes. It never fails; degraded
// tiers are reported through the Status field.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol, period, interval string) models.Quote
}

// ChatRelay forwards a conversation to the LLM.
type ChatRelay interface {
	Converse(ctx context.Context, history []models.ChatTurn, userMessage string) (string, time.Time, error)
	ConverseStream(ctx context.Context, history []models.ChatTurn, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// Broker is the brokerage-backed data path. A nil Broker on the Server
// means the integration is not configured.
type Broker interface {
	Indexes(ctx context.Context) []models.IndexData
	Ticker(ctx context.Context) ([]models.TickerStock, error)
	StockDetail(ctx context.Context, symbol string) (*models.StockDetail, error)
	Holdings(ctx context.Context) ([]models.Holding, error)
	Watchlist(ctx context.Context) ([]models.WatchlistItem, error)
	Portfolio(ctx context.Context) (*models.PortfolioSummary, error)
}

const brokerUnconfiguredMsg = "Zerodha Kite Connect not configured. Please add API credentials to .env file"

type Server struct {
	cfg      *config.Config
	resolver QuoteResolver
	relay    ChatRelay
	broker   Broker
}

// NewServer wires the handlers. relay and broker may be nil when the
// corresponding integration is unconfigured; the affected endpoints
// then answer with their configuration-error responses.
func NewServer(cfg *config.Config, resolver QuoteResolver, relay ChatRelay, broker Broker) *Server {
	return &Server{cfg: cfg, resolver: resolver, relay: relay, broker: broker}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Get("/indexes", s.handleIndexes)
		r.Get("/market/{symbol}", s.handleMarketQuote)
		r.Get("/stocks/ticker", s.handleTicker)
		r.Get("/stocks/{symbol}", s.handleStockDetail)
		r.Route("/zerodha", func(r chi.Router) {
			r.Get("/holdings", s.handleHoldings)
			r.Get("/watchlist", s.handleWatchlist)
			r.Get("/portfolio", s.handlePortfolio)
		})
		r.Post("/chat", s.handleChat)
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "StockGPT API is running"})
}

func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeError(w, http.StatusBadRequest, brokerUnconfiguredMsg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexes": s.broker.Indexes(r.Context())})
}

// handleMarketQuote serves the public-data fallback path directly. The
// resolver always produces a Quote, so this endpoint never errors past
// request validation.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := dataflows.ValidateSymbol(symbol); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "5d"
	}
	if _, err := dataflows.PeriodStart(period, time.Now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1h"
	}

	writeJSON(w, http.StatusOK, s.resolver.Resolve(r.Context(), symbol, period, interval))
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeJSON(w, http.StatusOK, map[string]any{"stocks": []models.TickerStock{}})
		return
	}

	stocks, err := s.broker.Ticker(r.Context())
	if err != nil {
		log.Printf("[server] ticker failed: %v", err)
		writeJSON(w, http.StatusOK, map[string]any{"stocks": []models.TickerStock{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stocks": stocks})
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeError(w, http.StatusBadRequest, brokerUnconfiguredMsg)
		return
	}

	symbol := chi.URLParam(r, "symbol")
	if err := dataflows.ValidateSymbol(symbol); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := s.broker.StockDetail(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, kite.ErrSymbolNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Stock %s not found in Zerodha. Please check the symbol.", symbol))
			return
		}
		log.Printf("[server] stock detail for %s failed: %v", symbol, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching stock data: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeError(w, http.StatusBadRequest, brokerUnconfiguredMsg)
		return
	}

	holdings, err := s.broker.Holdings(r.Context())
	if err != nil {
		log.Printf("[server] holdings failed: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching holdings: %v", err))
		return
	}

	totalValue, totalInvested, totalPnL := kite.SummarizeHoldings(holdings)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"holdings":      holdings,
		"totalHoldings": len(holdings),
		"totalValue":    totalValue,
		"totalInvested": totalInvested,
		"totalPnl":      totalPnL,
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeError(w, http.StatusBadRequest, brokerUnconfiguredMsg)
		return
	}

	watchlist, err := s.broker.Watchlist(r.Context())
	if err != nil {
		log.Printf("[server] watchlist failed: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching watchlist: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"watchlist":   watchlist,
		"totalStocks": len(watchlist),
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeError(w, http.StatusBadRequest, "Zerodha Kite Connect not configured")
		return
	}

	summary, err := s.broker.Portfolio(r.Context())
	if err != nil {
		log.Printf("[server] portfolio failed: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching portfolio: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, portfolioResponse{Success: true, PortfolioSummary: *summary})
}

type portfolioResponse struct {
	Success bool `json:"success"`
	models.PortfolioSummary
}

type chatRequest struct {
	Message             string            `json:"message"`
	ConversationHistory []models.ChatTurn `json:"conversation_history"`
	Stream              *bool             `json:"stream"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.relay == nil {
		writeError(w, http.StatusInternalServerError, "OpenAI API key not configured. Please set OPENAI_API_KEY in your .env file")
		return
	}

	var req chatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	if req.Stream != nil && !*req.Stream {
		reply, at, err := s.relay.Converse(r.Context(), req.ConversationHistory, req.Message)
		if err != nil {
			log.Printf("[server] chat failed: %v", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating reply: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"response":  reply,
			"timestamp": at.UTC().Format(time.RFC3339),
		})
		return
	}

	sr, err := s.relay.ConverseStream(r.Context(), req.ConversationHistory, req.Message)
	if err != nil {
		log.Printf("[server] chat stream failed: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating reply: %v", err))
		return
	}
	defer sr.Close()

	streamChat(w, sr)
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}
