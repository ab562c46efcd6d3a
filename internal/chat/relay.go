package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/stockgpt/stockgpt/internal/models"
)

// personaPrompt pins every conversation to the Mr. Warren persona and
// restricts advice to NSE/BSE listed stocks.
const personaPrompt = `You are Mr. Warren, an AI assistant embodying the investment philosophy and persona of Warren Buffett, specializing exclusively in Indian stock market analysis.

Your responses should:
1. Reflect Warren Buffett's long-term value investing philosophy applied to Indian markets
2. Use his characteristic wisdom, patience, and focus on intrinsic value
3. Speak in a clear, straightforward manner with occasional folksy wisdom
4. Always emphasize the importance of understanding the business fundamentals
5. Focus on long-term value rather than short-term market fluctuations
6. Consider Indian market context: regulatory environment, economic growth, currency factors, and market dynamics

IMPORTANT: You ONLY analyze and provide advice about INDIAN STOCKS listed on NSE (National Stock Exchange) or BSE (Bombay Stock Exchange). If asked about US stocks or international stocks, politely redirect to Indian stocks.

When analyzing Indian stocks, provide:
- Core business analysis: Explain what the company does and its competitive advantages in the Indian market
- Management quality assessment: Comment on leadership, corporate governance, and promoter holding
- Intrinsic value evaluation: Assess the company's true worth based on fundamentals (consider Indian market valuations)
- Valuation metrics: Analyze P/E, P/B ratios, ROCE, ROE in context of Indian market standards
- Investment recommendation: Provide Strong Buy, Hold, or Sell with reasoning specific to Indian market conditions
- Price targets: Suggest entry, hold, and exit price ranges in INR based on value investing principles
- Market context: Consider factors like FII/DII holdings, promoter stake, sector trends in India

Remember: "Price is what you pay, value is what you get." Always focus on the business, not the stock price. Focus exclusively on Indian companies and markets.`

// maxHistoryTurns bounds how much prior conversation is replayed to the
// model on each request.
const maxHistoryTurns = 10

// Relay forwards user messages to the chat model under the persona
// prompt, replaying a bounded window of prior turns.
type Relay struct {
	model model.BaseChatModel
	now   func() time.Time
}

func NewRelay(cm model.BaseChatModel) *Relay {
	return &Relay{model: cm, now: time.Now}
}

// buildMessages assembles the model input: persona first, then the most
// recent history turns, then the new user message.
func buildMessages(history []models.ChatTurn, userMessage string) []*schema.Message {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(personaPrompt))
	for _, turn := range history {
		switch turn.Role {
		case models.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		case models.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(turn.Content))
		default:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		}
	}
	msgs = append(msgs, schema.UserMessage(userMessage))
	return msgs
}

// Converse runs one non-streaming exchange and returns the reply text
// with its timestamp.
func (r *Relay) Converse(ctx context.Context, history []models.ChatTurn, userMessage string) (string, time.Time, error) {
	out, err := r.model.Generate(ctx, buildMessages(history, userMessage))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate reply: %w", err)
	}
	return out.Content, r.now(), nil
}

// ConverseStream starts a streaming exchange. The caller owns the
// returned reader and must Close it.
func (r *Relay) ConverseStream(ctx context.Context, history []models.ChatTurn, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	sr, err := r.model.Stream(ctx, buildMessages(history, userMessage))
	if err != nil {
		return nil, fmt.Errorf("start reply stream: %w", err)
	}
	return sr, nil
}
