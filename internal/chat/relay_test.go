package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/stockgpt/stockgpt/config"
	"github.com/stockgpt/stockgpt/internal/models"
)

// fakeChatModel records the messages it receives and replays canned
// output, streaming via a schema.Pipe.
type fakeChatModel struct {
	seen      []*schema.Message
	reply     string
	fragments []string
	streamErr error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.seen = input
	sr, sw := schema.Pipe[*schema.Message](len(f.fragments) + 1)
	go func() {
		defer sw.Close()
		for _, frag := range f.fragments {
			sw.Send(schema.AssistantMessage(frag, nil), nil)
		}
		if f.streamErr != nil {
			sw.Send(nil, f.streamErr)
		}
	}()
	return sr, nil
}

func TestBuildMessagesShape(t *testing.T) {
	history := []models.ChatTurn{
		{Role: models.RoleUser, Content: "tell me about RELIANCE"},
		{Role: models.RoleAssistant, Content: "a wonderful business"},
	}
	msgs := buildMessages(history, "what about TCS?")

	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System || !strings.Contains(msgs[0].Content, "Mr. Warren") {
		t.Errorf("first message must be the persona system prompt")
	}
	if msgs[1].Role != schema.User || msgs[2].Role != schema.Assistant {
		t.Errorf("history roles must be preserved, got %s/%s", msgs[1].Role, msgs[2].Role)
	}
	if last := msgs[len(msgs)-1]; last.Role != schema.User || last.Content != "what about TCS?" {
		t.Errorf("last message must be the new user message, got %+v", last)
	}
}

func TestBuildMessagesTruncatesHistory(t *testing.T) {
	history := make([]models.ChatTurn, 15)
	for i := range history {
		history[i] = models.ChatTurn{Role: models.RoleUser, Content: strings.Repeat("x", i+1)}
	}
	msgs := buildMessages(history, "latest")

	// system + 10 history turns + new user message
	if len(msgs) != 12 {
		t.Fatalf("expected 12 messages after truncation, got %d", len(msgs))
	}
	// The oldest retained turn is history[5].
	if msgs[1].Content != strings.Repeat("x", 6) {
		t.Errorf("truncation must drop the oldest turns, first retained: %q", msgs[1].Content)
	}
}

func TestBuildMessagesUnknownRoleDefaultsToUser(t *testing.T) {
	msgs := buildMessages([]models.ChatTurn{{Role: "bot", Content: "hi"}}, "hello")
	if msgs[1].Role != schema.User {
		t.Errorf("unknown history role should map to user, got %s", msgs[1].Role)
	}
}

func TestConverse(t *testing.T) {
	fake := &fakeChatModel{reply: "buy wonderful companies at fair prices"}
	relay := NewRelay(fake)

	reply, at, err := relay.Converse(context.Background(), nil, "any advice?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "buy wonderful companies at fair prices" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if at.IsZero() {
		t.Error("expected a reply timestamp")
	}
	if fake.seen[0].Role != schema.System {
		t.Error("persona prompt must lead the model input")
	}
}

func TestConverseStreamFragmentsThenError(t *testing.T) {
	fake := &fakeChatModel{
		fragments: []string{"Price ", "is what ", "you pay."},
		streamErr: errors.New("upstream closed the stream"),
	}
	relay := NewRelay(fake)

	sr, err := relay.ConverseStream(context.Background(), nil, "quote?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sr.Close()

	var contents []string
	var streamErr error
	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		contents = append(contents, msg.Content)
	}

	if len(contents) != 3 {
		t.Fatalf("expected 3 content fragments before the error, got %d", len(contents))
	}
	if streamErr == nil {
		t.Fatal("expected the stream to surface the upstream error")
	}
}

func TestConverseStreamCompletes(t *testing.T) {
	fake := &fakeChatModel{fragments: []string{"value ", "is what ", "you get"}}
	relay := NewRelay(fake)

	sr, err := relay.ConverseStream(context.Background(), nil, "quote?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sr.Close()

	var full strings.Builder
	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		full.WriteString(msg.Content)
	}
	if full.String() != "value is what you get" {
		t.Errorf("unexpected assembled reply: %q", full.String())
	}
}

func TestNewChatModelUnconfigured(t *testing.T) {
	cfg := &config.Config{LLMProvider: "openai"}
	if _, err := NewChatModel(context.Background(), cfg); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
