package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// sendFunc performs one generation call. history may be empty.
type sendFunc func(ctx context.Context, m *genai.GenerativeModel, history []*genai.Content, msg string) (*genai.GenerateContentResponse, error)

// pingFunc performs one connectivity round trip.
type pingFunc func(ctx context.Context, m *genai.GenerativeModel) error

// Gemini is a Gateway backed by the Gemini API.
type Gemini struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration

	send sendFunc
	ping pingFunc
}

// NewGemini dials the Gemini API with an API key. Every call made through
// the returned gateway is bounded by timeout.
func NewGemini(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: gemini api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: gemini client: %w", err)
	}
	return &Gemini{
		client:    cl,
		modelName: modelName,
		timeout:   timeout,
		send:      sendContent,
		ping:      countTokens,
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Complete implements Gateway.
func (g *Gemini) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	return g.generate(ctx, nil, prompt, cfg)
}

// CompleteChat implements Gateway. Prior turns are replayed as alternating
// user and model contents.
func (g *Gemini) CompleteChat(ctx context.Context, history []domain.ChatTurn, message string, cfg GenerationConfig) (string, error) {
	contents := make([]*genai.Content, 0, 2*len(history))
	for _, t := range history {
		contents = append(contents,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(t.UserInput)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(t.ModelReply)}},
		)
	}
	return g.generate(ctx, contents, message, cfg)
}

// Ping implements Gateway with a token count call, which is free of charge.
func (g *Gemini) Ping(ctx context.Context) error {
	ctx, cancel := g.withDeadline(ctx)
	defer cancel()
	if err := g.ping(ctx, g.model(GenerationConfig{})); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

func (g *Gemini) generate(ctx context.Context, history []*genai.Content, msg string, cfg GenerationConfig) (string, error) {
	ctx, cancel := g.withDeadline(ctx)
	defer cancel()

	resp, err := g.send(ctx, g.model(cfg), history, msg)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("%w: %v", ErrEmptyCompletion, err)
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// model builds a per-call model handle so concurrent calls never share
// mutable generation settings.
func (g *Gemini) model(cfg GenerationConfig) *genai.GenerativeModel {
	var m *genai.GenerativeModel
	if g.client != nil {
		m = g.client.GenerativeModel(g.modelName)
	} else {
		m = &genai.GenerativeModel{}
	}
	// Zero is a valid temperature and top-p, so both are always sent.
	m.SetTemperature(cfg.Temperature)
	m.SetTopP(cfg.TopP)
	if cfg.TopK > 0 {
		m.SetTopK(cfg.TopK)
	}
	if cfg.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}
	m.ResponseMIMEType = "text/plain"
	return m
}

func (g *Gemini) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func sendContent(ctx context.Context, m *genai.GenerativeModel, history []*genai.Content, msg string) (*genai.GenerateContentResponse, error) {
	if len(history) == 0 {
		return m.GenerateContent(ctx, genai.Text(msg))
	}
	cs := m.StartChat()
	cs.History = history
	return cs.SendMessage(ctx, genai.Text(msg))
}

func countTokens(ctx context.Context, m *genai.GenerativeModel) error {
	_, err := m.CountTokens(ctx, genai.Text("ping"))
	return err
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var _ Gateway = (*Gemini)(nil)
