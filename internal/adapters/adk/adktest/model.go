// Package adktest provides a scripted ADK model for tests that drive agents
// without a real LLM backend.
package adktest

import (
	"context"
	"iter"
	"strings"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Rule answers requests whose system instruction contains Match
type Rule struct {
	Match string
	Text  string
	Err   error
}

// Model replies with fixed text chosen by the system instruction of each request
type Model struct {
	name     string
	rules    []Rule
	fallback string

	// Usage reported on every response
	InputTokens  int32
	OutputTokens int32

	mu       sync.Mutex
	requests []*model.LLMRequest
}

// NewModel creates a scripted model replying fallback when no rule matches
func NewModel(name, fallback string, rules ...Rule) *Model {
	return &Model{name: name, fallback: fallback, rules: rules}
}

func (m *Model) Name() string { return m.name }

// GenerateContent implements model.LLM
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		m.mu.Lock()
		m.requests = append(m.requests, req)
		m.mu.Unlock()

		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		text := m.fallback
		instruction := SystemInstruction(req)
		for _, r := range m.rules {
			if strings.Contains(instruction, r.Match) {
				if r.Err != nil {
					yield(nil, r.Err)
					return
				}
				text = r.Text
				break
			}
		}

		yield(&model.LLMResponse{
			Content: genai.NewContentFromText(text, genai.RoleModel),
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     m.InputTokens,
				CandidatesTokenCount: m.OutputTokens,
				TotalTokenCount:      m.InputTokens + m.OutputTokens,
			},
			TurnComplete: true,
		}, nil)
	}
}

// Requests returns the requests seen so far
func (m *Model) Requests() []*model.LLMRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.LLMRequest(nil), m.requests...)
}

// SystemInstruction concatenates the text parts of a request's system instruction
func SystemInstruction(req *model.LLMRequest) string {
	if req == nil || req.Config == nil || req.Config.SystemInstruction == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range req.Config.SystemInstruction.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

var _ model.LLM = (*Model)(nil)
