package ai

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveAIReply(_ string, result string, _ time.Duration) {
	o.results = append(o.results, result)
}

func newTestResponder(t *testing.T, reg *Registry, obs Observer) *Responder {
	t.Helper()
	return NewResponder(reg, "openai", logging.NewWithWriter(io.Discard, "error"), WithObserver(obs), WithTimeout(time.Second))
}

func TestResponder_Success(t *testing.T) {
	llm := &stubLLM{text: "Happy to help!"}
	reg := NewRegistry()
	reg.Register(ProviderOpenAI, llm)
	obs := &recordingObserver{}

	reply := newTestResponder(t, reg, obs).Generate(context.Background(), Request{
		Message:      "do you take walk-ins?",
		SystemPrompt: "You are a front desk assistant.",
	})

	assert.Equal(t, "Happy to help!", reply.Text)
	assert.Equal(t, SuccessConfidence, reply.Confidence)
	assert.Equal(t, ProviderOpenAI, reply.Provider)
	assert.Equal(t, DefaultTemperature, llm.last.Temperature)
	require.Len(t, llm.last.System, 1)
	require.Len(t, llm.last.Messages, 1)
	assert.Equal(t, "do you take walk-ins?", llm.last.Messages[0].Content)
	assert.Equal(t, []string{"ok"}, obs.results)
}

func TestResponder_TenantOverrides(t *testing.T) {
	llm := &stubLLM{text: "hola"}
	reg := NewRegistry()
	reg.Register(ProviderGemini, llm)
	temp := float32(0.2)

	reply := newTestResponder(t, reg, nil).Generate(context.Background(), Request{
		Message:     "hi",
		Provider:    "Gemini",
		Model:       "gemini-2.0-pro",
		Temperature: &temp,
	})

	assert.Equal(t, ProviderGemini, reply.Provider)
	assert.Equal(t, float32(0.2), llm.last.Temperature)
	assert.Equal(t, "gemini-2.0-pro", llm.last.Model)
	assert.Empty(t, llm.last.System)
}

func TestResponder_UnsupportedProvider(t *testing.T) {
	obs := &recordingObserver{}
	reply := newTestResponder(t, NewRegistry(), obs).Generate(context.Background(), Request{Message: "hi", Provider: "cohere"})

	assert.Equal(t, UnsupportedReply, reply.Text)
	assert.Zero(t, reply.Confidence)
	assert.Equal(t, []string{"unsupported"}, obs.results)
}

func TestResponder_ProviderError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ProviderOpenAI, &stubLLM{err: errors.New("quota exceeded")})

	reply := newTestResponder(t, reg, nil).Generate(context.Background(), Request{Message: "hi"})

	assert.Equal(t, "[AI Error]: quota exceeded", reply.Text)
	assert.Zero(t, reply.Confidence)
}

func TestResponder_KnownButUnconfigured(t *testing.T) {
	reply := newTestResponder(t, NewRegistry(), nil).Generate(context.Background(), Request{Message: "hi", Provider: "bedrock"})

	assert.Equal(t, "[AI Error]: bedrock is not configured", reply.Text)
	assert.Zero(t, reply.Confidence)
}

func TestResponder_EmptyTextIsError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ProviderOpenAI, &stubLLM{text: "   "})

	reply := newTestResponder(t, reg, nil).Generate(context.Background(), Request{Message: "hi"})
	assert.Equal(t, "[AI Error]: empty response", reply.Text)
}

type panicLLM struct{}

func (panicLLM) Complete(context.Context, LLMRequest) (LLMResponse, error) { panic("boom") }

func TestResponder_RecoversFromPanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ProviderOpenAI, panicLLM{})

	reply := newTestResponder(t, reg, nil).Generate(context.Background(), Request{Message: "hi"})
	assert.Equal(t, "[AI Error]: provider panic: boom", reply.Text)
	assert.Zero(t, reply.Confidence)
}
