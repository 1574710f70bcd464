package ai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeChatClient struct {
	lastReq openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestOpenAIClient_Complete(t *testing.T) {
	fake := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "  Sure thing!  "},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
	}}
	client := newOpenAIClient(fake, "")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{"be brief", " "},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hello"}},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Sure thing!" {
		t.Fatalf("text = %q", resp.Text)
	}
	if resp.StopReason != "stop" || resp.Usage.TotalTokens != 16 {
		t.Fatalf("unexpected response metadata: %+v", resp)
	}
	if fake.lastReq.Model != DefaultOpenAIModel {
		t.Fatalf("model = %q", fake.lastReq.Model)
	}
	if len(fake.lastReq.Messages) != 2 || fake.lastReq.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected messages: %+v", fake.lastReq.Messages)
	}
	if fake.lastReq.Temperature != 0.7 {
		t.Fatalf("temperature = %v", fake.lastReq.Temperature)
	}
}

func TestOpenAIClient_RequestModelOverrides(t *testing.T) {
	fake := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
	}}
	client := newOpenAIClient(fake, "gpt-4o")
	if _, err := client.Complete(context.Background(), LLMRequest{Model: "gpt-4.1", Temperature: -1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.lastReq.Model != "gpt-4.1" {
		t.Fatalf("model = %q", fake.lastReq.Model)
	}
	if fake.lastReq.Temperature != 0 {
		t.Fatalf("negative temperature should leave provider default, got %v", fake.lastReq.Temperature)
	}
}

func TestOpenAIClient_Errors(t *testing.T) {
	client := newOpenAIClient(&fakeChatClient{err: errors.New("rate limited")}, "")
	if _, err := client.Complete(context.Background(), LLMRequest{}); err == nil {
		t.Fatal("expected error")
	}

	client = newOpenAIClient(&fakeChatClient{}, "")
	if _, err := client.Complete(context.Background(), LLMRequest{}); err == nil {
		t.Fatal("expected error for empty choices")
	}

	if _, err := NewOpenAIClient(" ", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
