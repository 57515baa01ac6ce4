package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iamwavecut/groupguard/internal/adapters/llm"
)

type fakeLLM struct {
	got   []llm.ChatCompletionMessage
	reply string
	err   error
}

func (f *fakeLLM) ChatCompletion(_ context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	f.got = messages
	if f.err != nil {
		return llm.ChatCompletionResponse{}, f.err
	}
	return llm.ChatCompletionResponse{Choices: []llm.ChatCompletionChoice{
		{Message: llm.ChatCompletionMessage{Role: llm.RoleAssistant, Content: f.reply}},
	}}, nil
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	model := &fakeLLM{reply: "  Привет  \n"}
	got, err := NewTranslator(model).Translate(context.Background(), "Hello", "ru")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Привет" {
		t.Fatalf("translation = %q", got)
	}
	if len(model.got) != 2 || model.got[0].Role != llm.RoleSystem {
		t.Fatalf("unexpected messages %+v", model.got)
	}
	if !strings.Contains(model.got[0].Content, "Russian") {
		t.Fatalf("prompt does not name the language: %q", model.got[0].Content)
	}
	if model.got[1].Content != "Hello" {
		t.Fatalf("user message = %q", model.got[1].Content)
	}
}

func TestTranslateEmpty(t *testing.T) {
	t.Parallel()

	_, err := NewTranslator(&fakeLLM{reply: " "}).Translate(context.Background(), "Hello", "de")
	if !errors.Is(err, ErrEmptyTranslation) {
		t.Fatalf("err = %v, want ErrEmptyTranslation", err)
	}
}

func TestNewUnknownType(t *testing.T) {
	t.Parallel()

	if _, err := New("nope", "key", "", "", nil); err == nil {
		t.Fatalf("expected an error for an unknown backend")
	}
}
