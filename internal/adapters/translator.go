package adapters

import (
	"context"
	"strings"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	"github.com/iamwavecut/groupguard/internal/adapters/llm"
	"github.com/iamwavecut/groupguard/internal/i18n"
)

const translatePrompt = `You are a translator for a group chat. Translate the user's message into {{ .language }}.
Keep names, links, @handles and emoji unchanged. Reply with the translation only, without quotes or comments.`

var ErrEmptyTranslation = errors.New("empty translation")

// Translator turns chat messages into another language through an LLM.
type Translator struct {
	llm LLM
}

func NewTranslator(model LLM) *Translator {
	return &Translator{llm: model}
}

func (t *Translator) Translate(ctx context.Context, text, lang string) (string, error) {
	messages := []llm.ChatCompletionMessage{
		{
			Role: llm.RoleSystem,
			Content: tool.ExecTemplate(translatePrompt, map[string]any{
				"language": i18n.GetLanguageName(lang),
			}),
		},
		{Role: llm.RoleUser, Content: text},
	}

	resp, err := t.llm.ChatCompletion(ctx, messages)
	if err != nil {
		return "", errors.WithMessage(err, "chat completion")
	}
	translation := strings.TrimSpace(resp.Content())
	if translation == "" {
		return "", ErrEmptyTranslation
	}
	return translation, nil
}
