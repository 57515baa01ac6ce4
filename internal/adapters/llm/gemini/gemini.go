package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/iamwavecut/groupguard/internal/adapters"
	"github.com/iamwavecut/groupguard/internal/adapters/llm"
)

type API struct {
	mu     sync.Mutex
	client *genai.Client
	model  *genai.GenerativeModel
	logger *log.Entry
}

const DefaultModel = "gemini-2.5-flash-lite"

// Factory is the adapters.Factory for Gemini. baseURL is ignored.
func Factory(apiKey, model, _ string, logger *log.Entry) (adapters.LLM, error) {
	return NewGemini(context.Background(), apiKey, model, logger)
}

func NewGemini(ctx context.Context, apiKey, model string, logger *log.Entry) (*API, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	if logger == nil {
		logger = log.WithField("object", "gemini")
	}
	api := &API{
		client: client,
		logger: logger,
	}
	api.WithModel(model)
	return api, nil
}

func (g *API) WithModel(modelName string) *API {
	if modelName == "" {
		modelName = DefaultModel
	}
	g.model = g.client.GenerativeModel(modelName)
	g.WithSafetySettings(nil)
	g.WithParameters(nil)
	return g
}

func (g *API) WithParameters(parameters *llm.GenerationParameters) *API {
	if parameters == nil {
		parameters = &llm.GenerationParameters{
			Temperature:      0.2,
			TopK:             40,
			TopP:             0.95,
			MaxOutputTokens:  2048,
			ResponseMIMEType: "text/plain",
		}
	}

	g.model.SetTemperature(parameters.Temperature)
	g.model.SetTopK(parameters.TopK)
	g.model.SetTopP(parameters.TopP)
	g.model.SetMaxOutputTokens(parameters.MaxOutputTokens)
	g.model.ResponseMIMEType = parameters.ResponseMIMEType

	return g
}

// WithSafetySettings relaxes blocking for the categories chat messages commonly trip, since the
// model only translates text users already posted.
func (g *API) WithSafetySettings(safetySettings []*genai.SafetySetting) *API {
	if len(safetySettings) == 0 {
		for _, category := range []genai.HarmCategory{
			genai.HarmCategoryDangerousContent,
			genai.HarmCategoryHarassment,
			genai.HarmCategoryHateSpeech,
			genai.HarmCategorySexuallyExplicit,
		} {
			safetySettings = append(safetySettings, &genai.SafetySetting{
				Category:  category,
				Threshold: genai.HarmBlockNone,
			})
		}
	}
	g.model.SafetySettings = safetySettings
	return g
}

func (g *API) ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	if len(messages) == 0 {
		return llm.ChatCompletionResponse{}, errors.New("no messages")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	session := g.model.StartChat()
	session.History = []*genai.Content{}

	lastMessage, history := messages[len(messages)-1], messages[:len(messages)-1]

	backupInstruction := g.model.SystemInstruction
	defer func() { g.model.SystemInstruction = backupInstruction }()

	for _, message := range history {
		switch message.Role {
		case llm.RoleSystem:
			g.model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(message.Content)},
			}
		case llm.RoleAssistant:
			session.History = append(session.History, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(message.Content)},
			})
		default:
			session.History = append(session.History, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(message.Content)},
			})
		}
	}

	resp, err := session.SendMessage(ctx, genai.Text(lastMessage.Content))
	if err != nil {
		g.logger.WithField("error", err.Error()).Debug("send message failed")
		return llm.ChatCompletionResponse{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.ChatCompletionResponse{}, nil
	}

	var response strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		fmt.Fprintf(&response, "%v", part)
	}

	return llm.ChatCompletionResponse{
		Choices: []llm.ChatCompletionChoice{{Message: llm.ChatCompletionMessage{
			Role:    llm.RoleAssistant,
			Content: response.String(),
		}}},
	}, nil
}

func (g *API) Close() error {
	return g.client.Close()
}
