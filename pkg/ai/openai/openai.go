package openai

import (
	"sync"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient talks to any OpenAI-compatible chat completion API
// (OpenAI, SiliconFlow, vLLM, ...). It is used for intent classification and
// answer synthesis.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel   string
	intentModel string

	chatURL string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for creating
// a new GraphOpenAIClient.
//
// ChatModel is used for answer synthesis, IntentModel for intent
// classification and defaults to ChatModel. ChatURL and ChatKey configure the
// API endpoint; an empty ChatURL means the official OpenAI endpoint.
type NewGraphOpenAIClientParams struct {
	ChatModel   string
	IntentModel string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIClient creates a client from the given parameters. It returns
// nil when no API key is configured, which callers treat as "no model".
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ChatModel: "Qwen/Qwen2.5-7B-Instruct",
//		ChatURL:   "https://api.siliconflow.cn/v1",
//		ChatKey:   os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	if chatClient == nil {
		return nil
	}

	intentModel := params.IntentModel
	if intentModel == "" {
		intentModel = params.ChatModel
	}

	return &GraphOpenAIClient{
		chatModel:   params.ChatModel,
		intentModel: intentModel,
		chatURL:     params.ChatURL,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
