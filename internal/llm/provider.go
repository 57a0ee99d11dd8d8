package llm

import (
    "context"
    "net/http"
    "strings"

    openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface the scorer needs to call a chat model.
// It mirrors CreateChatCompletion so any OpenAI-compatible backend fits.
type Client interface {
    CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability used to validate credentials.
type ModelLister interface {
    ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
    Inner *openai.Client
}

// NewOpenAIProvider builds a provider for apiKey. An empty baseURL keeps the
// public OpenAI endpoint.
func NewOpenAIProvider(apiKey, baseURL string, httpClient *http.Client) *OpenAIProvider {
    cfg := openai.DefaultConfig(apiKey)
    if strings.TrimSpace(baseURL) != "" {
        cfg.BaseURL = baseURL
    }
    if httpClient != nil {
        cfg.HTTPClient = httpClient
    }
    return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
    return p.Inner.ListModels(ctx)
}

// LooksLikeOpenAIKey reports whether key has the public OpenAI "sk-" shape.
// Keys for self-hosted endpoints are not required to match.
func LooksLikeOpenAIKey(key string) bool {
    return strings.HasPrefix(strings.TrimSpace(key), "sk-")
}

// ValidateKey reports whether the provider accepts its credentials by
// listing models. Network and auth failures both count as invalid.
func ValidateKey(ctx context.Context, lister ModelLister) bool {
    if lister == nil {
        return false
    }
    _, err := lister.ListModels(ctx)
    return err == nil
}
