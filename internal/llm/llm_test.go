package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/shaiso/Surfer/internal/domain"
)

func TestResolve_AllProviders(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")

	for _, p := range domain.Providers() {
		t.Run(p.String(), func(t *testing.T) {
			model := p.DefaultModel()
			c := NewFactory().Resolve(context.Background(), domain.LLMConfig{
				Provider: p.String(),
				Model:    model,
				APIKey:   "sk-test-key",
			})
			require.NotNil(t, c)
			assert.Equal(t, p, c.Provider())
			assert.Equal(t, model, c.Model())
			_, failed := c.(*failedChat)
			assert.False(t, failed, "adapter for %s should be constructed", p)
		})
	}
}

func TestResolve_UnknownProviderFallsBackToOpenAI(t *testing.T) {
	for _, name := range []string{"", "mistral-cloud", "  OPENAI  "} {
		c := NewFactory().Resolve(context.Background(), domain.LLMConfig{Provider: name, APIKey: "k"})
		require.NotNil(t, c)
		assert.Equal(t, domain.ProviderOpenAI, c.Provider(), "provider %q", name)
		assert.Equal(t, "gpt-4o", c.Model())
	}
}

func TestResolve_MissingKeyDefersError(t *testing.T) {
	c := NewFactory().Resolve(context.Background(), domain.LLMConfig{Provider: "anthropic", Model: "claude-3-haiku-20240307"})
	require.NotNil(t, c)
	assert.Equal(t, domain.ProviderAnthropic, c.Provider())

	_, err := c.Chat(context.Background(), []Message{User("hi")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConstruction))
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestResolve_OllamaWithoutKey(t *testing.T) {
	c := NewFactory().Resolve(context.Background(), domain.LLMConfig{Provider: "ollama", Endpoint: "http://localhost:11434"})
	_, failed := c.(*failedChat)
	assert.False(t, failed)
	assert.Equal(t, "qwen2.5", c.Model())
}

func TestResolve_AzureWithoutEndpoint(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")

	c := NewFactory().Resolve(context.Background(), domain.LLMConfig{Provider: "azure", APIKey: "k"})
	_, err := c.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	assert.ErrorIs(t, err, ErrConstruction)
}

func TestModels(t *testing.T) {
	assert.Equal(t, []string{"deepseek-chat", "deepseek-reasoner"}, Models("deepseek"))
	assert.Equal(t, domain.ProviderOpenAI.Models(), Models("unknown"))
}

// --- langchaingo adapter ---

type fakeModel struct {
	got  []llms.MessageContent
	resp *llms.ContentResponse
	err  error
}

func (f *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.got = msgs
	return f.resp, f.err
}

func (f *fakeModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestLangchainChat_MapsRoles(t *testing.T) {
	fm := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "answer"}}}}
	c := &langchainChat{provider: domain.ProviderOpenAI, model: "gpt-4o", llm: fm}

	out, err := c.Chat(context.Background(), []Message{System("sys"), User("q"), Assistant("a")})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	require.Len(t, fm.got, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, fm.got[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fm.got[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, fm.got[2].Role)
}

func TestLangchainChat_EmptyResponse(t *testing.T) {
	c := &langchainChat{provider: domain.ProviderOllama, llm: &fakeModel{resp: &llms.ContentResponse{}}}

	_, err := c.Chat(context.Background(), []Message{User("q")})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestLangchainChat_ProviderError(t *testing.T) {
	c := &langchainChat{provider: domain.ProviderOpenAI, llm: &fakeModel{err: errors.New("rate limited")}}

	_, err := c.Chat(context.Background(), []Message{User("q")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

// --- HTTP round trips ---

func chatCompletionServer(t *testing.T, content string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = r.URL.Path + " " + string(body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompatible_RoundTrip(t *testing.T) {
	var seen string
	srv := chatCompletionServer(t, "Example Domain", &seen)

	c, err := newOpenAICompatible(domain.ProviderDeepSeek, domain.LLMConfig{Model: "deepseek-chat", APIKey: "k"}, srv.URL)
	require.NoError(t, err)

	out, err := c.Chat(context.Background(), []Message{User("title?")})
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", out)
	assert.True(t, strings.HasSuffix(strings.Fields(seen)[0], "/chat/completions"))
	assert.Contains(t, seen, "deepseek-chat")
}

func TestAzure_RoundTrip(t *testing.T) {
	var seen string
	srv := chatCompletionServer(t, "ok", &seen)

	c, err := buildAzure(context.Background(), domain.LLMConfig{Model: "gpt-4o", APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	out, err := c.Chat(context.Background(), []Message{System("s"), User("u")})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Contains(t, seen, "/openai/deployments/gpt-4o/chat/completions")
}
