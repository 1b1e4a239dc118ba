package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/user/jarvisfi-go/httpclient"
)

// Generator produces a response for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion is returned when a provider answers without text.
var ErrEmptyCompletion = errors.New("provider returned no text")

const (
	maxNewTokens = 500
	temperature  = 0.7
)

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *httpclient.Client
}

// NewOpenAIGenerator creates a generator for baseURL, e.g.
// https://api.openai.com/v1.
func NewOpenAIGenerator(baseURL, apiKey, model string, client *httpclient.Client) *OpenAIGenerator {
	return &OpenAIGenerator{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model, client: client}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body := chatCompletionRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxNewTokens,
		Temperature: temperature,
	}
	var resp chatCompletionResponse
	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}
	if err := g.client.PostJSON(ctx, g.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// WatsonxConfig locates a watsonx.ai project.
type WatsonxConfig struct {
	URL       string // e.g. https://us-south.ml.cloud.ibm.com
	IAMURL    string // token endpoint, default https://iam.cloud.ibm.com/identity/token
	APIKey    string
	ProjectID string
	ModelID   string // default meta-llama/llama-2-70b-chat
}

// WatsonxGenerator calls the watsonx.ai text generation endpoint. It
// exchanges the API key for an IAM bearer token and reuses it until shortly
// before expiry.
type WatsonxGenerator struct {
	cfg    WatsonxConfig
	client *httpclient.Client
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewWatsonxGenerator creates a watsonx.ai generator.
func NewWatsonxGenerator(cfg WatsonxConfig, client *httpclient.Client) *WatsonxGenerator {
	if cfg.URL == "" {
		cfg.URL = "https://us-south.ml.cloud.ibm.com"
	}
	if cfg.IAMURL == "" {
		cfg.IAMURL = "https://iam.cloud.ibm.com/identity/token"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "meta-llama/llama-2-70b-chat"
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &WatsonxGenerator{cfg: cfg, client: client, now: time.Now}
}

func (g *WatsonxGenerator) Name() string { return "watsonx" }

type iamToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (g *WatsonxGenerator) bearer(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" && g.now().Before(g.expires) {
		return g.token, nil
	}

	form := url.Values{
		"grant_type": {"urn:ibm:params:oauth:grant-type:apikey"},
		"apikey":     {g.cfg.APIKey},
	}.Encode()
	var tok iamToken
	err := g.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.IAMURL, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &tok)
	if err != nil {
		return "", fmt.Errorf("iam token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("iam token: empty access token")
	}
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	g.token = tok.AccessToken
	g.expires = g.now().Add(ttl - time.Minute)
	return g.token, nil
}

type watsonxRequest struct {
	ModelID    string            `json:"model_id"`
	Input      string            `json:"input"`
	ProjectID  string            `json:"project_id"`
	Parameters watsonxParameters `json:"parameters"`
}

type watsonxParameters struct {
	DecodingMethod string  `json:"decoding_method"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
}

type watsonxResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

func (g *WatsonxGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	token, err := g.bearer(ctx)
	if err != nil {
		return "", err
	}
	body := watsonxRequest{
		ModelID:   g.cfg.ModelID,
		Input:     prompt,
		ProjectID: g.cfg.ProjectID,
		Parameters: watsonxParameters{
			DecodingMethod: "greedy",
			MaxNewTokens:   maxNewTokens,
			Temperature:    temperature,
			TopP:           0.9,
		},
	}
	var resp watsonxResponse
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := g.client.PostJSON(ctx, g.cfg.URL+"/ml/v1/text/generation?version=2023-05-29", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 || strings.TrimSpace(resp.Results[0].GeneratedText) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Results[0].GeneratedText), nil
}
