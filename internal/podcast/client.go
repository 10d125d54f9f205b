package podcast

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// Parameter bounds accepted by the completion API.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MaxMaxTokens   = 16384
)

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string // endpoint URL; normalized with BaseURL

	Model       string
	Temperature float64
	MaxTokens   int

	MaxRetries        int
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables throttling

	HTTPClient *http.Client
	Translator i18n.Translator
}

// Validate checks the generation parameters.
func (o Options) Validate() error {
	if o.Temperature < MinTemperature || o.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature must be between %.1f and %.1f, got %.2f",
			ErrInvalidParameter, MinTemperature, MaxTemperature, o.Temperature)
	}
	if o.MaxTokens < 1 || o.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max tokens must be between 1 and %d, got %d",
			ErrInvalidParameter, MaxMaxTokens, o.MaxTokens)
	}
	return nil
}

// NewOpenAI builds an API client for an OpenAI-compatible endpoint.
func NewOpenAI(o Options) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithBaseURL(BaseURL(o.BaseURL)),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(o.Timeout))
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}
	return openai.NewClient(opts...)
}

// NewLimiter returns a limiter allowing rpm requests per minute. A
// non-positive rpm never blocks.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// Client generates, summarizes and refines podcast scripts.
type Client struct {
	api     openai.Client
	opts    Options
	limiter *rate.Limiter
}

// NewClient validates opts and returns a client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if opts.Model == "" {
		opts.Model = DefaultScriptModel
	}
	if opts.BaseURL == "" {
		e, _ := LookupEndpoint(DefaultEndpoint)
		opts.BaseURL = e.URL
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		api:     NewOpenAI(opts),
		opts:    opts,
		limiter: NewLimiter(opts.RequestsPerMinute),
	}, nil
}

// Model returns the chat model in use.
func (c *Client) Model() string { return c.opts.Model }

// Complete sends one chat completion and returns the trimmed reply. An
// empty system prompt is omitted.
func (c *Client) Complete(ctx context.Context, op, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", WrapAPIError(op, err)
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(user))

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.opts.Model),
		Messages:    msgs,
		Temperature: openai.Float(c.opts.Temperature),
		MaxTokens:   openai.Int(int64(c.opts.MaxTokens)),
	})
	if err != nil {
		log.Debug("completion failed", "op", op, "model", c.opts.Model, "error", err)
		return "", WrapAPIError(op, err)
	}

	log.Debug("completion finished",
		"op", op,
		"model", c.opts.Model,
		"duration", time.Since(start).Round(time.Millisecond),
		"tokens", resp.Usage.TotalTokens,
	)
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Summarize condenses combined documents into one text in lang.
func (c *Client) Summarize(ctx context.Context, lang, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrTextRequired
	}
	out, err := c.Complete(ctx, "summarize", "", SummarizePrompt(lang, text))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", emptyResult("summarize", "summary")
	}
	return out, nil
}

// GenerateScript turns req.Text into a podcast script.
func (c *Client) GenerateScript(ctx context.Context, req ScriptRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", ErrTextRequired
	}
	system := SystemPrompt(c.opts.Translator, req.Template, req.CustomPrompt)
	out, err := c.Complete(ctx, "generate", system, ScriptPrompt(req))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", emptyResult("generate", "script")
	}
	return out, nil
}

// RefineRequest describes a refinement pass over an existing script.
type RefineRequest struct {
	Script       string
	Feedback     string
	Language     string
	Template     string
	CustomPrompt string
}

// RefineScript rewrites a script according to user feedback.
func (c *Client) RefineScript(ctx context.Context, req RefineRequest) (string, error) {
	if strings.TrimSpace(req.Script) == "" {
		return "", ErrScriptRequired
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return "", ErrFeedbackRequired
	}
	system := SystemPrompt(c.opts.Translator, req.Template, req.CustomPrompt)
	out, err := c.Complete(ctx, "refine", system, RefinePrompt(req.Language, req.Script, req.Feedback))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", emptyResult("refine", "refined script")
	}
	return out, nil
}

// PrepareText combines input files into the text a script is generated
// from. With more than one file and summarize set, the combination is
// summarized first.
func (c *Client) PrepareText(ctx context.Context, files []File, summarize bool, lang string) (string, error) {
	if len(files) == 0 {
		return "", ErrTextRequired
	}
	text := Combine(files)
	if len(files) < 2 || !summarize {
		return text, nil
	}
	log.Info("Summarizing content", "files", len(files))
	return c.Summarize(ctx, lang, text)
}

// TestConnection lists the models on the endpoint and returns their IDs.
func (c *Client) TestConnection(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, WrapAPIError("models", err)
	}
	page, err := c.api.Models.List(ctx)
	if err != nil {
		return nil, WrapAPIError("models", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
