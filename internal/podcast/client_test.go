package podcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dgnsrekt/autocast/internal/i18n"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func chatReply(content string) string {
	b, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}],`+
		`"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		MaxRetries:  0,
		Translator:  i18n.NewTranslator(i18n.MustLoad(), "en"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrAPIKeyRequired) {
		t.Errorf("missing key error = %v", err)
	}
	for _, o := range []Options{
		{APIKey: "k", Temperature: -0.1, MaxTokens: 10},
		{APIKey: "k", Temperature: 2.5, MaxTokens: 10},
		{APIKey: "k", Temperature: 1, MaxTokens: 0},
		{APIKey: "k", Temperature: 1, MaxTokens: MaxMaxTokens + 1},
	} {
		if _, err := NewClient(o); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("NewClient(%+v) error = %v, want ErrInvalidParameter", o, err)
		}
	}

	c, err := NewClient(Options{APIKey: "k", Temperature: 0.7, MaxTokens: 10})
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != DefaultScriptModel {
		t.Errorf("default model = %q", c.Model())
	}
}

func TestGenerateScript(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatReply("  HOST: Welcome back.\n"))
	})

	script, err := c.GenerateScript(context.Background(), ScriptRequest{
		Text:     "Channels are typed conduits.",
		Language: "en",
		Template: "educational",
	})
	if err != nil {
		t.Fatal(err)
	}
	if script != "HOST: Welcome back." {
		t.Errorf("script = %q", script)
	}

	if got.Model != DefaultScriptModel || got.Temperature != DefaultTemperature || got.MaxTokens != DefaultMaxTokens {
		t.Errorf("request params = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.HasPrefix(got.Messages[0].Content, "You are an expert educational podcast scriptwriter.") {
		t.Errorf("system message = %q", got.Messages[0].Content)
	}
	if !strings.Contains(got.Messages[1].Content, "Channels are typed conduits.") {
		t.Errorf("user message = %q", got.Messages[1].Content)
	}
}

func TestGenerateScriptCustomPromptEmpty(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatReply("script"))
	})
	if _, err := c.GenerateScript(context.Background(), ScriptRequest{Text: "x", Template: "custom"}); err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("blank custom prompt should omit the system message, got %+v", got.Messages)
	}
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		message   string
		retryable bool
	}{
		{http.StatusUnauthorized, CodeAuth, "Authentication error. Check your API key.", false},
		{http.StatusTooManyRequests, CodeRateLimit, "Rate limit or quota exceeded.", true},
		{http.StatusInternalServerError, CodeUpstream, "API request failed with status 500", true},
		{http.StatusBadRequest, CodeUpstream, "API request failed with status 400", false},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			})

			_, err := c.GenerateScript(context.Background(), ScriptRequest{Text: "x"})
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error %v is not *Error", err)
			}
			if pe.Code != tc.code || pe.Message != tc.message || pe.Status != tc.status {
				t.Errorf("error = %+v", pe)
			}
			if pe.IsRetryable() != tc.retryable {
				t.Errorf("IsRetryable = %v, want %v", pe.IsRetryable(), tc.retryable)
			}
			if IsAuth(err) != (tc.code == CodeAuth) {
				t.Errorf("IsAuth = %v", IsAuth(err))
			}
		})
	}
}

func TestEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatReply("   "))
	})

	_, err := c.RefineScript(context.Background(), RefineRequest{Script: "HOST: hi", Feedback: "shorter"})
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}
	if !strings.Contains(err.Error(), "AI returned an empty refined script.") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRefineRequiresInput(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()
	if _, err := c.RefineScript(ctx, RefineRequest{Feedback: "x"}); !errors.Is(err, ErrScriptRequired) {
		t.Errorf("error = %v", err)
	}
	if _, err := c.RefineScript(ctx, RefineRequest{Script: "x", Feedback: " "}); !errors.Is(err, ErrFeedbackRequired) {
		t.Errorf("error = %v", err)
	}
	if _, err := c.GenerateScript(ctx, ScriptRequest{Text: "\n"}); !errors.Is(err, ErrTextRequired) {
		t.Errorf("error = %v", err)
	}
}

func TestPrepareText(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatReply("the summary"))
	})
	ctx := context.Background()
	files := []File{{Name: "a.md", Content: "A"}, {Name: "b.txt", Content: "B"}}

	text, err := c.PrepareText(ctx, files[:1], true, "en")
	if err != nil || text != "--- a.md ---\nA" {
		t.Errorf("single file = %q, %v", text, err)
	}
	text, err = c.PrepareText(ctx, files, false, "en")
	if err != nil || text != "--- a.md ---\nA\n\n--- b.txt ---\nB" {
		t.Errorf("combined = %q, %v", text, err)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("unexpected %d API calls", n)
	}

	text, err = c.PrepareText(ctx, files, true, "en")
	if err != nil || text != "the summary" {
		t.Errorf("summarized = %q, %v", text, err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("API calls = %d, want 1", n)
	}
}

func TestTestConnection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[`+
			`{"id":"gpt-4o","object":"model","created":1,"owned_by":"openai"},`+
			`{"id":"tts-1","object":"model","created":1,"owned_by":"openai"}]}`)
	})

	ids, err := c.TestConnection(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids, ",") != "gpt-4o,tts-1" {
		t.Errorf("ids = %v", ids)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatReply("late"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, "generate", "", "x")
	var pe *Error
	if !errors.As(err, &pe) || pe.Code != CodeCanceled {
		t.Errorf("error = %v, want canceled", err)
	}
}
