package podcast

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/autocast/internal/i18n"
)

func TestLanguageInstruction(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"en", "The podcast script MUST be written entirely in English."},
		{"fa", "The podcast script MUST be written entirely in Persian (Farsi)."},
		{"ar", "The podcast script MUST be written entirely in Arabic."},
		{"", "The podcast script MUST be written entirely in English."},
	}
	for _, tc := range tests {
		if got := LanguageInstruction("podcast script", tc.lang); got != tc.want {
			t.Errorf("LanguageInstruction(%q) = %q, want %q", tc.lang, got, tc.want)
		}
	}
}

func TestFrameworkInstructions(t *testing.T) {
	got := FrameworkInstructions(
		[]string{"purpose_audience", "branding_identity", "missing"},
		map[string]string{"branding_identity": "call it Deep Dive"},
		"keep it under ten minutes",
	)

	want := "Consider the following podcast structure guidelines:\n" +
		"- Define Your Purpose & Audience: " + Framework[0].Description + "\n" +
		"- Branding & Identity: " + Framework[3].Description + "\n" +
		"  User's specific requirements: call it Deep Dive\n" +
		"\n" +
		"Additional structuring notes: keep it under ten minutes\n"
	if got != want {
		t.Errorf("FrameworkInstructions =\n%s\nwant\n%s", got, want)
	}

	if got := FrameworkInstructions(nil, nil, ""); got != "" {
		t.Errorf("empty selection produced %q", got)
	}
}

func TestScriptPrompt(t *testing.T) {
	p := ScriptPrompt(ScriptRequest{
		Text:     "Go 1.23 adds range-over-func.",
		Language: "fa",
		Points:   []string{"episode_structure"},
	})

	for _, want := range []string{
		"conversational podcast script in Persian.\n",
		"The podcast script MUST be written entirely in Persian (Farsi).\n",
		"- Episode Structure & Format: ",
		"Original Text:\n---\nGo 1.23 adds range-over-func.\n---\nPodcast Script:",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("script prompt missing %q:\n%s", want, p)
		}
	}
}

func TestRefinePrompt(t *testing.T) {
	p := RefinePrompt("ar", "HOST: hi", "make it shorter")
	for _, want := range []string{
		"The refined podcast script MUST be written entirely in Arabic.",
		"Original Script:\n---\nHOST: hi\n---",
		"User Feedback for Refinement:\n---\nmake it shorter\n---\nRefined Podcast Script:",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("refine prompt missing %q:\n%s", want, p)
		}
	}
}

func TestSummarizePrompt(t *testing.T) {
	p := SummarizePrompt("en", "--- a.md ---\nA")
	if !strings.Contains(p, "The summary MUST be written entirely in English.") {
		t.Error("summary prompt missing language instruction")
	}
	if !strings.HasSuffix(p, "---\n--- a.md ---\nA\n---\n\nComprehensive Summary:") {
		t.Errorf("unexpected summary prompt tail:\n%s", p)
	}
}

func TestSystemPrompt(t *testing.T) {
	d, err := i18n.Load()
	if err != nil {
		t.Fatal(err)
	}
	en := i18n.NewTranslator(d, "en")
	fa := i18n.NewTranslator(d, "fa")

	if got := SystemPrompt(en, "educational", ""); !strings.HasPrefix(got, "You are an expert educational podcast scriptwriter.") {
		t.Errorf("educational prompt = %q", got)
	}
	if got := SystemPrompt(en, "", ""); !strings.HasPrefix(got, "You are an expert podcast scriptwriter.") {
		t.Errorf("default prompt = %q", got)
	}
	if got := SystemPrompt(fa, "default", ""); strings.HasPrefix(got, "You are") || got == "" {
		t.Errorf("fa default prompt not localized: %q", got)
	}
	if got := SystemPrompt(en, "custom", "  Be brief.  "); got != "Be brief." {
		t.Errorf("custom prompt = %q", got)
	}
	if got := SystemPrompt(en, "nonexistent", ""); got != "" {
		t.Errorf("unknown template prompt = %q, want empty", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		fn      func(string) (string, error)
		in      string
		want    string
		wantErr bool
	}{
		{ResolveVoice, "nova", "nova", false},
		{ResolveVoice, "NOVA", "nova", false},
		{ResolveVoice, "sh", "shimmer", false},
		{ResolveVoice, "onx", "onyx", false},
		{ResolveVoice, "zzz", "", true},
		{ResolveVoice, "", "", true},
		{ResolveTTSModel, "hd", "tts-1-hd", false},
		{ResolveTTSModel, "standard", "tts-1", false},
		{ResolveTTSModel, "tts-1", "tts-1", false},
		{ResolveTemplate, "story", "storytelling", false},
		{ResolveTemplate, "custom", "custom", false},
	}
	for _, tc := range tests {
		got, err := tc.fn(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("resolve(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if tc.wantErr && !errors.Is(err, ErrUnknownOption) {
			t.Errorf("resolve(%q) error = %v, want ErrUnknownOption", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("resolve(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got := ResolveScriptModel("GPT-4o"); got != "gpt-4o" {
		t.Errorf("ResolveScriptModel = %q", got)
	}
	if got := ResolveScriptModel("llama-3.1-70b"); got != "llama-3.1-70b" {
		t.Errorf("custom model not passed through: %q", got)
	}
}

func TestResolveEndpoint(t *testing.T) {
	e, err := ResolveEndpoint("openrouter", "")
	if err != nil || e.URL != "https://openrouter.ai/api" {
		t.Fatalf("openrouter = %+v, %v", e, err)
	}

	if _, err := ResolveEndpoint("aws", ""); !errors.Is(err, ErrEndpointPlaceholder) {
		t.Errorf("aws error = %v, want ErrEndpointPlaceholder", err)
	}
	e, err = ResolveEndpoint("azure", "https://mine.openai.azure.com")
	if err != nil || e.URL != "https://mine.openai.azure.com" {
		t.Errorf("azure with URL = %+v, %v", e, err)
	}

	if _, err := ResolveEndpoint("custom", ""); !errors.Is(err, ErrEndpointURLRequired) {
		t.Errorf("custom error = %v, want ErrEndpointURLRequired", err)
	}
	if e, err := ResolveEndpoint("http://localhost:11434", ""); err != nil || e.ID != "custom" {
		t.Errorf("bare URL = %+v, %v", e, err)
	}
	if _, err := ResolveEndpoint("nowhere", ""); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("unknown endpoint error = %v", err)
	}
}

func TestBaseURL(t *testing.T) {
	for in, want := range map[string]string{
		"https://api.openai.com":      "https://api.openai.com/v1/",
		"https://api.openai.com/":     "https://api.openai.com/v1/",
		"https://api.openai.com/v1":   "https://api.openai.com/v1/",
		"https://openrouter.ai/api/":  "https://openrouter.ai/api/v1/",
		" http://localhost:8080/v1/ ": "http://localhost:8080/v1/",
	} {
		if got := BaseURL(in); got != want {
			t.Errorf("BaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFramework(t *testing.T) {
	ids, err := ParseFrameworkIDs([]string{"episode_structure", " ", "purpose_audience"})
	if err != nil || strings.Join(ids, ",") != "episode_structure,purpose_audience" {
		t.Fatalf("ids = %v, %v", ids, err)
	}
	all, err := ParseFrameworkIDs([]string{"all"})
	if err != nil || len(all) != len(Framework) {
		t.Fatalf("all = %v, %v", all, err)
	}
	if _, err := ParseFrameworkIDs([]string{"bogus"}); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("bogus error = %v", err)
	}

	details, err := ParseDetails([]string{"branding_identity= Deep Dive "})
	if err != nil || details["branding_identity"] != "Deep Dive" {
		t.Fatalf("details = %v, %v", details, err)
	}
	if _, err := ParseDetails([]string{"no-equals"}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("malformed detail error = %v", err)
	}
}
