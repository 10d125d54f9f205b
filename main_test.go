package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dgnsrekt/autocast/internal/config"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/spf13/viper"
)

// fakeAPI is an OpenAI-compatible server that answers every chat request
// with reply and every speech request with the spoken input.
type fakeAPI struct {
	reply string

	mu       sync.Mutex
	prompts  []string
	speeches []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/v1/chat/completions":
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		for _, m := range req.Messages {
			f.prompts = append(f.prompts, m.Content)
		}
		f.mu.Unlock()

		b, _ := json.Marshal(f.reply)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}],`+
			`"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, b)
	case "/v1/audio/speech":
		var req struct {
			Input string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.speeches = append(f.speeches, req.Input)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "audio/mpeg")
		fmt.Fprint(w, "audio:"+req.Input)
	case "/v1/models":
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[`+
			`{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"},`+
			`{"id":"tts-1","object":"model","created":1,"owned_by":"openai"}]}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) allPrompts() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.prompts, "\n")
}

func (f *fakeAPI) speechCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.speeches)
}

// useFakeAPI points the settings at a fake server for the test.
func useFakeAPI(t *testing.T, reply string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{reply: reply}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	prevSettings, prevTranslator := settings, translator
	t.Cleanup(func() { settings, translator = prevSettings, prevTranslator })

	settings = config.Default()
	settings.Endpoint = srv.URL
	settings.APIKey = "sk-test"
	settings.Network.MaxRetries = 0
	settings.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	settings.OutputDir = t.TempDir()
	translator = i18n.NewTranslator(i18n.MustLoad(), "en")
	return api
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGenerate(t *testing.T) {
	api := useFakeAPI(t, "# Episode one")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes", "a.md"), "Go has goroutines.")
	writeFile(t, filepath.Join(dir, "notes", "b.txt"), "Channels connect them.")
	out := filepath.Join(dir, "script.md")

	var stdout, stderr bytes.Buffer
	err := runGenerate(context.Background(), nil, &stdout, &stderr, []string{filepath.Join(dir, "notes")}, generateOptions{
		framework: []string{"purpose_audience", "episode_structure"},
		details:   []string{"purpose_audience=start with a question"},
		notes:     "keep it short",
		output:    out,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := readFile(t, out); got != "# Episode one\n" {
		t.Errorf("script = %q", got)
	}
	prompts := api.allPrompts()
	for _, want := range []string{"Go has goroutines.", "Channels connect them.", "start with a question", "keep it short"} {
		if !strings.Contains(prompts, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
	if !strings.Contains(stderr.String(), "Wrote "+out) {
		t.Errorf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing with -o", stdout.String())
	}
}

func TestGenerateStdin(t *testing.T) {
	api := useFakeAPI(t, "a script")

	var stdout, stderr bytes.Buffer
	err := runGenerate(context.Background(), strings.NewReader("piped text"), &stdout, &stderr, []string{"-"}, generateOptions{lang: "fa"})
	if err != nil {
		t.Fatal(err)
	}
	if stdout.String() != "a script\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if p := api.allPrompts(); !strings.Contains(p, "piped text") {
		t.Errorf("prompt = %q", p)
	}
}

func TestGenerateSummarizes(t *testing.T) {
	api := useFakeAPI(t, "done")
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.md"), "first")
	b := writeFile(t, filepath.Join(dir, "b.md"), "second")

	var stdout, stderr bytes.Buffer
	if err := runGenerate(context.Background(), nil, &stdout, &stderr, []string{a, b}, generateOptions{summarize: true}); err != nil {
		t.Fatal(err)
	}
	// One request for the summary, one for the script.
	if p := api.allPrompts(); strings.Count(p, "first") != 1 {
		t.Errorf("combined text sent %d times", strings.Count(p, "first"))
	}
	if !strings.Contains(stderr.String(), translator.T("common.summarizing")) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestGenerateErrors(t *testing.T) {
	useFakeAPI(t, "x")
	file := writeFile(t, filepath.Join(t.TempDir(), "a.md"), "text")

	tests := []struct {
		name string
		args []string
		opts generateOptions
		want error
	}{
		{"language", []string{file}, generateOptions{lang: "xx"}, podcast.ErrUnknownOption},
		{"template", []string{file}, generateOptions{template: "nope"}, podcast.ErrUnknownOption},
		{"framework", []string{file}, generateOptions{framework: []string{"bogus"}}, podcast.ErrUnknownOption},
		{"detail", []string{file}, generateOptions{details: []string{"no-equals"}}, podcast.ErrInvalidParameter},
		{"file type", []string{writeFile(t, filepath.Join(t.TempDir(), "a.pdf"), "x")}, generateOptions{}, podcast.ErrUnsupportedFile},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := runGenerate(context.Background(), nil, io.Discard, io.Discard, tc.args, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("runGenerate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	useFakeAPI(t, "x")
	settings.APIKey = ""
	file := writeFile(t, filepath.Join(t.TempDir(), "a.md"), "text")

	err := runGenerate(context.Background(), nil, io.Discard, io.Discard, []string{file}, generateOptions{})
	if err == nil || err.Error() != translator.T("errors.apiKeyRequired") {
		t.Errorf("err = %v", err)
	}
}

func TestRefine(t *testing.T) {
	api := useFakeAPI(t, "better script")
	script := writeFile(t, filepath.Join(t.TempDir(), "script.md"), "draft script")

	if err := runRefine(context.Background(), io.Discard, script, "more jokes", ""); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, script); got != "better script\n" {
		t.Errorf("script = %q", got)
	}
	if p := api.allPrompts(); !strings.Contains(p, "draft script") || !strings.Contains(p, "more jokes") {
		t.Errorf("prompt = %q", p)
	}

	out := filepath.Join(t.TempDir(), "v2.md")
	if err := runRefine(context.Background(), io.Discard, script, "again", out); err != nil {
		t.Fatal(err)
	}
	if readFile(t, out) != "better script\n" || readFile(t, script) != "better script\n" {
		t.Error("refine with -o wrote to the wrong file")
	}

	if err := runRefine(context.Background(), io.Discard, script, " ", ""); !errors.Is(err, podcast.ErrFeedbackRequired) {
		t.Errorf("empty feedback = %v", err)
	}
}

func TestSpeak(t *testing.T) {
	api := useFakeAPI(t, "")
	script := writeFile(t, filepath.Join(t.TempDir(), "script.md"), "# Welcome\n\nHello **listeners**.")
	out := filepath.Join(t.TempDir(), "episode.mp3")

	if err := runSpeak(context.Background(), io.Discard, script, speakOptions{voice: "nova", output: out}); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, out)
	if !strings.HasPrefix(got, "audio:") || strings.Contains(got, "**") || strings.Contains(got, "#") {
		t.Errorf("audio = %q", got)
	}
	if api.speechCount() != 1 {
		t.Fatalf("speech requests = %d", api.speechCount())
	}

	// The second run is served from the cache.
	if err := runSpeak(context.Background(), io.Discard, script, speakOptions{voice: "nova", output: out}); err != nil {
		t.Fatal(err)
	}
	if api.speechCount() != 1 {
		t.Errorf("speech requests after cached run = %d", api.speechCount())
	}
	if err := runSpeak(context.Background(), io.Discard, script, speakOptions{voice: "nova", output: out, noCache: true}); err != nil {
		t.Fatal(err)
	}
	if api.speechCount() != 2 {
		t.Errorf("speech requests with --no-cache = %d", api.speechCount())
	}
}

func TestSpeakDefaultOutput(t *testing.T) {
	useFakeAPI(t, "")
	script := writeFile(t, filepath.Join(t.TempDir(), "script.md"), "Hello.")

	if err := runSpeak(context.Background(), io.Discard, script, speakOptions{format: "pcm", raw: true}); err != nil {
		t.Fatal(err)
	}
	matches, err := filepath.Glob(filepath.Join(settings.OutputDir, "podcast_*.pcm"))
	if err != nil || len(matches) != 1 {
		t.Errorf("output files = %v, %v", matches, err)
	}
}

func TestSpeakOptions(t *testing.T) {
	useFakeAPI(t, "")

	tests := []struct {
		name    string
		opts    speakOptions
		want    speakOptions
		wantErr bool
	}{
		{"defaults", speakOptions{}, speakOptions{voice: "alloy", model: "tts-1", speed: 1, format: "mp3"}, false},
		{"aliases", speakOptions{voice: "nov", model: "hd", speed: 2}, speakOptions{voice: "nova", model: "tts-1-hd", speed: 2, format: "mp3"}, false},
		{"play picks pcm", speakOptions{play: true}, speakOptions{voice: "alloy", model: "tts-1", speed: 1, format: "pcm", play: true}, false},
		{"play with mp3", speakOptions{play: true, format: "mp3"}, speakOptions{}, true},
		{"format", speakOptions{format: "wav"}, speakOptions{}, true},
		{"speed", speakOptions{speed: 4.5}, speakOptions{}, true},
		{"voice", speakOptions{voice: "zzz"}, speakOptions{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.opts.resolve()
			if tc.wantErr {
				if err == nil {
					t.Errorf("resolve() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("resolve() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSample(t *testing.T) {
	api := useFakeAPI(t, "")
	if err := runSample(context.Background(), io.Discard, speakOptions{voice: "shimmer"}); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, filepath.Join(settings.OutputDir, "sample_shimmer.mp3"))
	if !strings.Contains(got, "shimmer") {
		t.Errorf("sample = %q", got)
	}
	if api.speechCount() != 1 {
		t.Errorf("speech requests = %d", api.speechCount())
	}
}

func TestPreview(t *testing.T) {
	useFakeAPI(t, "")
	t.Cleanup(func() { previewOutput, previewANSI = "", false })
	script := writeFile(t, filepath.Join(t.TempDir(), "episode.md"), "# Title\n\n**bold** <b>")

	var stdout bytes.Buffer
	if err := runPreview(&stdout, io.Discard, script); err != nil {
		t.Fatal(err)
	}
	doc := stdout.String()
	for _, want := range []string{`<html lang="en" dir="ltr">`, "<title>episode</title>", "<h1>Title</h1>", "<strong>bold</strong>", "&lt;b&gt;"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document is missing %q:\n%s", want, doc)
		}
	}

	settings.Script.Language = "fa"
	previewOutput = filepath.Join(t.TempDir(), "out.html")
	if err := runPreview(io.Discard, io.Discard, script); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, previewOutput); !strings.Contains(got, `dir="rtl"`) {
		t.Errorf("rtl document = %q", got)
	}
}

func TestPreviewANSI(t *testing.T) {
	useFakeAPI(t, "")
	t.Cleanup(func() { previewANSI, previewStyle = false, "auto" })
	previewANSI = true
	previewStyle = "notty"
	script := writeFile(t, filepath.Join(t.TempDir(), "episode.md"), "# Title\n\nSome text.")

	var stdout bytes.Buffer
	if err := runPreview(&stdout, io.Discard, script); err != nil {
		t.Fatal(err)
	}
	if out := stdout.String(); !strings.Contains(out, "Title") || strings.Contains(out, "<h1>") {
		t.Errorf("ansi preview = %q", out)
	}
}

func TestCheck(t *testing.T) {
	useFakeAPI(t, "")

	var stdout, stderr bytes.Buffer
	if err := runCheck(context.Background(), &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Connected to Custom Endpoint.") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "gpt-4o-mini, tts-1") {
		t.Errorf("models missing from %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Testing connection") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestCheckPlaceholderEndpoint(t *testing.T) {
	useFakeAPI(t, "")
	settings.Endpoint = "azure"

	err := runCheck(context.Background(), io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "azure requires additional configuration") {
		t.Errorf("err = %v", err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "autocast.yml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %v", perm)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	s, err := config.Load(v)
	if err != nil {
		t.Fatalf("default config does not load: %v", err)
	}
	d := config.Default()
	if s.Script != d.Script || s.Speech != d.Speech || s.Cache != d.Cache || s.Network != d.Network {
		t.Errorf("default config = %+v, want %+v", s, d)
	}

	// An existing file is left alone.
	writeFile(t, path, "endpoint: openrouter\n")
	if err := ensureConfigFile(path); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "endpoint: openrouter\n" {
		t.Errorf("existing config overwritten: %q", got)
	}

	if err := ensureConfigFile(filepath.Join(t.TempDir(), "autocast.json")); err == nil {
		t.Error("json config accepted")
	}
}

func TestSetConfigValue(t *testing.T) {
	t.Setenv("AUTOCAST_API_KEY", "sk-env")
	path := filepath.Join(t.TempDir(), "autocast.yml")
	writeFile(t, path, "speech:\n  voice: echo\n")

	if err := setConfigValue(path, "network.timeout", "30s"); err != nil {
		t.Fatal(err)
	}
	if err := setConfigValue(path, "Speech.Speed", "1.5"); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, path)
	for _, want := range []string{"voice: echo", "timeout: 30s", "speed: 1.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("config is missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "sk-env") {
		t.Error("environment API key written to the config file")
	}

	for _, tc := range []struct{ key, value string }{
		{"speech.sped", "1"},
		{"speech.speed", "9"},
		{"speech.voice", "nobody"},
	} {
		if err := setConfigValue(path, tc.key, tc.value); err == nil {
			t.Errorf("set %s=%s succeeded", tc.key, tc.value)
		}
	}
}

func TestManPage(t *testing.T) {
	var out bytes.Buffer
	manCmd.SetOut(&out)
	t.Cleanup(func() { manCmd.SetOut(nil) })

	if err := manCmd.RunE(manCmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "autocast") || !strings.Contains(out.String(), ".TH") {
		t.Errorf("man page = %q", out.String())
	}
}

func TestSkipSettings(t *testing.T) {
	if !skipSettings(configSetCmd) || !skipSettings(manCmd) {
		t.Error("config and man commands should run without settings")
	}
	if skipSettings(speakCmd) || skipSettings(rootCmd) {
		t.Error("speak and the editor need settings")
	}
}
