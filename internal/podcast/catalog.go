package podcast

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ScriptModels are the chat models offered for script generation.
var ScriptModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4-turbo",
	"gpt-4.1",
	"gpt-4.1-mini",
	"gpt-4.1-nano",
}

// Option is a catalog entry with an identifier and a display name.
type Option struct {
	ID   string
	Name string
}

// TTSModels are the speech models; the name is the quality tier.
var TTSModels = []Option{
	{ID: "tts-1", Name: "standard"},
	{ID: "tts-1-hd", Name: "hd"},
}

// Voices are the speech voices.
var Voices = []Option{
	{ID: "alloy", Name: "Alloy"},
	{ID: "echo", Name: "Echo"},
	{ID: "fable", Name: "Fable"},
	{ID: "onyx", Name: "Onyx"},
	{ID: "nova", Name: "Nova"},
	{ID: "shimmer", Name: "Shimmer"},
}

// SystemPromptTemplates name the system prompts in the locale dictionaries.
// "custom" means the caller supplies the prompt text.
var SystemPromptTemplates = []string{
	"default",
	"educational",
	"storytelling",
	"conversational",
	"professional",
	"custom",
}

// Endpoint is an OpenAI-compatible API host.
type Endpoint struct {
	ID   string
	Name string
	URL  string
}

// Endpoints are the preconfigured hosts. The custom entry takes its URL from
// the user.
var Endpoints = []Endpoint{
	{ID: "openai", Name: "OpenAI (Default)", URL: "https://api.openai.com"},
	{ID: "avalai", Name: "AvalAI", URL: "https://api.avalonai.org"},
	{ID: "openrouter", Name: "OpenRouter", URL: "https://openrouter.ai/api"},
	{ID: "aws", Name: "AWS Bedrock", URL: "https://bedrock-runtime.{region}.amazonaws.com"},
	{ID: "azure", Name: "Azure OpenAI", URL: "https://{resource-name}.openai.azure.com"},
	{ID: "custom", Name: "Custom Endpoint", URL: ""},
}

// Defaults.
const (
	DefaultEndpoint    = "openai"
	DefaultScriptModel = "gpt-4o-mini"
	DefaultTTSModel    = "tts-1"
	DefaultVoice       = "alloy"
	DefaultTemplate    = "default"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// resolve finds name in ids: an exact (case-insensitive) match wins, then a
// unique prefix, then the best fuzzy match.
func resolve(kind, name string, ids []string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("%w: empty %s", ErrUnknownOption, kind)
	}

	var prefixed []string
	for _, id := range ids {
		if strings.ToLower(id) == n {
			return id, nil
		}
		if strings.HasPrefix(strings.ToLower(id), n) {
			prefixed = append(prefixed, id)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}

	if matches := fuzzy.Find(n, ids); len(matches) > 0 {
		if len(prefixed) > 1 {
			// Prefer the best-scoring candidate among the prefix matches.
			for _, m := range matches {
				for _, p := range prefixed {
					if m.Str == p {
						return p, nil
					}
				}
			}
		}
		return matches[0].Str, nil
	}
	return "", fmt.Errorf("%w: %s %q (choose from %s)", ErrUnknownOption, kind, name, strings.Join(ids, ", "))
}

func optionIDs(opts []Option) []string {
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}

// ResolveVoice maps user input to a voice ID.
func ResolveVoice(name string) (string, error) {
	return resolve("voice", name, optionIDs(Voices))
}

// ResolveTTSModel maps user input, either an ID or a tier name such as "hd",
// to a speech model ID.
func ResolveTTSModel(name string) (string, error) {
	for _, m := range TTSModels {
		if strings.EqualFold(name, m.Name) {
			return m.ID, nil
		}
	}
	return resolve("tts model", name, optionIDs(TTSModels))
}

// ResolveScriptModel maps user input to a chat model. Models outside the
// catalog are passed through so OpenAI-compatible hosts can serve their own.
func ResolveScriptModel(name string) string {
	for _, m := range ScriptModels {
		if strings.EqualFold(name, m) {
			return m
		}
	}
	return strings.TrimSpace(name)
}

// ResolveTemplate maps user input to a system prompt template.
func ResolveTemplate(name string) (string, error) {
	return resolve("system prompt template", name, SystemPromptTemplates)
}

// LookupEndpoint returns the preconfigured endpoint with id.
func LookupEndpoint(id string) (Endpoint, bool) {
	for _, e := range Endpoints {
		if e.ID == id {
			return e, true
		}
	}
	return Endpoint{}, false
}

// ResolveEndpoint turns an endpoint ID (or a bare URL) into a base URL.
// customURL is used for the "custom" endpoint.
func ResolveEndpoint(id, customURL string) (Endpoint, error) {
	if strings.Contains(id, "://") {
		return Endpoint{ID: "custom", Name: "Custom Endpoint", URL: id}, nil
	}
	e, ok := LookupEndpoint(strings.ToLower(strings.TrimSpace(id)))
	if !ok {
		ids := make([]string, len(Endpoints))
		for i, ep := range Endpoints {
			ids[i] = ep.ID
		}
		return Endpoint{}, fmt.Errorf("%w: endpoint %q (choose from %s)", ErrUnknownOption, id, strings.Join(ids, ", "))
	}
	customURL = strings.TrimSpace(customURL)
	switch {
	case e.ID == "custom" && customURL == "":
		return Endpoint{}, ErrEndpointURLRequired
	case e.ID == "custom", customURL != "" && strings.ContainsAny(e.URL, "{}"):
		// Hosts with placeholders take the filled-in URL from the user.
		e.URL = customURL
	}
	if strings.ContainsAny(e.URL, "{}") {
		return e, fmt.Errorf("%w: %s", ErrEndpointPlaceholder, e.Name)
	}
	return e, nil
}

// BaseURL normalizes an endpoint URL into the API base used by the client,
// with a single trailing "/v1/".
func BaseURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	u = strings.TrimSuffix(u, "/v1")
	return u + "/v1/"
}
