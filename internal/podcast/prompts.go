package podcast

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/autocast/internal/i18n"
)

// LanguageName returns the English name of a script language.
func LanguageName(lang string) string {
	switch lang {
	case "fa":
		return "Persian"
	case "ar":
		return "Arabic"
	default:
		return "English"
	}
}

// LanguageInstruction tells the model which language subject must be
// written in.
func LanguageInstruction(subject, lang string) string {
	name := LanguageName(lang)
	if lang == "fa" {
		name = "Persian (Farsi)"
	}
	return fmt.Sprintf("The %s MUST be written entirely in %s.", subject, name)
}

// SummarizePrompt builds the prompt that condenses several documents before
// script generation.
func SummarizePrompt(lang, text string) string {
	return `You are an expert content summarizer. Your task is to create a comprehensive yet concise summary of the following multiple documents/texts that will be used to generate a podcast script.

` + LanguageInstruction("summary", lang) + `

Please:
1. Identify the main themes and key points across all documents
2. Combine related information from different sources
3. Maintain the most important details and insights
4. Create a coherent narrative that flows well
5. Preserve any important quotes, statistics, or specific examples
6. Ensure the summary is suitable for podcast script generation

Content to summarize:
---
` + text + `
---

Comprehensive Summary:`
}

// ScriptRequest describes a script generation run.
type ScriptRequest struct {
	Text     string
	Language string

	// Points are framework point IDs to include, in order.
	Points []string
	// Details holds user requirements per framework point.
	Details map[string]string
	// Notes are free-form structuring notes.
	Notes string

	// Template names the system prompt; CustomPrompt is used for "custom".
	Template     string
	CustomPrompt string
}

// FrameworkInstructions renders the selected guidelines and notes.
func FrameworkInstructions(points []string, details map[string]string, notes string) string {
	var b strings.Builder
	if len(points) > 0 {
		b.WriteString("Consider the following podcast structure guidelines:\n")
		for _, id := range points {
			p, ok := LookupFrameworkPoint(id)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", p.Title, p.Description)
			if d := details[id]; d != "" {
				fmt.Fprintf(&b, "  User's specific requirements: %s\n", d)
			}
		}
		b.WriteString("\n")
	}
	if notes != "" {
		fmt.Fprintf(&b, "Additional structuring notes: %s\n", notes)
	}
	return b.String()
}

// ScriptPrompt builds the user prompt for script generation.
func ScriptPrompt(req ScriptRequest) string {
	return "Transform the following text into an engaging, conversational podcast script in " + LanguageName(req.Language) + ".\n" +
		LanguageInstruction("podcast script", req.Language) + "\n" +
		FrameworkInstructions(req.Points, req.Details, req.Notes) + "\n" +
		`The script should include a captivating intro, a well-structured main body explaining key points, and a concise conclusion.
Make sure to incorporate the user's specific requirements for each selected framework point.
Ensure the output is ONLY the script itself, without any surrounding explanations or preambles.

Original Text:
---
` + req.Text + `
---
Podcast Script:`
}

// RefinePrompt builds the user prompt for a refinement pass.
func RefinePrompt(lang, script, feedback string) string {
	return "Refine the following podcast script based on the user's feedback.\n" +
		LanguageInstruction("refined podcast script", lang) + `
Ensure the output is ONLY the refined script itself.

Original Script:
---
` + script + `
---
User Feedback for Refinement:
---
` + feedback + `
---
Refined Podcast Script:`
}

// SystemPrompt resolves a template to its text in the interface locale.
// The custom template returns custom as given.
func SystemPrompt(tr i18n.Translator, template, custom string) string {
	if template == "custom" {
		return strings.TrimSpace(custom)
	}
	if template == "" {
		template = DefaultTemplate
	}
	key := "systemPrompts." + template + ".prompt"
	if s := tr.T(key); s != key {
		return s
	}
	return ""
}
