package podcast

import (
	"fmt"
	"strings"
)

// FrameworkPoint is a podcast planning guideline the script prompt can
// include.
type FrameworkPoint struct {
	ID          string
	Title       string
	Description string
}

// Framework lists the planning guidelines in presentation order.
var Framework = []FrameworkPoint{
	{
		ID:    "purpose_audience",
		Title: "Define Your Purpose & Audience",
		Description: "Decide on the podcast's core message, niche, or theme. " +
			"Identify who your target listeners are and what value you're providing them.",
	},
	{
		ID:    "episode_structure",
		Title: "Episode Structure & Format",
		Description: "Determine the format: solo commentary, interviews, panel discussions, storytelling, or a mix. " +
			"Develop a rough outline for each episode (e.g., introduction, main content, closing remarks).",
	},
	{
		ID:    "scriptwriting_storyboarding",
		Title: "Scriptwriting & Storyboarding",
		Description: "Create a detailed script or bullet-point outline to ensure a coherent flow. " +
			"Plan transitions, key stories, questions for interviews, and calls to action.",
	},
	{
		ID:    "branding_identity",
		Title: "Branding & Identity",
		Description: "Design a podcast name, logo, and introductory music that resonate with your concept. " +
			"Create an engaging intro and outro that set the tone for each episode.",
	},
	{
		ID:    "marketing_engagement",
		Title: "Marketing & Audience Engagement",
		Description: "Develop a launch strategy including social media campaigns, show notes, and a dedicated website or blog. " +
			"Engage with your audience through social media, listener feedback, and Q&A sessions.",
	},
	{
		ID:    "schedule_improvement",
		Title: "Consistent Schedule & Continuous Improvement",
		Description: "Establish a realistic publishing schedule that you can maintain. " +
			"Regularly review analytics to understand what content resonates with your audience.",
	},
}

// LookupFrameworkPoint returns the point with id.
func LookupFrameworkPoint(id string) (FrameworkPoint, bool) {
	for _, p := range Framework {
		if p.ID == id {
			return p, true
		}
	}
	return FrameworkPoint{}, false
}

// ParseFrameworkIDs validates a list of point IDs. "all" selects every
// point.
func ParseFrameworkIDs(ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		switch {
		case id == "":
			continue
		case id == "all":
			out = out[:0]
			for _, p := range Framework {
				out = append(out, p.ID)
			}
			return out, nil
		}
		if _, ok := LookupFrameworkPoint(id); !ok {
			return nil, fmt.Errorf("%w: framework point %q", ErrUnknownOption, id)
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseDetails parses "id=text" pairs into a map keyed by framework point.
func ParseDetails(pairs []string) (map[string]string, error) {
	details := make(map[string]string, len(pairs))
	for _, p := range pairs {
		id, text, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("%w: detail %q is not in id=text form", ErrInvalidParameter, p)
		}
		id = strings.TrimSpace(id)
		if _, found := LookupFrameworkPoint(id); !found {
			return nil, fmt.Errorf("%w: framework point %q", ErrUnknownOption, id)
		}
		details[id] = strings.TrimSpace(text)
	}
	return details, nil
}
