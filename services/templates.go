// services/templates.go
package services

import (
	"fmt"
	"strings"
)

// ContentTemplate describes a reusable post structure.
type ContentTemplate struct {
	Name        string
	ContentType string
	Structure   []string
	Guidelines  []string
}

var defaultTemplates = []ContentTemplate{
	{
		Name:        "thought-leadership",
		ContentType: "post",
		Structure:   []string{"hook", "insight", "example", "call_to_action"},
		Guidelines: []string{
			"Open with a contrarian or surprising statement",
			"Back the insight with one concrete example",
			"Close with a question that invites discussion",
		},
	},
	{
		Name:        "story",
		ContentType: "post",
		Structure:   []string{"setup", "conflict", "lesson"},
		Guidelines: []string{
			"Write in first person",
			"Keep paragraphs to one or two sentences",
		},
	},
	{
		Name:        "listicle",
		ContentType: "article",
		Structure:   []string{"intro", "numbered_points", "summary"},
		Guidelines: []string{
			"Three to seven points, each with a bolded lead-in",
		},
	},
}

// DefaultTemplates returns the built-in templates, optionally filtered by
// content type.
func DefaultTemplates(contentType string) []ContentTemplate {
	if contentType == "" {
		return defaultTemplates
	}
	var out []ContentTemplate
	for _, t := range defaultTemplates {
		if t.ContentType == contentType {
			out = append(out, t)
		}
	}
	return out
}

// FindTemplate returns the named template, falling back to the first default.
func FindTemplate(name string) ContentTemplate {
	for _, t := range defaultTemplates {
		if t.Name == name {
			return t
		}
	}
	return defaultTemplates[0]
}

// BuildGenerationPrompt assembles the model prompt for a content job from
// the topic, target platform, template and the user's source material.
func BuildGenerationPrompt(topic, platform string, tmpl ContentTemplate, source string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a %s %s about: %s\n\n", platform, tmpl.ContentType, topic)
	fmt.Fprintf(&b, "Follow this structure: %s\n", strings.Join(tmpl.Structure, " -> "))

	if len(tmpl.Guidelines) > 0 {
		b.WriteString("Guidelines:\n")
		for _, g := range tmpl.Guidelines {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	if source != "" {
		fmt.Fprintf(&b, "\nMatch the voice and vocabulary of this writing sample:\n%s\n", source)
	}

	return b.String()
}

// BuildAnalysisPrompt assembles the model prompt for a voice-analysis job.
func BuildAnalysisPrompt(transcript string) string {
	return "Analyze the following transcript and describe the speaker's tone, " +
		"vocabulary level, sentence rhythm and recurring themes as a JSON object " +
		"with keys tone, vocabulary, rhythm, themes:\n\n" + transcript
}
