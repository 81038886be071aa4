package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTemplates(t *testing.T) {
	all := DefaultTemplates("")
	assert.Len(t, all, len(defaultTemplates))

	posts := DefaultTemplates("post")
	for _, tmpl := range posts {
		assert.Equal(t, "post", tmpl.ContentType)
	}
	assert.NotEmpty(t, posts)
}

func TestFindTemplate(t *testing.T) {
	tmpl := FindTemplate("story")
	assert.Equal(t, "story", tmpl.Name)

	// Unknown names fall back to the first default rather than failing the job
	fallback := FindTemplate("does-not-exist")
	assert.Equal(t, defaultTemplates[0].Name, fallback.Name)
}

func TestBuildGenerationPrompt(t *testing.T) {
	tmpl := FindTemplate("thought-leadership")
	prompt := BuildGenerationPrompt("remote work", "linkedin", tmpl, "my writing sample")

	assert.Contains(t, prompt, "remote work")
	assert.Contains(t, prompt, "linkedin")
	assert.Contains(t, prompt, strings.Join(tmpl.Structure, " -> "))
	assert.Contains(t, prompt, "my writing sample")
	for _, g := range tmpl.Guidelines {
		assert.Contains(t, prompt, g)
	}
}

func TestBuildGenerationPrompt_NoSource(t *testing.T) {
	prompt := BuildGenerationPrompt("hiring", "linkedin", FindTemplate("story"), "")
	assert.NotContains(t, prompt, "writing sample")
}
