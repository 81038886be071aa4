package robots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Allowed(t *testing.T) {
	policy := DefaultPolicy("https://example.com")

	tests := []struct {
		name      string
		userAgent string
		path      string
		want      bool
	}{
		{
			name:      "root allowed by default",
			userAgent: "Googlebot",
			path:      "/",
			want:      true,
		},
		{
			name:      "api denied",
			userAgent: "Googlebot",
			path:      "/api/users",
			want:      false,
		},
		{
			name:      "admin denied",
			userAgent: "Googlebot",
			path:      "/admin/dashboard",
			want:      false,
		},
		{
			name:      "workshop steps denied",
			userAgent: "Googlebot",
			path:      "/workshop/steps/3",
			want:      false,
		},
		{
			name:      "workshop landing still allowed",
			userAgent: "Googlebot",
			path:      "/workshop",
			want:      true,
		},
		{
			name:      "build artifacts denied",
			userAgent: "Googlebot",
			path:      "/static/js/main.js",
			want:      false,
		},
		{
			name:      "share path explicitly allowed",
			userAgent: "Googlebot",
			path:      "/share/abc123",
			want:      true,
		},
		{
			name:      "blocked agent denied everywhere",
			userAgent: "Mozilla/5.0 (compatible; AhrefsBot/7.0)",
			path:      "/share/abc123",
			want:      false,
		},
		{
			name:      "blocked agent denied on root",
			userAgent: "SemrushBot",
			path:      "/",
			want:      false,
		},
		{
			name:      "third blocked agent",
			userAgent: "MJ12bot/v1.4.8",
			path:      "/pricing",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Allowed(tt.userAgent, tt.path))
		})
	}
}

func TestPolicy_SpecificRuleBeatsDefault(t *testing.T) {
	// /share/ sits under the blanket allow-all, but the explicit rule must
	// still win over a broader disallow covering it.
	policy := &Policy{
		DefaultAllow: true,
		Rules: []Rule{
			{Allow: false, Path: "/s"},
			{Allow: true, Path: "/share/"},
		},
	}

	assert.False(t, policy.Allowed("Googlebot", "/settings"))
	assert.True(t, policy.Allowed("Googlebot", "/share/abc"))
}

func TestPolicy_Render(t *testing.T) {
	policy := DefaultPolicy("https://example.com/")
	body := policy.Render()

	assert.Contains(t, body, "User-agent: *\nAllow: /\n")
	assert.Contains(t, body, "Disallow: /api/")
	assert.Contains(t, body, "Disallow: /admin/")
	assert.Contains(t, body, "Disallow: /workshop/steps/")
	assert.Contains(t, body, "Allow: /share/")
	assert.Contains(t, body, "User-agent: AhrefsBot\nDisallow: /")
	assert.Contains(t, body, "Sitemap: https://example.com/sitemap.xml")
}
