// robots/robots.go
package robots

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Rule allows or denies crawling under a path prefix.
type Rule struct {
	Allow bool
	Path  string
}

// Policy describes the crawler directives served at /robots.txt and used to
// evaluate fetch permissions. More specific (longer) rules take precedence
// over the blanket default.
type Policy struct {
	DefaultAllow  bool
	Rules         []Rule
	BlockedAgents []string
	Sitemap       string
}

// DefaultPolicy returns the site policy: crawl everything except the API,
// admin, workshop-step and build-artifact paths, keep public share pages
// crawlable, and shut out the heavy SEO crawlers entirely.
func DefaultPolicy(baseURL string) *Policy {
	return &Policy{
		DefaultAllow: true,
		Rules: []Rule{
			{Allow: false, Path: "/api/"},
			{Allow: false, Path: "/admin/"},
			{Allow: false, Path: "/workshop/steps/"},
			{Allow: false, Path: "/static/"},
			{Allow: true, Path: "/share/"},
		},
		BlockedAgents: []string{"AhrefsBot", "SemrushBot", "MJ12bot"},
		Sitemap:       strings.TrimRight(baseURL, "/") + "/sitemap.xml",
	}
}

// Allowed reports whether the given user agent may fetch the given path.
// Blocked agents are denied everything; otherwise the longest matching rule
// wins, falling back to the policy default.
func (p *Policy) Allowed(userAgent, path string) bool {
	for _, agent := range p.BlockedAgents {
		if strings.Contains(strings.ToLower(userAgent), strings.ToLower(agent)) {
			return false
		}
	}

	allow := p.DefaultAllow
	bestLen := -1
	for _, rule := range p.Rules {
		if strings.HasPrefix(path, rule.Path) && len(rule.Path) > bestLen {
			bestLen = len(rule.Path)
			allow = rule.Allow
		}
	}
	return allow
}

// Render produces the robots.txt representation of the policy.
func (p *Policy) Render() string {
	var b strings.Builder

	b.WriteString("User-agent: *\n")
	if p.DefaultAllow {
		b.WriteString("Allow: /\n")
	} else {
		b.WriteString("Disallow: /\n")
	}
	for _, rule := range p.Rules {
		if rule.Allow {
			b.WriteString("Allow: " + rule.Path + "\n")
		} else {
			b.WriteString("Disallow: " + rule.Path + "\n")
		}
	}

	for _, agent := range p.BlockedAgents {
		b.WriteString("\nUser-agent: " + agent + "\n")
		b.WriteString("Disallow: /\n")
	}

	if p.Sitemap != "" {
		b.WriteString("\nSitemap: " + p.Sitemap + "\n")
	}

	return b.String()
}

// Handler serves the rendered policy as robots.txt.
func (p *Policy) Handler() echo.HandlerFunc {
	body := p.Render()
	return func(c echo.Context) error {
		return c.String(http.StatusOK, body)
	}
}
