// Package blog assembles, renders and publishes the generated posts.
package blog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	sanitize "github.com/mrz1836/go-sanitize"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"blogr/app"
	"blogr/data"
)

// Post is a generated blog post parsed from the agent's markdown output.
type Post struct {
	Title       string
	Description string
	Date        string
	Categories  []string
	Tags        []string
	Image       string
	// Markdown is the post body with the metadata block removed.
	Markdown string
}

var (
	metaLineRe = regexp.MustCompile(`(?m)^(title|description|date|categories|tags|featuredImage):\s*(.*)$`)
	h1Re       = regexp.MustCompile(`(?m)^#\s+(.+)$`)

	nonFileRe     = regexp.MustCompile(`[^a-zA-Z0-9 _-]`)
	separatorRe   = regexp.MustCompile(`[_ -]+`)
	asciiStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Parse splits agent markdown into metadata and body. Missing fields fall
// back to what can be recovered from the content itself.
func Parse(content string) *Post {
	p := &Post{}

	// metadata sits above the first heading
	head := content
	if loc := h1Re.FindStringIndex(content); loc != nil {
		head = content[:loc[0]]
	}

	var metaEnd int
	for _, m := range metaLineRe.FindAllStringSubmatchIndex(head, -1) {
		key := head[m[2]:m[3]]
		value := strings.TrimSpace(head[m[4]:m[5]])
		switch key {
		case "title":
			p.Title = strings.Trim(value, `"`)
		case "description":
			p.Description = strings.Trim(value, `"`)
		case "date":
			p.Date = value
		case "categories":
			p.Categories = parseList(value)
		case "tags":
			p.Tags = parseList(value)
		case "featuredImage":
			if value != "None" {
				p.Image = value
			}
		}
		if m[1] > metaEnd {
			metaEnd = m[1]
		}
	}

	p.Markdown = strings.TrimSpace(content[metaEnd:])

	if p.Title == "" {
		if m := h1Re.FindStringSubmatch(p.Markdown); m != nil {
			p.Title = strings.TrimSpace(m[1])
		}
	}
	return p
}

func parseList(value string) []string {
	value = strings.Trim(value, "[]")
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Category returns the post's primary category, defaulting to crypto.
func (p *Post) Category() string {
	if len(p.Categories) > 0 {
		return strings.ToLower(p.Categories[0])
	}
	return "crypto"
}

// Labels derives publishing labels: tags plus categories, lowercased and
// deduplicated. When the post carries neither, the first few substantial
// title words are used. The post's category label is always present.
func (p *Post) Labels() []string {
	var labels []string
	seen := map[string]bool{}

	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			labels = append(labels, s)
		}
	}

	for _, t := range p.Tags {
		add(t)
	}
	for _, c := range p.Categories {
		add(c)
	}

	if len(labels) == 0 {
		var words int
		for _, w := range strings.Fields(p.Title) {
			w = strings.Trim(w, ".,:;!?\"'")
			if len(w) > 3 {
				add(w)
				if words++; words >= 5 {
					break
				}
			}
		}
	}

	add(p.Category())
	return labels
}

// SanitizeFilename folds a title to a safe lowercase ascii file stem.
func SanitizeFilename(name string) string {
	if folded, _, err := transform.String(asciiStripper, name); err == nil {
		name = folded
	}
	name = sanitize.SingleLine(name)
	name = nonFileRe.ReplaceAllString(name, "_")
	name = separatorRe.ReplaceAllString(name, "_")
	name = strings.ToLower(strings.Trim(name, "_"))
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "untitled"
	}
	return name
}

// SaveDraft writes the rendered HTML document under the drafts directory,
// grouped by category, and returns the file path.
func SaveDraft(p *Post, html string) (string, error) {
	dir := data.Dir("blog_drafts", SanitizeFilename(p.Category()))
	name := fmt.Sprintf("%s_%s.html", p.Date, SanitizeFilename(p.Title))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", err
	}

	app.Log("blog", "Saved draft %s", name)
	return path, nil
}
