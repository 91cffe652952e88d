package blog

import (
	"encoding/json"
	"fmt"
	htemplate "html/template"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"blogr/app"
)

var titleCaser = cases.Title(language.English)

var (
	h1TagRe     = regexp.MustCompile(`(?s)<h1[^>]*>(.*?)</h1>`)
	emptyParaRe = regexp.MustCompile(`<p>\s*</p>`)
	anchorRe    = regexp.MustCompile(`<a href="[^"]*"[^>]*>`)
	imgSrcRe    = regexp.MustCompile(`<img src="([^"]*)"`)
)

// RenderBody converts post markdown to the article HTML fragment. Headings
// are demoted below the document H1, links open in a new tab and any inline
// reference to the featured image is swapped for its data URI.
func RenderBody(p *Post, imageURI string) string {
	html := app.RenderString(CleanArtifacts(p.Markdown))

	html = h1TagRe.ReplaceAllString(html, "<h2>$1</h2>")
	html = emptyParaRe.ReplaceAllString(html, "")

	html = anchorRe.ReplaceAllStringFunc(html, func(a string) string {
		if strings.Contains(a, "rel=") {
			return a
		}
		if strings.Contains(a, `target="_blank"`) {
			return strings.Replace(a, `target="_blank"`, `target="_blank" rel="noopener noreferrer"`, 1)
		}
		return strings.Replace(a, ">", ` target="_blank" rel="noopener noreferrer">`, 1)
	})

	if p.Image != "" && imageURI != "" {
		base := filepath.Base(p.Image)
		html = imgSrcRe.ReplaceAllStringFunc(html, func(tag string) string {
			m := imgSrcRe.FindStringSubmatch(tag)
			if m == nil || filepath.Base(m[1]) != base {
				return tag
			}
			return fmt.Sprintf(`<img class="in-content-image" src="%s"`, imageURI)
		})
	}

	return html
}

type documentData struct {
	Title       string
	Description string
	Keywords    string
	Date        string
	Category    string
	ImageURI    htemplate.URL
	Body        htemplate.HTML
	JSONLD      htemplate.JS
	SourceURL   string
	SourceHost  string
}

// Document renders the complete standalone HTML page for a post.
func Document(p *Post, body, imageURI, sourceURL string) (string, error) {
	ld, err := jsonLD(p)
	if err != nil {
		return "", err
	}

	host := sourceURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i > 0 {
		host = host[:i]
	}

	var out strings.Builder
	err = documentTmpl.Execute(&out, &documentData{
		Title:       p.Title,
		Description: p.Description,
		Keywords:    strings.Join(append(append([]string{}, p.Tags...), p.Categories...), ", "),
		Date:        p.Date,
		Category:    titleCaser.String(p.Category()),
		ImageURI:    htemplate.URL(imageURI),
		Body:        htemplate.HTML(body),
		JSONLD:      htemplate.JS(ld),
		SourceURL:   sourceURL,
		SourceHost:  host,
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func jsonLD(p *Post) (string, error) {
	ld := map[string]interface{}{
		"@context":       "https://schema.org",
		"@type":          "NewsArticle",
		"headline":       p.Title,
		"description":    p.Description,
		"datePublished":  p.Date + "T00:00:00Z",
		"articleSection": titleCaser.String(p.Category()),
		"author": map[string]interface{}{
			"@type": "Organization",
			"name":  "Crypto News Desk",
		},
	}
	b, err := json.MarshalIndent(ld, "    ", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var documentTmpl = htemplate.Must(htemplate.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <meta name="description" content="{{.Description}}">
  <meta name="keywords" content="{{.Keywords}}">
  <meta name="robots" content="index, follow">
  <meta name="author" content="Crypto News Desk">
  <meta property="og:type" content="article">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Description}}">
  {{if .ImageURI}}<meta property="og:image" content="{{.ImageURI}}">{{end}}
  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:title" content="{{.Title}}">
  <meta name="twitter:description" content="{{.Description}}">
  <script type="application/ld+json">
    {{.JSONLD}}
  </script>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; line-height: 1.7; color: #222; margin: 0; background: #fafafa; }
    .container { max-width: 800px; margin: 0 auto; padding: 20px; }
    .article-header { margin-bottom: 30px; }
    .category-tag { display: inline-block; background: #F7931A; color: #fff; padding: 4px 12px; border-radius: 4px; font-size: 0.85em; font-weight: 600; text-transform: uppercase; letter-spacing: 0.5px; }
    h1 { font-size: 2.2em; line-height: 1.25; margin: 16px 0; }
    h2 { font-size: 1.6em; margin-top: 40px; border-bottom: 2px solid #F7931A; padding-bottom: 8px; }
    h3 { font-size: 1.25em; margin-top: 28px; }
    .featured-image, .in-content-image { width: 100%; height: auto; border-radius: 8px; margin: 20px 0; }
    .article-content p { margin: 16px 0; }
    .article-content a { color: #F7931A; text-decoration: none; }
    .article-content a:hover { text-decoration: underline; }
    blockquote { border-left: 4px solid #F7931A; margin: 20px 0; padding: 10px 20px; background: #fff7ee; }
    table { border-collapse: collapse; width: 100%; margin: 20px 0; }
    th, td { border: 1px solid #ddd; padding: 10px; text-align: left; }
    th { background: #F7931A; color: #fff; }
    .source-link { margin-top: 40px; padding: 16px; background: #f0f0f0; border-radius: 8px; font-size: 0.9em; color: #555; }
    .source-link a { color: #F7931A; }
  </style>
</head>
<body>
  <div class="container">
    <div class="article-header">
      <span class="category-tag">{{.Category}}</span>
      <h1>{{.Title}}</h1>
      {{if .ImageURI}}<img class="featured-image" src="{{.ImageURI}}" alt="{{.Title}}">{{end}}
    </div>
    <div class="article-content">
{{.Body}}
    </div>
    <div class="source-link">
      This article was generated by an AI content creation system from aggregated news coverage.
      {{if .SourceURL}}Primary source: <a href="{{.SourceURL}}" target="_blank" rel="noopener noreferrer">{{.SourceHost}}</a>{{end}}
    </div>
  </div>
</body>
</html>
`))
