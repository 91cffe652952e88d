package news

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"blogr/app"
)

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Consolidated is the merged view of the articles selected for one topic.
type Consolidated struct {
	Topic       string   `json:"consolidated_topic"`
	Content     string   `json:"combined_content"`
	Description string   `json:"combined_description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"-"`
	Competitors []string `json:"-"`
	SourceURL   string   `json:"-"`
}

func domain(uri string) string {
	v := strings.TrimPrefix(strings.TrimPrefix(uri, "https://"), "http://")
	if i := strings.Index(v, "/"); i >= 0 {
		v = v[:i]
	}
	return v
}

// Aggregate merges a list of articles into a consolidated view. NewsAPI often
// truncates content, so titles and descriptions take priority as model input.
func Aggregate(articles []*Article, category string) *Consolidated {
	if len(articles) == 0 {
		app.Log("news", "No articles provided for aggregation in category %s", category)
		return nil
	}

	var content []string
	var descriptions []string
	var titles []string
	var imageURL string
	var sourceURL string
	competitors := map[string]bool{}

	for _, a := range articles {
		if a.Title != "" && a.Title != Removed {
			titles = append(titles, a.Title)
		}
		if a.Description != "" && a.Description != Removed {
			descriptions = append(descriptions, a.Description)
		}

		if a.Title != "" {
			content = append(content, fmt.Sprintf("### Source: %s\n", a.Title))
		}
		if a.Description != "" {
			content = append(content, a.Description)
		}
		if c := strings.TrimSpace(a.Content); c != Removed && len(c) > 50 {
			content = append(content, c)
		}

		// first valid image gives us the primary source for the disclaimer
		if imageURL == "" && a.Image != "" {
			imageURL = a.Image
			sourceURL = a.URL
		}

		if d := domain(a.URL); d != "" {
			competitors[d] = true
		}
	}

	if sourceURL == "" {
		sourceURL = articles[0].URL
	}

	topic := "Recent Cryptocurrency News"
	if len(titles) > 0 {
		topic = titles[0]
	}
	if len(titles) > 1 {
		topic = fmt.Sprintf("Comprehensive Crypto: %s and more...", titles[0])
		if len(topic) > 150 {
			topic = truncate(topic, 150) + "..."
		}
	}

	if len(descriptions) == 0 {
		descriptions = append(descriptions, fmt.Sprintf("A deep dive into recent developments in %s.", category))
	}

	combined := "No substantial content found from sources. AI will generate based on topic."
	if len(content) > 0 {
		combined = strings.Join(content, "\n\n---\n\n")
	}

	description := strings.TrimSpace(strings.Join(descriptions, " "))
	if len(description) > 300 {
		description = truncate(description, 300)
	}

	var domains []string
	for d := range competitors {
		domains = append(domains, d)
	}

	return &Consolidated{
		Topic:       topic,
		Content:     combined,
		Description: strings.TrimSpace(description),
		Category:    category,
		ImageURL:    imageURL,
		Competitors: domains,
		SourceURL:   sourceURL,
	}
}
