package blog

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const sampleMarkdown = `title: Bitcoin Hits New Highs
description: "An in-depth look at the latest bitcoin rally"
date: 2025-06-01
categories: [crypto, bitcoin, markets]
tags: [bitcoin, etf, rally, institutional, halving]
featuredImage: /home/user/.blogr/images/bitcoin_rally_1700000000.jpg

# Bitcoin Hits New Highs

The rally continues as institutional demand grows.

## What Changed

Spot ETF inflows accelerated this quarter.`

func TestParse(t *testing.T) {
	p := Parse(sampleMarkdown)

	if p.Title != "Bitcoin Hits New Highs" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Description != "An in-depth look at the latest bitcoin rally" {
		t.Errorf("description = %q", p.Description)
	}
	if p.Date != "2025-06-01" {
		t.Errorf("date = %q", p.Date)
	}
	if len(p.Categories) != 3 || p.Categories[0] != "crypto" {
		t.Errorf("categories = %v", p.Categories)
	}
	if len(p.Tags) != 5 {
		t.Errorf("tags = %v", p.Tags)
	}
	if !strings.Contains(p.Image, "bitcoin_rally") {
		t.Errorf("image = %q", p.Image)
	}
	if strings.Contains(p.Markdown, "featuredImage") {
		t.Error("metadata block should be stripped from the body")
	}
	if !strings.HasPrefix(p.Markdown, "# Bitcoin Hits New Highs") {
		t.Errorf("body should start at the heading, got %.40q", p.Markdown)
	}
}

func TestParseNoMetadata(t *testing.T) {
	p := Parse("# A Heading Only\n\nSome body text.")

	if p.Title != "A Heading Only" {
		t.Errorf("title should come from the H1, got %q", p.Title)
	}
	if p.Date != "" || len(p.Tags) != 0 {
		t.Error("expected empty metadata")
	}
}

func TestCategory(t *testing.T) {
	p := &Post{Categories: []string{"Bitcoin", "markets"}}
	if got := p.Category(); got != "bitcoin" {
		t.Errorf("Category() = %q", got)
	}

	empty := &Post{}
	if got := empty.Category(); got != "crypto" {
		t.Errorf("default category = %q", got)
	}
}

func TestLabels(t *testing.T) {
	p := &Post{
		Tags:       []string{"Bitcoin", "ETF", "bitcoin"},
		Categories: []string{"Crypto", "etf"},
	}
	labels := p.Labels()

	want := []string{"bitcoin", "etf", "crypto"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestLabelsFromTitle(t *testing.T) {
	p := &Post{Title: "The Rise and Fall of a Major Exchange Empire"}
	labels := p.Labels()

	if labels[len(labels)-1] != "crypto" {
		t.Error("crypto label should always be appended")
	}
	for _, l := range labels[:len(labels)-1] {
		if len(l) <= 3 {
			t.Errorf("short word %q should have been skipped", l)
		}
	}
	if len(labels) > 6 {
		t.Errorf("expected at most 5 title words plus crypto, got %v", labels)
	}
}

func TestLabelsUseConfiguredCategory(t *testing.T) {
	p := &Post{Categories: []string{"Markets"}}
	labels := p.Labels()

	if len(labels) != 1 || labels[0] != "markets" {
		t.Errorf("labels = %v, want just the category", labels)
	}
	for _, l := range labels {
		if l == "crypto" {
			t.Error("crypto should not be hardcoded when the category differs")
		}
	}
}

func TestLabelsDiffer(t *testing.T) {
	tests := []struct {
		name string
		sent []string
		got  []string
		want bool
	}{
		{"equal", []string{"a", "b"}, []string{"a", "b"}, false},
		{"reordered", []string{"a", "b"}, []string{"b", "a"}, false},
		{"dropped", []string{"a", "b"}, []string{"a"}, true},
		{"replaced", []string{"a", "b"}, []string{"a", "c"}, true},
		{"both empty", nil, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := labelsDiffer(tc.sent, tc.got); got != tc.want {
				t.Errorf("labelsDiffer(%v, %v) = %v", tc.sent, tc.got, got)
			}
		})
	}
}

func TestTokenSource(t *testing.T) {
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}

	t.Setenv("BLOGGER_CLIENT_ID", "")
	t.Setenv("BLOGGER_CLIENT_SECRET", "")

	got, err := tokenSource(context.Background(), tok).Token()
	if err != nil {
		t.Fatalf("static source failed: %v", err)
	}
	if got.AccessToken != "access" {
		t.Errorf("access token = %q", got.AccessToken)
	}

	// with client credentials the source can refresh expired tokens; a
	// still-valid token is returned without a round trip
	t.Setenv("BLOGGER_CLIENT_ID", "id")
	t.Setenv("BLOGGER_CLIENT_SECRET", "secret")

	got, err = tokenSource(context.Background(), tok).Token()
	if err != nil {
		t.Fatalf("refreshing source failed: %v", err)
	}
	if got.AccessToken != "access" {
		t.Errorf("access token = %q", got.AccessToken)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bitcoin Hits $100K!", "bitcoin_hits_100k"},
		{"DeFi — The Future?", "defi_the_future"},
		{"Café Crypto: Überblick", "cafe_crypto_uberblick"},
		{"  spaced   out  ", "spaced_out"},
		{"", "untitled"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}

	for _, tc := range tests {
		if got := SanitizeFilename(tc.input); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCleanArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wants   []string
		rejects []string
	}{
		{
			name:    "bracketed directions",
			input:   "Intro text. [INSERT CHART HERE] More text.",
			wants:   []string{"Intro text.", "More text."},
			rejects: []string{"INSERT CHART"},
		},
		{
			name:    "markdown links survive",
			input:   "See [the report](https://cointelegraph.com/news/report) for details.",
			wants:   []string{"[the report](https://cointelegraph.com/news/report)"},
			rejects: nil,
		},
		{
			name:    "placeholder links removed",
			input:   "Check [our guide](https://example.com/guide) and https://yoursite.com/page today.",
			wants:   []string{"today."},
			rejects: []string{"example.com", "yoursite.com"},
		},
		{
			name:    "handles removed",
			input:   "Follow the discussion @cryptodev for more.",
			rejects: []string{"@cryptodev"},
		},
		{
			name:    "editorial remarks removed",
			input:   "Good paragraph.\nNote: replace this section before publishing.\nAnother paragraph.",
			wants:   []string{"Good paragraph.", "Another paragraph."},
			rejects: []string{"replace this section"},
		},
		{
			name:    "html comments removed",
			input:   "Before <!-- internal note --> after.",
			wants:   []string{"Before", "after."},
			rejects: []string{"internal note"},
		},
		{
			name:  "blank runs collapsed",
			input: "One.\n\n\n\n\nTwo.",
			wants: []string{"One.\n\nTwo."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanArtifacts(tc.input)
			for _, w := range tc.wants {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, r := range tc.rejects {
				if strings.Contains(got, r) {
					t.Errorf("output still contains %q:\n%s", r, got)
				}
			}
		})
	}
}

func TestRenderBody(t *testing.T) {
	p := Parse(sampleMarkdown)
	html := RenderBody(p, "data:image/jpeg;base64,AAAA")

	if strings.Contains(html, "<h1") {
		t.Error("h1 headings should be demoted in the body")
	}
	if !strings.Contains(html, "<h2") {
		t.Error("expected h2 headings")
	}
}

func TestRenderBodyLinks(t *testing.T) {
	p := &Post{Markdown: "A [link](https://decrypt.co/defi) in text."}
	html := RenderBody(p, "")

	if !strings.Contains(html, `target="_blank"`) {
		t.Error("links should open in a new tab")
	}
	if !strings.Contains(html, `rel="noopener noreferrer"`) {
		t.Error("links should carry rel attributes")
	}
}

func TestRenderBodyInlineImage(t *testing.T) {
	p := &Post{
		Image:    "/home/user/.blogr/images/cover_123.jpg",
		Markdown: "Look:\n\n![cover](images/cover_123.jpg)\n\nDone.",
	}
	html := RenderBody(p, "data:image/jpeg;base64,AAAA")

	if !strings.Contains(html, `class="in-content-image"`) {
		t.Error("inline featured image should be swapped for the data uri")
	}
	if strings.Contains(html, `src="images/cover_123.jpg"`) {
		t.Error("original image path should not remain")
	}
}

func TestDocument(t *testing.T) {
	p := Parse(sampleMarkdown)
	body := RenderBody(p, "")

	doc, err := Document(p, body, "data:image/jpeg;base64,AAAA", "https://coindesk.com/markets/story")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Bitcoin Hits New Highs</title>",
		`property="og:title"`,
		`name="twitter:card"`,
		"application/ld+json",
		`"@type": "NewsArticle"`,
		`"datePublished": "2025-06-01T00:00:00Z"`,
		`class="category-tag"`,
		`class="featured-image"`,
		"coindesk.com",
		"generated by an AI content creation system",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}
