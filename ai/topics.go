package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"blogr/app"
	"blogr/news"
)

// FallbackTopic is used when topic extraction fails outright.
const FallbackTopic = "Latest Cryptocurrency News"

// max articles fed to the model to keep the context bounded
const maxTopicInput = 50

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	quotedRe = regexp.MustCompile(`"([^"]+)"`)
)

// stripFence returns the contents of a ```json fence, or the input unchanged.
func stripFence(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

func fallbackTopics(n int) []string {
	topics := make([]string, n)
	for i := range topics {
		topics[i] = FallbackTopic
	}
	return topics
}

// TrendingTopics asks the model to cluster article titles and descriptions
// into n distinct trending topics.
func TrendingTopics(ctx context.Context, articles []*news.Article, n int) []string {
	if len(articles) == 0 {
		app.Log("ai", "No articles provided for trending topic extraction, using fallback")
		return fallbackTopics(n)
	}

	var input strings.Builder
	for i, a := range articles {
		if i >= maxTopicInput {
			break
		}
		if a.Title != "" && a.Title != news.Removed {
			fmt.Fprintf(&input, "Title: %s\n", a.Title)
		}
		if a.Description != "" && a.Description != news.Removed {
			fmt.Fprintf(&input, "Description: %s\n\n", a.Description)
		}
	}

	if input.Len() == 0 {
		app.Log("ai", "No usable text for trending topic extraction, using fallback")
		return fallbackTopics(n)
	}

	prompt := fmt.Sprintf(
		"You are an expert crypto analyst. Given the following news headlines and summaries "+
			"from recent cryptocurrency news, identify the %d most distinct and trending "+
			"topics or themes. Each topic should be specific enough for a blog post but broad enough "+
			"to be trending. Return ONLY a JSON array of %d strings, each being a distinct topic.\n\n"+
			"Example format: [\"Bitcoin Halving Impact\", \"Ethereum ETF Developments\", \"DeFi Innovations\"]\n\n"+
			"News Articles:\n%s\n\nTopics:",
		n, n, strings.TrimSpace(input.String()))

	text, err := generate(ctx, prompt)
	if err != nil {
		app.Log("ai", "Failed to extract trending topics: %v, using fallback", err)
		return fallbackTopics(n)
	}

	if topics := parseTopics(text, n); topics != nil {
		return topics
	}

	app.Log("ai", "Could not parse topics from model output, using fallback")
	return fallbackTopics(n)
}

// parseTopics reads a JSON array of strings, falling back to any quoted
// strings in the text. Returns nil if fewer than n topics were found.
func parseTopics(text string, n int) []string {
	var topics []string
	if err := json.Unmarshal([]byte(stripFence(text)), &topics); err == nil && len(topics) >= n {
		return topics[:n]
	}

	topics = nil
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		topics = append(topics, m[1])
	}
	if len(topics) >= n {
		return topics[:n]
	}
	return nil
}

// FilterArticles asks the model which articles are relevant to the topic,
// most relevant first. Falls back to the first 10 articles.
func FilterArticles(ctx context.Context, articles []*news.Article, topic string) []*news.Article {
	fallback := articles
	if len(fallback) > 10 {
		fallback = fallback[:10]
	}

	var listing strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&listing, "%d. %s\n", i, a.Title)
	}

	prompt := fmt.Sprintf(
		"Given the topic '%s', analyze these articles and return a JSON array of indices "+
			"of the most relevant articles (0-based), sorted by relevance. Return ONLY the array.\n\n"+
			"Articles:\n%s", topic, listing.String())

	text, err := generate(ctx, prompt)
	if err != nil {
		app.Log("ai", "Failed to filter articles for topic %q: %v", topic, err)
		return fallback
	}

	var indices []int
	if err := json.Unmarshal([]byte(stripFence(text)), &indices); err != nil {
		app.Log("ai", "Could not parse relevance indices for topic %q", topic)
		return fallback
	}

	var relevant []*news.Article
	for _, i := range indices {
		if i >= 0 && i < len(articles) {
			relevant = append(relevant, articles[i])
		}
	}
	if len(relevant) == 0 {
		return fallback
	}
	return relevant
}
