// Package news fetches source articles from NewsAPI and RSS feeds.
package news

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"

	"blogr/app"
)

// Endpoint is the NewsAPI everything endpoint. Overridable in tests.
var Endpoint = "https://newsapi.org/v2/everything"

var client = &http.Client{Timeout: 20 * time.Second}

// Article is a single source article, in NewsAPI shape.
type Article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

type response struct {
	Status       string     `json:"status"`
	Code         string     `json:"code"`
	Message      string     `json:"message"`
	TotalResults int        `json:"totalResults"`
	Articles     []*Article `json:"articles"`
}

// Removed is the tombstone NewsAPI puts in place of withdrawn content.
const Removed = "[Removed]"

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// Fetch queries NewsAPI for articles matching query, retrying transport
// failures with exponential backoff.
func Fetch(query string, max int) ([]*Article, error) {
	// read at call time so .env loading in main is picked up
	key := os.Getenv("NEWSAPI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("NEWSAPI_API_KEY is not set")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprintf("%d", max))
	params.Set("apiKey", key)

	uri := Endpoint + "?" + params.Encode()

	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		app.Log("news", "Fetching up to %d articles for %q from NewsAPI (attempt %d)", max, query, attempt+1)

		start := time.Now()
		rsp, err := client.Get(uri)
		if err != nil {
			app.RecordAPICall("newsapi", "GET", Endpoint, 0, time.Since(start), err)
			lastErr = err
			time.Sleep(backoff(attempt))
			continue
		}

		b, err := io.ReadAll(rsp.Body)
		rsp.Body.Close()
		app.RecordAPICall("newsapi", "GET", Endpoint, rsp.StatusCode, time.Since(start), err)
		if err != nil {
			lastErr = err
			time.Sleep(backoff(attempt))
			continue
		}

		if rsp.StatusCode >= 500 {
			lastErr = fmt.Errorf("newsapi returned %d", rsp.StatusCode)
			time.Sleep(backoff(attempt))
			continue
		}

		var res response
		if err := json.Unmarshal(b, &res); err != nil {
			return nil, fmt.Errorf("failed to parse newsapi response: %w", err)
		}

		if res.Status != "ok" {
			return nil, fmt.Errorf("newsapi error %s: %s", res.Code, res.Message)
		}

		if len(res.Articles) == 0 {
			app.Log("news", "No articles found for query %q", query)
			return nil, nil
		}

		app.Log("news", "Fetched %d articles for %q", len(res.Articles), query)
		return res.Articles, nil
	}

	return nil, fmt.Errorf("failed to fetch articles for %q after 3 attempts: %w", query, lastErr)
}

// FetchAll merges NewsAPI results with the RSS feed supplement.
func FetchAll(query string, max int) []*Article {
	articles, err := Fetch(query, max)
	if err != nil {
		app.Log("news", "NewsAPI fetch failed: %v", err)
	}

	feedArticles := fetchFeeds()
	if len(feedArticles) > 0 {
		app.Log("news", "Adding %d articles from RSS feeds", len(feedArticles))
		articles = append(articles, feedArticles...)
	}

	for name, stat := range FeedStatus() {
		if stat.Error != nil {
			app.Log("news", "Feed %s is failing: %v (attempt %d)", name, stat.Error, stat.Attempts)
		}
	}

	return articles
}
