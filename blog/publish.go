package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	blogger "google.golang.org/api/blogger/v3"
	"google.golang.org/api/option"

	"blogr/app"
	"blogr/data"
)

// Result describes a published post.
type Result struct {
	ID     string
	URL    string
	Labels []string
}

// Configured reports whether publishing credentials are present.
func Configured() bool {
	if os.Getenv("BLOGGER_BLOG_ID") == "" {
		return false
	}
	if os.Getenv("BLOGGER_TOKEN_JSON") != "" {
		return true
	}
	_, err := os.Stat(tokenPath())
	return err == nil
}

func tokenPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".blogr", "token_blogger.json")
}

// loadToken reads the oauth token from the environment or the state dir.
func loadToken() (*oauth2.Token, error) {
	raw := []byte(os.Getenv("BLOGGER_TOKEN_JSON"))
	if len(raw) == 0 {
		b, err := os.ReadFile(tokenPath())
		if err != nil {
			return nil, fmt.Errorf("no blogger token configured: %w", err)
		}
		raw = b
	}

	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parsing blogger token: %w", err)
	}
	return &tok, nil
}

// tokenSource wraps the stored token. With oauth client credentials present
// the token refreshes itself when the access token expires, otherwise the
// token is used as is for the run.
func tokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	id := os.Getenv("BLOGGER_CLIENT_ID")
	secret := os.Getenv("BLOGGER_CLIENT_SECRET")
	if id == "" || secret == "" {
		return oauth2.StaticTokenSource(tok)
	}

	conf := &oauth2.Config{
		ClientID:     id,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{blogger.BloggerScope},
	}
	return conf.TokenSource(ctx, tok)
}

// Publish posts the rendered HTML to Blogger as a live post and records the
// outcome in the archive.
func Publish(ctx context.Context, p *Post, html string) (*Result, error) {
	blogID := os.Getenv("BLOGGER_BLOG_ID")
	if blogID == "" {
		return nil, fmt.Errorf("BLOGGER_BLOG_ID is not set")
	}

	tok, err := loadToken()
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, tokenSource(ctx, tok))
	svc, err := blogger.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating blogger service: %w", err)
	}

	labels := p.Labels()

	post := &blogger.Post{
		Kind:    "blogger#post",
		Title:   p.Title,
		Content: html,
		Labels:  labels,
	}

	start := time.Now()
	out, err := svc.Posts.Insert(blogID, post).IsDraft(false).Context(ctx).Do()
	if err != nil {
		app.RecordAPICall("blogger", "POST", "blogs/"+blogID+"/posts", 0, time.Since(start), err)
		if strings.Contains(err.Error(), "rateLimitExceeded") {
			return nil, fmt.Errorf("blogger rate limit exceeded: %w", err)
		}
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	app.RecordAPICall("blogger", "POST", "blogs/"+blogID+"/posts", 200, time.Since(start), nil)

	if labelsDiffer(labels, out.Labels) {
		app.Log("blog", "Labels differ after publish: sent %v, got %v", labels, out.Labels)
	}

	app.Log("blog", "Published %q: %s", p.Title, out.Url)
	return &Result{ID: out.Id, URL: out.Url, Labels: out.Labels}, nil
}

// labelsDiffer compares label sets ignoring order.
func labelsDiffer(sent, got []string) bool {
	if len(sent) != len(got) {
		return true
	}
	set := make(map[string]bool, len(sent))
	for _, l := range sent {
		set[l] = true
	}
	for _, l := range got {
		if !set[l] {
			return true
		}
	}
	return false
}

// Archive stores the run outcome for a post in the local archive.
func Archive(topic string, p *Post, htmlPath, imagePath string, res *Result) error {
	rec := &data.PostRecord{
		Topic:     topic,
		Title:     p.Title,
		Category:  p.Category(),
		Labels:    p.Labels(),
		HTMLPath:  htmlPath,
		ImagePath: imagePath,
	}
	if res != nil {
		rec.BloggerID = res.ID
		rec.BloggerURL = res.URL
	}
	_, err := data.ArchivePost(rec)
	return err
}
