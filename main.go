package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"blogr/ai"
	"blogr/app"
	"blogr/blog"
	"blogr/cover"
	"blogr/data"
	"blogr/markets"
	"blogr/news"
)

var QueryFlag = flag.String("query", "cryptocurrency", "News search query")
var TopicsFlag = flag.Int("topics", 3, "Number of topics to generate posts for")
var ArticlesFlag = flag.Int("articles", 100, "Max articles to fetch")
var CategoryFlag = flag.String("category", "crypto", "Blog category")
var PublishFlag = flag.Bool("publish", false, "Publish posts to Blogger")
var EnvFlag = flag.String("env-file", ".env", "Env file to load")

// established outlets whose coverage the research agent positions against
var competitors = []string{
	"cointelegraph.com",
	"coindesk.com",
	"decrypt.co",
	"theblockcrypto.com",
	"binance.com/blog",
	"ethereum.org",
	"bitcoin.org",
	"forbes.com/crypto",
	"bloomberg.com/crypto",
	"cryptoslate.com",
	"blockworks.co",
	"investopedia.com/cryptocurrency",
}

// pause between topics to stay under model rate limits
const topicCooldown = 30 * time.Second

func validateEnv() error {
	required := []string{"NEWSAPI_API_KEY", "GEMINI_API_KEY"}
	for _, v := range required {
		if os.Getenv(v) == "" {
			return fmt.Errorf("%s is not set", v)
		}
	}
	// image generation is optional, posts go out without a cover
	if os.Getenv("TOGETHER_API_KEY") == "" {
		app.Log("main", "TOGETHER_API_KEY is not set, posts will have no featured image")
	}
	return nil
}

func main() {
	flag.Parse()

	if err := godotenv.Load(*EnvFlag); err != nil && !os.IsNotExist(err) {
		app.Log("main", "Could not load %s: %v", *EnvFlag, err)
	}

	if err := validateEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.OpenLogFile(data.Dir("logs"))
	defer app.CloseLogFile()

	ctx := context.Background()

	articles := news.FetchAll(*QueryFlag, *ArticlesFlag)
	if len(articles) == 0 {
		app.Log("main", "No articles available, nothing to do")
		os.Exit(1)
	}
	news.Enrich(articles, 10)
	data.SaveJSON("articles.json", articles)

	topics := ai.TrendingTopics(ctx, articles, *TopicsFlag)
	app.Log("main", "Trending topics: %v", topics)

	prices := markets.Prices()
	if prices != nil {
		app.Log("main", "Market prices: %s", markets.Format(prices))
	}

	var published int

	for i, topic := range topics {
		if i > 0 {
			app.Log("main", "Cooling down for %v before the next topic", topicCooldown)
			time.Sleep(topicCooldown)
		}

		if data.SeenTopic(topic) {
			app.Log("main", "Already wrote about %q, skipping", topic)
			continue
		}

		if err := run(ctx, topic, articles, prices); err != nil {
			app.Log("main", "Skipping topic %q: %v", topic, err)
			continue
		}
		published++
	}

	app.Log("main", "Done: %d of %d topics produced posts", published, len(topics))
	app.DumpAPILog()

	if published == 0 {
		os.Exit(1)
	}
}

// run produces, saves and optionally publishes one post for a topic.
func run(ctx context.Context, topic string, articles []*news.Article, prices map[string]string) error {
	app.Log("main", "Processing topic %q", topic)

	relevant := ai.FilterArticles(ctx, articles, topic)
	if len(relevant) == 0 {
		return fmt.Errorf("no relevant articles")
	}

	consolidated := news.Aggregate(relevant, *CategoryFlag)
	if consolidated == nil {
		return fmt.Errorf("aggregation produced nothing")
	}
	consolidated.Topic = topic
	consolidated.Competitors = append(consolidated.Competitors, competitors...)

	var imagePath, imageURI string
	if raw, err := ai.GenerateImage(ctx, topic); err != nil {
		app.Log("main", "Continuing without a cover image: %v", err)
	} else {
		safe := blog.SanitizeFilename(topic)
		category := blog.SanitizeFilename(*CategoryFlag)
		if imagePath, imageURI, err = cover.Transform(raw, topic, category, safe); err != nil {
			app.Log("main", "Cover transform failed: %v", err)
			imagePath, imageURI = "", ""
		}
	}

	research, err := ai.PerformResearch(ctx, topic, consolidated.Competitors)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	content, err := ai.WriteContent(ctx, &ai.ContentInput{
		Data:      consolidated,
		Research:  research,
		ImagePath: imagePath,
		Prices:    prices,
	})
	if err != nil {
		return fmt.Errorf("content generation failed: %w", err)
	}

	post := blog.Parse(content)
	if post.Title == "" {
		post.Title = topic
	}
	if post.Date == "" {
		post.Date = time.Now().Format("2006-01-02")
	}

	body := blog.RenderBody(post, imageURI)
	doc, err := blog.Document(post, body, imageURI, consolidated.SourceURL)
	if err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}

	htmlPath, err := blog.SaveDraft(post, doc)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}

	var result *blog.Result
	if *PublishFlag && blog.Configured() {
		result, err = blog.Publish(ctx, post, doc)
		if err != nil {
			app.Log("main", "Publishing failed, draft kept at %s: %v", htmlPath, err)
		}
	} else if *PublishFlag {
		app.Log("main", "Publishing not configured, draft kept at %s", htmlPath)
	}

	if err := blog.Archive(topic, post, htmlPath, imagePath, result); err != nil {
		app.Log("main", "Failed to archive post: %v", err)
	}

	return nil
}
