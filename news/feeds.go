package news

import (
	"embed"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"blogr/app"
)

//go:embed feeds.json
var f embed.FS

var mutex sync.RWMutex

var feeds = map[string]string{}

var status = map[string]*Feed{}

// Feed tracks the pull state of one RSS source.
type Feed struct {
	Name     string
	URL      string
	Error    error
	Attempts int
	Backoff  time.Time
}

func loadFeeds() {
	// load the feeds file
	data, _ := f.ReadFile("feeds.json")
	// unpack into feeds
	mutex.Lock()
	if err := json.Unmarshal(data, &feeds); err != nil {
		app.Log("news", "Error parsing feeds.json: %v", err)
	}
	mutex.Unlock()
}

func feedBackoff(attempts int) time.Duration {
	if attempts > 13 {
		return time.Hour
	}
	return time.Duration(math.Pow(float64(attempts), math.E)) * time.Millisecond * 100
}

// fetchFeeds pulls every configured RSS feed, honouring per-feed backoff.
// At most 10 items are taken per feed.
func fetchFeeds() []*Article {
	mutex.RLock()
	if len(feeds) == 0 {
		mutex.RUnlock()
		loadFeeds()
	} else {
		mutex.RUnlock()
	}

	p := gofeed.NewParser()

	urls := map[string]string{}
	stats := map[string]Feed{}

	var sorted []string

	mutex.RLock()
	for name, url := range feeds {
		sorted = append(sorted, name)
		urls[name] = url

		if stat, ok := status[name]; ok {
			stats[name] = *stat
		}
	}
	mutex.RUnlock()

	sort.Strings(sorted)

	var articles []*Article

	for _, name := range sorted {
		feed := urls[name]

		// check last attempt
		stat, ok := stats[name]
		if !ok {
			stat = Feed{
				Name: name,
				URL:  feed,
			}

			mutex.Lock()
			status[name] = &stat
			mutex.Unlock()
		}

		// it's a reattempt, so we need to check what's going on
		if stat.Attempts > 0 {
			// there is still some time on the clock
			if time.Until(stat.Backoff) > time.Duration(0) {
				// skip this iteration
				continue
			}

			app.Log("news", "Reattempting to pull %s", feed)
		}

		start := time.Now()
		parsed, err := p.ParseURL(feed)
		app.RecordAPICall("rss", "GET", feed, 0, time.Since(start), err)
		if err != nil {
			// up the attempts
			stat.Attempts++
			// set the error
			stat.Error = err
			// set the backoff
			stat.Backoff = time.Now().Add(feedBackoff(stat.Attempts))

			app.Log("news", "Error parsing %s: %v, attempt %d backoff until %v", feed, err, stat.Attempts, stat.Backoff)

			mutex.Lock()
			status[name] = &stat
			mutex.Unlock()

			// skip ahead
			continue
		}

		mutex.Lock()
		// successful pull
		stat.Attempts = 0
		stat.Backoff = time.Time{}
		stat.Error = nil

		// readd
		status[name] = &stat
		mutex.Unlock()

		for i, item := range parsed.Items {
			// only 10 items
			if i >= 10 {
				break
			}

			article := &Article{
				Title:       item.Title,
				Description: item.Description,
				URL:         item.Link,
			}
			article.Source.Name = name

			if item.PublishedParsed != nil {
				article.PublishedAt = item.PublishedParsed.Format(time.RFC3339)
			}

			if item.Image != nil {
				article.Image = item.Image.URL
			}

			articles = append(articles, article)
		}
	}

	return articles
}

// FeedStatus returns a snapshot of per-feed pull state.
func FeedStatus() map[string]Feed {
	mutex.RLock()
	defer mutex.RUnlock()
	out := make(map[string]Feed, len(status))
	for name, stat := range status {
		out[name] = *stat
	}
	return out
}
