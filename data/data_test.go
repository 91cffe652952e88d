package data

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// the archive opens its database once per process
	tmp, err := os.MkdirTemp("", "blogr-data-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", tmp)
	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func TestSaveLoad(t *testing.T) {
	if err := Save("test.txt", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	b, err := Load("test.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Errorf("loaded %q", b)
	}
}

func TestSaveLoadJSON(t *testing.T) {
	type payload struct {
		Name  string
		Count int
	}

	if err := SaveJSON("test.json", &payload{Name: "btc", Count: 3}); err != nil {
		t.Fatal(err)
	}

	var got payload
	if err := LoadJSON("test.json", &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "btc" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestArchive(t *testing.T) {
	id, err := ArchivePost(&PostRecord{
		Topic:    "Bitcoin ETF Flows",
		Title:    "Bitcoin ETF Flows Explained",
		Category: "crypto",
		Labels:   []string{"bitcoin", "etf", "crypto"},
		HTMLPath: "/tmp/post.html",
	})
	if err != nil {
		t.Fatalf("ArchivePost failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	if !SeenTopic("Bitcoin ETF Flows") {
		t.Error("topic should be marked seen")
	}
	if SeenTopic("Never Written About") {
		t.Error("unknown topic should not be seen")
	}

	// re-archiving with the same id records the publish outcome
	if _, err := ArchivePost(&PostRecord{
		ID:         id,
		Topic:      "Bitcoin ETF Flows",
		Title:      "Bitcoin ETF Flows Explained",
		Category:   "crypto",
		BloggerID:  "12345",
		BloggerURL: "https://example.blogspot.com/post",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	posts, err := RecentPosts(10)
	if err != nil {
		t.Fatalf("RecentPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}

	got := posts[0]
	if got.ID != id {
		t.Errorf("id = %q, want %q", got.ID, id)
	}
	if got.BloggerURL != "https://example.blogspot.com/post" {
		t.Errorf("blogger url = %q", got.BloggerURL)
	}
	if len(got.Labels) != 3 || got.Labels[0] != "bitcoin" {
		t.Errorf("labels = %v", got.Labels)
	}
}
