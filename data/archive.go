package data

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite database handle
var (
	db     *sql.DB
	dbOnce sync.Once
)

// PostRecord is one generated blog post in the archive.
type PostRecord struct {
	ID           string
	Topic        string
	Title        string
	Category     string
	Labels       []string
	HTMLPath     string
	ImagePath    string
	BloggerID    string
	BloggerURL   string
	CreatedAt    time.Time
}

// initDB initializes the SQLite archive
func initDB() error {
	var initErr error
	dbOnce.Do(func() {
		path := filepath.Join(Dir("data"), "archive.db")

		var err error
		db, err = sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=10000")
		if err != nil {
			initErr = fmt.Errorf("failed to open archive: %w", err)
			return
		}

		// SQLite works best with limited connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS posts (
				id TEXT PRIMARY KEY,
				topic TEXT NOT NULL,
				title TEXT NOT NULL,
				category TEXT NOT NULL,
				labels TEXT,
				html_path TEXT,
				image_path TEXT,
				blogger_id TEXT,
				blogger_url TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_posts_topic ON posts(topic);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
		`)
		if err != nil {
			initErr = fmt.Errorf("failed to create tables: %w", err)
			return
		}
	})
	return initErr
}

// ArchivePost records a generated post and returns its archive id.
func ArchivePost(rec *PostRecord) (string, error) {
	if err := initDB(); err != nil {
		return "", err
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO posts (id, topic, title, category, labels, html_path, image_path, blogger_id, blogger_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blogger_id = excluded.blogger_id,
			blogger_url = excluded.blogger_url
	`, rec.ID, rec.Topic, rec.Title, rec.Category, strings.Join(rec.Labels, ","),
		rec.HTMLPath, rec.ImagePath, rec.BloggerID, rec.BloggerURL, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to archive post: %w", err)
	}
	return rec.ID, nil
}

// RecentPosts returns the latest archived posts, newest first.
func RecentPosts(limit int) ([]*PostRecord, error) {
	if err := initDB(); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, topic, title, category, labels, html_path, image_path, blogger_id, blogger_url, created_at
		FROM posts ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*PostRecord
	for rows.Next() {
		rec := new(PostRecord)
		var labels string
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Title, &rec.Category, &labels,
			&rec.HTMLPath, &rec.ImagePath, &rec.BloggerID, &rec.BloggerURL, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if labels != "" {
			rec.Labels = strings.Split(labels, ",")
		}
		posts = append(posts, rec)
	}
	return posts, rows.Err()
}

// SeenTopic reports whether a post for this topic was already generated.
func SeenTopic(topic string) bool {
	if err := initDB(); err != nil {
		return false
	}
	var count int
	db.QueryRow(`SELECT COUNT(1) FROM posts WHERE topic = ?`, topic).Scan(&count)
	return count > 0
}
