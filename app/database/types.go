package database

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Source struct {
	ID             int64      `db:"id"`
	Name           string     `db:"name"`  // Catalog identifier derived from filename
	URL            string     `db:"url"`   // RSS/Atom feed URL
	Title          string     `db:"title"` // Display title
	ExtractContent bool       `db:"extract_content"`
	LastRefresh    *time.Time `db:"last_refresh"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// DisplayName returns the title when set and the catalog name otherwise.
func (s *Source) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

type Item struct {
	ID         int64     `db:"id"`
	SourceID   int64     `db:"source_id"`
	GUID       string    `db:"guid"`
	Title      string    `db:"title"`
	Link       string    `db:"link"`
	Content    string    `db:"content"`
	Author     string    `db:"author"`     // Comma-joined author names
	Categories string    `db:"categories"` // Comma-joined category labels
	ImageURL   string    `db:"image_url"`
	PubDate    time.Time `db:"pub_date"`
	CreatedAt  time.Time `db:"created_at"`

	// Populated by reads joined with sources
	SourceName string `db:"source_name"`
	SourceURL  string `db:"source_url"`
}

type List struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	IsPublic    bool      `db:"is_public"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ListSummary is a list together with the number of its bound sources.
type ListSummary struct {
	List
	SourceCount int `db:"source_count"`
}

// ListSource binds a source to a list. Filter values are comma-separated
// substrings; an empty value imposes no constraint.
type ListSource struct {
	ID                int64  `db:"id"`
	ListID            int64  `db:"list_id"`
	SourceID          int64  `db:"source_id"`
	AuthorWhitelist   string `db:"author_whitelist"`
	AuthorBlacklist   string `db:"author_blacklist"`
	CategoryWhitelist string `db:"category_whitelist"`
	CategoryBlacklist string `db:"category_blacklist"`
}
