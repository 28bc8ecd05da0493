package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	FeedType    string
}

// Entry is one normalized item of a parsed feed, before persistence.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Content     string // Full content, falling back to the description
	Description string // Raw description/summary as published
	Authors     []string
	Categories  []string
	PubDate     time.Time

	Enclosures      []Enclosure
	MediaContents   []MediaContent
	MediaThumbnails []string
}

// Author returns the entry authors joined for storage.
func (e *Entry) Author() string {
	return joinNonEmpty(e.Authors)
}

// CategoryList returns the entry category labels joined for storage.
func (e *Entry) CategoryList() string {
	return joinNonEmpty(e.Categories)
}

type Enclosure struct {
	URL  string
	Type string
}

type MediaContent struct {
	URL    string
	Medium string
	Type   string
}

// Catalog types

type SourceConfig struct {
	Name           string // Derived from filename (without .yml extension)
	URL            string `yaml:"url"`
	Title          string `yaml:"title"`
	ExtractContent bool   `yaml:"extract_content"` // fetch article body when the feed ships none
}

type ListConfig struct {
	Slug        string             // Derived from filename, normalized with Slugify
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	UserID      int64              `yaml:"user_id"`
	Public      bool               `yaml:"public"`
	Sources     []ListSourceConfig `yaml:"sources"`
}

type ListSourceConfig struct {
	Source            string   `yaml:"source"`
	AuthorWhitelist   []string `yaml:"author_whitelist"`
	AuthorBlacklist   []string `yaml:"author_blacklist"`
	CategoryWhitelist []string `yaml:"category_whitelist"`
	CategoryBlacklist []string `yaml:"category_blacklist"`
}
