package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
)

const untitled = "Untitled"

// Parser turns RSS or Atom documents into entries. gofeed parsers keep
// per-document state, so a fresh one is built for every run.
type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
		FeedType:    feed.FeedType,
	}

	atomEntries := p.atomEntries(feed, data)

	entries := make([]Entry, 0, len(feed.Items))
	for i, item := range feed.Items {
		if item == nil {
			continue
		}

		var atomEntry *atom.Entry
		if atomEntries != nil {
			atomEntry = atomEntries[i]
		}

		entries = append(entries, p.normalizeEntry(item, atomEntry))
	}

	return metadata, entries, nil
}

// atomEntries re-reads Atom documents to recover category labels, which the
// universal translator reduces to terms.
func (p *Parser) atomEntries(feed *gofeed.Feed, data []byte) []*atom.Entry {
	if feed.FeedType != "atom" {
		return nil
	}

	atomFeed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	if err != nil || len(atomFeed.Entries) != len(feed.Items) {
		return nil
	}

	return atomFeed.Entries
}

func (p *Parser) normalizeEntry(item *gofeed.Item, atomEntry *atom.Entry) Entry {
	title := extract("title", "", func() string { return strings.TrimSpace(item.Title) })
	link := extract("link", "", func() string {
		if item.Link == "" && len(item.Links) > 0 {
			return strings.TrimSpace(item.Links[0])
		}
		return strings.TrimSpace(item.Link)
	})

	entry := Entry{
		GUID:        extract("guid", "", func() string { return strings.TrimSpace(item.GUID) }),
		Title:       cmp.Or(title, untitled),
		Link:        link,
		Content:     extract("content", "", func() string { return cmp.Or(item.Content, item.Description) }),
		Description: extract("description", "", func() string { return item.Description }),
		Authors:     extract("authors", nil, func() []string { return p.extractAuthors(item) }),
		Categories:  extract("categories", nil, func() []string { return p.extractCategories(item, atomEntry) }),
		PubDate:     extract("pub_date", p.now(), func() time.Time { return p.extractPubDate(item) }),

		Enclosures:      extract("enclosures", nil, func() []Enclosure { return p.extractEnclosures(item) }),
		MediaContents:   extract("media_content", nil, func() []MediaContent { return p.extractMediaContents(item) }),
		MediaThumbnails: extract("media_thumbnail", nil, func() []string { return p.extractMediaThumbnails(item) }),
	}

	entry.PubDate = entry.PubDate.UTC().Truncate(time.Second)

	if entry.GUID == "" {
		entry.GUID = generateGUID(link, title)
	}

	return entry
}

// generateGUID derives a stable identifier for entries published without one.
func generateGUID(link, title string) string {
	hash := sha256.Sum256([]byte(link + title))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	people := item.Authors
	if len(people) == 0 && item.Author != nil {
		people = []*gofeed.Person{item.Author}
	}

	// gofeed maps only the first dc:creator of an RSS item to Authors.
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > len(people) {
		people = make([]*gofeed.Person, 0, len(item.DublinCoreExt.Creator))
		for _, creator := range item.DublinCoreExt.Creator {
			people = append(people, &gofeed.Person{Name: creator})
		}
	}

	var authors []string
	for _, person := range people {
		if person == nil {
			continue
		}
		if name := cmp.Or(strings.TrimSpace(person.Name), strings.TrimSpace(person.Email)); name != "" {
			authors = append(authors, name)
		}
	}

	return authors
}

func (p *Parser) extractCategories(item *gofeed.Item, atomEntry *atom.Entry) []string {
	var categories []string

	if atomEntry != nil {
		for _, category := range atomEntry.Categories {
			if category == nil {
				continue
			}
			if label := cmp.Or(strings.TrimSpace(category.Label), strings.TrimSpace(category.Term)); label != "" {
				categories = append(categories, label)
			}
		}
		return categories
	}

	for _, category := range item.Categories {
		if label := strings.TrimSpace(category); label != "" {
			categories = append(categories, label)
		}
	}

	return categories
}

func (p *Parser) extractPubDate(item *gofeed.Item) time.Time {
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	return p.now()
}

func (p *Parser) extractEnclosures(item *gofeed.Item) []Enclosure {
	var enclosures []Enclosure
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		enclosures = append(enclosures, Enclosure{
			URL:  strings.TrimSpace(enclosure.URL),
			Type: strings.TrimSpace(enclosure.Type),
		})
	}
	return enclosures
}

func (p *Parser) extractMediaContents(item *gofeed.Item) []MediaContent {
	var contents []MediaContent
	for _, e := range mediaExtensions(item, "content") {
		if url := strings.TrimSpace(e.Attrs["url"]); url != "" {
			contents = append(contents, MediaContent{
				URL:    url,
				Medium: strings.TrimSpace(e.Attrs["medium"]),
				Type:   strings.TrimSpace(e.Attrs["type"]),
			})
		}
	}
	return contents
}

func (p *Parser) extractMediaThumbnails(item *gofeed.Item) []string {
	var thumbnails []string
	for _, e := range mediaExtensions(item, "thumbnail") {
		if url := strings.TrimSpace(e.Attrs["url"]); url != "" {
			thumbnails = append(thumbnails, url)
		}
	}
	return thumbnails
}

// mediaExtensions returns media:<name> elements of an item, including those
// nested in media:group.
func mediaExtensions(item *gofeed.Item, name string) []ext.Extension {
	media, ok := item.Extensions["media"]
	if !ok {
		return nil
	}

	found := append([]ext.Extension{}, media[name]...)
	for _, group := range media["group"] {
		found = append(found, group.Children[name]...)
	}
	return found
}

// extract evaluates one entry field, falling back when it panics on
// malformed input so a single bad field never drops the entry.
func extract[T any](field string, fallback T, fn func() T) (value T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Failed to extract entry field, using default", "field", field, "error", r)
			value = fallback
		}
	}()
	return fn()
}

func joinNonEmpty(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
