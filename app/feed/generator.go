package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rssync/app/cfg"
	"github.com/lysyi3m/rssync/app/database"
	"github.com/microcosm-cc/bluemonday"
)

// Generator renders a list as an RSS 2.0 document with Media RSS images.
type Generator struct {
	policy *bluemonday.Policy
}

func NewGenerator() *Generator {
	return &Generator{policy: bluemonday.UGCPolicy()}
}

func (g *Generator) Run(list database.List, items []database.Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	listLink := fmt.Sprintf("%s/lists/%s", cfg.Get().PublicURL(), list.Slug)

	g.writeElement(&buf, "title", list.Name, 4)
	g.writeElement(&buf, "link", listLink, 4)
	g.writeElement(&buf, "description", cmp.Or(list.Description, "RSS feed created with RSSync"), 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(listLink+"/rss")))

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 {
		lastBuildDate = items[0].PubDate.In(time.Local)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSSync/%s", cfg.Get().Version), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.Item) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "pubDate", item.PubDate.In(time.Local).Format(time.RFC1123Z), 6)
	g.writeElement(buf, "author", item.Author, 6)

	var description strings.Builder
	if item.ImageURL != "" {
		description.WriteString(`<p><img src="`)
		description.WriteString(html.EscapeString(item.ImageURL))
		description.WriteString(`" alt="" style="max-width:100%;height:auto;" /></p>`)
	}
	if item.Content != "" {
		description.WriteString(g.policy.Sanitize(item.Content))
	}
	if description.Len() > 0 {
		buf.WriteString("      <description><![CDATA[")
		buf.WriteString(escapeCDATA(description.String()))
		buf.WriteString("]]></description>\n")
	}

	for _, category := range database.SplitList(item.Categories) {
		g.writeElement(buf, "category", category, 6)
	}

	if item.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <media:content url=\"%s\" medium=\"image\" />\n",
			html.EscapeString(item.ImageURL)))
	}

	if item.SourceURL != "" {
		buf.WriteString(fmt.Sprintf("      <source url=\"%s\">", html.EscapeString(item.SourceURL)))
		xml.EscapeText(buf, []byte(cmp.Or(item.SourceName, item.SourceURL)))
		buf.WriteString("</source>\n")
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// escapeCDATA splits any "]]>" so content cannot terminate the section.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
