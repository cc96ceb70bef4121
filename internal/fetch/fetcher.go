// Package fetch turns video feeds and manifests into store items.
//
// Feeds are parsed with gofeed; only entries that carry video media
// (an enclosure or a media:content element) become items. Nothing is
// stored here: callers decide what to do with the result.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/reels/internal/store"
)

// UserAgent is sent with every request.
const UserAgent = "reels/0.3 (+https://github.com/abelbrown/reels)"

// Source is a feed to poll.
type Source struct {
	Name string // display name; the feed title when empty
	URL  string
}

// Fetcher retrieves items from feed sources.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given HTTP client timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// SourcesFromURLs builds unnamed sources; each takes its feed title.
func SourcesFromURLs(urls []string) []Source {
	out := make([]Source, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		out = append(out, Source{URL: u})
	}
	return out
}

// Fetch retrieves video items from src in feed order.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]store.Item, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	name := src.Name
	if name == "" {
		name = feed.Title
	}
	now := time.Now()
	items := make([]store.Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if it, ok := convertFeedItem(fi, name, now); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// convertFeedItem maps a feed entry to an item. Entries without video
// media are skipped.
func convertFeedItem(fi *gofeed.Item, sourceName string, fetched time.Time) (store.Item, bool) {
	ref := videoRef(fi)
	if ref == "" {
		return store.Item{}, false
	}

	published := fetched
	if fi.PublishedParsed != nil {
		published = *fi.PublishedParsed
	} else if fi.UpdatedParsed != nil {
		published = *fi.UpdatedParsed
	}

	author := ""
	if fi.Author != nil {
		author = fi.Author.Name
	} else if len(fi.Authors) > 0 && fi.Authors[0] != nil {
		author = fi.Authors[0].Name
	}

	caption := fi.Title
	if caption == "" {
		caption = truncate(fi.Description, 140)
	}

	return store.Item{
		ID:         generateID(fi, ref),
		MediaRef:   ref,
		Caption:    caption,
		Author:     author,
		SourceName: sourceName,
		Link:       fi.Link,
		Published:  published,
		Fetched:    fetched,
	}, true
}

// videoRef picks the first video URL from media:content, then
// enclosures.
func videoRef(fi *gofeed.Item) string {
	if media, ok := fi.Extensions["media"]; ok {
		for _, c := range media["content"] {
			u := c.Attrs["url"]
			if u != "" && (c.Attrs["medium"] == "video" || isVideo(c.Attrs["type"], u)) {
				return u
			}
		}
		// media:group wraps media:content in some feeds
		for _, g := range media["group"] {
			for _, c := range g.Children["content"] {
				if u := c.Attrs["url"]; u != "" && (c.Attrs["medium"] == "video" || isVideo(c.Attrs["type"], u)) {
					return u
				}
			}
		}
	}
	for _, enc := range fi.Enclosures {
		if enc != nil && enc.URL != "" && isVideo(enc.Type, enc.URL) {
			return enc.URL
		}
	}
	return ""
}

var videoExts = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".webm": true, ".m3u8": true, ".mkv": true,
}

func isVideo(mimeType, u string) bool {
	mimeType = strings.ToLower(mimeType)
	if strings.HasPrefix(mimeType, "video/") || mimeType == "application/x-mpegurl" || mimeType == "application/vnd.apple.mpegurl" {
		return true
	}
	if mimeType != "" {
		return false
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return videoExts[strings.ToLower(path.Ext(u))]
}

// generateID is stable across fetches: GUID first, then the media URL.
func generateID(fi *gofeed.Item, ref string) string {
	if fi.GUID != "" {
		return hashString(fi.GUID)
	}
	return hashString(ref)
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}

// truncate shortens s to maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
