package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/reels/internal/store"
)

// ErrEmptyManifest is returned for a manifest with no usable entries.
var ErrEmptyManifest = errors.New("manifest has no items")

// ManifestEntry is one reel in a JSON manifest.
type ManifestEntry struct {
	ID       string `json:"id,omitempty"`
	User     string `json:"user"`
	Caption  string `json:"caption"`
	Src      string `json:"src"`
	Link     string `json:"link,omitempty"`
	Likes    int    `json:"likes,omitempty"`
	Comments int    `json:"comments,omitempty"`
}

type manifestDoc struct {
	Name  string          `json:"name"`
	Items []ManifestEntry `json:"items"`
}

// ParseManifest reads a manifest: either {"name": ..., "items": [...]} or
// a bare array of entries. Entries without src are dropped. Entries
// without id get a UUID derived from src, so re-imports are idempotent.
func ParseManifest(r io.Reader, sourceName string) ([]store.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc manifestDoc
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &doc.Items)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if sourceName == "" {
		sourceName = doc.Name
	}

	now := time.Now()
	items := make([]store.Item, 0, len(doc.Items))
	for _, e := range doc.Items {
		src := strings.TrimSpace(e.Src)
		if src == "" {
			continue
		}
		id := e.ID
		if id == "" {
			id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(src)).String()
		}
		items = append(items, store.Item{
			ID:         id,
			MediaRef:   src,
			Caption:    e.Caption,
			Author:     e.User,
			SourceName: sourceName,
			Link:       e.Link,
			Likes:      e.Likes,
			Comments:   e.Comments,
			Published:  now,
			Fetched:    now,
		})
	}
	if len(items) == 0 {
		return nil, ErrEmptyManifest
	}
	return items, nil
}

// Manifest loads a manifest from a local path or an http(s) URL.
func (f *Fetcher) Manifest(ctx context.Context, ref string) ([]store.Item, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		fh, err := os.Open(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		defer fh.Close()
		return ParseManifest(fh, "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	return ParseManifest(resp.Body, "")
}
