// Package media is the playback engine behind the feed controller.
//
// A terminal cannot decode video, so Load probes the media instead: a
// HEAD request for http(s) refs, a stat for local files. A successful
// probe yields a Handle whose play, pause and mute state is tracked
// here and rendered by the viewer. Looping is always on.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/reels/internal/otel"
	"github.com/abelbrown/reels/internal/reel"
)

var (
	// ErrUnsupported means the ref is not a playable video.
	ErrUnsupported = errors.New("media: unsupported media")
	// ErrNotFound means the media does not exist.
	ErrNotFound = errors.New("media: not found")
)

// Options configures an Engine.
type Options struct {
	Timeout         time.Duration // per probe
	ProbesPerSecond float64
	Burst           int
}

// Engine probes media and tracks playback per handle. Load is safe to
// call from any goroutine; the rest is called from the event loop but
// guarded anyway so the viewer can read Status while loads complete.
type Engine struct {
	client  *http.Client
	limiter *rate.Limiter
	events  *otel.Logger
	now     func() time.Time

	mu      sync.Mutex
	live    map[*Handle]bool
	loads   int
	release int
}

// NewEngine creates an Engine. A nil logger discards events.
func NewEngine(opts Options, events *otel.Logger) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	limit := rate.Inf
	if opts.ProbesPerSecond > 0 {
		limit = rate.Limit(opts.ProbesPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if events == nil {
		events = otel.NewNullLogger()
	}
	return &Engine{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, opts.Burst),
		events:  events,
		now:     time.Now,
		live:    make(map[*Handle]bool),
	}
}

var _ reel.Engine = (*Engine)(nil)
var _ reel.Releaser = (*Engine)(nil)

// Load probes ref and returns a *Handle.
func (e *Engine) Load(ctx context.Context, ref string) (reel.Handle, error) {
	start := e.now()
	h, err := e.probe(ctx, ref)
	if err != nil {
		e.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindLoadError, Comp: "media", Source: ref, Err: err.Error(), Dur: e.now().Sub(start)})
		return nil, err
	}
	e.mu.Lock()
	e.live[h] = true
	e.loads++
	e.mu.Unlock()
	e.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindLoadDone, Comp: "media", Source: ref, Dur: e.now().Sub(start)})
	return h, nil
}

func (e *Engine) probe(ctx context.Context, ref string) (*Handle, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("media: rate limiter wait: %w", err)
	}

	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	switch u.Scheme {
	case "http", "https":
		return e.probeHTTP(ctx, ref)
	case "file":
		return probeFile(u.Path)
	case "":
		return probeFile(ref)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
}

func (e *Engine) probeHTTP(ctx context.Context, ref string) (*Handle, error) {
	resp, err := e.do(ctx, http.MethodHead, ref)
	if err != nil {
		return nil, err
	}
	// Some CDNs refuse HEAD; ask for a single byte instead.
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = e.do(ctx, http.MethodGet, ref)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("media: %s returned %s", ref, resp.Status)
	}

	ct := resp.Header.Get("Content-Type")
	if !playable(ct, ref) {
		return nil, fmt.Errorf("%w: %s is %q", ErrUnsupported, ref, ct)
	}
	size := resp.ContentLength
	if size < 0 {
		size = 0
	}
	return &Handle{Ref: ref, ContentType: ct, Size: size}, nil
}

func (e *Engine) do(ctx context.Context, method, ref string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("media: create request: %w", err)
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("media: probe cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("media: probe %s: %w", ref, err)
	}
	resp.Body.Close()
	return resp, nil
}

func probeFile(p string) (*Handle, error) {
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("media: stat %s: %w", p, err)
	}
	if fi.IsDir() || !playable("", p) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, p)
	}
	return &Handle{Ref: p, ContentType: mimeByExt[strings.ToLower(path.Ext(p))], Size: fi.Size()}, nil
}

var mimeByExt = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".m3u8": "application/vnd.apple.mpegurl",
}

// playable accepts video and HLS content types. A missing or generic
// type falls back to the file extension.
func playable(contentType, ref string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "video/"):
		return true
	case ct == "application/vnd.apple.mpegurl", ct == "application/x-mpegurl":
		return true
	case ct != "" && ct != "application/octet-stream" && ct != "binary/octet-stream":
		return false
	}
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}
	_, ok := mimeByExt[strings.ToLower(path.Ext(ref))]
	return ok
}

// Play starts or resumes looping playback.
func (e *Engine) Play(h reel.Handle) {
	if mh, ok := h.(*Handle); ok {
		mh.play(e.now())
	}
}

// Pause stops playback, keeping the position.
func (e *Engine) Pause(h reel.Handle) {
	if mh, ok := h.(*Handle); ok {
		mh.pause(e.now())
	}
}

// SetMuted sets audio output for a handle.
func (e *Engine) SetMuted(h reel.Handle, muted bool) {
	if mh, ok := h.(*Handle); ok {
		mh.setMuted(muted)
	}
}

// Release frees a handle. Later calls on it are ignored.
func (e *Engine) Release(h reel.Handle) {
	mh, ok := h.(*Handle)
	if !ok {
		return
	}
	mh.pause(e.now())
	mh.mu.Lock()
	mh.released = true
	mh.mu.Unlock()

	e.mu.Lock()
	if e.live[mh] {
		delete(e.live, mh)
		e.release++
	}
	e.mu.Unlock()
	e.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRelease, Comp: "media", Source: mh.Ref})
}

// Status reports playback state for a handle.
func (e *Engine) Status(h reel.Handle) Status {
	mh, ok := h.(*Handle)
	if !ok || mh == nil {
		return Status{}
	}
	return mh.status(e.now())
}

// Stats counts handles loaded, released and still live.
func (e *Engine) Stats() (loaded, released, live int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads, e.release, len(e.live)
}
