package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelbrown/reels/internal/otel"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine() (*Engine, *fakeClock) {
	e := NewEngine(Options{Timeout: 2 * time.Second}, nil)
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	e.now = clk.now
	return e, clk
}

func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "2048")
	})
	mux.HandleFunc("/live.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl; charset=utf-8")
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/nohead.webm", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			t.Errorf("fallback GET without range: %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte{0})
	})
	mux.HandleFunc("/broken.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadHTTP(t *testing.T) {
	srv := mediaServer(t)
	tests := []struct {
		path    string
		wantErr error
		anyErr  bool
	}{
		{path: "/clip.mp4"},
		{path: "/live.m3u8"},
		{path: "/nohead.webm"},
		{path: "/missing.mp4", wantErr: ErrNotFound},
		{path: "/page.html", wantErr: ErrUnsupported},
		{path: "/broken.mp4", anyErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e, _ := newTestEngine()
			h, err := e.Load(context.Background(), srv.URL+tt.path)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("expected error")
				}
			default:
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				if h.(*Handle).Ref != srv.URL+tt.path {
					t.Errorf("Ref = %s", h.(*Handle).Ref)
				}
			}
		})
	}
}

func TestLoadHTTPRecordsSize(t *testing.T) {
	srv := mediaServer(t)
	e, _ := newTestEngine()
	h, err := e.Load(context.Background(), srv.URL+"/clip.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if mh := h.(*Handle); mh.Size != 2048 || mh.ContentType != "video/mp4" {
		t.Errorf("handle = %+v", mh)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.MOV")
	os.WriteFile(clip, []byte("moov"), 0644)
	notes := filepath.Join(dir, "notes.txt")
	os.WriteFile(notes, []byte("hi"), 0644)

	e, _ := newTestEngine()
	for _, ref := range []string{clip, "file://" + clip} {
		h, err := e.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("Load(%s): %v", ref, err)
		}
		if mh := h.(*Handle); mh.Size != 4 || mh.ContentType != "video/quicktime" {
			t.Errorf("handle = %+v", mh)
		}
	}

	if _, err := e.Load(context.Background(), filepath.Join(dir, "gone.mp4")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file err = %v", err)
	}
	if _, err := e.Load(context.Background(), notes); !errors.Is(err, ErrUnsupported) {
		t.Errorf("text file err = %v", err)
	}
	if _, err := e.Load(context.Background(), dir); !errors.Is(err, ErrUnsupported) {
		t.Errorf("directory err = %v", err)
	}
	if _, err := e.Load(context.Background(), "rtsp://cam/stream"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("rtsp err = %v", err)
	}
}

func TestLoadRespectsContext(t *testing.T) {
	e := NewEngine(Options{ProbesPerSecond: 0.001, Burst: 1}, nil)
	dir := t.TempDir()
	clip := filepath.Join(dir, "a.mp4")
	os.WriteFile(clip, nil, 0644)

	// The first probe uses the burst token.
	if _, err := e.Load(context.Background(), clip); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := e.Load(ctx, clip); err == nil {
		t.Error("expected the limiter to give up on the deadline")
	}
}

func TestPlaybackState(t *testing.T) {
	e, clk := newTestEngine()
	h := &Handle{Ref: "a.mp4"}

	e.SetMuted(h, true)
	e.Play(h)
	clk.advance(3 * time.Second)
	e.Play(h) // already playing: no new span
	st := e.Status(h)
	if !st.Playing || !st.Muted || st.Played != 3*time.Second || st.Plays != 1 {
		t.Fatalf("status = %+v", st)
	}

	e.Pause(h)
	clk.advance(10 * time.Second)
	if st := e.Status(h); st.Playing || st.Played != 3*time.Second {
		t.Fatalf("paused status = %+v", st)
	}

	e.SetMuted(h, false)
	e.Play(h)
	clk.advance(time.Second)
	if st := e.Status(h); st.Muted || st.Played != 4*time.Second || st.Plays != 2 {
		t.Fatalf("resumed status = %+v", st)
	}
}

func TestReleaseStopsHandle(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "a.mp4")
	os.WriteFile(clip, nil, 0644)

	ring := otel.NewRingBuffer(16)
	events := otel.NewNullLogger()
	events.SetRingBuffer(ring)
	e := NewEngine(Options{}, events)

	h, err := e.Load(context.Background(), clip)
	if err != nil {
		t.Fatal(err)
	}
	e.Play(h)
	e.Release(h)
	e.Release(h)
	e.Play(h)
	e.SetMuted(h, true)

	st := e.Status(h)
	if st.Playing || st.Muted || !st.Released {
		t.Errorf("released status = %+v", st)
	}
	if loaded, released, live := e.Stats(); loaded != 1 || released != 1 || live != 0 {
		t.Errorf("stats = %d %d %d", loaded, released, live)
	}

	events.Close()
	if got := ring.Stats()[otel.KindRelease]; got != 2 {
		t.Errorf("release events = %d", got)
	}
}

func TestStatusOfForeignHandle(t *testing.T) {
	e, _ := newTestEngine()
	if st := e.Status("not a handle"); st != (Status{}) {
		t.Errorf("status = %+v", st)
	}
	e.Play(42) // ignored
}

func TestPlayable(t *testing.T) {
	tests := []struct {
		ct, ref string
		want    bool
	}{
		{"video/mp4", "x", true},
		{"Video/WebM; codecs=vp9", "x", true},
		{"application/x-mpegURL", "x", true},
		{"text/html", "a.mp4", false},
		{"application/octet-stream", "https://cdn/a.mp4?sig=abc", true},
		{"", "https://cdn/a.gif", false},
		{"", "/local/b.mkv", true},
	}
	for _, tt := range tests {
		if got := playable(tt.ct, tt.ref); got != tt.want {
			t.Errorf("playable(%q, %q) = %v, want %v", tt.ct, tt.ref, got, tt.want)
		}
	}
}
