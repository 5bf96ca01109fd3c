package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/gitmorph/internal/config"
	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/session"
)

const (
	logV1 = "a1 (Eve) (1 day ago) (init)  (HEAD -> main) []"
	logV2 = "b2 (Bob) (now) (second)  (HEAD -> main) [a1]\na1 (Eve) (1 day ago) (init)  []"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *animation.ManualScheduler) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	sched := animation.NewManualScheduler()
	s, err := New(Options{Config: cfg, Scheduler: sched})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s, sched
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type planStats struct {
	NodesEntering   int `json:"nodes_entering"`
	NodesPersisting int `json:"nodes_persisting"`
	NodesExiting    int `json:"nodes_exiting"`
	LinksEntering   int `json:"links_entering"`
}

type visualizeBody struct {
	Stats    *planStats `json:"stats"`
	Queued   bool       `json:"queued"`
	Warnings []any      `json:"warnings"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line"`
}

func snapshotHashes(t *testing.T, h http.Handler, prefix string) []string {
	t.Helper()
	rec := do(t, h, http.MethodGet, prefix+"/api/snapshot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET snapshot = %d", rec.Code)
	}
	var snap struct {
		Nodes []struct {
			Hash string `json:"hash"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	out := []string{}
	for _, n := range snap.Nodes {
		out = append(out, n.Hash)
	}
	return out
}

func TestHealthAndInfo(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, s.Handler(), http.MethodGet, "/api/info", nil)
	info := decode[infoResponse](t, rec)
	if info.ProjectName != "GitViz" || info.Policy != "replace" || info.Version == "" {
		t.Errorf("info = %+v", info)
	}
}

func TestBasePath(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.BasePath = "/viz" })

	if rec := do(t, s.Handler(), http.MethodGet, "/viz/api/info", nil); rec.Code != http.StatusOK {
		t.Errorf("GET /viz/api/info = %d", rec.Code)
	}
	if rec := do(t, s.Handler(), http.MethodGet, "/api/info", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/info = %d, want 404 outside the base path", rec.Code)
	}
	if rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz should stay at the root, got %d", rec.Code)
	}
}

func TestVisualize(t *testing.T) {
	s, sched := newTestServer(t, nil)
	h := s.Handler()

	if got := snapshotHashes(t, h, ""); len(got) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", got)
	}

	rec := do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV1})
	if rec.Code != http.StatusOK {
		t.Fatalf("visualize = %d %s", rec.Code, rec.Body.String())
	}
	body := decode[visualizeBody](t, rec)
	if body.Stats == nil || body.Stats.NodesEntering != 1 {
		t.Errorf("stats = %+v, want one entering node", body.Stats)
	}
	if s.Session().State() != session.StateTransitioning {
		t.Errorf("state = %s, want transitioning until the animation ends", s.Session().State())
	}
	sched.Advance(animation.DefaultDuration)
	if s.Session().State() != session.StateIdle {
		t.Errorf("state = %s after the animation", s.Session().State())
	}

	rec = do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV2})
	body = decode[visualizeBody](t, rec)
	want := &planStats{NodesEntering: 1, NodesPersisting: 1, LinksEntering: 1}
	if diff := cmp.Diff(want, body.Stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b2", "a1"}, snapshotHashes(t, h, "")); diff != "" {
		t.Errorf("snapshot (-want +got):\n%s", diff)
	}
}

func TestVisualizeFormatErrorKeepsSnapshot(t *testing.T) {
	s, sched := newTestServer(t, nil)
	h := s.Handler()
	do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV2})
	sched.Advance(animation.DefaultDuration)

	tests := []struct {
		name string
		body map[string]any
		code string
		line int
	}{
		{"malformed after", map[string]any{"after": "a1 (Eve) (now) (x)  []\nnot a commit"}, "INVALID_FORMAT", 2},
		{"empty after", map[string]any{"after": "  \n"}, "EMPTY_INPUT", 0},
		{"malformed before", map[string]any{"before": "garbage", "after": logV1}, "INVALID_FORMAT", 1},
		{"unknown field", map[string]any{"after": logV1, "colour": "red"}, "INVALID_INPUT", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/visualize", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			got := decode[errorBody](t, rec)
			if got.Code != tt.code || got.Line != tt.line {
				t.Errorf("error = %+v, want code %s line %d", got, tt.code, tt.line)
			}
			if diff := cmp.Diff([]string{"b2", "a1"}, snapshotHashes(t, h, "")); diff != "" {
				t.Errorf("snapshot changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVisualizeBeforeAfter(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/visualize", map[string]string{"before": logV1, "after": logV2})
	if rec.Code != http.StatusOK {
		t.Fatalf("visualize = %d %s", rec.Code, rec.Body.String())
	}
	body := decode[visualizeBody](t, rec)
	want := &planStats{NodesEntering: 1, NodesPersisting: 1, LinksEntering: 1}
	if diff := cmp.Diff(want, body.Stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if got := s.Session().Current().Len(); got != 1 {
		t.Errorf("baseline has %d nodes, want the before log", got)
	}
}

func TestVisualizeRejectPolicy(t *testing.T) {
	s, sched := newTestServer(t, func(c *config.Config) { c.Policy = "reject" })
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV1}); rec.Code != http.StatusOK {
		t.Fatalf("first visualize = %d", rec.Code)
	}
	for _, body := range []map[string]string{
		{"after": logV2},
		{"before": logV1, "after": logV2},
	} {
		rec := do(t, h, http.MethodPost, "/api/visualize", body)
		if rec.Code != http.StatusConflict {
			t.Errorf("overlapping visualize = %d, want 409", rec.Code)
		}
		if got := decode[errorBody](t, rec); got.Code != "TRANSITION_IN_FLIGHT" {
			t.Errorf("code = %s", got.Code)
		}
	}
	sched.Advance(animation.DefaultDuration)
	if rec := do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV2}); rec.Code != http.StatusOK {
		t.Errorf("visualize after finish = %d", rec.Code)
	}
}

func TestVisualizeQueuePolicy(t *testing.T) {
	s, sched := newTestServer(t, func(c *config.Config) { c.Policy = "queue" })
	h := s.Handler()

	do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV1})
	rec := do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV2})
	body := decode[visualizeBody](t, rec)
	if !body.Queued || body.Stats != nil {
		t.Errorf("body = %+v, want queued without a plan", body)
	}
	sched.Advance(animation.DefaultDuration)
	sched.Advance(animation.DefaultDuration)
	if got := s.Session().Current().Len(); got != 2 {
		t.Errorf("baseline has %d nodes, want the queued log", got)
	}
}

func TestHighlight(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	do(t, h, http.MethodPost, "/api/visualize", map[string]string{"after": logV2})

	tests := []struct {
		name   string
		hash   string
		status int
	}{
		{"known", "a1", http.StatusOK},
		{"unknown", "ffff", http.StatusNotFound},
		{"not hex", "HEAD", http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/highlight", map[string]string{"hash": tt.hash})
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/api/highlight", map[string]string{"hash": "a1"})
	var nb struct {
		Node     struct{ Hash string }   `json:"node"`
		Children []struct{ Hash string } `json:"children"`
		Links    []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"links"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &nb); err != nil {
		t.Fatal(err)
	}
	if nb.Node.Hash != "a1" || len(nb.Children) != 1 || len(nb.Links) != 1 || nb.Links[0].Source != "b2" {
		t.Errorf("neighbourhood = %+v", nb)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.metrics.OnTransitionStart("x", 3)
	s.metrics.OnCacheHit(context.Background(), "layout")

	rec := do(t, s.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	for _, want := range []string{
		`gitmorph_transitions_total{event="start"} 1`,
		`gitmorph_cache_operations_total{key_type="layout",result="hit"} 1`,
		"gitmorph_websocket_clients 0",
		"go_goroutines",
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWebsocketStream(t *testing.T) {
	s, sched := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var m map[string]any
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		return m
	}

	if m := read(); m["type"] != "snapshot" {
		t.Fatalf("first message = %v, want snapshot", m["type"])
	}
	waitFor(t, func() bool { return s.Hub().Len() == 1 })

	do(t, s.Handler(), http.MethodPost, "/api/visualize", map[string]string{"after": logV2})
	m := read()
	if m["type"] != "plan" || m["plan"] == nil || m["duration_ms"] != float64(animation.DefaultDuration.Milliseconds()) {
		t.Errorf("plan message = %v", m)
	}
	sched.Advance(animation.DefaultDuration)

	do(t, s.Handler(), http.MethodPost, "/api/highlight", map[string]string{"hash": "b2"})
	if m := read(); m["type"] != "highlight" {
		t.Errorf("message = %v, want highlight", m["type"])
	}

	s.Hub().Close()
	waitFor(t, func() bool { return s.Hub().Len() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// =============================================================================
// Repository source
// =============================================================================

type fakeSource struct {
	mu       sync.Mutex
	logs     []string
	failures int
	calls    int
}

func (f *fakeSource) Log(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New(errors.ErrCodeRepository, "cannot lock ref")
	}
	text := f.logs[0]
	if len(f.logs) > 1 {
		f.logs = f.logs[1:]
	}
	return text, nil
}

func (f *fakeSource) WatchDirs() ([]string, error) { return nil, nil }

func TestReload(t *testing.T) {
	src := &fakeSource{logs: []string{logV1, logV1, logV2}, failures: 1}
	sched := animation.NewManualScheduler()
	s, err := New(Options{Config: config.Default(), Source: src, Scheduler: sched})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("source read %d times, want one retry", src.calls)
	}
	sched.Advance(animation.DefaultDuration)
	first := s.Session().Current()

	if err := s.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Session().State() != session.StateIdle || s.Session().Current() != first {
		t.Error("unchanged log started a transition")
	}

	if err := s.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.Session().Latest().Len(); got != 2 {
		t.Errorf("latest has %d nodes after the log changed", got)
	}
}

func TestReloadFormatError(t *testing.T) {
	src := &fakeSource{logs: []string{""}}
	s, err := New(Options{Config: config.Default(), Source: src})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(context.Background()); !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("Reload() error = %v, want EMPTY_INPUT", err)
	}
}

func TestRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New(errors.ErrCodeInvalidFormat, "bad")
	})
	if calls != 1 || !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("calls = %d, err = %v", calls, err)
	}

	calls = 0
	err = retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New(errors.ErrCodeRepository, "locked")
	})
	if calls != 3 || !errors.Is(err, errors.ErrCodeRepository) {
		t.Errorf("calls = %d, err = %v", calls, err)
	}
}

func TestIgnoreEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"branch update", fsnotify.Event{Name: "/r/.git/refs/heads/main", Op: fsnotify.Create}, false},
		{"head write", fsnotify.Event{Name: "/r/.git/HEAD", Op: fsnotify.Write}, false},
		{"ref removed", fsnotify.Event{Name: "/r/.git/refs/tags/v1", Op: fsnotify.Remove}, false},
		{"lock file", fsnotify.Event{Name: "/r/.git/refs/heads/main.lock", Op: fsnotify.Create}, true},
		{"index", fsnotify.Event{Name: "/r/.git/index", Op: fsnotify.Write}, true},
		{"reflog", fsnotify.Event{Name: "/r/.git/logs/HEAD", Op: fsnotify.Write}, true},
		{"chmod", fsnotify.Event{Name: "/r/.git/HEAD", Op: fsnotify.Chmod}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ignoreEvent(tt.ev); got != tt.want {
				t.Errorf("ignoreEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServeShutsDown(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var resp *http.Response
	waitFor(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		return err == nil
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
