package hue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// fakeBridge records PUT bodies per path and answers like a v1 bridge.
type fakeBridge struct {
	mu       sync.Mutex
	puts     map[string]map[string]any
	lights   string
	failPath string
}

func newFakeBridge(t *testing.T) (*fakeBridge, *httptest.Server) {
	t.Helper()
	fb := &fakeBridge{puts: make(map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBridge) serve(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/api/key") {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"error":{"type":1,"address":"/","description":"unauthorized user"}}]`)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/key")

	switch r.Method {
	case http.MethodGet:
		switch path {
		case "/lights":
			_, _ = io.WriteString(w, fb.lights)
		case "":
			_, _ = io.WriteString(w, `{"lights":{}}`)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPut:
		if path == fb.failPath {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.puts[path] = body
		fb.mu.Unlock()
		_, _ = io.WriteString(w, `[{"success":{}}]`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fb *fakeBridge) recorded() map[string]map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make(map[string]map[string]any, len(fb.puts))
	for k, v := range fb.puts {
		out[k] = v
	}
	return out
}

func TestClient_URL(t *testing.T) {
	c := NewClient("localhost", "api-key", nil)
	const root = "http://localhost/api/api-key"

	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{"root", nil, root},
		{"single route", []string{"lights"}, root + "/lights"},
		{"variadic routes", []string{"lights", "5"}, root + "/lights/5"},
		{"state path", []string{"lights", "10", "state"}, root + "/lights/10/state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.URL(tt.segments...); got != tt.want {
				t.Errorf("URL(%v) = %q, want %q", tt.segments, got, tt.want)
			}
		})
	}
}

func TestClient_Get(t *testing.T) {
	_, srv := newFakeBridge(t)
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())

	body, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != `{"lights":{}}` {
		t.Errorf("Get() = %s", body)
	}
}

func TestClient_GetStatusError(t *testing.T) {
	_, srv := newFakeBridge(t)
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())

	_, err := c.Get(context.Background(), "nothing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound || statusErr.Path != "/nothing" {
		t.Errorf("StatusError = %+v", statusErr)
	}
	if strings.Contains(err.Error(), "key") {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestClient_GetAPIError(t *testing.T) {
	_, srv := newFakeBridge(t)
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "wrong", srv.Client())

	_, err := c.Get(context.Background(), "lights")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Get() error = %v, want *APIError", err)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0].Type != 1 {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	c := NewClient(addr, "secret-key", &http.Client{Timeout: time.Second})
	_, err := c.Get(context.Background(), "lights")
	if err == nil {
		t.Fatal("Get() against a closed server should fail")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error leaks the API key: %v", err)
	}
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		t.Fatalf("error %v does not wrap *url.Error", err)
	}
	if !strings.Contains(uerr.URL, "/api/<redacted>/lights") {
		t.Errorf("URL = %q, want redacted key", uerr.URL)
	}
}

func TestClient_TimeoutKeepsURLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "secret-key", &http.Client{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), "lights")
	var uerr *url.Error
	if !errors.As(err, &uerr) || !uerr.Timeout() {
		t.Fatalf("Get() error = %v, want a timed out *url.Error", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestClient_Lights(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.lights = `{
		"2": {"name": "Desk", "type": "Dimmable light", "state": {"on": false, "bri": 10, "alert": "none", "reachable": true}},
		"1": {"name": "Hall", "state": {"on": true, "hue": 5, "xy": [0.3, 0.3], "ct": 300, "colormode": "xy"}}
	}`
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())

	p, err := c.Lights(context.Background())
	if err != nil {
		t.Fatalf("Lights() error = %v", err)
	}
	if got, want := p.Keys(), []string{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	hall, _ := p.Get("1")
	if got, want := hall.State().Export(), map[string]any{"on": true, "hue": float64(5)}; !reflect.DeepEqual(got, want) {
		t.Errorf("hall state = %v, want %v", got, want)
	}
	desk, _ := p.Get("2")
	if v, _ := desk.Attr("type"); v != "Dimmable light" {
		t.Errorf("desk type = %v", v)
	}
}

func TestClient_SetState(t *testing.T) {
	fb, srv := newFakeBridge(t)
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())

	s := NewState(nil).On(true).Bri(1)
	if err := c.SetState(context.Background(), "7", s); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	want := map[string]map[string]any{
		"/lights/7/state": {"on": true, "bri": float64(254)},
	}
	if got := fb.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("recorded = %v, want %v", got, want)
	}
}

func TestClient_Apply(t *testing.T) {
	fb, srv := newFakeBridge(t)
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())

	p := NewPreset().AddRaw("1", nil).AddRaw("2", nil)
	l1, _ := p.Get("1")
	l1.State().On(true)
	l2, _ := p.Get("2")
	l2.State().Off(true).Transition(time.Second)

	if err := c.Apply(context.Background(), p); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	want := map[string]map[string]any{
		"/lights/1/state": {"on": true},
		"/lights/2/state": {"on": false, "transitiontime": float64(10)},
	}
	if got := fb.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("recorded = %v, want %v", got, want)
	}
}

func TestClient_ApplyFailure(t *testing.T) {
	fb, srv := newFakeBridge(t)
	fb.failPath = "/lights/2/state"
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())

	p := NewPreset().AddRaw("1", nil).AddRaw("2", nil).AddRaw("3", nil)
	p.Each(func(l *Light, _ string, _ *Preset) { l.State().On(true) })

	err := c.Apply(context.Background(), p)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Apply() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}

	// The other requests still ran to completion.
	got := fb.recorded()
	if _, ok := got["/lights/1/state"]; !ok {
		t.Error("light 1 was not updated")
	}
	if _, ok := got["/lights/3/state"]; !ok {
		t.Error("light 3 was not updated")
	}
}

func TestClient_ApplyEmpty(t *testing.T) {
	c := NewClient("unused.invalid", "key", nil)
	if err := c.Apply(context.Background(), NewPreset()); err != nil {
		t.Errorf("Apply(empty) error = %v", err)
	}
}

func TestClient_WithLimiter(t *testing.T) {
	fb, srv := newFakeBridge(t)
	base := NewClient(strings.TrimPrefix(srv.URL, "http://"), "key", srv.Client())
	limited := base.WithLimiter(rate.NewLimiter(rate.Inf, 1))

	if limited == base {
		t.Fatal("WithLimiter should return a copy")
	}
	if base.limiter != nil {
		t.Error("WithLimiter modified the original client")
	}

	p := NewPreset().AddRaw("1", nil)
	if err := limited.Apply(context.Background(), p); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(fb.recorded()) != 1 {
		t.Errorf("recorded %d requests, want 1", len(fb.recorded()))
	}
}

func TestClient_LimiterHonorsContext(t *testing.T) {
	c := NewClient("unused.invalid", "key", nil).WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1))
	c.limiter.Allow() // drain the burst

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "lights"); err == nil {
		t.Fatal("Get() with a cancelled context should fail")
	}
}
