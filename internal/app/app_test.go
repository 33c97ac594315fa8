package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dokzlo13/huepreset/internal/config"
	"github.com/dokzlo13/huepreset/internal/hue"
	"github.com/dokzlo13/huepreset/internal/ledger"
)

type testBridge struct {
	mu       sync.Mutex
	puts     map[string]map[string]any
	failPath string
	hang     bool
}

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *testBridge) {
	t.Helper()
	tb := &testBridge{puts: make(map[string]map[string]any)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/token")
		switch {
		case r.Method == http.MethodGet && path == "/config":
			if tb.hang {
				<-r.Context().Done()
				return
			}
			_, _ = io.WriteString(w, `{"name":"Philips hue","bridgeid":"001788FFFE23BFC2","modelid":"BSB002","apiversion":"1.50.0","swversion":"1950207110"}`)
		case r.Method == http.MethodGet && path == "/lights":
			_, _ = io.WriteString(w, `{"1":{"name":"Hall","state":{"on":true}},"2":{"name":"Desk","state":{"on":false}}}`)
		case r.Method == http.MethodGet && path == "/lights/2":
			_, _ = io.WriteString(w, `{"name":"Desk","state":{"on":false,"bri":40}}`)
		case r.Method == http.MethodPut:
			if path == tb.failPath {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			tb.mu.Lock()
			tb.puts[path] = body
			tb.mu.Unlock()
			_, _ = io.WriteString(w, `[{"success":{}}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Hue: config.HueConfig{
			Bridge: strings.TrimPrefix(srv.URL, "http://"),
			Token:  "token",
		},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "huepreset.sqlite")},
		Ledger:   config.LedgerConfig{RetentionDays: 30},
	}
	if mutate != nil {
		mutate(cfg)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, tb
}

func TestApp_Ping(t *testing.T) {
	a, _ := newTestApp(t, nil)

	info, err := a.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if info.Name != "Philips hue" || info.APIVersion != "1.50.0" || info.ModelID != "BSB002" {
		t.Errorf("info = %+v", info)
	}
}

func TestApp_PingTimeout(t *testing.T) {
	a, tb := newTestApp(t, func(cfg *config.Config) {
		cfg.Hue.Timeout = config.Duration(50 * time.Millisecond)
	})
	tb.hang = true

	start := time.Now()
	_, err := a.Ping(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Ping() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("Ping() took %v, timeout not applied", time.Since(start))
	}
	if strings.Contains(err.Error(), "/token/") {
		t.Errorf("error leaks the token: %v", err)
	}
}

func TestApp_LightsAndLight(t *testing.T) {
	a, _ := newTestApp(t, nil)

	p, err := a.Lights(context.Background())
	if err != nil {
		t.Fatalf("Lights() error = %v", err)
	}
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Keys() = %v", got)
	}

	desk, err := a.Light(context.Background(), "2")
	if err != nil {
		t.Fatalf("Light() error = %v", err)
	}
	if desk.Name() != "Desk" {
		t.Errorf("Name() = %q", desk.Name())
	}
}

func TestApp_ApplyRecordsHistory(t *testing.T) {
	a, tb := newTestApp(t, nil)

	p := hue.NewPreset().AddRaw("1", nil).AddRaw("2", nil)
	if _, err := p.Color("blue"); err != nil {
		t.Fatal(err)
	}
	if err := a.Apply(context.Background(), "blue", p); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(tb.puts) != 2 {
		t.Errorf("bridge saw %d puts, want 2", len(tb.puts))
	}

	entries, err := a.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("History() = %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.EventType != ledger.EventPresetApplied || e.Preset != "blue" || e.RunID == "" {
		t.Errorf("entry = %+v", e)
	}
	if !reflect.DeepEqual(e.Lights, []string{"1", "2"}) {
		t.Errorf("Lights = %v", e.Lights)
	}
}

func TestApp_ApplyFailureRecorded(t *testing.T) {
	a, tb := newTestApp(t, nil)
	tb.failPath = "/lights/2/state"

	p := hue.NewPreset().AddRaw("1", nil).AddRaw("2", nil)
	p.Each(func(l *hue.Light, _ string, _ *hue.Preset) { l.State().On(true) })

	err := a.Apply(context.Background(), "evening", p)
	if err == nil {
		t.Fatal("Apply() should fail")
	}

	entries, _ := a.History(10)
	if len(entries) != 1 || entries[0].EventType != ledger.EventPresetFailed {
		t.Fatalf("entries = %+v", entries)
	}
	if !strings.Contains(entries[0].Error, "light 2") {
		t.Errorf("Error = %q", entries[0].Error)
	}
	if strings.Contains(entries[0].Error, "token") {
		t.Errorf("recorded error leaks the token: %q", entries[0].Error)
	}
}

func TestApp_LedgerDisabled(t *testing.T) {
	disabled := false
	a, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Ledger.Enabled = &disabled
	})

	if err := a.Apply(context.Background(), "p", hue.NewPreset().AddRaw("1", nil)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	entries, err := a.History(10)
	if !errors.Is(err, ErrHistoryDisabled) || entries != nil {
		t.Errorf("History() = %v, %v; want nil, ErrHistoryDisabled", entries, err)
	}
}

func TestApp_HistoryEmpty(t *testing.T) {
	a, _ := newTestApp(t, nil)

	entries, err := a.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("History() = %v, want no entries", entries)
	}
}

func TestApp_RateLimitedClient(t *testing.T) {
	a, tb := newTestApp(t, func(cfg *config.Config) {
		cfg.Hue.RateLimitRPS = 1000
	})

	p := hue.NewPreset().AddRaw("1", nil).AddRaw("2", nil).AddRaw("3", nil)
	if err := a.Apply(context.Background(), "limited", p); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(tb.puts) != 3 {
		t.Errorf("bridge saw %d puts, want 3", len(tb.puts))
	}
}

func TestApp_RunScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "presets.lua")
	err := os.WriteFile(script, []byte(`
		local hue = require("hue")
		local p = hue.preset():add(1):add(2)
		p:each(function(light) light:state():off() end)
		local ok, err = hue.apply(p, "all off")
		if not ok then error(err) end
	`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	a, tb := newTestApp(t, func(cfg *config.Config) { cfg.Script = script })
	if err := a.RunScript(context.Background(), ""); err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}

	want := map[string]map[string]any{
		"/lights/1/state": {"on": false},
		"/lights/2/state": {"on": false},
	}
	if !reflect.DeepEqual(tb.puts, want) {
		t.Errorf("puts = %v, want %v", tb.puts, want)
	}

	entries, _ := a.History(1)
	if len(entries) != 1 || entries[0].Preset != "all off" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestApp_URL(t *testing.T) {
	a, _ := newTestApp(t, nil)
	if got := a.URL("lights", "1"); !strings.HasSuffix(got, "/api/token/lights/1") {
		t.Errorf("URL() = %q", got)
	}
}
