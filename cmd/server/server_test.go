package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/config"
)

func newTestServer(t *testing.T, writeLimit int) *httptest.Server {
	t.Helper()

	dbPath := filepath.ToSlash(filepath.Join(t.TempDir(), "db", "server.db"))
	cfg, err := config.Parse([]byte(fmt.Sprintf(`app:
  name: pingpong-booking
  environment: test
  port: 8080
database:
  driver: sqlite
  filename: %q
booking:
  timezone: UTC
scheduler:
  enabled: true
rate_limit:
  enabled: true
  attempt_cooldown: 1ns
  write_max_ip_per_hour: %d
`, dbPath, writeLimit)))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(app.Close)

	server := httptest.NewServer(newServer(cfg, app).Handler)
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerStartup(t *testing.T) {
	server := newTestServer(t, 300)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestServerBookingFlow(t *testing.T) {
	server := newTestServer(t, 300)

	if resp := post(t, server.URL+"/api/v1/users", `{"username":"alice"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	resp := post(t, server.URL+"/api/v1/bookings", `{"username":"alice","date":"2099-06-03","slot":"09:00","duration":60}`)
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("book status = %d, body %s", resp.StatusCode, body)
	}

	get, err := http.Get(server.URL + "/api/v1/availability?date=2099-06-03&duration=30")
	if err != nil {
		t.Fatalf("GET availability: %v", err)
	}
	defer get.Body.Close()
	body, _ := io.ReadAll(get.Body)
	if !strings.Contains(string(body), `{"slot":{"hour":9,"minute":30},"occupied":true,"disabled":true}`) {
		t.Fatalf("09:30 not occupied: %s", body)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/bookings/any", nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer del.Body.Close()
	if del.StatusCode != http.StatusNotImplemented {
		t.Fatalf("cancel status = %d, want 501", del.StatusCode)
	}
}

func TestServerLimitsWritesPerIP(t *testing.T) {
	server := newTestServer(t, 2)

	for i, name := range []string{"alice", "bob"} {
		if resp := post(t, server.URL+"/api/v1/users", fmt.Sprintf(`{"username":%q}`, name)); resp.StatusCode != http.StatusCreated {
			t.Fatalf("write %d status = %d", i, resp.StatusCode)
		}
	}
	resp := post(t, server.URL+"/api/v1/users", `{"username":"carol"}`)
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") == "" {
		t.Fatalf("third write status = %d, Retry-After %q", resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	get, err := http.Get(server.URL + "/api/v1/users/alice")
	if err != nil {
		t.Fatalf("GET user: %v", err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", get.StatusCode)
	}
}
