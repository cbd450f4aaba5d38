package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"activity-archive/internal/activity"
	"activity-archive/internal/config"
	"activity-archive/internal/github"
	"activity-archive/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFetcher struct {
	events []models.Event
	err    error
	exists bool
}

func (f *stubFetcher) Fetch(ctx context.Context, username string) ([]models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *stubFetcher) Validate(ctx context.Context, username string) bool {
	return f.exists
}

func newTestServer(f *stubFetcher) *Server {
	cfg := config.Config{CORSOrigins: []string{"*"}}
	svc := activity.NewService(testLogger(), f, nil, nil, nil)
	return NewServer(testLogger(), cfg, svc, nil, nil, nil)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestGetActivity_RendersEvents(t *testing.T) {
	f := &stubFetcher{events: []models.Event{{
		ID:        "e1",
		Type:      "WatchEvent",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Actor:     models.Actor{Login: "alice"},
		Repo:      models.Repo{Name: "acme/widgets"},
	}}}

	w := get(t, newTestServer(f), "/api/v1/users/alice/activity")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Count  int `json:"count"`
		Events []struct {
			Description string `json:"description"`
		} `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("expected 1 event, got %d", body.Count)
	}
	want := "[2024-01-01T00:00:00] alice starred acme/widgets"
	if body.Events[0].Description != want {
		t.Errorf("expected description %q, got %q", want, body.Events[0].Description)
	}
}

func TestGetActivity_UnknownUserIs404(t *testing.T) {
	f := &stubFetcher{err: &github.NotFoundError{Username: "ghost"}}

	w := get(t, newTestServer(f), "/api/v1/users/ghost/activity")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "user_not_found") {
		t.Errorf("expected user_not_found code, got %s", w.Body.String())
	}
}

func TestGetActivity_UpstreamFailureIs502(t *testing.T) {
	f := &stubFetcher{err: &github.UpstreamError{StatusCode: 503, Message: "down"}}

	w := get(t, newTestServer(f), "/api/v1/users/alice/activity")
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestGetHistory_DisabledWithoutStore(t *testing.T) {
	w := get(t, newTestServer(&stubFetcher{}), "/api/v1/users/alice/history")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("expected 501 without a store, got %d", w.Code)
	}
}

func TestInvalidUsernameRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"leading hyphen", "/api/v1/users/-alice/activity"},
		{"doubled hyphen", "/api/v1/users/a--b/activity"},
		{"invalid characters", "/api/v1/users/a_b!/activity"},
		{"too long", "/api/v1/users/" + strings.Repeat("a", 40) + "/activity"},
	}

	s := newTestServer(&stubFetcher{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := get(t, s, tt.path); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"alice", true},
		{"alice-b", true},
		{"a", true},
		{"octo-cat-42", true},
		{"", false},
		{"-alice", false},
		{"alice-", false},
		{"a--b", false},
		{"with space", false},
		{strings.Repeat("a", 39), true},
		{strings.Repeat("a", 40), false},
	}

	for _, tt := range tests {
		if got := ValidUsername(tt.username); got != tt.valid {
			t.Errorf("ValidUsername(%q) = %v, want %v", tt.username, got, tt.valid)
		}
	}
}

func TestHealthz(t *testing.T) {
	w := get(t, newTestServer(&stubFetcher{}), "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	w := get(t, newTestServer(&stubFetcher{exists: true}), "/api/v1/users/alice/validate")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"exists":true`) {
		t.Errorf("expected exists true, got %s", w.Body.String())
	}
}
