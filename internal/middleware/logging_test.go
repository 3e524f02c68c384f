package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// captureLog points the default logger at a JSON buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// lastEntry decodes the last JSON log line.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestLoggerLevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusCreated, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf := captureLog(t)
			h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/docs/install", nil))

			if rr.Code != tt.status {
				t.Errorf("status passed through: got %d", rr.Code)
			}
			entry := lastEntry(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("logged status = %v", entry["status"])
			}
		})
	}
}

func TestLevelForQuietPaths(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/static/app.css", 200, slog.LevelDebug},
		{"/health", 200, slog.LevelDebug},
		{"/static/missing.css", 404, slog.LevelWarn},
		{"/docs/install", 200, slog.LevelInfo},
		{"/api/chats", 503, slog.LevelError},
	}
	for _, tt := range tests {
		if got := levelFor(tt.path, tt.status); got != tt.want {
			t.Errorf("levelFor(%s, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestLoggerAttributes(t *testing.T) {
	buf := captureLog(t)
	h := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/editor/drafts", nil))

	if rr.Body.String() != "hello" {
		t.Errorf("body: got %q", rr.Body.String())
	}
	entry := lastEntry(t, buf)
	if entry["msg"] != "http request" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["method"] != "POST" || entry["path"] != "/editor/drafts" {
		t.Errorf("method/path = %v %v", entry["method"], entry["path"])
	}
	if entry["bytes"] != float64(5) {
		t.Errorf("bytes = %v, want 5", entry["bytes"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id should be logged when RequestID runs first")
	}
	if _, ok := entry["duration"]; !ok {
		t.Error("duration missing")
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("first WriteHeader wins", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)
		if rw.statusCode != http.StatusNotFound || !rw.written {
			t.Errorf("statusCode = %d, written = %v", rw.statusCode, rw.written)
		}
	})

	t.Run("Write implies 200", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusTeapot}
		n, err := rw.Write([]byte("test"))
		if err != nil || n != 4 {
			t.Fatalf("Write = %d, %v", n, err)
		}
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, want 200", rw.statusCode)
		}
	})

	t.Run("Write keeps explicit status", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusCreated)
		rw.Write([]byte("created"))
		if rw.statusCode != http.StatusCreated {
			t.Errorf("statusCode = %d, want 201", rw.statusCode)
		}
	})

	t.Run("counts bytes and unwraps", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
		rw.Write([]byte("hello "))
		rw.Write([]byte("world"))
		if rw.bytes != 11 {
			t.Errorf("bytes: got %d, want 11", rw.bytes)
		}
		if rw.Unwrap() != rec {
			t.Error("Unwrap should return the underlying writer")
		}
	})
}
