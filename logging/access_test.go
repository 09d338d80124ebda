package logging

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"
)

func testRequest() *http.Request {
	r, _ := http.NewRequest("GET", "http://pixgate.example.org/products/42.png?quality=80", nil)
	r.RequestURI = "/products/42.png?quality=80"
	r.RemoteAddr = "192.168.3.3:46756"
	return r
}

func testEntry() *AccessEntry {
	return &AccessEntry{
		Request:     testRequest(),
		StatusCode:  200,
		Duration:    42 * time.Millisecond,
		RequestTime: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		RequestID:   "req-1",
	}
}

func testAccessLog(t *testing.T, entry *AccessEntry, expectParts ...string) {
	var buf bytes.Buffer
	if err := Init(Options{AccessLogOutput: &buf}); err != nil {
		t.Fatal(err)
	}

	LogAccess(entry)
	got := buf.String()
	for _, part := range expectParts {
		if !strings.Contains(got, part) {
			t.Errorf("missing %q in %q", part, got)
		}
	}
}

func TestAccessLogFormat(t *testing.T) {
	testAccessLog(t, testEntry(),
		"192.168.3.3",
		`"GET /products/42.png?quality=80 HTTP/1.1" 200`,
		"42 req-1")
}

func TestAccessLogForwardedFor(t *testing.T) {
	entry := testEntry()
	entry.Request.Header.Set("X-Forwarded-For", "203.0.113.7")
	testAccessLog(t, entry, "203.0.113.7")
}

func TestAccessLogIgnoresNil(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{AccessLogOutput: &buf}); err != nil {
		t.Fatal(err)
	}

	LogAccess(nil)
	LogAccess(&AccessEntry{})
	if buf.Len() != 0 {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
