package logging

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	dateFormat      = "02/Jan/2006:15:04:05 -0700"
	commonLogFormat = `%s - - [%s] "%s %s %s" %d`
	// format:
	// remote_host - - [date] "method uri proto" status duration_ms request_id
	accessLogFormat = commonLogFormat + " %d %s\n"
)

type accessLogFormatter struct {
	format string
}

// AccessEntry is one access log event.
type AccessEntry struct {

	// The client request.
	Request *http.Request

	// The status code of the response.
	StatusCode int

	// The time spent processing the request.
	Duration time.Duration

	// The time that the request was received.
	RequestTime time.Time

	// The pipeline request id.
	RequestID string
}

var accessLog *logrus.Logger

// strip port from addresses with hostname, ipv4 or ipv6
func stripPort(address string) string {
	if h, _, err := net.SplitHostPort(address); err == nil {
		return h
	}

	return address
}

// The remote address of the client. When the 'X-Forwarded-For'
// header is set, then it is used instead.
func remoteAddr(r *http.Request) string {
	ff := r.Header.Get("X-Forwarded-For")
	if ff != "" {
		return ff
	}

	return r.RemoteAddr
}

func remoteHost(r *http.Request) string {
	a := remoteAddr(r)
	h := stripPort(a)
	if h != "" {
		return h
	}

	return "-"
}

func (f *accessLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	keys := []string{
		"host", "timestamp", "method", "uri", "proto",
		"status", "duration", "request-id"}

	values := make([]interface{}, len(keys))
	for i, key := range keys {
		values[i] = e.Data[key]
	}

	return []byte(fmt.Sprintf(f.format, values...)), nil
}

// LogAccess logs an access event in Apache common log format, extended
// with the request duration in milliseconds and the pipeline request id.
func LogAccess(entry *AccessEntry) {
	if accessLog == nil || entry == nil || entry.Request == nil {
		return
	}

	accessLog.WithFields(logrus.Fields{
		"host":       remoteHost(entry.Request),
		"timestamp":  entry.RequestTime.Format(dateFormat),
		"method":     entry.Request.Method,
		"uri":        entry.Request.RequestURI,
		"proto":      entry.Request.Proto,
		"status":     entry.StatusCode,
		"duration":   entry.Duration.Milliseconds(),
		"request-id": entry.RequestID,
	}).Info()
}
