package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// logrusLogFormatter writes one structured line per request.
type logrusLogFormatter struct {
	log logrus.FieldLogger
}

type logrusLogEntry struct {
	log logrus.FieldLogger
}

func (f *logrusLogFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &logrusLogEntry{
		log: f.log.WithFields(logrus.Fields{
			"request_id":  chimw.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}),
	}
}

func (e *logrusLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	entry := e.log.WithFields(logrus.Fields{
		"status":      status,
		"bytes":       bytes,
		"duration_ms": float64(elapsed.Microseconds()) / 1000,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("HTTP request")
	case status >= http.StatusBadRequest:
		entry.Warn("HTTP request")
	default:
		entry.Info("HTTP request")
	}
}

func (e *logrusLogEntry) Panic(v interface{}, stack []byte) {
	e.log.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("Panic while serving request")
}

// ChiLogger returns a chi RequestLogger backed by logrus. It must run after RequestID.
func ChiLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(ChiLogFormatter(log))
}

func ChiLogFormatter(log logrus.FieldLogger) chimw.LogFormatter {
	return &logrusLogFormatter{log: log}
}
