package log

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const serviceName = "roman-numeral-converter"

// InitLogs returns a logger at the given level. An unparsable level falls back to info.
func InitLogs(level string) *logrus.Logger {
	log := logrus.New()

	log.SetReportCaller(true)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// WithService tags every entry with the service name and build version.
func WithService(inner logrus.FieldLogger, version string) logrus.FieldLogger {
	return inner.WithFields(logrus.Fields{
		"service": serviceName,
		"version": version,
	})
}

// WithReqIDFromCtx create logger with request id from the context, request id is set by middleware.RequestID
func WithReqIDFromCtx(ctx context.Context, inner logrus.FieldLogger) logrus.FieldLogger {
	return inner.WithField("request_id", middleware.GetReqID(ctx))
}
