package middleware

import (
	"io"
	stdlog "log"
	"net/http"
	"time"

	"github.com/romanconv/romanconv/internal/config"
	"github.com/sirupsen/logrus"
)

// NewHTTPServer applies the configured timeouts and header limits.
func NewHTTPServer(router http.Handler, log logrus.FieldLogger, address string, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.Service.HttpReadTimeout),
		ReadHeaderTimeout: time.Duration(cfg.Service.HttpReadHeaderTimeout),
		WriteTimeout:      time.Duration(cfg.Service.HttpWriteTimeout),
		IdleTimeout:       time.Duration(cfg.Service.HttpIdleTimeout),
		MaxHeaderBytes:    cfg.Service.HttpMaxHeaderBytes,
		ErrorLog:          newServerErrorLog(log),
	}
}

type levelWriter interface {
	WriterLevel(level logrus.Level) *io.PipeWriter
}

// newServerErrorLog routes net/http's internal errors (TLS handshakes, malformed
// requests) through logrus. It returns nil, meaning the standard logger, when log
// cannot provide a writer.
func newServerErrorLog(log logrus.FieldLogger) *stdlog.Logger {
	lw, ok := log.(levelWriter)
	if !ok {
		return nil
	}
	return stdlog.New(lw.WriterLevel(logrus.WarnLevel), "", 0)
}
