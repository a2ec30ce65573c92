package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/romanconv/romanconv/internal/api_server/middleware"
	"github.com/romanconv/romanconv/internal/config"
	instrumentationhttp "github.com/romanconv/romanconv/internal/instrumentation/http"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/romanconv/romanconv/internal/transport"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RequestObserver wraps the router to record per-request metrics.
type RequestObserver interface {
	Middleware(next http.Handler) http.Handler
}

type Server struct {
	log       logrus.FieldLogger
	cfg       *config.Config
	listener  net.Listener
	service   service.Service
	observer  RequestObserver
	readiness []HealthChecker
}

// New returns a new instance of the conversion API server. observer may be nil.
func New(
	log logrus.FieldLogger,
	cfg *config.Config,
	listener net.Listener,
	svc service.Service,
	observer RequestObserver,
	readiness ...HealthChecker,
) *Server {
	return &Server{
		log:       log,
		cfg:       cfg,
		listener:  listener,
		service:   svc,
		observer:  observer,
		readiness: append([]HealthChecker{ConverterCheck}, readiness...),
	}
}

// Router builds the full route tree with its middleware stack.
func (s *Server) Router() chi.Router {
	router := chi.NewRouter()

	// request size limits should come before logging to prevent DoS attacks from filling logs
	router.Use(
		middleware.RequestSize(int64(s.cfg.Service.HttpMaxRequestSize)),
		apimiddleware.RequestSizeLimiter(s.cfg.Service.HttpMaxUrlLength, s.cfg.Service.HttpMaxNumHeaders),
		apimiddleware.SecurityHeaders,
		apimiddleware.RequestID,
		apimiddleware.ChiLogger(s.log),
		middleware.Recoverer,
	)
	if s.observer != nil {
		router.Use(s.observer.Middleware)
	}
	router.Use(apimiddleware.CORS(s.cfg.Service.Cors, router))

	notFound := NotFoundHandler()
	router.MethodNotAllowed(notFound)
	if s.cfg.Service.StaticDir != "" {
		router.NotFound(SPAHandler(s.cfg.Service.StaticDir, notFound).ServeHTTP)
	} else {
		router.NotFound(notFound)
	}

	// health endpoints: no rate limiting, but keep global safety middlewares
	router.Group(func(r chi.Router) {
		if hc := s.cfg.Service.HealthChecks; hc != nil && hc.Enabled {
			r.Method(http.MethodGet, hc.ReadinessPath, ReadinessHandler(s.log, time.Duration(hc.ReadinessTimeout), s.readiness...))
			r.Method(http.MethodGet, hc.LivenessPath, LivenessHandler())
		}
	})

	router.Group(func(r chi.Router) {
		ConfigureRateLimiterFromConfig(r, s.cfg.Service.RateLimit)
		transport.NewTransportHandler(s.service, s.log).RegisterRoutes(r)
	})

	return router
}

func (s *Server) Run(ctx context.Context) error {
	s.log.Println("Initializing API server")

	router := s.Router()
	handler := otelhttp.NewHandler(router, "http-server",
		otelhttp.WithSpanNameFormatter(instrumentationhttp.RouteSpanNameFormatter(router)),
		otelhttp.WithMetricAttributesFn(instrumentationhttp.RouteMetricAttributes(router, "api")),
	)
	srv := apimiddleware.NewHTTPServer(handler, s.log, s.cfg.Service.Address, s.cfg)

	go func() {
		<-ctx.Done()
		s.log.Println("Shutdown signal received:", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctxTimeout); err != nil {
			s.log.WithError(err).Warn("API server shutdown error")
		}
	}()

	s.log.Printf("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
