package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	apiserver "github.com/romanconv/romanconv/internal/api_server"
	"github.com/romanconv/romanconv/internal/config"
	"github.com/romanconv/romanconv/internal/instrumentation/metrics"
	"github.com/romanconv/romanconv/internal/instrumentation/tracing"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/romanconv/romanconv/pkg/log"
	"github.com/romanconv/romanconv/pkg/shutdown"
	"github.com/romanconv/romanconv/pkg/version"
	"github.com/spf13/pflag"
)

const (
	serviceName = "roman-numeral-converter"

	tracerFlushTimeout = 5 * time.Second
)

func main() {
	configFile := pflag.String("config", config.ConfigFile(), "path to the service configuration file, generated with defaults when missing")
	pflag.Parse()

	cfg, err := config.LoadOrGenerate(*configFile)
	if err != nil {
		log.InitLogs("info").Fatalf("reading configuration: %v", err)
	}

	logger := log.InitLogs(cfg.LogLevel())
	serviceLog := log.WithService(logger, version.Get().String())
	serviceLog.Println("Starting API service")
	defer serviceLog.Println("API service stopped")
	serviceLog.Printf("Using config: %s", cfg)

	tracerShutdown := tracing.InitTracer(serviceLog, cfg, serviceName)

	ctx := context.Background()
	conversions := metrics.NewConversionCollector()
	requests := metrics.NewApiCollector(cfg)
	collectors := []prometheus.Collector{conversions, requests}

	manager := shutdown.NewManager(serviceLog)
	manager.AddCleanup("tracer", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), tracerFlushTimeout)
		defer cancel()
		return tracerShutdown(ctx)
	})

	if cfg.Metrics != nil && cfg.Metrics.SystemCollector != nil && cfg.Metrics.SystemCollector.Enabled {
		system := metrics.NewSystemCollector(ctx, cfg)
		collectors = append(collectors, system)
		manager.AddCleanup("system-collector", func() error {
			system.Stop()
			return nil
		})
	}
	if cfg.Metrics != nil && cfg.Metrics.HttpCollector != nil && cfg.Metrics.HttpCollector.Enabled {
		// created before the API server so otelhttp picks up the meter provider
		httpCollector, err := metrics.NewHTTPMetricsCollector(cfg, serviceName, serviceLog)
		if err != nil {
			serviceLog.WithError(err).Error("OpenTelemetry HTTP metrics are disabled")
		} else {
			collectors = append(collectors, httpCollector)
			manager.AddCleanup("http-collector", httpCollector.Shutdown)
		}
	}

	listener, err := net.Listen("tcp", cfg.Service.Address)
	if err != nil {
		serviceLog.Fatalf("creating listener: %s", err)
	}

	svc := service.NewServiceHandler(serviceLog.WithField("pkg", "service"), conversions)
	server := apiserver.New(serviceLog, cfg, listener, svc, requests, manager.Status())
	manager.AddServer("api", server)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		manager.AddServer("metrics", shutdown.ServerFunc(func(ctx context.Context) error {
			return metrics.RunTracedServer(ctx, serviceLog, cfg.Metrics.Address, collectors...)
		}))
	}

	if err := manager.Run(ctx); err != nil {
		serviceLog.Errorf("Error running servers: %v", err)
		os.Exit(1)
	}
}
