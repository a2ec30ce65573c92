package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/mackerelio/go-osstat/cpu"
	"github.com/mackerelio/go-osstat/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/romanconv/romanconv/internal/config"
	"golang.org/x/sys/unix"
)

const (
	defaultSampleInterval = 5 * time.Second

	// filesystem whose usage is reported as disk utilization
	diskPath = "/"
)

// SystemCollector reports host CPU, memory and root filesystem usage as ratios
// in [0, 1]. A single goroutine refreshes all three gauges every interval.
type SystemCollector struct {
	cpuGauge  prometheus.Gauge
	memGauge  prometheus.Gauge
	diskGauge prometheus.Gauge

	// previous CPU counters; only touched by the sampling goroutine
	lastIdle  uint64
	lastTotal uint64

	mu       sync.RWMutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSystemCollector(ctx context.Context, cfg *config.Config) *SystemCollector {
	interval := defaultSampleInterval
	if cfg.Metrics != nil && cfg.Metrics.SystemCollector != nil && cfg.Metrics.SystemCollector.TickerInterval > 0 {
		interval = time.Duration(cfg.Metrics.SystemCollector.TickerInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &SystemCollector{
		cpuGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "romanconv_cpu_utilization",
			Help: "Host CPU utilization as a ratio",
		}),
		memGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "romanconv_memory_utilization",
			Help: "Host memory utilization as a ratio",
		}),
		diskGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "romanconv_disk_utilization",
			Help: "Root filesystem utilization as a ratio",
		}),
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.run(ctx)
	return c
}

func (c *SystemCollector) MetricsName() string {
	return "system"
}

// Stop ends sampling and waits for the goroutine to exit.
func (c *SystemCollector) Stop() {
	c.cancel()
	<-c.done
}

func (c *SystemCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuGauge.Desc()
	ch <- c.memGauge.Desc()
	ch <- c.diskGauge.Desc()
}

func (c *SystemCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch <- c.cpuGauge
	ch <- c.memGauge
	ch <- c.diskGauge
}

func (c *SystemCollector) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

// sample reads all host statistics first and then publishes them under one lock,
// so a scrape never sees a half-updated set.
func (c *SystemCollector) sample() {
	cpuUsage, cpuOK := c.cpuUsage()
	memUsage, memOK := memoryUsage()
	diskUsage, diskOK := diskUsage(diskPath)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cpuOK {
		c.cpuGauge.Set(cpuUsage)
	}
	if memOK {
		c.memGauge.Set(memUsage)
	}
	if diskOK {
		c.diskGauge.Set(diskUsage)
	}
}

// cpuUsage needs two readings; the first call only records the baseline.
func (c *SystemCollector) cpuUsage() (float64, bool) {
	stats, err := cpu.Get()
	if err != nil {
		return 0, false
	}
	defer func() {
		c.lastIdle, c.lastTotal = stats.Idle, stats.Total
	}()

	if c.lastTotal == 0 || stats.Total <= c.lastTotal {
		return 0, false
	}
	deltaIdle := stats.Idle - c.lastIdle
	deltaTotal := stats.Total - c.lastTotal
	return 1.0 - float64(deltaIdle)/float64(deltaTotal), true
}

func memoryUsage() (float64, bool) {
	stats, err := memory.Get()
	if err != nil || stats.Total == 0 {
		return 0, false
	}
	return float64(stats.Used) / float64(stats.Total), true
}

func diskUsage(path string) (float64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil || stat.Blocks == 0 {
		return 0, false
	}
	return 1.0 - float64(stat.Bfree)/float64(stat.Blocks), true
}
