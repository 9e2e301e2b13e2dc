package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// Sample is one resource reading of the gateway listener process.
type Sample struct {
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	NumThreads int32     `json:"num_threads"`
	NumFDs     int32     `json:"num_fds,omitempty"` // Unix only
	Timestamp  time.Time `json:"timestamp"`
}

// GatewayConfig holds configuration for gateway resource sampling.
type GatewayConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	MaxHistory int           `mapstructure:"max_history"`
}

// GatewayCollector periodically samples whichever process holds the service
// port and exposes the reading as gauges plus a bounded in-memory history.
type GatewayCollector struct {
	enabled  bool
	interval time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	ring    []Sample
	start   int
	count   int
	lastPID int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	cpuPercent *prometheus.GaugeVec
	memoryMB   *prometheus.GaugeVec
	numThreads *prometheus.GaugeVec
	numFDs     *prometheus.GaugeVec

	read func(pid int) (Sample, error)
}

func NewGatewayCollector(cfg GatewayConfig, logger *slog.Logger) *GatewayCollector {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 120
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clawpanel",
			Subsystem: "gateway",
			Name:      name,
			Help:      help,
		}, []string{"pid"})
	}
	return &GatewayCollector{
		enabled:    cfg.Enabled,
		interval:   cfg.Interval,
		logger:     logger,
		ring:       make([]Sample, cfg.MaxHistory),
		stopCh:     make(chan struct{}),
		cpuPercent: gauge("cpu_percent", "CPU usage percentage of the gateway listener."),
		memoryMB:   gauge("memory_mb", "Resident memory in MB of the gateway listener."),
		numThreads: gauge("num_threads", "Thread count of the gateway listener."),
		numFDs:     gauge("num_fds", "Open file descriptors of the gateway listener (Unix only)."),
		read:       readSample,
	}
}

// RegisterMetrics registers the gateway gauges with the provided registerer.
func (c *GatewayCollector) RegisterMetrics(r prometheus.Registerer) error {
	if !c.enabled {
		return nil
	}
	collectors := []prometheus.Collector{c.cpuPercent, c.memoryMB, c.numThreads}
	if runtime.GOOS != "windows" {
		collectors = append(collectors, c.numFDs)
	}
	for _, col := range collectors {
		if err := r.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Start samples every interval until ctx is done or Stop is called.
// listener reports the current port owner.
func (c *GatewayCollector) Start(ctx context.Context, listener func(ctx context.Context) (int, bool)) {
	if !c.enabled {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				pid, ok := listener(ctx)
				c.collect(pid, ok)
			}
		}
	}()
}

// Stop stops sampling and waits for the sampler to exit.
func (c *GatewayCollector) Stop() {
	if !c.enabled {
		return
	}
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *GatewayCollector) collect(pid int, ok bool) {
	c.mu.Lock()
	prev := c.lastPID
	if !ok {
		c.lastPID = 0
	} else {
		c.lastPID = pid
	}
	c.mu.Unlock()

	// drop series of a listener that went away or was replaced
	if prev != 0 && prev != pid {
		c.deleteSeries(prev)
	}
	if !ok {
		return
	}

	s, err := c.read(pid)
	if err != nil {
		c.logger.Debug("gateway sample failed", "pid", pid, "error", err)
		return
	}
	label := fmt.Sprint(pid)
	c.cpuPercent.WithLabelValues(label).Set(s.CPUPercent)
	c.memoryMB.WithLabelValues(label).Set(s.MemoryMB)
	c.numThreads.WithLabelValues(label).Set(float64(s.NumThreads))
	if runtime.GOOS != "windows" && s.NumFDs > 0 {
		c.numFDs.WithLabelValues(label).Set(float64(s.NumFDs))
	}
	c.add(s)
}

func (c *GatewayCollector) deleteSeries(pid int) {
	label := fmt.Sprint(pid)
	c.cpuPercent.DeleteLabelValues(label)
	c.memoryMB.DeleteLabelValues(label)
	c.numThreads.DeleteLabelValues(label)
	c.numFDs.DeleteLabelValues(label)
}

// add appends to the circular buffer, overwriting the oldest entry when full.
func (c *GatewayCollector) add(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := len(c.ring)
	if c.count < size {
		c.ring[(c.start+c.count)%size] = s
		c.count++
		return
	}
	c.ring[c.start] = s
	c.start = (c.start + 1) % size
}

// History returns up to limit samples, oldest first. limit <= 0 returns all.
func (c *GatewayCollector) History(limit int) []Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := c.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Sample, 0, n)
	size := len(c.ring)
	for i := c.count - n; i < c.count; i++ {
		out = append(out, c.ring[(c.start+i)%size])
	}
	return out
}

func readSample(pid int) (Sample, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return Sample{}, fmt.Errorf("failed to create process handle: %w", err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return Sample{}, fmt.Errorf("failed to get memory info: %w", err)
	}
	s := Sample{
		PID:       pid,
		MemoryMB:  float64(mem.RSS) / 1024 / 1024,
		Timestamp: time.Now(),
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}
	if n, err := proc.NumThreads(); err == nil {
		s.NumThreads = n
	}
	if runtime.GOOS != "windows" {
		if n, err := proc.NumFDs(); err == nil {
			s.NumFDs = n
		}
	}
	return s, nil
}
