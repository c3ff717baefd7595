// Package stats aggregates per-route request metrics for the admin
// dashboard.
package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mockforge/mockforge/internal/models"
)

type routeCounter struct {
	method        string
	path          string
	totalRequests int64
	totalErrors   int64
	totalTime     time.Duration
	minTime       time.Duration
	maxTime       time.Duration
	lastRequest   time.Time
}

// Collector records request metrics keyed by METHOD:path.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	routes    map[string]*routeCounter
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		routes:    make(map[string]*routeCounter),
	}
}

// RecordRequest records one handled request.
func (c *Collector) RecordRequest(method, path string, duration time.Duration, isError bool) {
	key := method + ":" + path

	c.mu.Lock()
	defer c.mu.Unlock()

	counter, ok := c.routes[key]
	if !ok {
		counter = &routeCounter{method: method, path: path, minTime: duration}
		c.routes[key] = counter
	}

	counter.totalRequests++
	counter.totalTime += duration
	counter.lastRequest = time.Now()
	if duration < counter.minTime {
		counter.minTime = duration
	}
	if duration > counter.maxTime {
		counter.maxTime = duration
	}
	if isError {
		counter.totalErrors++
	}
}

// GlobalStats returns the aggregated dashboard summary. Routes are sorted
// by request count, busiest first.
func (c *Collector) GlobalStats(activeRoutes int) *models.GlobalStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &models.GlobalStats{
		Uptime:       formatUptime(time.Since(c.startTime)),
		ActiveRoutes: activeRoutes,
		Routes:       make([]models.RouteStat, 0, len(c.routes)),
	}

	for _, counter := range c.routes {
		stat := models.RouteStat{
			Method:        counter.method,
			Path:          counter.path,
			TotalRequests: counter.totalRequests,
			TotalErrors:   counter.totalErrors,
			MinTimeMs:     float64(counter.minTime.Microseconds()) / 1000,
			MaxTimeMs:     float64(counter.maxTime.Microseconds()) / 1000,
			LastRequest:   counter.lastRequest,
		}
		if counter.totalRequests > 0 {
			avg := counter.totalTime / time.Duration(counter.totalRequests)
			stat.AvgTimeMs = float64(avg.Microseconds()) / 1000
		}
		stats.Routes = append(stats.Routes, stat)
		stats.TotalRequests += counter.totalRequests
		stats.TotalErrors += counter.totalErrors
	}

	sort.Slice(stats.Routes, func(i, j int) bool {
		return stats.Routes[i].TotalRequests > stats.Routes[j].TotalRequests
	})

	return stats
}

// RouteStat returns metrics for one METHOD:path, or nil when unseen.
func (c *Collector) RouteStat(method, path string) *models.RouteStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counter, ok := c.routes[method+":"+path]
	if !ok {
		return nil
	}

	stat := &models.RouteStat{
		Method:        counter.method,
		Path:          counter.path,
		TotalRequests: counter.totalRequests,
		TotalErrors:   counter.totalErrors,
		MinTimeMs:     float64(counter.minTime.Microseconds()) / 1000,
		MaxTimeMs:     float64(counter.maxTime.Microseconds()) / 1000,
		LastRequest:   counter.lastRequest,
	}
	if counter.totalRequests > 0 {
		avg := counter.totalTime / time.Duration(counter.totalRequests)
		stat.AvgTimeMs = float64(avg.Microseconds()) / 1000
	}
	return stat
}

// Reset discards all recorded metrics and restarts the uptime clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = make(map[string]*routeCounter)
	c.startTime = time.Now()
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
