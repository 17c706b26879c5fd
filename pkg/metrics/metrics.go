package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

// Package metrics keeps operational gauges (orders generated, batch
// durations, process cpu/mem) in an embedded time-series store so the
// dashboard can chart them without an external metrics stack.

var (
	mu      sync.RWMutex
	storage tstorage.Storage
	gauges  = map[string]int64{}
)

// InitMetrics opens the embedded store under workdir/metrics.
func InitMetrics(workdir string) error {
	st, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = st
	mu.Unlock()
	return nil
}

// SetGauge records the current value of a named gauge.
func SetGauge(name string, value int64) {
	mu.Lock()
	defer mu.Unlock()
	gauges[name] = value
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: float64(value)},
	}})
}

// IncrCounter adds delta to a named counter and records the new total.
func IncrCounter(name string, delta int64) {
	mu.Lock()
	total := gauges[name] + delta
	gauges[name] = total
	st := storage
	mu.Unlock()
	if st == nil {
		return
	}
	_ = st.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: float64(total)},
	}})
}

// GetGauge returns the last recorded value for name, zero when unset.
func GetGauge(name string) int64 {
	mu.RLock()
	defer mu.RUnlock()
	return gauges[name]
}

// Select returns raw data points for charting between start and end
// unix timestamps.
func Select(name string, start, end int64) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	st := storage
	mu.RUnlock()
	if st == nil {
		return nil, nil
	}
	return st.Select(name, nil, start, end)
}

// Close flushes and closes the embedded store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
