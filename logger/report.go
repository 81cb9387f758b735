package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	warnCounts  sync.Map // map[string]*int64
	errorCounts sync.Map // map[string]*int64
)

func recordWarn(component string) {
	bump(&warnCounts, component)
}

func recordError(component string) {
	bump(&errorCounts, component)
}

func bump(m *sync.Map, component string) {
	v, _ := m.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func drain(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(k, v interface{}) bool {
		if n := atomic.SwapInt64(v.(*int64), 0); n > 0 {
			out[k.(string)] = n
		}
		return true
	})
	return out
}

// StartReport periodically logs a health summary: warn/error counts per
// component since the previous report plus basic runtime figures.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)
				log.WithComponent("report").WithFields(Fields{
					"warns":      drain(&warnCounts),
					"errors":     drain(&errorCounts),
					"goroutines": runtime.NumGoroutine(),
					"heap_mb":    mem.HeapAlloc / (1 << 20),
				}).Info("periodic health report")
			}
		}
	}()
}
