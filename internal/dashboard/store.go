package dashboard

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"niftypulse/internal/metrics"
)

// The dashboard keeps short in-memory tails of the metric and log
// streams to back /api/metrics and /api/logs. Old entries fall off the
// front once a store passes its cap.

const defaultStoreCap = 200

// trimTail drops the oldest entries so at most limit remain. The kept
// entries are copied out so the oversized backing array can be freed.
func trimTail[T any](tail []T, limit int) []T {
	if len(tail) <= limit {
		return tail
	}
	return append(tail[:0:0], tail[len(tail)-limit:]...)
}

type metricStore struct {
	mu    sync.RWMutex
	tail  []metrics.Metric
	limit int
}

func newMetricStore(limit int) *metricStore {
	if limit <= 0 {
		limit = defaultStoreCap
	}
	return &metricStore{limit: limit}
}

// record is registered as a metric handler and runs on the emitter's
// goroutine, so it only appends and returns.
func (s *metricStore) record(m metrics.Metric) {
	s.mu.Lock()
	s.tail = trimTail(append(s.tail, m), s.limit)
	s.mu.Unlock()
}

// snapshot returns a copy, never nil, so the API always encodes an
// array.
func (s *metricStore) snapshot() []metrics.Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]metrics.Metric, len(s.tail))
	copy(out, s.tail)
	return out
}

// logLine is the JSON shape of one captured log entry.
type logLine struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// logStore is a logrus hook that tails the application log. close()
// detaches it logically; logrus offers no RemoveHook, so a closed
// store just ignores further entries.
type logStore struct {
	mu      sync.RWMutex
	tail    []logLine
	limit   int
	enabled atomic.Bool
}

func newLogStore(limit int) *logStore {
	if limit <= 0 {
		limit = defaultStoreCap
	}
	s := &logStore{limit: limit}
	s.enabled.Store(true)
	return s
}

func (s *logStore) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (s *logStore) Fire(entry *logrus.Entry) error {
	if !s.enabled.Load() {
		return nil
	}

	line := logLine{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    presentFields(entry.Data),
	}
	if component, ok := entry.Data["component"].(string); ok {
		line.Component = component
	}

	s.mu.Lock()
	s.tail = trimTail(append(s.tail, line), s.limit)
	s.mu.Unlock()
	return nil
}

// presentFields flattens entry data into JSON-friendly values. The
// component is promoted to its own column; errors and Stringers are
// rendered as text so encoding never chokes on them.
func presentFields(data logrus.Fields) map[string]interface{} {
	fields := make(map[string]interface{}, len(data))
	for k, v := range data {
		if k == "component" {
			continue
		}
		switch val := v.(type) {
		case error:
			fields[k] = val.Error()
		case fmt.Stringer:
			fields[k] = val.String()
		default:
			fields[k] = val
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *logStore) snapshot() []logLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]logLine, len(s.tail))
	copy(out, s.tail)
	return out
}

func (s *logStore) close() {
	s.enabled.Store(false)
}
