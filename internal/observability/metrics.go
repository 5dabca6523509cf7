package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestTime   map[string]time.Duration
	errorCount    map[string]int64
	searchCount   int64
	cappedSearch  int64
	droppedEvents int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest counts a request and its latency by route, method and status.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError counts an error response by route, method and error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSearch counts a ticket search; capped marks a count that hit the
// store ceiling.
func (m *Metrics) RecordSearch(capped bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCount++
	if capped {
		m.cappedSearch++
	}
}

// RecordDroppedEvent counts a notification dropped by a full queue.
func (m *Metrics) RecordDroppedEvent() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedEvents++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests       map[string]int64 `json:"requests"`
	AvgLatencyMS   map[string]int64 `json:"avg_latency_ms"`
	Errors         map[string]int64 `json:"errors"`
	Searches       int64            `json:"searches"`
	CappedSearches int64            `json:"capped_searches"`
	DroppedEvents  int64            `json:"dropped_events"`
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		Requests:       make(map[string]int64, len(m.requestCount)),
		AvgLatencyMS:   make(map[string]int64, len(m.requestCount)),
		Errors:         make(map[string]int64, len(m.errorCount)),
		Searches:       m.searchCount,
		CappedSearches: m.cappedSearch,
		DroppedEvents:  m.droppedEvents,
	}
	for key, n := range m.requestCount {
		s.Requests[key] = n
		s.AvgLatencyMS[key] = (m.requestTime[key] / time.Duration(n)).Milliseconds()
	}
	for key, n := range m.errorCount {
		s.Errors[key] = n
	}
	return s
}

func pathKey(path, method, suffix string) string {
	return path + "|" + method + "|" + suffix
}
