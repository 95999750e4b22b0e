package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates metrics for replies.
type Metrics struct {
	mu sync.Mutex

	// Counters
	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	promptTokens  atomic.Int64
	spamRemoved   atomic.Int64

	// Channel-specific metrics
	channelMetrics map[string]*ChannelMetrics

	// Recent durations, oldest first
	durations    []time.Duration
	maxDurations int
}

// ChannelMetrics represents metrics for a single chat channel.
type ChannelMetrics struct {
	replyCount    atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000 // Default to keeping last 1000 durations
	}
	return &Metrics{
		channelMetrics: make(map[string]*ChannelMetrics),
		durations:      make([]time.Duration, 0, maxDurations),
		maxDurations:   maxDurations,
	}
}

// RecordRequest records a reply attempt.
func (m *Metrics) RecordRequest(channelID string) {
	m.requestTotal.Add(1)
	m.channel(channelID).replyCount.Add(1)
}

// RecordFailure records a failed reply.
func (m *Metrics) RecordFailure(channelID string) {
	m.requestFailed.Add(1)
	m.channel(channelID).errorCount.Add(1)
}

// RecordDuration records a reply duration.
func (m *Metrics) RecordDuration(channelID string, duration time.Duration) {
	cm := m.channel(channelID)
	cm.totalDuration.Add(duration.Milliseconds())

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		// Remove oldest duration (FIFO)
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordPromptTokens records the size of an assembled prompt.
func (m *Metrics) RecordPromptTokens(tokens int) {
	m.promptTokens.Add(int64(tokens))
}

// RecordSpamRemoved records messages dropped as repeats.
func (m *Metrics) RecordSpamRemoved(n int) {
	m.spamRemoved.Add(int64(n))
}

// GetRequestTotal returns the total number of requests.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed requests.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

// channel gets or creates channel metrics.
func (m *Metrics) channel(channelID string) *ChannelMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	cm, ok := m.channelMetrics[channelID]
	if !ok {
		cm = &ChannelMetrics{}
		m.channelMetrics[channelID] = cm
	}
	return cm
}

// GetAverageDuration returns the average duration in milliseconds for a channel.
func (m *Metrics) GetAverageDuration(channelID string) int64 {
	cm := m.channel(channelID)
	count := cm.replyCount.Load()
	if count == 0 {
		return 0
	}
	return cm.totalDuration.Load() / count
}

// GetAllChannels returns all channels that have been recorded, sorted.
func (m *Metrics) GetAllChannels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels := make([]string, 0, len(m.channelMetrics))
	for id := range m.channelMetrics {
		channels = append(channels, id)
	}
	sort.Strings(channels)
	return channels
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.promptTokens.Store(0)
	m.spamRemoved.Store(0)

	m.mu.Lock()
	m.channelMetrics = make(map[string]*ChannelMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels := make(map[string]*ChannelMetricsSnapshot, len(m.channelMetrics))
	for id, cm := range m.channelMetrics {
		count := cm.replyCount.Load()
		snap := &ChannelMetricsSnapshot{
			ReplyCount:    count,
			TotalDuration: cm.totalDuration.Load(),
			ErrorCount:    cm.errorCount.Load(),
		}
		if count > 0 {
			snap.AverageDuration = snap.TotalDuration / count
		}
		channels[id] = snap
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		PromptTokens:  m.promptTokens.Load(),
		SpamRemoved:   m.spamRemoved.Load(),
		Channels:      channels,
		DurationCount: len(m.durations),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64
	RequestFailed int64
	PromptTokens  int64
	SpamRemoved   int64
	Channels      map[string]*ChannelMetricsSnapshot
	DurationCount int
}

// ChannelMetricsSnapshot represents metrics for a single channel.
type ChannelMetricsSnapshot struct {
	ReplyCount      int64
	TotalDuration   int64
	ErrorCount      int64
	AverageDuration int64
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
