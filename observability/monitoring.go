// Package observability aggregates runtime telemetry for the debug
// inspector and the heartbeat log. Counters are updated from many
// goroutines and read periodically; everything is atomic or guarded.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is one immutable snapshot of the counters.
type Stats struct {
	MessagesSent      uint64  `json:"messages_sent"`
	MessagesDelivered uint64  `json:"messages_delivered"`
	MessagesReplayed  uint64  `json:"messages_replayed"`
	DeliveryFailures  uint64  `json:"delivery_failures"`
	MessagesCensored  uint64  `json:"messages_censored"`
	OnlineUsers       int64   `json:"online_users"`
	RSSBytes          uint64  `json:"rss_bytes"`
	CPUPercent        float64 `json:"cpu_percent"`
	CollectedAt       string  `json:"collected_at"`
}

// Monitor is the process-wide telemetry collector.
type Monitor struct {
	messagesSent      atomic.Uint64
	messagesDelivered atomic.Uint64
	messagesReplayed  atomic.Uint64
	deliveryFailures  atomic.Uint64
	messagesCensored  atomic.Uint64
	onlineUsers       atomic.Int64

	mu         sync.RWMutex
	rssBytes   uint64
	cpuPercent float64
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) IncrSent()           { m.messagesSent.Add(1) }
func (m *Monitor) IncrReplayed()       { m.messagesReplayed.Add(1) }
func (m *Monitor) IncrCensored()       { m.messagesCensored.Add(1) }
func (m *Monitor) AddDelivered(n int)  { m.messagesDelivered.Add(uint64(n)) }
func (m *Monitor) AddFailures(n int)   { m.deliveryFailures.Add(uint64(n)) }
func (m *Monitor) UserConnected()      { m.onlineUsers.Add(1) }
func (m *Monitor) UserDisconnected()   { m.onlineUsers.Add(-1) }

// RecordSystem stores the latest process-level sample.
func (m *Monitor) RecordSystem(rssBytes uint64, cpuPercent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rssBytes = rssBytes
	m.cpuPercent = cpuPercent
}

// Snapshot returns a consistent copy of all counters.
func (m *Monitor) Snapshot() Stats {
	m.mu.RLock()
	rss, cpu := m.rssBytes, m.cpuPercent
	m.mu.RUnlock()

	return Stats{
		MessagesSent:      m.messagesSent.Load(),
		MessagesDelivered: m.messagesDelivered.Load(),
		MessagesReplayed:  m.messagesReplayed.Load(),
		DeliveryFailures:  m.deliveryFailures.Load(),
		MessagesCensored:  m.messagesCensored.Load(),
		OnlineUsers:       m.onlineUsers.Load(),
		RSSBytes:          rss,
		CPUPercent:        cpu,
		CollectedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}
