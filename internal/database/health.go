// file: internal/database/health.go
package database

import (
	"context"
	"time"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the result of a database health probe
type HealthStatus struct {
	Status       string        `json:"status"`
	Latency      time.Duration `json:"latency"`
	OpenConns    int           `json:"open_conns"`
	InUseConns   int           `json:"in_use_conns"`
	IdleConns    int           `json:"idle_conns"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
	Error        string        `json:"error,omitempty"`
}

// Health pings the database and reports pool statistics
func (m *Manager) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	err := m.db.PingContext(ctx)
	latency := time.Since(start)

	stats := m.db.Stats()
	status := HealthStatus{
		Latency:      latency,
		OpenConns:    stats.OpenConnections,
		InUseConns:   stats.InUse,
		IdleConns:    stats.Idle,
		WaitCount:    stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}

	switch {
	case err != nil:
		status.Status = StatusUnhealthy
		status.Error = err.Error()
	case latency > 250*time.Millisecond:
		status.Status = StatusDegraded
	default:
		status.Status = StatusHealthy
	}
	return status
}
