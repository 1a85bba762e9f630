package redis

import (
	"context"
	"time"
)

// HealthStats contains health information about the Redis connection.
type HealthStats struct {
	Healthy    bool          `json:"healthy"`
	Latency    time.Duration `json:"latency"`
	TotalConns uint32        `json:"total_conns"`
	IdleConns  uint32        `json:"idle_conns"`
	Error      string        `json:"error,omitempty"`
}

// HealthWithStats pings Redis and reports latency and pool usage.
func (c *Client) HealthWithStats(ctx context.Context) *HealthStats {
	stats := &HealthStats{}

	start := time.Now()
	err := c.Ping(ctx)
	stats.Latency = time.Since(start)
	if err != nil {
		stats.Error = err.Error()
		return stats
	}

	stats.Healthy = true
	pool := c.client.PoolStats()
	stats.TotalConns = pool.TotalConns
	stats.IdleConns = pool.IdleConns
	return stats
}
