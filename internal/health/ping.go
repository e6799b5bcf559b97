package health

import "context"

// HealthPinger is implemented by components that can answer a liveness probe
// directly (e.g., a database-backed store pinging its connection).
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
