package settlement

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Gateway simulates an external payment settlement provider. It sleeps for a
// configured latency and then approves or declines the charge. Real
// integrations would speak to a payment processor here; the caller contract
// (context-bounded, declined-vs-error distinction) stays the same.
type Gateway struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	latency     time.Duration
}

func NewGateway(successRate float64, latency time.Duration) *Gateway {
	return &Gateway{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: successRate,
		latency:     latency,
	}
}

// Settle charges the given amount. It returns (true, nil) on approval,
// (false, nil) on decline, and a context error if the deadline elapses before
// the provider answers.
func (g *Gateway) Settle(ctx context.Context, paymentID string, amount string) (bool, error) {
	_ = paymentID
	_ = amount

	timer := time.NewTimer(g.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.random.Float64() <= g.successRate, nil
}
