package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/utils"
)

const DefaultSuccessRate = 80

// Settlement is the outcome of one processing attempt.
type Settlement struct {
	Status        entity.PaymentStatus
	TransactionID string
}

// Settler decides the outcome of a payment attempt. Every call is an
// independent attempt with a fresh transaction id.
type Settler interface {
	Settle(ctx context.Context, booking *entity.Booking, amount entity.Money) Settlement
}

type randomSettler struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate int
	now         func() time.Time
}

// NewRandomSettler completes successRate percent of attempts. A zero seed
// seeds from the clock; tests pass a fixed seed for a repeatable sequence.
func NewRandomSettler(successRate int, seed int64) Settler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	switch {
	case successRate < 0:
		successRate = 0
	case successRate > 100:
		successRate = 100
	}
	return &randomSettler{
		rng:         rand.New(rand.NewSource(seed)),
		successRate: successRate,
		now:         time.Now,
	}
}

func (s *randomSettler) Settle(_ context.Context, _ *entity.Booking, _ entity.Money) Settlement {
	s.mu.Lock()
	draw := s.rng.Intn(100)
	suffix := 1000 + s.rng.Intn(9000)
	s.mu.Unlock()

	status := entity.PaymentStatusFailed
	if draw < s.successRate {
		status = entity.PaymentStatusCompleted
	}

	return Settlement{
		Status:        status,
		TransactionID: utils.GenerateTransactionID(s.now(), suffix),
	}
}
