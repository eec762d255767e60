package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
)

const (
	orderNumberPrefix      = "ORD"
	orderNumberAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderNumberLength      = 12
	maxOrderNumberAttempts = 10
)

// RandomOrderNumber returns "ORD" followed by 12 characters drawn from an
// alphabet without look-alike glyphs (no I, O, 0, 1). The alphabet has 32
// symbols so byte%32 is unbiased.
func RandomOrderNumber() (string, error) {
	buf := make([]byte, orderNumberLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return orderNumberPrefix + string(buf), nil
}

func (s *OrderService) uniqueOrderNumber(ctx context.Context, q repository.Querier) (string, error) {
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.newOrderNumber()
		if err != nil {
			return "", err
		}
		exists, err := q.ExistsByOrderNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: no unique order number after %d attempts", ErrInternal, maxOrderNumberAttempts)
}
