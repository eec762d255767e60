package service

import (
	"context"
	"sync"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/idempotency"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
)

// faultyStore wraps a real repository and lets tests break individual
// statements inside transactions.
type faultyStore struct {
	*repository.Repository
	DecreaseFails  map[int64]bool
	InsertLinesErr error
	// BeforeStatusUpdate runs inside the tx right before the conditional
	// status update; StatusUpdateNoop makes that update match nothing.
	BeforeStatusUpdate func(ctx context.Context, q repository.Querier, orderID int64)
	StatusUpdateNoop   bool
	// AfterCartLoad runs after each non-transactional cart read.
	AfterCartLoad func(memberID int64)

	mu        sync.Mutex
	Decreased []int64
	Increased []int64
}

func (f *faultyStore) FindCartLines(ctx context.Context, memberID int64) ([]domain.CartLine, error) {
	lines, err := f.Repository.FindCartLines(ctx, memberID)
	if f.AfterCartLoad != nil {
		f.AfterCartLoad(memberID)
	}
	return lines, err
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(q repository.Querier) error) error {
	return f.Repository.WithinTx(ctx, func(q repository.Querier) error {
		return fn(&faultyQuerier{Querier: q, store: f})
	})
}

type faultyQuerier struct {
	repository.Querier
	store *faultyStore
}

func (f *faultyQuerier) DecreaseStock(ctx context.Context, productID int64, qty int) (bool, error) {
	f.store.mu.Lock()
	f.store.Decreased = append(f.store.Decreased, productID)
	f.store.mu.Unlock()
	if f.store.DecreaseFails[productID] {
		return false, nil
	}
	return f.Querier.DecreaseStock(ctx, productID, qty)
}

func (f *faultyQuerier) IncreaseStock(ctx context.Context, productID int64, qty int) (bool, error) {
	f.store.mu.Lock()
	f.store.Increased = append(f.store.Increased, productID)
	f.store.mu.Unlock()
	return f.Querier.IncreaseStock(ctx, productID, qty)
}

func (f *faultyQuerier) InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	if f.store.InsertLinesErr != nil {
		return f.store.InsertLinesErr
	}
	return f.Querier.InsertOrderLines(ctx, lines)
}

func (f *faultyQuerier) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) (bool, error) {
	if f.store.BeforeStatusUpdate != nil {
		f.store.BeforeStatusUpdate(ctx, f.Querier, id)
	}
	if f.store.StatusUpdateNoop {
		return false, nil
	}
	return f.Querier.UpdateOrderStatus(ctx, id, from, to, at)
}

// MockRegistry records calls and returns canned results.
type MockRegistry struct {
	mu         sync.Mutex
	Outcome    idempotency.Outcome
	ExistingID int64
	AcquireErr error
	ResolveErr error
	Resolved   map[string]int64
	Released   []string
}

func (m *MockRegistry) Acquire(_ context.Context, _ string) (idempotency.Outcome, int64, error) {
	return m.Outcome, m.ExistingID, m.AcquireErr
}

func (m *MockRegistry) Resolve(_ context.Context, key string, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ResolveErr != nil {
		return m.ResolveErr
	}
	if m.Resolved == nil {
		m.Resolved = map[string]int64{}
	}
	m.Resolved[key] = orderID
	return nil
}

func (m *MockRegistry) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = append(m.Released, key)
	return nil
}
