package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompterhq/prompter/pkg/models"
)

// memRepo is an in-memory Repository for tests. It performs no locking of
// its own, so any torn read-modify-write the ledger allows would show up as
// a wrong final balance.
type memRepo struct {
	mu       sync.Mutex
	balances map[string]float64
}

func newMemRepo() *memRepo {
	return &memRepo{balances: make(map[string]float64)}
}

func (r *memRepo) Credits(_ context.Context, ownerID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[ownerID], nil
}

func (r *memRepo) SetCredits(_ context.Context, ownerID string, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[ownerID] = balance
	return nil
}

func TestDeductCovered(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 10
	l := New(repo)

	d, err := l.Deduct(context.Background(), "u1", 1.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, d.Actual, 1e-9)
	assert.InDelta(t, 8.5, d.Remaining, 1e-9)
	assert.False(t, d.Clamped)
}

func TestDeductClampsAtZero(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 0.3
	l := New(repo)

	d, err := l.Deduct(context.Background(), "u1", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, d.Actual, 1e-9)
	assert.Zero(t, d.Remaining)
	assert.True(t, d.Clamped)

	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestDeductFromEmptyBalance(t *testing.T) {
	repo := newMemRepo()
	l := New(repo)

	d, err := l.Deduct(context.Background(), "u1", 2)
	require.NoError(t, err)
	assert.Zero(t, d.Actual)
	assert.Zero(t, d.Remaining)
	assert.True(t, d.Clamped)
}

func TestDeductNegativeAmount(t *testing.T) {
	l := New(newMemRepo())

	_, err := l.Deduct(context.Background(), "u1", -1)
	assert.Error(t, err)
}

func TestDeductExactWholeOrNothing(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 0.5
	l := New(repo)

	remaining, err := l.DeductExact(context.Background(), "u1", 1)
	require.ErrorIs(t, err, models.ErrInsufficientCredits)
	assert.InDelta(t, 0.5, remaining, 1e-9)

	// Failed deduction leaves the balance untouched.
	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, balance, 1e-9)
}

func TestDeductExactCovered(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 3
	l := New(repo)

	remaining, err := l.DeductExact(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 2, remaining, 1e-9)
}

func TestDeductExactConcurrent(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 50
	l := New(repo)

	const attempts = 100
	var wg sync.WaitGroup
	var succeeded, refused int64
	var mu sync.Mutex

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.DeductExact(context.Background(), "u1", 1)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, models.ErrInsufficientCredits) {
				refused++
			} else if err == nil {
				succeeded++
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, succeeded)
	assert.EqualValues(t, 50, refused)

	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestConcurrentDeductNeverOverdraws(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 5
	l := New(repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Deduct(context.Background(), "u1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestGrant(t *testing.T) {
	repo := newMemRepo()
	l := New(repo)

	balance, err := l.Grant(context.Background(), "u1", 25)
	require.NoError(t, err)
	assert.InDelta(t, 25, balance, 1e-9)

	balance, err = l.Grant(context.Background(), "u1", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 25.5, balance, 1e-9)

	_, err = l.Grant(context.Background(), "u1", -1)
	assert.Error(t, err)
}

func TestOwnersIsolated(t *testing.T) {
	repo := newMemRepo()
	repo.balances["u1"] = 10
	repo.balances["u2"] = 3
	l := New(repo)

	_, err := l.Deduct(context.Background(), "u1", 4)
	require.NoError(t, err)

	balance, err := l.Balance(context.Background(), "u2")
	require.NoError(t, err)
	assert.InDelta(t, 3, balance, 1e-9)
}
