// Package ledger manages per-owner prepaid credit balances for prompter.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/pkg/models"
)

// Repository is the durable store behind the ledger. Credits and SetCredits
// for a single owner are only ever called inside the ledger's per-owner
// critical section.
type Repository interface {
	Credits(ctx context.Context, ownerID string) (float64, error)
	SetCredits(ctx context.Context, ownerID string, balance float64) error
}

// Deduction reports how a deduction settled.
type Deduction struct {
	// Actual is the amount charged: min(requested, balance).
	Actual float64
	// Remaining is the post-deduction balance.
	Remaining float64
	// Clamped is true when the balance could not cover the requested
	// amount and the deduction was reduced to the full remaining balance.
	Clamped bool
}

// Ledger serializes balance mutations per owner. A read-clamp-write sequence
// is a single logical transaction; the keyed mutex keeps two such sequences
// for the same owner from interleaving.
type Ledger struct {
	repo  Repository
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Ledger over the given repository.
func New(repo Repository) *Ledger {
	return &Ledger{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

// ownerLock returns the mutex for an owner, creating it on first use.
// Locks are never evicted; one mutex per owner is cheap.
func (l *Ledger) ownerLock(ownerID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[ownerID] = lock
	}
	return lock
}

// Balance returns a read-only snapshot of the owner's balance.
func (l *Ledger) Balance(ctx context.Context, ownerID string) (float64, error) {
	return l.repo.Credits(ctx, ownerID)
}

// Deduct subtracts up to amount from the owner's balance, clamping at zero.
// The balance never goes negative; the shortfall is absorbed, not tracked
// as debt.
func (l *Ledger) Deduct(ctx context.Context, ownerID string, amount float64) (Deduction, error) {
	if amount < 0 {
		return Deduction{}, fmt.Errorf("deduct amount must be non-negative, got %v", amount)
	}

	lock := l.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.repo.Credits(ctx, ownerID)
	if err != nil {
		return Deduction{}, err
	}

	actual := amount
	clamped := false
	if balance < amount {
		actual = balance
		clamped = true
	}
	remaining := balance - actual

	if err := l.repo.SetCredits(ctx, ownerID, remaining); err != nil {
		return Deduction{}, err
	}

	log.Debug().
		Str("ownerId", ownerID).
		Float64("requested", amount).
		Float64("actual", actual).
		Float64("remaining", remaining).
		Bool("clamped", clamped).
		Msg("Credits deducted")

	return Deduction{Actual: actual, Remaining: remaining, Clamped: clamped}, nil
}

// DeductExact subtracts exactly amount from the owner's balance, or nothing
// at all. Unlike Deduct it never settles partially: when the balance cannot
// cover the amount it returns models.ErrInsufficientCredits and leaves the
// balance untouched. Used for the flat per-question charge.
func (l *Ledger) DeductExact(ctx context.Context, ownerID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("deduct amount must be non-negative, got %v", amount)
	}

	lock := l.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.repo.Credits(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return balance, models.ErrInsufficientCredits
	}

	remaining := balance - amount
	if err := l.repo.SetCredits(ctx, ownerID, remaining); err != nil {
		return 0, err
	}

	log.Debug().
		Str("ownerId", ownerID).
		Float64("amount", amount).
		Float64("remaining", remaining).
		Msg("Credits deducted")

	return remaining, nil
}

// Grant adds amount to the owner's balance and returns the new balance.
func (l *Ledger) Grant(ctx context.Context, ownerID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("grant amount must be non-negative, got %v", amount)
	}

	lock := l.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.repo.Credits(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	balance += amount
	if err := l.repo.SetCredits(ctx, ownerID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}
