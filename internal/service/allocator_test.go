package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

// fakeNumberRepo stubs just the two repository calls allocation makes.
// The embedded interface covers the rest of the surface.
type fakeNumberRepo struct {
	repository.RequestRepository
	lockErr    error
	lastNumber string
	lastErr    error
	lockedKeys []string
}

func (f *fakeNumberRepo) AdvisoryLock(ctx context.Context, key string) error {
	f.lockedKeys = append(f.lockedKeys, key)
	return f.lockErr
}

func (f *fakeNumberRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	return f.lastNumber, f.lastErr
}

func fixedTime() time.Time {
	return time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
}

func testAllocator(repo repository.RequestRepository) *requestNumberAllocator {
	return &requestNumberAllocator{requestRepo: repo, now: fixedTime}
}

func TestNumberPrefix(t *testing.T) {
	got := numberPrefix("ACME", "ENG", fixedTime())
	want := "ACME-ENG-202603-"
	if got != want {
		t.Errorf("numberPrefix = %q, want %q", got, want)
	}
}

func TestAllocateFirstOfPeriod(t *testing.T) {
	repo := &fakeNumberRepo{}
	number, err := testAllocator(repo).Allocate(context.Background(), &model.Company{Code: "ACME"}, &model.Department{Code: "ENG"})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if number != "ACME-ENG-202603-0001" {
		t.Errorf("Allocate = %q, want ACME-ENG-202603-0001", number)
	}
	if len(repo.lockedKeys) != 1 || repo.lockedKeys[0] != "ACME-ENG-202603-" {
		t.Errorf("advisory lock taken on %v, want the period prefix", repo.lockedKeys)
	}
}

func TestAllocateIncrementsHighest(t *testing.T) {
	repo := &fakeNumberRepo{lastNumber: "ACME-ENG-202603-0041"}
	number, err := testAllocator(repo).Allocate(context.Background(), &model.Company{Code: "ACME"}, &model.Department{Code: "ENG"})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if number != "ACME-ENG-202603-0042" {
		t.Errorf("Allocate = %q, want ACME-ENG-202603-0042", number)
	}
}

func TestAllocateSequenceExhausted(t *testing.T) {
	repo := &fakeNumberRepo{lastNumber: "ACME-ENG-202603-9999"}
	_, err := testAllocator(repo).Allocate(context.Background(), &model.Company{Code: "ACME"}, &model.Department{Code: "ENG"})

	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("expected AllocationError, got %v", err)
	}
	if allocErr.Retryable {
		t.Error("exhaustion must not be marked retryable")
	}
}

func TestAllocateLockFailureIsRetryable(t *testing.T) {
	repo := &fakeNumberRepo{lockErr: errors.New("lock timeout")}
	_, err := testAllocator(repo).Allocate(context.Background(), &model.Company{Code: "ACME"}, &model.Department{Code: "ENG"})

	var allocErr *AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("expected AllocationError, got %v", err)
	}
	if !allocErr.Retryable {
		t.Error("lock failure must be retryable")
	}
}

func TestNextSequence(t *testing.T) {
	prefix := "ACME-ENG-202603-"

	seq, err := nextSequence("", prefix)
	if err != nil || seq != 1 {
		t.Errorf("empty last: got %d, %v; want 1", seq, err)
	}

	seq, err = nextSequence(prefix+"0009", prefix)
	if err != nil || seq != 10 {
		t.Errorf("after 0009: got %d, %v; want 10", seq, err)
	}

	if _, err = nextSequence(prefix+"abcd", prefix); err == nil {
		t.Error("malformed suffix must fail")
	}

	if _, err = nextSequence(prefix+"9999", prefix); err == nil {
		t.Error("sequence past 9999 must fail, not wrap")
	}
}

func TestFormatNumberPadsSequence(t *testing.T) {
	if got := formatNumber("ACME-ENG-202603-", 7); got != "ACME-ENG-202603-0007" {
		t.Errorf("formatNumber = %q", got)
	}
	if got := formatNumber("ACME-ENG-202603-", 9999); got != "ACME-ENG-202603-9999" {
		t.Errorf("formatNumber = %q", got)
	}
}
