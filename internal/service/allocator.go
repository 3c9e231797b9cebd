package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

const (
	sequenceWidth = 4
	maxSequence   = 9999
)

// RequestNumberAllocator generates collision-free sequential request numbers
// of the form {companyCode}-{departmentCode}-{YYYYMM}-{seq}. Allocation must
// run inside the transaction that persists the request; the advisory lock on
// the period prefix serializes concurrent submissions for the same scope
// without blocking other scopes.
type RequestNumberAllocator interface {
	Allocate(txCtx context.Context, company *model.Company, department *model.Department) (string, error)
}

type requestNumberAllocator struct {
	requestRepo repository.RequestRepository
	now         func() time.Time
}

func NewRequestNumberAllocator(requestRepo repository.RequestRepository) RequestNumberAllocator {
	return &requestNumberAllocator{requestRepo: requestRepo, now: time.Now}
}

func (a *requestNumberAllocator) Allocate(txCtx context.Context, company *model.Company, department *model.Department) (string, error) {
	prefix := numberPrefix(company.Code, department.Code, a.now())

	if err := a.requestRepo.AdvisoryLock(txCtx, prefix); err != nil {
		return "", &AllocationError{Msg: fmt.Sprintf("failed to acquire allocation lock for %s: %v", prefix, err), Retryable: true}
	}

	last, err := a.requestRepo.LastNumberWithPrefix(txCtx, prefix)
	if err != nil {
		return "", &AllocationError{Msg: fmt.Sprintf("failed to read last number for %s: %v", prefix, err), Retryable: true}
	}

	seq, err := nextSequence(last, prefix)
	if err != nil {
		return "", err
	}

	return formatNumber(prefix, seq), nil
}

// numberPrefix builds the allocation scope key: company, department, period
func numberPrefix(companyCode, departmentCode string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%s-", companyCode, departmentCode, t.Format("200601"))
}

// nextSequence parses the sequence suffix of the highest existing number and
// increments it. An empty last number starts the period at 1. Overflow past
// the fixed width fails instead of wrapping.
func nextSequence(last, prefix string) (int, error) {
	if last == "" {
		return 1, nil
	}
	suffix := strings.TrimPrefix(last, prefix)
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, &AllocationError{Msg: fmt.Sprintf("malformed request number %q for prefix %s", last, prefix)}
	}
	if n >= maxSequence {
		return 0, &AllocationError{Msg: fmt.Sprintf("request number sequence exhausted for %s", prefix)}
	}
	return n + 1, nil
}

func formatNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%0*d", prefix, sequenceWidth, seq)
}
