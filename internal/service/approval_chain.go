package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// ApprovalChain owns the ordered role sequence of the workflow: it fans out
// pending approval records on submission, answers "which role gates this
// status", and restarts the chain on resubmission. The chain itself comes
// from configuration; order always follows the default sequence.
type ApprovalChain struct {
	chain        []model.ApprovalRole
	userRepo     repository.UserRepository
	approvalRepo repository.ApprovalRepository
}

func NewApprovalChain(chain []model.ApprovalRole, userRepo repository.UserRepository, approvalRepo repository.ApprovalRepository) *ApprovalChain {
	if len(chain) == 0 {
		chain = model.DefaultApprovalChain
	}
	return &ApprovalChain{chain: chain, userRepo: userRepo, approvalRepo: approvalRepo}
}

// RequiredRoles returns the ordered role sequence every request must pass
func (c *ApprovalChain) RequiredRoles() []model.ApprovalRole {
	return c.chain
}

// FinalRole is the role whose approval completes the request
func (c *ApprovalChain) FinalRole() model.ApprovalRole {
	return c.chain[len(c.chain)-1]
}

// NextRole returns the role gating the request at its current status, or
// false for statuses that await no approval.
func (c *ApprovalChain) NextRole(status model.RequestStatus) (model.ApprovalRole, bool) {
	role, ok := model.NextApproverRole(status)
	if !ok {
		return "", false
	}
	for _, r := range c.chain {
		if r == role {
			return role, true
		}
	}
	return "", false
}

// StatusAfter returns the request status reached once the given role
// approves, honoring a configured subset chain: approval by the final
// configured role always completes the request.
func (c *ApprovalChain) StatusAfter(role model.ApprovalRole) (model.RequestStatus, bool) {
	if role == c.FinalRole() {
		return model.StatusCompleted, true
	}
	return model.StatusAfterApproval(role)
}

// CreateApprovalRecords resolves the eligible approver set per required role
// and creates one pending approval per approver (fan-out). A role with no
// eligible approver produces no rows: creation still succeeds, and the
// request surfaces later through the stuck-workflow query rather than
// auto-completing.
func (c *ApprovalChain) CreateApprovalRecords(txCtx context.Context, request *model.Request) error {
	approvals := make([]model.Approval, 0, len(c.chain))

	for _, role := range c.chain {
		scope := model.ApproverScopes[role]

		var companyID, departmentID *uuid.UUID
		if scope.CompanyScoped {
			companyID = &request.CompanyID
		}
		if scope.DepartmentScoped {
			departmentID = &request.DepartmentID
		}

		approvers, err := c.userRepo.ListByRole(txCtx, string(role), companyID, departmentID)
		if err != nil {
			return err
		}

		for _, approver := range approvers {
			approvals = append(approvals, model.Approval{
				RequestID: request.ID,
				UserID:    approver.ID,
				Role:      role,
				Status:    model.ApprovalPending,
			})
		}
	}

	return c.approvalRepo.CreateBatch(txCtx, approvals)
}

// ResetForResubmission restarts the full chain: every approval goes back to
// pending with resolution fields cleared. Callers run this in the same
// transaction as the status change to submitted.
func (c *ApprovalChain) ResetForResubmission(txCtx context.Context, requestID uuid.UUID) error {
	return c.approvalRepo.ResetForRequest(txCtx, requestID)
}
